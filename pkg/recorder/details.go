package recorder

import (
	"encoding/json"
	"os"
	"time"

	"github.com/cyclopcam/obsrec/pkg/perfstats"
	"github.com/dustin/go-humanize"
)

// Details is the summary of a session, written as JSON alongside the other outputs
type Details struct {
	SessionID  string                 `json:"sessionID"`
	Input      string                 `json:"input"`
	OutputRoot string                 `json:"outputRoot"`
	Files      Paths                  `json:"files"`
	VideoCodec string                 `json:"videoCodec,omitempty"`
	VideoFPS   float64                `json:"videoFPS,omitempty"`
	Columns    []string               `json:"columns,omitempty"`
	Stats      Stats                  `json:"stats"`
	Timers     perfstats.OutputTimers `json:"timers"`
	Started    time.Time              `json:"started"`
	Finished   time.Time              `json:"finished"`
}

func (s *Session) details(finished time.Time) *Details {
	d := &Details{
		SessionID:  s.ID.String(),
		Input:      s.Input,
		OutputRoot: s.Root,
		Files:      s.Paths,
		Stats:      s.stats,
		Timers:     s.timers,
		Started:    s.started,
		Finished:   finished,
	}
	if s.params.OutputVideo {
		d.VideoCodec = s.params.VideoCodec
		d.VideoFPS = s.params.VideoFPS
	}
	if s.schema != nil {
		d.Columns = s.schema.Columns()
	}
	return d
}

func (s *Session) writeDetails(finished time.Time) error {
	b, err := json.MarshalIndent(s.details(finished), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.Paths.Details, b, 0664)
}

// Load a details file written by a session
func LoadDetails(filename string) (*Details, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	d := &Details{}
	if err := json.Unmarshal(raw, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Session) logSummary() {
	var total int64
	for _, fn := range []string{s.Paths.CSV, s.Paths.HOG, s.Paths.Video} {
		if fn == "" {
			continue
		}
		if st, err := os.Stat(fn); err == nil {
			total += st.Size()
		}
	}
	s.log.Infof("Recording %v closed: %v frames, %v video frames (%v dropped), %v warnings, %v written to %v",
		s.Tag, s.stats.Frames, s.stats.VideoFrames, s.stats.VideoDropped, s.stats.Warnings, humanize.Bytes(uint64(total)), s.Root)
	if s.params.OutputVideo {
		s.log.Infof("Recording %v video write time: %v", s.Tag, &s.timers.Video)
	}
	if s.params.OutputCSV {
		s.log.Infof("Recording %v CSV write time: %v", s.Tag, &s.timers.Tabular)
	}
}
