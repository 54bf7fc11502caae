package recorder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/obsrec/pkg/obs"
	"github.com/cyclopcam/obsrec/pkg/perfstats"
	"github.com/cyclopcam/obsrec/pkg/snapshot"
	"github.com/cyclopcam/obsrec/pkg/tabular"
	"github.com/google/uuid"
)

var ErrClosed = errors.New("recording session is closed")
var ErrSinkFailed = errors.New("recording sink failed")

type sessionState int

const (
	stateCreated sessionState = iota // No frame committed yet. Only the feature stream is open.
	stateActive                      // Schema frozen
	stateClosed                      // All sinks released. Terminal.
)

type videoState int

const (
	videoNotOpened videoState = iota // Waiting for the first visualization image
	videoOpen                        // Writing frames
	videoFailed                      // Could not be opened. Terminal, never retried.
)

// Paths of the files produced by a session. Empty if the output is disabled.
type Paths struct {
	CSV        string `json:"csv,omitempty"`
	HOG        string `json:"hog,omitempty"`
	Video      string `json:"video,omitempty"`
	AlignedDir string `json:"alignedDir,omitempty"`
	Details    string `json:"details,omitempty"`
}

// Stats are running totals of what a session has done
type Stats struct {
	Frames         uint64 `json:"frames"`         // Number of commits
	TabularRows    int    `json:"tabularRows"`    // Rows written to the CSV file
	FeatureRecords int    `json:"featureRecords"` // Records written to the HOG file
	VideoFrames    int    `json:"videoFrames"`    // Frames written to the video
	VideoDropped   int    `json:"videoDropped"`   // Commits that produced no video frame while video was enabled
	AlignedImages  int    `json:"alignedImages"`  // Aligned face images written
	Warnings       int    `json:"warnings"`       // Non-fatal problems reported to the log
	ShapeDrift     int    `json:"shapeDrift"`     // Frames whose shapes differ from the frozen schema
}

// Session records one input (eg a video file) into a set of output files.
// Use the Set functions to populate the current frame, then Commit() to write it to every output.
// A Session is not safe for concurrent use. You must Close() a session when you are done with it.
type Session struct {
	ID    uuid.UUID
	Input string // Input name, as given to NewSession
	Tag   string // Input name without directory or extension. All output filenames are derived from this.
	Root  string // Output directory
	Paths Paths

	log      logs.Log
	params   Params
	backends Backends
	state    sessionState
	fatal    error // First tabular/feature failure. Every later commit returns it.
	frame    uint64
	schema   *tabular.Schema
	buf      Buffer
	stats    Stats
	timers   perfstats.OutputTimers
	started  time.Time

	warnedDrift bool

	tabular TabularSink
	feature FeatureSink
	video   VideoSink
	vstate  videoState
	aligned *snapshot.DirWriter
}

// NewSession creates a session with the default sink implementations
func NewSession(log logs.Log, outDir, inputName string, params Params) (*Session, error) {
	return NewSessionWithBackends(log, outDir, inputName, params, Backends{})
}

// NewSessionWithBackends creates a session whose sinks are created by backends.
// The output directory is created if necessary. Failure to create it is logged, but not returned,
// because the sinks will report their own failures when they try to open their files.
// The feature stream is opened immediately, and a failure to do so is returned.
// The CSV file and the video are opened by the first Commit that needs them.
func NewSessionWithBackends(log logs.Log, outDir, inputName string, params Params, backends Backends) (*Session, error) {
	params.normalize()
	base := filepath.Base(inputName)
	tag := strings.TrimSuffix(base, filepath.Ext(base))

	s := &Session{
		ID:       uuid.New(),
		Input:    inputName,
		Tag:      tag,
		Root:     outDir,
		log:      log,
		params:   params,
		backends: backends.withDefaults(),
		started:  time.Now(),
	}

	if err := os.MkdirAll(outDir, 0775); err != nil {
		s.log.Errorf("Failed to create output directory %v: %v", outDir, err)
	}

	if params.OutputCSV {
		s.Paths.CSV = s.outputPath(".csv")
	}
	if params.OutputHOG {
		s.Paths.HOG = s.outputPath(".hog")
	}
	if params.OutputVideo {
		s.Paths.Video = s.outputPath(".avi")
	}
	if params.OutputAligned {
		s.Paths.AlignedDir = s.outputPath("_aligned")
		s.aligned = snapshot.NewDirWriter(s.Paths.AlignedDir, params.AlignedQuality)
	}
	if params.OutputDetails {
		s.Paths.Details = s.outputPath("_details.json")
	}

	if params.OutputHOG {
		f, err := s.backends.Feature(s.Paths.HOG)
		if err != nil {
			return nil, fmt.Errorf("Failed to create feature stream %v: %w", s.Paths.HOG, err)
		}
		s.feature = f
	}

	return s, nil
}

func (s *Session) outputPath(suffix string) string {
	return filepath.Join(s.Root, s.Tag+suffix)
}

// Number of committed frames
func (s *Session) FrameCount() uint64 {
	return s.frame
}

// The CSV schema, or nil if no frame has been committed yet, or the CSV output is disabled
func (s *Session) Schema() *tabular.Schema {
	return s.schema
}

func (s *Session) Stats() Stats {
	return s.stats
}

// Time spent writing to each output
func (s *Session) Timers() perfstats.OutputTimers {
	return s.timers
}

func (s *Session) Params() Params {
	return s.params
}

func (s *Session) IsClosed() bool {
	return s.state == stateClosed
}

func (s *Session) SetTimestamp(timestamp float64) {
	s.buf.Timestamp = timestamp
}

// SetGeometry sets the facial landmarks and the shape model parameters
func (s *Session) SetGeometry(landmarks2D, landmarks3D obs.Matrix, shapeGlobal obs.Vec6, shapeLocal obs.Matrix, confidence float64, success bool) {
	s.buf.Landmarks2D = landmarks2D.Clone()
	s.buf.Landmarks3D = landmarks3D.Clone()
	s.buf.ShapeGlobal = shapeGlobal
	s.buf.ShapeLocal = shapeLocal.Clone()
	s.buf.Confidence = confidence
	s.buf.Success = success
}

func (s *Session) SetPose(pose obs.Vec6) {
	s.buf.Pose = pose
}

func (s *Session) SetGaze(left, right obs.Point3f, angle obs.Vec2, eyeLandmarks []obs.Point2) {
	s.buf.GazeLeft = left
	s.buf.GazeRight = right
	s.buf.GazeAngle = angle
	s.buf.EyeLandmarks = append([]obs.Point2(nil), eyeLandmarks...)
}

// SetDetections sets the continuous (intensities) and the presence (classes) detections
func (s *Session) SetDetections(intensities, classes []obs.Detection) {
	s.buf.Intensities = obs.CloneDetections(intensities)
	s.buf.Classes = obs.CloneDetections(classes)
}

func (s *Session) SetFeatureBlock(valid bool, block obs.FeatureBlock) {
	s.buf.FeaturesValid = valid
	s.buf.Features = block.Clone()
}

// SetVisualization stages the image for the next video frame. The image is copied.
// It is ignored unless video output is enabled.
func (s *Session) SetVisualization(img *cimg.Image) {
	if !s.params.OutputVideo {
		return
	}
	s.buf.Visualization = cloneImage(img)
}

// SetAlignedFace stages the aligned face image of the current frame. The image is copied.
// It is ignored unless aligned output is enabled.
func (s *Session) SetAlignedFace(img *cimg.Image) {
	if !s.params.OutputAligned {
		return
	}
	s.buf.Aligned = cloneImage(img)
}

// Commit writes the current frame to every enabled output, and advances the frame counter.
//
// The CSV row and the feature record are always written, so their counts match FrameCount().
// A failure of either one is fatal for the session: it is returned now, and from every later Commit.
// Video and aligned image failures are logged as warnings, and only affect those outputs.
func (s *Session) Commit() error {
	if s.state == stateClosed {
		return ErrClosed
	}
	if s.fatal != nil {
		return s.fatal
	}

	s.frame++
	s.stats.Frames = s.frame

	if s.state == stateCreated {
		s.state = stateActive
		if s.params.OutputCSV {
			s.schema = deriveSchema(s.params.Columns, &s.buf)
			t, err := s.backends.Tabular(s.Paths.CSV, s.schema)
			if err != nil {
				return s.fail(fmt.Errorf("%w: create %v: %w", ErrSinkFailed, s.Paths.CSV, err))
			}
			s.tabular = t
		}
	}

	if s.tabular != nil {
		row := s.buf.row(s.frame)
		if !s.schema.Fits(row) {
			s.stats.ShapeDrift++
			if !s.warnedDrift {
				s.warnedDrift = true
				s.warnf("Frame %v has different shapes to the first frame. Values are fitted to the columns of the first frame.", s.frame)
			}
		}
		start := time.Now()
		err := s.tabular.WriteRow(row)
		s.timers.Tabular.Since(start)
		if err != nil {
			return s.fail(fmt.Errorf("%w: frame %v of %v: %w", ErrSinkFailed, s.frame, s.Paths.CSV, err))
		}
		s.stats.TabularRows++
	}

	if s.feature != nil {
		start := time.Now()
		err := s.feature.WriteRecord(s.buf.FeaturesValid, s.buf.Features)
		s.timers.Feature.Since(start)
		if err != nil {
			return s.fail(fmt.Errorf("%w: frame %v of %v: %w", ErrSinkFailed, s.frame, s.Paths.HOG, err))
		}
		s.stats.FeatureRecords++
	}

	if s.params.OutputVideo {
		s.commitVideo()
	}

	if s.aligned != nil && s.buf.Aligned != nil {
		start := time.Now()
		err := s.aligned.Write(s.frame, s.buf.Aligned)
		s.timers.Aligned.Since(start)
		if err != nil {
			s.warnf("Failed to write aligned image of frame %v: %v", s.frame, err)
		} else {
			s.stats.AlignedImages++
		}
	}

	s.buf.clearImages()
	return nil
}

func (s *Session) commitVideo() {
	img := s.buf.Visualization

	if s.vstate == videoNotOpened && img != nil {
		v, err := s.backends.Video(s.Paths.Video, s.params.VideoCodec, s.params.VideoFPS, img.Width, img.Height)
		if err != nil {
			s.vstate = videoFailed
			s.warnf("Could not open video writer, %v will not be written. Currently using codec %v, try using another one: %v", s.Paths.Video, s.params.VideoCodec, err)
			return
		}
		s.video = v
		s.vstate = videoOpen
	}

	if s.vstate == videoFailed {
		return
	}

	if img == nil {
		s.stats.VideoDropped++
		s.warnf("Visualization image of frame %v is not set. Frame is missing from video.", s.frame)
		return
	}

	start := time.Now()
	err := s.video.WriteFrame(img)
	s.timers.Video.Since(start)
	if err != nil {
		s.stats.VideoDropped++
		s.warnf("Failed to write frame %v to video: %v", s.frame, err)
		return
	}
	s.stats.VideoFrames++
}

func (s *Session) fail(err error) error {
	s.fatal = err
	s.log.Errorf("Recording %v: %v", s.Tag, err)
	return err
}

func (s *Session) warnf(format string, args ...any) {
	s.stats.Warnings++
	s.log.Warnf("Recording %v: "+format, append([]any{s.Tag}, args...)...)
}

// Close finalizes every output. Only the first call does anything.
// The first error encountered is returned, but all outputs are closed regardless.
func (s *Session) Close() error {
	if s.state == stateClosed {
		return nil
	}
	s.state = stateClosed
	s.buf.clearImages()

	var firstErr error
	keep := func(err error) {
		if firstErr == nil && err != nil {
			firstErr = err
		}
	}
	if s.tabular != nil {
		keep(s.tabular.Close())
		s.tabular = nil
	}
	if s.feature != nil {
		keep(s.feature.Close())
		s.feature = nil
	}
	if s.video != nil {
		keep(s.video.Close())
		s.video = nil
	}
	if s.params.OutputDetails {
		keep(s.writeDetails(time.Now()))
	}
	s.logSummary()
	return firstErr
}
