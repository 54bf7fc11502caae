package recorder

import (
	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/obsrec/pkg/featurestream"
	"github.com/cyclopcam/obsrec/pkg/obs"
	"github.com/cyclopcam/obsrec/pkg/tabular"
	"github.com/cyclopcam/obsrec/pkg/videox"
)

// TabularSink receives one row per committed frame
type TabularSink interface {
	WriteRow(row *tabular.Row) error
	Close() error
}

// FeatureSink receives one feature block per committed frame
type FeatureSink interface {
	WriteRecord(valid bool, block obs.FeatureBlock) error
	Close() error
}

// VideoSink receives visualization frames. It may receive fewer frames than were committed.
type VideoSink interface {
	WriteFrame(img *cimg.Image) error
	Close() error
}

type TabularOpener func(filename string, schema *tabular.Schema) (TabularSink, error)
type FeatureOpener func(filename string) (FeatureSink, error)
type VideoOpener func(filename, codec string, fps float64, width, height int) (VideoSink, error)

// Backends creates the sinks of a session.
// Any nil member is replaced by the default implementation.
type Backends struct {
	Tabular TabularOpener
	Feature FeatureOpener
	Video   VideoOpener
}

func DefaultBackends() Backends {
	return Backends{
		Tabular: func(filename string, schema *tabular.Schema) (TabularSink, error) {
			w, err := tabular.Create(filename, schema)
			if err != nil {
				return nil, err
			}
			return w, nil
		},
		Feature: func(filename string) (FeatureSink, error) {
			w, err := featurestream.Create(filename)
			if err != nil {
				return nil, err
			}
			return w, nil
		},
		Video: func(filename, codec string, fps float64, width, height int) (VideoSink, error) {
			w, err := videox.NewVideoWriter(filename, codec, fps, width, height)
			if err != nil {
				return nil, err
			}
			return w, nil
		},
	}
}

func (b Backends) withDefaults() Backends {
	def := DefaultBackends()
	if b.Tabular == nil {
		b.Tabular = def.Tabular
	}
	if b.Feature == nil {
		b.Feature = def.Feature
	}
	if b.Video == nil {
		b.Video = def.Video
	}
	return b
}
