package recorder

import (
	"slices"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/obsrec/pkg/obs"
	"github.com/cyclopcam/obsrec/pkg/tabular"
)

// Buffer holds the most recent value of every measurement, until the frame is committed.
// Values persist across commits, except for the images, which must be supplied anew for every frame.
type Buffer struct {
	Timestamp     float64
	Success       bool
	Confidence    float64
	Landmarks2D   obs.Matrix
	Landmarks3D   obs.Matrix
	ShapeLocal    obs.Matrix
	ShapeGlobal   obs.Vec6
	Pose          obs.Vec6
	GazeLeft      obs.Point3f
	GazeRight     obs.Point3f
	GazeAngle     obs.Vec2
	EyeLandmarks  []obs.Point2
	Intensities   []obs.Detection
	Classes       []obs.Detection
	Features      obs.FeatureBlock
	FeaturesValid bool
	Visualization *cimg.Image
	Aligned       *cimg.Image
}

// Build the tabular row for the given frame number
func (b *Buffer) row(frame uint64) *tabular.Row {
	return &tabular.Row{
		Frame:        frame,
		Timestamp:    b.Timestamp,
		Success:      b.Success,
		Confidence:   b.Confidence,
		Landmarks2D:  b.Landmarks2D,
		Landmarks3D:  b.Landmarks3D,
		ShapeLocal:   b.ShapeLocal,
		ShapeGlobal:  b.ShapeGlobal,
		Pose:         b.Pose,
		GazeLeft:     b.GazeLeft,
		GazeRight:    b.GazeRight,
		GazeAngle:    b.GazeAngle,
		EyeLandmarks: b.EyeLandmarks,
		Intensities:  b.Intensities,
		Classes:      b.Classes,
	}
}

// Drop the per-frame images
func (b *Buffer) clearImages() {
	b.Visualization = nil
	b.Aligned = nil
}

// Deep copy of img, so that the caller may reuse its frame memory.
// The copy is tightly packed.
func cloneImage(img *cimg.Image) *cimg.Image {
	if img == nil {
		return nil
	}
	c := cimg.NewImage(img.Width, img.Height, img.Format)
	rowBytes := img.Width * img.NChan()
	for y := 0; y < img.Height; y++ {
		copy(c.Pixels[y*c.Stride:y*c.Stride+rowBytes], img.Pixels[y*img.Stride:y*img.Stride+rowBytes])
	}
	return c
}

// The tabular schema is derived from the shapes inside the first committed frame.
// Detection names are sorted, so that the column order doesn't depend on the order
// in which the detector produced them.
func deriveSchema(groups tabular.Groups, b *Buffer) *tabular.Schema {
	classNames := obs.DetectionNames(b.Classes)
	slices.Sort(classNames)
	intensityNames := obs.DetectionNames(b.Intensities)
	slices.Sort(intensityNames)
	return tabular.NewSchema(groups, b.Landmarks2D.Rows/2, b.ShapeLocal.Rows/2, len(b.EyeLandmarks), classNames, intensityNames)
}
