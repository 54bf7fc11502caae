package obs

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// Frame is one analysed frame, as stored in a JSON-lines observation log.
// Each line of the log is one Frame.
type Frame struct {
	Timestamp    float64      `json:"timestamp"`
	Success      bool         `json:"success"`
	Confidence   float64      `json:"confidence"`
	Landmarks2D  Matrix       `json:"landmarks2D"`
	Landmarks3D  Matrix       `json:"landmarks3D"`
	ShapeLocal   Matrix       `json:"shapeLocal"`
	ShapeGlobal  Vec6         `json:"shapeGlobal"`
	Pose         Vec6         `json:"pose"`
	GazeLeft     Point3f      `json:"gazeLeft"`
	GazeRight    Point3f      `json:"gazeRight"`
	GazeAngle    *Vec2        `json:"gazeAngle,omitempty"` // If nil, computed from GazeLeft and GazeRight
	EyeLandmarks []Point2     `json:"eyeLandmarks"`
	Intensities  []Detection  `json:"intensities"`
	Classes      []Detection  `json:"classes"`
	Features     FeatureBlock `json:"features"`
	FeaturesOK   bool         `json:"featuresOK"`
}

// Landmark returns the i'th 2D landmark, assuming the X values are followed by the Y values
func (f *Frame) Landmark(i int) Point2 {
	n := f.Landmarks2D.Rows / 2
	return Point2{
		X: f.Landmarks2D.Flat(i),
		Y: f.Landmarks2D.Flat(n + i),
	}
}

// Return the explicit gaze angle, or derive it from the gaze directions
func (f *Frame) ResolvedGazeAngle() Vec2 {
	if f.GazeAngle != nil {
		return *f.GazeAngle
	}
	return GazeAngle(f.GazeLeft, f.GazeRight)
}

// FrameReader reads a JSON-lines observation log
type FrameReader struct {
	scanner *bufio.Scanner
	line    int
}

func NewFrameReader(r io.Reader) *FrameReader {
	scanner := bufio.NewScanner(r)
	// Feature blocks make for long lines
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	return &FrameReader{
		scanner: scanner,
	}
}

// Next returns the next frame, or io.EOF when the log is exhausted.
// Blank lines are skipped.
func (r *FrameReader) Next() (*Frame, error) {
	for r.scanner.Scan() {
		r.line++
		raw := r.scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		f := &Frame{}
		if err := json.Unmarshal(raw, f); err != nil {
			return nil, fmt.Errorf("Observation log line %v: %w", r.line, err)
		}
		return f, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}
