// Package obs holds the value types that describe one analysed frame.
// Nothing in here does I/O. The recorder copies these values into its own
// buffer, so callers are free to reuse their slices after a Set call.
package obs

// Matrix is a dense row-major matrix of float64.
// Landmarks are stored as column vectors, with all X values first, then all Y values (then Z).
type Matrix struct {
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float64 `json:"data"`
}

// Create a column vector from the given values
func ColumnVector(v ...float64) Matrix {
	return Matrix{
		Rows: len(v),
		Cols: 1,
		Data: append([]float64(nil), v...),
	}
}

// Create a zero-filled matrix
func NewMatrix(rows, cols int) Matrix {
	return Matrix{
		Rows: rows,
		Cols: cols,
		Data: make([]float64, rows*cols),
	}
}

func (m Matrix) At(row, col int) float64 {
	return m.Data[row*m.Cols+col]
}

// Return the i'th element in row-major order, or 0 if i is out of range
func (m Matrix) Flat(i int) float64 {
	if i < 0 || i >= len(m.Data) {
		return 0
	}
	return m.Data[i]
}

func (m Matrix) Empty() bool {
	return len(m.Data) == 0
}

// Return a deep copy
func (m Matrix) Clone() Matrix {
	return Matrix{
		Rows: m.Rows,
		Cols: m.Cols,
		Data: append([]float64(nil), m.Data...),
	}
}

func (m Matrix) SameShape(b Matrix) bool {
	return m.Rows == b.Rows && m.Cols == b.Cols
}

type Point2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Vec2 [2]float64

// Vec6 is used for rigid pose (Tx, Ty, Tz, Rx, Ry, Rz) and for global shape
// parameters (scale, rx, ry, rz, tx, ty).
type Vec6 [6]float64

// Detection is a named scalar, such as an action unit occurrence or intensity
type Detection struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Return a copy of the detections
func CloneDetections(d []Detection) []Detection {
	if d == nil {
		return nil
	}
	return append([]Detection(nil), d...)
}

// Return the names of the detections, in their original order
func DetectionNames(d []Detection) []string {
	names := make([]string, len(d))
	for i, v := range d {
		names[i] = v.Name
	}
	return names
}

// FeatureBlock is a dense descriptor (eg HOG) computed over a grid of cells.
// len(Data) is expected to be Cols*Rows*Channels.
type FeatureBlock struct {
	Cols     int       `json:"cols"`
	Rows     int       `json:"rows"`
	Channels int       `json:"channels"`
	Data     []float64 `json:"data"`
}

func (f FeatureBlock) Size() int {
	return f.Cols * f.Rows * f.Channels
}

func (f FeatureBlock) Clone() FeatureBlock {
	c := f
	c.Data = append([]float64(nil), f.Data...)
	return c
}
