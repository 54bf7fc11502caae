package tabular

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/cyclopcam/obsrec/pkg/obs"
)

// Row is the content of one line of a tabular file
type Row struct {
	Frame        uint64
	Timestamp    float64
	Success      bool
	Confidence   float64
	Landmarks2D  obs.Matrix
	Landmarks3D  obs.Matrix
	ShapeLocal   obs.Matrix
	ShapeGlobal  obs.Vec6
	Pose         obs.Vec6
	GazeLeft     obs.Point3f
	GazeRight    obs.Point3f
	GazeAngle    obs.Vec2
	EyeLandmarks []obs.Point2
	Intensities  []obs.Detection
	Classes      []obs.Detection
}

// Writer writes a CSV file with a header line, followed by one line per frame.
// Every line has exactly len(Schema.Columns()) fields, regardless of the shapes inside a Row.
type Writer struct {
	Filename string

	schema *Schema
	ncols  int
	file   *os.File
	csv    *csv.Writer
	rows   int
	record []string
}

// Create a new tabular file and write the header line
func Create(filename string, schema *Schema) (*Writer, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	header := schema.Columns()
	w := &Writer{
		Filename: filename,
		schema:   schema,
		ncols:    len(header),
		file:     f,
		csv:      csv.NewWriter(f),
		record:   make([]string, 0, len(header)),
	}
	if err := w.csv.Write(header); err != nil {
		f.Close()
		return nil, err
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) Schema() *Schema {
	return w.schema
}

// Number of rows written, excluding the header
func (w *Writer) Rows() int {
	return w.rows
}

// WriteRow formats row against the schema and writes it.
// The line is flushed to the OS before returning, so that a failed write is reported
// against the frame that caused it.
func (w *Writer) WriteRow(row *Row) error {
	s := w.schema
	rec := w.record[:0]
	rec = append(rec,
		strconv.FormatUint(row.Frame, 10),
		ff(row.Timestamp, 3),
		boolToField(row.Success),
		ff(row.Confidence, 2),
	)
	if s.groups.Landmarks2D {
		rec = appendAxes(rec, row.Landmarks2D, 2, s.numLandmarks)
	}
	if s.groups.Landmarks3D {
		rec = appendAxes(rec, row.Landmarks3D, 3, s.numLandmarks)
	}
	if s.groups.ShapeParams {
		for _, v := range row.ShapeGlobal {
			rec = append(rec, ff(v, 3))
		}
		for i := 0; i < s.numModelModes; i++ {
			rec = append(rec, ff(row.ShapeLocal.Flat(i), 3))
		}
	}
	if s.groups.Pose {
		for _, v := range row.Pose {
			rec = append(rec, ff(v, 3))
		}
	}
	if s.groups.Detections {
		rec = appendByName(rec, s.classNames, row.Classes, 1)
		rec = appendByName(rec, s.intensityNames, row.Intensities, 2)
	}
	if s.groups.Gaze {
		for _, p := range []obs.Point3f{row.GazeLeft, row.GazeRight} {
			rec = append(rec, ff(float64(p.X), 6), ff(float64(p.Y), 6), ff(float64(p.Z), 6))
		}
		rec = append(rec, ff(row.GazeAngle[0], 3), ff(row.GazeAngle[1], 3))
		for i := 0; i < s.numEyeLandmarks; i++ {
			rec = append(rec, ff(eyeLandmark(row.EyeLandmarks, i).X, 1))
		}
		for i := 0; i < s.numEyeLandmarks; i++ {
			rec = append(rec, ff(eyeLandmark(row.EyeLandmarks, i).Y, 1))
		}
	}
	w.record = rec

	if err := w.csv.Write(rec); err != nil {
		return err
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return err
	}
	w.rows++
	return nil
}

// Close flushes and closes the file. It is safe to call Close more than once.
func (w *Writer) Close() error {
	if w.file == nil {
		return nil
	}
	w.csv.Flush()
	err := w.csv.Error()
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	w.file = nil
	return err
}

// Landmark matrices hold all X values, then all Y values (then all Z).
// Each axis is read against the row's own landmark count, and written against the schema's,
// so that a row with a different number of landmarks can't shift values into another axis.
// Landmarks beyond the row's count are written as zero.
func appendAxes(rec []string, m obs.Matrix, naxes, n int) []string {
	have := m.Rows / naxes
	for axis := 0; axis < naxes; axis++ {
		for i := 0; i < n; i++ {
			v := 0.0
			if i < have {
				v = m.Flat(axis*have + i)
			}
			rec = append(rec, ff(v, 1))
		}
	}
	return rec
}

// Values are matched by name. A name missing from the row is written as zero.
func appendByName(rec []string, names []string, d []obs.Detection, precision int) []string {
	for _, name := range names {
		v := 0.0
		for _, x := range d {
			if x.Name == name {
				v = x.Value
				break
			}
		}
		rec = append(rec, ff(v, precision))
	}
	return rec
}

func eyeLandmark(p []obs.Point2, i int) obs.Point2 {
	if i < len(p) {
		return p[i]
	}
	return obs.Point2{}
}

func ff(v float64, precision int) string {
	return strconv.FormatFloat(v, 'f', precision, 64)
}

func boolToField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
