package tabular

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/cyclopcam/obsrec/pkg/obs"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, filename string) [][]string {
	f, err := os.Open(filename)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestColumns(t *testing.T) {
	s := NewSchema(Groups{}, 68, 34, 56, nil, nil)
	require.Equal(t, []string{"frame", "timestamp", "success", "confidence"}, s.Columns())

	s = NewSchema(AllGroups(), 2, 1, 1, []string{"AU01", "AU45"}, []string{"AU12"})
	require.Equal(t, []string{
		"frame", "timestamp", "success", "confidence",
		"x_0", "x_1", "y_0", "y_1",
		"X_0", "X_1", "Y_0", "Y_1", "Z_0", "Z_1",
		"p_scale", "p_rx", "p_ry", "p_rz", "p_tx", "p_ty", "p_0",
		"pose_Tx", "pose_Ty", "pose_Tz", "pose_Rx", "pose_Ry", "pose_Rz",
		"AU01_c", "AU45_c",
		"AU12_r",
		"gaze_0_x", "gaze_0_y", "gaze_0_z", "gaze_1_x", "gaze_1_y", "gaze_1_z", "gaze_angle_x", "gaze_angle_y",
		"eye_lmk_x_0", "eye_lmk_y_0",
	}, s.Columns())
}

func TestSchemaIsImmutable(t *testing.T) {
	names := []string{"AU01", "AU02"}
	s := NewSchema(AllGroups(), 0, 0, 0, names, nil)
	names[0] = "changed"
	require.Equal(t, []string{"AU01", "AU02"}, s.ClassNames())
	s.ClassNames()[0] = "changed"
	require.Equal(t, []string{"AU01", "AU02"}, s.ClassNames())
}

func TestFits(t *testing.T) {
	s := NewSchema(AllGroups(), 2, 1, 1, []string{"AU01", "AU45"}, nil)
	row := &Row{
		Landmarks2D:  obs.NewMatrix(4, 1),
		Landmarks3D:  obs.NewMatrix(6, 1),
		ShapeLocal:   obs.NewMatrix(2, 1),
		EyeLandmarks: []obs.Point2{{}},
		Classes:      []obs.Detection{{Name: "AU45"}, {Name: "AU01"}},
	}
	require.True(t, s.Fits(row))

	row.Landmarks2D = obs.NewMatrix(6, 1)
	require.False(t, s.Fits(row))
	row.Landmarks2D = obs.NewMatrix(4, 1)

	row.Classes = []obs.Detection{{Name: "AU45"}, {Name: "AU02"}}
	require.False(t, s.Fits(row))

	// Disabled groups are not compared
	s = NewSchema(Groups{}, 2, 1, 1, nil, nil)
	require.True(t, s.Fits(&Row{}))
}

func TestWriter(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "test.csv")
	s := NewSchema(Groups{Landmarks2D: true, Detections: true, Gaze: true}, 2, 0, 1, []string{"AU01"}, []string{"AU12"})
	w, err := Create(filename, s)
	require.NoError(t, err)

	require.NoError(t, w.WriteRow(&Row{
		Frame:        1,
		Timestamp:    0.04,
		Success:      true,
		Confidence:   0.98,
		Landmarks2D:  obs.ColumnVector(1, 2, 3, 4),
		GazeLeft:     obs.Point3f{X: 0.5, Y: 0, Z: -1},
		GazeAngle:    obs.Vec2{0.25, -0.125},
		EyeLandmarks: []obs.Point2{{X: 10, Y: 20}},
		Classes:      []obs.Detection{{Name: "AU01", Value: 1}},
		Intensities:  []obs.Detection{{Name: "AU12", Value: 2.5}},
	}))

	// Shapes drift: more landmarks, missing eye landmarks, unknown detection name.
	// The row must still line up with the header.
	require.NoError(t, w.WriteRow(&Row{
		Frame:       2,
		Landmarks2D: obs.ColumnVector(1, 2, 3, 4, 5, 6),
		Classes:     []obs.Detection{{Name: "AU99", Value: 1}},
	}))
	require.Equal(t, 2, w.Rows())
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	records := readCSV(t, filename)
	require.Equal(t, 3, len(records))
	require.Equal(t, s.Columns(), records[0])
	require.Equal(t, []string{
		"1", "0.040", "1", "0.98",
		"1.0", "2.0", "3.0", "4.0",
		"1.0", "2.50",
		"0.500000", "0.000000", "-1.000000", "0.000000", "0.000000", "0.000000", "0.250", "-0.125",
		"10.0", "20.0",
	}, records[1])
	require.Equal(t, len(records[0]), len(records[2]))
	require.Equal(t, "2", records[2][0])
	// The row has 3 landmarks (x = 1,2,3, y = 4,5,6). The first 2 of each axis are kept.
	require.Equal(t, []string{"1.0", "2.0", "4.0", "5.0"}, records[2][4:8])
	// AU01 absent from row
	require.Equal(t, "0.0", records[2][8])
}

func TestCreateFails(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "missing-dir", "test.csv"), NewSchema(Groups{}, 0, 0, 0, nil, nil))
	require.Error(t, err)
}

func TestWriterLandmarkDrift(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "drift.csv")
	s := NewSchema(Groups{Landmarks2D: true, Landmarks3D: true}, 3, 0, 0, nil, nil)
	w, err := Create(filename, s)
	require.NoError(t, err)

	// More landmarks than the schema
	require.NoError(t, w.WriteRow(&Row{
		Frame:       1,
		Landmarks2D: obs.ColumnVector(100, 101, 102, 103, 104, 200, 201, 202, 203, 204),
		Landmarks3D: obs.ColumnVector(10, 11, 12, 13, 20, 21, 22, 23, 30, 31, 32, 33),
	}))
	// Fewer landmarks than the schema
	require.NoError(t, w.WriteRow(&Row{
		Frame:       2,
		Landmarks2D: obs.ColumnVector(100, 200),
		Landmarks3D: obs.ColumnVector(10, 11, 20, 21, 30, 31),
	}))
	require.NoError(t, w.Close())

	records := readCSV(t, filename)
	require.Equal(t, []string{"x_0", "x_1", "x_2", "y_0", "y_1", "y_2"}, records[0][4:10])
	require.Equal(t, []string{"X_0", "X_1", "X_2", "Y_0", "Y_1", "Y_2", "Z_0", "Z_1", "Z_2"}, records[0][10:19])

	require.Equal(t, []string{"100.0", "101.0", "102.0", "200.0", "201.0", "202.0"}, records[1][4:10])
	require.Equal(t, []string{"10.0", "11.0", "12.0", "20.0", "21.0", "22.0", "30.0", "31.0", "32.0"}, records[1][10:19])

	require.Equal(t, []string{"100.0", "0.0", "0.0", "200.0", "0.0", "0.0"}, records[2][4:10])
	require.Equal(t, []string{"10.0", "11.0", "0.0", "20.0", "21.0", "0.0", "30.0", "31.0", "0.0"}, records[2][10:19])
}
