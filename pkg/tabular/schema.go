package tabular

import (
	"fmt"
	"slices"

	"github.com/cyclopcam/obsrec/pkg/obs"
)

// Groups selects which optional column groups are present in a file
type Groups struct {
	Landmarks2D bool `json:"landmarks2D" toml:"landmarks2D"`
	Landmarks3D bool `json:"landmarks3D" toml:"landmarks3D"`
	ShapeParams bool `json:"shapeParams" toml:"shapeParams"`
	Pose        bool `json:"pose" toml:"pose"`
	Detections  bool `json:"detections" toml:"detections"`
	Gaze        bool `json:"gaze" toml:"gaze"`
}

// All column groups enabled
func AllGroups() Groups {
	return Groups{
		Landmarks2D: true,
		Landmarks3D: true,
		ShapeParams: true,
		Pose:        true,
		Detections:  true,
		Gaze:        true,
	}
}

// Schema is the fixed column layout of a tabular file.
// Once a file has been created with a Schema, every row is written against it.
type Schema struct {
	groups          Groups
	numLandmarks    int
	numModelModes   int
	numEyeLandmarks int
	classNames      []string
	intensityNames  []string
}

// Create a schema. The detection names are copied, and written in the order given.
func NewSchema(groups Groups, numLandmarks, numModelModes, numEyeLandmarks int, classNames, intensityNames []string) *Schema {
	return &Schema{
		groups:          groups,
		numLandmarks:    max(0, numLandmarks),
		numModelModes:   max(0, numModelModes),
		numEyeLandmarks: max(0, numEyeLandmarks),
		classNames:      slices.Clone(classNames),
		intensityNames:  slices.Clone(intensityNames),
	}
}

func (s *Schema) Groups() Groups { return s.groups }
func (s *Schema) NumLandmarks() int { return s.numLandmarks }
func (s *Schema) NumModelModes() int { return s.numModelModes }
func (s *Schema) NumEyeLandmarks() int { return s.numEyeLandmarks }
func (s *Schema) ClassNames() []string { return slices.Clone(s.classNames) }
func (s *Schema) IntensityNames() []string { return slices.Clone(s.intensityNames) }

// Columns returns the header names, in file order
func (s *Schema) Columns() []string {
	cols := []string{"frame", "timestamp", "success", "confidence"}
	indexed := func(prefix string, n int) {
		for i := 0; i < n; i++ {
			cols = append(cols, fmt.Sprintf("%v_%v", prefix, i))
		}
	}
	if s.groups.Landmarks2D {
		indexed("x", s.numLandmarks)
		indexed("y", s.numLandmarks)
	}
	if s.groups.Landmarks3D {
		indexed("X", s.numLandmarks)
		indexed("Y", s.numLandmarks)
		indexed("Z", s.numLandmarks)
	}
	if s.groups.ShapeParams {
		cols = append(cols, "p_scale", "p_rx", "p_ry", "p_rz", "p_tx", "p_ty")
		indexed("p", s.numModelModes)
	}
	if s.groups.Pose {
		cols = append(cols, "pose_Tx", "pose_Ty", "pose_Tz", "pose_Rx", "pose_Ry", "pose_Rz")
	}
	if s.groups.Detections {
		for _, n := range s.classNames {
			cols = append(cols, n+"_c")
		}
		for _, n := range s.intensityNames {
			cols = append(cols, n+"_r")
		}
	}
	if s.groups.Gaze {
		cols = append(cols, "gaze_0_x", "gaze_0_y", "gaze_0_z", "gaze_1_x", "gaze_1_y", "gaze_1_z", "gaze_angle_x", "gaze_angle_y")
		indexed("eye_lmk_x", s.numEyeLandmarks)
		indexed("eye_lmk_y", s.numEyeLandmarks)
	}
	return cols
}

// Fits returns true if the shapes inside row match the schema exactly.
// Only the enabled column groups are compared.
func (s *Schema) Fits(row *Row) bool {
	if s.groups.Landmarks2D && row.Landmarks2D.Rows/2 != s.numLandmarks {
		return false
	}
	if s.groups.Landmarks3D && row.Landmarks3D.Rows != 3*s.numLandmarks {
		return false
	}
	if s.groups.ShapeParams && row.ShapeLocal.Rows/2 != s.numModelModes {
		return false
	}
	if s.groups.Gaze && len(row.EyeLandmarks) != s.numEyeLandmarks {
		return false
	}
	if s.groups.Detections {
		if !sameNames(s.classNames, row.Classes) || !sameNames(s.intensityNames, row.Intensities) {
			return false
		}
	}
	return true
}

func sameNames(schemaNames []string, d []obs.Detection) bool {
	if len(schemaNames) != len(d) {
		return false
	}
	a := slices.Sorted(slices.Values(schemaNames))
	b := obs.DetectionNames(d)
	slices.Sort(b)
	return slices.Equal(a, b)
}
