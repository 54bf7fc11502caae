package obs

import (
	"github.com/chewxy/math32"
)

// Point3f is a single precision 3D point. Gaze directions are unit vectors in camera space,
// with Z pointing away from the camera.
type Point3f struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

func (p Point3f) Add(b Point3f) Point3f {
	return Point3f{p.X + b.X, p.Y + b.Y, p.Z + b.Z}
}

func (p Point3f) Scale(s float32) Point3f {
	return Point3f{p.X * s, p.Y * s, p.Z * s}
}

func (p Point3f) Length() float32 {
	return math32.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
}

// Return a unit vector in the same direction as p.
// The zero vector is returned unchanged.
func (p Point3f) Normalize() Point3f {
	l := p.Length()
	if l == 0 {
		return p
	}
	return p.Scale(1 / l)
}

// GazeAngle returns the (yaw, pitch) in radians of the mean direction of both eyes.
// A gaze straight into the camera is (0, 0).
func GazeAngle(left, right Point3f) Vec2 {
	mean := left.Add(right).Scale(0.5)
	if mean == (Point3f{}) {
		// No gaze estimate. Atan2(0, -0) is Pi, which would look like a real angle.
		return Vec2{}
	}
	x := math32.Atan2(mean.X, -mean.Z)
	y := math32.Atan2(mean.Y, -mean.Z)
	return Vec2{float64(x), float64(y)}
}
