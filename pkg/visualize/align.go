package visualize

import (
	"math"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/obsrec/pkg/obs"
	"github.com/fogleman/gg"
)

// FaceCrop cuts a square around the 2D landmarks of f out of img, and scales it to size x size.
// Padding is the fraction of the landmark extent that is added on every side.
// Returns nil if the frame has no face.
func FaceCrop(img *cimg.Image, f *obs.Frame, size int, padding float64) *cimg.Image {
	n := f.Landmarks2D.Rows / 2
	if !f.Success || n == 0 || size <= 0 {
		return nil
	}
	minX, minY := math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64
	for i := 0; i < n; i++ {
		p := f.Landmark(i)
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}
	extent := max(maxX-minX, maxY-minY, 1) * (1 + 2*padding)
	cx := (minX + maxX) / 2
	cy := (minY + maxY) / 2

	scale := float64(size) / extent
	dc := gg.NewContext(size, size)
	dc.Scale(scale, scale)
	dc.Translate(extent/2-cx, extent/2-cy)
	dc.DrawImage(ToRGBA(img), 0, 0)
	return FromRGBA(dc.Image())
}
