package visualize

import (
	"image"
	"image/color"
	"testing"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/obsrec/pkg/obs"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	img := cimg.NewImage(3, 2, cimg.PixelFormatRGB)
	for i := range img.Pixels {
		img.Pixels[i] = byte(i * 10)
	}
	back := FromRGBA(ToRGBA(img))
	require.Equal(t, img.Width, back.Width)
	require.Equal(t, img.Height, back.Height)
	for y := 0; y < img.Height; y++ {
		require.Equal(t, img.Pixels[y*img.Stride:y*img.Stride+img.Width*3], back.Pixels[y*back.Stride:y*back.Stride+back.Width*3])
	}

	gray := image.NewGray(image.Rect(0, 0, 1, 1))
	gray.Set(0, 0, color.Gray{Y: 77})
	c := FromRGBA(gray)
	require.Equal(t, []byte{77, 77, 77}, c.Pixels[:3])
}

func TestRender(t *testing.T) {
	r := NewRenderer()
	f := &obs.Frame{
		Success:      true,
		Confidence:   0.9,
		Landmarks2D:  obs.ColumnVector(20, 40, 20, 20),
		EyeLandmarks: []obs.Point2{{X: 10, Y: 30}, {X: 14, Y: 30}, {X: 50, Y: 30}, {X: 54, Y: 30}},
		GazeLeft:     obs.Point3f{X: 0, Y: 1, Z: -1},
		GazeRight:    obs.Point3f{X: 0, Y: 1, Z: -1},
	}
	out := r.Render(nil, 64, 48, 1, f)
	require.Equal(t, 64, out.Width)
	require.Equal(t, 48, out.Height)
	require.Equal(t, 3, out.NChan())

	// Landmark at (20,20) is drawn in green
	p := out.Pixels[20*out.Stride+20*3:]
	require.Greater(t, int(p[1]), 200)

	// An empty corner keeps the background
	p = out.Pixels[47*out.Stride+63*3:]
	require.Less(t, int(p[1]), 60)

	// Base image dimensions win over the width/height arguments
	base := cimg.NewImage(32, 16, cimg.PixelFormatRGB)
	out = r.Render(base, 640, 480, 2, &obs.Frame{})
	require.Equal(t, 32, out.Width)
	require.Equal(t, 16, out.Height)
}

func TestFaceCrop(t *testing.T) {
	img := cimg.NewImage(100, 100, cimg.PixelFormatRGB)
	// Bright square between (40,40) and (60,60)
	for y := 40; y < 60; y++ {
		for x := 40; x < 60; x++ {
			img.Pixels[y*img.Stride+x*3] = 255
		}
	}
	f := &obs.Frame{
		Success:     true,
		Landmarks2D: obs.ColumnVector(40, 60, 40, 60),
	}
	crop := FaceCrop(img, f, 32, 0)
	require.NotNil(t, crop)
	require.Equal(t, 32, crop.Width)
	require.Equal(t, 32, crop.Height)
	require.Greater(t, int(crop.Pixels[16*crop.Stride+16*3]), 200)

	// With padding, the corners fall outside the square
	crop = FaceCrop(img, f, 32, 0.5)
	require.Less(t, int(crop.Pixels[0]), 50)
	require.Greater(t, int(crop.Pixels[16*crop.Stride+16*3]), 200)

	require.Nil(t, FaceCrop(img, &obs.Frame{Success: false, Landmarks2D: f.Landmarks2D}, 32, 0))
	require.Nil(t, FaceCrop(img, &obs.Frame{Success: true}, 32, 0))
}

func TestCanvasHasNoOverlay(t *testing.T) {
	f := &obs.Frame{
		Success:     true,
		Confidence:  0.9,
		Landmarks2D: obs.ColumnVector(20, 40, 20, 20),
	}
	rendered := NewRenderer().Render(nil, 64, 48, 1, f)
	canvas := Canvas(nil, 64, 48)
	require.Equal(t, 64, canvas.Width)
	require.Equal(t, 48, canvas.Height)

	// Landmark at (20,20) is only drawn by Render
	require.Greater(t, int(rendered.Pixels[20*rendered.Stride+20*3+1]), 200)
	require.Less(t, int(canvas.Pixels[20*canvas.Stride+20*3+1]), 60)

	// A face cropped from the canvas is uniform background
	face := FaceCrop(canvas, f, 16, 0.1)
	require.NotNil(t, face)
	for y := 0; y < face.Height; y++ {
		for x := 0; x < face.Width*3; x++ {
			require.Less(t, int(face.Pixels[y*face.Stride+x]), 60)
		}
	}

	base := cimg.NewImage(8, 4, cimg.PixelFormatRGB)
	base.Pixels[0] = 123
	c := Canvas(base, 640, 480)
	require.Equal(t, 8, c.Width)
	require.Equal(t, byte(123), c.Pixels[0])
}
