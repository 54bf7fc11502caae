package visualize

import (
	"fmt"
	"image"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/obsrec/pkg/obs"
	"github.com/fogleman/gg"
)

// Renderer draws the tracking result of one frame on top of the camera image.
// The output is what gets fed to the tracked video.
type Renderer struct {
	LandmarkRadius float64
	GazeLength     float64 // Length of the gaze ray, in pixels
	ShowCaption    bool
}

func NewRenderer() *Renderer {
	return &Renderer{
		LandmarkRadius: 2,
		GazeLength:     60,
		ShowCaption:    true,
	}
}

// Render draws f onto a copy of base. If base is nil, a dark canvas of width x height is used.
// The result is always 24-bit RGB.
func (r *Renderer) Render(base *cimg.Image, width, height int, frame uint64, f *obs.Frame) *cimg.Image {
	dc := newCanvas(base, width, height)

	if f.Success {
		n := f.Landmarks2D.Rows / 2
		dc.SetRGB(0.2, 1, 0.2)
		for i := 0; i < n; i++ {
			p := f.Landmark(i)
			dc.DrawCircle(p.X, p.Y, r.LandmarkRadius)
			dc.Fill()
		}

		dc.SetRGB(0.2, 0.8, 1)
		for _, p := range f.EyeLandmarks {
			dc.DrawCircle(p.X, p.Y, r.LandmarkRadius/2)
			dc.Fill()
		}

		// Eye landmarks are the left eye followed by the right eye
		if half := len(f.EyeLandmarks) / 2; half > 0 {
			dc.SetRGB(1, 0.3, 0.3)
			dc.SetLineWidth(2)
			r.drawGaze(dc, centroid(f.EyeLandmarks[:half]), f.GazeLeft)
			r.drawGaze(dc, centroid(f.EyeLandmarks[half:]), f.GazeRight)
		}
	}

	if r.ShowCaption {
		angle := f.ResolvedGazeAngle()
		caption := fmt.Sprintf("frame %v  conf %.2f  gaze %.2f, %.2f", frame, f.Confidence, angle[0], angle[1])
		if !f.Success {
			caption = fmt.Sprintf("frame %v  no face", frame)
		}
		dc.SetRGB(1, 1, 1)
		dc.DrawString(caption, 4, 14)
	}

	return FromRGBA(dc.Image())
}

// Canvas returns the image that Render draws on, without any overlay.
// This is a copy of base, or a dark canvas of width x height if base is nil.
func Canvas(base *cimg.Image, width, height int) *cimg.Image {
	return FromRGBA(newCanvas(base, width, height).Image())
}

func newCanvas(base *cimg.Image, width, height int) *gg.Context {
	if base != nil {
		width, height = base.Width, base.Height
	}
	dc := gg.NewContext(width, height)
	if base != nil {
		dc.DrawImage(ToRGBA(base), 0, 0)
	} else {
		dc.SetRGB(0.1, 0.1, 0.12)
		dc.Clear()
	}
	return dc
}

func (r *Renderer) drawGaze(dc *gg.Context, from obs.Point2, dir obs.Point3f) {
	d := dir.Normalize()
	dc.DrawLine(from.X, from.Y, from.X+float64(d.X)*r.GazeLength, from.Y+float64(d.Y)*r.GazeLength)
	dc.Stroke()
}

func centroid(p []obs.Point2) obs.Point2 {
	c := obs.Point2{}
	for _, v := range p {
		c.X += v.X
		c.Y += v.Y
	}
	c.X /= float64(len(p))
	c.Y /= float64(len(p))
	return c
}

// ToRGBA converts a 1 or 3 channel cimg image into a Go image
func ToRGBA(img *cimg.Image) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	nchan := img.NChan()
	bgr := img.Format == cimg.PixelFormatBGR
	for y := 0; y < img.Height; y++ {
		src := img.Pixels[y*img.Stride:]
		out := dst.Pix[y*dst.Stride:]
		for x := 0; x < img.Width; x++ {
			var r, g, b byte
			switch nchan {
			case 1:
				r, g, b = src[x], src[x], src[x]
			default:
				r, g, b = src[x*nchan], src[x*nchan+1], src[x*nchan+2]
				if bgr {
					r, b = b, r
				}
			}
			out[x*4] = r
			out[x*4+1] = g
			out[x*4+2] = b
			out[x*4+3] = 255
		}
	}
	return dst
}

// FromRGBA converts a Go image into a 24-bit RGB cimg image, discarding alpha
func FromRGBA(src image.Image) *cimg.Image {
	b := src.Bounds()
	dst := cimg.NewImage(b.Dx(), b.Dy(), cimg.PixelFormatRGB)
	rgba, isRGBA := src.(*image.RGBA)
	for y := 0; y < dst.Height; y++ {
		out := dst.Pixels[y*dst.Stride:]
		for x := 0; x < dst.Width; x++ {
			if isRGBA {
				p := rgba.Pix[y*rgba.Stride+x*4:]
				out[x*3], out[x*3+1], out[x*3+2] = p[0], p[1], p[2]
			} else {
				r, g, bb, _ := src.At(b.Min.X+x, b.Min.Y+y).RGBA()
				out[x*3], out[x*3+1], out[x*3+2] = byte(r>>8), byte(g>>8), byte(bb>>8)
			}
		}
	}
	return dst
}
