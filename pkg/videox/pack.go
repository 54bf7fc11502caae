package videox

import (
	"fmt"

	"github.com/bmharper/cimg/v2"
)

// PackBGR converts img into tightly packed 24-bit BGR, which is what OpenCV expects.
// dst is reused if it is large enough. The resulting slice is returned.
// 3 channel images are assumed to be RGB, unless their format is BGR.
// 1 channel images are treated as grayscale.
func PackBGR(img *cimg.Image, dst []byte) ([]byte, error) {
	need := img.Width * img.Height * 3
	if cap(dst) < need {
		dst = make([]byte, need)
	}
	dst = dst[:need]
	nchan := img.NChan()
	out := 0
	for y := 0; y < img.Height; y++ {
		line := img.Pixels[y*img.Stride : y*img.Stride+img.Width*nchan]
		switch {
		case nchan == 3 && img.Format == cimg.PixelFormatBGR:
			copy(dst[out:out+img.Width*3], line)
			out += img.Width * 3
		case nchan == 3:
			for x := 0; x < img.Width*3; x += 3 {
				dst[out] = line[x+2]
				dst[out+1] = line[x+1]
				dst[out+2] = line[x]
				out += 3
			}
		case nchan == 1:
			for x := 0; x < img.Width; x++ {
				dst[out] = line[x]
				dst[out+1] = line[x]
				dst[out+2] = line[x]
				out += 3
			}
		default:
			return dst, fmt.Errorf("%w: %v channels", ErrPixelFormat, nchan)
		}
	}
	return dst, nil
}
