package videox

import (
	"errors"
	"fmt"

	"github.com/bmharper/cimg/v2"
	"gocv.io/x/gocv"
)

var ErrFrameSize = errors.New("frame size differs from video size")
var ErrPixelFormat = errors.New("unsupported pixel format")
var ErrNotOpened = errors.New("video writer could not be opened")

// VideoWriter encodes frames into a video file, using OpenCV's container and codec support.
// The frame size is fixed when the writer is created.
// You must Close() a video writer when you are done using it, otherwise the container is not finalized.
type VideoWriter struct {
	Filename string
	Codec    FourCC
	FPS      float64
	Width    int
	Height   int

	vw     *gocv.VideoWriter
	bgr    []byte // Packed BGR staging buffer, reused between frames
	frames int
}

// NewVideoWriter creates the output file and prepares the encoder.
// This fails if the codec is not supported by the underlying library.
func NewVideoWriter(filename, codec string, fps float64, width, height int) (*VideoWriter, error) {
	c, err := ParseFourCC(codec)
	if err != nil {
		return nil, err
	}
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("Invalid video width/height (%v, %v)", width, height)
	}
	if fps <= 0 {
		return nil, fmt.Errorf("Invalid video frame rate %v", fps)
	}
	vw, err := gocv.VideoWriterFile(filename, string(c), fps, width, height, true)
	if err != nil {
		return nil, fmt.Errorf("Failed to open video writer %v with codec %v: %w", filename, c, err)
	}
	if !vw.IsOpened() {
		vw.Close()
		return nil, fmt.Errorf("%w: %v with codec %v (%v)", ErrNotOpened, filename, c, c.Description())
	}
	return &VideoWriter{
		Filename: filename,
		Codec:    c,
		FPS:      fps,
		Width:    width,
		Height:   height,
		vw:       vw,
	}, nil
}

// Number of frames written
func (v *VideoWriter) Frames() int {
	return v.frames
}

// WriteFrame encodes img as the next frame.
// img must have the same dimensions that the writer was created with.
func (v *VideoWriter) WriteFrame(img *cimg.Image) error {
	if v.vw == nil {
		return ErrNotOpened
	}
	if img.Width != v.Width || img.Height != v.Height {
		return fmt.Errorf("%w: frame is %vx%v, video is %vx%v", ErrFrameSize, img.Width, img.Height, v.Width, v.Height)
	}
	var err error
	v.bgr, err = PackBGR(img, v.bgr)
	if err != nil {
		return err
	}
	mat, err := gocv.NewMatFromBytes(v.Height, v.Width, gocv.MatTypeCV8UC3, v.bgr)
	if err != nil {
		return err
	}
	defer mat.Close()
	if err := v.vw.Write(mat); err != nil {
		return err
	}
	v.frames++
	return nil
}

// Close finalizes the container. It is safe to call Close more than once.
func (v *VideoWriter) Close() error {
	if v.vw == nil {
		return nil
	}
	err := v.vw.Close()
	v.vw = nil
	return err
}
