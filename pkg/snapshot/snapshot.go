package snapshot

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmharper/cimg/v2"
)

const DefaultQuality = 90

// DirWriter writes one JPEG file per frame into a directory.
// Filenames are derived from the frame number, so a reader can match images to tabular rows.
type DirWriter struct {
	Dir     string
	Quality int

	created bool
	written int
}

// NewDirWriter does not touch the filesystem. The directory is created on the first Write.
func NewDirWriter(dir string, quality int) *DirWriter {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &DirWriter{
		Dir:     dir,
		Quality: quality,
	}
}

// Filename of the image for the given 1-based frame number
func (w *DirWriter) Filename(frame uint64) string {
	return filepath.Join(w.Dir, fmt.Sprintf("frame_det_00_%06d.jpg", frame))
}

// Number of images written
func (w *DirWriter) Written() int {
	return w.written
}

// Compress img and write it out as the image for frame
func (w *DirWriter) Write(frame uint64, img *cimg.Image) error {
	if !w.created {
		if err := os.MkdirAll(w.Dir, 0775); err != nil {
			return err
		}
		w.created = true
	}
	jpg, err := cimg.Compress(img, cimg.MakeCompressParams(cimg.Sampling420, w.Quality, 0))
	if err != nil {
		return fmt.Errorf("Failed to compress frame %v: %w", frame, err)
	}
	if err := os.WriteFile(w.Filename(frame), jpg, 0664); err != nil {
		return err
	}
	w.written++
	return nil
}
