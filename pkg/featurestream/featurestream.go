// Package featurestream reads and writes streams of dense per-frame feature blocks (eg HOG).
//
// A stream is a plain sequence of records, with no file header. The frame number of a
// record is implied by its position in the file. Each record is little endian:
//
//	int32   cols
//	int32   rows
//	int32   channels
//	float32 valid (1 or 0)
//	float32 values[cols * rows * channels]
package featurestream

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/cyclopcam/obsrec/pkg/obs"
)

var ErrShortRecord = errors.New("truncated feature record")
var ErrInvalidDimensions = errors.New("invalid feature block dimensions")

// Sanity limit when reading, so that a corrupt header doesn't make us allocate gigabytes
const MaxValuesPerRecord = 1 << 24

const headerSize = 16

// Every dimension must fit in an int32 header field, and the product may not exceed MaxValuesPerRecord
func validDimensions(cols, rows, channels int64) bool {
	for _, d := range []int64{cols, rows, channels} {
		if d < 0 || d > math.MaxInt32 {
			return false
		}
	}
	if cols == 0 || rows == 0 || channels == 0 {
		return true
	}
	n := cols * rows
	if n > MaxValuesPerRecord {
		return false
	}
	return n*channels <= MaxValuesPerRecord
}

// Record is one frame's feature block
type Record struct {
	Valid bool
	Block obs.FeatureBlock
}

// Writer appends records to a feature stream file
type Writer struct {
	Filename string

	closer io.Closer
	buf    *bufio.Writer
	closed bool
	count  int
	tmp    []byte
}

// Create a new feature stream file
func Create(filename string) (*Writer, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	w := NewWriter(f)
	w.Filename = filename
	w.closer = f
	return w, nil
}

// Create a writer that writes records into out. Close will flush, but not close out.
func NewWriter(out io.Writer) *Writer {
	return &Writer{
		buf: bufio.NewWriterSize(out, 64*1024),
	}
}

// Number of records written
func (w *Writer) Count() int {
	return w.count
}

// WriteRecord writes one record. If block.Data holds fewer than Cols*Rows*Channels values,
// the remainder is written as zeros, and surplus values are ignored.
func (w *Writer) WriteRecord(valid bool, block obs.FeatureBlock) error {
	if !validDimensions(int64(block.Cols), int64(block.Rows), int64(block.Channels)) {
		return fmt.Errorf("%w: %v x %v x %v", ErrInvalidDimensions, block.Cols, block.Rows, block.Channels)
	}
	n := block.Size()
	need := headerSize + n*4
	if cap(w.tmp) < need {
		w.tmp = make([]byte, need)
	}
	b := w.tmp[:need]
	binary.LittleEndian.PutUint32(b[0:], uint32(int32(block.Cols)))
	binary.LittleEndian.PutUint32(b[4:], uint32(int32(block.Rows)))
	binary.LittleEndian.PutUint32(b[8:], uint32(int32(block.Channels)))
	validF := float32(0)
	if valid {
		validF = 1
	}
	binary.LittleEndian.PutUint32(b[12:], math.Float32bits(validF))
	for i := 0; i < n; i++ {
		v := float32(0)
		if i < len(block.Data) {
			v = float32(block.Data[i])
		}
		binary.LittleEndian.PutUint32(b[headerSize+i*4:], math.Float32bits(v))
	}
	if _, err := w.buf.Write(b); err != nil {
		return err
	}
	if err := w.buf.Flush(); err != nil {
		return err
	}
	w.count++
	return nil
}

// Close flushes and closes the file. It is safe to call Close more than once.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	err := w.buf.Flush()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Reader reads records from a feature stream
type Reader struct {
	r      *bufio.Reader
	closer io.Closer
	header [headerSize]byte
}

func NewReader(r io.Reader) *Reader {
	return &Reader{
		r: bufio.NewReader(r),
	}
}

// Open a feature stream file for reading
func Open(filename string) (*Reader, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	rd := NewReader(f)
	rd.closer = f
	return rd, nil
}

// Next returns the next record, or io.EOF at a clean end of stream
func (r *Reader) Next() (*Record, error) {
	if _, err := io.ReadFull(r.r, r.header[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, ErrShortRecord
		}
		return nil, err
	}
	h := r.header[:]
	cols := int(int32(binary.LittleEndian.Uint32(h[0:])))
	rows := int(int32(binary.LittleEndian.Uint32(h[4:])))
	channels := int(int32(binary.LittleEndian.Uint32(h[8:])))
	valid := math.Float32frombits(binary.LittleEndian.Uint32(h[12:]))
	if !validDimensions(int64(cols), int64(rows), int64(channels)) {
		return nil, fmt.Errorf("%w: %v x %v x %v", ErrInvalidDimensions, cols, rows, channels)
	}
	n := cols * rows * channels
	raw := make([]byte, n*4)
	if _, err := io.ReadFull(r.r, raw); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, ErrShortRecord
		}
		return nil, err
	}
	rec := &Record{
		Valid: valid != 0,
		Block: obs.FeatureBlock{
			Cols:     cols,
			Rows:     rows,
			Channels: channels,
			Data:     make([]float64, n),
		},
	}
	for i := 0; i < n; i++ {
		rec.Block.Data[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:])))
	}
	return rec, nil
}

// ReadAll reads records until the end of the stream
func (r *Reader) ReadAll() ([]*Record, error) {
	all := []*Record{}
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return all, nil
		} else if err != nil {
			return all, err
		}
		all = append(all, rec)
	}
}

func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}
