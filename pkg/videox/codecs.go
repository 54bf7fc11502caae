package videox

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidCodec = errors.New("invalid codec")

// FourCC is a four character video codec code, such as "DIVX" or "MJPG".
// The container/codec library decides whether it can actually encode it.
type FourCC string

// Codecs that we know how to describe. Others are passed through untouched.
var knownCodecs = map[FourCC]string{
	"DIVX": "MPEG-4 Part 2 (DivX)",
	"XVID": "MPEG-4 Part 2 (Xvid)",
	"MP4V": "MPEG-4 Part 2",
	"MJPG": "Motion JPEG",
	"H264": "H.264",
	"AVC1": "H.264",
	"HEVC": "H.265",
}

// ParseFourCC validates a codec tag.
// The tag must be exactly 4 printable ASCII characters. Case is preserved,
// because some backends treat "avc1" and "AVC1" differently.
func ParseFourCC(codec string) (FourCC, error) {
	if len(codec) != 4 {
		return "", fmt.Errorf("%w: '%v' must be 4 characters", ErrInvalidCodec, codec)
	}
	for i := 0; i < len(codec); i++ {
		if codec[i] < 0x20 || codec[i] > 0x7e {
			return "", fmt.Errorf("%w: '%v' contains non-printable characters", ErrInvalidCodec, codec)
		}
	}
	return FourCC(codec), nil
}

// Human readable name of the codec, or the tag itself if it's not one we know
func (c FourCC) Description() string {
	if d, ok := knownCodecs[FourCC(strings.ToUpper(string(c)))]; ok {
		return d
	}
	return string(c)
}

func (c FourCC) String() string {
	return string(c)
}
