package recorder

import (
	"github.com/cyclopcam/obsrec/pkg/tabular"
)

const DefaultVideoCodec = "DIVX"
const DefaultVideoFPS = 30

// Params selects which outputs a session produces
type Params struct {
	OutputCSV      bool           `json:"outputCSV" toml:"outputCSV"`           // One line per frame in <tag>.csv
	Columns        tabular.Groups `json:"columns" toml:"columns"`               // Optional column groups of the CSV file
	OutputHOG      bool           `json:"outputHOG" toml:"outputHOG"`           // Feature blocks in <tag>.hog
	OutputVideo    bool           `json:"outputVideo" toml:"outputVideo"`       // Visualization frames in <tag>.avi
	OutputAligned  bool           `json:"outputAligned" toml:"outputAligned"`   // Aligned face images in <tag>_aligned/
	OutputDetails  bool           `json:"outputDetails" toml:"outputDetails"`   // Session summary in <tag>_details.json, written on Close
	VideoCodec     string         `json:"videoCodec" toml:"videoCodec"`         // FOURCC, eg DIVX, XVID, MJPG
	VideoFPS       float64        `json:"videoFPS" toml:"videoFPS"`             // Frame rate stored in the video container
	AlignedQuality int            `json:"alignedQuality" toml:"alignedQuality"` // JPEG quality of aligned images (1..100)
}

// DefaultParams enables the CSV file with all columns, and the details file.
// All other outputs are off.
func DefaultParams() Params {
	return Params{
		OutputCSV:      true,
		Columns:        tabular.AllGroups(),
		OutputDetails:  true,
		VideoCodec:     DefaultVideoCodec,
		VideoFPS:       DefaultVideoFPS,
		AlignedQuality: 90,
	}
}

// Fill in zero values that have a sensible default
func (p *Params) normalize() {
	if p.VideoCodec == "" {
		p.VideoCodec = DefaultVideoCodec
	}
	if p.VideoFPS <= 0 {
		p.VideoFPS = DefaultVideoFPS
	}
}
