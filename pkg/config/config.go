package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cyclopcam/obsrec/pkg/recorder"
	"github.com/pelletier/go-toml/v2"
)

// Visualize controls how tracking results are drawn into the video
type Visualize struct {
	LandmarkRadius float64 `json:"landmarkRadius" toml:"landmarkRadius"`
	GazeLength     float64 `json:"gazeLength" toml:"gazeLength"`   // Pixels
	ShowCaption    bool    `json:"showCaption" toml:"showCaption"` // Frame number, timestamp and confidence
	Width          int     `json:"width" toml:"width"`             // Canvas size when there is no camera image
	Height         int     `json:"height" toml:"height"`
}

type Config struct {
	OutputDir string          `json:"outputDir" toml:"outputDir"` // Directory for all output files
	Recording recorder.Params `json:"recording" toml:"recording"` // Which outputs to produce
	Visualize Visualize       `json:"visualize" toml:"visualize"`
}

// Default returns the configuration that is used for any value missing from a config file
func Default() *Config {
	return &Config{
		OutputDir: "processed",
		Recording: recorder.DefaultParams(),
		Visualize: Visualize{
			LandmarkRadius: 2,
			GazeLength:     60,
			ShowCaption:    true,
			Width:          640,
			Height:         480,
		},
	}
}

// Load a config file. Files ending in .toml are parsed as TOML, and everything else as JSON.
// Values absent from the file keep their defaults.
func Load(filename string) (*Config, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("Error loading %v: %w", filename, err)
	}
	cfg := Default()
	if isTOML(filename) {
		if err := toml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("Error loading as TOML %v: %w", filename, err)
		}
	} else {
		if err := json.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("Error loading as JSON %v: %w", filename, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("Invalid config %v: %w", filename, err)
	}
	return cfg, nil
}

// Save writes the config in the format implied by the filename extension
func (c *Config) Save(filename string) error {
	var raw []byte
	var err error
	if isTOML(filename) {
		raw, err = toml.Marshal(c)
	} else {
		raw, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(filename, raw, 0664)
}

func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("outputDir may not be empty")
	}
	if c.Recording.VideoFPS < 0 {
		return fmt.Errorf("videoFPS must be positive (%v)", c.Recording.VideoFPS)
	}
	if c.Recording.AlignedQuality < 0 || c.Recording.AlignedQuality > 100 {
		return fmt.Errorf("alignedQuality must be between 1 and 100, or 0 for the default (%v)", c.Recording.AlignedQuality)
	}
	if c.Visualize.Width <= 0 || c.Visualize.Height <= 0 {
		return fmt.Errorf("Invalid visualization canvas size %v x %v", c.Visualize.Width, c.Visualize.Height)
	}
	return nil
}

func isTOML(filename string) bool {
	return strings.ToLower(filepath.Ext(filename)) == ".toml"
}
