package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cyclopcam/obsrec/pkg/recorder"
	"github.com/stretchr/testify/require"
)

func TestLoadJSON(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "obsrec.json")
	require.NoError(t, os.WriteFile(filename, []byte(`{
		"outputDir": "/data/out",
		"recording": {"outputHOG": true, "outputVideo": true, "videoCodec": "MJPG", "columns": {"pose": true}}
	}`), 0644))

	cfg, err := Load(filename)
	require.NoError(t, err)
	require.Equal(t, "/data/out", cfg.OutputDir)
	require.True(t, cfg.Recording.OutputHOG)
	require.True(t, cfg.Recording.OutputVideo)
	require.Equal(t, "MJPG", cfg.Recording.VideoCodec)
	require.True(t, cfg.Recording.Columns.Pose)
	// Values absent from the file keep their defaults
	require.True(t, cfg.Recording.OutputCSV)
	require.True(t, cfg.Recording.Columns.Landmarks2D)
	require.Equal(t, float64(recorder.DefaultVideoFPS), cfg.Recording.VideoFPS)
	require.Equal(t, 640, cfg.Visualize.Width)
}

func TestLoadTOML(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "obsrec.toml")
	require.NoError(t, os.WriteFile(filename, []byte(`
outputDir = "out"

[recording]
outputCSV = false
outputAligned = true
videoFPS = 25.0
alignedQuality = 75

[visualize]
showCaption = false
width = 320
height = 240
`), 0644))

	cfg, err := Load(filename)
	require.NoError(t, err)
	require.Equal(t, "out", cfg.OutputDir)
	require.False(t, cfg.Recording.OutputCSV)
	require.True(t, cfg.Recording.OutputAligned)
	require.Equal(t, 25.0, cfg.Recording.VideoFPS)
	require.Equal(t, 75, cfg.Recording.AlignedQuality)
	require.Equal(t, recorder.DefaultVideoCodec, cfg.Recording.VideoCodec)
	require.False(t, cfg.Visualize.ShowCaption)
	require.Equal(t, 320, cfg.Visualize.Width)
	require.Equal(t, 60.0, cfg.Visualize.GazeLength)
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.OutputDir = "elsewhere"
	cfg.Recording.OutputVideo = true
	cfg.Recording.Columns.Gaze = false
	for _, name := range []string{"a.json", "a.toml"} {
		filename := filepath.Join(dir, name)
		require.NoError(t, cfg.Save(filename))
		loaded, err := Load(filename)
		require.NoError(t, err, name)
		require.Equal(t, cfg, loaded, name)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.json"))
	require.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"outputDir": `), 0644))
	_, err = Load(bad)
	require.ErrorContains(t, err, "JSON")

	invalid := filepath.Join(dir, "invalid.toml")
	require.NoError(t, os.WriteFile(invalid, []byte("[recording]\nalignedQuality = 150\n"), 0644))
	_, err = Load(invalid)
	require.ErrorContains(t, err, "alignedQuality must be between 1 and 100, or 0 for the default")

	// Zero selects the default quality
	zero := filepath.Join(dir, "zero.toml")
	require.NoError(t, os.WriteFile(zero, []byte("[recording]\nalignedQuality = 0\n"), 0644))
	cfg, err := Load(zero)
	require.NoError(t, err)
	require.Equal(t, 0, cfg.Recording.AlignedQuality)
}
