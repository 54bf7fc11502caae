package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/obsrec/pkg/config"
	"github.com/cyclopcam/obsrec/pkg/obs"
	"github.com/cyclopcam/obsrec/pkg/recorder"
	"github.com/cyclopcam/obsrec/pkg/videox"
	"github.com/cyclopcam/obsrec/pkg/visualize"
	"github.com/schollz/progressbar/v3"
)

const alignedSize = 112

func check(err error) {
	if err != nil {
		panic(err)
	}
}

func main() {
	parser := argparse.NewParser("obsrec", "Record a JSON-lines observation log into CSV, feature, video and image outputs")
	input := parser.String("i", "input", &argparse.Options{Help: "Observation log (one JSON frame per line)", Required: true})
	name := parser.String("n", "name", &argparse.Options{Help: "Name of the recorded input. Output filenames are derived from this. Defaults to the input filename."})
	outDir := parser.String("o", "outdir", &argparse.Options{Help: "Output directory. Overrides the config file."})
	configFile := parser.String("c", "config", &argparse.Options{Help: "Config file (.json or .toml)"})
	noCSV := parser.Flag("", "nocsv", &argparse.Options{Help: "Don't write the CSV file"})
	hog := parser.Flag("", "hog", &argparse.Options{Help: "Write the feature stream (.hog)"})
	video := parser.Flag("", "video", &argparse.Options{Help: "Write the tracked video (.avi)"})
	aligned := parser.Flag("", "aligned", &argparse.Options{Help: "Write aligned face images"})
	codec := parser.String("", "codec", &argparse.Options{Help: "Video FOURCC, eg DIVX, XVID, MJPG"})
	fps := parser.Float("", "fps", &argparse.Options{Help: "Video frame rate", Default: 0.0})
	saveConfig := parser.String("", "saveconfig", &argparse.Options{Help: "Write the effective config to this file, and exit"})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, _ := logs.NewLog()

	cfg := config.Default()
	if *configFile != "" {
		cfg, err = config.Load(*configFile)
		check(err)
	}
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}
	if *noCSV {
		cfg.Recording.OutputCSV = false
	}
	if *hog {
		cfg.Recording.OutputHOG = true
	}
	if *video {
		cfg.Recording.OutputVideo = true
	}
	if *aligned {
		cfg.Recording.OutputAligned = true
	}
	if *codec != "" {
		cfg.Recording.VideoCodec = *codec
	}
	if *fps > 0 {
		cfg.Recording.VideoFPS = *fps
	}
	if cfg.Recording.OutputVideo {
		// Fail early, instead of discovering a bad codec on the first frame
		c, err := videox.ParseFourCC(cfg.Recording.VideoCodec)
		check(err)
		logger.Infof("Video codec %v (%v)", c, c.Description())
	}
	if *saveConfig != "" {
		check(cfg.Save(*saveConfig))
		return
	}

	inputName := *name
	if inputName == "" {
		inputName = filepath.Base(*input)
	}

	if err := record(logger, cfg, *input, inputName); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func record(logger logs.Log, cfg *config.Config, inputFile, inputName string) error {
	f, err := os.Open(inputFile)
	if err != nil {
		return err
	}
	defer f.Close()

	session, err := recorder.NewSession(logger, cfg.OutputDir, inputName, cfg.Recording)
	if err != nil {
		return err
	}
	defer session.Close()

	renderer := &visualize.Renderer{
		LandmarkRadius: cfg.Visualize.LandmarkRadius,
		GazeLength:     cfg.Visualize.GazeLength,
		ShowCaption:    cfg.Visualize.ShowCaption,
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Recording "+session.Tag),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)

	reader := obs.NewFrameReader(f)
	for {
		frame, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return err
		}
		stage(session, renderer, cfg, frame)
		if err := session.Commit(); err != nil {
			return err
		}
		bar.Add(1)
	}
	bar.Finish()
	fmt.Fprintln(os.Stderr)

	return session.Close()
}

// Copy one observation into the session's current frame
func stage(session *recorder.Session, renderer *visualize.Renderer, cfg *config.Config, f *obs.Frame) {
	session.SetTimestamp(f.Timestamp)
	session.SetGeometry(f.Landmarks2D, f.Landmarks3D, f.ShapeGlobal, f.ShapeLocal, f.Confidence, f.Success)
	session.SetPose(f.Pose)
	session.SetGaze(f.GazeLeft, f.GazeRight, f.ResolvedGazeAngle(), f.EyeLandmarks)
	session.SetDetections(f.Intensities, f.Classes)
	session.SetFeatureBlock(f.FeaturesOK, f.Features)

	params := session.Params()
	if !params.OutputVideo && !params.OutputAligned {
		return
	}
	w, h := cfg.Visualize.Width, cfg.Visualize.Height
	if params.OutputVideo {
		session.SetVisualization(renderer.Render(nil, w, h, session.FrameCount()+1, f))
	}
	if params.OutputAligned {
		// The aligned face comes from the image without the tracking overlay
		if face := visualize.FaceCrop(visualize.Canvas(nil, w, h), f, alignedSize, 0.1); face != nil {
			session.SetAlignedFace(face)
		}
	}
}
