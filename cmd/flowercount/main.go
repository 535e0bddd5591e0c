package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/flowercount/internal/config"
	"github.com/ironsheep/flowercount/internal/detection"
	"github.com/ironsheep/flowercount/internal/pipeline"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const (
	flagConf    = "conf"
	flagIoU     = "iou"
	flagOrtLib  = "ort-lib"
	flagArchive = "archive"
	flagDebug   = "debug"
)

func main() {
	// .env must be loaded before the flags read their EnvVars.
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newApp().RunContext(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

const description = `Converts HEIC photos to JPEG, optionally renames them from labels.txt, runs
the detection model on every image and writes results/flower_count_raw.csv.

Flags must come before the positional arguments.`

func newApp() *cli.App {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Printf("flowercount %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
	}

	return &cli.App{
		Name:        "flowercount",
		Usage:       "count flowers in a folder of photos with a YOLO model",
		ArgsUsage:   "<folder_path> <date:YYYYMMDD> <model_path> <output_bbox:true|false> <rename:true|false>",
		Version:     Version,
		Description: description,
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:    flagConf,
				Usage:   "minimum detection confidence",
				Value:   detection.DefaultConfidence,
				EnvVars: []string{"FLOWERCOUNT_CONF"},
			},
			&cli.Float64Flag{
				Name:    flagIoU,
				Usage:   "IoU threshold for non-maximum suppression",
				Value:   detection.DefaultIoU,
				EnvVars: []string{"FLOWERCOUNT_IOU"},
			},
			&cli.StringFlag{
				Name:    flagOrtLib,
				Usage:   "path to the onnxruntime shared library `FILE`",
				EnvVars: []string{"ONNXRUNTIME_SHARED_LIBRARY_PATH"},
			},
			&cli.BoolFlag{
				Name:    flagArchive,
				Usage:   "also record every detection in results/detections.db",
				EnvVars: []string{"FLOWERCOUNT_ARCHIVE"},
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging (or FLOWERCOUNT_LOG_LEVEL=debug)",
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) (err error) {
	if c.NArg() != config.NumArgs {
		_ = cli.ShowAppHelp(c)
		return cli.Exit(fmt.Sprintf("Error: expected %d arguments, got %d", config.NumArgs, c.NArg()), 1)
	}

	cfg := config.Default()
	if err := cfg.ParseArgs(c.Args().Slice()); err != nil {
		return cli.Exit("Error: "+err.Error(), 1)
	}
	cfg.Confidence = c.Float64(flagConf)
	cfg.IoU = c.Float64(flagIoU)
	cfg.LibraryPath = c.String(flagOrtLib)
	cfg.Archive = c.Bool(flagArchive)
	cfg.Debug = c.Bool(flagDebug)

	if err := cfg.LoadEnv(); err != nil {
		return cli.Exit("Error: "+err.Error(), 1)
	}
	if err := cfg.Validate(); err != nil {
		return cli.Exit("Error: "+err.Error(), 1)
	}

	logger := newLogger(cfg.Debug)
	logger.Debugf("flowercount %s (built %s, commit %s)", Version, BuildTime, GitCommit)

	det, err := detection.NewONNXDetector(cfg.ModelPath, detection.ONNXOptions{
		LibraryPath: cfg.LibraryPath,
		Confidence:  cfg.Confidence,
		IoU:         cfg.IoU,
		Logger:      logger,
	})
	if err != nil {
		multierr.AppendInto(&err, detection.ShutdownRuntime())
		return cli.Exit("Error: failed to load model: "+err.Error(), 1)
	}
	defer func() {
		closeErr := multierr.Combine(det.Close(), detection.ShutdownRuntime())
		if closeErr != nil {
			logger.WithError(closeErr).Warn("Failed to release detector")
		}
	}()

	_, err = pipeline.Run(c.Context, pipeline.Options{
		Dir:         cfg.Folder,
		ResultsDir:  cfg.ResultsDir(),
		Date:        cfg.Date,
		Rename:      cfg.Rename,
		Overlay:     cfg.OutputBBox,
		Style:       cfg.Style,
		Archive:     cfg.Archive,
		JPEGQuality: cfg.JPEGQuality,
		Detector:    det,
		Logger:      logger,
	})
	if err != nil {
		return cli.Exit("Error: "+err.Error(), 1)
	}
	return nil
}

// newLogger returns a logger writing timestamped text to stderr.
func newLogger(debug bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(logrus.InfoLevel)
	if debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}
