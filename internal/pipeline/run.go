package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/ironsheep/flowercount/internal/archive"
	"github.com/ironsheep/flowercount/internal/convert"
	"github.com/ironsheep/flowercount/internal/detection"
	"github.com/ironsheep/flowercount/internal/imaging"
	"github.com/ironsheep/flowercount/internal/rename"
	"github.com/ironsheep/flowercount/internal/report"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// Options configures a full Run.
type Options struct {
	// Dir is the photo folder.
	Dir string

	// ResultsDir defaults to Dir/results.
	ResultsDir string

	// Date is the YYYYMMDD run date.
	Date string

	// Rename enables renaming against labels.txt.
	Rename bool

	// Overlay enables writing annotated images.
	Overlay bool
	Style   imaging.Style

	// Archive enables the SQLite detection archive in ResultsDir.
	Archive bool

	// JPEGQuality is passed to the HEIC normalizer.
	JPEGQuality int

	// Decode overrides the HEIC decoder.
	Decode convert.DecodeFunc

	Detector detection.Detector
	Logger   logrus.FieldLogger
}

// Summary reports what a Run did.
type Summary struct {
	Converted  *convert.Summary
	Renamed    *rename.Result
	Detection  *Stats
	Table      *report.Table
	ReportPath string
}

// Run executes every stage in order and writes the report.
//
// Any error returned is fatal for the run. Per-image problems during
// normalization and detection are logged and do not surface here.
func Run(ctx context.Context, opts Options) (summary *Summary, err error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	resultsDir := opts.ResultsDir
	if resultsDir == "" {
		resultsDir = filepath.Join(opts.Dir, "results")
	}

	summary = &Summary{}

	normalizer := &convert.Normalizer{
		Decode:  opts.Decode,
		Quality: opts.JPEGQuality,
		Logger:  logger,
	}
	if summary.Converted, err = normalizer.Normalize(ctx, opts.Dir); err != nil {
		return summary, errors.Wrap(err, "failed to normalize images")
	}

	summary.Renamed, err = rename.Rename(ctx, rename.Options{
		Dir:     opts.Dir,
		Date:    opts.Date,
		Enabled: opts.Rename,
		Logger:  logger,
	})
	if err != nil {
		return summary, err
	}

	if err := os.MkdirAll(resultsDir, 0o755); err != nil {
		return summary, errors.Wrapf(err, "failed to create results directory %s", resultsDir)
	}

	stage := Stage{
		Dir:        opts.Dir,
		ResultsDir: resultsDir,
		Date:       opts.Date,
		Detector:   opts.Detector,
		Overlay:    opts.Overlay,
		Style:      opts.Style,
		Logger:     logger,
	}

	if opts.Archive {
		store, openErr := archive.Open(filepath.Join(resultsDir, archive.FileName))
		if openErr != nil {
			return summary, openErr
		}
		defer func() {
			multierr.AppendInto(&err, store.Close())
		}()
		stage.Archive = store
	}

	table, stats, err := DetectAll(ctx, stage)
	summary.Detection = stats
	if err != nil {
		return summary, err
	}
	summary.Table = table

	if summary.ReportPath, err = report.WriteCSV(resultsDir, table); err != nil {
		return summary, err
	}

	logger.WithFields(logrus.Fields{
		"images":    stats.Total,
		"processed": stats.Processed,
		"skipped":   stats.Skipped,
	}).Infof("Processing complete. Results saved to: %s", resultsDir)

	return summary, nil
}
