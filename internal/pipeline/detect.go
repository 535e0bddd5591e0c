package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/ironsheep/flowercount/internal/detection"
	"github.com/ironsheep/flowercount/internal/imaging"
	"github.com/ironsheep/flowercount/internal/report"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// OverlayPrefix is prepended to an image's file name to form its overlay name.
const OverlayPrefix = "output_"

// Recorder stores the regions found in one image. *archive.Store implements
// it.
type Recorder interface {
	Record(date, filename string, regions []detection.Region) (int64, error)
}

// Stage is the input to DetectAll.
type Stage struct {
	// Dir is the folder of images to process.
	Dir string

	// ResultsDir receives overlay images.
	ResultsDir string

	// Date fills the Date column of every row.
	Date string

	Detector detection.Detector

	// Overlay enables writing an annotated copy of each image.
	Overlay bool
	Style   imaging.Style

	// Archive, if non-nil, receives every image's regions.
	Archive Recorder

	Logger logrus.FieldLogger
}

// Stats summarizes a DetectAll run.
type Stats struct {
	// Total is the number of images found.
	Total int

	// Processed is the number of images with a report row.
	Processed int

	// Skipped is the number of images whose detection failed.
	Skipped int

	// OverlayFailures counts images whose overlay could not be written. Their
	// rows are still recorded.
	OverlayFailures int

	// ArchiveFailures counts images that could not be archived.
	ArchiveFailures int
}

// DetectAll runs the detector over every image in s.Dir in name order and
// returns one report row per image it could process.
//
// An image whose detection fails is logged and skipped. A cancelled ctx stops
// the batch and returns the context's error.
func DetectAll(ctx context.Context, s Stage) (*report.Table, *Stats, error) {
	if s.Detector == nil {
		return nil, nil, errors.New("no detector configured")
	}
	logger := s.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	assets, err := imaging.ListImages(s.Dir)
	if err != nil {
		return nil, nil, err
	}

	if s.Overlay {
		if err := os.MkdirAll(s.ResultsDir, 0o755); err != nil {
			return nil, nil, errors.Wrapf(err, "failed to create results directory %s", s.ResultsDir)
		}
	}

	style := s.Style
	if style.BoxColor == nil || style.LabelColor == nil {
		style = imaging.DefaultStyle()
	}

	table := &report.Table{}
	stats := &Stats{Total: len(assets)}

	for i, a := range assets {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		logger.Infof("Processing file %d of %d: %s", i+1, len(assets), a.Name)
		flog := logger.WithField("file", a.Name)

		result, err := s.Detector.Detect(ctx, a.Path)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, stats, ctxErr
			}
			flog.WithError(err).Warnf("Skipping %s", a.Name)
			stats.Skipped++
			continue
		}

		if result == nil {
			result = &detection.Result{}
		}
		count := result.Count()
		logger.Infof("Flower Number for %s = %d", a.Name, count)

		if s.Overlay {
			if err := writeOverlay(a, result, s.ResultsDir, style); err != nil {
				flog.WithError(err).Error("Failed to write overlay")
				stats.OverlayFailures++
			}
		}

		table.Append(report.Row{Date: s.Date, ID: a.Name, Count: count})
		stats.Processed++

		if s.Archive != nil {
			if _, err := s.Archive.Record(s.Date, a.Name, result.Regions); err != nil {
				flog.WithError(err).Error("Failed to archive detections")
				stats.ArchiveFailures++
			}
		}
	}

	return table, stats, nil
}

// OverlayPath returns where the overlay for the image named name is written.
func OverlayPath(resultsDir, name string) string {
	return filepath.Join(resultsDir, OverlayPrefix+name)
}

// writeOverlay draws result's regions on a fresh decode of the image and
// saves it under resultsDir.
func writeOverlay(a imaging.Asset, result *detection.Result, resultsDir string, style imaging.Style) error {
	img, err := imaging.Load(a.Path)
	if err != nil {
		return err
	}

	annotations := make([]imaging.Annotation, len(result.Regions))
	for i, r := range result.Regions {
		annotations[i] = imaging.Annotation{Rect: r.Box.Rect(), Label: r.Label()}
	}

	return imaging.Save(imaging.Annotate(img, annotations, style), OverlayPath(resultsDir, a.Name))
}
