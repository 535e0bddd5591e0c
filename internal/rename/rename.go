// Package rename gives a folder of photos deterministic names taken from a
// labels.txt sidecar file.
//
// The i-th image in byte order of its file name becomes
// {date}_{label_i}{ext}, where label_i is the i-th line of labels.txt and ext
// is the image's extension exactly as it was spelled. The whole plan is
// checked before the first file is touched.
package rename

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/flowercount/internal/imaging"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultLabelsFile is the sidecar file name looked up inside the folder.
const DefaultLabelsFile = "labels.txt"

var (
	// ErrLabelsNotFound is returned when the folder has no labels file.
	ErrLabelsNotFound = errors.New("labels.txt file not found")

	// ErrInvalidLabel is returned for an empty label or one that is not a
	// plain file name.
	ErrInvalidLabel = errors.New("invalid label")

	// ErrDuplicateTarget is returned when two images would get the same name.
	ErrDuplicateTarget = errors.New("duplicate rename target")

	// ErrTargetExists is returned when a new name is already taken by a
	// different file.
	ErrTargetExists = errors.New("rename target already exists")
)

// CountMismatchError reports that the number of labels differs from the
// number of images.
type CountMismatchError struct {
	Images int
	Labels int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("the number of images and names do not match (%d images, %d labels)", e.Images, e.Labels)
}

// Options configures Rename.
type Options struct {
	// Dir is the folder holding the images and the labels file.
	Dir string

	// Date is the YYYYMMDD prefix for every new name.
	Date string

	// Enabled turns renaming on. When false Rename does nothing.
	Enabled bool

	// LabelsFile overrides the sidecar name. Defaults to DefaultLabelsFile.
	LabelsFile string

	Logger logrus.FieldLogger
}

// Move is one planned or completed rename, by base file name.
type Move struct {
	From string
	To   string
}

// Result lists the renames performed, in order.
type Result struct {
	Moves []Move
}

// Rename renames every image in opts.Dir after the matching line of the
// labels file.
//
// Nothing is renamed if the labels file is missing, the counts differ or the
// plan is invalid. Renames then happen one at a time in sorted order; if one
// fails, Rename stops and the returned Result holds the moves already done.
func Rename(ctx context.Context, opts Options) (*Result, error) {
	result := &Result{}
	if !opts.Enabled {
		return result, nil
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	labelsName := opts.LabelsFile
	if labelsName == "" {
		labelsName = DefaultLabelsFile
	}

	images, err := imaging.ListImages(opts.Dir)
	if err != nil {
		return nil, err
	}

	labels, err := ReadLabels(filepath.Join(opts.Dir, labelsName))
	if err != nil {
		return nil, err
	}

	if len(images) != len(labels) {
		return nil, &CountMismatchError{Images: len(images), Labels: len(labels)}
	}

	moves, err := Plan(images, labels, opts.Date)
	if err != nil {
		return nil, err
	}
	if err := checkTargets(opts.Dir, moves); err != nil {
		return nil, err
	}

	for _, m := range moves {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if m.From == m.To {
			logger.WithField("file", m.From).Debug("Already named, skipping")
			continue
		}

		err := os.Rename(filepath.Join(opts.Dir, m.From), filepath.Join(opts.Dir, m.To))
		if err != nil {
			return result, errors.Wrapf(err, "failed to rename %s to %s", m.From, m.To)
		}
		result.Moves = append(result.Moves, m)
		logger.Infof("Renamed '%s' to '%s'", m.From, m.To)
	}

	logger.Info("All photos have been renamed successfully")
	return result, nil
}

// ReadLabels reads one label per line from path.
//
// Carriage returns are stripped so files saved on Windows read the same, and a
// final newline does not add an empty label. Interior blank lines are kept as
// empty labels so the count check sees them.
func ReadLabels(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrLabelsNotFound, "%s", path)
		}
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	text := strings.TrimPrefix(string(data), "\ufeff")
	text = strings.ReplaceAll(text, "\r", "")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return []string{}, nil
	}
	return strings.Split(text, "\n"), nil
}

// Plan pairs each image with its label and builds the new names. images and
// labels must have the same length.
func Plan(images []imaging.Asset, labels []string, date string) ([]Move, error) {
	if len(images) != len(labels) {
		return nil, &CountMismatchError{Images: len(images), Labels: len(labels)}
	}

	moves := make([]Move, len(images))
	seen := make(map[string]string, len(images))
	for i, img := range images {
		if err := validateLabel(labels[i]); err != nil {
			return nil, errors.Wrapf(err, "line %d", i+1)
		}

		target := fmt.Sprintf("%s_%s%s", date, labels[i], img.Ext)
		if prev, ok := seen[target]; ok {
			return nil, errors.Wrapf(ErrDuplicateTarget, "%s and %s would both become %s", prev, img.Name, target)
		}
		seen[target] = img.Name
		moves[i] = Move{From: img.Name, To: target}
	}
	return moves, nil
}

func validateLabel(label string) error {
	switch {
	case label == "":
		return errors.Wrap(ErrInvalidLabel, "empty label")
	case strings.ContainsAny(label, `/\`) || strings.ContainsRune(label, os.PathSeparator):
		return errors.Wrapf(ErrInvalidLabel, "%q contains a path separator", label)
	case strings.ContainsRune(label, 0):
		return errors.Wrapf(ErrInvalidLabel, "%q contains a NUL byte", label)
	}
	return nil
}

// checkTargets rejects any move whose target already exists as a different
// file. A target that is another image's current name is also rejected, since
// the sequential renames would overwrite it.
func checkTargets(dir string, moves []Move) error {
	for _, m := range moves {
		if m.From == m.To {
			continue
		}
		if _, err := os.Lstat(filepath.Join(dir, m.To)); err == nil {
			return errors.Wrapf(ErrTargetExists, "cannot rename %s to %s", m.From, m.To)
		} else if !os.IsNotExist(err) {
			return errors.Wrapf(err, "failed to check %s", m.To)
		}
	}
	return nil
}
