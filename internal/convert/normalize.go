package convert

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/ironsheep/flowercount/internal/imaging"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Normalizer converts every HEIC/HEIF file in a folder to JPEG.
type Normalizer struct {
	// Decode reads a source file. Defaults to DecodeHEIC.
	Decode DecodeFunc

	// Quality is the JPEG quality, 1-100. Defaults to imaging.DefaultJPEGQuality.
	Quality int

	Logger logrus.FieldLogger
}

// Summary reports what a Normalize call did.
type Summary struct {
	// Converted lists the JPEG files written, in processing order.
	Converted []string

	// Failed lists the sources that could not be converted and were left in
	// place.
	Failed []string
}

// Normalize converts the HEIC/HEIF files directly inside dir.
//
// A file that fails to convert is logged and left untouched; the remaining
// files are still processed. A source whose JPEG name was already produced
// earlier in the same call, such as a.heif after a.HEIC, counts as a failure
// and is kept. Only a directory that cannot be listed, or a
// cancelled ctx, makes Normalize return an error.
func (n *Normalizer) Normalize(ctx context.Context, dir string) (*Summary, error) {
	logger := n.logger()

	sources, err := imaging.ListFiles(dir, func(name string) bool {
		return imaging.HasExt(name, HEICExts...)
	})
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	written := make(map[string]string, len(sources))
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		target := targetPath(src)
		if prev, ok := written[target]; ok {
			err := errors.Errorf("%s was already written from %s", filepath.Base(target), prev)
			logger.WithField("file", src.Name).WithError(err).Error("Conversion failed, keeping source")
			summary.Failed = append(summary.Failed, src.Path)
			continue
		}

		err := n.convert(src, target)
		if err != nil {
			logger.WithField("file", src.Name).WithError(err).Error("Conversion failed, keeping source")
			summary.Failed = append(summary.Failed, src.Path)
			continue
		}
		written[target] = src.Name
		summary.Converted = append(summary.Converted, target)
	}

	logger.WithFields(logrus.Fields{
		"converted": len(summary.Converted),
		"failed":    len(summary.Failed),
	}).Debug("Normalization finished")

	return summary, nil
}

// targetPath is the JPEG path src converts to.
func targetPath(src imaging.Asset) string {
	return strings.TrimSuffix(src.Path, src.Ext) + ".jpg"
}

// convert writes src as a JPEG at target and removes src.
func (n *Normalizer) convert(src imaging.Asset, target string) error {
	logger := n.logger()

	img, err := n.decoder()(src.Path)
	if err != nil {
		return err
	}

	if _, err := os.Stat(target); err == nil {
		logger.WithField("file", filepath.Base(target)).Warn("Overwriting existing JPEG")
	}

	encode := imgio.JPEGEncoder(n.quality())
	err = imaging.WriteAtomic(target, func(w io.Writer) error {
		return encode(w, img)
	})
	if err != nil {
		return err
	}
	logger.Infof("Converted %s to %s", src.Name, filepath.Base(target))

	if err := os.Remove(src.Path); err != nil {
		return errors.Wrapf(err, "converted but failed to remove %s", src.Name)
	}
	logger.Infof("Removed %s", src.Name)

	return nil
}

func (n *Normalizer) decoder() DecodeFunc {
	if n.Decode != nil {
		return n.Decode
	}
	return DecodeHEIC
}

func (n *Normalizer) quality() int {
	if n.Quality < 1 || n.Quality > 100 {
		return imaging.DefaultJPEGQuality
	}
	return n.Quality
}

func (n *Normalizer) logger() logrus.FieldLogger {
	if n.Logger != nil {
		return n.Logger
	}
	return logrus.StandardLogger()
}
