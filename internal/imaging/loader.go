package imaging

import (
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/renameio/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// DefaultJPEGQuality is the quality used when re-encoding photos as JPEG.
const DefaultJPEGQuality = 95

// Load decodes the image at path with EXIF orientation applied.
//
// Parameters:
//   - path: Path to a PNG, JPEG or GIF file.
//
// Returns:
//   - image.Image: The decoded, upright image. The concrete type depends on the
//     format and any rotation that was applied.
//   - error: Non-nil if the file cannot be opened or decoded.
//
// The file is opened and closed within the call; nothing is cached, so every
// call reflects what is currently on disk.
func Load(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode image %s", path)
	}
	return img, nil
}

// Save encodes img to path atomically. The format is chosen from the file
// extension (jpg, jpeg, png, gif, tif, tiff, bmp).
func Save(img image.Image, path string, opts ...imaging.EncodeOption) error {
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return errors.Wrapf(err, "failed to choose encoder for %s", path)
	}
	if len(opts) == 0 && format == imaging.JPEG {
		opts = []imaging.EncodeOption{imaging.JPEGQuality(DefaultJPEGQuality)}
	}

	return WriteAtomic(path, func(w io.Writer) error {
		return imaging.Encode(w, img, format, opts...)
	})
}

// WriteAtomic streams write's output into a temporary file next to path and
// renames it over path once write and the sync both succeed.
//
// If write returns an error the temporary file is removed and path is left as
// it was.
func WriteAtomic(path string, write func(w io.Writer) error) (err error) {
	pf, err := renameio.NewPendingFile(path,
		renameio.WithTempDir(filepath.Dir(path)),
		renameio.WithPermissions(0o644))
	if err != nil {
		return errors.Wrapf(err, "failed to create temporary file for %s", path)
	}
	defer func() {
		multierr.AppendInto(&err, pf.Cleanup())
	}()

	if err := write(pf); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}

	if err := pf.CloseAtomicallyReplace(); err != nil {
		return errors.Wrapf(err, "failed to replace %s", path)
	}
	return nil
}
