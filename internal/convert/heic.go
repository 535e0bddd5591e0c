package convert

import (
	"bytes"
	"image"
	"os"

	"github.com/disintegration/imaging"
	"github.com/jdeng/goheif"
	"github.com/pkg/errors"
	"github.com/rwcarlsen/goexif/exif"
)

// HEICExts are the extensions, matched case-insensitively, that Normalize
// converts.
var HEICExts = []string{".heic", ".heif"}

// DecodeFunc decodes the file at path into an upright image.
type DecodeFunc func(path string) (image.Image, error)

// DecodeHEIC decodes a HEIC/HEIF file with its EXIF orientation applied.
// A file without readable EXIF data is returned as stored.
func DecodeHEIC(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	img, err := goheif.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode HEIC %s", path)
	}

	raw, err := goheif.ExtractExif(f)
	if err != nil || len(raw) == 0 {
		return img, nil
	}
	return applyOrientation(img, exifOrientation(raw)), nil
}

// exifHeader prefixes the TIFF structure in an EXIF block.
var exifHeader = []byte("Exif\x00\x00")

// exifOrientation returns the Orientation tag from a raw EXIF block, or 1 when
// it is absent or unreadable.
func exifOrientation(raw []byte) int {
	if i := bytes.Index(raw, exifHeader); i >= 0 {
		raw = raw[i+len(exifHeader):]
	}

	x, err := exif.Decode(bytes.NewReader(raw))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	o, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return o
}

// applyOrientation transforms img so that it displays upright for the given
// EXIF orientation value (1-8). Unknown values leave img unchanged.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	}
	return img
}
