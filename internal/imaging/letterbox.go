package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
)

// PadGray is the gray level used to fill letterbox borders.
const PadGray = 114

// Letterboxed is an image scaled to fit a square canvas with its aspect ratio
// preserved, plus the transform needed to map canvas coordinates back onto
// the source image.
type Letterboxed struct {
	// Image is the size x size canvas.
	Image *image.NRGBA

	// Scale is the factor applied to the source dimensions.
	Scale float64

	// PadX and PadY are the left and top border widths in canvas pixels.
	PadX int
	PadY int
}

// Letterbox resizes img to fit inside a size x size square without distortion
// and centers it on a PadGray background.
func Letterbox(img image.Image, size int) *Letterboxed {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	scale := math.Min(float64(size)/float64(w), float64(size)/float64(h))
	nw := clamp(int(math.Round(float64(w)*scale)), 1, size)
	nh := clamp(int(math.Round(float64(h)*scale)), 1, size)

	resized := resize.Resize(uint(nw), uint(nh), img, resize.Bilinear)

	padX := (size - nw) / 2
	padY := (size - nh) / 2

	canvas := imaging.New(size, size, color.NRGBA{R: PadGray, G: PadGray, B: PadGray, A: 255})
	canvas = imaging.Paste(canvas, resized, image.Pt(padX, padY))

	return &Letterboxed{
		Image: canvas,
		Scale: scale,
		PadX:  padX,
		PadY:  padY,
	}
}

// ToSource maps a point on the letterbox canvas back to source image
// coordinates.
func (l *Letterboxed) ToSource(x, y float64) (float64, float64) {
	return (x - float64(l.PadX)) / l.Scale, (y - float64(l.PadY)) / l.Scale
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
