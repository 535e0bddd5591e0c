package imaging

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// Annotation is one box and caption to draw on an overlay.
type Annotation struct {
	// Rect is the box in source image pixel coordinates.
	Rect image.Rectangle

	// Label is drawn just above the box's top-left corner. May be empty.
	Label string
}

// Annotate draws every annotation onto a copy of img and returns the copy.
// img itself is never modified.
//
// Each box is stroked as a rectangle outline of style.BoxThickness pixels,
// centered on the box edges. The label baseline sits style.LabelOffset pixels
// above the top edge, starting at the left edge. Anything falling outside the
// image is clipped.
func Annotate(img image.Image, annotations []Annotation, style Style) image.Image {
	origin := img.Bounds().Min
	if origin != (image.Point{}) {
		// gg rasterizes in a zero-based frame.
		img = imaging.Clone(img)
	}
	dc := gg.NewContextForImage(img)

	dc.SetFontFace(basicfont.Face7x13)
	for _, a := range annotations {
		r := a.Rect.Sub(origin).Canon()

		dc.SetColor(style.BoxColor)
		dc.SetLineWidth(style.BoxThickness)
		dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
		dc.Stroke()

		if a.Label == "" {
			continue
		}
		dc.SetColor(style.LabelColor)
		dc.DrawString(a.Label, float64(r.Min.X), float64(r.Min.Y)-style.LabelOffset)
	}

	return dc.Image()
}
