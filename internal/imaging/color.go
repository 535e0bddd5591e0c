package imaging

import (
	"image/color"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// Style controls how detections are drawn onto overlay images.
type Style struct {
	// BoxColor is the rectangle outline color.
	BoxColor color.Color

	// LabelColor is the class label text color.
	LabelColor color.Color

	// BoxThickness is the rectangle outline width in pixels.
	BoxThickness float64

	// LabelOffset is how far above the box's top edge the label baseline sits.
	LabelOffset float64
}

// DefaultStyle returns the overlay style used when none is configured:
// a 4px red outline and an azure label 10px above the top-left corner.
func DefaultStyle() Style {
	return Style{
		BoxColor:     color.RGBA{R: 255, G: 0, B: 0, A: 255},
		LabelColor:   color.RGBA{R: 0, G: 128, B: 255, A: 255},
		BoxThickness: 4,
		LabelOffset:  10,
	}
}

// ParseColor parses a hex color string such as "#FF0000" or "ff0000" into an
// opaque color.
func ParseColor(hex string) (color.RGBA, error) {
	hex = strings.TrimSpace(hex)
	if hex == "" {
		return color.RGBA{}, errors.New("empty color string")
	}
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}

	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, errors.Wrapf(err, "invalid color %q", hex)
	}

	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// HexString formats c as "#RRGGBB", dropping alpha.
func HexString(c color.Color) string {
	cc, ok := colorful.MakeColor(c)
	if !ok {
		return "#000000"
	}
	return strings.ToUpper(cc.Hex())
}
