package detection

import (
	"fmt"
	"image"
	"math"
)

// Box is an axis-aligned bounding box in pixel coordinates.
// (X1, Y1) is the top-left corner and (X2, Y2) the bottom-right.
type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Area returns the box area, or 0 for a degenerate box.
func (b Box) Area() float64 {
	w := b.X2 - b.X1
	h := b.Y2 - b.Y1
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// IoU returns the intersection over union of b and o.
func (b Box) IoU(o Box) float64 {
	ix1 := math.Max(b.X1, o.X1)
	iy1 := math.Max(b.Y1, o.Y1)
	ix2 := math.Min(b.X2, o.X2)
	iy2 := math.Min(b.Y2, o.Y2)

	inter := Box{ix1, iy1, ix2, iy2}.Area()
	union := b.Area() + o.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Clip constrains the box to [0,width] x [0,height].
func (b Box) Clip(width, height int) Box {
	w, h := float64(width), float64(height)
	return Box{
		X1: math.Min(math.Max(b.X1, 0), w),
		Y1: math.Min(math.Max(b.Y1, 0), h),
		X2: math.Min(math.Max(b.X2, 0), w),
		Y2: math.Min(math.Max(b.Y2, 0), h),
	}
}

// Rect rounds the box to integer pixel coordinates.
func (b Box) Rect() image.Rectangle {
	return image.Rect(
		int(math.Round(b.X1)), int(math.Round(b.Y1)),
		int(math.Round(b.X2)), int(math.Round(b.Y2)),
	)
}

// Region is one detected object.
type Region struct {
	// Box is the object's bounding box in source image pixels.
	Box Box `json:"box"`

	// ClassID is the model's class index.
	ClassID int `json:"class_id"`

	// Class is the human-readable class name. Empty when the model carries no
	// name for ClassID.
	Class string `json:"class,omitempty"`

	// Score is the class confidence in [0, 1].
	Score float64 `json:"score"`
}

// Label returns the class name, or a placeholder built from the class index
// when the model has no name for it.
func (r Region) Label() string {
	if r.Class != "" {
		return r.Class
	}
	return fmt.Sprintf("class %d", r.ClassID)
}

// Result holds every region found in one image.
type Result struct {
	// Regions is sorted by score, highest first.
	Regions []Region `json:"regions"`

	// Width and Height are the oriented source image dimensions.
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Count returns the number of detected regions. Every region counts as one
// flower regardless of class.
func (r *Result) Count() int {
	if r == nil {
		return 0
	}
	return len(r.Regions)
}
