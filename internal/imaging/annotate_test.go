package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestAnnotate_DrawsBoxOutline(t *testing.T) {
	img := createInMemoryImage(100, 100, color.White)
	ann := []Annotation{{Rect: image.Rect(20, 20, 60, 60)}}

	out := Annotate(img, ann, DefaultStyle())

	if b := out.Bounds(); b.Dx() != 100 || b.Dy() != 100 {
		t.Fatalf("dimensions: got %dx%d, want 100x100", b.Dx(), b.Dy())
	}

	// Left edge of the box.
	r, g, b := rgb8(out, 20, 40)
	if r != 255 || g != 0 || b != 0 {
		t.Errorf("edge pixel (20,40): got (%d,%d,%d), want (255,0,0)", r, g, b)
	}

	r, g, b = rgb8(out, 40, 40)
	if r != 255 || g != 255 || b != 255 {
		t.Errorf("interior pixel (40,40): got (%d,%d,%d), want white", r, g, b)
	}

	r, g, b = rgb8(out, 90, 90)
	if r != 255 || g != 255 || b != 255 {
		t.Errorf("outside pixel (90,90): got (%d,%d,%d), want white", r, g, b)
	}
}

func TestAnnotate_LeavesSourceUntouched(t *testing.T) {
	img := createInMemoryImage(50, 50, color.White)
	Annotate(img, []Annotation{{Rect: image.Rect(10, 10, 40, 40), Label: "flower"}}, DefaultStyle())

	r, g, b := rgb8(img, 10, 25)
	if r != 255 || g != 255 || b != 255 {
		t.Errorf("source was modified at (10,25): got (%d,%d,%d)", r, g, b)
	}
}

func TestAnnotate_DrawsLabelAboveBox(t *testing.T) {
	img := createInMemoryImage(120, 100, color.White)
	ann := []Annotation{{Rect: image.Rect(20, 40, 80, 90), Label: "flower"}}

	out := Annotate(img, ann, DefaultStyle())

	// Baseline sits at y=30; basicfont glyphs rise about 10px above it.
	changed := false
	for y := 18; y <= 32 && !changed; y++ {
		for x := 20; x < 70; x++ {
			r, g, b := rgb8(out, x, y)
			if r != 255 || g != 255 || b != 255 {
				changed = true
				break
			}
		}
	}
	if !changed {
		t.Error("no label pixels found above the box")
	}
}

func TestAnnotate_NoAnnotations(t *testing.T) {
	img := createPatternImage(40, 40)
	out := Annotate(img, nil, DefaultStyle())

	r, g, b := rgb8(out, 35, 5)
	if r != 0 || g != 255 || b != 0 {
		t.Errorf("pixel (35,5): got (%d,%d,%d), want green", r, g, b)
	}
}

func TestAnnotate_NonZeroOrigin(t *testing.T) {
	base := createPatternImage(100, 100)
	sub := base.SubImage(image.Rect(50, 50, 100, 100))

	out := Annotate(sub, []Annotation{{Rect: image.Rect(60, 60, 90, 90)}}, DefaultStyle())

	if b := out.Bounds(); b.Dx() != 50 || b.Dy() != 50 {
		t.Fatalf("dimensions: got %dx%d, want 50x50", b.Dx(), b.Dy())
	}
	// (60,75) in source coordinates lands at (10,25) in the output.
	r, g, b := rgb8(out, out.Bounds().Min.X+10, out.Bounds().Min.Y+25)
	if r != 255 || g != 0 || b != 0 {
		t.Errorf("edge pixel: got (%d,%d,%d), want (255,0,0)", r, g, b)
	}
}
