package pipeline

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/flowercount/internal/detection"
	"github.com/ironsheep/flowercount/internal/imaging"
	"github.com/pkg/errors"
)

// fakeDetector returns counts[name] regions for each image and fails for
// names in fail.
type fakeDetector struct {
	counts map[string]int
	fail   map[string]bool
	calls  []string

	// onDetect runs before each call when set.
	onDetect func(name string)
}

func (f *fakeDetector) Detect(ctx context.Context, path string) (*detection.Result, error) {
	name := filepath.Base(path)
	f.calls = append(f.calls, name)
	if f.onDetect != nil {
		f.onDetect(name)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.fail[name] {
		return nil, errors.Errorf("cannot decode %s", name)
	}

	n := f.counts[name]
	regions := make([]detection.Region, n)
	for i := range regions {
		x := float64(4 + i*12)
		regions[i] = detection.Region{
			Box:     detection.Box{X1: x, Y1: 20, X2: x + 10, Y2: 40},
			ClassID: 0,
			Class:   "flower",
			Score:   0.9,
		}
	}
	return &detection.Result{Regions: regions, Width: 64, Height: 48}, nil
}

func (f *fakeDetector) Close() error { return nil }

// writeImage saves a 64x48 white image; the format follows the extension.
func writeImage(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.White)
		}
	}
	path := filepath.Join(dir, name)
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// recorder captures Record calls.
type recorder struct {
	names []string
	err   error
}

func (r *recorder) Record(date, filename string, regions []detection.Region) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	r.names = append(r.names, filename)
	return int64(len(r.names)), nil
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
