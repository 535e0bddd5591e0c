package detection

import (
	"sort"

	"github.com/pkg/errors"
)

// Default inference thresholds.
const (
	DefaultConfidence    = 0.25
	DefaultIoU           = 0.7
	DefaultMaxDetections = 300
)

// outputLayout describes how a YOLO head's output tensor is arranged.
//
// The standard export is [1, 4+nc, N]: one row per channel with N anchors
// across. Some exports transpose it to [1, N, 4+nc].
type outputLayout struct {
	Channels   int
	Anchors    int
	Transposed bool
}

// Classes returns the number of class score channels.
func (l outputLayout) Classes() int {
	return l.Channels - 4
}

// at returns channel c of anchor a.
func (l outputLayout) at(data []float32, c, a int) float32 {
	if l.Transposed {
		return data[a*l.Channels+c]
	}
	return data[c*l.Anchors+a]
}

// dims returns the tensor shape the layout describes, with a batch of one.
func (l outputLayout) dims() []int64 {
	if l.Transposed {
		return []int64{1, int64(l.Anchors), int64(l.Channels)}
	}
	return []int64{1, int64(l.Channels), int64(l.Anchors)}
}

// yoloStrides are the feature map strides of the YOLOv8/11 detection head.
var yoloStrides = []int{8, 16, 32}

// anchorCount returns how many anchors the head emits for a square input of
// the given size.
func anchorCount(inputSize int) int {
	n := 0
	for _, s := range yoloStrides {
		side := (inputSize + s - 1) / s
		n += side * side
	}
	return n
}

// layoutFor infers the output layout from the tensor shape.
//
// numClasses is the number of names in the model metadata, or 0 if unknown.
// With no names the smaller of the two trailing dimensions is taken as the
// channel axis, which holds for every image size YOLO is exported at.
//
// Dynamic dimensions are resolved for a square input of inputSize: a dynamic
// batch becomes one, a single dynamic axis is the anchor axis, and a fully
// dynamic head needs numClasses to size the channel axis.
func layoutFor(shape []int64, numClasses, inputSize int) (outputLayout, error) {
	if len(shape) != 3 || shape[0] > 1 || shape[0] == 0 {
		return outputLayout{}, errors.Errorf("unexpected output shape %v, want [1 4+nc N]", shape)
	}

	rows, cols := shape[1], shape[2]
	anchors := int64(anchorCount(inputSize))
	switch {
	case rows <= 0 && cols <= 0:
		if numClasses == 0 {
			return outputLayout{}, errors.Errorf("dynamic output shape %v needs class names in the model metadata", shape)
		}
		rows, cols = int64(numClasses+4), anchors
	case rows <= 0:
		rows = anchors
	case cols <= 0:
		cols = anchors
	}

	var l outputLayout
	switch r, c := int(rows), int(cols); {
	case numClasses > 0 && r == numClasses+4:
		l = outputLayout{Channels: r, Anchors: c}
	case numClasses > 0 && c == numClasses+4:
		l = outputLayout{Channels: c, Anchors: r, Transposed: true}
	case r <= c:
		l = outputLayout{Channels: r, Anchors: c}
	default:
		l = outputLayout{Channels: c, Anchors: r, Transposed: true}
	}

	if l.Classes() < 1 {
		return outputLayout{}, errors.Errorf("output shape %v has no class channels", shape)
	}
	return l, nil
}

// decodeCandidates reads every anchor whose best class score exceeds minScore.
// Boxes are converted from center/size form to corners and left in the
// model's input coordinate frame.
func decodeCandidates(data []float32, layout outputLayout, minScore float64) []Region {
	candidates := make([]Region, 0, 64)

	for a := 0; a < layout.Anchors; a++ {
		bestClass := -1
		bestScore := float32(0)
		for c := 0; c < layout.Classes(); c++ {
			s := layout.at(data, 4+c, a)
			if bestClass < 0 || s > bestScore {
				bestClass = c
				bestScore = s
			}
		}
		if float64(bestScore) <= minScore {
			continue
		}

		cx := float64(layout.at(data, 0, a))
		cy := float64(layout.at(data, 1, a))
		w := float64(layout.at(data, 2, a))
		h := float64(layout.at(data, 3, a))

		candidates = append(candidates, Region{
			Box: Box{
				X1: cx - w/2,
				Y1: cy - h/2,
				X2: cx + w/2,
				Y2: cy + h/2,
			},
			ClassID: bestClass,
			Score:   float64(bestScore),
		})
	}

	return candidates
}

// NonMaxSuppression keeps the highest scoring region among any group of
// same-class regions overlapping by more than iouThreshold.
//
// The result is sorted by score, highest first, and holds at most limit
// regions when limit > 0. Regions of different classes never suppress each
// other. The input slice is reordered.
func NonMaxSuppression(regions []Region, iouThreshold float64, limit int) []Region {
	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].Score > regions[j].Score
	})

	kept := make([]Region, 0, len(regions))
	suppressed := make([]bool, len(regions))

	for i := range regions {
		if suppressed[i] {
			continue
		}
		kept = append(kept, regions[i])
		if limit > 0 && len(kept) == limit {
			break
		}
		for j := i + 1; j < len(regions); j++ {
			if suppressed[j] || regions[j].ClassID != regions[i].ClassID {
				continue
			}
			if regions[i].Box.IoU(regions[j].Box) > iouThreshold {
				suppressed[j] = true
			}
		}
	}

	return kept
}
