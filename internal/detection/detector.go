package detection

import "context"

// Detector finds objects in image files.
//
// Implementations need not be safe for concurrent use.
type Detector interface {
	// Detect runs inference on the image at path. It fails if the file cannot
	// be decoded or inference fails; a clean image with no objects yields an
	// empty Result, not an error.
	Detect(ctx context.Context, path string) (*Result, error)

	// Close releases any resources held by the detector.
	Close() error
}
