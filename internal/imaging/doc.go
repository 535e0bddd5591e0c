// Package imaging provides the file and pixel level operations shared by every
// stage of the flower counting pipeline.
//
// This package owns the single definition of what counts as an image file,
// directory listing in a deterministic order, decoding with EXIF orientation
// applied, atomic encoding to disk, letterboxing for model input, and drawing
// detection overlays.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # File Matching
//
// Extension matching is case-insensitive everywhere. IsImageFile is the one
// predicate used for discovery, renaming and detection, so "a.JPG", "a.jpg" and
// "a.Jpeg" are always treated the same way.
//
// # Orientation
//
// Load decodes with EXIF auto-orientation enabled. The detector and the overlay
// renderer both go through Load, so box coordinates produced on one decode line
// up with pixels on the other.
//
// # Atomic Writes
//
// WriteAtomic and Save write to a temporary file in the destination directory
// and rename it into place, so readers never observe a half-written file and a
// failed write leaves any previous file untouched.
package imaging
