// Package convert rewrites HEIC/HEIF photos in a folder as JPEG files so the
// rest of the pipeline only ever sees formats the standard decoders handle.
//
// Each source is decoded, rotated upright according to its EXIF orientation,
// written as <stem>.jpg next to it and then removed. The JPEG lands through a
// temporary file and a rename, and the source is only deleted once the JPEG is
// in place, so an interrupted run never loses a photo.
//
// A folder that has already been normalized contains no HEIC files, so running
// the normalizer again does nothing.
package convert
