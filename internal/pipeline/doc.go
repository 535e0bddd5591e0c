// Package pipeline composes the flowercount stages into one batch run:
// normalize HEIC sources, optionally rename against labels.txt, detect and
// count objects in every image, then write the CSV report.
//
// Stages run strictly one after another. The detector is created by the
// caller and passed in, and the detection stage hands its report table back
// to Run rather than sharing it.
package pipeline
