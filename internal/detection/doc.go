// Package detection runs a YOLO object detector over image files and returns
// the regions it finds.
//
// # Detector
//
// Detector is the seam between the pipeline and the model. ONNXDetector is the
// production implementation: it loads an Ultralytics YOLOv8/YOLO11 detection
// model exported to ONNX and runs it through ONNX Runtime. Tests substitute
// their own Detector.
//
// # Inference Pipeline
//
//  1. Load: decode the file with EXIF orientation applied
//  2. Letterbox: fit the image into the model's square input on a gray canvas
//  3. Run: feed a 1x3xSxS float tensor scaled to [0,1]
//  4. Decode: read boxes and per-class scores from the 1x(4+nc)xN output
//  5. Filter: drop candidates below the confidence threshold
//  6. Suppress: class-aware non-maximum suppression, highest score first
//
// # Coordinate System
//
// Region boxes are in source image pixels after orientation, the same frame the
// overlay renderer draws in. Boxes are clipped to the image.
//
// # Defaults
//
// The thresholds match the Ultralytics prediction defaults: confidence 0.25,
// IoU 0.7 and at most 300 detections per image.
package detection
