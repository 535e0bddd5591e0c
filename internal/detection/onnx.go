package detection

import (
	"context"

	"github.com/ironsheep/flowercount/internal/imaging"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/multierr"
)

// DefaultInputSize is used when the model declares a dynamic input size.
const DefaultInputSize = 640

// ONNXOptions configures an ONNXDetector. Zero values select the defaults.
type ONNXOptions struct {
	// LibraryPath is the onnxruntime shared library. Empty leaves the
	// runtime's default search in place.
	LibraryPath string

	// Confidence is the minimum class score kept.
	Confidence float64

	// IoU is the overlap above which same-class boxes are suppressed.
	IoU float64

	// MaxDetections caps the regions returned per image.
	MaxDetections int

	// Threads limits intra-op parallelism. 0 lets the runtime decide.
	Threads int

	Logger logrus.FieldLogger
}

func (o *ONNXOptions) setDefaults() {
	if o.Confidence <= 0 {
		o.Confidence = DefaultConfidence
	}
	if o.IoU <= 0 {
		o.IoU = DefaultIoU
	}
	if o.MaxDetections <= 0 {
		o.MaxDetections = DefaultMaxDetections
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
}

// ONNXDetector runs a YOLO detection model through ONNX Runtime.
//
// The input and output tensors are allocated once and reused for every call,
// so an ONNXDetector must not be used from more than one goroutine at a time.
type ONNXDetector struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]

	inputSize int
	layout    outputLayout
	names     map[int]string
	opts      ONNXOptions
}

// NewONNXDetector loads the model at modelPath and prepares a session for it.
//
// The model must have a single 1x3xSxS image input and a single detection
// output. Class names are read from the "names" metadata entry when present.
func NewONNXDetector(modelPath string, opts ONNXOptions) (*ONNXDetector, error) {
	opts.setDefaults()

	if err := initEnvironment(opts.LibraryPath); err != nil {
		return nil, err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read model %s", modelPath)
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return nil, errors.Errorf("model %s has %d inputs and %d outputs, want 1 and 1", modelPath, len(inputs), len(outputs))
	}
	in, out := inputs[0], outputs[0]

	size, err := inputSizeFor(in.Dimensions)
	if err != nil {
		return nil, errors.Wrapf(err, "model %s", modelPath)
	}

	names := readClassNames(modelPath, opts.Logger)

	layout, err := layoutFor(out.Dimensions, len(names), size)
	if err != nil {
		return nil, errors.Wrapf(err, "model %s", modelPath)
	}

	d := &ONNXDetector{
		inputSize: size,
		layout:    layout,
		names:     names,
		opts:      opts,
	}

	d.input, err = ort.NewEmptyTensor[float32](ort.NewShape(1, 3, int64(size), int64(size)))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create input tensor")
	}
	d.output, err = ort.NewEmptyTensor[float32](ort.NewShape(layout.dims()...))
	if err != nil {
		d.Close()
		return nil, errors.Wrap(err, "failed to create output tensor")
	}

	sessionOpts, err := ort.NewSessionOptions()
	if err != nil {
		d.Close()
		return nil, errors.Wrap(err, "failed to create session options")
	}
	defer sessionOpts.Destroy()
	if opts.Threads > 0 {
		if err := sessionOpts.SetIntraOpNumThreads(opts.Threads); err != nil {
			d.Close()
			return nil, errors.Wrap(err, "failed to set thread count")
		}
	}

	d.session, err = ort.NewAdvancedSession(modelPath,
		[]string{in.Name}, []string{out.Name},
		[]ort.ArbitraryTensor{d.input}, []ort.ArbitraryTensor{d.output},
		sessionOpts)
	if err != nil {
		d.Close()
		return nil, errors.Wrapf(err, "failed to create session for %s", modelPath)
	}

	opts.Logger.WithFields(logrus.Fields{
		"model":   modelPath,
		"input":   size,
		"classes": layout.Classes(),
		"anchors": layout.Anchors,
	}).Debug("Detection model loaded")

	return d, nil
}

// Classes returns the class names read from the model, keyed by class index.
// The map is empty when the model carries no names.
func (d *ONNXDetector) Classes() map[int]string {
	return d.names
}

// Detect runs the model over the image at path.
func (d *ONNXDetector) Detect(ctx context.Context, path string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := imaging.Load(path)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()

	lb := imaging.Letterbox(img, d.inputSize)
	fillCHW(d.input.GetData(), lb, d.inputSize)

	if err := d.session.Run(); err != nil {
		return nil, errors.Wrapf(err, "inference failed for %s", path)
	}

	candidates := decodeCandidates(d.output.GetData(), d.layout, d.opts.Confidence)
	for i := range candidates {
		b := candidates[i].Box
		x1, y1 := lb.ToSource(b.X1, b.Y1)
		x2, y2 := lb.ToSource(b.X2, b.Y2)
		candidates[i].Box = Box{X1: x1, Y1: y1, X2: x2, Y2: y2}.Clip(bounds.Dx(), bounds.Dy())
		candidates[i].Class = d.names[candidates[i].ClassID]
	}

	return &Result{
		Regions: NonMaxSuppression(candidates, d.opts.IoU, d.opts.MaxDetections),
		Width:   bounds.Dx(),
		Height:  bounds.Dy(),
	}, nil
}

// Close releases the session and its tensors. It is safe to call more than
// once.
func (d *ONNXDetector) Close() error {
	var err error
	if d.session != nil {
		multierr.AppendInto(&err, d.session.Destroy())
		d.session = nil
	}
	if d.input != nil {
		multierr.AppendInto(&err, d.input.Destroy())
		d.input = nil
	}
	if d.output != nil {
		multierr.AppendInto(&err, d.output.Destroy())
		d.output = nil
	}
	return err
}

// ShutdownRuntime tears down the process-wide ONNX Runtime environment. Call
// it once, after every detector has been closed.
func ShutdownRuntime() error {
	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

func initEnvironment(libraryPath string) error {
	if ort.IsInitialized() {
		return nil
	}
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return errors.Wrap(err, "failed to initialize onnxruntime")
	}
	return nil
}

// inputSizeFor validates a 1x3xHxW input and returns its side length.
func inputSizeFor(dims ort.Shape) (int, error) {
	if len(dims) != 4 {
		return 0, errors.Errorf("expected 4D image input, got shape %v", dims)
	}
	if dims[1] > 0 && dims[1] != 3 {
		return 0, errors.Errorf("expected 3 input channels, got %d", dims[1])
	}

	h, w := dims[2], dims[3]
	switch {
	case h <= 0 && w <= 0:
		return DefaultInputSize, nil
	case h != w:
		return 0, errors.Errorf("expected square input, got %dx%d", w, h)
	}
	return int(h), nil
}

// readClassNames returns the model's class names, or nil if the metadata is
// missing or unreadable.
func readClassNames(modelPath string, logger logrus.FieldLogger) map[int]string {
	meta, err := ort.GetModelMetadata(modelPath)
	if err != nil {
		logger.WithError(err).Debug("Model metadata unavailable")
		return nil
	}
	defer meta.Destroy()

	raw, ok, err := meta.LookupCustomMetadataMap("names")
	if err != nil || !ok {
		return nil
	}
	names, err := ParseClassNames(raw)
	if err != nil {
		logger.WithError(err).Warn("Ignoring unreadable class names in model metadata")
		return nil
	}
	return names
}

// fillCHW writes the letterboxed RGB pixels into dst as planar float32 in
// [0,1], red plane first.
func fillCHW(dst []float32, lb *imaging.Letterboxed, size int) {
	plane := size * size
	pix := lb.Image.Pix
	stride := lb.Image.Stride
	for y := 0; y < size; y++ {
		row := pix[y*stride:]
		for x := 0; x < size; x++ {
			i := y*size + x
			p := row[x*4:]
			dst[i] = float32(p[0]) / 255
			dst[plane+i] = float32(p[1]) / 255
			dst[2*plane+i] = float32(p[2]) / 255
		}
	}
}
