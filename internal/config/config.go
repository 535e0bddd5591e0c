// Package config parses and validates the command line arguments and
// environment settings for a flowercount run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ironsheep/flowercount/internal/detection"
	"github.com/ironsheep/flowercount/internal/imaging"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Environment variables read by Load.
const (
	EnvJPEGQuality = "FLOWERCOUNT_JPEG_QUALITY"
	EnvBoxColor    = "FLOWERCOUNT_BOX_COLOR"
	EnvLabelColor  = "FLOWERCOUNT_LABEL_COLOR"
	EnvLogLevel    = "FLOWERCOUNT_LOG_LEVEL"
)

// DateLayout is the required format of the date argument.
const DateLayout = "20060102"

// ResultsDirName is the output folder created inside the photo folder.
const ResultsDirName = "results"

// NumArgs is the number of positional arguments a run takes.
const NumArgs = 5

// Error is a configuration problem detected before any processing starts.
type Error struct {
	// Field names the offending argument or variable.
	Field string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(field, format string, args ...interface{}) *Error {
	return &Error{Field: field, Err: errors.Errorf(format, args...)}
}

// Config holds everything a run needs.
type Config struct {
	// Positional arguments.
	Folder     string
	Date       string
	ModelPath  string
	OutputBBox bool
	Rename     bool

	// Detector tuning.
	Confidence  float64
	IoU         float64
	LibraryPath string

	// Archive enables the SQLite detection archive.
	Archive bool

	// JPEGQuality is used when converting HEIC sources.
	JPEGQuality int

	// Style controls overlay drawing.
	Style imaging.Style

	// Debug enables debug logging.
	Debug bool
}

// Default returns a Config with every optional setting at its default.
func Default() *Config {
	return &Config{
		Confidence:  detection.DefaultConfidence,
		IoU:         detection.DefaultIoU,
		JPEGQuality: imaging.DefaultJPEGQuality,
		Style:       imaging.DefaultStyle(),
	}
}

// ResultsDir is where overlays, the report and the archive are written.
func (c *Config) ResultsDir() string {
	return filepath.Join(c.Folder, ResultsDirName)
}

// ParseArgs fills the positional fields from args, in the order
// folder_path, date, model_path, output_bbox, rename. Values are validated
// but the filesystem is not consulted; see Validate.
func (c *Config) ParseArgs(args []string) error {
	if len(args) != NumArgs {
		return newError("arguments", "expected %d arguments, got %d", NumArgs, len(args))
	}

	c.Folder = args[0]
	c.Date = args[1]
	c.ModelPath = args[2]

	if err := ValidateDate(c.Date); err != nil {
		return &Error{Field: "date", Err: err}
	}

	var err error
	if c.OutputBBox, err = ParseBool(args[3]); err != nil {
		return &Error{Field: "output_bbox", Err: err}
	}
	if c.Rename, err = ParseBool(args[4]); err != nil {
		return &Error{Field: "rename", Err: err}
	}
	return nil
}

// LoadEnv applies the environment overrides. Unset variables keep their
// current values; set but malformed ones are an error.
func (c *Config) LoadEnv() error {
	if v := getEnv(EnvJPEGQuality); v != "" {
		q, err := strconv.Atoi(v)
		if err != nil || q < 1 || q > 100 {
			return newError(EnvJPEGQuality, "must be an integer from 1 to 100, got %q", v)
		}
		c.JPEGQuality = q
	}

	if v := getEnv(EnvBoxColor); v != "" {
		col, err := imaging.ParseColor(v)
		if err != nil {
			return &Error{Field: EnvBoxColor, Err: err}
		}
		c.Style.BoxColor = col
	}
	if v := getEnv(EnvLabelColor); v != "" {
		col, err := imaging.ParseColor(v)
		if err != nil {
			return &Error{Field: EnvLabelColor, Err: err}
		}
		c.Style.LabelColor = col
	}

	if strings.EqualFold(getEnv(EnvLogLevel), "debug") {
		c.Debug = true
	}
	return nil
}

// Validate checks the settings against the filesystem and their ranges.
func (c *Config) Validate() error {
	info, err := os.Stat(c.Folder)
	if err != nil || !info.IsDir() {
		return newError("folder_path", "folder does not exist or is not a directory")
	}

	info, err = os.Stat(c.ModelPath)
	if err != nil || !info.Mode().IsRegular() {
		return newError("model_path", "model file does not exist")
	}

	if c.Confidence <= 0 || c.Confidence > 1 {
		return newError("conf", "must be in (0, 1], got %v", c.Confidence)
	}
	if c.IoU <= 0 || c.IoU > 1 {
		return newError("iou", "must be in (0, 1], got %v", c.IoU)
	}
	return nil
}

// ValidateDate checks that s is a real calendar date written as YYYYMMDD.
func ValidateDate(s string) error {
	if len(s) != len(DateLayout) {
		return errors.New("must be in YYYYMMDD format")
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return errors.New("must be in YYYYMMDD format")
	}
	return nil
}

// ParseBool accepts "true" or "false" in any letter case.
func ParseBool(s string) (bool, error) {
	switch {
	case strings.EqualFold(s, "true"):
		return true, nil
	case strings.EqualFold(s, "false"):
		return false, nil
	}
	return false, errors.Errorf("must be true or false, got %q", s)
}

// LoadDotEnv loads variables from the .env file at path without overriding
// any that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "failed to load %s", path)
	}
	return nil
}

func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
