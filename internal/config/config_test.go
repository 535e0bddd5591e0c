package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/flowercount/internal/imaging"
	"github.com/pkg/errors"
)

func TestParseArgs(t *testing.T) {
	c := Default()
	err := c.ParseArgs([]string{"/photos", "20240315", "model.onnx", "TRUE", "false"})
	if err != nil {
		t.Fatalf("ParseArgs failed: %v", err)
	}
	if c.Folder != "/photos" || c.Date != "20240315" || c.ModelPath != "model.onnx" {
		t.Errorf("positional fields: got %q %q %q", c.Folder, c.Date, c.ModelPath)
	}
	if !c.OutputBBox || c.Rename {
		t.Errorf("flags: got output_bbox=%v rename=%v, want true false", c.OutputBBox, c.Rename)
	}
	if c.ResultsDir() != filepath.Join("/photos", "results") {
		t.Errorf("ResultsDir: got %s", c.ResultsDir())
	}
}

func TestParseArgs_Errors(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		field string
	}{
		{"too few", []string{"/photos", "20240315"}, "arguments"},
		{"too many", []string{"a", "20240315", "m", "true", "true", "x"}, "arguments"},
		{"bad date", []string{"/photos", "2024-03-15", "m", "true", "true"}, "date"},
		{"impossible date", []string{"/photos", "20240231", "m", "true", "true"}, "date"},
		{"bad bbox", []string{"/photos", "20240315", "m", "yes", "true"}, "output_bbox"},
		{"bad rename", []string{"/photos", "20240315", "m", "true", "1"}, "rename"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Default().ParseArgs(tt.args)
			var cfgErr *Error
			if !errors.As(err, &cfgErr) {
				t.Fatalf("got %v, want *Error", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("field: got %s, want %s", cfgErr.Field, tt.field)
			}
		})
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{"true", true, false},
		{"True", true, false},
		{"FALSE", false, false},
		{"false", false, false},
		{"1", false, true},
		{"", false, true},
		{"yes", false, true},
	}
	for _, tt := range tests {
		got, err := ParseBool(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseBool(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseBool(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidateDate(t *testing.T) {
	for _, s := range []string{"20240315", "20240229", "19991231"} {
		if err := ValidateDate(s); err != nil {
			t.Errorf("ValidateDate(%q) failed: %v", s, err)
		}
	}
	for _, s := range []string{"", "2024315", "20231301", "20230229", "2024031a", "202403150"} {
		if err := ValidateDate(s); err == nil {
			t.Errorf("ValidateDate(%q) should fail", s)
		}
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "model.onnx")
	if err := os.WriteFile(model, []byte("onnx"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := Default()
	c.Folder = dir
	c.ModelPath = model
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"missing folder", func(c *Config) { c.Folder = filepath.Join(dir, "nope") }, "folder_path"},
		{"folder is file", func(c *Config) { c.Folder = model }, "folder_path"},
		{"missing model", func(c *Config) { c.ModelPath = filepath.Join(dir, "nope.onnx") }, "model_path"},
		{"model is dir", func(c *Config) { c.ModelPath = dir }, "model_path"},
		{"conf out of range", func(c *Config) { c.Confidence = 1.5 }, "conf"},
		{"iou zero", func(c *Config) { c.IoU = 0 }, "iou"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			c.Folder = dir
			c.ModelPath = model
			tt.mutate(c)

			var cfgErr *Error
			if err := c.Validate(); !errors.As(err, &cfgErr) || cfgErr.Field != tt.field {
				t.Errorf("got %v, want *Error for %s", err, tt.field)
			}
		})
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv(EnvJPEGQuality, "80")
	t.Setenv(EnvBoxColor, "00ff00")
	t.Setenv(EnvLabelColor, "#000000")
	t.Setenv(EnvLogLevel, "DEBUG")

	c := Default()
	if err := c.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv failed: %v", err)
	}
	if c.JPEGQuality != 80 {
		t.Errorf("JPEGQuality: got %d, want 80", c.JPEGQuality)
	}
	if got := imaging.HexString(c.Style.BoxColor); got != "#00FF00" {
		t.Errorf("BoxColor: got %s, want #00FF00", got)
	}
	if got := imaging.HexString(c.Style.LabelColor); got != "#000000" {
		t.Errorf("LabelColor: got %s, want #000000", got)
	}
	if !c.Debug {
		t.Error("Debug should be enabled")
	}
}

func TestLoadEnv_Defaults(t *testing.T) {
	t.Setenv(EnvJPEGQuality, "")
	t.Setenv(EnvBoxColor, "")
	t.Setenv(EnvLabelColor, "")
	t.Setenv(EnvLogLevel, "")

	c := Default()
	if err := c.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv failed: %v", err)
	}
	if c.JPEGQuality != imaging.DefaultJPEGQuality || c.Debug {
		t.Errorf("unexpected config: quality %d debug %v", c.JPEGQuality, c.Debug)
	}
}

func TestLoadEnv_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{EnvJPEGQuality, "0"},
		{EnvJPEGQuality, "high"},
		{EnvBoxColor, "notacolor"},
		{EnvLabelColor, "#12"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			var cfgErr *Error
			if err := Default().LoadEnv(); !errors.As(err, &cfgErr) || cfgErr.Field != tt.key {
				t.Errorf("got %v, want *Error for %s", err, tt.key)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "FLOWERCOUNT_TEST_A=from-file\nFLOWERCOUNT_TEST_B=from-file\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("FLOWERCOUNT_TEST_B", "preset")
	// Registers cleanup so the variable loaded from the file does not leak.
	t.Setenv("FLOWERCOUNT_TEST_A", "")
	os.Unsetenv("FLOWERCOUNT_TEST_A")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if got := os.Getenv("FLOWERCOUNT_TEST_A"); got != "from-file" {
		t.Errorf("FLOWERCOUNT_TEST_A: got %q, want from-file", got)
	}
	if got := os.Getenv("FLOWERCOUNT_TEST_B"); got != "preset" {
		t.Errorf("FLOWERCOUNT_TEST_B: got %q, want preset (no override)", got)
	}
}

func TestLoadDotEnv_Missing(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("missing .env should be ignored, got %v", err)
	}
}
