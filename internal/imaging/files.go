package imaging

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// imageExts lists the extensions, lower-cased, that the pipeline treats as
// detectable images.
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Asset is an image file discovered in a directory.
type Asset struct {
	// Path is the full path to the file.
	Path string

	// Name is the base file name, used as the image identifier in reports.
	Name string

	// Ext is the extension exactly as spelled on disk, including the dot.
	Ext string
}

// HasExt reports whether name ends in one of exts, ignoring case.
// Each entry in exts must include the leading dot.
func HasExt(name string, exts ...string) bool {
	ext := filepath.Ext(name)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// IsImageFile reports whether name has a recognized image extension.
func IsImageFile(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

// ListImages returns the image files directly inside dir, sorted by name.
//
// Subdirectories are never descended into and entries that are not regular
// files are skipped, so a results folder living inside dir is ignored.
func ListImages(dir string) ([]Asset, error) {
	return ListFiles(dir, IsImageFile)
}

// ListFiles returns the regular files directly inside dir whose names satisfy
// match, sorted by name.
func ListFiles(dir string, match func(name string) bool) ([]Asset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read directory %s", dir)
	}

	assets := make([]Asset, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !isRegular(dir, entry) {
			continue
		}
		if !match(name) {
			continue
		}
		assets = append(assets, Asset{
			Path: filepath.Join(dir, name),
			Name: name,
			Ext:  filepath.Ext(name),
		})
	}

	sort.Slice(assets, func(i, j int) bool {
		return assets[i].Name < assets[j].Name
	})

	return assets, nil
}

// isRegular follows symlinks so linked photos are listed like plain files.
func isRegular(dir string, entry os.DirEntry) bool {
	if entry.Type()&os.ModeSymlink == 0 {
		return entry.Type().IsRegular()
	}
	info, err := os.Stat(filepath.Join(dir, entry.Name()))
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
