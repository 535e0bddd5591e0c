package imaging

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to create %s: %v", name, err)
	}
}

func TestIsImageFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"a.jpg", true},
		{"a.JPG", true},
		{"a.jpeg", true},
		{"a.Jpeg", true},
		{"a.png", true},
		{"a.PNG", true},
		{"a.heic", false},
		{"labels.txt", false},
		{"jpg", false},
		{".hidden", false},
	}

	for _, tt := range tests {
		if got := IsImageFile(tt.name); got != tt.want {
			t.Errorf("IsImageFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestHasExt(t *testing.T) {
	if !HasExt("IMG_1.HEIC", ".heic", ".heif") {
		t.Error("HasExt should match .HEIC case-insensitively")
	}
	if HasExt("IMG_1.jpg", ".heic", ".heif") {
		t.Error("HasExt should not match .jpg against heic extensions")
	}
	if HasExt("IMG_1", ".heic") {
		t.Error("HasExt should not match a name without extension")
	}
}

func TestListImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"c.png", "a.JPG", "b.jpeg", "notes.txt", "d.heic"} {
		touch(t, dir, name)
	}
	if err := os.Mkdir(filepath.Join(dir, "results"), 0o755); err != nil {
		t.Fatalf("failed to create subdir: %v", err)
	}
	touch(t, filepath.Join(dir, "results"), "output_a.JPG")

	assets, err := ListImages(dir)
	if err != nil {
		t.Fatalf("ListImages failed: %v", err)
	}

	want := []string{"a.JPG", "b.jpeg", "c.png"}
	if len(assets) != len(want) {
		t.Fatalf("ListImages returned %d assets, want %d", len(assets), len(want))
	}
	for i, a := range assets {
		if a.Name != want[i] {
			t.Errorf("asset %d: got %s, want %s", i, a.Name, want[i])
		}
		if a.Path != filepath.Join(dir, want[i]) {
			t.Errorf("asset %d path: got %s", i, a.Path)
		}
	}
	if assets[0].Ext != ".JPG" {
		t.Errorf("Ext should keep on-disk spelling: got %s, want .JPG", assets[0].Ext)
	}
}

func TestListImages_FollowsSymlinks(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()
	touch(t, other, "real.jpg")
	if err := os.Symlink(filepath.Join(other, "real.jpg"), filepath.Join(dir, "link.jpg")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if err := os.Symlink(other, filepath.Join(dir, "dir.jpg")); err != nil {
		t.Fatalf("failed to link directory: %v", err)
	}

	assets, err := ListImages(dir)
	if err != nil {
		t.Fatalf("ListImages failed: %v", err)
	}
	if len(assets) != 1 || assets[0].Name != "link.jpg" {
		t.Errorf("expected only link.jpg, got %+v", assets)
	}
}

func TestListImages_MissingDir(t *testing.T) {
	_, err := ListImages(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("ListImages should fail for a missing directory")
	}
}

func TestListImages_Empty(t *testing.T) {
	assets, err := ListImages(t.TempDir())
	if err != nil {
		t.Fatalf("ListImages failed: %v", err)
	}
	if len(assets) != 0 {
		t.Errorf("expected no assets, got %d", len(assets))
	}
}
