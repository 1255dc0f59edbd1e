package osfilesystem

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSystem_ReadFile(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("ftyp"), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "ftyp" {
		t.Errorf("expected %q, got %q", "ftyp", data)
	}
}

func TestFileSystem_ReadFileMissing(t *testing.T) {
	fs := New()
	if _, err := fs.ReadFile(filepath.Join(t.TempDir(), "missing.mp4")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFileSystem_MkdirAllAndExists(t *testing.T) {
	fs := New()
	dir := filepath.Join(t.TempDir(), "out", "clips")

	exists, err := fs.Exists(dir)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Fatal("directory should not exist yet")
	}

	if err := fs.MkdirAll(dir); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	exists, err = fs.Exists(dir)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("directory should exist after MkdirAll")
	}
}

func TestFileSystem_Remove(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "stale.mp4")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := fs.Remove(path); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	exists, _ := fs.Exists(path)
	if exists {
		t.Error("file should be gone after Remove")
	}
}

func TestFileSystem_WriteFile(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "summary.md")

	if err := fs.WriteFile(path, []byte("# Render Summary")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "# Render Summary" {
		t.Errorf("unexpected contents %q", data)
	}
}

func TestFileSystem_Size(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := fs.WriteFile(path, make([]byte, 1234)); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	size, err := fs.Size(path)
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	if size != 1234 {
		t.Errorf("expected 1234, got %d", size)
	}
	if _, err := fs.Size(path + ".missing"); err == nil {
		t.Error("expected error for missing file")
	}
}
