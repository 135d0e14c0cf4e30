package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPreparePathTemplate_Shape(t *testing.T) {
	s := NewSteward(t.TempDir())

	tpl, err := s.PreparePathTemplate()
	if err != nil {
		t.Fatal(err)
	}

	base := filepath.Base(tpl)
	if !strings.HasSuffix(base, "_%(title)s.%(ext)s") {
		t.Fatalf("template missing engine placeholders: %s", base)
	}
	id := strings.SplitN(base, "_", 2)[0]
	if len(id) != 8 {
		t.Fatalf("expected 8-char prefix, got %q", id)
	}
}

func TestPreparePathTemplate_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "downloads")
	s := NewSteward(dir)

	if _, err := s.PreparePathTemplate(); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("downloads dir not created: %v", err)
	}

	// Idempotent when the directory already exists.
	if _, err := s.PreparePathTemplate(); err != nil {
		t.Fatalf("second call should tolerate existing dir: %v", err)
	}
}

func TestPreparePathTemplate_UniqueAcrossCalls(t *testing.T) {
	s := NewSteward(t.TempDir())

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		tpl, err := s.PreparePathTemplate()
		if err != nil {
			t.Fatal(err)
		}
		if seen[tpl] {
			t.Fatalf("duplicate template: %s", tpl)
		}
		seen[tpl] = true
	}
}

func TestCleanup_RemovesFile(t *testing.T) {
	s := NewSteward(t.TempDir())
	path := filepath.Join(s.Dir(), "video.mp4")
	if err := os.MkdirAll(s.Dir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := s.Cleanup(path); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("file should be removed")
	}
}

func TestCleanup_Idempotent(t *testing.T) {
	s := NewSteward(t.TempDir())
	path := filepath.Join(s.Dir(), "gone.mp4")

	if err := s.Cleanup(path); err != nil {
		t.Fatalf("cleanup of absent file should be a no-op: %v", err)
	}
	if err := s.Cleanup(path); err != nil {
		t.Fatalf("second cleanup should also be a no-op: %v", err)
	}
}

func TestCleanup_EmptyPath(t *testing.T) {
	s := NewSteward(t.TempDir())
	if err := s.Cleanup(""); err != nil {
		t.Fatalf("empty path should be a no-op: %v", err)
	}
}

func TestFileSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")
	if err := os.WriteFile(path, make([]byte, 1234), 0o644); err != nil {
		t.Fatal(err)
	}

	size, err := FileSize(path)
	if err != nil {
		t.Fatal(err)
	}
	if size != 1234 {
		t.Fatalf("expected 1234, got %d", size)
	}

	if _, err := FileSize(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

// --- size gate ---

func TestWithinLimit(t *testing.T) {
	cases := []struct {
		name string
		size int64
		want bool
	}{
		{"zero", 0, true},
		{"small", 10 * 1024 * 1024, true},
		{"exactly at limit", MaxVideoBytes, true},
		{"one over", MaxVideoBytes + 1, false},
		{"far over", 200 * 1024 * 1024, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := WithinLimit(tc.size); got != tc.want {
				t.Fatalf("WithinLimit(%d) = %v, want %v", tc.size, got, tc.want)
			}
		})
	}
}

func TestTooLargeMessage(t *testing.T) {
	msg := TooLargeMessage(60 * 1024 * 1024)
	if msg != "File is too large (60.0 MB). Bot API limit is 50MB." {
		t.Fatalf("unexpected message: %s", msg)
	}
}
