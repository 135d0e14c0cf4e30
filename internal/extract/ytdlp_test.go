package extract

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLastNonEmptyLine(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"single line", "/tmp/dl/abc_video.mp4", "/tmp/dl/abc_video.mp4"},
		{"trailing newline", "/tmp/dl/abc_video.mp4\n", "/tmp/dl/abc_video.mp4"},
		{"noise before path", "[download] done\n/tmp/dl/abc_video.mp4\n", "/tmp/dl/abc_video.mp4"},
		{"blank lines", "/tmp/dl/abc_video.mp4\n\n  \n", "/tmp/dl/abc_video.mp4"},
		{"empty", "", ""},
		{"whitespace only", "  \n \n", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := lastNonEmptyLine(tc.in); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestGlobTemplate(t *testing.T) {
	dir := t.TempDir()
	produced := filepath.Join(dir, "ab12cd34_Some Title.mp4")
	if err := os.WriteFile(produced, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tpl := filepath.Join(dir, "ab12cd34_%(title)s.%(ext)s")
	if got := globTemplate(tpl); got != produced {
		t.Fatalf("got %q, want %q", got, produced)
	}
}

func TestGlobTemplate_NoMatch(t *testing.T) {
	tpl := filepath.Join(t.TempDir(), "deadbeef_%(title)s.%(ext)s")
	if got := globTemplate(tpl); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestGlobTemplate_NoPlaceholder(t *testing.T) {
	if got := globTemplate("/tmp/plain.mp4"); got != "" {
		t.Fatalf("expected empty for template without placeholder, got %q", got)
	}
}
