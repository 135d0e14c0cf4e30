// Package extract wraps the yt-dlp binary behind the domain.Extractor
// interface and maps its diagnostics to user-facing messages.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const binaryName = "yt-dlp"

// YtDlp runs the yt-dlp binary as a child process. One successful call
// writes exactly one file to disk and reports its final path.
type YtDlp struct {
	logger *slog.Logger
}

// NewYtDlp creates the adapter.
func NewYtDlp(logger *slog.Logger) *YtDlp {
	return &YtDlp{logger: logger}
}

// CheckBinary reports whether yt-dlp is available in PATH.
func CheckBinary() error {
	if _, err := exec.LookPath(binaryName); err != nil {
		return fmt.Errorf("%s not found in PATH: %w", binaryName, err)
	}
	return nil
}

// Extract downloads the single video behind url into outputTemplate and
// returns the resolved file path. The engine prefers an mp4 container and
// falls back to the best available stream; playlists are restricted to one
// item; all engine console output is suppressed except the printed path.
//
// On failure the returned error carries the engine's stderr text verbatim.
// Callers must treat it as opaque and pass it through Classify.
func (y *YtDlp) Extract(ctx context.Context, url string, outputTemplate string) (string, error) {
	if url == "" {
		return "", errors.New("empty url")
	}

	args := []string{
		"-f", "best[ext=mp4]/best",
		"--no-playlist",
		"-q", "--no-warnings", "--no-progress",
		"-o", outputTemplate,
		"--print", "after_move:filepath",
		url,
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binaryName, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("download timed out: %w", ctx.Err())
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", errors.New(msg)
	}

	path := lastNonEmptyLine(stdout.String())
	if path == "" {
		// Older yt-dlp builds may not support after_move:filepath; fall back
		// to globbing the template's unique prefix.
		path = globTemplate(outputTemplate)
	}
	if path == "" {
		return "", errors.New("could not determine downloaded file path")
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("downloaded file not found: %w", err)
	}

	y.logger.Debug("extraction complete", "url", url, "path", path)
	return path, nil
}

// lastNonEmptyLine returns the final non-blank line of s. yt-dlp prints
// the file path last even if something else leaked to stdout.
func lastNonEmptyLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// globTemplate finds the produced file by the random prefix embedded in the
// output template (everything before the first engine placeholder).
func globTemplate(outputTemplate string) string {
	idx := strings.Index(outputTemplate, "%(")
	if idx <= 0 {
		return ""
	}
	matches, _ := filepath.Glob(outputTemplate[:idx] + "*")
	if len(matches) == 0 {
		return ""
	}
	return matches[0]
}
