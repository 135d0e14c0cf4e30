package domain

import "context"

// Extractor resolves a video URL to a local file. The implementation wraps
// an external engine (yt-dlp); the controller treats it as a black box that
// either produces exactly one file or fails with opaque diagnostic text.
type Extractor interface {
	// Extract downloads the single item behind url using outputTemplate as
	// the engine's output path template and returns the final resolved path.
	// The returned path is authoritative: the engine may sanitize titles, so
	// callers must not try to predict it from the template.
	Extract(ctx context.Context, url string, outputTemplate string) (string, error)
}

// ErrorCategory classifies extraction failures for user-facing messaging.
type ErrorCategory string

const (
	// CategorySignIn marks content that needs authentication or is private.
	CategorySignIn ErrorCategory = "sign_in_required"
	// CategoryGeneric covers everything else; the raw engine text is shown.
	CategoryGeneric ErrorCategory = "generic"
)
