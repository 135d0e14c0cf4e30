package extract

import (
	"strings"

	"github.com/RakhmaMed/Downloader-Bot/internal/domain"
)

// signInDisplay replaces the engine's verbose authentication errors, which
// vary by site and yt-dlp version.
const signInDisplay = "Content requires sign-in or is private."

// Classify maps raw engine diagnostics to a category and a display message.
// Only the high-frequency sign-in/private case is special-cased; everything
// else passes through verbatim. The error surface of yt-dlp is unbounded,
// so a precise taxonomy is not attempted.
func Classify(raw string) (domain.ErrorCategory, string) {
	if strings.Contains(strings.ToLower(raw), "sign in") {
		return domain.CategorySignIn, signInDisplay
	}
	return domain.CategoryGeneric, raw
}
