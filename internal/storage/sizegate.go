package storage

import "fmt"

// MaxVideoBytes is the Telegram Bot API ceiling for video uploads. Files
// above it would make sendVideo fail, so they are rejected before any
// upload is attempted.
const MaxVideoBytes = 50 * 1024 * 1024

// WithinLimit reports whether a file of the given size may be uploaded.
// The boundary itself is accepted; only strictly larger files are rejected.
func WithinLimit(size int64) bool {
	return size <= MaxVideoBytes
}

// TooLargeMessage is the user-facing rejection text for an oversized file.
func TooLargeMessage(size int64) string {
	return fmt.Sprintf("File is too large (%.1f MB). Bot API limit is 50MB.", float64(size)/(1024*1024))
}
