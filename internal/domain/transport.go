package domain

import "context"

// Transport is the outbound surface of the messaging platform. The
// controller depends on this interface only, so tests can swap in a fake
// and the polling/webhook distinction stays out of the core.
type Transport interface {
	// SendText posts a new message and returns a reference for later edits.
	SendText(ctx context.Context, chatID string, text string) (MessageRef, error)
	// EditText replaces the text of a previously sent message in place.
	EditText(ctx context.Context, ref MessageRef, text string) error
	// DeleteMessage removes a previously sent message.
	DeleteMessage(ctx context.Context, ref MessageRef) error
	// SendVideo uploads the file at path as a video attachment.
	SendVideo(ctx context.Context, chatID string, path string) error
}
