package domain

import (
	"context"
	"time"
)

// Outcome is the terminal state of one handled request.
type Outcome string

const (
	OutcomeDelivered Outcome = "delivered"
	OutcomeTooLarge  Outcome = "too_large"
	OutcomeFailed    Outcome = "failed"
)

// RequestRecord is the persisted summary of one completed request.
type RequestRecord struct {
	ID        int64
	URL       string
	ChatID    string
	Outcome   Outcome
	Bytes     int64
	Error     string
	Duration  time.Duration
	CreatedAt time.Time
}

// HistoryStore records request outcomes for the stats command. Implementations
// must be safe for concurrent use; the controller calls Record from multiple
// request goroutines.
type HistoryStore interface {
	Record(ctx context.Context, rec RequestRecord) error
	Recent(ctx context.Context, limit int) ([]RequestRecord, error)
	Summary(ctx context.Context) (map[Outcome]int64, error)
	Close() error
}
