package store

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by backends after Close.
var ErrClosed = errors.New("store closed")

// SampleRecord is one answered question as kept in the sample log.
type SampleRecord struct {
	Category   string
	Difficulty int
	Correct    bool
	ReactionMs float64
	RecordedAt time.Time
}

// StateRepo persists one opaque document per key.
type StateRepo interface {
	// Load returns the stored document, or nil if none exists.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save replaces the document stored under key.
	Save(ctx context.Context, key string, doc []byte) error

	// Delete removes the document. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// SampleLog is an append-only history of answered questions per key.
type SampleLog interface {
	AppendSample(ctx context.Context, key string, rec SampleRecord) error

	// RecentSamples returns up to limit records, newest first.
	RecentSamples(ctx context.Context, key string, limit int) ([]SampleRecord, error)

	CountSamples(ctx context.Context, key string) (int, error)
}

// Backend is a complete storage backend.
type Backend interface {
	StateRepo
	SampleLog
	Close() error
}
