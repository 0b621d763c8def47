package adaptive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/avast/retry-go"

	"github.com/cli-senpei/Lerni-sub000/internal/store"
)

// Persister serializes writes of estimator documents and retries
// transient storage failures.
type Persister struct {
	mu     sync.Mutex
	repo   store.StateRepo
	logger *slog.Logger

	attempts uint
	delay    time.Duration
}

// NewPersister wraps repo. A nil logger uses slog.Default().
func NewPersister(repo store.StateRepo, logger *slog.Logger) *Persister {
	if logger == nil {
		logger = slog.Default()
	}
	return &Persister{
		repo:     repo,
		logger:   logger,
		attempts: 3,
		delay:    50 * time.Millisecond,
	}
}

// Save writes doc under key, retrying transient failures.
func (p *Persister) Save(ctx context.Context, key string, doc []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return retry.Do(
		func() error {
			err := p.repo.Save(ctx, key, doc)
			if errors.Is(err, store.ErrClosed) {
				return retry.Unrecoverable(err)
			}
			return err
		},
		retry.Context(ctx),
		retry.Attempts(p.attempts),
		retry.Delay(p.delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			p.logger.Debug("persist: retrying save",
				slog.String("key", key),
				slog.Uint64("attempt", uint64(n+1)),
				slog.Any("error", err),
			)
		}),
	)
}

// Load reads the document stored under key, or nil if there is none.
func (p *Persister) Load(ctx context.Context, key string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.repo.Load(ctx, key)
}

// Delete removes the document stored under key.
func (p *Persister) Delete(ctx context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.repo.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// StateKey scopes a persisted document to one variant and learner.
func StateKey(variant, learnerID string) string {
	return variant + "/" + learnerID
}
