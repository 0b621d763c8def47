package adaptive

import (
	"context"
	"log/slog"
	"sync"

	"github.com/cli-senpei/Lerni-sub000/internal/store"
)

// Session binds one learner's estimator to durable storage. It is what a
// game calls after every answered question. No method returns an error
// that the game needs to handle except Reset, whose in-memory effect
// happens regardless.
type Session struct {
	mu        sync.Mutex
	est       Estimator
	persister *Persister
	samples   store.SampleLog
	learnerID string
	key       string
	logger    *slog.Logger
}

// LoadOrInit restores the learner's estimator from storage, falling back
// to a fresh state when nothing is stored or the document is unusable.
// samples may be nil.
func LoadOrInit(ctx context.Context, est Estimator, persister *Persister, samples store.SampleLog, learnerID string, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		est:       est,
		persister: persister,
		samples:   samples,
		learnerID: learnerID,
		key:       StateKey(est.Variant(), learnerID),
		logger:    logger.With(slog.String("key", StateKey(est.Variant(), learnerID))),
	}

	est.Reset()
	raw, err := persister.Load(ctx, s.key)
	switch {
	case err != nil:
		s.logger.Warn("session: cannot load state, starting fresh", slog.Any("error", err))
	case raw == nil:
		s.logger.Debug("session: no stored state, starting fresh")
	default:
		if err := est.UnmarshalState(raw); err != nil {
			s.logger.Warn("session: discarding unusable state", slog.Any("error", err))
			est.Reset()
		}
	}
	return s
}

// RecordPerformance folds one sample into the estimator and persists the
// result. Storage failures are logged and the in-memory state is kept.
func (s *Session) RecordPerformance(ctx context.Context, sample Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sample = sample.Normalize()
	s.est.Record(sample)
	s.persistLocked(ctx)

	if s.samples == nil {
		return
	}
	err := s.samples.AppendSample(ctx, s.learnerID, store.SampleRecord{
		Category:   sample.Category,
		Difficulty: sample.Difficulty,
		Correct:    sample.Correct,
		ReactionMs: sample.ReactionMs,
	})
	if err != nil {
		s.logger.Warn("session: cannot append sample log", slog.Any("error", err))
	}
}

// GetRecommendation returns the next question's difficulty and focus.
func (s *Session) GetRecommendation(q Query) Prediction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.est.Recommend(q)
}

// Reset discards stored state and returns the estimator to its fresh
// state. The returned error only reports the storage delete.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.est.Reset()
	if err := s.persister.Delete(ctx, s.key); err != nil {
		s.logger.Warn("session: cannot delete stored state", slog.Any("error", err))
		return err
	}
	return nil
}

// State returns a read-only view of the estimator.
func (s *Session) State() StateView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.est.State()
}

// Key is the storage key of this session's document.
func (s *Session) Key() string {
	return s.key
}

// LearnerID is the learner this session belongs to.
func (s *Session) LearnerID() string {
	return s.learnerID
}

func (s *Session) persistLocked(ctx context.Context) {
	doc, err := s.est.MarshalState()
	if err != nil {
		s.logger.Warn("session: cannot encode state", slog.Any("error", err))
		return
	}
	if err := s.persister.Save(ctx, s.key, doc); err != nil {
		s.logger.Warn("session: cannot persist state", slog.Any("error", err))
	}
}
