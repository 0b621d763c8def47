package cmd

import (
	"context"
	"fmt"

	"github.com/cli-senpei/Lerni-sub000/internal/adaptive"
	"github.com/cli-senpei/Lerni-sub000/internal/store"
)

// app is one learner's open session plus the backend behind it.
type app struct {
	backend store.Backend
	session *adaptive.Session
}

// openApp opens storage, resolves the learner and restores its estimator.
func openApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg := opts.cfg

	path, err := cfg.StoragePath()
	if err != nil {
		return nil, fmt.Errorf("resolve storage path: %w", err)
	}
	backend, err := store.OpenBackend(cfg.Storage.Backend, path)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	learnerID := cfg.Learner.ID
	if learnerID == "" {
		learnerID, err = store.DeviceID(ctx, backend)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	est, err := adaptive.New(cfg.AdaptiveConfig(), opts.logger)
	if err != nil {
		backend.Close()
		return nil, err
	}

	persister := adaptive.NewPersister(backend, opts.logger)
	session := adaptive.LoadOrInit(ctx, est, persister, backend, learnerID, opts.logger)
	return &app{backend: backend, session: session}, nil
}

func (a *app) Close() error {
	return a.backend.Close()
}
