package adaptive

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cli-senpei/Lerni-sub000/internal/store"
)

func TestPersister_ClosedStoreIsNotRetried(t *testing.T) {
	ctx := context.Background()
	db, err := store.Open(filepath.Join(t.TempDir(), "lerni.db"))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	repo := &flakyRepo{StateRepo: db}
	p := fastPersister(repo)

	err = p.Save(ctx, "rules/kid-1", []byte("{}"))
	require.ErrorIs(t, err, store.ErrClosed)
	assert.Equal(t, 1, repo.saves)
}

func TestPersister_RetriesTransientFailures(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	repo := &flakyRepo{StateRepo: mem, failures: 2}

	require.NoError(t, fastPersister(repo).Save(ctx, "rules/kid-1", []byte("{}")))
	assert.Equal(t, 3, repo.saves)

	got, err := mem.Load(ctx, "rules/kid-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), got)
}
