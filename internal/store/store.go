package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store is the SQLite backend. Queries are built with the ent SQL builder
// and tables are managed by the ent schema migrator.
type Store struct {
	db     *sql.DB
	drv    *entsql.Driver
	closed atomic.Bool
}

var _ Backend = (*Store)(nil)

// Open creates a new Store connected to the SQLite database at dsn.
// It applies recommended pragmas and runs auto-migration.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	drv := entsql.OpenDB(dialect.SQLite, db)
	m, err := schema.NewMigrate(drv)
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Create(context.Background(), tables...); err != nil {
		drv.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	return &Store{db: db, drv: drv}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.closed.Store(true)
	return s.drv.Close()
}

// wrap annotates err with op. database/sql does not export its
// closed-database error, so a closed Store is reported as ErrClosed.
func (s *Store) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if s.closed.Load() || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%s: %w", op, ErrClosed)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Store) builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	query, args := s.builder().
		Select("document").
		From(entsql.Table(tableEstimatorState)).
		Where(entsql.EQ("key", key)).
		Query()

	var doc []byte
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, s.wrap(fmt.Sprintf("load state %q", key), err)
	}
	return doc, nil
}

func (s *Store) Save(ctx context.Context, key string, doc []byte) error {
	query, args := s.builder().
		Insert(tableEstimatorState).
		Columns("key", "document", "updated_at").
		Values(key, doc, time.Now().UTC()).
		OnConflict(
			entsql.ConflictColumns("key"),
			entsql.ResolveWithNewValues(),
		).
		Query()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return s.wrap(fmt.Sprintf("save state %q", key), err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	query, args := s.builder().
		Delete(tableEstimatorState).
		Where(entsql.EQ("key", key)).
		Query()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return s.wrap(fmt.Sprintf("delete state %q", key), err)
	}
	return nil
}

func (s *Store) AppendSample(ctx context.Context, key string, rec SampleRecord) error {
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now()
	}
	query, args := s.builder().
		Insert(tableAnswerSamples).
		Columns("learner_key", "category", "difficulty", "correct", "reaction_ms", "recorded_at").
		Values(key, rec.Category, rec.Difficulty, rec.Correct, rec.ReactionMs, rec.RecordedAt.UTC()).
		Query()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return s.wrap("append sample", err)
	}
	return nil
}

func (s *Store) RecentSamples(ctx context.Context, key string, limit int) ([]SampleRecord, error) {
	sel := s.builder().
		Select("category", "difficulty", "correct", "reaction_ms", "recorded_at").
		From(entsql.Table(tableAnswerSamples)).
		Where(entsql.EQ("learner_key", key)).
		OrderBy(entsql.Desc("id"))
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	query, args := sel.Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.wrap("query samples", err)
	}
	defer rows.Close()

	var out []SampleRecord
	for rows.Next() {
		var rec SampleRecord
		if err := rows.Scan(&rec.Category, &rec.Difficulty, &rec.Correct, &rec.ReactionMs, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}
	return out, nil
}

func (s *Store) CountSamples(ctx context.Context, key string) (int, error) {
	query, args := s.builder().
		Select(entsql.Count("*")).
		From(entsql.Table(tableAnswerSamples)).
		Where(entsql.EQ("learner_key", key)).
		Query()

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, s.wrap("count samples", err)
	}
	return n, nil
}

// applyPragmas configures SQLite for optimal single-user performance.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. LERNI_DB environment variable
// 2. $XDG_DATA_HOME/lerni/lerni.db
// 3. ~/.local/share/lerni/lerni.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("LERNI_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "lerni", "lerni.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
