package store

import "fmt"

// Backend kinds accepted by OpenBackend.
const (
	KindSQLite = "sqlite"
	KindBolt   = "bolt"
	KindMemory = "memory"
)

// OpenBackend opens the backend of the given kind at path.
// The path is ignored for the memory backend.
func OpenBackend(kind, path string) (Backend, error) {
	switch kind {
	case KindSQLite, "":
		if err := EnsureDir(path); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		return Open(path)
	case KindBolt:
		if err := EnsureDir(path); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		return OpenBolt(path)
	case KindMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", kind)
	}
}
