package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket keys
var (
	bucketState   = []byte("state")
	bucketSamples = []byte("samples")
)

// BoltStore is the bbolt backend. State documents live in the "state"
// bucket keyed by learner key; each learner's samples live in a nested
// bucket under "samples" keyed by a big-endian sequence number.
type BoltStore struct {
	db *bolt.DB
}

var _ Backend = (*BoltStore)(nil)

// boltSample is the JSON form of a SampleRecord inside bbolt.
type boltSample struct {
	Category   string    `json:"category"`
	Difficulty int       `json:"difficulty"`
	Correct    bool      `json:"correct"`
	ReactionMs float64   `json:"reaction_ms"`
	RecordedAt time.Time `json:"recorded_at"`
}

// OpenBolt opens (or creates) a bbolt database at the given path.
func OpenBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketState); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketSamples)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("bbolt init buckets: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Close closes the underlying bbolt database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) Load(_ context.Context, key string) ([]byte, error) {
	var doc []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketState)
		if b == nil {
			return nil
		}
		// Copy bytes out of the transaction (bbolt slices are only valid within tx)
		if v := b.Get([]byte(key)); v != nil {
			doc = make([]byte, len(v))
			copy(doc, v)
		}
		return nil
	})
	if err != nil {
		return nil, s.wrap("load state", err)
	}
	return doc, nil
}

func (s *BoltStore) Save(_ context.Context, key string, doc []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketState)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), doc)
	})
	return s.wrap("save state", err)
}

func (s *BoltStore) Delete(_ context.Context, key string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketState)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
	return s.wrap("delete state", err)
}

func (s *BoltStore) AppendSample(_ context.Context, key string, rec SampleRecord) error {
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now()
	}
	val, err := json.Marshal(boltSample{
		Category:   rec.Category,
		Difficulty: rec.Difficulty,
		Correct:    rec.Correct,
		ReactionMs: rec.ReactionMs,
		RecordedAt: rec.RecordedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal sample: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		root, err := tx.CreateBucketIfNotExists(bucketSamples)
		if err != nil {
			return err
		}
		b, err := root.CreateBucketIfNotExists([]byte(key))
		if err != nil {
			return err
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(sequenceKey(seq), val)
	})
	return s.wrap("append sample", err)
}

func (s *BoltStore) RecentSamples(_ context.Context, key string, limit int) ([]SampleRecord, error) {
	var out []SampleRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		b := learnerSamples(tx, key)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(out) >= limit {
				break
			}
			var bs boltSample
			if err := json.Unmarshal(v, &bs); err != nil {
				return fmt.Errorf("unmarshal sample %d: %w", binary.BigEndian.Uint64(k), err)
			}
			out = append(out, SampleRecord(bs))
		}
		return nil
	})
	if err != nil {
		return nil, s.wrap("query samples", err)
	}
	return out, nil
}

func (s *BoltStore) CountSamples(_ context.Context, key string) (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		if b := learnerSamples(tx, key); b != nil {
			n = b.Stats().KeyN
		}
		return nil
	})
	if err != nil {
		return 0, s.wrap("count samples", err)
	}
	return n, nil
}

func (s *BoltStore) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return fmt.Errorf("%s: %w", op, ErrClosed)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func learnerSamples(tx *bolt.Tx, key string) *bolt.Bucket {
	root := tx.Bucket(bucketSamples)
	if root == nil {
		return nil
	}
	return root.Bucket([]byte(key))
}

func sequenceKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}
