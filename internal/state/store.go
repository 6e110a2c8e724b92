package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketApp = []byte("app")
	keyState  = []byte("state")
)

// Store persists state snapshots in a bbolt file under the app home. The
// stored encoding is plain JSON; determinism comes from AppHash's normalized
// view, not from the snapshot bytes.
type Store struct {
	db *bolt.DB
}

func Open(home string) (*Store, error) {
	if err := os.MkdirAll(home, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir home: %w", err)
	}
	db, err := bolt.Open(filepath.Join(home, "state.db"), 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketApp)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init state db: %w", err)
	}
	return &Store{db: db}, nil
}

// Load returns the latest saved state, or a fresh state when none was saved.
func (st *Store) Load() (*State, error) {
	var raw []byte
	err := st.db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket(bucketApp).Get(keyState); b != nil {
			raw = append([]byte(nil), b...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	if raw == nil {
		return NewState(), nil
	}
	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return normalize(&s), nil
}

func (st *Store) Save(s *State) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	err = st.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketApp).Put(keyState, b)
	})
	if err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

func (st *Store) Close() error {
	return st.db.Close()
}
