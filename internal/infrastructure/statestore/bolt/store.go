// Package bolt persists the handful of filter scalars that survive
// restarts. Everything else the client holds is in-memory by design; the
// backend stays the source of truth.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/ilhamije/receipt-scanner/internal/core/domain"
	"github.com/ilhamije/receipt-scanner/internal/core/ports"
)

const (
	bucketName     = "client_state"
	savedFilterKey = "saved_filter"
)

type Store struct {
	db *bbolt.DB
}

var _ ports.SavedFilterStore = (*Store)(nil)

func New(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state bucket: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Save(_ context.Context, state domain.SavedFilter) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("marshaling saved filter: %w", err)
		}
		return tx.Bucket([]byte(bucketName)).Put([]byte(savedFilterKey), data)
	})
}

// Load returns the persisted scalars, or the zero value when nothing has
// been saved yet.
func (s *Store) Load(_ context.Context) (domain.SavedFilter, error) {
	var state domain.SavedFilter
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get([]byte(savedFilterKey))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &state)
	})
	if err != nil {
		return domain.SavedFilter{}, fmt.Errorf("loading saved filter: %w", err)
	}
	return state, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
