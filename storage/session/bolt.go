// Package boltsession persists the client session in a bbolt file.
package boltsession

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"github.com/trezcool/coursework/core/session"
)

var (
	bucketName = []byte("session")
	currentKey = []byte("current")
)

// Store is a session.Store backed by a bbolt file.
type Store struct {
	db *bbolt.DB
}

var _ session.Store = (*Store)(nil) // interface compliance check

func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("session file path is required")
	}
	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "opening session file")
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "creating session bucket")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Load() (*session.Identity, error) {
	var id *session.Identity
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketName).Get(currentKey)
		if data == nil {
			return nil
		}
		id = new(session.Identity)
		return json.Unmarshal(data, id)
	})
	if err != nil {
		return nil, errors.Wrap(err, "loading session")
	}
	return id, nil
}

func (s *Store) Save(id session.Identity) error {
	data, err := json.Marshal(id)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put(currentKey, data)
	})
}

func (s *Store) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Delete(currentKey)
	})
}
