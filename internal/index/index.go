package index

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	sessionsBucket = []byte("sessions") // id -> Summary JSON, all non-secret
	configBucket   = []byte("config")   // index format bookkeeping
)

var configVersion = []byte("version")

// Summary is the unencrypted listing record for one session. It carries only
// information that is visible on the filesystem anyway: the id and
// timestamps. Names, status and findings live in the encrypted metadata.
type Summary struct {
	ID      string    `json:"id"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// Index is the bbolt-backed session listing at the store root. It exists so
// List never has to stat or decrypt anything inside session directories.
type Index struct {
	db *bolt.DB
}

// Open opens or creates the index database and ensures its buckets exist.
func Open(path string) (*Index, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{sessionsBucket, configBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return tx.Bucket(configBucket).Put(configVersion, []byte("1"))
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Index{db: db}, nil
}

// Close closes the database.
func (x *Index) Close() error {
	return x.db.Close()
}

// Put inserts or replaces the summary for a session.
func (x *Index) Put(s Summary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	return x.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).Put([]byte(s.ID), data)
	})
}

// Touch updates the session's updated timestamp, creating the row if the
// index predates the session directory.
func (x *Index) Touch(id string, updated time.Time) error {
	return x.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(sessionsBucket)
		s := Summary{ID: id, Created: updated, Updated: updated}
		if data := bucket.Get([]byte(id)); data != nil {
			if err := json.Unmarshal(data, &s); err == nil {
				s.Updated = updated
			}
		}
		data, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("failed to marshal summary: %w", err)
		}
		return bucket.Put([]byte(id), data)
	})
}

// Get returns the summary for id, or nil if the index has no row for it.
func (x *Index) Get(id string) (*Summary, error) {
	var s *Summary
	err := x.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(sessionsBucket).Get([]byte(id))
		if data == nil {
			return nil
		}
		s = &Summary{}
		return json.Unmarshal(data, s)
	})
	return s, err
}

// Remove deletes the row for id. Removing an absent row is not an error.
func (x *Index) Remove(id string) error {
	return x.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).Delete([]byte(id))
	})
}

// All returns every summary in key order.
func (x *Index) All() ([]Summary, error) {
	var summaries []Summary
	err := x.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).ForEach(func(k, v []byte) error {
			var s Summary
			if err := json.Unmarshal(v, &s); err != nil {
				return fmt.Errorf("corrupt index row %s: %w", k, err)
			}
			summaries = append(summaries, s)
			return nil
		})
	})
	return summaries, err
}
