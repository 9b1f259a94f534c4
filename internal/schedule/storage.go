package schedule

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketBatches = []byte("batches")
	bucketDue     = []byte("due")
)

// Store persists scheduled batches in BoltDB so that pending sends
// survive process restarts.
type Store struct {
	db *bolt.DB
}

// NewStore opens (or creates) the batch store at path
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketBatches, bucketDue} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Add persists a batch and indexes it by send time
func (s *Store) Add(batch *Batch) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(batch)
		if err != nil {
			return fmt.Errorf("failed to marshal batch: %w", err)
		}
		if err := tx.Bucket(bucketBatches).Put([]byte(batch.ID), data); err != nil {
			return fmt.Errorf("failed to store batch: %w", err)
		}
		if err := tx.Bucket(bucketDue).Put(makeDueKey(batch.SendAt, batch.ID), []byte(batch.ID)); err != nil {
			return fmt.Errorf("failed to index batch: %w", err)
		}
		return nil
	})
}

// ClaimDue returns batches whose send time has passed, marking each as
// sending and removing it from the due index so no other claim sees it.
func (s *Store) ClaimDue(now time.Time) ([]*Batch, error) {
	var claimed []*Batch

	err := s.db.Update(func(tx *bolt.Tx) error {
		dueBucket := tx.Bucket(bucketDue)
		batchBucket := tx.Bucket(bucketBatches)

		c := dueBucket.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			ts := parseDueKey(k)
			if ts.After(now) {
				break // index is ordered, the rest are in the future
			}

			data := batchBucket.Get(v)
			if data == nil {
				// Batch was deleted, clean up the index entry.
				if err := c.Delete(); err != nil {
					return err
				}
				continue
			}

			var b Batch
			if err := json.Unmarshal(data, &b); err != nil {
				// Corrupt record; drop the index entry so it is not
				// re-scanned on every poll.
				if err := c.Delete(); err != nil {
					return err
				}
				continue
			}

			b.Status = StatusSending
			b.UpdatedAt = now

			updated, err := json.Marshal(&b)
			if err != nil {
				return err
			}
			if err := batchBucket.Put([]byte(b.ID), updated); err != nil {
				return err
			}
			if err := c.Delete(); err != nil {
				return err
			}

			claimed = append(claimed, &b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// Update overwrites a stored batch
func (s *Store) Update(batch *Batch) error {
	batch.UpdatedAt = time.Now()
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(batch)
		if err != nil {
			return fmt.Errorf("failed to marshal batch: %w", err)
		}
		return tx.Bucket(bucketBatches).Put([]byte(batch.ID), data)
	})
}

// Get retrieves a batch by ID, or nil if not found
func (s *Store) Get(id string) (*Batch, error) {
	var batch *Batch
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketBatches).Get([]byte(id))
		if data == nil {
			return nil
		}
		var b Batch
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("failed to unmarshal batch: %w", err)
		}
		batch = &b
		return nil
	})
	return batch, err
}

// List returns all stored batches
func (s *Store) List() ([]*Batch, error) {
	var batches []*Batch
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketBatches).ForEach(func(_, v []byte) error {
			var b Batch
			if err := json.Unmarshal(v, &b); err != nil {
				return nil // skip corrupt entries
			}
			batches = append(batches, &b)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return batches, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

func makeDueKey(t time.Time, id string) []byte {
	// Format: unix nanos (fixed width, sortable) + ":" + id
	return []byte(fmt.Sprintf("%020d:%s", t.UnixNano(), id))
}

func parseDueKey(key []byte) time.Time {
	s := string(key)
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			var nanos int64
			if _, err := fmt.Sscanf(s[:i], "%d", &nanos); err != nil {
				return time.Time{}
			}
			return time.Unix(0, nanos)
		}
	}
	return time.Time{}
}
