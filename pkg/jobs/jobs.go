// Package jobs persists asynchronous split job records in a Badger
// database so job status survives server restarts.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// Status represents the lifecycle state of a split job
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Record represents the state of a submitted split job
type Record struct {
	// Job identification
	ID       string `json:"id"`
	Splitter string `json:"splitter"`
	Status   Status `json:"status"`

	// Timestamp tracking
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error,omitempty"`

	// Original request and produced fold files
	Request json.RawMessage `json:"request,omitempty"`
	Outputs []string        `json:"outputs,omitempty"`
}

const keyPrefix = "job:"

func key(id string) []byte {
	return []byte(keyPrefix + id)
}

// Store manages split job records
type Store struct {
	db  *badger.DB
	dir string
}

// Open creates a job store backed by a Badger database in dir.
// If dir is empty, uses os.TempDir()/functime-jobs
func Open(dir string) (*Store, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "functime-jobs")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create job directory: %w", err)
	}

	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open job database: %w", err)
	}

	return &Store{db: db, dir: dir}, nil
}

// Close releases the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Dir returns the job database directory
func (s *Store) Dir() string {
	return s.dir
}

// Save persists the job record
func (s *Store) Save(ctx context.Context, record *Record) error {
	record.UpdatedAt = time.Now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = record.UpdatedAt
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal job record: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(record.ID), data)
	})
	if err != nil {
		return fmt.Errorf("failed to write job record: %w", err)
	}

	return nil
}

// Load retrieves a job record
func (s *Store) Load(ctx context.Context, id string) (*Record, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil // No job exists
		}
		return nil, fmt.Errorf("failed to read job record: %w", err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job record: %w", err)
	}

	return &record, nil
}

// Delete removes a job record
func (s *Store) Delete(ctx context.Context, id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(id))
	})
	if err != nil {
		return fmt.Errorf("failed to delete job record: %w", err)
	}
	return nil
}

// Exists checks if a job record exists
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key(id))
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check job existence: %w", err)
	}
	return true, nil
}

// List returns all job records
func (s *Store) List(ctx context.Context) ([]*Record, error) {
	var records []*Record
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			data, err := it.Item().ValueCopy(nil)
			if err != nil {
				continue // Skip entries we can't read
			}

			var record Record
			if err := json.Unmarshal(data, &record); err != nil {
				continue // Skip entries we can't unmarshal
			}

			records = append(records, &record)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list job records: %w", err)
	}

	return records, nil
}

// UpdateStatus updates the job's lifecycle status
func (s *Store) UpdateStatus(ctx context.Context, id string, status Status) error {
	record, err := s.Load(ctx, id)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("job not found: %s", id)
	}

	record.Status = status
	return s.Save(ctx, record)
}

// RecordError marks the job failed and records the error
func (s *Store) RecordError(ctx context.Context, id string, jobErr error) error {
	record, err := s.Load(ctx, id)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("job not found: %s", id)
	}

	record.Attempts++
	record.Status = StatusFailed
	record.LastError = jobErr.Error()

	return s.Save(ctx, record)
}

// Complete marks the job completed and records the produced fold files
func (s *Store) Complete(ctx context.Context, id string, outputs []string) error {
	record, err := s.Load(ctx, id)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("job not found: %s", id)
	}

	record.Status = StatusCompleted
	record.Outputs = outputs

	return s.Save(ctx, record)
}

// CleanOld removes job records older than the specified duration
func (s *Store) CleanOld(ctx context.Context, maxAge time.Duration) (int, error) {
	records, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, record := range records {
		if record.UpdatedAt.Before(cutoff) {
			if err := s.Delete(ctx, record.ID); err != nil {
				// Log but don't fail the entire cleanup
				continue
			}
			removed++
		}
	}

	return removed, nil
}
