package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/grounder-ai/grounder/internal/models"
	"github.com/grounder-ai/grounder/pkg/logger"
)

var bucketName = []byte("transcripts")

// Transcript is the persisted record of one orchestration run. The
// conversation itself lives and dies with the run; this is written once
// after the run completes.
type Transcript struct {
	ID        string             `json:"id"`
	CreatedAt time.Time          `json:"created_at"`
	Question  string             `json:"question"`
	Answer    string             `json:"answer"`
	Messages  []models.InputItem `json:"messages"`
}

// TranscriptStore provides persistent storage for run transcripts using BBolt
type TranscriptStore struct {
	db *bbolt.DB
}

// NewTranscriptStore creates a new transcript store at the given database path
func NewTranscriptStore(path string) (*TranscriptStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("transcript store initialized", zap.String("path", path))
	return &TranscriptStore{db: db}, nil
}

// Store saves a transcript keyed by its run ID
func (s *TranscriptStore) Store(t *Transcript) error {
	if t.ID == "" {
		return fmt.Errorf("transcript has no ID")
	}

	data, err := json.Marshal(t)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		return b.Put([]byte(t.ID), data)
	})
}

// Get retrieves a transcript by run ID.
// Returns the transcript and true if found, nil and false otherwise.
func (s *TranscriptStore) Get(runID string) (*Transcript, bool) {
	var t Transcript
	found := false

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		data := b.Get([]byte(runID))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &t)
	})

	if err != nil || !found {
		return nil, false
	}

	return &t, true
}

// Delete removes a transcript by run ID
func (s *TranscriptStore) Delete(runID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		return b.Delete([]byte(runID))
	})
}

// Close closes the database connection
func (s *TranscriptStore) Close() error {
	return s.db.Close()
}
