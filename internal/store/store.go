// Package store persists canonical audio under per-conversation
// directories and provides filesystem-level scanning that is
// deliberately independent of the metadata ledger.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"audio-capture-go/internal/logger"
)

// ErrStoreFailed wraps filesystem write errors.
var ErrStoreFailed = errors.New("store: write failed")

// Store writes conversation audio files under a fixed root.
type Store struct {
	root string
}

func New(root string) *Store {
	return &Store{root: root}
}

func (s *Store) Root() string { return s.root }

// Path returns the deterministic location for a channel recording:
// {root}/{id}/{id}_{label}.wav
func (s *Store) Path(conversationID, label string) string {
	return filepath.Join(s.root, conversationID,
		fmt.Sprintf("%s_%s.wav", conversationID, label))
}

// Save writes the audio whole-file and returns the final path and
// byte size.
func (s *Store) Save(conversationID, label string, wavData []byte) (string, int64, error) {
	dir := filepath.Join(s.root, conversationID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	path := s.Path(conversationID, label)
	if err := os.WriteFile(path, wavData, 0o644); err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}
	logger.New().WithField("component", "store").
		WithField("path", path).
		WithField("size_bytes", len(wavData)).
		Info("audio saved")
	return path, int64(len(wavData)), nil
}
