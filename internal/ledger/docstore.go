package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DocumentStore persists the full record sequence as one document.
// Implementations must make Save replace-or-nothing so a crash cannot
// leave a truncated document behind.
type DocumentStore interface {
	Load() ([]ConversationRecord, error)
	Save([]ConversationRecord) error
	Close() error
}

// FileStore keeps the ledger as a single human-readable JSON array,
// written via temp-file-then-rename.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Load() ([]ConversationRecord, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return []ConversationRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	var records []ConversationRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse ledger: %w", err)
	}
	return records, nil
}

func (f *FileStore) Save(records []ConversationRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".ledger-*")
	if err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}

func (f *FileStore) Close() error { return nil }
