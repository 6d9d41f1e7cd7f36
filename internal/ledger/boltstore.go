package ledger

import (
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

var (
	boltBucket = []byte("conversations")
	boltKey    = []byte("records")
)

// BoltStore keeps the ledger document inside a bbolt database. The
// document update happens inside a write transaction, which closes
// the lost-update window the plain file store leaves open to other
// processes.
type BoltStore struct {
	db *bolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init ledger db: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (b *BoltStore) Load() ([]ConversationRecord, error) {
	var records []ConversationRecord
	err := b.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(boltBucket).Get(boltKey)
		if data == nil {
			records = []ConversationRecord{}
			return nil
		}
		return json.Unmarshal(data, &records)
	})
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return records, nil
}

func (b *BoltStore) Save(records []ConversationRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	err = b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put(boltKey, data)
	})
	if err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

func (b *BoltStore) Close() error { return b.db.Close() }
