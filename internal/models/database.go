package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// ErrNotFound is returned when a record does not exist for the given user
var ErrNotFound = errors.New("record not found")

// Database wraps the bolthold store holding every user's records
type Database struct {
	store *bolthold.Store
}

// NewDatabase creates a new database connection
func NewDatabase(path string) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{store: store}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.store.Close()
}

// CreateRecord stores a new record for the user and returns its assigned ID
func (db *Database) CreateRecord(userID string, record Record) (string, error) {
	record.ID = uuid.NewString()
	record.UserID = userID
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	if err := db.store.Insert(record.ID, &record); err != nil {
		return "", err
	}
	return record.ID, nil
}

// GetRecord retrieves a record by ID, scoped to the user
func (db *Database) GetRecord(userID, id string) (*Record, error) {
	var record Record
	if err := db.store.Get(id, &record); err != nil {
		if errors.Is(err, bolthold.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if record.UserID != userID {
		return nil, ErrNotFound
	}
	return &record, nil
}

// UpdateRecord merges the given fields into an existing record
func (db *Database) UpdateRecord(userID, id string, update RecordUpdate) error {
	record, err := db.GetRecord(userID, id)
	if err != nil {
		return err
	}
	update.Apply(record)
	return db.store.Update(record.ID, record)
}

// DeleteRecord removes a record. Deleting a missing record is not an error.
func (db *Database) DeleteRecord(userID, id string) error {
	if _, err := db.GetRecord(userID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	err := db.store.Delete(id, &Record{})
	if errors.Is(err, bolthold.ErrNotFound) {
		return nil
	}
	return err
}

// GetRecordsByUser retrieves the complete collection of a user ordered by ordinal
func (db *Database) GetRecordsByUser(userID string) ([]Record, error) {
	var records []Record
	err := db.store.Find(&records, bolthold.Where("UserID").Eq(userID).Index("UserID").SortBy("Ordinal"))
	if err != nil {
		return nil, err
	}
	return records, nil
}
