package server

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"buckeuchre/pkg/server/internal/db"
)

// Database defines the persistence operations the server needs. Game state is
// stored as one JSON document per game, versioned so stale async writes never
// clobber a newer snapshot.
type Database interface {
	SaveGame(id string, version int64, phase string, state []byte, updatedAt time.Time) error
	LoadGame(id string) ([]byte, error)
	DeleteGame(id string) error
	ListGameIDs() ([]string, error)

	// Close closes the database connection
	Close() error
}

// NewDatabase opens the sqlite database at dbPath, creating the directory
// if needed.
func NewDatabase(dbPath string) (Database, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %v", err)
	}

	return db.NewDB(dbPath)
}
