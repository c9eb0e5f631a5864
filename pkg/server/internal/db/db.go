package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the sqlite connection used for game state persistence.
type DB struct {
	*sql.DB
}

// NewDB opens (creating if necessary) the sqlite database at dbPath.
func NewDB(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS games (
			id TEXT PRIMARY KEY,
			version INTEGER NOT NULL,
			phase TEXT NOT NULL,
			state TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	return err
}

// SaveGame upserts one game's serialized state. The stored version only moves
// forward; a stale write from an out-of-order async save is silently dropped.
func (db *DB) SaveGame(id string, version int64, phase string, state []byte, updatedAt time.Time) error {
	_, err := db.Exec(`
		INSERT INTO games (id, version, phase, state, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			version = excluded.version,
			phase = excluded.phase,
			state = excluded.state,
			updated_at = excluded.updated_at
		WHERE excluded.version > games.version
	`, id, version, phase, string(state), updatedAt)
	if err != nil {
		return fmt.Errorf("failed to save game %s: %w", id, err)
	}
	return nil
}

// LoadGame returns the serialized state for one game.
func (db *DB) LoadGame(id string) ([]byte, error) {
	var state string
	err := db.QueryRow("SELECT state FROM games WHERE id = ?", id).Scan(&state)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("game %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load game %s: %w", id, err)
	}
	return []byte(state), nil
}

// DeleteGame removes a game's stored state. Deleting a game that was never
// saved is not an error.
func (db *DB) DeleteGame(id string) error {
	_, err := db.Exec("DELETE FROM games WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete game %s: %w", id, err)
	}
	return nil
}

// ListGameIDs returns the ids of all stored games.
func (db *DB) ListGameIDs() ([]string, error) {
	rows, err := db.Query("SELECT id FROM games ORDER BY updated_at")
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.DB.Close()
}
