package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Storage keys. Every logical dataset lives under one flat namespaced key,
// serialized as JSON. Last write wins.
const (
	Namespace = "atlas_"

	KeySession         = "atlas_session"
	KeyMoodEntries     = "atlas_mood_entries"
	KeyWins            = "atlas_wins"
	KeyReflections     = "atlas_reflections"
	KeyAchievements    = "atlas_achievements"
	KeyChatThreads     = "atlas_chat_threads"
	KeyReadingProgress = "atlas_reading_progress"
	KeyReadingTime     = "atlas_reading_time"
	KeyStreak          = "atlas_streak"
	KeyChallenges      = "atlas_challenges"

	BackupPrefix = "atlas_backup_"
)

// KV is the namespaced key-value contract shared by the store and its
// transactions.
type KV interface {
	Get(key string, dest interface{}) (bool, error)
	Set(key string, value interface{}) error
	Delete(keys ...string) error
	Keys(prefix string) ([]string, error)
}

// Store is the key-value store backing all Atlas data, on SQLite.
type Store struct {
	db *sqlx.DB
}

// NewStore opens (or creates) the store at path. Use ":memory:" for tests.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "atlas.db"
	}

	db, err := sqlx.Connect("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create kv table: %w", err)
	}
	return nil
}

// Get unmarshals the value at key into dest. Returns false when the key is
// absent.
func (s *Store) Get(key string, dest interface{}) (bool, error) {
	return kvGet(s.db, key, dest)
}

// Set marshals value and writes it at key, replacing any previous value.
func (s *Store) Set(key string, value interface{}) error {
	return kvSet(s.db, key, value)
}

// Delete removes the given keys. Missing keys are not an error.
func (s *Store) Delete(keys ...string) error {
	return kvDelete(s.db, keys...)
}

// Keys returns every stored key with the given prefix, sorted ascending.
func (s *Store) Keys(prefix string) ([]string, error) {
	return kvKeys(s.db, prefix)
}

// InTx runs fn against a transactional view of the store. Reset and restore
// use this so a failure part-way through leaves the data set untouched.
func (s *Store) InTx(fn func(kv KV) error) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&txKV{tx: tx}); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

type txKV struct {
	tx *sqlx.Tx
}

func (t *txKV) Get(key string, dest interface{}) (bool, error) { return kvGet(t.tx, key, dest) }
func (t *txKV) Set(key string, value interface{}) error        { return kvSet(t.tx, key, value) }
func (t *txKV) Delete(keys ...string) error                    { return kvDelete(t.tx, keys...) }
func (t *txKV) Keys(prefix string) ([]string, error)           { return kvKeys(t.tx, prefix) }

type execer interface {
	sqlx.Queryer
	sqlx.Execer
}

func kvGet(e execer, key string, dest interface{}) (bool, error) {
	var raw string
	err := sqlx.Get(e, &raw, `SELECT value FROM kv WHERE key = ?`, key)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read key %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("failed to decode key %s: %w", key, err)
	}
	return true, nil
}

func kvSet(e execer, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode key %s: %w", key, err)
	}

	query := `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := e.Exec(query, key, string(raw), time.Now()); err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

func kvDelete(e execer, keys ...string) error {
	for _, key := range keys {
		if _, err := e.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
			return fmt.Errorf("failed to delete key %s: %w", key, err)
		}
	}
	return nil
}

func kvKeys(e execer, prefix string) ([]string, error) {
	keys := []string{}
	err := sqlx.Select(e, &keys, `SELECT key FROM kv WHERE key LIKE ? ORDER BY key ASC`, prefix+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to list keys with prefix %s: %w", prefix, err)
	}
	return keys, nil
}

// GetRaw returns the raw JSON stored at key, for callers that need to
// validate before decoding.
func (s *Store) GetRaw(key string) (string, bool, error) {
	var raw string
	err := s.db.Get(&raw, `SELECT value FROM kv WHERE key = ?`, key)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return raw, true, nil
}
