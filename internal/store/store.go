package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// dsnParams are go-sqlite3 connection options applied to every connection:
// WAL journal, NORMAL sync, 5s busy timeout, foreign keys enforced.
const dsnParams = "_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on"

// migrations run in order; entry i upgrades user_version i to i+1.
var migrations = []struct {
	name string
	sql  string
}{
	{"failed results index", `
		CREATE INDEX IF NOT EXISTS idx_results_failed
		ON results(run_id, seq) WHERE error != ''
	`},
	{"raw input column", `
		ALTER TABLE results ADD COLUMN raw_input BLOB
	`},
}

// schemaVersion is the user_version of a fully migrated database.
var schemaVersion = len(migrations)

// Store is the SQLite audit log of mapping runs. Event payloads are held
// as zstd-compressed canonical JSON.
type Store struct {
	db      *sql.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Open opens (or creates) the database at path and brings its schema up to
// date. Opening an existing database is safe.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?"+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer at a time; an in-memory database lives on a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.init(); err != nil {
		return nil, errors.Join(err, s.Close())
	}
	return s, nil
}

func (s *Store) init() error {
	if err := s.db.Ping(); err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	if err := s.migrate(); err != nil {
		return err
	}

	var err error
	if s.encoder, err = zstd.NewWriter(nil); err != nil {
		return fmt.Errorf("create zstd encoder: %w", err)
	}
	if s.decoder, err = zstd.NewReader(nil); err != nil {
		return fmt.Errorf("create zstd decoder: %w", err)
	}
	return nil
}

// migrate applies every migration past the stored user_version.
func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	for i := version; i < len(migrations); i++ {
		if _, err := s.db.Exec(migrations[i].sql); err != nil {
			return fmt.Errorf("migrate to v%d (%s): %w", i+1, migrations[i].name, err)
		}
	}
	if version == schemaVersion {
		return nil
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("write user_version: %w", err)
	}
	return nil
}

// Close releases the database and codec resources. Calling Close more
// than once is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	db := s.db
	s.db = nil

	if s.decoder != nil {
		s.decoder.Close()
	}
	var encErr error
	if s.encoder != nil {
		encErr = s.encoder.Close()
	}
	return errors.Join(encErr, db.Close())
}

// pragma returns the current value of a SQLite pragma.
func (s *Store) pragma(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("read pragma %s: %w", name, err)
	}
	return value, nil
}
