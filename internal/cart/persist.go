package cart

import (
	"database/sql"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Persistence is the durable record behind one cart: a single value under a
// fixed key, read back on rehydration. The store treats it as a black box.
type Persistence interface {
	Read() ([]byte, error)
	Write(data []byte) error
	Clear() error
}

// OpenStateDB opens (and migrates) the sqlite file holding all cart records.
func OpenStateDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	schema := `
CREATE TABLE IF NOT EXISTS state_records(
  key        TEXT PRIMARY KEY,
  value      BLOB NOT NULL,
  updated_at TEXT
);`
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	return db, nil
}

type sqliteRecord struct {
	db  *sqlx.DB
	key string
}

// NewSQLiteRecord binds a persistence record to one key (e.g. "cart:<sid>").
func NewSQLiteRecord(db *sqlx.DB, key string) Persistence {
	return &sqliteRecord{db: db, key: key}
}

func (r *sqliteRecord) Read() ([]byte, error) {
	var value []byte
	err := r.db.Get(&value, `SELECT value FROM state_records WHERE key = ?`, r.key)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (r *sqliteRecord) Write(data []byte) error {
	_, err := r.db.Exec(`
		INSERT INTO state_records(key,value,updated_at) VALUES(?,?,?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, r.key, data, time.Now().UTC().Format(time.RFC3339))
	return err
}

func (r *sqliteRecord) Clear() error {
	_, err := r.db.Exec(`DELETE FROM state_records WHERE key = ?`, r.key)
	return err
}

// MemoryRecord is the in-process adapter used by tests.
type MemoryRecord struct {
	mu  sync.Mutex
	buf []byte
}

func (m *MemoryRecord) Read() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.buf == nil {
		return nil, nil
	}
	out := make([]byte, len(m.buf))
	copy(out, m.buf)
	return out, nil
}

func (m *MemoryRecord) Write(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buf = make([]byte, len(data))
	copy(m.buf, data)
	return nil
}

func (m *MemoryRecord) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buf = nil
	return nil
}
