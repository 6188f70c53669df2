package spacetraveling

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/eringen/spacetraveling/detail"
	"github.com/eringen/spacetraveling/posts"
)

// Store keeps a SQLite snapshot of resolved posts so pages materialized on
// demand survive restarts.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the schema.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the resolver write while handlers read; busy_timeout makes
	// writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS posts (
    uid TEXT PRIMARY KEY,
    payload TEXT NOT NULL,
    fetched_at TEXT NOT NULL
);
`)
	return err
}

// LoadPost returns a stored post and when it was fetched. It returns
// detail.ErrNotFound when uid has no snapshot.
func (s *Store) LoadPost(uid string) (posts.Detail, time.Time, error) {
	var payload, fetchedAt string
	err := s.db.QueryRow(`SELECT payload, fetched_at FROM posts WHERE uid = ?`, uid).Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return posts.Detail{}, time.Time{}, detail.ErrNotFound
	}
	if err != nil {
		return posts.Detail{}, time.Time{}, err
	}
	var d posts.Detail
	if err := json.Unmarshal([]byte(payload), &d); err != nil {
		return posts.Detail{}, time.Time{}, fmt.Errorf("store: decode %s: %w", uid, err)
	}
	at, err := time.Parse(time.RFC3339Nano, fetchedAt)
	if err != nil {
		return posts.Detail{}, time.Time{}, fmt.Errorf("store: parse fetched_at for %s: %w", uid, err)
	}
	return d, at, nil
}

// SavePost upserts a post snapshot stamped with the current time.
func (s *Store) SavePost(d posts.Detail) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", d.UID, err)
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO posts (uid, payload, fetched_at) VALUES (?, ?, ?)`,
		d.UID, string(payload), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// DeletePost removes a snapshot by uid.
func (s *Store) DeletePost(uid string) error {
	_, err := s.db.Exec(`DELETE FROM posts WHERE uid = ?`, uid)
	return err
}

// ListUIDs returns every stored uid in order.
func (s *Store) ListUIDs() ([]string, error) {
	rows, err := s.db.Query(`SELECT uid FROM posts ORDER BY uid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var uids []string
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, err
		}
		uids = append(uids, uid)
	}
	return uids, rows.Err()
}
