// Package sqlite implements store.Store on an SQLite database via the pure-Go
// modernc.org/sqlite driver.
//
// Schema: config(key TEXT PRIMARY KEY, value BLOB NOT NULL). Open does not
// create the schema; call Migrate once during deployment. Until then every
// operation degrades to store.ErrUnavailable, which the backend treats as
// absent / no-op.
//
// The store implements store.Watcher: every Create/Update/Save announces a
// SaveEvent to in-process subscribers, synchronously on the writing
// goroutine.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/unkn0wn-root/confcache/store"
)

type Store struct {
	db *sql.DB

	mu       sync.Mutex
	nextID   int
	watchers map[int]func(store.SaveEvent)
}

var (
	_ store.Store   = (*Store)(nil)
	_ store.Watcher = (*Store)(nil)
)

// Open opens (or creates) the database at dsn. Empty dsn means in-memory.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if dsn == ":memory:" {
		// each pooled connection would otherwise see a private empty database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, watchers: make(map[int]func(store.SaveEvent))}, nil
}

// Migrate provisions the schema. Idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS config (
		key   TEXT PRIMARY KEY,
		value BLOB NOT NULL
	)`)
	return err
}

func (s *Store) Get(ctx context.Context, key string) (store.Record, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM config WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Record{}, fmt.Errorf("%w: %q", store.ErrNotFound, key)
	}
	if err != nil {
		return store.Record{}, mapErr(err)
	}
	return store.Record{Key: key, Value: value}, nil
}

// GetForWrite aliases Get: a single SQLite file has no replicas to diverge.
func (s *Store) GetForWrite(ctx context.Context, key string) (store.Record, error) {
	return s.Get(ctx, key)
}

func (s *Store) Filter(ctx context.Context, keys []string) ([]store.Record, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	q := `SELECT key, value FROM config WHERE key IN (?` + strings.Repeat(",?", len(keys)-1) + `)`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []store.Record
	for rows.Next() {
		var r store.Record
		if err := rows.Scan(&r.Key, &r.Value); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, r)
	}
	return out, mapErr(rows.Err())
}

func (s *Store) Create(ctx context.Context, key string, value []byte) (store.Record, error) {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO config (key, value) VALUES (?, ?)`, key, value); err != nil {
		return store.Record{}, mapErr(err)
	}
	s.announce(store.SaveEvent{Key: key, Created: true})
	return store.Record{Key: key, Value: value}, nil
}

func (s *Store) Update(ctx context.Context, key string, value []byte) error {
	res, err := s.db.ExecContext(ctx, `UPDATE config SET value = ? WHERE key = ?`, value, key)
	if err != nil {
		return mapErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %q", store.ErrNotFound, key)
	}
	s.announce(store.SaveEvent{Key: key, Created: false})
	return nil
}

// Save is the out-of-band upsert path (administrative edits). It fires the
// same save events the backend paths do, so a subscribed backend invalidates
// and re-warms its cache.
func (s *Store) Save(ctx context.Context, key string, value []byte) error {
	_, err := s.Create(ctx, key, value)
	if errors.Is(err, store.ErrDuplicateKey) {
		return s.Update(ctx, key, value)
	}
	return err
}

func (s *Store) Watch(fn func(store.SaveEvent)) store.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	return &subscription{s: s, id: id}
}

func (s *Store) announce(ev store.SaveEvent) {
	s.mu.Lock()
	fns := make([]func(store.SaveEvent), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (s *Store) Close(context.Context) error {
	return s.db.Close()
}

type subscription struct {
	s    *Store
	id   int
	once sync.Once
}

func (u *subscription) Close() {
	u.once.Do(func() {
		u.s.mu.Lock()
		delete(u.s.watchers, u.id)
		u.s.mu.Unlock()
	})
}

// mapErr wraps driver errors into the store taxonomy: constraint violations
// become ErrDuplicateKey, plain SQLITE_ERROR (the code a missing table
// produces) becomes ErrUnavailable.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var se *sqlitedrv.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_CONSTRAINT:
			return fmt.Errorf("%w: %v", store.ErrDuplicateKey, err)
		case sqlite3.SQLITE_ERROR:
			return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
		}
	}
	return err
}
