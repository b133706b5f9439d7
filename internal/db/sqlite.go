// Package db opens the portal's local SQLite store and keeps its schema
// current. Directory data never lands here; the store carries only the
// portal's own audit trail.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"
)

// Connection pragmas. WAL keeps readers unblocked during writes; the busy
// timeout absorbs writer contention instead of surfacing SQLITE_BUSY.
const (
	journalMode   = "WAL"
	busyTimeoutMS = "5000"
	synchronous   = "NORMAL"

	defaultReadPoolSize = 4
)

// Store is the portal's SQLite handle. SQLite allows one writer at a time,
// so writes flow through a single-connection pool taking immediate
// transactions, while reads share a wider pool on the same file.
type Store struct {
	Write *sql.DB
	Read  *sql.DB
}

// Open opens the store at path, creating the file if needed. readPoolSize
// caps the read pool; zero or negative selects the default of 4. The caller
// must have registered a "sqlite3" driver (the cmd packages blank-import
// mattn/go-sqlite3).
func Open(path string, readPoolSize int) (*Store, error) {
	write, err := openPool(path, true, 1)
	if err != nil {
		return nil, err
	}
	if readPoolSize <= 0 {
		readPoolSize = defaultReadPoolSize
	}
	read, err := openPool(path, false, readPoolSize)
	if err != nil {
		_ = write.Close()
		return nil, err
	}
	return &Store{Write: write, Read: read}, nil
}

// Migrate applies any pending schema migrations through the write pool.
func (s *Store) Migrate() error {
	return RunMigrations(s.Write)
}

// Close closes both pools, returning the first error encountered.
func (s *Store) Close() error {
	rerr := s.Read.Close()
	werr := s.Write.Close()
	if werr != nil {
		return werr
	}
	return rerr
}

func openPool(path string, writer bool, maxOpen int) (*sql.DB, error) {
	pool, err := sql.Open("sqlite3", dsn(path, writer))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	pool.SetMaxOpenConns(maxOpen)
	pool.SetMaxIdleConns(maxOpen)
	pool.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return pool, nil
}

// dsn builds the connection string. Writers take the write lock up front so
// a busy writer queues on the timeout instead of failing mid-transaction.
func dsn(path string, writer bool) string {
	params := url.Values{}
	params.Set("_journal_mode", journalMode)
	params.Set("_busy_timeout", busyTimeoutMS)
	params.Set("_synchronous", synchronous)
	params.Set("_foreign_keys", "on")
	if writer {
		params.Set("_txlock", "immediate")
	}
	return path + "?" + params.Encode()
}
