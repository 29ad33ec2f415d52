// storage/store.go
//
// Copyright (C) 2026 Vilhjálmur Þorsteinsson / Miðeind ehf.
//
// This file declares the Store interface for saved games,
// and selects a backend from the configuration.

package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNotFound is returned when no save exists for an id.
var ErrNotFound = errors.New("save not found")

// ErrInvalidID is returned for ids that cannot be used as keys.
var ErrInvalidID = errors.New("invalid save id")

// Store keeps serialized games, keyed by game id.
// The data is opaque to the store.
type Store interface {
	// Put creates or replaces the save with the given id.
	Put(ctx context.Context, id string, data []byte) error
	// Get returns the save with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) ([]byte, error)
	// List returns the ids of all saves in ascending order.
	List(ctx context.Context) ([]string, error)
	// Delete removes the save with the given id, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
	// Close releases the resources held by the store.
	Close() error
}

// Backend names
const (
	KindFile      = "file"
	KindSQLite    = "sqlite"
	KindDatastore = "datastore"
)

// Config selects and configures a Store backend.
type Config struct {
	// Kind is one of "file", "sqlite" or "datastore".
	Kind string
	// Path is the directory of a file store, or the database file
	// of a SQLite store.
	Path string
	// Project is the Google Cloud project of a Datastore store.
	Project string
}

// Open creates the Store described by cfg.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case "", KindFile:
		return OpenFileStore(cfg.Path)
	case KindSQLite:
		return OpenSQLiteStore(cfg.Path)
	case KindDatastore:
		return OpenDatastoreStore(ctx, cfg.Project)
	}
	return nil, fmt.Errorf("unknown store kind '%s'", cfg.Kind)
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// checkID makes sure that an id is safe to use as a file name
// or a database key.
func checkID(id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%w: '%s'", ErrInvalidID, id)
	}
	return nil
}
