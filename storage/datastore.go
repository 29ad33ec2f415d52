// storage/datastore.go
//
// Copyright (C) 2026 Vilhjálmur Þorsteinsson / Miðeind ehf.
//
// This file implements a Store on Google Cloud Datastore,
// for deployments on App Engine.

package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/datastore"
)

// saveKind is the Datastore kind of save entities
const saveKind = "Save"

// saveEntity is a save as stored in Datastore. The data is
// not indexed, which also lifts the 1500 byte limit on it.
type saveEntity struct {
	Data      []byte    `datastore:"data,noindex"`
	UpdatedAt time.Time `datastore:"updated_at"`
}

// DatastoreStore keeps saves as entities of kind Save,
// named by game id.
type DatastoreStore struct {
	client *datastore.Client
}

// OpenDatastoreStore connects to Datastore in the given project.
func OpenDatastoreStore(ctx context.Context, project string) (*DatastoreStore, error) {
	if strings.TrimSpace(project) == "" {
		return nil, fmt.Errorf("datastore project is required")
	}
	client, err := datastore.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("connect to datastore: %w", err)
	}
	return &DatastoreStore{client: client}, nil
}

func saveKey(id string) *datastore.Key {
	return datastore.NameKey(saveKind, id, nil)
}

// Put creates or replaces a save.
func (s *DatastoreStore) Put(ctx context.Context, id string, data []byte) error {
	if err := checkID(id); err != nil {
		return err
	}
	entity := &saveEntity{Data: data, UpdatedAt: time.Now().UTC()}
	if _, err := s.client.Put(ctx, saveKey(id), entity); err != nil {
		return fmt.Errorf("put save %s: %w", id, err)
	}
	return nil
}

// Get reads a save.
func (s *DatastoreStore) Get(ctx context.Context, id string) ([]byte, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var entity saveEntity
	err := s.client.Get(ctx, saveKey(id), &entity)
	if errors.Is(err, datastore.ErrNoSuchEntity) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get save %s: %w", id, err)
	}
	return entity.Data, nil
}

// List returns the ids of all saves, using a keys-only query.
func (s *DatastoreStore) List(ctx context.Context) ([]string, error) {
	keys, err := s.client.GetAll(ctx, datastore.NewQuery(saveKind).KeysOnly(), nil)
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	ids := make([]string, len(keys))
	for i, key := range keys {
		ids[i] = key.Name
	}
	sort.Strings(ids)
	return ids, nil
}

// Delete removes a save. Datastore does not report deletes of
// missing entities, so the save is looked up first.
func (s *DatastoreStore) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	var entity saveEntity
	err := s.client.Get(ctx, saveKey(id), &entity)
	if errors.Is(err, datastore.ErrNoSuchEntity) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get save %s: %w", id, err)
	}
	if err := s.client.Delete(ctx, saveKey(id)); err != nil {
		return fmt.Errorf("delete save %s: %w", id, err)
	}
	return nil
}

// Close closes the Datastore client.
func (s *DatastoreStore) Close() error {
	return s.client.Close()
}

var _ Store = (*DatastoreStore)(nil)
