package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/noah-isme/complaint-desk/pkg/storage"
)

// FileStore keeps one <key>.json file per collection.
type FileStore struct {
	files *storage.LocalStorage
}

// NewFileStore builds a file-backed store over files.
func NewFileStore(files *storage.LocalStorage) *FileStore {
	return &FileStore{files: files}
}

// Get decodes <key>.json into dest.
func (s *FileStore) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	raw, found, err := s.files.Read(fileName(key))
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Set replaces <key>.json.
func (s *FileStore) Set(ctx context.Context, key string, value interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.files.Save(fileName(key), raw)
}

// Delete removes <key>.json.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.files.Delete(fileName(key))
}

func fileName(key string) string {
	return key + ".json"
}
