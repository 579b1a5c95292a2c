// Package filestore persists campaign lists as one JSON document on disk.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dyluth/tome/pkg/world"
	"go.uber.org/zap"
)

// Store is a persist.Backend writing a JSON array of campaigns to a single file.
// Writes go to a temporary file in the same directory that is then renamed over the
// target, so a crash never leaves a half-written list behind.
type Store struct {
	path   string
	logger *zap.Logger
}

// New returns a store for the file at path. The file need not exist yet.
func New(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{path: path, logger: logger}
}

// Path returns the file the store reads and writes.
func (s *Store) Path() string {
	return s.path
}

// LoadAll reads the campaign list. A missing or empty file is an empty list.
func (s *Store) LoadAll(ctx context.Context) ([]*world.Document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []*world.Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return []*world.Document{}, nil
	}

	docs, err := world.DecodeDocuments(data, func(index int, err error) {
		s.logger.Warn("skipping unreadable campaign",
			zap.String("path", s.path),
			zap.Int("index", index),
			zap.Error(err))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	return docs, nil
}

// SaveAll writes docs, replacing the previous list.
func (s *Store) SaveAll(ctx context.Context, docs []*world.Document) error {
	if docs == nil {
		docs = []*world.Document{}
	}
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize campaigns: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write campaigns: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write campaigns: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}

	s.logger.Debug("saved campaigns",
		zap.String("path", s.path),
		zap.Int("campaigns", len(docs)))
	return nil
}
