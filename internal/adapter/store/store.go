// Package store persists trained pipelines as JSON documents on disk.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/couchcryptid/blood-donation-forecast/internal/domain"
	"github.com/couchcryptid/blood-donation-forecast/internal/model"
	"github.com/goccy/go-json"
)

// FileStore writes a trained pipeline to a single file. Writes go to a temp
// file in the same directory and are renamed into place, so readers see
// either the previous document or the new one.
// It implements pipeline.ModelStore.
type FileStore struct {
	path   string
	logger *slog.Logger
}

// NewFileStore creates a store for path.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// Path returns the document location.
func (s *FileStore) Path() string { return s.path }

// Save atomically replaces the stored pipeline.
func (s *FileStore) Save(ctx context.Context, tp *model.TrainedPipeline) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(tp)
	if err != nil {
		return fmt.Errorf("encode pipeline: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	s.logger.Debug("pipeline stored", "path", s.path, "bytes", len(data))
	return nil
}

// Load reads the stored pipeline and checks that its feature order matches
// the current feature engineering.
func (s *FileStore) Load(ctx context.Context) (*model.TrainedPipeline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	var tp model.TrainedPipeline
	if err := json.Unmarshal(data, &tp); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if !slices.Equal(tp.Features, domain.FeatureNames()) {
		return nil, fmt.Errorf("stored feature order differs from current features: %w", domain.ErrDimensionMismatch)
	}
	return &tp, nil
}
