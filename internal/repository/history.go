package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/kjannette/pi-tracker/internal/models"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// HistoryStore persists the ordered price history.
type HistoryStore interface {
	Load(ctx context.Context) ([]models.PriceSample, error)
	Save(ctx context.Context, samples []models.PriceSample) error
	Close() error
}

// JSONFileStore keeps the history as a pretty-printed JSON array in one file.
type JSONFileStore struct {
	path   string
	logger *zap.Logger
}

func NewJSONFileStore(path string, logger *zap.Logger) *JSONFileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONFileStore{path: path, logger: logger}
}

// Load never fails: a missing or unreadable file yields an empty history.
func (s *JSONFileStore) Load(_ context.Context) ([]models.PriceSample, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Error("error loading history", zap.String("path", s.path), zap.Error(err))
		}
		return []models.PriceSample{}, nil
	}

	var samples []models.PriceSample
	if err := json.Unmarshal(data, &samples); err != nil {
		s.logger.Error("error loading history, starting empty", zap.String("path", s.path), zap.Error(err))
		return []models.PriceSample{}, nil
	}
	if samples == nil {
		samples = []models.PriceSample{}
	}
	return samples, nil
}

// Save rewrites the whole file through a temp file and rename, so a crash
// mid-write leaves the previous history intact.
func (s *JSONFileStore) Save(_ context.Context, samples []models.PriceSample) error {
	if samples == nil {
		samples = []models.PriceSample{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(samples); err != nil {
		return errors.Wrap(err, "encode history")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create history dir")
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "create temp history file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return errors.Wrap(err, "chmod temp history file")
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write temp history file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "sync temp history file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp history file")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return errors.Wrap(err, "replace history file")
	}
	return nil
}

func (s *JSONFileStore) Close() error { return nil }
