package prescription

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
)

// fileStore implements Store on the local file system.
type fileStore struct {
	dir    string
	logger zerolog.Logger
}

// NewFileStore creates a Store rooted at dir, creating it if necessary.
func NewFileStore(dir string, logger zerolog.Logger) (Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create prescription directory %s: %w", dir, err)
	}

	return &fileStore{
		dir:    dir,
		logger: logger.With().Str("component", "prescription-file-store").Logger(),
	}, nil
}

// path maps key to a file under dir, rejecting keys that escape it.
func (s *fileStore) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid prescription key %q", key)
	}
	return filepath.Join(s.dir, clean), nil
}

func (s *fileStore) Put(ctx context.Context, key string, img Image) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return fmt.Errorf("failed to create prescription directory: %w", err)
	}

	if err := os.WriteFile(p, img.Data, 0o640); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("failed to write prescription")
		return fmt.Errorf("failed to write prescription %s: %w", key, err)
	}

	s.logger.Debug().Str("key", key).Int("bytes", len(img.Data)).Msg("prescription stored")
	return nil
}

func (s *fileStore) Get(ctx context.Context, key string) (Image, error) {
	p, err := s.path(key)
	if err != nil {
		return Image{}, err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Image{}, ErrNotFound
		}
		s.logger.Error().Err(err).Str("key", key).Msg("failed to read prescription")
		return Image{}, fmt.Errorf("failed to read prescription %s: %w", key, err)
	}

	mtype := mimetype.Detect(data)
	return Image{Data: data, ContentType: mtype.String(), Extension: mtype.Extension()}, nil
}

func (s *fileStore) Delete(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Error().Err(err).Str("key", key).Msg("failed to delete prescription")
		return fmt.Errorf("failed to delete prescription %s: %w", key, err)
	}
	return nil
}
