package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"model-training-step/internal/core/domain"
	"model-training-step/internal/core/ports/output"
)

const filesDirName = "files"

// artifactStore copies uploads into <root>/<run-id>/files/<name>.
type artifactStore struct {
	root string
}

func NewArtifactStore(root string) ports.ArtifactStore {
	return &artifactStore{root: root}
}

func (s *artifactStore) Upload(ctx context.Context, runID string, name string, content io.Reader) error {
	path, err := s.path(runID, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", domain.ErrFileNameConflict, name)
		}
		return fmt.Errorf("create %s: %w", name, err)
	}

	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("upload %s: %w", name, err)
	}
	return f.Close()
}

func (s *artifactStore) List(ctx context.Context, runID string) ([]string, error) {
	dir := filepath.Join(s.root, runID, filesDirName)
	names := []string{}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list run files: %w", err)
	}
	return names, nil
}

func (s *artifactStore) URI(runID string, name string) string {
	path := filepath.Join(s.root, runID, filesDirName, filepath.FromSlash(name))
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return "file://" + filepath.ToSlash(path)
}

// path resolves name inside the run's files dir and rejects names that escape it.
func (s *artifactStore) path(runID string, name string) (string, error) {
	if name == "" {
		return "", domain.ErrInvalidFileName
	}
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q escapes the run directory", domain.ErrInvalidFileName, name)
	}
	return filepath.Join(s.root, runID, filesDirName, clean), nil
}
