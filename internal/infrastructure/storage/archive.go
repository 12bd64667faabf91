// Package storage keeps generated exports on the local filesystem.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/freight-audit/internal/application/port"
)

// ErrPathEscapesRoot is returned for paths resolving outside the archive root
var ErrPathEscapesRoot = errors.New("path escapes archive root")

// Archive implements port.FileStorage under a single root directory.
// Files are written to a temporary name and renamed into place.
type Archive struct {
	root   string
	logger *zap.Logger
}

// NewArchive creates an archive rooted at root
func NewArchive(root string, logger *zap.Logger) *Archive {
	return &Archive{
		root:   root,
		logger: logger,
	}
}

// Save writes content to the relative path
func (a *Archive) Save(ctx context.Context, path string, content []byte) error {
	fullPath, err := a.resolve(path)
	if err != nil {
		return err
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		a.logger.Error("Failed to create archive directory",
			zap.String("path", dir),
			zap.Error(err))
		return fmt.Errorf("failed to create directories: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".partial-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		a.logger.Error("Failed to move archive file into place",
			zap.String("path", fullPath),
			zap.Error(err))
		return fmt.Errorf("failed to store file: %w", err)
	}

	a.logger.Debug("File archived",
		zap.String("path", fullPath),
		zap.Int("size", len(content)))
	return nil
}

// Read returns the content stored at the relative path
func (a *Archive) Read(ctx context.Context, path string) ([]byte, error) {
	fullPath, err := a.resolve(path)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", port.ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return content, nil
}

// Exists reports whether a regular file is stored at the relative path
func (a *Archive) Exists(ctx context.Context, path string) bool {
	fullPath, err := a.resolve(path)
	if err != nil {
		return false
	}
	info, err := os.Stat(fullPath)
	return err == nil && info.Mode().IsRegular()
}

// GetFullPath converts a relative path to a path under the root
func (a *Archive) GetFullPath(relativePath string) string {
	return filepath.Join(a.root, relativePath)
}

func (a *Archive) resolve(path string) (string, error) {
	absPath, err := filepath.Abs(a.GetFullPath(path))
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	absRoot, err := filepath.Abs(a.root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve archive root: %w", err)
	}
	if !strings.HasPrefix(absPath, absRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapesRoot, path)
	}
	return absPath, nil
}

var _ port.FileStorage = (*Archive)(nil)
