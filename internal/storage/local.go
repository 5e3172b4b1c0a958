package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// LocalBackend writes uploads below a base directory.
type LocalBackend struct {
	basePath string
	logger   *logrus.Logger
}

func NewLocalBackend(basePath string, logger *logrus.Logger) (*LocalBackend, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path is required for local storage")
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &LocalBackend{basePath: basePath, logger: logger}, nil
}

func (b *LocalBackend) Put(ctx context.Context, key string, body *bytes.Reader, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fullPath := filepath.Join(b.basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, body); err != nil {
		return "", fmt.Errorf("failed to write content: %w", err)
	}

	b.logger.WithField("path", fullPath).Debug("Stored upload on local filesystem")
	return filepath.ToSlash(fullPath), nil
}
