package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pg-manager/config"
)

var (
	ErrUnsupportedType = errors.New("file type not allowed")
	ErrTooLarge        = errors.New("file exceeds maximum size")
	ErrEmpty           = errors.New("file is empty")
)

// Upload categories; each maps to its own directory or key prefix.
const (
	CategoryPaymentProofs = "payment_proofs"
	CategoryMaintenance   = "maintenance"
)

var DefaultAllowedExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".pdf"}

// Backend persists an object under key and returns the path clients should
// store to reference it.
type Backend interface {
	Put(ctx context.Context, key string, body *bytes.Reader, contentType string) (string, error)
}

type StoredFile struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

// FileStore validates uploads and writes them to a Backend under a fresh
// uuid name. Writes happen before any record referencing them is created.
type FileStore struct {
	backend Backend
	maxSize int64
	allowed map[string]bool
}

func NewFileStore(backend Backend, maxSize int64, extensions []string) *FileStore {
	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(ext)] = true
	}
	return &FileStore{backend: backend, maxSize: maxSize, allowed: allowed}
}

func (s *FileStore) Save(ctx context.Context, category, originalName string, r io.Reader) (*StoredFile, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !s.allowed[ext] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if int64(len(data)) > s.maxSize {
		return nil, ErrTooLarge
	}

	name := uuid.NewString() + ext
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	p, err := s.backend.Put(ctx, path.Join(category, name), bytes.NewReader(data), contentType)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}
	return &StoredFile{Filename: name, Path: p}, nil
}

// Open builds the FileStore for the configured backend.
func Open(ctx context.Context, cfg config.UploadConfig, logger *logrus.Logger) (*FileStore, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.Backend {
	case "s3":
		backend, err = NewS3Backend(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3Prefix, logger)
	default:
		backend, err = NewLocalBackend(cfg.Dir, logger)
	}
	if err != nil {
		return nil, err
	}
	return NewFileStore(backend, cfg.MaxFileSize, DefaultAllowedExtensions), nil
}
