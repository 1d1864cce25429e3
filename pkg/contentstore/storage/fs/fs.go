package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/tendant/roastery-portal/pkg/contentstore"
)

// Backend is a filesystem implementation of the contentstore.BlobStore interface.
// Each key is stored as <BaseDir>/<key>.json.
type Backend struct {
	mu       sync.RWMutex
	baseDir  string
	maxBytes int64
}

// Config options for the filesystem backend
type Config struct {
	BaseDir  string // Base directory for storing blobs
	MaxBytes int64  // Optional per-blob size limit; zero means unlimited
}

// New creates a new filesystem storage backend
func New(config Config) (*Backend, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Backend{
		baseDir:  config.BaseDir,
		maxBytes: config.MaxBytes,
	}, nil
}

func (b *Backend) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(b.baseDir, key+".json"), nil
}

// Get reads the blob stored under key
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	filePath, err := b.path(key)
	if err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	data, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return nil, contentstore.ErrBlobNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// Put writes value to a temporary file and renames it over the blob
func (b *Backend) Put(ctx context.Context, key string, value []byte) error {
	filePath, err := b.path(key)
	if err != nil {
		return err
	}
	if b.maxBytes > 0 && int64(len(value)) > b.maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds limit %d", contentstore.ErrQuotaExceeded, len(value), b.maxBytes)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	tmp, err := os.CreateTemp(b.baseDir, "."+key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", mapDiskFull(err))
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file: %w", mapDiskFull(err))
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", mapDiskFull(err))
	}
	if err := os.Rename(tmpName, filePath); err != nil {
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}

// Delete removes the blob. A missing blob is not an error.
func (b *Backend) Delete(ctx context.Context, key string) error {
	filePath, err := b.path(key)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func mapDiskFull(err error) error {
	if errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EDQUOT) {
		return fmt.Errorf("%w: %v", contentstore.ErrQuotaExceeded, err)
	}
	return err
}
