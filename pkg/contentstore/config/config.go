// Package config assembles a contentstore.Store and its backends from
// functional options and environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/tendant/roastery-portal/pkg/contentstore"
	"github.com/tendant/roastery-portal/pkg/contentstore/events"
	fsstorage "github.com/tendant/roastery-portal/pkg/contentstore/storage/fs"
	memorystorage "github.com/tendant/roastery-portal/pkg/contentstore/storage/memory"
	s3storage "github.com/tendant/roastery-portal/pkg/contentstore/storage/s3"
	"github.com/tendant/roastery-portal/pkg/contentstore/storage/sqlstore"
)

// Storage types
const (
	StorageMemory   = "memory"
	StorageFS       = "fs"
	StorageS3       = "s3"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Option applies configuration to a Config instance.
type Option func(*Config) error

// Load constructs a Config by applying the supplied options on top of defaults.
func Load(opts ...Option) (*Config, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() Config {
	return Config{
		Port:          "8080",
		Environment:   "development",
		StorageKey:    contentstore.DefaultStorageKey,
		AutoSaveDelay: contentstore.DefaultAutoSaveDelay,
		Storage:       StorageConfig{Type: StorageMemory},
	}
}

// Config represents the portal's runtime configuration
type Config struct {
	Port        string
	Environment string // development, production, testing

	StorageKey    string
	AutoSaveDelay time.Duration
	Storage       StorageConfig

	// NATSURL enables lifecycle events when set
	NATSURL string
}

// StorageConfig selects and configures the blob backend
type StorageConfig struct {
	Type string // memory, fs, s3, sqlite, postgres

	// QuotaBytes caps a single stored document. Zero means unlimited.
	QuotaBytes int64

	BaseDir string           // fs
	S3      s3storage.Config // s3
	DSN     string           // sqlite file path or postgres URL
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	if c.StorageKey == "" {
		return errors.New("storage key is required")
	}
	if c.AutoSaveDelay <= 0 {
		return fmt.Errorf("auto-save delay must be positive, got %s", c.AutoSaveDelay)
	}
	if c.Storage.QuotaBytes < 0 {
		return errors.New("storage quota cannot be negative")
	}

	switch c.Storage.Type {
	case StorageMemory:
	case StorageFS:
		if c.Storage.BaseDir == "" {
			return errors.New("base directory is required for fs storage")
		}
	case StorageS3:
		if c.Storage.S3.Bucket == "" {
			return errors.New("bucket is required for s3 storage")
		}
	case StorageSQLite, StoragePostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("dsn is required for %s storage", c.Storage.Type)
		}
	default:
		return fmt.Errorf("unsupported storage type: %q", c.Storage.Type)
	}
	return nil
}

// BuildBlobStore creates the configured backend. Backends holding
// connections also implement io.Closer.
func (c *Config) BuildBlobStore(ctx context.Context) (contentstore.BlobStore, error) {
	switch c.Storage.Type {
	case StorageMemory:
		var opts []memorystorage.Option
		if c.Storage.QuotaBytes > 0 {
			opts = append(opts, memorystorage.WithCapacity(int(c.Storage.QuotaBytes)))
		}
		return memorystorage.New(opts...), nil
	case StorageFS:
		backend, err := fsstorage.New(fsstorage.Config{
			BaseDir:  c.Storage.BaseDir,
			MaxBytes: c.Storage.QuotaBytes,
		})
		if err != nil {
			return nil, err
		}
		return backend, nil
	case StorageS3:
		s3cfg := c.Storage.S3
		if c.Storage.QuotaBytes > 0 {
			s3cfg.MaxBytes = c.Storage.QuotaBytes
		}
		backend, err := s3storage.New(ctx, s3cfg)
		if err != nil {
			return nil, err
		}
		return backend, nil
	case StorageSQLite, StoragePostgres:
		dialect := sqlstore.DialectSQLite
		if c.Storage.Type == StoragePostgres {
			dialect = sqlstore.DialectPostgres
		}
		backend, err := sqlstore.Open(ctx, dialect, c.Storage.DSN)
		if err != nil {
			return nil, err
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %q", c.Storage.Type)
	}
}

// BuildEventSink connects to NATS when configured, otherwise it returns a no-op sink.
func (c *Config) BuildEventSink() (contentstore.EventSink, error) {
	if c.NATSURL == "" {
		return contentstore.NewNoopEventSink(), nil
	}
	sink, err := events.Connect(c.NATSURL)
	if err != nil {
		return nil, err
	}
	return sink, nil
}

// Runtime is a built Store together with the resources backing it.
type Runtime struct {
	Store     *contentstore.Store
	Documents *contentstore.Documents

	closers []io.Closer
}

// Close releases backend connections.
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BuildStore wires the blob backend, event sink and notifier into a Store.
// The persisted document is loaded before BuildStore returns.
func (c *Config) BuildStore(ctx context.Context, registry contentstore.TypeRegistry, notifier contentstore.Notifier, logger *slog.Logger, opts ...contentstore.Option) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rt := &Runtime{}

	blobs, err := c.BuildBlobStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s storage: %w", c.Storage.Type, err)
	}
	if closer, ok := blobs.(io.Closer); ok {
		rt.closers = append(rt.closers, closer)
	}

	sink, err := c.BuildEventSink()
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to build event sink: %w", err)
	}
	if closer, ok := sink.(io.Closer); ok {
		rt.closers = append(rt.closers, closer)
	}

	rt.Documents = contentstore.NewDocuments(blobs, contentstore.DocumentsConfig{
		Key:      c.StorageKey,
		Notifier: notifier,
		Logger:   logger,
	})

	storeOpts := []contentstore.Option{
		contentstore.WithAutoSaveDelay(c.AutoSaveDelay),
		contentstore.WithEventSink(sink),
		contentstore.WithLogger(logger),
	}
	rt.Store = contentstore.New(rt.Documents, registry, append(storeOpts, opts...)...)

	logger.InfoContext(ctx, "content store ready",
		"storage", c.Storage.Type,
		"key", c.StorageKey,
		"entries", rt.Store.TotalEntryCount(),
		"events", c.NATSURL != "")
	return rt, nil
}
