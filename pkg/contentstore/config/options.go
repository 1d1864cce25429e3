package config

import (
	"fmt"
	"time"

	s3storage "github.com/tendant/roastery-portal/pkg/contentstore/storage/s3"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *Config) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *Config) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithStorageKey sets the key the document is stored under
func WithStorageKey(key string) Option {
	return func(c *Config) error {
		if key == "" {
			return fmt.Errorf("storage key cannot be empty")
		}
		c.StorageKey = key
		return nil
	}
}

// WithAutoSaveDelay sets the coalescing delay
func WithAutoSaveDelay(d time.Duration) Option {
	return func(c *Config) error {
		if d <= 0 {
			return fmt.Errorf("auto-save delay must be positive, got %s", d)
		}
		c.AutoSaveDelay = d
		return nil
	}
}

// WithQuota caps the stored document size in bytes
func WithQuota(bytes int64) Option {
	return func(c *Config) error {
		if bytes < 0 {
			return fmt.Errorf("quota cannot be negative")
		}
		c.Storage.QuotaBytes = bytes
		return nil
	}
}

// WithMemoryStorage selects the in-memory backend
func WithMemoryStorage() Option {
	return func(c *Config) error {
		c.Storage = StorageConfig{Type: StorageMemory, QuotaBytes: c.Storage.QuotaBytes}
		return nil
	}
}

// WithFilesystemStorage stores the document under baseDir
func WithFilesystemStorage(baseDir string) Option {
	return func(c *Config) error {
		if baseDir == "" {
			return fmt.Errorf("filesystem base directory cannot be empty")
		}
		c.Storage = StorageConfig{Type: StorageFS, BaseDir: baseDir, QuotaBytes: c.Storage.QuotaBytes}
		return nil
	}
}

// WithS3Storage stores the document in an S3 bucket
func WithS3Storage(s3cfg s3storage.Config) Option {
	return func(c *Config) error {
		if s3cfg.Bucket == "" {
			return fmt.Errorf("s3 bucket cannot be empty")
		}
		c.Storage = StorageConfig{Type: StorageS3, S3: s3cfg, QuotaBytes: c.Storage.QuotaBytes}
		return nil
	}
}

// WithSQLiteStorage stores the document in a SQLite file
func WithSQLiteStorage(path string) Option {
	return func(c *Config) error {
		if path == "" {
			return fmt.Errorf("sqlite path cannot be empty")
		}
		c.Storage = StorageConfig{Type: StorageSQLite, DSN: path, QuotaBytes: c.Storage.QuotaBytes}
		return nil
	}
}

// WithPostgresStorage stores the document in Postgres
func WithPostgresStorage(url string) Option {
	return func(c *Config) error {
		if url == "" {
			return fmt.Errorf("postgres url cannot be empty")
		}
		c.Storage = StorageConfig{Type: StoragePostgres, DSN: url, QuotaBytes: c.Storage.QuotaBytes}
		return nil
	}
}

// WithNATS enables lifecycle events on the given server
func WithNATS(url string) Option {
	return func(c *Config) error {
		c.NATSURL = url
		return nil
	}
}
