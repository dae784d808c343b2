package history

import (
	"path/filepath"
	"time"

	"codeberg.org/mutker/gpufreq/internal/errors"
)

const (
	defaultDirPerm      = 0o755
	defaultDBPath       = "/var/lib/gpufreq/history.db"
	defaultBatchSize    = 20
	defaultBatchTimeout = 10 * time.Second
	defaultMaxPending   = 1000
)

type Config struct {
	Enabled      bool
	DBPath       string
	BatchSize    int
	BatchTimeout time.Duration
	// BackupDir receives a copy of the database before an incompatible
	// schema is replaced. Empty means a backups directory next to DBPath.
	BackupDir string
	// MaxPending bounds the entries held while the database rejects
	// writes. The oldest are dropped first. Zero means the default.
	MaxPending int
}

func DefaultConfig() Config {
	return Config{
		DBPath:       defaultDBPath,
		BatchSize:    defaultBatchSize,
		BatchTimeout: defaultBatchTimeout,
		MaxPending:   defaultMaxPending,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if !c.Enabled {
		return nil
	}
	if c.DBPath == "" {
		return errFactory.New(ErrInvalidDBPath)
	}
	if c.BatchSize < 1 {
		return errFactory.WithMessage(ErrInvalidConfig, "history batch size must be at least 1")
	}
	if c.BatchTimeout < 0 {
		return errFactory.WithMessage(ErrInvalidConfig, "history batch timeout must not be negative")
	}
	return nil
}

func (c Config) backupDir() string {
	if c.BackupDir != "" {
		return c.BackupDir
	}
	return filepath.Join(filepath.Dir(c.DBPath), "backups")
}

func (c Config) maxPending() int {
	n := c.MaxPending
	if n <= 0 {
		n = defaultMaxPending
	}
	if n < c.BatchSize {
		n = c.BatchSize
	}
	return n
}
