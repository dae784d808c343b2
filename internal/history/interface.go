package history

import (
	"context"
	"time"

	"codeberg.org/mutker/gpufreq/internal/gpufreq"
)

// Recorder persists reader states.
type Recorder interface {
	Record(ctx context.Context, state gpufreq.State) error
	// Recent returns up to limit stored entries, newest first.
	Recent(limit int) ([]Entry, error)
	Close() error
}

// Repository stores entries in batches.
type Repository interface {
	Record(entry *Entry) error
	Recent(limit int) ([]Entry, error)
	Close() error
}

// Entry is one stored state. Frequency fields are zero and AvailableMHz
// is nil unless the state was available.
type Entry struct {
	Timestamp    time.Time
	State        string
	CurrentMHz   int
	MaxMHz       int
	MinMHz       int
	AvailableMHz []int
	Governor     string
	Vendor       string
	SourcePath   string
	Message      string
}
