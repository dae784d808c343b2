// Package history records frequency readings to a local SQLite database.
package history

import (
	"context"
	"time"

	"codeberg.org/mutker/gpufreq/internal/errors"
	"codeberg.org/mutker/gpufreq/internal/gpufreq"
	"codeberg.org/mutker/gpufreq/internal/logger"
)

type service struct {
	repo Repository
	cfg  Config
}

type noopRecorder struct{}

var timeNow = time.Now

// NewService returns a Recorder backed by SQLite, or a no-op Recorder
// when history is disabled.
func NewService(cfg Config, log logger.Logger) (Recorder, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	if !cfg.Enabled {
		log.Debug().Msg("History disabled, using no-op recorder")
		return &noopRecorder{}, nil
	}

	repo, err := NewRepository(cfg, log)
	if err != nil {
		log.Debug().Err(err).Msg("Failed to create history repository")
		return nil, err
	}

	return &service{repo: repo, cfg: cfg}, nil
}

func (s *service) Record(ctx context.Context, state gpufreq.State) error {
	errFactory := errors.New()

	if state == nil {
		return errFactory.New(ErrInvalidState)
	}

	select {
	case <-ctx.Done():
		return errFactory.Wrap(ErrOperationCanceled, ctx.Err())
	default:
	}

	if err := s.repo.Record(EntryFromState(state)); err != nil {
		return errFactory.Wrap(ErrRecord, err)
	}
	return nil
}

func (s *service) Recent(limit int) ([]Entry, error) {
	return s.repo.Recent(limit)
}

func (s *service) Close() error {
	if err := s.repo.Close(); err != nil {
		return errors.New().Wrap(errors.ErrShutdownFailed, err)
	}
	return nil
}

// EntryFromState flattens a reader state into a row.
func EntryFromState(state gpufreq.State) *Entry {
	e := &Entry{State: state.Kind()}

	switch st := state.(type) {
	case gpufreq.Available:
		s := st.Sample
		e.Timestamp = s.Timestamp
		e.CurrentMHz = s.CurrentMHz
		e.MaxMHz = s.MaxMHz
		e.MinMHz = s.MinMHz
		e.AvailableMHz = s.AvailableMHz
		e.Governor = s.Governor
		e.Vendor = s.Vendor.String()
		e.SourcePath = s.SourcePath
	case gpufreq.Error:
		e.Message = st.Message
	}

	if e.Timestamp.IsZero() {
		e.Timestamp = timeNow()
	}
	return e
}

func (*noopRecorder) Record(_ context.Context, _ gpufreq.State) error {
	return nil
}

func (*noopRecorder) Recent(_ int) ([]Entry, error) {
	return nil, nil
}

func (*noopRecorder) Close() error {
	return nil
}
