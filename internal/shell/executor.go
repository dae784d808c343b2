package shell

import (
	"context"
	"strings"
	"time"

	"codeberg.org/mutker/gpufreq/internal/errors"
	"codeberg.org/mutker/gpufreq/internal/logger"
)

const (
	DefaultTimeout   = 2000 * time.Millisecond
	DefaultKillGrace = 250 * time.Millisecond
)

type executor struct {
	runner    Runner
	timeout   time.Duration
	killGrace time.Duration
	logger    logger.Logger
}

// Option configures an Executor.
type Option func(*executor)

// WithTimeout sets the per-call bound. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(e *executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithKillGrace sets how long a killed process is awaited before the call
// gives up on it.
func WithKillGrace(d time.Duration) Option {
	return func(e *executor) {
		if d > 0 {
			e.killGrace = d
		}
	}
}

func WithLogger(log logger.Logger) Option {
	return func(e *executor) {
		if log != nil {
			e.logger = log
		}
	}
}

// New returns an Executor that spawns processes through runner.
func New(runner Runner, opts ...Option) Executor {
	e := &executor{
		runner:    runner,
		timeout:   DefaultTimeout,
		killGrace: DefaultKillGrace,
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type waitResult struct {
	res Result
	err error
}

func (e *executor) Run(ctx context.Context, command string) (string, error) {
	errFactory := errors.New()

	if err := ctx.Err(); err != nil {
		return "", errFactory.Wrap(errors.ErrCanceled, err)
	}

	proc, err := e.runner.Start(command)
	if err != nil {
		e.logger.Debug().Str("command", command).Err(err).Msg("Failed to spawn privileged command")
		return "", errFactory.Wrap(errors.ErrSpawn, err)
	}

	done := make(chan waitResult, 1)
	go func() {
		res, err := proc.Wait()
		done <- waitResult{res: res, err: err}
	}()

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		if r.err != nil {
			return "", errFactory.Wrap(errors.ErrSpawn, r.err)
		}
		if r.res.ExitCode != 0 {
			return "", errFactory.WithData(errors.ErrNonZeroExit, struct {
				Command  string
				ExitCode int
			}{
				Command:  command,
				ExitCode: r.res.ExitCode,
			})
		}
		return strings.TrimSpace(r.res.Stdout), nil
	case <-timer.C:
		e.terminate(proc, done, command)
		e.logger.Debug().
			Str("command", command).
			Dur("timeout", e.timeout).
			Msg("Privileged command timed out")
		return "", errFactory.WithData(errors.ErrTimeout, command)
	case <-ctx.Done():
		e.terminate(proc, done, command)
		return "", errFactory.Wrap(errors.ErrCanceled, ctx.Err())
	}
}

// terminate kills proc and waits a bounded grace period for it to be
// reaped.
func (e *executor) terminate(proc Process, done <-chan waitResult, command string) {
	if err := proc.Kill(); err != nil {
		e.logger.Debug().Str("command", command).Err(err).Msg("Kill failed")
	}

	grace := time.NewTimer(e.killGrace)
	defer grace.Stop()

	select {
	case <-done:
	case <-grace.C:
		e.logger.Warn().Str("command", command).Msg("Process did not exit after kill")
	}
}

func (e *executor) HasPrivilege(ctx context.Context) bool {
	out, err := e.Run(ctx, "id -u")
	if err != nil {
		return false
	}
	return out == "0"
}

func (e *executor) FileExists(ctx context.Context, path string) bool {
	_, err := e.Run(ctx, "test -e "+Quote(path))
	return err == nil
}

func (e *executor) ReadFile(ctx context.Context, path string) (string, bool) {
	out, err := e.Run(ctx, "cat "+Quote(path))
	if err != nil {
		return "", false
	}
	return out, true
}

func (e *executor) ListDirectory(ctx context.Context, path string) ([]string, bool) {
	out, err := e.Run(ctx, "ls -1 "+Quote(path))
	if err != nil {
		return nil, false
	}

	entries := make([]string, 0)
	for _, line := range strings.Split(out, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			entries = append(entries, name)
		}
	}
	return entries, true
}
