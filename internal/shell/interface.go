package shell

import "context"

// Result is what a finished process reports.
type Result struct {
	Stdout   string
	ExitCode int
}

// Process is one spawned command. Wait blocks until the process exits or
// is killed; Kill forces termination and may be called concurrently with
// Wait.
type Process interface {
	Wait() (Result, error)
	Kill() error
}

// Runner spawns exactly one privileged process per command.
type Runner interface {
	Start(command string) (Process, error)
}

// Executor runs commands and file probes under elevated privilege. Every
// call is bounded by the executor's timeout.
type Executor interface {
	// Run executes command and returns its trimmed stdout. Non-zero exit,
	// spawn failure and timeout are all errors; partial output is dropped.
	Run(ctx context.Context, command string) (string, error)

	// HasPrivilege reports whether privileged commands run as root.
	HasPrivilege(ctx context.Context) bool

	FileExists(ctx context.Context, path string) bool
	ReadFile(ctx context.Context, path string) (string, bool)
	ListDirectory(ctx context.Context, path string) ([]string, bool)
}
