// Package pid guards against two monitors polling the same device.
package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"codeberg.org/mutker/gpufreq/internal/errors"
	"golang.org/x/sys/unix"
)

const pidFile = "gpufreq.pid"

// DefaultPath is the PID file location in the system temp directory.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), pidFile)
}

// Write records the current process ID at path. It fails with
// ErrAlreadyRunning when path names a live process; a stale or
// unreadable file is replaced.
func Write(path string) error {
	errFactory := errors.New()

	if existing, ok := readPID(path); ok && existing != os.Getpid() && alive(existing) {
		return errFactory.WithData(errors.ErrAlreadyRunning, existing)
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Remove deletes the PID file if it still belongs to this process.
func Remove(path string) error {
	existing, ok := readPID(path)
	if !ok || existing != os.Getpid() {
		return nil
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.New().Wrap(errors.ErrInternal, err)
	}

	return nil
}

func readPID(path string) (int, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// alive probes pid with signal 0. EPERM still means the process exists.
func alive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}
