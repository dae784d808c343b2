// Package vfs gives the unprivileged reader read-only access to sysfs and
// procfs, either on this host or on a remote device over SFTP.
package vfs

import (
	"context"
	"io"
)

// MaxFileSize caps how much of a file is read. Kernel attribute files
// are small; anything larger is not a frequency.
const MaxFileSize = 64 << 10

// FS is the read-only filesystem surface the fallback reader uses.
// Paths are absolute device paths. Implementations return once ctx is
// done even if the underlying transport has stalled.
type FS interface {
	Exists(ctx context.Context, path string) bool
	ReadFile(ctx context.Context, path string) (string, error)

	// IsRemote returns true when the FS operates over a network.
	IsRemote() bool
}

func readLimited(r io.Reader) (string, error) {
	b, err := io.ReadAll(io.LimitReader(r, MaxFileSize))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
