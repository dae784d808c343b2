package vfs

import (
	"context"
	"os"
	"path/filepath"
)

// Local implements FS over the host filesystem. A non-empty root is
// prepended to every path, which lets tests point the reader at a
// synthetic tree.
type Local struct {
	root string
}

func NewLocal(root string) *Local {
	return &Local{root: root}
}

func (l *Local) resolve(path string) string {
	if l.root == "" {
		return path
	}
	return filepath.Join(l.root, path)
}

func (l *Local) Exists(ctx context.Context, path string) bool {
	if ctx.Err() != nil {
		return false
	}
	_, err := os.Stat(l.resolve(path))
	return err == nil
}

func (l *Local) ReadFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f, err := os.Open(l.resolve(path))
	if err != nil {
		return "", err
	}
	defer f.Close()
	return readLimited(f)
}

func (l *Local) IsRemote() bool { return false }
