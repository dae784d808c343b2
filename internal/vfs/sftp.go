package vfs

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// DefaultTimeout bounds a single SFTP operation.
const DefaultTimeout = 2 * time.Second

// SFTP implements FS over an existing SSH connection. The SFTP session
// is opened on first use. An operation that outlives its timeout tears
// the session down and the next call opens a fresh one. Closing it leaves
// the SSH client open for the caller.
type SFTP struct {
	open    func() (*sftp.Client, error)
	timeout time.Duration

	mu     sync.Mutex
	client *sftp.Client
	closed bool
}

func NewSFTP(sshc *ssh.Client, timeout time.Duration) *SFTP {
	return newSFTP(func() (*sftp.Client, error) {
		return sftp.NewClient(sshc)
	}, timeout)
}

func newSFTP(open func() (*sftp.Client, error), timeout time.Duration) *SFTP {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &SFTP{open: open, timeout: timeout}
}

func (s *SFTP) Close() error {
	s.mu.Lock()
	s.closed = true
	c := s.client
	s.client = nil
	s.mu.Unlock()

	if c == nil {
		return nil
	}
	return c.Close()
}

func (s *SFTP) Exists(ctx context.Context, path string) bool {
	_, err := s.do(ctx, func(c *sftp.Client) (string, error) {
		_, err := c.Stat(path)
		return "", err
	})
	return err == nil
}

func (s *SFTP) ReadFile(ctx context.Context, path string) (string, error) {
	return s.do(ctx, func(c *sftp.Client) (string, error) {
		f, err := c.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		return readLimited(f)
	})
}

func (s *SFTP) IsRemote() bool { return true }

type sftpResult struct {
	out string
	err error
}

// do runs op on the session, giving up after the timeout or when ctx
// ends. An abandoned op keeps its goroutine until the session close
// unblocks it.
func (s *SFTP) do(ctx context.Context, op func(*sftp.Client) (string, error)) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan sftpResult, 1)
	go func() {
		c, err := s.session()
		if err != nil {
			done <- sftpResult{err: err}
			return
		}
		out, err := op(c)
		done <- sftpResult{out: out, err: err}
	}()

	select {
	case r := <-done:
		return r.out, r.err
	case <-ctx.Done():
		s.reset()
		return "", fmt.Errorf("sftp: %w", ctx.Err())
	}
}

func (s *SFTP) session() (*sftp.Client, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, fmt.Errorf("sftp: %w", os.ErrClosed)
	}
	if c := s.client; c != nil {
		s.mu.Unlock()
		return c, nil
	}
	s.mu.Unlock()

	c, err := s.open()
	if err != nil {
		return nil, fmt.Errorf("sftp session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed:
		c.Close()
		return nil, fmt.Errorf("sftp: %w", os.ErrClosed)
	case s.client != nil:
		c.Close()
		return s.client, nil
	}
	s.client = c
	return c, nil
}

// reset drops the current session. The close runs in the background
// because it writes to the same stalled connection.
func (s *SFTP) reset() {
	s.mu.Lock()
	c := s.client
	s.client = nil
	s.mu.Unlock()

	if c != nil {
		go c.Close()
	}
}
