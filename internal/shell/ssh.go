package shell

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"codeberg.org/mutker/gpufreq/internal/errors"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
	"golang.org/x/term"
)

const dialTimeout = 10 * time.Second

// DialSSH connects to a remote device. Auth methods are tried in order:
// the target's identity file, the SSH agent, default key files, then an
// interactive password prompt when stdin is a terminal.
func DialSSH(t Target) (*ssh.Client, error) {
	errFactory := errors.New()

	auth := authMethods(t)
	if len(auth) == 0 {
		return nil, errFactory.WithData(errors.ErrConnect, "no authentication methods available")
	}

	hostKeys, err := hostKeyCallback()
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrConnect, err)
	}

	config := &ssh.ClientConfig{
		User:            t.User,
		Auth:            auth,
		HostKeyCallback: hostKeys,
		Timeout:         dialTimeout,
	}

	client, err := ssh.Dial("tcp", t.Addr(), config)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrConnect, fmt.Errorf("dial %s: %w", t.Addr(), err))
	}
	return client, nil
}

func authMethods(t Target) []ssh.AuthMethod {
	var methods []ssh.AuthMethod

	if t.IdentityFile != "" {
		if m, err := publicKeyAuth(t.IdentityFile); err == nil {
			methods = append(methods, m)
		}
	}

	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if conn, err := net.Dial("unix", sock); err == nil {
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		for _, name := range []string{"id_ed25519", "id_ecdsa", "id_rsa"} {
			path := filepath.Join(home, ".ssh", name)
			if path == t.IdentityFile {
				continue
			}
			if m, err := publicKeyAuth(path); err == nil {
				methods = append(methods, m)
			}
		}
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		methods = append(methods, ssh.PasswordCallback(func() (string, error) {
			fmt.Fprintf(os.Stderr, "Password for %s@%s: ", t.User, t.Host)
			pw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Fprintln(os.Stderr)
			return string(pw), err
		}))
	}

	return methods
}

func publicKeyAuth(path string) (ssh.AuthMethod, error) {
	key, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, err
	}
	return ssh.PublicKeys(signer), nil
}

func hostKeyCallback() (ssh.HostKeyCallback, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("unable to get user home directory: %w", err)
	}

	path := filepath.Join(home, ".ssh", "known_hosts")
	callback, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("unable to load known_hosts: %w", err)
	}

	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := callback(hostname, remote, key)
		if keyErr, ok := err.(*knownhosts.KeyError); ok {
			if len(keyErr.Want) > 0 {
				return fmt.Errorf("host key for %s has changed; remove the old key from %s if you trust this device", hostname, path)
			}
			return fmt.Errorf("%s is not in %s; run 'ssh %s' once to accept its key", hostname, path, hostname)
		}
		return err
	}, nil
}

// SSHRunner runs each command in its own session on a shared client.
type SSHRunner struct {
	client *ssh.Client
	prefix string
}

// NewSSHRunner wraps commands with prefix (for example "su -c") before
// sending them to the remote shell.
func NewSSHRunner(client *ssh.Client, prefix []string) *SSHRunner {
	if len(prefix) == 0 {
		prefix = DefaultPrivilegeCommand
	}
	return &SSHRunner{client: client, prefix: strings.Join(prefix, " ")}
}

func (r *SSHRunner) Start(command string) (Process, error) {
	sess, err := r.client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("ssh session: %w", err)
	}

	stdout := &bytes.Buffer{}
	sess.Stdout = stdout

	if err := sess.Start(r.prefix + " " + Quote(command)); err != nil {
		sess.Close()
		return nil, err
	}

	return &sshProcess{sess: sess, stdout: stdout}, nil
}

type sshProcess struct {
	sess   *ssh.Session
	stdout *bytes.Buffer
	once   sync.Once
	res    Result
	err    error
}

func (p *sshProcess) Wait() (Result, error) {
	p.once.Do(func() {
		err := p.sess.Wait()
		defer p.sess.Close()

		var exitErr *ssh.ExitError
		switch {
		case errors.As(err, &exitErr):
			p.res = Result{Stdout: p.stdout.String(), ExitCode: exitErr.ExitStatus()}
		case err != nil:
			p.err = err
		default:
			p.res = Result{Stdout: p.stdout.String()}
		}
	})
	return p.res, p.err
}

func (p *sshProcess) Kill() error {
	_ = p.sess.Signal(ssh.SIGKILL)
	return p.sess.Close()
}
