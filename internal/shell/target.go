package shell

import (
	"net"
	"net/url"
	"os"

	"codeberg.org/mutker/gpufreq/internal/errors"
)

// Target names the device to probe. A zero Target means this host.
type Target struct {
	User         string
	Host         string
	Port         string
	IdentityFile string
}

// IsRemote reports whether t points at another host.
func (t Target) IsRemote() bool {
	return t.Host != ""
}

// Addr returns host:port for dialing.
func (t Target) Addr() string {
	port := t.Port
	if port == "" {
		port = "22"
	}
	return net.JoinHostPort(t.Host, port)
}

// ParseTarget parses "" (local) or ssh://user@host[:port].
func ParseTarget(raw string) (Target, error) {
	errFactory := errors.New()

	if raw == "" || raw == "local" {
		return Target{}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, errFactory.Wrap(errors.ErrInvalidTarget, err)
	}
	if u.Scheme != "ssh" {
		return Target{}, errFactory.WithData(errors.ErrInvalidTarget, "expected ssh:// scheme, got "+u.Scheme)
	}
	if u.Hostname() == "" {
		return Target{}, errFactory.WithData(errors.ErrInvalidTarget, "missing host")
	}

	user := u.User.Username()
	if user == "" {
		user = os.Getenv("USER")
	}
	port := u.Port()
	if port == "" {
		port = "22"
	}

	return Target{User: user, Host: u.Hostname(), Port: port}, nil
}
