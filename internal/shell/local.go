package shell

import (
	"bytes"
	"errors"
	"os/exec"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

// DefaultPrivilegeCommand is prepended to every command. The command text
// is passed as a single argument.
var DefaultPrivilegeCommand = []string{"su", "-c"}

// LocalRunner spawns commands on this host through a privilege wrapper
// such as "su -c".
type LocalRunner struct {
	prefix []string
}

// NewLocalRunner returns a LocalRunner using prefix, or
// DefaultPrivilegeCommand when prefix is empty.
func NewLocalRunner(prefix []string) *LocalRunner {
	if len(prefix) == 0 {
		prefix = DefaultPrivilegeCommand
	}
	return &LocalRunner{prefix: append([]string(nil), prefix...)}
}

// ParsePrivilegeCommand splits a configured wrapper like "su -c".
func ParsePrivilegeCommand(s string) []string {
	return strings.Fields(s)
}

func (r *LocalRunner) Start(command string) (Process, error) {
	argv := append(append([]string(nil), r.prefix...), command)

	cmd := exec.Command(argv[0], argv[1:]...)
	stdout := &bytes.Buffer{}
	cmd.Stdout = stdout
	cmd.WaitDelay = DefaultKillGrace
	configureCmd(cmd)

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return &localProcess{cmd: cmd, stdout: stdout}, nil
}

type localProcess struct {
	cmd    *exec.Cmd
	stdout *bytes.Buffer
	once   sync.Once
	res    Result
	err    error
}

func (p *localProcess) Wait() (Result, error) {
	p.once.Do(func() {
		err := p.cmd.Wait()

		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr):
			p.res = Result{Stdout: p.stdout.String(), ExitCode: exitErr.ExitCode()}
		case err != nil:
			p.err = err
		default:
			p.res = Result{Stdout: p.stdout.String()}
		}
	})
	return p.res, p.err
}

// Kill sends SIGKILL to the whole process group so children of the
// privilege wrapper die with it.
func (p *localProcess) Kill() error {
	pid := p.cmd.Process.Pid
	err := unix.Kill(-pid, unix.SIGKILL)
	if err == nil || errors.Is(err, unix.ESRCH) {
		return nil
	}
	return p.cmd.Process.Kill()
}
