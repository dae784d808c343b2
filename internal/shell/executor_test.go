package shell_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"codeberg.org/mutker/gpufreq/internal/errors"
	"codeberg.org/mutker/gpufreq/internal/shell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRunner hands out processes built by next.
type scriptedRunner struct {
	next     func(command string) (shell.Process, error)
	commands []string
}

func (r *scriptedRunner) Start(command string) (shell.Process, error) {
	r.commands = append(r.commands, command)
	return r.next(command)
}

type exitedProcess struct {
	res shell.Result
}

func (p exitedProcess) Wait() (shell.Result, error) { return p.res, nil }
func (exitedProcess) Kill() error                   { return nil }

// hungProcess never exits on its own. When killable, Kill releases Wait.
type hungProcess struct {
	release  chan struct{}
	killable bool
	killed   atomic.Bool
}

func newHungProcess(killable bool) *hungProcess {
	return &hungProcess{release: make(chan struct{}), killable: killable}
}

func (p *hungProcess) Wait() (shell.Result, error) {
	<-p.release
	return shell.Result{ExitCode: -1}, nil
}

func (p *hungProcess) Kill() error {
	if p.killed.CompareAndSwap(false, true) && p.killable {
		close(p.release)
	}
	return nil
}

func TestRunReturnsTrimmedStdout(t *testing.T) {
	runner := &scriptedRunner{next: func(string) (shell.Process, error) {
		return exitedProcess{res: shell.Result{Stdout: "  585000000\n"}}, nil
	}}
	exec := shell.New(runner)

	out, err := exec.Run(context.Background(), "cat /sys/class/kgsl/kgsl-3d0/gpuclk")
	require.NoError(t, err)
	assert.Equal(t, "585000000", out)
	assert.Equal(t, []string{"cat /sys/class/kgsl/kgsl-3d0/gpuclk"}, runner.commands)
}

func TestRunNonZeroExitDropsOutput(t *testing.T) {
	runner := &scriptedRunner{next: func(string) (shell.Process, error) {
		return exitedProcess{res: shell.Result{Stdout: "partial", ExitCode: 1}}, nil
	}}
	exec := shell.New(runner)

	out, err := exec.Run(context.Background(), "cat /missing")
	require.Error(t, err)
	assert.Empty(t, out)
	assert.True(t, errors.HasCode(err, errors.ErrNonZeroExit))
}

func TestRunSpawnFailure(t *testing.T) {
	runner := &scriptedRunner{next: func(string) (shell.Process, error) {
		return nil, assert.AnError
	}}
	exec := shell.New(runner)

	_, err := exec.Run(context.Background(), "id -u")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrSpawn))
}

func TestRunKillsHungProcessOnTimeout(t *testing.T) {
	proc := newHungProcess(true)
	runner := &scriptedRunner{next: func(string) (shell.Process, error) { return proc, nil }}
	timeout := 50 * time.Millisecond
	exec := shell.New(runner, shell.WithTimeout(timeout))

	start := time.Now()
	_, err := exec.Run(context.Background(), "cat /sys/kernel/gpu/gpu_clock")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrTimeout))
	assert.True(t, proc.killed.Load(), "process must be killed on timeout")
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, timeout+200*time.Millisecond)
}

func TestRunBoundedWhenKillIsIgnored(t *testing.T) {
	proc := newHungProcess(false)
	runner := &scriptedRunner{next: func(string) (shell.Process, error) { return proc, nil }}
	exec := shell.New(runner,
		shell.WithTimeout(30*time.Millisecond),
		shell.WithKillGrace(30*time.Millisecond))

	start := time.Now()
	_, err := exec.Run(context.Background(), "cat /proc/gpufreq/gpufreq_var_dump")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrTimeout))
	assert.Less(t, elapsed, 300*time.Millisecond)
}

func TestRunHonoursContext(t *testing.T) {
	proc := newHungProcess(true)
	runner := &scriptedRunner{next: func(string) (shell.Process, error) { return proc, nil }}
	exec := shell.New(runner, shell.WithTimeout(time.Minute))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := exec.Run(ctx, "id -u")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCanceled))
	assert.True(t, proc.killed.Load())
}

func TestConveniences(t *testing.T) {
	outputs := map[string]shell.Result{
		"id -u":                    {Stdout: "0\n"},
		"test -e /sys/class/kgsl":  {},
		"test -e /nope":            {ExitCode: 1},
		"cat /sys/class/kgsl/x":    {Stdout: "42\n"},
		"ls -1 /sys/class/devfreq": {Stdout: "3d00000.qcom,kgsl-3d0\n\nsoc:qcom,cpubw\n"},
		"ls -1 '/sys/with space'":  {Stdout: ""},
	}
	runner := &scriptedRunner{next: func(command string) (shell.Process, error) {
		res, ok := outputs[command]
		if !ok {
			res = shell.Result{ExitCode: 127}
		}
		return exitedProcess{res: res}, nil
	}}
	exec := shell.New(runner)
	ctx := context.Background()

	assert.True(t, exec.HasPrivilege(ctx))
	assert.True(t, exec.FileExists(ctx, "/sys/class/kgsl"))
	assert.False(t, exec.FileExists(ctx, "/nope"))

	content, ok := exec.ReadFile(ctx, "/sys/class/kgsl/x")
	assert.True(t, ok)
	assert.Equal(t, "42", content)

	_, ok = exec.ReadFile(ctx, "/sys/unknown")
	assert.False(t, ok)

	entries, ok := exec.ListDirectory(ctx, "/sys/class/devfreq")
	assert.True(t, ok)
	assert.Equal(t, []string{"3d00000.qcom,kgsl-3d0", "soc:qcom,cpubw"}, entries)

	entries, ok = exec.ListDirectory(ctx, "/sys/with space")
	assert.True(t, ok)
	assert.Empty(t, entries)
}

func TestHasPrivilegeFalseForNonRoot(t *testing.T) {
	runner := &scriptedRunner{next: func(string) (shell.Process, error) {
		return exitedProcess{res: shell.Result{Stdout: "2000\n"}}, nil
	}}
	assert.False(t, shell.New(runner).HasPrivilege(context.Background()))
}
