package shell_test

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"codeberg.org/mutker/gpufreq/internal/errors"
	"codeberg.org/mutker/gpufreq/internal/shell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShExecutor(t *testing.T, timeout time.Duration) shell.Executor {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	return shell.New(shell.NewLocalRunner([]string{"sh", "-c"}), shell.WithTimeout(timeout))
}

func TestLocalRunnerSuccess(t *testing.T) {
	e := newShExecutor(t, 5*time.Second)

	out, err := e.Run(context.Background(), "echo 19200000")
	require.NoError(t, err)
	assert.Equal(t, "19200000", out)
}

func TestLocalRunnerExitCode(t *testing.T) {
	e := newShExecutor(t, 5*time.Second)

	_, err := e.Run(context.Background(), "exit 3")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrNonZeroExit))
}

func TestLocalRunnerKillsProcessGroup(t *testing.T) {
	e := newShExecutor(t, 100*time.Millisecond)

	start := time.Now()
	_, err := e.Run(context.Background(), "sleep 30 & sleep 30; echo done")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrTimeout))
	assert.Less(t, elapsed, 2*time.Second)
}

func TestLocalRunnerFileProbes(t *testing.T) {
	e := newShExecutor(t, 5*time.Second)
	ctx := context.Background()
	dir := t.TempDir()

	_, err := e.Run(ctx, "mkdir -p "+shell.Quote(dir+"/kgsl-3d0")+" && printf '305000000\\n' > "+shell.Quote(dir+"/kgsl-3d0/gpuclk"))
	require.NoError(t, err)

	assert.True(t, e.FileExists(ctx, dir+"/kgsl-3d0/gpuclk"))
	assert.False(t, e.FileExists(ctx, dir+"/kgsl-3d0/missing"))

	content, ok := e.ReadFile(ctx, dir+"/kgsl-3d0/gpuclk")
	require.True(t, ok)
	assert.Equal(t, "305000000", content)

	entries, ok := e.ListDirectory(ctx, dir)
	require.True(t, ok)
	assert.Equal(t, []string{"kgsl-3d0"}, entries)
}
