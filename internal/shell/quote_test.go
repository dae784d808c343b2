package shell_test

import (
	"testing"

	"codeberg.org/mutker/gpufreq/internal/shell"
	"github.com/stretchr/testify/assert"
)

func TestQuote(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "''"},
		{"/sys/class/kgsl/kgsl-3d0/gpuclk", "/sys/class/kgsl/kgsl-3d0/gpuclk"},
		{"/sys/devices/platform/13000000.mali", "/sys/devices/platform/13000000.mali"},
		{"/path with space", "'/path with space'"},
		{"it's", `'it'\''s'`},
		{"/sys/*/x", "'/sys/*/x'"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, shell.Quote(tt.in), tt.in)
	}
}

func TestParseTarget(t *testing.T) {
	local, err := shell.ParseTarget("")
	assert.NoError(t, err)
	assert.False(t, local.IsRemote())

	remote, err := shell.ParseTarget("ssh://shell@192.168.1.20:8022")
	assert.NoError(t, err)
	assert.True(t, remote.IsRemote())
	assert.Equal(t, "shell", remote.User)
	assert.Equal(t, "192.168.1.20:8022", remote.Addr())

	defaultPort, err := shell.ParseTarget("ssh://root@phone")
	assert.NoError(t, err)
	assert.Equal(t, "phone:22", defaultPort.Addr())

	_, err = shell.ParseTarget("adb://device")
	assert.Error(t, err)

	_, err = shell.ParseTarget("ssh:///nohost")
	assert.Error(t, err)
}

func TestParsePrivilegeCommand(t *testing.T) {
	assert.Equal(t, []string{"su", "-c"}, shell.ParsePrivilegeCommand(" su  -c "))
	assert.Equal(t, []string{"sudo", "-n", "sh", "-c"}, shell.ParsePrivilegeCommand("sudo -n sh -c"))
}
