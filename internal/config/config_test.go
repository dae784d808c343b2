package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/gpufreq/internal/config"
	"codeberg.org/mutker/gpufreq/internal/errors"
	"codeberg.org/mutker/gpufreq/internal/logger"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPrefix = "GPUFREQ_TEST"

// load isolates a test from the host's /etc file and environment.
func load(t *testing.T, args []string, opts ...config.Option) (*config.Config, error) {
	t.Helper()
	t.Setenv(testPrefix+"_CONFIG", "")
	base := []config.Option{
		config.WithEnvPrefix(testPrefix),
		config.WithDefaultConfigFile(filepath.Join(t.TempDir(), "absent.toml")),
	}
	return config.Load(args, append(base, opts...)...)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gpufreq.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(t, nil)
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.Interval)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, 5*time.Second, cfg.CacheTTL)
	assert.False(t, cfg.Once)
	assert.Empty(t, cfg.Target)
	assert.Equal(t, "su -c", cfg.PrivilegeCommand)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, "/var/lib/gpufreq/history.db", cfg.History.DBPath)
	assert.Equal(t, 20, cfg.History.BatchSize)
	assert.Empty(t, cfg.ConfigFile)
	assert.Equal(t, logger.WarnLevel, cfg.Level())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
interval = "1s"
timeout = "750ms"
cache_ttl = "10s"
target = "ssh://root@phone:8022"
privilege_command = "sudo sh -c"
log_level = "info"

[history]
enabled = true
db_path = "/tmp/gpufreq-test/history.db"
batch_size = 5
batch_timeout = "30s"

[catalog.extra.mali]
current = ["/sys/devices/platform/gpu/cur_freq"]
`)

	cfg, err := load(t, nil, config.WithConfigFile(path))
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, time.Second, cfg.Interval)
	assert.Equal(t, 750*time.Millisecond, cfg.Timeout)
	assert.Equal(t, 10*time.Second, cfg.CacheTTL)
	assert.Equal(t, "sudo sh -c", cfg.PrivilegeCommand)
	assert.Equal(t, logger.InfoLevel, cfg.Level())

	target := cfg.ShellTarget()
	assert.Equal(t, "phone", target.Host)
	assert.Equal(t, "8022", target.Port)

	hist := cfg.HistoryConfig()
	assert.True(t, hist.Enabled)
	assert.Equal(t, "/tmp/gpufreq-test/history.db", hist.DBPath)
	assert.Equal(t, 5, hist.BatchSize)
	assert.Equal(t, 30*time.Second, hist.BatchTimeout)

	assert.Equal(t, []string{"/sys/devices/platform/gpu/cur_freq"}, cfg.Catalog.Extra["mali"]["current"])
}

func TestPrecedence(t *testing.T) {
	path := writeConfig(t, `
interval = "1s"
timeout = "1s"
log_level = "info"
`)
	t.Setenv(testPrefix+"_TIMEOUT", "3s")
	t.Setenv(testPrefix+"_LOG_LEVEL", "error")

	cfg, err := load(t, []string{"--config", path, "--log-level", "debug"})
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.Interval, "file beats default")
	assert.Equal(t, 3*time.Second, cfg.Timeout, "env beats file")
	assert.Equal(t, "debug", cfg.LogLevel, "flag beats env")
}

func TestEnvNestedKey(t *testing.T) {
	t.Setenv(testPrefix+"_HISTORY_ENABLED", "true")
	t.Setenv(testPrefix+"_HISTORY_DB_PATH", "/tmp/h.db")

	cfg, err := load(t, nil)
	require.NoError(t, err)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "/tmp/h.db", cfg.History.DBPath)
}

func TestConfigFromEnvironmentPath(t *testing.T) {
	path := writeConfig(t, `once = true`)

	t.Setenv(testPrefix+"_CONFIG", path)
	cfg, err := config.Load(nil, config.WithEnvPrefix(testPrefix))
	require.NoError(t, err)
	assert.True(t, cfg.Once)
	assert.Equal(t, path, cfg.ConfigFile)
}

func TestFlags(t *testing.T) {
	cfg, err := load(t, []string{
		"--once", "-i", "250ms", "--target", "ssh://pi@board", "-I", "/keys/id",
		"--history", "--history-db", "/tmp/x.db", "-d", "--recent", "3",
	})
	require.NoError(t, err)

	assert.True(t, cfg.Once)
	assert.Equal(t, 250*time.Millisecond, cfg.Interval)
	assert.Equal(t, "/keys/id", cfg.ShellTarget().IdentityFile)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "/tmp/x.db", cfg.History.DBPath)
	assert.Equal(t, 3, cfg.Recent)
	assert.Equal(t, logger.DebugLevel, cfg.Level())
}

func TestHelp(t *testing.T) {
	_, err := load(t, []string{"--help"})
	assert.ErrorIs(t, err, pflag.ErrHelp)
}

func TestMissingExplicitFile(t *testing.T) {
	_, err := load(t, nil, config.WithConfigFile(filepath.Join(t.TempDir(), "nope.toml")))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
}

func TestMalformedFile(t *testing.T) {
	path := writeConfig(t, `interval = [`)
	_, err := load(t, nil, config.WithConfigFile(path))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code errors.ErrorCode
	}{
		{"zero interval", []string{"--interval", "0s"}, errors.ErrInvalidInterval},
		{"negative timeout", []string{"--timeout", "-1s"}, errors.ErrInvalidInterval},
		{"log level", []string{"--log-level", "chatty"}, errors.ErrInvalidLogLevel},
		{"target scheme", []string{"--target", "http://phone"}, errors.ErrInvalidTarget},
		{"privilege command", []string{"--privilege-command", " "}, errors.ErrInvalidConfig},
		{"recent", []string{"--recent", "-1"}, errors.ErrInvalidConfig},
		{"unknown flag", []string{"--temperature", "80"}, errors.ErrBindFlags},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, tt.args)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}
