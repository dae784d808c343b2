// Package config loads gpufreq settings from defaults, a TOML file, the
// environment and command-line flags, in increasing precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"codeberg.org/mutker/gpufreq/internal/cache"
	"codeberg.org/mutker/gpufreq/internal/errors"
	"codeberg.org/mutker/gpufreq/internal/history"
	"codeberg.org/mutker/gpufreq/internal/logger"
	"codeberg.org/mutker/gpufreq/internal/monitor"
	"codeberg.org/mutker/gpufreq/internal/pid"
	"codeberg.org/mutker/gpufreq/internal/shell"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultEnvPrefix  = "GPUFREQ"
	defaultConfigFile = "/etc/gpufreq.toml"
	defaultLogLevel   = "warn"
)

type HistoryConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	DBPath       string        `mapstructure:"db_path"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

type CatalogConfig struct {
	// Extra maps vendor name to category name to additional templates.
	Extra map[string]map[string][]string `mapstructure:"extra"`
}

type Config struct {
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
	Once             bool          `mapstructure:"once"`
	Recent           int           `mapstructure:"recent"`
	Target           string        `mapstructure:"target"`
	IdentityFile     string        `mapstructure:"identity_file"`
	PrivilegeCommand string        `mapstructure:"privilege_command"`
	PIDFile          string        `mapstructure:"pid_file"`
	LogLevel         string        `mapstructure:"log_level"`
	Debug            bool          `mapstructure:"debug"`
	Verbose          bool          `mapstructure:"verbose"`
	History          HistoryConfig `mapstructure:"history"`
	Catalog          CatalogConfig `mapstructure:"catalog"`

	// ConfigFile is the file that was read, if any.
	ConfigFile string `mapstructure:"-"`
}

func setDefaults(v *viper.Viper) {
	hist := history.DefaultConfig()

	v.SetDefault("interval", monitor.DefaultInterval)
	v.SetDefault("timeout", shell.DefaultTimeout)
	v.SetDefault("cache_ttl", cache.DefaultTTL)
	v.SetDefault("once", false)
	v.SetDefault("recent", 0)
	v.SetDefault("target", "")
	v.SetDefault("identity_file", "")
	v.SetDefault("privilege_command", strings.Join(shell.DefaultPrivilegeCommand, " "))
	v.SetDefault("pid_file", pid.DefaultPath())
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("debug", false)
	v.SetDefault("verbose", false)
	v.SetDefault("history.enabled", false)
	v.SetDefault("history.db_path", hist.DBPath)
	v.SetDefault("history.batch_size", hist.BatchSize)
	v.SetDefault("history.batch_timeout", hist.BatchTimeout)
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("gpufreq", pflag.ContinueOnError)
	fs.SortFlags = false

	fs.StringP("config", "c", "", "Configuration file (TOML)")
	fs.DurationP("interval", "i", monitor.DefaultInterval, "Delay between reads")
	fs.Duration("timeout", shell.DefaultTimeout, "Bound on each privileged command")
	fs.Duration("cache-ttl", cache.DefaultTTL, "How long discovered paths and values are reused")
	fs.Bool("once", false, "Read once, print the result and exit")
	fs.Int("recent", 0, "Print the last N recorded readings and exit")
	fs.StringP("target", "t", "", "Device to probe: local or ssh://user@host[:port]")
	fs.StringP("identity", "I", "", "SSH private key for a remote target")
	fs.String("privilege-command", strings.Join(shell.DefaultPrivilegeCommand, " "), "Command prefix that runs a shell string as root")
	fs.String("pid-file", pid.DefaultPath(), "PID file guarding a single monitor")
	fs.String("log-level", defaultLogLevel, "Log level: debug, info, warn, error")
	fs.BoolP("debug", "d", false, "Enable debugging mode")
	fs.BoolP("verbose", "v", false, "Enable verbose logging")
	fs.Bool("history", false, "Record readings to the history database")
	fs.String("history-db", history.DefaultConfig().DBPath, "History database path")

	return fs
}

var flagKeys = map[string]string{
	"interval":          "interval",
	"timeout":           "timeout",
	"cache-ttl":         "cache_ttl",
	"once":              "once",
	"recent":            "recent",
	"target":            "target",
	"identity":          "identity_file",
	"privilege-command": "privilege_command",
	"pid-file":          "pid_file",
	"log-level":         "log_level",
	"debug":             "debug",
	"verbose":           "verbose",
	"history":           "history.enabled",
	"history-db":        "history.db_path",
}

// Load parses args (without the program name) and merges every source.
// It returns pflag.ErrHelp when help was requested.
func Load(args []string, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := options{
		envPrefix:   defaultEnvPrefix,
		defaultPath: defaultConfigFile,
	}
	for _, opt := range opts {
		opt(&o)
	}

	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, err
		}
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for flagName, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(flagName)); err != nil {
			return nil, errFactory.Wrap(errors.ErrBindFlags, err)
		}
	}

	path, explicit := o.configPath, o.configPath != ""
	if flagPath, _ := fs.GetString("config"); flagPath != "" {
		path, explicit = flagPath, true
	}
	if !explicit {
		if envPath := os.Getenv(o.envPrefix + "_CONFIG"); envPath != "" {
			path, explicit = envPath, true
		}
	}
	if path == "" {
		path = o.defaultPath
	}

	configFile, err := readConfigFile(v, path, explicit)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}
	cfg.ConfigFile = configFile

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func readConfigFile(v *viper.Viper, path string, explicit bool) (string, error) {
	if path == "" {
		return "", nil
	}
	if _, err := os.Stat(path); err != nil {
		if !explicit && os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.New().Wrap(errors.ErrReadConfig, err)
	}

	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return "", errors.New().Wrap(errors.ErrReadConfig, err)
	}
	return path, nil
}

// Validate rejects settings the rest of the program cannot run with.
func (c *Config) Validate() error {
	errFactory := errors.New()

	for name, d := range map[string]time.Duration{
		"interval":  c.Interval,
		"timeout":   c.Timeout,
		"cache_ttl": c.CacheTTL,
	} {
		if d <= 0 {
			return errFactory.WithMessage(errors.ErrInvalidInterval,
				fmt.Sprintf("%s must be positive, got %s", name, d))
		}
	}

	if _, ok := logger.ParseLevel(strings.ToLower(c.LogLevel)); !ok {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	if _, err := shell.ParseTarget(c.Target); err != nil {
		return err
	}

	if len(shell.ParsePrivilegeCommand(c.PrivilegeCommand)) == 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "privilege_command must not be empty")
	}

	if c.Recent < 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "recent must not be negative")
	}

	if err := c.HistoryConfig().Validate(); err != nil {
		return err
	}

	return nil
}

// HistoryConfig converts the history section for the history package.
func (c *Config) HistoryConfig() history.Config {
	return history.Config{
		Enabled:      c.History.Enabled,
		DBPath:       c.History.DBPath,
		BatchSize:    c.History.BatchSize,
		BatchTimeout: c.History.BatchTimeout,
	}
}

// ShellTarget returns the parsed target with the identity file applied.
// Load has already validated the target.
func (c *Config) ShellTarget() shell.Target {
	t, _ := shell.ParseTarget(c.Target)
	if c.IdentityFile != "" {
		t.IdentityFile = c.IdentityFile
	}
	return t
}

// Level returns the effective log level. Debug and Verbose override
// log_level.
func (c *Config) Level() logger.LogLevel {
	switch {
	case c.Debug:
		return logger.DebugLevel
	case c.Verbose:
		return logger.InfoLevel
	}
	level, _ := logger.ParseLevel(strings.ToLower(c.LogLevel))
	return level
}
