package config

// Option adjusts how Load finds its sources.
type Option func(*options)

type options struct {
	configPath  string
	envPrefix   string
	defaultPath string
}

// WithConfigFile names the configuration file explicitly. A missing file
// is an error.
func WithConfigFile(path string) Option {
	return func(o *options) {
		o.configPath = path
	}
}

// WithEnvPrefix specifies a custom environment variable prefix.
// Default is "GPUFREQ".
func WithEnvPrefix(prefix string) Option {
	return func(o *options) {
		o.envPrefix = prefix
	}
}

// WithDefaultConfigFile replaces the system-wide file that is read when
// present.
func WithDefaultConfigFile(path string) Option {
	return func(o *options) {
		o.defaultPath = path
	}
}
