package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete ttylog configuration
type Config struct {
	Capture CaptureConfig `mapstructure:"capture" yaml:"capture"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Record  RecordConfig  `mapstructure:"record" yaml:"record"`
}

// CaptureConfig controls how raw lines are reconstructed
type CaptureConfig struct {
	// Width is the nominal terminal width each line buffer starts with.
	// 0 sizes the buffer from the raw line's byte length. (default: 0)
	Width int `mapstructure:"width" yaml:"width"`
	// TabWidth expands horizontal tabs to tab stops every TabWidth columns.
	// 0 writes a literal tab marker instead. (default: 0, max: 64)
	TabWidth int `mapstructure:"tab_width" yaml:"tab_width"`
	// SkipEmpty drops records whose reconstructed text is empty. (default: false)
	SkipEmpty bool `mapstructure:"skip_empty" yaml:"skip_empty"`
}

// OutputConfig controls where and how records are written
type OutputConfig struct {
	// Dir is the root of the day-bucketed log tree. Supports ~ expansion.
	// (default: ~/log)
	Dir string `mapstructure:"dir" yaml:"dir"`
	// MaxSizeMB starts a new log file once the current one would exceed
	// this size. 0 disables size rotation. (default: 0)
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	// Compress gzips log files after rotation. (default: false)
	Compress bool `mapstructure:"compress" yaml:"compress"`
	// Sync flushes each record to stable storage. (default: false)
	Sync bool `mapstructure:"sync" yaml:"sync"`
}

// LoggingConfig controls the diagnostic log of the tool itself
type LoggingConfig struct {
	// Enabled turns on the JSON diagnostic log. (default: false)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Level is the minimum level written: debug, info, warn or error.
	// (default: "info")
	Level string `mapstructure:"level" yaml:"level"`
	// File is the diagnostic log path. (default: <output.dir>/ttylog-debug.log)
	File string `mapstructure:"file" yaml:"file"`
}

// RecordConfig controls `ttylog record`
type RecordConfig struct {
	// Shell is run when no command is given. (default: $SHELL, then /bin/sh)
	Shell string `mapstructure:"shell" yaml:"shell"`
}

// DefaultDebugLogName is the diagnostic log file name used when
// logging.file is unset.
const DefaultDebugLogName = "ttylog-debug.log"

// ResolveDir returns the expanded log root. An empty Dir resolves to ~/log.
func (o *OutputConfig) ResolveDir() string {
	if o.Dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "log"
		}
		return filepath.Join(home, "log")
	}
	return expandHome(o.Dir)
}

// ResolveFile returns the diagnostic log path, defaulting to a file in the
// resolved output directory.
func (l *LoggingConfig) ResolveFile(outputDir string) string {
	if l.File == "" {
		return filepath.Join(outputDir, DefaultDebugLogName)
	}
	return expandHome(l.File)
}

// ResolveShell returns the shell for `ttylog record`.
func (r *RecordConfig) ResolveShell() string {
	if r.Shell != "" {
		return r.Shell
	}
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/sh"
}

// expandHome expands a leading ~ to the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Capture: CaptureConfig{
			Width:     0,
			TabWidth:  0,
			SkipEmpty: false,
		},
		Output: OutputConfig{
			Dir:       "",
			MaxSizeMB: 0,
			Compress:  false,
			Sync:      false,
		},
		Logging: LoggingConfig{
			Enabled: false,
			Level:   "info",
			File:    "",
		},
		Record: RecordConfig{
			Shell: "",
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Capture defaults
	viper.SetDefault("capture.width", defaults.Capture.Width)
	viper.SetDefault("capture.tab_width", defaults.Capture.TabWidth)
	viper.SetDefault("capture.skip_empty", defaults.Capture.SkipEmpty)

	// Output defaults
	viper.SetDefault("output.dir", defaults.Output.Dir)
	viper.SetDefault("output.max_size_mb", defaults.Output.MaxSizeMB)
	viper.SetDefault("output.compress", defaults.Output.Compress)
	viper.SetDefault("output.sync", defaults.Output.Sync)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.file", defaults.Logging.File)

	// Record defaults
	viper.SetDefault("record.shell", defaults.Record.Shell)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ttylog")
	}
	// Fall back to ~/.config/ttylog
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ttylog"
	}
	return filepath.Join(home, ".config", "ttylog")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
