// Package config holds the build and serve settings resolved from flags,
// environment variables and the optional impeccable.yaml file.
package config

import (
	"net"
	"path/filepath"
	"strings"

	"github.com/pbakaus/impeccable/pkg/patterns"
	"github.com/pbakaus/impeccable/pkg/transform"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment override, e.g. IMPECCABLE_DIST_DIR.
const EnvPrefix = "IMPECCABLE"

// ServeConfig configures the web server.
type ServeConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	StaticDir string `mapstructure:"static_dir"`
}

// Config is the resolved configuration.
type Config struct {
	Root          string      `mapstructure:"root"`
	SourceDir     string      `mapstructure:"source_dir"`
	DistDir       string      `mapstructure:"dist_dir"`
	NamePrefix    string      `mapstructure:"name_prefix"`
	OutputSuffix  string      `mapstructure:"output_suffix"`
	PatternsSkill string      `mapstructure:"patterns_skill"`
	Targets       []string    `mapstructure:"targets"`
	Bundle        bool        `mapstructure:"bundle"`
	LogLevel      string      `mapstructure:"log_level"`
	LogFormat     string      `mapstructure:"log_format"`
	Serve         ServeConfig `mapstructure:"serve"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Root:          ".",
		SourceDir:     "source",
		DistDir:       "dist",
		PatternsSkill: patterns.DesignatedSkill,
		Targets:       transform.Names(),
		Bundle:        true,
		LogLevel:      "info",
		LogFormat:     "fmt",
		Serve: ServeConfig{
			Host: "localhost",
			Port: 8080,
		},
	}
}

// SetDefaults registers Default on v so unset keys resolve sensibly.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("root", d.Root)
	v.SetDefault("source_dir", d.SourceDir)
	v.SetDefault("dist_dir", d.DistDir)
	v.SetDefault("name_prefix", d.NamePrefix)
	v.SetDefault("output_suffix", d.OutputSuffix)
	v.SetDefault("patterns_skill", d.PatternsSkill)
	v.SetDefault("targets", d.Targets)
	v.SetDefault("bundle", d.Bundle)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("serve.host", d.Serve.Host)
	v.SetDefault("serve.port", d.Serve.Port)
	v.SetDefault("serve.static_dir", d.Serve.StaticDir)
}

// Init wires environment variables and the config file search path into v.
// A missing config file is not an error.
func Init(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("impeccable")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.impeccable")

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errors.Wrap(err, "failed to read config file")
	}
	return nil
}

// FromViper resolves a Config from v.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode configuration")
	}
	cfg.Targets = splitTargets(cfg.Targets)
	return cfg, nil
}

// splitTargets accepts both list values and comma separated strings, which is
// how a single environment variable arrives.
func splitTargets(targets []string) []string {
	var out []string
	for _, t := range targets {
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks the configuration for values that cannot work.
func (c Config) Validate() error {
	if c.Root == "" {
		return errors.New("root cannot be empty")
	}
	if c.DistDir == "" {
		return errors.New("dist_dir cannot be empty")
	}
	if c.SourceDir == "" {
		return errors.New("source_dir cannot be empty")
	}
	if strings.ContainsAny(c.OutputSuffix, `/\`) {
		return errors.Errorf("output_suffix cannot contain path separators: %q", c.OutputSuffix)
	}
	if strings.ContainsAny(c.NamePrefix, `/\`) {
		return errors.Errorf("name_prefix cannot contain path separators: %q", c.NamePrefix)
	}
	if _, err := transform.Select(c.Targets); err != nil {
		return err
	}
	return c.Serve.Validate()
}

// Validate checks host and port.
func (s ServeConfig) Validate() error {
	if s.Host == "" {
		return errors.New("serve host cannot be empty")
	}
	if s.Host != "localhost" && net.ParseIP(s.Host) == nil {
		if strings.ContainsAny(s.Host, " :") {
			return errors.Errorf("invalid serve host: %s", s.Host)
		}
	}
	if s.Port < 1 || s.Port > 65535 {
		return errors.Errorf("serve port must be between 1 and 65535, got %d", s.Port)
	}
	return nil
}

// SourcePath is the absolute-or-relative path of the source tree.
func (c Config) SourcePath() string {
	return resolve(c.Root, c.SourceDir)
}

// DistPath is the path of the output tree.
func (c Config) DistPath() string {
	return resolve(c.Root, c.DistDir)
}

func resolve(root, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}
