package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ".", cfg.Root)
	assert.Equal(t, "dist", cfg.DistDir)
	assert.Equal(t, "frontend-design", cfg.PatternsSkill)
	assert.Equal(t, []string{"cursor", "claude-code", "gemini", "codex"}, cfg.Targets)
	assert.True(t, cfg.Bundle)
	assert.Equal(t, 8080, cfg.Serve.Port)
	assert.NoError(t, cfg.Validate())
}

func TestFromViper(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)

		cfg, err := FromViper(v)
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("overrides", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("dist_dir", "out")
		v.Set("name_prefix", "i-")
		v.Set("targets", "codex, cursor")
		v.Set("serve.port", 9000)

		cfg, err := FromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "out", cfg.DistDir)
		assert.Equal(t, "i-", cfg.NamePrefix)
		assert.Equal(t, []string{"codex", "cursor"}, cfg.Targets)
		assert.Equal(t, 9000, cfg.Serve.Port)
	})
}

func TestInitReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "impeccable.yaml"), []byte("dist_dir: build\nserve:\n  port: 3000\n"), 0o644))
	t.Chdir(dir)
	t.Setenv("IMPECCABLE_OUTPUT_SUFFIX", "-prefixed")

	v := viper.New()
	require.NoError(t, Init(v))

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "build", cfg.DistDir)
	assert.Equal(t, 3000, cfg.Serve.Port)
	assert.Equal(t, "-prefixed", cfg.OutputSuffix)
	assert.Equal(t, "localhost", cfg.Serve.Host)
}

func TestInitWithoutConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	v := viper.New()
	require.NoError(t, Init(v))

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "dist", cfg.DistDir)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty dist", func(c *Config) { c.DistDir = "" }, "dist_dir cannot be empty"},
		{"empty root", func(c *Config) { c.Root = "" }, "root cannot be empty"},
		{"suffix with separator", func(c *Config) { c.OutputSuffix = "/x" }, "output_suffix"},
		{"prefix with separator", func(c *Config) { c.NamePrefix = "a/" }, "name_prefix"},
		{"unknown target", func(c *Config) { c.Targets = []string{"vscode"} }, "unknown target 'vscode'"},
		{"bad port", func(c *Config) { c.Serve.Port = 70000 }, "serve port"},
		{"bad host", func(c *Config) { c.Serve.Host = "bad host" }, "invalid serve host"},
		{"empty host", func(c *Config) { c.Serve.Host = "" }, "serve host cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPaths(t *testing.T) {
	cfg := Default()
	cfg.Root = "/project"

	assert.Equal(t, filepath.Join("/project", "source"), cfg.SourcePath())
	assert.Equal(t, filepath.Join("/project", "dist"), cfg.DistPath())

	cfg.DistDir = "/tmp/out"
	assert.Equal(t, "/tmp/out", cfg.DistPath())
}
