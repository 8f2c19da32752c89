package pipeline

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pbakaus/impeccable/pkg/config"
	"github.com/pbakaus/impeccable/pkg/source"
	"github.com/pbakaus/impeccable/pkg/transform"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lines struct{ got []string }

func (l *lines) Success(message string) { l.got = append(l.got, message) }

type artifacts struct{ names []string }

func (a *artifacts) Artifact(name string, _ int64) { a.names = append(a.names, name) }

// brokenTarget renders like Cursor but fails on every command.
type brokenTarget struct{ transform.Cursor }

func (brokenTarget) Name() string { return "broken" }

func (brokenTarget) RenderCommand(source.Command, string) ([]transform.File, error) {
	return nil, errors.New("render exploded")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func setupProject(t *testing.T) config.Config {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "source", "commands", "normalize.md"),
		"---\nname: normalize\ndescription: Normalize the design\n---\nNormalize {{args}}\n")
	writeFile(t, filepath.Join(root, "source", "skills", "frontend-design", "SKILL.md"),
		"---\nname: frontend-design\ndescription: Build distinctive interfaces\n---\n"+
			"Design well.\n\n## Patterns to Follow\n\n- Use a type scale\n\n## Patterns to Avoid\n\n- Purple gradients\n")

	cfg := config.Default()
	cfg.Root = root
	return cfg
}

func TestBuild(t *testing.T) {
	cfg := setupProject(t)
	reported := &lines{}
	bundled := &artifacts{}

	report, err := Build(context.Background(), cfg, Options{
		TransformReporter: reported,
		BundleReporter:    bundled,
	})
	require.NoError(t, err)

	require.Len(t, report.Summaries, 4)
	for i, name := range transform.Names() {
		assert.Equal(t, name, report.Summaries[i].Target)
		assert.DirExists(t, filepath.Join(cfg.DistPath(), name))
	}
	assert.Equal(t, []string{
		"Cursor: 1 commands, 1 skills (downgraded)",
		"Claude Code: 1 commands, 1 skills",
		"Gemini: 1 commands (TOML), 1 skills (modular)",
		"Codex: 1 prompts, 1 skills (modular)",
	}, reported.got)

	assert.Equal(t, []string{"cursor.zip", "claude-code.zip", "gemini.zip", "codex.zip"}, bundled.names)
	require.Len(t, report.Bundles, 4)

	require.Len(t, report.Patterns.Patterns, 1)
	assert.Equal(t, []string{"Use a type scale"}, report.Patterns.Patterns[0].Items)

	t.Run("patterns injected for claude-code and gemini", func(t *testing.T) {
		claude, err := os.ReadFile(filepath.Join(cfg.DistPath(), "claude-code", "skills", "frontend-design", "SKILL.md"))
		require.NoError(t, err)
		assert.Equal(t, 2, strings.Count(string(claude), "Use a type scale"))

		gemini, err := os.ReadFile(filepath.Join(cfg.DistPath(), "gemini", "GEMINI.frontend-design.md"))
		require.NoError(t, err)
		assert.Equal(t, 2, strings.Count(string(gemini), "Use a type scale"))

		cursor, err := os.ReadFile(filepath.Join(cfg.DistPath(), "cursor", "rules", "frontend-design.md"))
		require.NoError(t, err)
		assert.Equal(t, 1, strings.Count(string(cursor), "Use a type scale"))

		codex, err := os.ReadFile(filepath.Join(cfg.DistPath(), "codex", "AGENTS.frontend-design.md"))
		require.NoError(t, err)
		assert.Equal(t, 1, strings.Count(string(codex), "Use a type scale"))
	})

	t.Run("bundle contents", func(t *testing.T) {
		r, err := zip.OpenReader(filepath.Join(cfg.DistPath(), "codex.zip"))
		require.NoError(t, err)
		defer r.Close()

		var names []string
		for _, f := range r.File {
			names = append(names, f.Name)
		}
		assert.Contains(t, names, "prompts/normalize.md")
		assert.Contains(t, names, "AGENTS.md")
	})
}

func TestBuildSelection(t *testing.T) {
	cfg := setupProject(t)
	cfg.Targets = []string{"codex", "cursor"}
	cfg.Bundle = false
	cfg.NamePrefix = "i-"

	reported := &lines{}
	report, err := Build(context.Background(), cfg, Options{TransformReporter: reported})
	require.NoError(t, err)

	require.Len(t, report.Summaries, 2)
	assert.Equal(t, "cursor", report.Summaries[0].Target)
	assert.Equal(t, "codex", report.Summaries[1].Target)
	assert.Empty(t, report.Bundles)
	assert.True(t, strings.HasPrefix(reported.got[0], "Cursor [i-prefixed]:"))

	assert.FileExists(t, filepath.Join(cfg.DistPath(), "codex", "prompts", "i-normalize.md"))
	assert.NoFileExists(t, filepath.Join(cfg.DistPath(), "codex.zip"))
	assert.NoDirExists(t, filepath.Join(cfg.DistPath(), "gemini"))
}

func TestBuildUnknownTarget(t *testing.T) {
	cfg := setupProject(t)
	cfg.Targets = []string{"vim"}

	_, err := Build(context.Background(), cfg, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown target 'vim'")
}

func TestBuildAggregatesFailures(t *testing.T) {
	cfg := setupProject(t)
	bundled := &artifacts{}

	report, err := Build(context.Background(), cfg, Options{
		Targets:           []transform.Target{brokenTarget{}, transform.Codex{}},
		TransformReporter: &lines{},
		BundleReporter:    bundled,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target broken")
	assert.Contains(t, err.Error(), "render exploded")

	require.Len(t, report.Summaries, 1)
	assert.Equal(t, "codex", report.Summaries[0].Target)
	assert.Equal(t, []string{"codex.zip"}, bundled.names)
	assert.NoFileExists(t, filepath.Join(cfg.DistPath(), "broken.zip"))
}

func TestBuildOutputSuffix(t *testing.T) {
	cfg := setupProject(t)
	cfg.Targets = []string{"gemini"}
	cfg.OutputSuffix = "-prefixed"
	bundled := &artifacts{}

	_, err := Build(context.Background(), cfg, Options{TransformReporter: &lines{}, BundleReporter: bundled})
	require.NoError(t, err)

	assert.DirExists(t, filepath.Join(cfg.DistPath(), "gemini-prefixed"))
	assert.Equal(t, []string{"gemini-prefixed.zip"}, bundled.names)
}

func TestBuildSerializesConcurrentRuns(t *testing.T) {
	cfg := setupProject(t)
	cfg.Targets = []string{"cursor", "codex"}

	errs := make(chan error, 2)
	for range 2 {
		go func() {
			_, err := Build(context.Background(), cfg, Options{TransformReporter: &lines{}, BundleReporter: &artifacts{}})
			errs <- err
		}()
	}
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)

	assert.FileExists(t, filepath.Join(cfg.DistPath(), "cursor", "commands", "normalize.md"))
	assert.FileExists(t, filepath.Join(cfg.DistPath(), "codex.zip"))
	assert.FileExists(t, filepath.Join(cfg.DistPath(), LockFile))
}
