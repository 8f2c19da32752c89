package bundle

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pbakaus/impeccable/pkg/presenter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func readArchive(t *testing.T, path string) map[string]string {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	out := make(map[string]string)
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			out[f.Name] = ""
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		out[f.Name] = string(data)
	}
	return out
}

func TestPackage(t *testing.T) {
	dist := t.TempDir()
	dir := filepath.Join(dist, "claude-code")
	writeTree(t, dir, map[string]string{
		"commands/polish.md":                    "Polish",
		"skills/frontend-design/SKILL.md":       "Design",
		"skills/frontend-design/.DS_Store":      "junk",
		".DS_Store":                             "junk",
		"skills/frontend-design/reference/a.md": "ref",
	})
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty"), 0o755))

	zipPath := filepath.Join(dist, "claude-code.zip")
	res, err := Package(context.Background(), dir, zipPath)
	require.NoError(t, err)

	assert.Equal(t, zipPath, res.Path)
	assert.Equal(t, 3, res.Files)
	assert.Positive(t, res.Size)

	assert.Equal(t, map[string]string{
		"commands/":                             "",
		"commands/polish.md":                    "Polish",
		"empty/":                                "",
		"skills/":                               "",
		"skills/frontend-design/":               "",
		"skills/frontend-design/SKILL.md":       "Design",
		"skills/frontend-design/reference/":     "",
		"skills/frontend-design/reference/a.md": "ref",
	}, readArchive(t, zipPath))
}

func TestPackageDeterministic(t *testing.T) {
	dist := t.TempDir()
	dir := filepath.Join(dist, "cursor")
	writeTree(t, dir, map[string]string{"commands/a.md": "A", "rules/b.md": "B"})
	zipPath := filepath.Join(dist, "cursor.zip")

	_, err := Package(context.Background(), dir, zipPath)
	require.NoError(t, err)
	first, err := os.ReadFile(zipPath)
	require.NoError(t, err)

	_, err = Package(context.Background(), dir, zipPath)
	require.NoError(t, err)
	second, err := os.ReadFile(zipPath)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	entries, err := os.ReadDir(dist)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temporary archives left behind")
}

func TestPackageErrors(t *testing.T) {
	dist := t.TempDir()

	_, err := Package(context.Background(), filepath.Join(dist, "missing"), filepath.Join(dist, "missing.zip"))
	assert.Error(t, err)

	file := filepath.Join(dist, "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = Package(context.Background(), file, filepath.Join(dist, "file.zip"))
	assert.Error(t, err)
}

func TestPackageAll(t *testing.T) {
	dist := t.TempDir()
	writeTree(t, filepath.Join(dist, "cursor-prefixed"), map[string]string{"commands/i-a.md": "A"})
	writeTree(t, filepath.Join(dist, "codex-prefixed"), map[string]string{"AGENTS.md": "# Codex"})

	var out bytes.Buffer
	p := presenter.NewWithOptions(&out, &out, presenter.ColorNever)

	results, err := PackageAll(context.Background(), dist, []string{"cursor", "gemini", "codex"}, Options{
		Suffix:   "-prefixed",
		Reporter: p,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "cursor", results[0].Target)
	assert.Equal(t, filepath.Join(dist, "cursor-prefixed.zip"), results[0].Path)
	assert.Equal(t, "codex", results[1].Target)

	assert.Contains(t, out.String(), "📦 cursor-prefixed.zip (0.00 MB)")
	assert.Contains(t, out.String(), "📦 codex-prefixed.zip (0.00 MB)")
	assert.NotContains(t, out.String(), "gemini")

	assert.Equal(t, map[string]string{"AGENTS.md": "# Codex"}, readArchive(t, results[1].Path))
}

func TestZipName(t *testing.T) {
	assert.Equal(t, "gemini.zip", ZipName("gemini", ""))
	assert.Equal(t, "gemini-prefixed.zip", ZipName("gemini", "-prefixed"))
}
