package transform

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

func cleanDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return errors.Wrapf(err, "failed to remove '%s'", dir)
	}
	return ensureDir(dir)
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory '%s'", dir)
	}
	return nil
}

// writeFile writes f below root, refusing paths that would escape it.
func writeFile(root string, f File) error {
	rel := filepath.FromSlash(f.Path)
	if !filepath.IsLocal(rel) {
		return errors.Errorf("output path '%s' escapes the target directory", f.Path)
	}

	full := filepath.Join(root, rel)
	if err := ensureDir(filepath.Dir(full)); err != nil {
		return err
	}
	if err := os.WriteFile(full, []byte(f.Content), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write '%s'", full)
	}
	return nil
}
