// Package bundle packages generated target trees into zip archives.
package bundle

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pbakaus/impeccable/pkg/logger"
	"github.com/pbakaus/impeccable/pkg/presenter"
	"github.com/pkg/errors"
)

// DefaultExcludes are skipped when archiving.
var DefaultExcludes = []string{"**/.DS_Store"}

// modTime is stamped on every entry so rebuilt archives are byte-identical.
var modTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// Result describes one written archive.
type Result struct {
	Target string `json:"target"`
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	Files  int    `json:"files"`
}

// Reporter receives a line per written archive.
type Reporter interface {
	Artifact(name string, size int64)
}

type reporterFunc func(string, int64)

func (f reporterFunc) Artifact(name string, size int64) { f(name, size) }

// Options tunes PackageAll.
type Options struct {
	// Suffix is appended to both the target directory and archive names.
	Suffix   string
	Excludes []string
	Reporter Reporter
}

// ZipName returns the archive file name for target.
func ZipName(target, suffix string) string {
	return target + suffix + ".zip"
}

// Package zips the contents of dir into zipPath with paths relative to dir.
// An existing archive is replaced.
func Package(ctx context.Context, dir, zipPath string, excludes ...string) (*Result, error) {
	if len(excludes) == 0 {
		excludes = DefaultExcludes
	}

	entries, err := collect(dir, excludes)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(zipPath), ".bundle-*.zip")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create temporary archive for '%s'", zipPath)
	}
	defer os.Remove(tmp.Name())

	files, err := writeArchive(tmp, dir, entries)
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = errors.Wrap(closeErr, "failed to close archive")
	}
	if err != nil {
		return nil, err
	}

	if err := os.Rename(tmp.Name(), zipPath); err != nil {
		return nil, errors.Wrapf(err, "failed to move archive into '%s'", zipPath)
	}

	info, err := os.Stat(zipPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat '%s'", zipPath)
	}

	logger.G(ctx).WithFields(map[string]any{"path": zipPath, "files": files, "size": info.Size()}).Debug("wrote bundle")
	return &Result{Path: zipPath, Size: info.Size(), Files: files}, nil
}

type entry struct {
	rel   string
	isDir bool
}

func collect(dir string, excludes []string) ([]entry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat '%s'", dir)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("'%s' is not a directory", dir)
	}

	fsys := os.DirFS(dir)
	matches, err := doublestar.Glob(fsys, "**")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to scan '%s'", dir)
	}
	sort.Strings(matches)

	var entries []entry
	for _, rel := range matches {
		if rel == "." || excluded(rel, excludes) {
			continue
		}
		fi, err := os.Stat(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to stat '%s'", rel)
		}
		entries = append(entries, entry{rel: rel, isDir: fi.IsDir()})
	}
	return entries, nil
}

func excluded(rel string, excludes []string) bool {
	for _, pattern := range excludes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func writeArchive(w io.Writer, dir string, entries []entry) (int, error) {
	zw := zip.NewWriter(w)
	files := 0

	for _, e := range entries {
		hdr := &zip.FileHeader{Name: e.rel, Modified: modTime}
		if e.isDir {
			hdr.Name += "/"
			hdr.SetMode(os.ModeDir | 0o755)
			if _, err := zw.CreateHeader(hdr); err != nil {
				return files, errors.Wrapf(err, "failed to add directory '%s'", e.rel)
			}
			continue
		}

		hdr.Method = zip.Deflate
		hdr.SetMode(0o644)
		dst, err := zw.CreateHeader(hdr)
		if err != nil {
			return files, errors.Wrapf(err, "failed to add '%s'", e.rel)
		}
		if err := copyFile(dst, filepath.Join(dir, filepath.FromSlash(e.rel))); err != nil {
			return files, err
		}
		files++
	}

	if err := zw.Close(); err != nil {
		return files, errors.Wrap(err, "failed to finalize archive")
	}
	return files, nil
}

func copyFile(dst io.Writer, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open '%s'", path)
	}
	defer src.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return errors.Wrapf(err, "failed to archive '%s'", path)
	}
	return nil
}

// PackageAll writes one archive per target into distDir. Targets whose
// directory does not exist are skipped with a warning.
func PackageAll(ctx context.Context, distDir string, targets []string, opts Options) ([]Result, error) {
	reporter := opts.Reporter
	if reporter == nil {
		reporter = reporterFunc(presenter.Artifact)
	}

	results := make([]Result, 0, len(targets))
	for _, target := range targets {
		dir := filepath.Join(distDir, target+opts.Suffix)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			logger.G(ctx).WithField("dir", dir).Warn("target directory not found, skipping bundle")
			continue
		}

		name := ZipName(target, opts.Suffix)
		res, err := Package(ctx, dir, filepath.Join(distDir, name), opts.Excludes...)
		if err != nil {
			return results, errors.Wrapf(err, "failed to bundle %s", target)
		}
		res.Target = target
		reporter.Artifact(name, res.Size)
		results = append(results, *res)
	}
	return results, nil
}
