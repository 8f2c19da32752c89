// Package pipeline runs a full build: load the source tree, extract the
// pattern set, transform it for every selected target and bundle the results.
package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/pbakaus/impeccable/pkg/bundle"
	"github.com/pbakaus/impeccable/pkg/config"
	"github.com/pbakaus/impeccable/pkg/logger"
	"github.com/pbakaus/impeccable/pkg/patterns"
	"github.com/pbakaus/impeccable/pkg/source"
	"github.com/pbakaus/impeccable/pkg/transform"
	"github.com/pkg/errors"
	"github.com/rogpeppe/go-internal/lockedfile"
)

// LockFile is created in the dist directory and held for the duration of a
// build so concurrent builds of one project run one after the other.
const LockFile = ".impeccable.lock"

// Options overrides parts of a build that are not configuration.
type Options struct {
	// Targets replaces the targets named by the configuration.
	Targets []transform.Target

	TransformReporter transform.Reporter
	BundleReporter    bundle.Reporter
}

// Report is the outcome of a build.
type Report struct {
	Patterns  patterns.Set        `json:"patterns"`
	Summaries []transform.Summary `json:"summaries"`
	Bundles   []bundle.Result     `json:"bundles"`
}

// Build runs every selected target against its own copy of the source model.
// A failing target does not stop the others; their errors are returned
// together and their bundles are skipped.
func Build(ctx context.Context, cfg config.Config, opts Options) (*Report, error) {
	targets := opts.Targets
	if targets == nil {
		selected, err := transform.Select(cfg.Targets)
		if err != nil {
			return nil, err
		}
		targets = selected
	}

	loader, err := source.NewLoader(source.WithSourceDir(cfg.SourcePath()))
	if err != nil {
		return nil, err
	}
	model, err := loader.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load source documents")
	}

	distDir := cfg.DistPath()
	unlock, err := lockDist(distDir)
	if err != nil {
		return nil, err
	}
	defer unlock()

	report := &Report{
		Patterns: patterns.FromModel(ctx, model, cfg.PatternsSkill),
	}

	var (
		result    *multierror.Error
		succeeded []string
	)
	for _, t := range targets {
		tctx := logger.WithTarget(ctx, t.Name())
		summary, err := transform.Transform(tctx, t, model, distDir, transform.Options{
			NamePrefix:      cfg.NamePrefix,
			OutputDirSuffix: cfg.OutputSuffix,
			Patterns:        report.Patterns,
			PatternSkill:    cfg.PatternsSkill,
			Reporter:        opts.TransformReporter,
		})
		if err != nil {
			logger.G(tctx).WithError(err).Error("transform failed")
			result = multierror.Append(result, errors.Wrapf(err, "target %s", t.Name()))
			continue
		}
		report.Summaries = append(report.Summaries, *summary)
		succeeded = append(succeeded, t.Name())
	}

	if cfg.Bundle && len(succeeded) > 0 {
		bundles, err := bundle.PackageAll(ctx, distDir, succeeded, bundle.Options{
			Suffix:   cfg.OutputSuffix,
			Excludes: bundle.DefaultExcludes,
			Reporter: opts.BundleReporter,
		})
		report.Bundles = bundles
		if err != nil {
			result = multierror.Append(result, err)
		}
	}

	return report, result.ErrorOrNil()
}

func lockDist(distDir string) (func(), error) {
	if err := os.MkdirAll(distDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create '%s'", distDir)
	}
	unlock, err := lockedfile.MutexAt(filepath.Join(distDir, LockFile)).Lock()
	if err != nil {
		return nil, errors.Wrap(err, "failed to lock dist directory")
	}
	return unlock, nil
}
