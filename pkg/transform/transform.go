// Package transform compiles the source document model into the file trees of
// the supported assistant tools.
package transform

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pbakaus/impeccable/pkg/logger"
	"github.com/pbakaus/impeccable/pkg/patterns"
	"github.com/pbakaus/impeccable/pkg/placeholder"
	"github.com/pbakaus/impeccable/pkg/presenter"
	"github.com/pbakaus/impeccable/pkg/source"
	"github.com/pkg/errors"
)

// FileKind classifies a generated file for the build summary.
type FileKind int

const (
	KindCommand FileKind = iota
	KindSkill
	KindReference
	KindIndex
)

// File is one generated output file. Path is slash-separated and relative to
// the target root.
type File struct {
	Path    string
	Content string
	Kind    FileKind
}

// Target renders documents into one tool's conventions. Implementations are
// pure: the engine owns every filesystem side effect.
type Target interface {
	// Name is the output directory name and registry key.
	Name() string
	// DisplayName labels the summary line.
	DisplayName() string
	// PolicyName names the placeholder policy applied to every emitted body.
	PolicyName() string
	// Dirs lists the directories that exist even when empty.
	Dirs() []string
	// InjectsPatterns reports whether the designated skill receives the
	// rendered pattern set.
	InjectsPatterns() bool

	CommandPath(name string) string
	SkillPath(name string) string

	RenderCommand(cmd source.Command, name string) ([]File, error)
	RenderSkill(skill source.Skill) ([]File, error)
	// RenderIndex returns nil when the target has no umbrella file.
	RenderIndex(skills []source.Skill) *File

	Summarize(label string, s Summary) string
}

// Reporter receives the one-line summary of a transform.
type Reporter interface {
	Success(message string)
}

type reporterFunc func(string)

func (f reporterFunc) Success(message string) { f(message) }

// Options tunes a single transform run.
type Options struct {
	// NamePrefix is prepended to every command output name.
	NamePrefix string
	// OutputDirSuffix is appended to the target root directory name.
	OutputDirSuffix string
	// Patterns is spliced into the designated skill for targets that inject.
	Patterns patterns.Set
	// PatternSkill names the designated skill. Defaults to patterns.DesignatedSkill.
	PatternSkill string
	// Reporter defaults to the global presenter.
	Reporter Reporter
}

func (o Options) reporter() Reporter {
	if o.Reporter != nil {
		return o.Reporter
	}
	return reporterFunc(presenter.Success)
}

func (o Options) patternSkill() string {
	if o.PatternSkill != "" {
		return o.PatternSkill
	}
	return patterns.DesignatedSkill
}

// Summary describes what one transform wrote.
type Summary struct {
	Target     string `json:"target"`
	Root       string `json:"root"`
	Commands   int    `json:"commands"`
	Skills     int    `json:"skills"`
	References int    `json:"references"`
	Files      int    `json:"files"`
	Line       string `json:"line"`
}

// RootDir returns the output root of t under distDir.
func RootDir(distDir string, t Target, suffix string) string {
	return filepath.Join(distDir, t.Name()+suffix)
}

// Transform recreates the output tree of t under distDir from model. The model
// is never modified; t works on its own copy.
func Transform(ctx context.Context, t Target, model *source.Model, distDir string, opts Options) (*Summary, error) {
	if model == nil {
		model = &source.Model{}
	}
	policy, err := placeholder.Lookup(t.PolicyName())
	if err != nil {
		return nil, errors.Wrapf(err, "target %s", t.Name())
	}
	root := RootDir(distDir, t, opts.OutputDirSuffix)
	log := logger.G(ctx).WithField("target", t.Name())

	work := model.Clone()
	if t.InjectsPatterns() {
		injectPatterns(work, opts.patternSkill(), patterns.Render(opts.Patterns))
	}
	work = work.MapBodies(policy.Apply)

	var files []File
	for _, cmd := range work.Commands {
		out, err := t.RenderCommand(cmd, opts.NamePrefix+cmd.Name)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to render command '%s' for %s", cmd.Name, t.Name())
		}
		files = append(files, out...)
	}
	for _, skill := range work.Skills {
		out, err := t.RenderSkill(skill)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to render skill '%s' for %s", skill.Name, t.Name())
		}
		files = append(files, out...)
	}
	if index := t.RenderIndex(work.Skills); index != nil {
		files = append(files, *index)
	}

	if err := cleanDir(root); err != nil {
		return nil, err
	}
	for _, dir := range t.Dirs() {
		if err := ensureDir(filepath.Join(root, filepath.FromSlash(dir))); err != nil {
			return nil, err
		}
	}

	summary := &Summary{
		Target:   t.Name(),
		Root:     root,
		Commands: len(work.Commands),
		Skills:   len(work.Skills),
	}
	for _, f := range files {
		if err := writeFile(root, f); err != nil {
			return nil, err
		}
		log.WithFields(map[string]any{"path": f.Path, "bytes": len(f.Content)}).Debug("wrote file")
		if f.Kind == KindReference {
			summary.References++
		}
		summary.Files++
	}

	label := t.DisplayName()
	if opts.NamePrefix != "" {
		label += fmt.Sprintf(" [%sprefixed]", opts.NamePrefix)
	}
	summary.Line = t.Summarize(label, *summary)
	opts.reporter().Success(summary.Line)

	log.WithFields(map[string]any{"root": root, "files": summary.Files}).Debug("transform complete")
	return summary, nil
}

func injectPatterns(m *source.Model, skillName, rendered string) {
	if rendered == "" {
		return
	}
	for i := range m.Skills {
		if m.Skills[i].Name == skillName {
			m.Skills[i].Body = patterns.Inject(m.Skills[i].Body, rendered)
		}
	}
}

func referenceSuffix(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprintf(" (%d reference files)", n)
}
