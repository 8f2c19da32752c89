package source

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pbakaus/impeccable/pkg/frontmatter"
	"github.com/pbakaus/impeccable/pkg/logger"
	"github.com/pbakaus/impeccable/pkg/placeholder"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	markdownGlob  = "**/*.md"
	skillFileName = "SKILL.md"
)

// Loader reads the command and skill trees.
type Loader struct {
	commandsDir string
	skillsDir   string
}

// Option configures a Loader.
type Option func(*Loader) error

// WithCommandsDir overrides the commands directory.
func WithCommandsDir(dir string) Option {
	return func(l *Loader) error {
		if dir == "" {
			return errors.New("commands directory cannot be empty")
		}
		l.commandsDir = dir
		return nil
	}
}

// WithSkillsDir overrides the skills directory.
func WithSkillsDir(dir string) Option {
	return func(l *Loader) error {
		if dir == "" {
			return errors.New("skills directory cannot be empty")
		}
		l.skillsDir = dir
		return nil
	}
}

// WithSourceDir points both trees at the commands/ and skills/ children of dir.
func WithSourceDir(dir string) Option {
	return func(l *Loader) error {
		l.commandsDir = filepath.Join(dir, "commands")
		l.skillsDir = filepath.Join(dir, "skills")
		return nil
	}
}

// NewLoader creates a Loader. Without options it reads ./source.
func NewLoader(opts ...Option) (*Loader, error) {
	l := &Loader{}
	if err := WithSourceDir("source")(l); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, errors.Wrap(err, "failed to apply loader option")
		}
	}
	return l, nil
}

// Load reads the source documents found under root/source.
func Load(ctx context.Context, root string) (*Model, error) {
	l, err := NewLoader(WithSourceDir(filepath.Join(root, "source")))
	if err != nil {
		return nil, err
	}
	return l.Load(ctx)
}

// CommandsDir returns the configured commands directory.
func (l *Loader) CommandsDir() string { return l.commandsDir }

// SkillsDir returns the configured skills directory.
func (l *Loader) SkillsDir() string { return l.skillsDir }

// Load reads both trees. A missing directory yields no documents of that kind.
func (l *Loader) Load(ctx context.Context) (*Model, error) {
	commands, err := l.loadCommands(ctx)
	if err != nil {
		return nil, err
	}

	skills, err := l.loadSkills(ctx)
	if err != nil {
		return nil, err
	}

	logger.G(ctx).WithFields(map[string]any{
		"commands": len(commands),
		"skills":   len(skills),
	}).Debug("loaded source documents")

	return &Model{Commands: commands, Skills: skills}, nil
}

// markdownFiles lists the markdown files under dir as slash-separated paths
// relative to dir, sorted lexically.
func markdownFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to stat '%s'", dir)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("'%s' is not a directory", dir)
	}

	files, err := doublestar.Glob(os.DirFS(dir), markdownGlob, doublestar.WithFilesOnly())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to scan '%s'", dir)
	}
	sort.Strings(files)
	return files, nil
}

func readDocument(dir, rel string) (frontmatter.Document, string, error) {
	full := filepath.Join(dir, filepath.FromSlash(rel))
	content, err := os.ReadFile(full)
	if err != nil {
		return frontmatter.Document{}, full, errors.Wrapf(err, "failed to read '%s'", full)
	}
	return frontmatter.Parse(string(content)), full, nil
}

func stem(rel string) string {
	return strings.TrimSuffix(path.Base(rel), path.Ext(rel))
}

func (l *Loader) loadCommands(ctx context.Context) ([]Command, error) {
	files, err := markdownFiles(l.commandsDir)
	if err != nil {
		return nil, err
	}

	commands := make([]Command, 0, len(files))
	for _, rel := range files {
		doc, full, err := readDocument(l.commandsDir, rel)
		if err != nil {
			return nil, err
		}

		id := stem(rel)
		fm := doc.Frontmatter
		log := logger.G(ctx).WithField("path", full)
		cmd := Command{
			ID:          id,
			Name:        firstNonEmpty(fm.String("name"), id),
			Description: fm.String("description"),
			Context:     fm.String("context"),
			Args:        argSpecs(log, fm.Objects("args")),
			Body:        doc.Body,
			Path:        full,
		}
		if undeclared := undeclaredMarkers(cmd); len(undeclared) > 0 {
			log.WithField("markers", undeclared).Debug("placeholders without a declared argument")
		}
		log.WithField("name", cmd.Name).Debug("loaded command")
		commands = append(commands, cmd)
	}
	return commands, nil
}

// argSpecs converts declared args, dropping any whose name could not be used
// as a placeholder or environment variable.
func argSpecs(log *logrus.Entry, objs []frontmatter.Object) []ArgSpec {
	args := make([]ArgSpec, 0, len(objs))
	for _, o := range objs {
		if !placeholder.ValidName(o.Name) {
			log.WithField("arg", o.Name).Warn("skipping argument with invalid name")
			continue
		}
		arg := ArgSpec{Name: o.Name, Description: o.Description}
		if o.Required != nil {
			arg.Required = *o.Required
		}
		args = append(args, arg)
	}
	return args
}

// undeclaredMarkers lists the placeholder names in the body of cmd that no
// declared arg covers. The catch-all {{args}} is always allowed.
func undeclaredMarkers(cmd Command) []string {
	declared := make(map[string]bool, len(cmd.Args))
	for _, a := range cmd.Args {
		declared[a.Name] = true
	}

	var undeclared []string
	for _, name := range placeholder.Markers(cmd.Body) {
		if name != "args" && !declared[name] {
			undeclared = append(undeclared, name)
		}
	}
	return undeclared
}

// loadSkills groups the skills tree. A directory holding SKILL.md is a single
// skill whose sibling markdown files are its references; anything nested deeper
// inside such a directory is ignored. Markdown files elsewhere are standalone
// skills.
func (l *Loader) loadSkills(ctx context.Context) ([]Skill, error) {
	files, err := markdownFiles(l.skillsDir)
	if err != nil {
		return nil, err
	}

	skillDirs := make(map[string]bool)
	for _, rel := range files {
		if path.Base(rel) == skillFileName {
			skillDirs[path.Dir(rel)] = true
		}
	}

	skills := make([]Skill, 0, len(files))
	skillIndex := make(map[string]int)
	references := make(map[string][]Reference)

	for _, rel := range files {
		dir := path.Dir(rel)
		owner, nested := owningSkillDir(dir, skillDirs)
		isSkillFile := path.Base(rel) == skillFileName

		switch {
		case nested:
			logger.G(ctx).WithField("path", rel).Debug("ignoring file nested inside a skill directory")
			continue
		case owner != "" && !isSkillFile:
			full := filepath.Join(l.skillsDir, filepath.FromSlash(rel))
			content, err := os.ReadFile(full)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to read reference '%s'", full)
			}
			references[owner] = append(references[owner], Reference{Name: stem(rel), Content: string(content)})
			continue
		}

		doc, full, err := readDocument(l.skillsDir, rel)
		if err != nil {
			return nil, err
		}

		id := stem(rel)
		if isSkillFile {
			if dir != "." {
				id = path.Base(dir)
			}
			skillIndex[dir] = len(skills)
		}
		skills = append(skills, newSkill(id, full, doc))
	}

	for dir, refs := range references {
		if i, ok := skillIndex[dir]; ok {
			skills[i].References = refs
		}
	}

	for _, s := range skills {
		logger.G(ctx).WithFields(map[string]any{
			"name":       s.Name,
			"references": len(s.References),
		}).Debug("loaded skill")
	}

	return skills, nil
}

// owningSkillDir reports the skill directory a file in dir belongs to. nested is
// true when dir lies strictly below a skill directory.
func owningSkillDir(dir string, skillDirs map[string]bool) (owner string, nested bool) {
	if skillDirs[dir] {
		return dir, false
	}
	for d := path.Dir(dir); ; d = path.Dir(d) {
		if skillDirs[d] && d != "." {
			return "", true
		}
		if d == "." || d == "/" {
			return "", false
		}
	}
}

func newSkill(id, full string, doc frontmatter.Document) Skill {
	fm := doc.Frontmatter
	return Skill{
		ID:            id,
		Name:          firstNonEmpty(fm.String("name"), id),
		Description:   fm.String("description"),
		License:       fm.String("license"),
		Compatibility: passthrough(fm, "compatibility"),
		Metadata:      passthrough(fm, "metadata"),
		AllowedTools:  passthrough(fm, "allowed-tools"),
		Body:          doc.Body,
		References:    []Reference{},
		Path:          full,
	}
}

func passthrough(fm *frontmatter.Frontmatter, key string) *frontmatter.Value {
	v, ok := fm.Get(key)
	if !ok || v.IsEmpty() {
		return nil
	}
	return &v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
