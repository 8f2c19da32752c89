package transform

import (
	"fmt"
	"path"

	"github.com/pbakaus/impeccable/pkg/frontmatter"
	"github.com/pbakaus/impeccable/pkg/placeholder"
	"github.com/pbakaus/impeccable/pkg/source"
)

// ClaudeCode keeps the full frontmatter. Each skill gets its own directory
// with a SKILL.md and a reference/ folder for its auxiliary documents.
type ClaudeCode struct{}

func (ClaudeCode) Name() string          { return "claude-code" }
func (ClaudeCode) DisplayName() string   { return "Claude Code" }
func (ClaudeCode) PolicyName() string    { return placeholder.PassThroughName }
func (ClaudeCode) Dirs() []string        { return []string{"commands", "skills"} }
func (ClaudeCode) InjectsPatterns() bool { return true }

func (ClaudeCode) CommandPath(name string) string { return "commands/" + name + ".md" }
func (ClaudeCode) SkillPath(name string) string   { return "skills/" + name + "/SKILL.md" }

func (c ClaudeCode) RenderCommand(cmd source.Command, name string) ([]File, error) {
	fm := frontmatter.New().SetScalar("name", name)
	setNonEmpty(fm, "description", cmd.Description)
	setNonEmpty(fm, "context", cmd.Context)
	if len(cmd.Args) > 0 {
		fm.Set("args", argObjects(cmd.Args))
	}

	return []File{{
		Path:    c.CommandPath(name),
		Content: frontmatter.Compose(fm, cmd.Body),
		Kind:    KindCommand,
	}}, nil
}

func (c ClaudeCode) RenderSkill(skill source.Skill) ([]File, error) {
	fm := frontmatter.New().SetScalar("name", skill.Name)
	setNonEmpty(fm, "description", skill.Description)
	setNonEmpty(fm, "license", skill.License)
	setValue(fm, "compatibility", skill.Compatibility)
	setValue(fm, "metadata", skill.Metadata)
	setValue(fm, "allowed-tools", skill.AllowedTools)

	skillPath := c.SkillPath(skill.Name)
	files := []File{{
		Path:    skillPath,
		Content: frontmatter.Compose(fm, skill.Body),
		Kind:    KindSkill,
	}}

	refDir := path.Join(path.Dir(skillPath), "reference")
	for _, ref := range skill.References {
		files = append(files, File{
			Path:    path.Join(refDir, ref.Name+".md"),
			Content: ref.Content,
			Kind:    KindReference,
		})
	}
	return files, nil
}

func (ClaudeCode) RenderIndex([]source.Skill) *File { return nil }

func (ClaudeCode) Summarize(label string, s Summary) string {
	return fmt.Sprintf("%s: %d commands, %d skills%s", label, s.Commands, s.Skills, referenceSuffix(s.References))
}

func argObjects(args []source.ArgSpec) frontmatter.Value {
	objs := make([]frontmatter.Object, 0, len(args))
	for _, a := range args {
		required := a.Required
		objs = append(objs, frontmatter.Object{
			Name:           a.Name,
			Description:    a.Description,
			HasDescription: a.Description != "",
			Required:       &required,
		})
	}
	return frontmatter.ObjectList(objs...)
}

// setNonEmpty omits empty scalars, which the frontmatter dialect cannot
// represent.
func setNonEmpty(fm *frontmatter.Frontmatter, key, value string) {
	if value != "" {
		fm.SetScalar(key, value)
	}
}

func setValue(fm *frontmatter.Frontmatter, key string, v *frontmatter.Value) {
	if v != nil && !v.IsEmpty() {
		fm.Set(key, v.Clone())
	}
}
