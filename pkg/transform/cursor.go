package transform

import (
	"fmt"

	"github.com/pbakaus/impeccable/pkg/placeholder"
	"github.com/pbakaus/impeccable/pkg/source"
)

// Cursor writes bare bodies: commands without frontmatter and skills
// downgraded to flat rule files.
type Cursor struct{}

func (Cursor) Name() string                   { return "cursor" }
func (Cursor) DisplayName() string            { return "Cursor" }
func (Cursor) PolicyName() string             { return placeholder.PassThroughName }
func (Cursor) Dirs() []string                 { return []string{"commands", "rules"} }
func (Cursor) InjectsPatterns() bool          { return false }
func (Cursor) CommandPath(name string) string { return "commands/" + name + ".md" }
func (Cursor) SkillPath(name string) string   { return "rules/" + name + ".md" }

func (c Cursor) RenderCommand(cmd source.Command, name string) ([]File, error) {
	return []File{{Path: c.CommandPath(name), Content: cmd.Body, Kind: KindCommand}}, nil
}

func (c Cursor) RenderSkill(skill source.Skill) ([]File, error) {
	return []File{{Path: c.SkillPath(skill.Name), Content: skill.Body, Kind: KindSkill}}, nil
}

func (Cursor) RenderIndex([]source.Skill) *File { return nil }

func (Cursor) Summarize(label string, s Summary) string {
	return fmt.Sprintf("%s: %d commands, %d skills (downgraded)", label, s.Commands, s.Skills)
}
