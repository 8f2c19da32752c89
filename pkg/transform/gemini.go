package transform

import (
	"fmt"
	"strings"

	"github.com/pbakaus/impeccable/pkg/placeholder"
	"github.com/pbakaus/impeccable/pkg/source"
)

const geminiIndex = "GEMINI.md"

// Gemini converts commands to TOML with a single {{args}} slot and splits
// skills into modular files imported from GEMINI.md.
type Gemini struct{}

func (Gemini) Name() string          { return "gemini" }
func (Gemini) DisplayName() string   { return "Gemini" }
func (Gemini) PolicyName() string    { return placeholder.SingleSlotName }
func (Gemini) Dirs() []string        { return []string{"commands"} }
func (Gemini) InjectsPatterns() bool { return true }

func (Gemini) CommandPath(name string) string { return "commands/" + name + ".toml" }
func (Gemini) SkillPath(name string) string   { return "GEMINI." + name + ".md" }

var (
	tomlEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	// promptEscaper keeps a body inside a multi-line basic string, where a
	// backslash always starts an escape and """ closes the value.
	promptEscaper = strings.NewReplacer(`\`, `\\`, `"""`, `""\"`)
)

func (g Gemini) RenderCommand(cmd source.Command, name string) ([]File, error) {
	content := strings.Join([]string{
		`description = "` + tomlEscaper.Replace(cmd.Description) + `"`,
		`prompt = """`,
		promptEscaper.Replace(cmd.Body),
		`"""`,
	}, "\n")
	return []File{{Path: g.CommandPath(name), Content: content, Kind: KindCommand}}, nil
}

func (g Gemini) RenderSkill(skill source.Skill) ([]File, error) {
	return []File{{Path: g.SkillPath(skill.Name), Content: skill.Body, Kind: KindSkill}}, nil
}

func (g Gemini) RenderIndex(skills []source.Skill) *File {
	var b strings.Builder
	b.WriteString("# Gemini Context\n\n")
	b.WriteString("This project ships design skills as modular context files. Each skill below is imported into context.\n\n")
	b.WriteString("## Available Skills\n\n")
	if len(skills) == 0 {
		b.WriteString("No skills are installed.\n\n")
	}
	for _, s := range skills {
		fmt.Fprintf(&b, "### %s\n\n", s.Name)
		fmt.Fprintf(&b, "**When to use**: %s\n\n", describe(s.Description))
		fmt.Fprintf(&b, "@./%s\n\n", g.SkillPath(s.Name))
	}
	b.WriteString("## How Skills Work\n\n")
	b.WriteString("Every imported skill is part of your context. When a task matches a skill's **When to use** line, follow that skill's instructions for the whole task.\n")

	return &File{Path: geminiIndex, Content: b.String(), Kind: KindIndex}
}

func (Gemini) Summarize(label string, s Summary) string {
	return fmt.Sprintf("%s: %d commands (TOML), %d skills (modular)", label, s.Commands, s.Skills)
}

func describe(description string) string {
	if description == "" {
		return source.DefaultDescription
	}
	return description
}
