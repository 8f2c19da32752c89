package transform

import (
	"fmt"
	"strings"

	"github.com/pbakaus/impeccable/pkg/frontmatter"
	"github.com/pbakaus/impeccable/pkg/placeholder"
	"github.com/pbakaus/impeccable/pkg/source"
)

const codexIndex = "AGENTS.md"

// Codex writes prompts with an argument-hint, placeholder markers rewritten to
// environment variables, and skills routed through AGENTS.md.
type Codex struct{}

func (Codex) Name() string          { return "codex" }
func (Codex) DisplayName() string   { return "Codex" }
func (Codex) PolicyName() string    { return placeholder.EnvVarName }
func (Codex) Dirs() []string        { return []string{"prompts"} }
func (Codex) InjectsPatterns() bool { return false }

func (Codex) CommandPath(name string) string { return "prompts/" + name + ".md" }
func (Codex) SkillPath(name string) string   { return "AGENTS." + name + ".md" }

// ArgumentHint renders required args as <name> and optional ones as
// [NAME=<value>], space separated.
func ArgumentHint(args []source.ArgSpec) string {
	tokens := make([]string, 0, len(args))
	for _, a := range args {
		if a.Required {
			tokens = append(tokens, "<"+a.Name+">")
		} else {
			tokens = append(tokens, "["+strings.ToUpper(a.Name)+"=<value>]")
		}
	}
	return strings.Join(tokens, " ")
}

func (c Codex) RenderCommand(cmd source.Command, name string) ([]File, error) {
	fm := frontmatter.New()
	setNonEmpty(fm, "description", cmd.Description)
	if len(cmd.Args) > 0 {
		fm.SetScalar("argument-hint", ArgumentHint(cmd.Args))
	}

	// a prompt with nothing to declare is emitted without a frontmatter block
	content := cmd.Body
	if fm.Len() > 0 {
		content = frontmatter.Compose(fm, cmd.Body)
	}
	return []File{{Path: c.CommandPath(name), Content: content, Kind: KindCommand}}, nil
}

func (c Codex) RenderSkill(skill source.Skill) ([]File, error) {
	return []File{{Path: c.SkillPath(skill.Name), Content: skill.Body, Kind: KindSkill}}, nil
}

func (c Codex) RenderIndex(skills []source.Skill) *File {
	var b strings.Builder
	b.WriteString("# Codex Agent Instructions\n\n")
	b.WriteString("This project provides specialized skills in separate files. Read the matching file before starting a task it covers.\n\n")
	b.WriteString("## Available Skills\n\n")
	if len(skills) == 0 {
		b.WriteString("No skills are installed.\n\n")
	}
	for _, s := range skills {
		fmt.Fprintf(&b, "### %s\n\n", s.Name)
		fmt.Fprintf(&b, "**When to use**: %s\n\n", describe(s.Description))
		fmt.Fprintf(&b, "**Read**: `%s`\n\n", c.SkillPath(s.Name))
	}
	b.WriteString("## How to Use Skills\n\n")
	b.WriteString("1. Compare the task with each skill's **When to use** line.\n")
	b.WriteString("2. Read the referenced file before writing any code.\n")
	b.WriteString("3. Follow its instructions until the task is done.\n")

	return &File{Path: codexIndex, Content: b.String(), Kind: KindIndex}
}

func (Codex) Summarize(label string, s Summary) string {
	return fmt.Sprintf("%s: %d prompts, %d skills (modular)", label, s.Commands, s.Skills)
}
