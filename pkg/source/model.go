// Package source loads command and skill documents into the Document Model
// shared read-only by every output target.
package source

import (
	"github.com/pbakaus/impeccable/pkg/frontmatter"
)

// DefaultDescription is shown by listings when a document has no description.
const DefaultDescription = "No description available"

// ArgSpec is one formal parameter of a command.
type ArgSpec struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

// Command is one invocable prompt template.
type Command struct {
	ID          string    // Filename stem of the source file
	Name        string    // Frontmatter name, falling back to ID
	Description string    // May be empty
	Context     string    // Optional passthrough field
	Args        []ArgSpec // Formal parameters in declaration order
	Body        string    // Markdown body with {{placeholder}} markers
	Path        string    // Source file path
}

// Reference is an auxiliary document attached to a skill.
type Reference struct {
	Name    string
	Content string
}

// Skill is a longer-form instructional document.
type Skill struct {
	ID            string
	Name          string
	Description   string
	License       string
	Compatibility *frontmatter.Value
	Metadata      *frontmatter.Value
	AllowedTools  *frontmatter.Value
	Body          string
	References    []Reference
	Path          string
}

// Model is the loaded set of commands and skills.
type Model struct {
	Commands []Command
	Skills   []Skill
}

// Info is the lightweight listing view of a document.
type Info struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Clone returns a deep copy so a consumer can never affect another's view.
func (m *Model) Clone() *Model {
	if m == nil {
		return &Model{Commands: []Command{}, Skills: []Skill{}}
	}

	out := &Model{
		Commands: make([]Command, len(m.Commands)),
		Skills:   make([]Skill, len(m.Skills)),
	}
	for i, c := range m.Commands {
		out.Commands[i] = c.Clone()
	}
	for i, s := range m.Skills {
		out.Skills[i] = s.Clone()
	}
	return out
}

// Clone returns a deep copy of the command.
func (c Command) Clone() Command {
	out := c
	if c.Args != nil {
		out.Args = append([]ArgSpec{}, c.Args...)
	}
	return out
}

// Clone returns a deep copy of the skill.
func (s Skill) Clone() Skill {
	out := s
	out.Compatibility = cloneValue(s.Compatibility)
	out.Metadata = cloneValue(s.Metadata)
	out.AllowedTools = cloneValue(s.AllowedTools)
	if s.References != nil {
		out.References = append([]Reference{}, s.References...)
	}
	return out
}

func cloneValue(v *frontmatter.Value) *frontmatter.Value {
	if v == nil {
		return nil
	}
	c := v.Clone()
	return &c
}

// MapBodies returns a copy of the model with fn applied to every command body,
// skill body and reference content.
func (m *Model) MapBodies(fn func(string) string) *Model {
	out := m.Clone()
	for i := range out.Commands {
		out.Commands[i].Body = fn(out.Commands[i].Body)
	}
	for i := range out.Skills {
		out.Skills[i].Body = fn(out.Skills[i].Body)
		for j := range out.Skills[i].References {
			out.Skills[i].References[j].Content = fn(out.Skills[i].References[j].Content)
		}
	}
	return out
}

// FindSkill returns the skill with the given name.
func (m *Model) FindSkill(name string) (Skill, bool) {
	if m == nil {
		return Skill{}, false
	}
	for _, s := range m.Skills {
		if s.Name == name {
			return s, true
		}
	}
	return Skill{}, false
}

// CommandInfos returns listing entries for every command.
func (m *Model) CommandInfos() []Info {
	infos := make([]Info, 0, len(m.Commands))
	for _, c := range m.Commands {
		infos = append(infos, newInfo(c.ID, c.Name, c.Description))
	}
	return infos
}

// SkillInfos returns listing entries for every skill.
func (m *Model) SkillInfos() []Info {
	infos := make([]Info, 0, len(m.Skills))
	for _, s := range m.Skills {
		infos = append(infos, newInfo(s.ID, s.Name, s.Description))
	}
	return infos
}

func newInfo(id, name, description string) Info {
	if name == "" {
		name = id
	}
	if description == "" {
		description = DefaultDescription
	}
	return Info{ID: id, Name: name, Description: description}
}
