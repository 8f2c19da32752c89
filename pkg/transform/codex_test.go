package transform

import (
	"testing"

	"github.com/pbakaus/impeccable/pkg/frontmatter"
	"github.com/pbakaus/impeccable/pkg/patterns"
	"github.com/pbakaus/impeccable/pkg/source"
	"github.com/stretchr/testify/assert"
)

func TestArgumentHint(t *testing.T) {
	tests := []struct {
		name     string
		args     []source.ArgSpec
		expected string
	}{
		{"none", nil, ""},
		{"required", []source.ArgSpec{{Name: "target", Required: true}, {Name: "output", Required: true}}, "<target> <output>"},
		{"optional", []source.ArgSpec{{Name: "format"}}, "[FORMAT=<value>]"},
		{
			"mixed",
			[]source.ArgSpec{{Name: "input", Required: true}, {Name: "format"}, {Name: "output", Required: true}},
			"<input> [FORMAT=<value>] <output>",
		},
		{"hyphenated optional", []source.ArgSpec{{Name: "out-file"}}, "[OUT-FILE=<value>]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ArgumentHint(tt.args))
		})
	}
}

func TestCodexPrompts(t *testing.T) {
	model := &source.Model{Commands: []source.Command{
		{Name: "test", Description: "Test command", Args: []source.ArgSpec{{Name: "arg1", Description: "Arg 1", Required: true}}, Body: "Body"},
		{Name: "no-args", Description: "No args command", Body: "Body content"},
		{Name: "multi-arg", Description: "Multiple args", Body: "Process {{input}} and output to {{output}} with {{format}} and {{input}}."},
		{Name: "hyphen-arg", Description: "Test", Body: "Process {{my-input}} and {{output-file}}."},
	}}

	dist, summary := run(t, Codex{}, model, Options{})

	t.Run("frontmatter", func(t *testing.T) {
		content := readOutput(t, dist, "codex/prompts/test.md")
		assert.Equal(t, "---\ndescription: Test command\nargument-hint: <arg1>\n---\n\nBody", content)

		doc := frontmatter.Parse(content)
		assert.Equal(t, "Test command", doc.Frontmatter.String("description"))
		assert.Equal(t, "<arg1>", doc.Frontmatter.String("argument-hint"))
		assert.Equal(t, "Body", doc.Body)
	})

	t.Run("no args", func(t *testing.T) {
		doc := frontmatter.Parse(readOutput(t, dist, "codex/prompts/no-args.md"))
		_, ok := doc.Frontmatter.Get("argument-hint")
		assert.False(t, ok)
		assert.Equal(t, "Body content", doc.Body)
	})

	t.Run("env vars", func(t *testing.T) {
		doc := frontmatter.Parse(readOutput(t, dist, "codex/prompts/multi-arg.md"))
		assert.Equal(t, "Process $INPUT and output to $OUTPUT with $FORMAT and $INPUT.", doc.Body)
	})

	t.Run("hyphens kept", func(t *testing.T) {
		doc := frontmatter.Parse(readOutput(t, dist, "codex/prompts/hyphen-arg.md"))
		assert.Contains(t, doc.Body, "$MY-INPUT")
		assert.Contains(t, doc.Body, "$OUTPUT-FILE")
	})

	assert.Equal(t, "Codex: 4 prompts, 0 skills (modular)", summary.Line)
}

func TestCodexSkills(t *testing.T) {
	model := &source.Model{Skills: []source.Skill{
		{Name: "frontend-design", Description: "Create distinctive, production-grade frontend interfaces", Body: "Frontend design instructions."},
		{Name: "backend-api", Description: "Design robust API endpoints", Body: "Backend API instructions."},
		{Name: "bare", Body: "No description."},
	}}
	set := patterns.Set{
		Patterns:     []patterns.Category{{Name: "Type", Items: []string{"Use a scale"}}},
		Antipatterns: []patterns.Category{},
	}

	dist, _ := run(t, Codex{}, model, Options{Patterns: set})

	assert.Equal(t, "Frontend design instructions.", readOutput(t, dist, "codex/AGENTS.frontend-design.md"))

	index := readOutput(t, dist, "codex/AGENTS.md")
	assert.Contains(t, index, "# Codex Agent Instructions")
	assert.Contains(t, index, "## Available Skills")
	assert.Contains(t, index, "### frontend-design")
	assert.Contains(t, index, "**When to use**: Create distinctive, production-grade frontend interfaces")
	assert.Contains(t, index, "**Read**: `AGENTS.frontend-design.md`")
	assert.Contains(t, index, "**Read**: `AGENTS.backend-api.md`")
	assert.Contains(t, index, "**When to use**: "+source.DefaultDescription)
	assert.Contains(t, index, "## How to Use Skills")
}

func TestCodexBarePrompt(t *testing.T) {
	model := &source.Model{Commands: []source.Command{
		{Name: "bare", Body: "Just do it."},
		{Name: "hinted", Body: "Use $TARGET", Args: []source.ArgSpec{{Name: "target", Required: true}}},
	}}

	dist, _ := run(t, Codex{}, model, Options{})

	bare := readOutput(t, dist, "codex/prompts/bare.md")
	assert.Equal(t, "Just do it.", bare)
	assert.NotContains(t, bare, "---")

	assert.Equal(t, "---\nargument-hint: <target>\n---\n\nUse $TARGET", readOutput(t, dist, "codex/prompts/hinted.md"))
}

func TestCodexEmpty(t *testing.T) {
	dist, _ := run(t, Codex{}, &source.Model{}, Options{})

	assert.Empty(t, dirEntries(t, dist, "codex/prompts"))
	assertExists(t, dist, "codex/AGENTS.md")
}
