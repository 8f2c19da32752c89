// Package patterns extracts the do/don't guidance of the designated design skill
// and renders it back into markdown for injection into generated skill bodies.
package patterns

import (
	"context"
	"regexp"
	"strings"

	"github.com/pbakaus/impeccable/pkg/logger"
	"github.com/pbakaus/impeccable/pkg/source"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// DesignatedSkill is the skill whose body carries the pattern sections.
const DesignatedSkill = "frontend-design"

// InjectionMarker is the body position the rendered patterns are spliced before.
const InjectionMarker = "---\n\n## Domain Reference Files"

const generalCategory = "General"

// Category groups guidance items under a name.
type Category struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

// Set is the extracted guidance.
type Set struct {
	Patterns     []Category `json:"patterns"`
	Antipatterns []Category `json:"antipatterns"`
}

// Empty returns a set with no categories.
func Empty() Set {
	return Set{Patterns: []Category{}, Antipatterns: []Category{}}
}

// IsEmpty reports whether the set has no categories at all.
func (s Set) IsEmpty() bool {
	return len(s.Patterns) == 0 && len(s.Antipatterns) == 0
}

type sectionKind int

const (
	sectionNone sectionKind = iota
	sectionFollow
	sectionAvoid
)

var (
	avoidMarkers  = []string{"patterns to avoid", "anti-pattern", "what not to do"}
	followMarkers = []string{"patterns to follow", "what to do"}

	categoryLine = regexp.MustCompile(`^\*\*(.+?)\*\*:?$`)
)

func classify(heading string) sectionKind {
	h := strings.ToLower(heading)
	for _, m := range avoidMarkers {
		if strings.Contains(h, m) {
			return sectionAvoid
		}
	}
	for _, m := range followMarkers {
		if strings.Contains(h, m) {
			return sectionFollow
		}
	}
	return sectionNone
}

// collector accumulates the categories of one section.
type collector struct {
	categories []Category
	current    int
}

func newCollector() *collector {
	return &collector{current: -1}
}

func (c *collector) open(name string) {
	c.categories = append(c.categories, Category{Name: name, Items: []string{}})
	c.current = len(c.categories) - 1
}

func (c *collector) add(item string) {
	if c.current < 0 {
		c.open(generalCategory)
	}
	c.categories[c.current].Items = append(c.categories[c.current].Items, item)
}

func (c *collector) result() []Category {
	out := []Category{}
	for _, cat := range c.categories {
		if len(cat.Items) > 0 {
			out = append(out, cat)
		}
	}
	return out
}

// Extract mines the follow/avoid sections of body. Items are grouped under the
// nearest preceding sub-heading or bold `**Name**:` line. Bodies without
// recognisable sections yield an empty set.
func Extract(body string) Set {
	src := []byte(body)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	set := Empty()
	var (
		kind  = sectionNone
		level int
		col   *collector
	)

	flush := func() {
		if col == nil {
			return
		}
		switch kind {
		case sectionFollow:
			set.Patterns = append(set.Patterns, col.result()...)
		case sectionAvoid:
			set.Antipatterns = append(set.Antipatterns, col.result()...)
		}
		col = nil
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			title := lineText(node, src)
			if kind != sectionNone && node.Level > level {
				col.open(title)
				continue
			}
			flush()
			kind = classify(title)
			level = node.Level
			if kind != sectionNone {
				col = newCollector()
			}
		case *ast.Paragraph:
			if kind == sectionNone {
				continue
			}
			if m := categoryLine.FindStringSubmatch(lineText(node, src)); m != nil {
				col.open(strings.TrimSpace(m[1]))
			}
		case *ast.List:
			if kind == sectionNone {
				continue
			}
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				block := item.FirstChild()
				if block == nil {
					continue
				}
				if t := lineText(block, src); t != "" {
					col.add(t)
				}
			}
		}
	}
	flush()

	return set
}

// lineText joins the trimmed source lines of a block node with single spaces.
func lineText(n ast.Node, src []byte) string {
	lines := n.Lines()
	parts := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		if s := strings.TrimSpace(string(seg.Value(src))); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// FromModel extracts the set from the named skill of model. A missing skill
// produces an empty set.
func FromModel(ctx context.Context, model *source.Model, skillName string) Set {
	if skillName == "" {
		skillName = DesignatedSkill
	}
	skill, ok := model.FindSkill(skillName)
	if !ok {
		logger.G(ctx).WithField("skill", skillName).Warn("pattern skill not found, skipping pattern extraction")
		return Empty()
	}

	set := Extract(skill.Body)
	logger.G(ctx).WithFields(map[string]any{
		"skill":        skillName,
		"patterns":     len(set.Patterns),
		"antipatterns": len(set.Antipatterns),
	}).Debug("extracted design patterns")
	return set
}

const (
	renderPreamble = `## Design Patterns Reference

This reference defines what TO do and what NOT to do when creating frontend interfaces. These patterns fight against model bias—the tendency of LLMs to converge on the same predictable choices.

### What TO Do (Patterns)

Focus on intentional, distinctive design choices:
`
	renderAvoidHeader = `
### What NOT to Do (Anti-Patterns)

These patterns create generic "AI slop" aesthetics:
`
	renderClosing = `
These anti-patterns are baked into training data from countless generic templates. Without explicit guidance, AI reproduces them. This skill ensures your AI knows both what to do AND what to avoid.
`
)

// Render serialises s into markdown. An empty set renders as "".
func Render(s Set) string {
	if s.IsEmpty() {
		return ""
	}

	var b strings.Builder
	b.WriteString(renderPreamble)
	writeCategories(&b, s.Patterns)
	b.WriteString(renderAvoidHeader)
	writeCategories(&b, s.Antipatterns)
	b.WriteString(renderClosing)
	return b.String()
}

func writeCategories(b *strings.Builder, categories []Category) {
	for _, c := range categories {
		b.WriteString("\n**" + c.Name + "**:\n")
		for _, item := range c.Items {
			b.WriteString("- " + item + "\n")
		}
	}
}

// Inject splices rendered into body before InjectionMarker, or appends it when
// the marker is absent. An empty rendered text leaves body untouched.
func Inject(body, rendered string) string {
	if rendered == "" {
		return body
	}
	if i := strings.Index(body, InjectionMarker); i >= 0 {
		return body[:i] + "\n\n" + rendered + "\n\n" + body[i:]
	}
	return body + "\n\n" + rendered
}
