package frontmatter

import (
	"strconv"
	"strings"
)

const delimiter = "---"

// Document is the result of splitting a source file into frontmatter and body.
type Document struct {
	Frontmatter *Frontmatter
	Body        string
}

// Parse splits raw text into frontmatter and body.
//
// Text that does not start with a "---" line followed later by another "---"
// line has no frontmatter: the whole input, trimmed, becomes the body. Lines
// inside the block that do not match a dialect rule are skipped. Parse never
// fails.
func Parse(raw string) Document {
	text := strings.ReplaceAll(raw, "\r\n", "\n")

	block, body, ok := split(text)
	if !ok {
		return Document{Frontmatter: New(), Body: strings.TrimSpace(text)}
	}

	return Document{
		Frontmatter: parseBlock(block),
		Body:        strings.TrimSpace(body),
	}
}

// split locates the opening and closing delimiter lines.
func split(text string) (block, body string, ok bool) {
	if !strings.HasPrefix(text, delimiter+"\n") {
		return "", "", false
	}
	rest := text[len(delimiter)+1:]

	offset := 0
	for {
		nl := strings.IndexByte(rest[offset:], '\n')
		line := rest[offset:]
		if nl >= 0 {
			line = rest[offset : offset+nl]
		}

		if line == delimiter {
			block = strings.TrimSuffix(rest[:offset], "\n")
			if nl >= 0 {
				body = rest[offset+nl+1:]
			}
			return block, body, true
		}

		if nl < 0 {
			return "", "", false
		}
		offset += nl + 1
	}
}

func parseBlock(block string) *Frontmatter {
	fm := New()

	// arrayKey is non-empty while an array opened by "key:" accepts items.
	var arrayKey string
	var objects []Object

	for _, line := range strings.Split(block, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))

		switch {
		case indent >= 2 && strings.HasPrefix(trimmed, "- "):
			if arrayKey == "" || !strings.HasPrefix(trimmed, "- name:") {
				continue
			}
			objects = append(objects, Object{Name: strings.TrimSpace(trimmed[len("- name:"):])})
			fm.Set(arrayKey, Value{kind: KindObjectList, objects: objects})

		case indent >= 4 && arrayKey != "" && len(objects) > 0:
			key, value, ok := splitKeyValue(trimmed)
			if !ok {
				continue
			}
			setObjectField(&objects[len(objects)-1], key, value)

		case indent == 0:
			key, value, ok := splitKeyValue(trimmed)
			if !ok {
				continue
			}
			if value != "" {
				fm.SetScalar(key, value)
				arrayKey, objects = "", nil
				continue
			}
			arrayKey, objects = key, []Object{}
			fm.Set(key, Value{kind: KindObjectList, objects: objects})
		}
	}

	return fm
}

func splitKeyValue(s string) (key, value string, ok bool) {
	idx := strings.IndexByte(s, ':')
	if idx <= 0 {
		return "", "", false
	}
	return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx+1:]), true
}

// setObjectField applies one indented "key: value" line to an array object.
// Only the name, description and required fields are representable; required
// accepts the literals true and false and nothing else. An empty description
// counts as absent.
func setObjectField(o *Object, key, value string) {
	switch key {
	case "name":
		o.Name = value
	case "description":
		o.Description = value
		o.HasDescription = value != ""
	case "required":
		switch value {
		case "true", "false":
			b := value == "true"
			o.Required = &b
		}
	}
}

// Generate renders fm as a delimited frontmatter block without a trailing
// newline. Keys are written in insertion order; optional object fields are
// omitted rather than written empty. Generate inverts Parse for every structure
// Parse can produce, except that empty scalars are not representable.
func Generate(fm *Frontmatter) string {
	lines := []string{delimiter}

	for _, key := range fm.Keys() {
		v, _ := fm.Get(key)
		switch v.kind {
		case KindScalar:
			lines = append(lines, key+": "+v.scalar)
		case KindScalarList:
			lines = append(lines, key+":")
			for _, item := range v.list {
				lines = append(lines, "  - "+item)
			}
		case KindObjectList:
			lines = append(lines, key+":")
			for _, o := range v.objects {
				lines = append(lines, "  - name: "+o.Name)
				if o.HasDescription && o.Description != "" {
					lines = append(lines, "    description: "+o.Description)
				}
				if o.Required != nil {
					lines = append(lines, "    required: "+strconv.FormatBool(*o.Required))
				}
			}
		}
	}

	lines = append(lines, delimiter)
	return strings.Join(lines, "\n")
}

// Compose renders a frontmatter block followed by a blank line and body.
func Compose(fm *Frontmatter, body string) string {
	return Generate(fm) + "\n\n" + body
}
