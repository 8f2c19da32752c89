// Package placeholder rewrites {{identifier}} markers in document bodies
// according to the argument conventions of each output target.
package placeholder

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// markerPattern matches {{identifier}} where identifier holds letters, digits
// and hyphens.
var (
	markerPattern = regexp.MustCompile(`\{\{([A-Za-z0-9-]+)\}\}`)
	namePattern   = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
)

// ValidName reports whether name can appear inside a marker.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// Policy rewrites the markers in a body.
type Policy func(body string) string

// Apply runs the policy; a nil policy leaves the body unchanged.
func (p Policy) Apply(body string) string {
	if p == nil {
		return body
	}
	return p(body)
}

// Policy names understood by Lookup.
const (
	PassThroughName = "pass-through"
	EnvVarName      = "env-var"
	SingleSlotName  = "single-slot"
)

// PassThrough keeps markers verbatim for tools that interpret them natively.
func PassThrough(body string) string {
	return body
}

// EnvVar replaces every {{identifier}} with $IDENTIFIER. Hyphens are kept.
func EnvVar(body string) string {
	return markerPattern.ReplaceAllStringFunc(body, func(m string) string {
		name := markerPattern.FindStringSubmatch(m)[1]
		return "$" + strings.ToUpper(name)
	})
}

// SingleSlot collapses every marker to {{args}}, one per occurrence.
func SingleSlot(body string) string {
	return markerPattern.ReplaceAllLiteralString(body, "{{args}}")
}

var policies = map[string]Policy{
	PassThroughName: PassThrough,
	EnvVarName:      EnvVar,
	SingleSlotName:  SingleSlot,
}

// Lookup returns the policy registered under name.
func Lookup(name string) (Policy, error) {
	p, ok := policies[name]
	if !ok {
		return nil, errors.Errorf("unknown placeholder policy '%s', expected one of %v", name, Names())
	}
	return p, nil
}

// Names returns the registered policy names in sorted order.
func Names() []string {
	names := make([]string, 0, len(policies))
	for name := range policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Markers returns the identifiers referenced in body, in order of first
// appearance and without duplicates.
func Markers(body string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range markerPattern.FindAllStringSubmatch(body, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}
