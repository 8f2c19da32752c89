package transform

import (
	"github.com/pkg/errors"
)

// All returns every target in build order.
func All() []Target {
	return []Target{Cursor{}, ClaudeCode{}, Gemini{}, Codex{}}
}

// Names returns the registry keys in build order.
func Names() []string {
	targets := All()
	names := make([]string, 0, len(targets))
	for _, t := range targets {
		names = append(names, t.Name())
	}
	return names
}

// Lookup finds a target by name.
func Lookup(name string) (Target, error) {
	for _, t := range All() {
		if t.Name() == name {
			return t, nil
		}
	}
	return nil, errors.Errorf("unknown target '%s'", name)
}

// Select resolves names to targets, keeping build order and dropping
// duplicates. An empty selection means every target.
func Select(names []string) ([]Target, error) {
	if len(names) == 0 {
		return All(), nil
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		if _, err := Lookup(n); err != nil {
			return nil, err
		}
		wanted[n] = true
	}

	var out []Target
	for _, t := range All() {
		if wanted[t.Name()] {
			out = append(out, t)
		}
	}
	return out, nil
}
