package placeholder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicies(t *testing.T) {
	body := "Use {{a}} and {{b}} and {{a}} again"

	tests := []struct {
		name     string
		policy   Policy
		expected string
	}{
		{"pass-through", PassThrough, body},
		{"env-var", EnvVar, "Use $A and $B and $A again"},
		{"single-slot", SingleSlot, "Use {{args}} and {{args}} and {{args}} again"},
		{"nil policy", nil, body},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.policy.Apply(body))
		})
	}
}

func TestEnvVar(t *testing.T) {
	t.Run("hyphenated identifiers", func(t *testing.T) {
		got := EnvVar("Process {{my-input}} and {{output-file}}.")
		assert.Equal(t, "Process $MY-INPUT and $OUTPUT-FILE.", got)
	})

	t.Run("digits and mixed case", func(t *testing.T) {
		assert.Equal(t, "$ARG1 $TARGET", EnvVar("{{arg1}} {{Target}}"))
	})

	t.Run("non-identifier braces are untouched", func(t *testing.T) {
		body := "Keep {{ spaced }} and {{under_score}} and {single}."
		assert.Equal(t, body, EnvVar(body))
	})

	t.Run("no markers", func(t *testing.T) {
		body := "Just plain text without any placeholders."
		assert.Equal(t, body, EnvVar(body))
	})
}

func TestSingleSlot(t *testing.T) {
	got := SingleSlot("Process {{input}} and output to {{output}} with {{format}}.")
	assert.Equal(t, "Process {{args}} and output to {{args}} with {{args}}.", got)
	assert.Equal(t, "{{args}}", SingleSlot("{{args}}"))
}

func TestLookup(t *testing.T) {
	for _, name := range Names() {
		p, err := Lookup(name)
		require.NoError(t, err)
		assert.NotNil(t, p)
	}

	_, err := Lookup("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected one of [env-var pass-through single-slot]")
	assert.Equal(t, []string{EnvVarName, PassThroughName, SingleSlotName}, Names())
}

func TestMarkers(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Markers("{{a}} {{b}} {{a}}"))
	assert.Nil(t, Markers("none"))
}

func TestValidName(t *testing.T) {
	for _, name := range []string{"target", "out-file", "arg1", "FORMAT"} {
		assert.True(t, ValidName(name), name)
	}
	for _, name := range []string{"", "my arg", "a.b", "{{x}}", "snake_case"} {
		assert.False(t, ValidName(name), name)
	}
}
