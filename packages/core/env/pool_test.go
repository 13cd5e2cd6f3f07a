package env

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstitute(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		vars     Variables
		expected string
	}{
		{"simple", "Bearer {{token}}", Variables{"token": "abc123"}, "Bearer abc123"},
		{"whitespace tolerant", "Bearer {{  token }}", Variables{"token": "abc123"}, "Bearer abc123"},
		{"unresolved left verbatim", "id={{missing}}", Variables{}, "id={{missing}}"},
		{"multiple", "{{a}}-{{b}}-{{a}}", Variables{"a": "x", "b": "y"}, "x-y-x"},
		{"whole number", "/users/{{id}}", Variables{"id": float64(42)}, "/users/42"},
		{"large whole number", "{{n}}", Variables{"n": float64(1000000)}, "1000000"},
		{"fraction", "{{n}}", Variables{"n": 1.5}, "1.5"},
		{"bool", "{{ok}}", Variables{"ok": true}, "true"},
		{"int", "{{n}}", Variables{"n": 7}, "7"},
		{"null", "{{v}}", Variables{"v": nil}, "null"},
		{"object", "{{obj}}", Variables{"obj": map[string]any{"a": float64(1)}}, `{"a":1}`},
		{"no templates", "plain text", Variables{"a": "x"}, "plain text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Substitute(tt.input, tt.vars))
		})
	}
}

func TestUnresolved(t *testing.T) {
	missing := Unresolved("{{b}} {{a}} {{known}} {{b}}", Variables{"known": 1})
	assert.Equal(t, []string{"a", "b"}, missing)
	assert.Empty(t, Unresolved("{{known}}", Variables{"known": 1}))
}

func TestPool_LastWriteWins(t *testing.T) {
	p := NewPool()
	p.Set("token", "first")
	p.Set("token", "second")

	v, ok := p.Get("token")
	assert.True(t, ok)
	assert.Equal(t, "second", v)
	assert.Equal(t, 1, p.Len())
}

func TestPool_SnapshotIsIsolated(t *testing.T) {
	p := NewPool()
	p.Set("a", 1)

	snap := p.Snapshot()
	p.Set("b", 2)
	snap["c"] = 3

	assert.Equal(t, Variables{"a": 1, "c": 3}, snap)
	_, ok := p.Get("c")
	assert.False(t, ok)
	assert.Equal(t, 2, p.Len())
}

func TestPool_Resolve(t *testing.T) {
	p := NewPool()
	p.SetAll(map[string]any{"host": "api.local", "version": "v2"})

	var warnings []string
	p.SetWarnFunc(func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	})

	assert.Equal(t, "https://api.local/v2/{{path}}", p.Resolve("https://{{host}}/{{version}}/{{path}}"))
	assert.Equal(t, []string{"unresolved variable: path"}, warnings)

	headers := p.ResolveAll(map[string]string{"X-Version": "{{version}}"})
	assert.Equal(t, map[string]string{"X-Version": "v2"}, headers)
	assert.Nil(t, p.ResolveAll(nil))
}

func TestLoadEnvironment(t *testing.T) {
	envs := map[string]map[string]any{
		"staging": {"host": "staging.local"},
	}

	vars, err := LoadEnvironment("staging", envs)
	assert.NoError(t, err)
	assert.Equal(t, Variables{"host": "staging.local"}, vars)

	vars, err = LoadEnvironment("", envs)
	assert.NoError(t, err)
	assert.Empty(t, vars)

	_, err = LoadEnvironment("prod", envs)
	assert.ErrorContains(t, err, `environment "prod" is not defined`)
}

func TestMergeVariables(t *testing.T) {
	merged := MergeVariables(Variables{"a": 1, "b": 1}, Variables{"b": 2}, nil)
	assert.Equal(t, Variables{"a": 1, "b": 2}, merged)
}
