package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDotEnv(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected Variables
	}{
		{
			name:     "simple key-value",
			content:  "API_KEY=secret123",
			expected: Variables{"API_KEY": "secret123"},
		},
		{
			name:     "export prefix",
			content:  "export TOKEN=abc",
			expected: Variables{"TOKEN": "abc"},
		},
		{
			name:     "double quoted value",
			content:  `API_KEY="secret with spaces"`,
			expected: Variables{"API_KEY": "secret with spaces"},
		},
		{
			name:     "single quoted value",
			content:  `API_KEY='secret with spaces'`,
			expected: Variables{"API_KEY": "secret with spaces"},
		},
		{
			name:     "comments and blank lines are skipped",
			content:  "# comment\n\nKEY1=value1\n\nKEY2=value2",
			expected: Variables{"KEY1": "value1", "KEY2": "value2"},
		},
		{
			name:     "value containing equals",
			content:  "DSN=user=app;pass=x",
			expected: Variables{"DSN": "user=app;pass=x"},
		},
		{
			name:     "lines without equals are ignored",
			content:  "garbage\nKEY=value",
			expected: Variables{"KEY": "value"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ".env")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			vars, err := LoadDotEnv(path)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, vars)
		})
	}
}

func TestLoadDotEnvFileNotFound(t *testing.T) {
	_, err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "cannot open env file")
}
