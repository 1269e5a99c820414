package relpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRel(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		target string
		want   string
	}{
		{"direct child", "/a/b", "/a/b/c.txt", "c.txt"},
		{"nested child", "/a/b", "/a/b/c/d.txt", "c/d.txt"},
		{"relative fragments", "a/b", "a/b/c.txt", "c.txt"},
		{"equal paths", "/a/b", "/a/b", "."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Rel(tc.base, tc.target)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIsEscaping(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{".", false},
		{"a/b", false},
		{"a/../b", false},
		{"..", true},
		{"../a", true},
		{"a/../../b", true},
		{"/abs", true},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.want, IsEscaping(tc.path))
		})
	}
}
