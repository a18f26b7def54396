package crawler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompileIgnorePatternsFullMatch(t *testing.T) {
	t.Parallel()

	patterns, err := CompileIgnorePatterns([]string{`http://example\.com/private/.*`, "", `.*\.pdf`})
	require.NoError(t, err)
	require.Len(t, patterns, 2, "blank patterns should be dropped")

	tests := []struct {
		url  string
		want bool
	}{
		{"http://example.com/private/a", true},
		{"http://example.com/report.pdf", true},
		{"http://example.com/public", false},
		{"https://mirror.org/http://example.com/private/a", false},
		{"http://example.com/report.pdf?download=1", false},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, matchesAny(patterns, tc.url), tc.url)
	}
}

func TestCompileIgnorePatternsRejectsMalformed(t *testing.T) {
	t.Parallel()

	_, err := CompileIgnorePatterns([]string{"ok", "(unclosed"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "(unclosed")
}
