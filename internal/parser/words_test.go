package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCountWords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		ignored []string
		want    map[string]int
	}{
		{
			name: "case folding and punctuation",
			text: "The cat, the HAT; the-end!",
			want: map[string]int{"the": 3, "cat": 1, "hat": 1, "end": 1},
		},
		{
			name:    "ignored words match whole word",
			text:    "a an the thesis an",
			ignored: []string{"^.{1,2}$", "the"},
			want:    map[string]int{"thesis": 1},
		},
		{
			name: "unicode letters and digits",
			text: "café 2024 café",
			want: map[string]int{"café": 2, "2024": 1},
		},
		{
			name: "empty",
			text: "  \n\t ",
			want: map[string]int{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ignored, err := CompileIgnoredWords(tc.ignored)
			require.NoError(t, err)
			require.Equal(t, tc.want, CountWords(tc.text, ignored))
		})
	}
}

func TestCompileIgnoredWordsRejectsMalformed(t *testing.T) {
	t.Parallel()

	_, err := CompileIgnoredWords([]string{"*bad"})
	require.ErrorContains(t, err, "ignored words")
}
