package crawler

import (
	"fmt"
	"regexp"
	"strings"
)

// CompileIgnorePatterns compiles URL ignore patterns. Each pattern must match
// the whole URL, not a substring of it.
func CompileIgnorePatterns(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, raw := range patterns {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		re, err := regexp.Compile(`^(?:` + raw + `)$`)
		if err != nil {
			return nil, fmt.Errorf("compile ignore pattern %q: %w", raw, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func matchesAny(patterns []*regexp.Regexp, url string) bool {
	for _, re := range patterns {
		if re.MatchString(url) {
			return true
		}
	}
	return false
}
