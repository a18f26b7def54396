package parser

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/JakeFAU/wordcount-crawler/internal/crawler"
)

// CompileIgnoredWords compiles ignored-word patterns. Like URL ignore
// patterns, each must match the whole word.
func CompileIgnoredWords(patterns []string) ([]*regexp.Regexp, error) {
	compiled, err := crawler.CompileIgnorePatterns(patterns)
	if err != nil {
		return nil, fmt.Errorf("ignored words: %w", err)
	}
	return compiled, nil
}

// CountWords splits text into lower-cased words and counts them, skipping any
// word that fully matches one of ignored.
func CountWords(text string, ignored []*regexp.Regexp) map[string]int {
	counts := make(map[string]int)
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		w = strings.ToLower(w)
		if ignoredWord(w, ignored) {
			continue
		}
		counts[w]++
	}
	return counts
}

func ignoredWord(word string, ignored []*regexp.Regexp) bool {
	for _, re := range ignored {
		if re.MatchString(word) {
			return true
		}
	}
	return false
}
