// Package result turns a finished crawl into its published form: the most
// popular words in a stable order, written as JSON.
package result

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/JakeFAU/wordcount-crawler/internal/crawler"
)

// WordCount is one entry of the popular-words list.
type WordCount struct {
	Word  string
	Count int
}

// WordCounts is an ordered word list. It marshals as a JSON object whose keys
// keep the slice order.
type WordCounts []WordCount

// CrawlResult is the serialized form of a crawl.
type CrawlResult struct {
	WordCounts  WordCounts `json:"wordCounts"`
	URLsVisited int        `json:"urlsVisited"`
	FailedURLs  []string   `json:"failedUrls,omitempty"`
}

// Sort returns the n most popular words of counts. Words are ordered by count
// descending, then by length descending, then alphabetically. n <= 0 keeps
// every word.
func Sort(counts map[string]int, n int) WordCounts {
	out := make(WordCounts, 0, len(counts))
	for w, c := range counts {
		out = append(out, WordCount{Word: w, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if len(a.Word) != len(b.Word) {
			return len(a.Word) > len(b.Word)
		}
		return a.Word < b.Word
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// FromCrawl builds the published result, keeping the popular most frequent
// words.
func FromCrawl(res crawler.Result, popular int) CrawlResult {
	return CrawlResult{
		WordCounts:  Sort(res.WordCounts, popular),
		URLsVisited: res.URLsVisited,
		FailedURLs:  res.FailedURLs(),
	}
}

// MarshalJSON implements json.Marshaler.
func (wc WordCounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range wc {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Word)
		if err != nil {
			return nil, fmt.Errorf("marshal word %q: %w", entry.Word, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		fmt.Fprintf(&buf, "%d", entry.Count)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Write encodes r as indented JSON.
func Write(w io.Writer, r CrawlResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode crawl result: %w", err)
	}
	return nil
}

// WriteFile writes r to path, replacing any existing content.
func WriteFile(path string, r CrawlResult) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create result file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close result file: %w", cerr)
		}
	}()
	return Write(f, r)
}
