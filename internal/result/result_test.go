package result

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/wordcount-crawler/internal/crawler"
)

func TestSortOrdering(t *testing.T) {
	t.Parallel()

	counts := map[string]int{
		"apple":  3,
		"fig":    3,
		"banana": 3,
		"kiwi":   5,
		"pear":   1,
		"plum":   1,
	}

	got := Sort(counts, 0)
	want := WordCounts{
		{Word: "kiwi", Count: 5},
		{Word: "banana", Count: 3},
		{Word: "apple", Count: 3},
		{Word: "fig", Count: 3},
		{Word: "pear", Count: 1},
		{Word: "plum", Count: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Sort() mismatch (-want +got):\n%s", diff)
	}
}

func TestSortLimit(t *testing.T) {
	t.Parallel()

	counts := map[string]int{"a": 1, "b": 2, "c": 3}
	require.Equal(t, WordCounts{{Word: "c", Count: 3}, {Word: "b", Count: 2}}, Sort(counts, 2))
	require.Len(t, Sort(counts, 10), 3)
	require.Empty(t, Sort(nil, 5))
}

func TestWrite(t *testing.T) {
	t.Parallel()

	res := FromCrawl(crawler.Result{
		WordCounts:  map[string]int{"x": 3, "y": 1},
		URLsVisited: 2,
	}, 0)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, res))

	want := `{
  "wordCounts": {
    "x": 3,
    "y": 1
  },
  "urlsVisited": 2
}
`
	require.Equal(t, want, buf.String())
}

func TestWriteIncludesFailures(t *testing.T) {
	t.Parallel()

	res := FromCrawl(crawler.Result{
		WordCounts:  map[string]int{},
		URLsVisited: 1,
		Failures:    []*crawler.FetchError{{URL: "https://example.com/broken", Err: errors.New("404")}},
	}, 0)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, res))
	require.JSONEq(t, `{"wordCounts":{},"urlsVisited":1,"failedUrls":["https://example.com/broken"]}`, buf.String())
}

func TestWordCountsEscapesKeys(t *testing.T) {
	t.Parallel()

	data, err := WordCounts{{Word: `qu"ote`, Count: 1}}.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `{"qu\"ote":1}`, string(data))
}

func TestWriteFileReplaces(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "result.json")
	require.NoError(t, os.WriteFile(path, []byte("stale content that is longer than the result"), 0o600))

	require.NoError(t, WriteFile(path, CrawlResult{WordCounts: WordCounts{{Word: "a", Count: 1}}, URLsVisited: 1}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, `{"wordCounts":{"a":1},"urlsVisited":1}`, string(data))
}
