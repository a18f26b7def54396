package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestInitIsIdempotent(t *testing.T) {
	Init()
	Init()

	require.NotNil(t, crawlerTraversalsTotal)
	require.NotNil(t, crawlerWordsMergedTotal)
	require.NotNil(t, crawlerCrawlsTotal)
	require.NotNil(t, crawlerProfiledCallSeconds)
	require.NotNil(t, httpRequestsTotal)
}

func TestObserveTraversal(t *testing.T) {
	Init()
	before := testutil.ToFloat64(crawlerTraversalsTotal.WithLabelValues(OutcomeIgnored))

	ObserveTraversal(OutcomeIgnored)
	ObserveTraversal(OutcomeIgnored)

	after := testutil.ToFloat64(crawlerTraversalsTotal.WithLabelValues(OutcomeIgnored))
	require.InDelta(t, 2, after-before, 0.0001)
}

func TestObserveWordsMergedSumsCounts(t *testing.T) {
	Init()
	before := testutil.ToFloat64(crawlerWordsMergedTotal)

	ObserveWordsMerged(map[string]int{"x": 3, "y": 1})
	ObserveWordsMerged(nil)

	require.InDelta(t, 4, testutil.ToFloat64(crawlerWordsMergedTotal)-before, 0.0001)
}

func TestObserveCrawl(t *testing.T) {
	Init()
	before := testutil.ToFloat64(crawlerCrawlsTotal.WithLabelValues("succeeded"))

	ObserveCrawl("succeeded", 250*time.Millisecond)

	require.InDelta(t, 1, testutil.ToFloat64(crawlerCrawlsTotal.WithLabelValues("succeeded"))-before, 0.0001)
}

func TestHandlerServesCollectors(t *testing.T) {
	ObserveTraversal(OutcomeProcessed)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "crawler_traversals_total")
}
