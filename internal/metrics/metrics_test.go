package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordAndExpose(t *testing.T) {
	m := New()

	m.ObserveRequest(http.MethodGet, "/api/v1/stores", http.StatusOK, 20*time.Millisecond)
	m.LookupFailed("wallet")
	m.LookupFailed("wallet")
	m.CacheResult("store_options", true)
	m.CacheResult("store_options", false)
	m.SummaryBuilt(5 * time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/api/v1/stores", "200")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.lookupFailuresTotal.WithLabelValues("wallet")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookupsTotal.WithLabelValues("store_options", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookupsTotal.WithLabelValues("store_options", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.summariesBuiltTotal))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "storeinsight_lookup_failures_total"))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
		m.LookupFailed("store")
		m.CacheResult("x", true)
		m.SummaryBuilt(time.Millisecond)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
