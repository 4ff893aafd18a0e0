package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveHTTP_IncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/api/movies/new", "200"))
	ObserveHTTP("GET", "/api/movies/new", 200, 15*time.Millisecond)
	after := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/api/movies/new", "200"))
	assert.Equal(t, before+1, after)
}

func TestObserveFetch_ResultLabel(t *testing.T) {
	ObserveFetch("page", nil, time.Millisecond)
	ObserveFetch("page", errors.New("boom"), time.Millisecond)
	assert.Equal(t, 2, testutil.CollectAndCount(UpstreamFetchDuration))
}

func TestHandler_ServesMetrics(t *testing.T) {
	SyncRuns.WithLabelValues("full", "ok").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "phimhub_sync_runs_total")
}
