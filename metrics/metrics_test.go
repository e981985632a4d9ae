package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observe(t *testing.T) {
	m := NewMetrics("test")

	m.Observe("get", ResultOK, time.Millisecond)
	m.Observe("get", ResultOK, time.Millisecond)
	m.Observe("set", ResultUnauthorized, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("get", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("set", ResultUnauthorized)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.requests.WithLabelValues("set", ResultOK)))
}

func TestMetrics_Handler(t *testing.T) {
	srv, err := New("test", "127.0.0.1:0")
	require.NoError(t, err)
	srv.Observe("get", ResultNotFound, time.Millisecond)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `test_requests_total{op="get",result="not_found"} 1`)
}
