package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveFetch(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())

	m.ObserveFetch(FetchOK, 20, 150*time.Millisecond)
	m.ObserveFetch(FetchOK, 5, 50*time.Millisecond)
	m.ObserveFetch(FetchFailed, 0, time.Second)

	require.Equal(t, 2.0, testutil.ToFloat64(m.fetchTotal.WithLabelValues(FetchOK)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.fetchTotal.WithLabelValues(FetchFailed)))
	require.Equal(t, 0.0, testutil.ToFloat64(m.fetchTotal.WithLabelValues(FetchInvalid)))
	require.Equal(t, 1, testutil.CollectAndCount(m.fetchDuration))
}

func TestObserveHTTP(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())

	m.ObserveHTTP("GET", "/users/{id}", 200, 10*time.Millisecond)
	m.ObserveHTTP("GET", "/users/{id}", 404, 10*time.Millisecond)
	m.ObserveHTTP("GET", "", 404, time.Millisecond)

	expected := `
# HELP directory_http_requests_total Total number of HTTP requests
# TYPE directory_http_requests_total counter
directory_http_requests_total{method="GET",route="/users/{id}",status="200"} 1
directory_http_requests_total{method="GET",route="/users/{id}",status="404"} 1
directory_http_requests_total{method="GET",route="unmatched",status="404"} 1
`
	require.NoError(t, testutil.CollectAndCompare(m.httpRequests, strings.NewReader(expected)))
}

func TestAddSwept(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())

	m.AddSwept(3)
	m.AddSwept(0)
	m.AddSwept(-1)

	require.Equal(t, 3.0, testutil.ToFloat64(m.sweptSessions))
}

func TestNilMetrics_IsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveFetch(FetchOK, 1, time.Second)
		m.ObserveHTTP("GET", "/", 200, time.Second)
		m.AddSwept(1)
	})
}

func TestNew_RegistersOnce(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	New(reg)

	require.Panics(t, func() { New(reg) })
}
