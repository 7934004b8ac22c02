package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveLoadDuration(12 * time.Millisecond)
	pr.IncLoadOutcome(OutcomeSuccess)
	pr.IncLoadOutcome(OutcomeSuccess)
	pr.IncLoadOutcome(OutcomeFailed)
	pr.IncReload("config")
	pr.SetNavSize(5, 7)
	pr.IncCheckIssues("nav-missing-page", 2)
	pr.IncCheckIssues("nav-empty-section", 0)
	pr.SetLastReload(time.Unix(1700000000, 0))

	require.InDelta(t, 2, testutil.ToFloat64(pr.loadOutcome.WithLabelValues("success")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(pr.loadOutcome.WithLabelValues("failed")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(pr.reloads.WithLabelValues("config")), 0)
	require.InDelta(t, 5, testutil.ToFloat64(pr.navLeaves), 0)
	require.InDelta(t, 7, testutil.ToFloat64(pr.navNodes), 0)
	require.InDelta(t, 2, testutil.ToFloat64(pr.checkIssues.WithLabelValues("nav-missing-page")), 0)
	require.InDelta(t, 1700000000, testutil.ToFloat64(pr.lastReload), 0)
	require.Equal(t, 1, testutil.CollectAndCount(pr.checkIssues))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, mfs)
}

func TestNilPrometheusRecorder(t *testing.T) {
	var pr *PrometheusRecorder
	require.NotPanics(t, func() {
		pr.ObserveLoadDuration(time.Second)
		pr.IncLoadOutcome(OutcomeFailed)
		pr.SetNavSize(1, 1)
	})
	var r Recorder = NoopRecorder{}
	r.IncReload("docs")
}

func TestHTTPHandler(t *testing.T) {
	reg := NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.SetNavSize(3, 4)

	srv := httptest.NewServer(HTTPHandler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body strings.Builder
	_, err = io.Copy(&body, resp.Body)
	require.NoError(t, err)
	require.Contains(t, body.String(), "sitenav_nav_leaves 3")
	require.Contains(t, body.String(), "go_goroutines")
}
