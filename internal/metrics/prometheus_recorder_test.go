package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("bundle_scripts", 150*time.Millisecond)
	pr.ObserveBuildDuration("production", 500*time.Millisecond)
	pr.IncStageResult("bundle_scripts", ResultSuccess)
	pr.IncBuildOutcome("success")
	pr.AddPagesRendered(3)
	pr.AddAssets("inline", 2)
	pr.AddAssets("copy", 1)
	pr.SetOutputBytes("script", 1024)
	pr.IncRebuild("watch")

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, mfs, 8)

	values := map[string]float64{}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				values[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[mf.GetName()] += m.GetGauge().GetValue()
			}
		}
	}
	assert.InDelta(t, 3, values["sitepack_pages_rendered_total"], 0)
	assert.InDelta(t, 3, values["sitepack_assets_total"], 0)
	assert.InDelta(t, 1024, values["sitepack_output_bytes"], 0)
	assert.InDelta(t, 1, values["sitepack_build_outcomes_total"], 0)
}

var (
	_ Recorder = NoopRecorder{}
	_ Recorder = (*PrometheusRecorder)(nil)
)

func TestPrometheusRecorder_Nil(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.ObserveStageDuration("x", time.Second)
		pr.IncBuildOutcome("failed")
		pr.AddPagesRendered(1)
	})
}

func TestHTTPHandler(t *testing.T) {
	reg := NewRegistry("v1.2.3")
	NewPrometheusRecorder(reg).IncRebuild("watch")

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `sitepack_rebuilds_total{trigger="watch"} 1`)
	assert.Contains(t, string(body), `sitepack_build_info{version="v1.2.3"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
