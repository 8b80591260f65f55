package metrics

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry returns a registry with the Go runtime and process
// collectors and a sitepack_build_info gauge labelled with version.
func NewRegistry(version string) *prom.Registry {
	reg := prom.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		prom.NewGaugeFunc(prom.GaugeOpts{
			Namespace:   namespace,
			Name:        "build_info",
			Help:        "Version of the running sitepack binary.",
			ConstLabels: prom.Labels{"version": version},
		}, func() float64 { return 1 }),
	)
	return reg
}

// HTTPHandler serves the metrics of reg, or of the default registry when
// reg is nil. Collection errors are reported in the response body.
func HTTPHandler(reg *prom.Registry) http.Handler {
	if reg == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
