// Package metrics records build and dev server metrics.
//
// Components receive a Recorder and default to NoopRecorder, so metrics
// collection never needs nil checks:
//
//	svc := build.NewService(build.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// The dev server exposes the registry on /metrics through HTTPHandler.
package metrics
