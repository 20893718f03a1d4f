// Package metrics records build, page and step metrics.
//
// Components receive a Recorder and default to NoopRecorder, so nothing needs
// a nil check. The preview server swaps in a PrometheusRecorder and exposes it
// with HTTPHandler:
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	builder := site.NewBuilder(cfg, site.WithRecorder(rec))
//	router.Handle("/metrics", metrics.HTTPHandler(reg))
package metrics
