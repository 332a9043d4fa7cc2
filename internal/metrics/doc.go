// Package metrics records build and render metrics.
//
// Components receive a Recorder. NoopRecorder is the default and does
// nothing; PrometheusRecorder registers collectors on a registry which
// HTTPHandler exposes for scraping:
//
//	reg := prometheus.NewRegistry()
//	builder := site.NewBuilder(cfg, site.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//	http.Handle("/metrics", metrics.HTTPHandler(reg))
package metrics
