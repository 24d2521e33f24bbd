// Package metrics records generation metrics.
//
// Components receive a Recorder and default to NoopRecorder, so metrics cost
// nothing unless configured. PrometheusRecorder registers counters and
// histograms on a registry, and WriteTextfile dumps that registry in the
// Prometheus text format after a run:
//
//	rec := metrics.NewPrometheusRecorder(nil)
//	gen := build.NewGenerator(cfg, conv, build.WithRecorder(rec))
//	...
//	_ = metrics.WriteTextfile("docshound.prom", rec.Registry())
package metrics
