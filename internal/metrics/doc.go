// Package metrics records build and stage metrics.
//
// Components receive a Recorder and default to NoopRecorder, so call sites
// never check for nil. PrometheusRecorder forwards to a Prometheus registry
// that can be scraped over HTTP (long-running watch and schedule modes) or
// written to a node-exporter textfile after a one-shot build.
package metrics
