// Package metrics exposes scan throughput and integrity counters.
//
// Components take a Recorder. NoopRecorder is the default so nothing has to
// nil-check; PrometheusRecorder is injected when the daemon serves /metrics.
package metrics
