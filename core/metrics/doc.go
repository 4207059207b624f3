// Package metrics records loader run metrics with Prometheus.
//
// A Recorder counts records per outcome (created, updated, unchanged,
// duplicate, unresolved), times every step and stamps successful jobs. The
// HTTP server exposes it on /metrics; one-shot CLI runs write it to a
// node-exporter textfile instead.
package metrics
