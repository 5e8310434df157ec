// Package prometheus exposes tubeAuth engine metrics as a
// prometheus.Collector.
//
// Counter names are prefixed tubeauth_*_total; the single histogram is
// tubeauth_authorize_latency_seconds. Values are read from the engine snapshot
// at scrape time, so the collector holds no state of its own.
//
// Callers choose the registry: Register for a shared one, Handler for a
// private one.
package prometheus
