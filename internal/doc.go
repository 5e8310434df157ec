// Package internal holds the device-label helper used for audit events.
//
// Sub-packages:
//
//   - audit: async event dispatch and sinks (channel, JSON lines, Kafka)
//   - config: tubeauth-server configuration loading
//   - flows: per-operation orchestration behind the Engine
//   - metrics: lock-free counters and latency histograms
//   - security: configuration posture report
package internal
