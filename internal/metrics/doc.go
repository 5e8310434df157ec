// Package metrics provides lock-free counters and a latency histogram for
// tubeAuth observability.
//
// Counters are stored in cache-line-padded uint64 slots and incremented
// atomically. The authorize latency histogram uses 8 fixed buckets
// (<=5ms ... +Inf). The write path never allocates.
//
// Export (Prometheus, OTel) lives in metrics/export and reads Snapshot values.
// This package performs no I/O and keeps no global registry.
package metrics
