// Package audit implements the buffered audit event dispatcher and its sinks.
//
// [Dispatcher] decouples engine operations from sink I/O through a bounded
// channel drained by one goroutine. With DropIfFull set, Emit never blocks and
// overflow is counted in Dropped.
//
// Sinks: [NoOpSink], [ChannelSink] (tests), [JSONWriterSink] (one JSON object
// per line), [MultiSink] and [KafkaSink] (segmentio/kafka-go). Events must not carry
// secrets; callers populate only identifiers, outcome codes, and device
// summaries.
package audit
