// Package otel publishes tubeAuth engine metrics through an OpenTelemetry
// meter.
//
// [NewOTelExporter] registers an Int64ObservableCounter per counter and an
// Int64ObservableGauge per cumulative histogram bucket. One callback reads the
// engine snapshot on each collection cycle. The caller owns the
// MeterProvider.
package otel
