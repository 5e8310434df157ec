package otel

import (
	"context"
	"sync"
	"testing"

	"github.com/MrEthical07/tubeAuth/internal/metrics"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	counters map[metrics.MetricID]uint64
	latency  []uint64
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() metrics.Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	snap := metrics.Snapshot{
		Counters:   make(map[metrics.MetricID]uint64, len(f.counters)),
		Histograms: map[metrics.MetricID][]uint64{},
	}
	for k, v := range f.counters {
		snap.Counters[k] = v
	}
	if f.latency != nil {
		snap.Histograms[metrics.MetricAuthorizeLatency] = append([]uint64(nil), f.latency...)
	}
	return snap
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func newReader(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return reader, provider
}

// collect flattens every int64 point to "name" or "name{le=...}".
func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]int64)
	record := func(name string, attrs attribute.Set, v int64) {
		if le, ok := attrs.Value("le"); ok {
			name += "{le=" + le.AsString() + "}"
		}
		out[name] = v
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					record(m.Name, dp.Attributes, dp.Value)
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					record(m.Name, dp.Attributes, dp.Value)
				}
			}
		}
	}
	return out
}

func TestExporterCollects(t *testing.T) {
	reader, provider := newReader(t)
	src := &fakeSource{
		counters: map[metrics.MetricID]uint64{
			metrics.MetricLoginSuccess:         3,
			metrics.MetricRefreshReuseDetected: 2,
		},
		latency: []uint64{1, 1, 1, 1, 1, 1, 1, 1},
		dropped: 1,
	}

	exp, err := NewOTelExporter(provider.Meter("tubeauth-test"), src)
	require.NoError(t, err)
	defer func() { require.NoError(t, exp.Close()) }()

	got := collect(t, reader)
	require.EqualValues(t, 3, got["tubeauth_login_success_total"])
	require.EqualValues(t, 2, got["tubeauth_refresh_reuse_detected_total"])
	require.EqualValues(t, 0, got["tubeauth_logout_total"])
	require.EqualValues(t, 8, got["tubeauth_authorize_latency_seconds_count"])
	require.EqualValues(t, 2, got["tubeauth_authorize_latency_seconds_bucket{le=0.01}"])
	require.EqualValues(t, 8, got["tubeauth_authorize_latency_seconds_bucket{le=+Inf}"])
	require.EqualValues(t, 1, got["tubeauth_audit_dropped_total"])
}

func TestExporterTracksSourceChanges(t *testing.T) {
	reader, provider := newReader(t)
	src := &fakeSource{counters: map[metrics.MetricID]uint64{metrics.MetricLogout: 1}}

	exp, err := NewOTelExporter(provider.Meter("tubeauth-test"), src)
	require.NoError(t, err)
	defer exp.Close()

	require.EqualValues(t, 1, collect(t, reader)["tubeauth_logout_total"])

	src.mu.Lock()
	src.counters[metrics.MetricLogout] = 5
	src.mu.Unlock()
	require.EqualValues(t, 5, collect(t, reader)["tubeauth_logout_total"])
}

func TestExporterRejectsNilArguments(t *testing.T) {
	_, provider := newReader(t)

	_, err := NewOTelExporter(provider.Meter("tubeauth-test"), nil)
	require.ErrorIs(t, err, ErrNilSource)
	_, err = NewOTelExporter(nil, &fakeSource{})
	require.ErrorIs(t, err, ErrNilMeter)
}

func TestExporterConcurrentCollect(t *testing.T) {
	reader, provider := newReader(t)
	src := &fakeSource{counters: map[metrics.MetricID]uint64{metrics.MetricLoginSuccess: 1}}

	exp, err := NewOTelExporter(provider.Meter("tubeauth-test"), src)
	require.NoError(t, err)
	defer exp.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.counters[metrics.MetricLoginSuccess] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}
