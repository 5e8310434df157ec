package tubeAuth

import internalmetrics "github.com/MrEthical07/tubeAuth/internal/metrics"

const (
	MetricLoginSuccess             = internalmetrics.MetricLoginSuccess
	MetricLoginFailure             = internalmetrics.MetricLoginFailure
	MetricRefreshSuccess           = internalmetrics.MetricRefreshSuccess
	MetricRefreshFailure           = internalmetrics.MetricRefreshFailure
	MetricRefreshReuseDetected     = internalmetrics.MetricRefreshReuseDetected
	MetricLogout                   = internalmetrics.MetricLogout
	MetricAuthorizeSuccess         = internalmetrics.MetricAuthorizeSuccess
	MetricAuthorizeFailure         = internalmetrics.MetricAuthorizeFailure
	MetricAccountCreationSuccess   = internalmetrics.MetricAccountCreationSuccess
	MetricAccountCreationDuplicate = internalmetrics.MetricAccountCreationDuplicate
	MetricPasswordChangeSuccess    = internalmetrics.MetricPasswordChangeSuccess
	MetricPasswordChangeInvalidOld = internalmetrics.MetricPasswordChangeInvalidOld
	MetricPasswordRehash           = internalmetrics.MetricPasswordRehash
	MetricProfileUpdate            = internalmetrics.MetricProfileUpdate
	MetricAuthorizeLatency         = internalmetrics.MetricAuthorizeLatency
)

// MetricsSnapshot returns a copy of the engine counters. With metrics disabled
// both maps are empty.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}
