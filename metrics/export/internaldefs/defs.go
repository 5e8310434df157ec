package internaldefs

import (
	"github.com/MrEthical07/tubeAuth/internal/metrics"
)

// CounterDef names one exported counter.
type CounterDef struct {
	ID   metrics.MetricID
	Name string
	Help string
}

// HistogramDef names one exported histogram.
type HistogramDef struct {
	ID   metrics.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = "tubeauth_audit_dropped_total"

// AuditDroppedHelp describes AuditDroppedName.
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."

var CounterDefs = []CounterDef{
	{ID: metrics.MetricLoginSuccess, Name: "tubeauth_login_success_total", Help: "Successful login attempts."},
	{ID: metrics.MetricLoginFailure, Name: "tubeauth_login_failure_total", Help: "Failed login attempts."},
	{ID: metrics.MetricRefreshSuccess, Name: "tubeauth_refresh_success_total", Help: "Successful refresh operations."},
	{ID: metrics.MetricRefreshFailure, Name: "tubeauth_refresh_failure_total", Help: "Failed refresh operations."},
	{ID: metrics.MetricRefreshReuseDetected, Name: "tubeauth_refresh_reuse_detected_total", Help: "Refresh tokens presented after rotation."},
	{ID: metrics.MetricLogout, Name: "tubeauth_logout_total", Help: "Logout operations."},
	{ID: metrics.MetricAuthorizeSuccess, Name: "tubeauth_authorize_success_total", Help: "Requests admitted by the authorization gate."},
	{ID: metrics.MetricAuthorizeFailure, Name: "tubeauth_authorize_failure_total", Help: "Requests rejected by the authorization gate."},
	{ID: metrics.MetricAccountCreationSuccess, Name: "tubeauth_account_creation_success_total", Help: "Successful account creations."},
	{ID: metrics.MetricAccountCreationDuplicate, Name: "tubeauth_account_creation_duplicate_total", Help: "Account creation attempts rejected as duplicate."},
	{ID: metrics.MetricPasswordChangeSuccess, Name: "tubeauth_password_change_success_total", Help: "Successful password changes."},
	{ID: metrics.MetricPasswordChangeInvalidOld, Name: "tubeauth_password_change_invalid_old_total", Help: "Password change attempts with invalid old password."},
	{ID: metrics.MetricPasswordRehash, Name: "tubeauth_password_rehash_total", Help: "Stored digests upgraded after a successful login."},
	{ID: metrics.MetricProfileUpdate, Name: "tubeauth_profile_update_total", Help: "Profile updates."},
}

var HistogramDefs = []HistogramDef{
	{ID: metrics.MetricAuthorizeLatency, Name: "tubeauth_authorize_latency_seconds", Help: "Authorization gate latency histogram."},
}

// HistogramBounds are the finite upper bounds in seconds. The eighth bucket
// is +Inf.
var HistogramBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// BucketLabels are the "le" label values of the eight buckets.
var BucketLabels = []string{"0.005", "0.01", "0.025", "0.05", "0.1", "0.25", "0.5", "+Inf"}

// NormalizeBuckets copies raw into a fixed array, zero-filling missing slots.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
