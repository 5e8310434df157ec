package tubeAuth

import (
	"time"

	"github.com/MrEthical07/tubeAuth/credential"
	internalaudit "github.com/MrEthical07/tubeAuth/internal/audit"
	internalmetrics "github.com/MrEthical07/tubeAuth/internal/metrics"
)

// User is the account record. Values returned by the engine never carry the
// password digest or refresh token.
type User = credential.User

// ProfileUpdate carries the fields UpdateProfile may change.
type ProfileUpdate = credential.ProfileUpdate

// Identity is the authenticated principal derived from a verified access
// token. The gate builds it without touching the credential store.
type Identity struct {
	UserID   string
	Username string
	Email    string
	FullName string
}

// TokenPair is the result of Login and Refresh.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	// User is the public view of the account the pair was issued for.
	User User
}

// RegisterRequest is the input to Register.
type RegisterRequest struct {
	Username   string
	Email      string
	FullName   string
	Password   string
	Avatar     string
	CoverImage string
}

type (
	AuditConfig    = internalaudit.Config
	AuditEvent     = internalaudit.Event
	AuditSink      = internalaudit.Sink
	NoOpSink       = internalaudit.NoOpSink
	ChannelSink    = internalaudit.ChannelSink
	JSONWriterSink = internalaudit.JSONWriterSink
	KafkaSink      = internalaudit.KafkaSink
	KafkaConfig    = internalaudit.KafkaConfig
)

type (
	MetricID        = internalmetrics.MetricID
	MetricsConfig   = internalmetrics.Config
	MetricsSnapshot = internalmetrics.Snapshot
)
