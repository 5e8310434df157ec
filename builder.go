package tubeAuth

import (
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/tubeAuth/credential"
	"github.com/MrEthical07/tubeAuth/internal/audit"
	"github.com/MrEthical07/tubeAuth/internal/metrics"
	"github.com/MrEthical07/tubeAuth/jwt"
	"github.com/MrEthical07/tubeAuth/password"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "tubeauth"

// Builder assembles an Engine. A Builder may be used for one Build call.
type Builder struct {
	config Config
	store  credential.Store

	auditSink      AuditSink
	logger         *zap.Logger
	tracerProvider trace.TracerProvider
	now            func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithCredentialStore sets the user record store. Required.
func (b *Builder) WithCredentialStore(store credential.Store) *Builder {
	b.store = store
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the engine logger. The default discards everything.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithTracerProvider(tp trace.TracerProvider) *Builder {
	b.tracerProvider = tp
	return b
}

// WithClock overrides time.Now for token issuance and validation.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Engine. Key and
// parameter errors surface here.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.store == nil {
		return nil, errors.New("credential store is required")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	now := b.now
	if now == nil {
		now = time.Now
	}
	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var tracer trace.Tracer
	if b.tracerProvider != nil {
		tracer = b.tracerProvider.Tracer(tracerName)
	} else {
		tracer = otel.Tracer(tracerName)
	}

	hasher, err := password.NewHasher(password.HasherConfig{
		Algorithm: password.Algorithm(cfg.Password.Algorithm),
		Argon2: password.Config{
			Memory:           cfg.Password.Memory,
			Time:             cfg.Password.Time,
			Parallelism:      cfg.Password.Parallelism,
			SaltLength:       cfg.Password.SaltLength,
			KeyLength:        cfg.Password.KeyLength,
			MaxPasswordBytes: cfg.Password.MaxLength,
		},
		BcryptCost: cfg.Password.BcryptCost,
	})
	if err != nil {
		return nil, err
	}

	dummyDigest, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, err
	}

	tokens, err := jwt.NewManager(jwtManagerConfig(cfg.JWT, now))
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:      cfg,
		store:       b.store,
		hasher:      hasher,
		dummyDigest: dummyDigest,
		tokens:      tokens,
		metrics:     metrics.New(cfg.Metrics),
		logger:      logger.Named("tubeauth"),
		tracer:      tracer,
		now:         now,
	}
	engine.audit = audit.NewDispatcher(cfg.Audit, b.auditSink)
	engine.flows = engine.buildFlowDeps()

	b.built = true

	return engine, nil
}

func jwtManagerConfig(c JWTConfig, now func() time.Time) jwt.Config {
	access := jwt.KeyConfig{TTL: c.AccessTTL, KeyID: c.KeyID}
	refresh := jwt.KeyConfig{TTL: c.RefreshTTL, KeyID: c.KeyID}

	if strings.EqualFold(c.SigningMethod, "ed25519") {
		access.SigningMethod = jwt.MethodEd25519
		access.PrivateKey = cloneBytes(c.AccessPrivateKey)
		access.PublicKey = cloneBytes(c.AccessPublicKey)
		refresh.SigningMethod = jwt.MethodEd25519
		refresh.PrivateKey = cloneBytes(c.RefreshPrivateKey)
		refresh.PublicKey = cloneBytes(c.RefreshPublicKey)
	} else {
		access.SigningMethod = jwt.MethodHS256
		access.PrivateKey = cloneBytes(c.AccessSecret)
		refresh.SigningMethod = jwt.MethodHS256
		refresh.PrivateKey = cloneBytes(c.RefreshSecret)
	}

	return jwt.Config{
		Access:   access,
		Refresh:  refresh,
		Issuer:   c.Issuer,
		Audience: c.Audience,
		Leeway:   c.Leeway,
		Now:      now,
	}
}
