package authgate

import (
	"errors"
	"time"

	internalaudit "github.com/jcastellr/authgate/internal/audit"
	"github.com/jcastellr/authgate/internal/limiters"
	"github.com/jcastellr/authgate/internal/rate"
	"github.com/jcastellr/authgate/jwt"
	"github.com/jcastellr/authgate/password"
	"github.com/jcastellr/authgate/totp"
)

// Builder defines a public type used by authgate APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config

	userProvider UserProvider
	auditSink    AuditSink

	now func() time.Time

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSecret sets the HS256 token secret without replacing the rest of the
// configuration.
//
// WithSecret does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithSecret(secret []byte) *Builder {
	b.config.Token.Secret = cloneBytes(secret)
	return b
}

// WithUserProvider describes the withuserprovider operation and its observable behavior.
//
// WithUserProvider may return an error when input validation, dependency calls, or security checks fail.
// WithUserProvider does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.userProvider = up
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// withClock overrides the clock across every time-sensitive component.
// Test-only.
func (b *Builder) withClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.userProvider == nil {
		return nil, errors.New("user provider required")
	}

	engine := &Engine{
		config:       cfg,
		userProvider: b.userProvider,
		authPolicy:   rate.Policy{Capacity: cfg.RateLimit.AuthCapacity, Window: cfg.RateLimit.AuthWindow},
		genPolicy:    rate.Policy{Capacity: cfg.RateLimit.GeneralCapacity, Window: cfg.RateLimit.GeneralWindow},
	}

	attempts, err := limiters.NewAttemptTracker(limiters.Config{
		MaxAttempts:  cfg.Lockout.MaxAttempts,
		LockDuration: cfg.Lockout.LockDuration,
		MaxEntries:   cfg.Lockout.MaxEntries,
		Now:          b.now,
	})
	if err != nil {
		return nil, err
	}
	engine.attempts = attempts

	throttle, err := rate.NewLimiter(rate.Config{
		MaxKeys: cfg.RateLimit.MaxKeysPerPolicy,
		Now:     b.now,
	})
	if err != nil {
		return nil, err
	}
	engine.throttle = throttle

	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	ph, err := password.NewHasher(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}
	engine.passwordHash = ph

	te, err := totp.New(totp.Config{
		Issuer: cfg.TOTP.Issuer,
		Now:    b.now,
	})
	if err != nil {
		return nil, err
	}
	engine.totp = te

	jm, err := jwt.NewManager(jwt.Config{
		Secret:     cloneBytes(cfg.Token.Secret),
		SessionTTL: cfg.Token.SessionTTL,
		PendingTTL: cfg.Token.PendingTTL,
		Now:        b.now,
	})
	if err != nil {
		return nil, err
	}
	engine.jwtManager = jm

	b.built = true

	return engine, nil
}
