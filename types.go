package authgate

import (
	"context"
	"io"

	internalaudit "github.com/jcastellr/authgate/internal/audit"
	internalmetrics "github.com/jcastellr/authgate/internal/metrics"
	"github.com/jcastellr/authgate/internal/rate"
)

// UserProvider is the primary interface that callers must implement to
// integrate authgate with their user database. It covers credential lookup,
// account creation, password updates, and TOTP secret management.
//
// Lookups that find nothing must return the zero [UserRecord] together with
// [ErrUserNotFound].
type UserProvider interface {
	GetUserByEmail(ctx context.Context, email string) (UserRecord, error)
	GetUserByUsername(ctx context.Context, username string) (UserRecord, error)
	GetUserByID(ctx context.Context, userID string) (UserRecord, error)
	CreateUser(ctx context.Context, input CreateUserInput) (UserRecord, error)
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error
	EnableTOTP(ctx context.Context, userID, secret string) error
	DisableTOTP(ctx context.Context, userID string) error
}

// UserRecord is the full account record returned by [UserProvider].
type UserRecord struct {
	UserID       string
	Username     string
	Email        string
	PasswordHash string
	TOTPSecret   string
	TOTPEnabled  bool
}

// CreateUserInput is the input for [UserProvider.CreateUser].
type CreateUserInput struct {
	Username     string
	Email        string
	PasswordHash string
}

// LoginResult is returned by [Engine.Login] and [Engine.ConfirmLoginMFA].
// It carries a session token on full success, or a short-lived pending token
// when a second factor is still required.
type LoginResult struct {
	SessionToken string

	MFARequired  bool
	PendingToken string
}

// RegisterResult is returned by [Engine.Register]. The new account is logged
// in immediately, so it includes a session token.
type RegisterResult struct {
	User         UserRecord
	SessionToken string
}

// TOTPProvision holds the raw TOTP secret, otpauth:// URI, and QR code data
// URI returned by [Engine.ProvisionTOTP]. Nothing is persisted until the
// secret is confirmed with a valid code.
type TOTPProvision struct {
	Secret    string
	URI       string
	QRCodeURI string
}

// ThrottleClass selects which request budget a throttle check draws from.
type ThrottleClass uint8

const (
	// ThrottleAuth is an exported constant or variable used by the account security engine.
	ThrottleAuth ThrottleClass = iota
	// ThrottleGeneral is an exported constant or variable used by the account security engine.
	ThrottleGeneral
)

// ThrottleResult reports the outcome of a single throttle check.
type ThrottleResult = rate.Result

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// MetricID identifies a specific counter in the in-process metrics system.
type MetricID = internalmetrics.MetricID

const (
	// MetricLoginSuccess is an exported constant or variable used by the account security engine.
	MetricLoginSuccess = internalmetrics.MetricLoginSuccess
	// MetricLoginFailure is an exported constant or variable used by the account security engine.
	MetricLoginFailure = internalmetrics.MetricLoginFailure
	// MetricLoginLocked is an exported constant or variable used by the account security engine.
	MetricLoginLocked = internalmetrics.MetricLoginLocked
	// MetricMFARequired is an exported constant or variable used by the account security engine.
	MetricMFARequired = internalmetrics.MetricMFARequired
	// MetricMFASuccess is an exported constant or variable used by the account security engine.
	MetricMFASuccess = internalmetrics.MetricMFASuccess
	// MetricMFAFailure is an exported constant or variable used by the account security engine.
	MetricMFAFailure = internalmetrics.MetricMFAFailure
	// MetricTOTPEnabled is an exported constant or variable used by the account security engine.
	MetricTOTPEnabled = internalmetrics.MetricTOTPEnabled
	// MetricTOTPDisabled is an exported constant or variable used by the account security engine.
	MetricTOTPDisabled = internalmetrics.MetricTOTPDisabled
	// MetricAccountCreationSuccess is an exported constant or variable used by the account security engine.
	MetricAccountCreationSuccess = internalmetrics.MetricAccountCreationSuccess
	// MetricAccountCreationDuplicate is an exported constant or variable used by the account security engine.
	MetricAccountCreationDuplicate = internalmetrics.MetricAccountCreationDuplicate
	// MetricPasswordChangeSuccess is an exported constant or variable used by the account security engine.
	MetricPasswordChangeSuccess = internalmetrics.MetricPasswordChangeSuccess
	// MetricPasswordChangeInvalidOld is an exported constant or variable used by the account security engine.
	MetricPasswordChangeInvalidOld = internalmetrics.MetricPasswordChangeInvalidOld
	// MetricPasswordChangeMismatch is an exported constant or variable used by the account security engine.
	MetricPasswordChangeMismatch = internalmetrics.MetricPasswordChangeMismatch
	// MetricRateLimitHit is an exported constant or variable used by the account security engine.
	MetricRateLimitHit = internalmetrics.MetricRateLimitHit

	metricIDCount = internalmetrics.MetricIDCount
)

// Metrics holds the engine's atomic counters.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a new [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled: cfg.Enabled,
	})
}
