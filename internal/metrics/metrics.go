package metrics

import "sync/atomic"

// MetricID identifies a single counter slot.
type MetricID uint8

const (
	// MetricLoginSuccess is an exported constant or variable used by the account security engine.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure is an exported constant or variable used by the account security engine.
	MetricLoginFailure
	// MetricLoginLocked is an exported constant or variable used by the account security engine.
	MetricLoginLocked
	// MetricMFARequired is an exported constant or variable used by the account security engine.
	MetricMFARequired
	// MetricMFASuccess is an exported constant or variable used by the account security engine.
	MetricMFASuccess
	// MetricMFAFailure is an exported constant or variable used by the account security engine.
	MetricMFAFailure
	// MetricTOTPEnabled is an exported constant or variable used by the account security engine.
	MetricTOTPEnabled
	// MetricTOTPDisabled is an exported constant or variable used by the account security engine.
	MetricTOTPDisabled
	// MetricAccountCreationSuccess is an exported constant or variable used by the account security engine.
	MetricAccountCreationSuccess
	// MetricAccountCreationDuplicate is an exported constant or variable used by the account security engine.
	MetricAccountCreationDuplicate
	// MetricPasswordChangeSuccess is an exported constant or variable used by the account security engine.
	MetricPasswordChangeSuccess
	// MetricPasswordChangeInvalidOld is an exported constant or variable used by the account security engine.
	MetricPasswordChangeInvalidOld
	// MetricPasswordChangeMismatch is an exported constant or variable used by the account security engine.
	MetricPasswordChangeMismatch
	// MetricRateLimitHit is an exported constant or variable used by the account security engine.
	MetricRateLimitHit

	// MetricIDCount is an exported constant or variable used by the account security engine.
	MetricIDCount
)

// Config controls whether metric writes are recorded.
type Config struct {
	Enabled bool
}

// paddedCounter occupies a full cache line to avoid false sharing between
// adjacent slots.
type paddedCounter struct {
	value atomic.Uint64
	_     [56]byte
}

// Metrics holds the engine's counter slots. A nil or disabled Metrics makes
// every operation a no-op.
type Metrics struct {
	enabled  bool
	counters [MetricIDCount]paddedCounter
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Counters [MetricIDCount]uint64
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New(cfg Config) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc adds one to the counter identified by id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= MetricIDCount {
		return
	}
	m.counters[id].value.Add(1)
}

// Snapshot copies every counter atomically slot by slot.
func (m *Metrics) Snapshot() Snapshot {
	var out Snapshot
	if m == nil || !m.enabled {
		return out
	}
	for i := range m.counters {
		out.Counters[i] = m.counters[i].value.Load()
	}
	return out
}
