// FILE: logbridge/src/internal/bridge/bridge.go
package bridge

import (
	"sync"
	"sync/atomic"

	"logbridge/src/internal/core"
)

// Bridge forwards records from any number of concurrent producers to a
// single registered consumer. The only state shared between producers and
// registration is the consumer slot, guarded by mu.
type Bridge struct {
	installMu sync.Mutex
	installed atomic.Bool
	minLevel  atomic.Int32

	mu       sync.Mutex
	consumer Consumer

	policy atomic.Pointer[policyHolder]
	fatal  atomic.Pointer[fatalHolder]

	// Statistics
	totalEmitted   atomic.Uint64
	totalFiltered  atomic.Uint64
	totalDropped   atomic.Uint64
	totalDelivered atomic.Uint64
	totalFailed    atomic.Uint64
	registrations  atomic.Uint64
}

type policyHolder struct{ p Policy }

type fatalHolder struct{ fn func(error) }

// New creates an uninstalled bridge with the default policy. Most code
// should use the process-wide instance returned by Default.
func New() *Bridge {
	b := &Bridge{}
	b.policy.Store(&policyHolder{p: DefaultPolicy()})
	b.fatal.Store(&fatalHolder{fn: panicOnFailure})
	return b
}

func panicOnFailure(err error) {
	panic(err)
}

// Install binds the bridge. Only the first call has effect; every later
// call returns ErrAlreadyInitialized and leaves the installation untouched.
func (b *Bridge) Install() error {
	b.installMu.Lock()
	defer b.installMu.Unlock()

	if b.installed.Load() {
		return ErrAlreadyInitialized
	}

	// Severity gating is left entirely to the policy
	b.minLevel.Store(int32(core.LevelTrace))
	b.installed.Store(true)
	return nil
}

// Installed reports whether Install has run
func (b *Bridge) Installed() bool {
	return b.installed.Load()
}

// Register makes c the current consumer, replacing any previous one.
// Records already handed to the previous consumer are not affected.
func (b *Bridge) Register(c Consumer) error {
	if !b.installed.Load() {
		return ErrNotInitialized
	}
	if err := validateConsumer(c); err != nil {
		return err
	}

	b.mu.Lock()
	b.consumer = c
	b.mu.Unlock()

	b.registrations.Add(1)
	return nil
}

// Unregister clears the consumer slot and returns the previous consumer.
// Subsequent records are dropped until a new consumer is registered.
func (b *Bridge) Unregister() Consumer {
	b.mu.Lock()
	prev := b.consumer
	b.consumer = nil
	b.mu.Unlock()
	return prev
}

// SetPolicy replaces the filter policy. A nil policy restores the default.
func (b *Bridge) SetPolicy(p Policy) {
	if p == nil {
		p = DefaultPolicy()
	}
	b.policy.Store(&policyHolder{p: p})
}

// Policy returns the current filter policy
func (b *Bridge) Policy() Policy {
	return b.policy.Load().p
}

// SetMinLevel moves the global severity gate evaluated before the policy.
// Install resets it to TRACE.
func (b *Bridge) SetMinLevel(level core.Level) {
	b.minLevel.Store(int32(level))
}

// SetFatalHandler sets the function receiving consumer failures.
// The default panics with the *ConsumerError.
func (b *Bridge) SetFatalHandler(fn func(error)) {
	if fn == nil {
		fn = panicOnFailure
	}
	b.fatal.Store(&fatalHolder{fn: fn})
}

// Enabled reports whether a record with this target and level would be
// forwarded, without emitting anything.
func (b *Bridge) Enabled(target string, level core.Level) bool {
	if !b.installed.Load() {
		return false
	}
	if level < core.Level(b.minLevel.Load()) {
		return false
	}
	return b.Policy().Allow(target, level)
}

// Emit forwards rec to the registered consumer and blocks until the
// consumer has accepted it. Filtered records and records emitted while no
// consumer is registered are dropped silently.
func (b *Bridge) Emit(rec core.Record) {
	b.totalEmitted.Add(1)

	if !b.Enabled(rec.Target(), rec.Level()) {
		b.totalFiltered.Add(1)
		return
	}

	b.mu.Lock()
	c := b.consumer
	b.mu.Unlock()

	if c == nil {
		b.totalDropped.Add(1)
		return
	}

	if err := c.Accept(rec); err != nil {
		b.totalFailed.Add(1)
		b.fatal.Load().fn(&ConsumerError{
			Target: rec.Target(),
			Level:  rec.Level(),
			Err:    err,
		})
		return
	}
	b.totalDelivered.Add(1)
}

// Log is the call-style form of Emit. An empty file means no location.
func (b *Bridge) Log(level core.Level, target, message, file string, line int) {
	b.Emit(core.NewRecordAt(level, target, message, file, line))
}

// GetStats returns bridge statistics
func (b *Bridge) GetStats() map[string]any {
	b.mu.Lock()
	hasConsumer := b.consumer != nil
	b.mu.Unlock()

	return map[string]any{
		"installed":       b.installed.Load(),
		"has_consumer":    hasConsumer,
		"min_level":       core.Level(b.minLevel.Load()).String(),
		"registrations":   b.registrations.Load(),
		"total_emitted":   b.totalEmitted.Load(),
		"total_filtered":  b.totalFiltered.Load(),
		"total_dropped":   b.totalDropped.Load(),
		"total_delivered": b.totalDelivered.Load(),
		"total_failed":    b.totalFailed.Load(),
	}
}
