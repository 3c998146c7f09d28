// SPDX-License-Identifier: BSD-3-Clause

package fsm

import (
	"time"

	"github.com/u-mtc/u-mtc/pkg/state"
	"github.com/u-mtc/u-mtc/service/queue"
)

// MaxFastEnables bounds how many consecutive Graceful Recovery attempts run
// before the engine falls back to the full Enable FSM (spec.md §4.4.2, S2).
const MaxFastEnables = 3

// MaxPowercycleAttemptRetries bounds the outer powercycle iteration counter
// before the host is left powered down for manual intervention (spec.md
// §4.4.4).
const MaxPowercycleAttemptRetries = 3

// MtcAlivePurgeTicks is how many stale liveness audits are discarded after a
// reboot before the mtcAlive gate reopens (spec.md §4.4.1).
const MtcAlivePurgeTicks = 20

// HostContext is the maintenance engine's per-host bookkeeping: the active
// FSM, its backing work queue, and the counters spec.md's Enable and
// Graceful Recovery sections name explicitly. It replaces the source's
// per-host struct fields with one value owned by the engine rather than
// scattered across global arrays indexed by host position.
type HostContext struct {
	Hostname string

	Active *state.FSM
	Queue  *queue.HostQueue

	// FastEnableAttempts counts consecutive Graceful Recovery entries within
	// the current window; MaxFastEnables forces a fallback to full Enable.
	FastEnableAttempts int

	// MtcAlivePurgeRemaining counts down stale liveness ticks discarded after
	// a reboot, per MTCALIVE_PURGE.
	MtcAlivePurgeRemaining int

	// RememberedUptime is the host's uptime as of the last successful Enable,
	// used by Graceful Recovery to detect "never rebooted" (spec.md §4.4.2).
	RememberedUptime time.Duration

	// ARDisabled mirrors the autorecovery_disabled gate: while set, Enable
	// returns to START silently instead of progressing.
	ARDisabled bool

	// PowercycleAttempts is the outer iteration counter; PowercycleRetries is
	// the inner per-stage retry counter (spec.md §4.4.4).
	PowercycleAttempts int
	PowercycleRetries  int

	// AutorecoveryEnabled mirrors the SM-facing autorecovery_enabled/disabled
	// pair for the active/inactive controller coupling (spec.md §9 Open
	// Question (c)). The two directions are tracked independently, matching
	// the source's reachable-inconsistency shape rather than collapsing them
	// into one bool that would hide it.
	AutorecoveryEnabled  bool
	AutorecoveryDisabled bool

	// Stage deadlines armed by the current action's timer handle.
	StageDeadline time.Time

	// OfflineMisses counts consecutive probe windows with no mtcAlive on
	// either network, used by the Offline audit's threshold for enabled
	// hosts and the Out-of-service test's "stuck missing" check for locked
	// hosts (spec.md §4.4.9) — the two never run in the same tick, so the
	// counter is safe to share between them.
	OfflineMisses int

	// OnlineHits counts consecutive mtcAlive hits for a locked, powered-off
	// host, mirroring OfflineMisses for the Online audit (spec.md §4.4.9).
	OnlineHits int

	// EnabledAt is stamped whenever the host reaches the Enable FSM's
	// terminal state; the Uptime audit reports time.Since(EnabledAt) absent
	// a true hardware uptime figure carried over the wire.
	EnabledAt time.Time

	// LastUptimeRefresh throttles the Uptime audit's inventory push.
	LastUptimeRefresh time.Time

	// DegradeCause holds a reason for SM degrade on this host (spec.md
	// §4.4.9 Degrade audit). No driver in this package sets it, so it stays
	// empty.
	DegradeCause string
}

// NewHostContext creates bookkeeping for one host, with its own queue.
func NewHostContext(hostname string) *HostContext {
	return &HostContext{
		Hostname: hostname,
		Queue:    queue.New(),
	}
}

// fire reports whether trigger can fire from the current state; it does
// not fire it. Drivers check it before calling m.Fire, which is how a
// tick-driven driver avoids treating an inapplicable trigger as an error:
// most ticks find nothing ready.
func fire(m *state.FSM, trigger string) bool {
	if m == nil {
		return false
	}
	ok, err := m.CanFire(trigger)
	if err != nil || !ok {
		return false
	}
	return true
}
