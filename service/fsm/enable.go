// SPDX-License-Identifier: BSD-3-Clause

package fsm

import (
	"context"
	"time"

	"github.com/u-mtc/u-mtc/pkg/state"
	"github.com/u-mtc/u-mtc/service/client"
	"github.com/u-mtc/u-mtc/service/inventory"
	"github.com/u-mtc/u-mtc/service/queue"
)

// enableMachineName and recoveryMachineName key the per-host FSMs this
// driver creates lazily the first time a host needs them.
func enableMachineName(hostname string) string   { return hostname + ".enable" }
func recoveryMachineName(hostname string) string { return hostname + ".recovery" }

// stepEnable drives the full Enable FSM (spec.md §4.4.1): reset progression,
// the MTCALIVE_PURGE stale-liveness discard, go-enable, host services, and
// the heartbeat soak before a host is declared enabled. Enable is blocked
// silently while ar_disabled is set, matching the source's "returns to
// START silently" rule rather than surfacing an error.
func (e *Engine) stepEnable(ctx context.Context, h *inventory.Host, hc *HostContext) error {
	if hc.ARDisabled {
		return nil
	}

	m, err := e.enableMachine(hc)
	if err != nil {
		return err
	}

	switch m.CurrentState() {
	case "start":
		if fire(m, "begin") {
			_ = m.Fire(ctx, "begin", nil)
			hc.MtcAlivePurgeRemaining = MtcAlivePurgeTicks
		}

	case "discover":
		// MTCALIVE_PURGE: discard stale liveness ticks before trusting the host.
		if hc.MtcAlivePurgeRemaining > 0 {
			hc.MtcAlivePurgeRemaining--
			return nil
		}
		if fire(m, "discovered") {
			_ = m.Fire(ctx, "discovered", nil)
		}

	case "config_check":
		if h.DegradeMask != 0 && fire(m, "not_configured") {
			_ = m.Fire(ctx, "not_configured", nil)
			return e.raiseConfigAlarm(ctx, h)
		}
		if fire(m, "configured") {
			_ = m.Fire(ctx, "configured", nil)
		}

	case "goenable":
		e.stepGoEnableQueue(ctx, h, hc, m)

	case "host_services":
		e.stepHostServicesQueue(ctx, h, hc, m)

	case "heartbeat_soak":
		e.stepHeartbeatSoak(ctx, h, hc, m, "soak_pass", "soak_fail")

	case "enabled":
		hc.RememberedUptime = 0
		hc.EnabledAt = time.Now()
		_ = e.inv.AllStateChange(ctx, h.Hostname, h.Admin, inventory.OperEnabled, inventory.AvailAvailable)
		_ = e.clients.notifyHA(ctx, h.Hostname, "enabled")
		e.notifyGuest(h.Hostname, true)
		h.Action = inventory.ActionNone
		hc.Active = nil

	case "failed":
		hc.Queue.Purge()
		_ = e.raiseEnableAlarm(ctx, h)

		if h.HasNodeType(inventory.NodeController) {
			if peer := e.healthyPeerController(h); peer != nil {
				if e.clients.HAManager != nil {
					_ = e.clients.HAManager.Swact(ctx, h.Hostname)
				}
			} else {
				// Sole enabled controller, no healthy peer to swact to:
				// stay degraded instead of retrying into a headless
				// cluster (spec.md §4.4.1, "active-controller failure is
				// special").
				_ = e.inv.AvailStatusChange(ctx, h.Hostname, inventory.AvailDegraded)
				return nil
			}
		}

		if fire(m, "retry") {
			_ = m.Fire(ctx, "retry", nil)
		}
	}

	return nil
}

func (e *Engine) enableMachine(hc *HostContext) (*state.FSM, error) {
	if hc.Active != nil && hc.Active.Name() == enableMachineName(hc.Hostname) {
		return hc.Active, nil
	}
	m, err := state.NewEnableStateMachine(enableMachineName(hc.Hostname))
	if err != nil {
		return nil, err
	}
	if err := m.Start(context.Background()); err != nil {
		return nil, err
	}
	hc.Active = m
	return m, nil
}

// stepGoEnableQueue enqueues the go-enable probe on first entry, then reaps
// it from the done queue once the I/O layer completes it.
func (e *Engine) stepGoEnableQueue(ctx context.Context, h *inventory.Host, hc *HostContext, m *state.FSM) {
	work, done := hc.Queue.Len()
	if work == 0 && done == 0 {
		hc.Queue.Enqueue("goenable", nil, time.Now().Add(30*time.Second))
		return
	}

	entry, ok := hc.Queue.DequeueDone()
	if !ok {
		return
	}

	if entry.Status == queue.StatusPass && fire(m, "goenable_pass") {
		_ = m.Fire(ctx, "goenable_pass", nil)
	} else if fire(m, "goenable_fail") {
		_ = m.Fire(ctx, "goenable_fail", nil)
	}
}

func (e *Engine) stepHostServicesQueue(ctx context.Context, h *inventory.Host, hc *HostContext, m *state.FSM) {
	work, done := hc.Queue.Len()
	if work == 0 && done == 0 {
		if e.SuppressHostServices != nil && e.SuppressHostServices(h.Hostname) {
			return
		}
		hc.Queue.Enqueue("start_host_services", nil, time.Now().Add(30*time.Second))
		return
	}

	entry, ok := hc.Queue.DequeueDone()
	if !ok {
		return
	}

	if entry.Status == queue.StatusPass && fire(m, "host_services_pass") {
		_ = m.Fire(ctx, "host_services_pass", nil)
	} else if fire(m, "host_services_fail") {
		_ = m.Fire(ctx, "host_services_fail", nil)
	}
}

// stepHeartbeatSoak arms (once) and checks a soak timer shared by every FSM
// that needs the "heartbeat must stay healthy for N seconds" stage.
func (e *Engine) stepHeartbeatSoak(ctx context.Context, h *inventory.Host, hc *HostContext, m *state.FSM, passTrigger, failTrigger string) {
	if hc.StageDeadline.IsZero() {
		soak := e.HeartbeatSoakDuration
		if soak <= 0 {
			soak = 10 * time.Second
		}
		hc.StageDeadline = time.Now().Add(soak)
		return
	}

	if time.Now().Before(hc.StageDeadline) {
		return
	}
	hc.StageDeadline = time.Time{}

	if fire(m, passTrigger) {
		_ = m.Fire(ctx, passTrigger, nil)
	} else if fire(m, failTrigger) {
		_ = m.Fire(ctx, failTrigger, nil)
	}
}

// stepGracefulRecovery drives the abbreviated re-enable path after a
// transient mtcAlive loss (spec.md §4.4.2). After MaxFastEnables consecutive
// attempts it falls through to the full Enable FSM (S2); a returning uptime
// greater than the remembered value means the host never rebooted, and a
// full Enable with reset is forced to avoid VM duplication.
func (e *Engine) stepGracefulRecovery(ctx context.Context, h *inventory.Host, hc *HostContext, reportedUptime time.Duration, healthy bool) error {
	m, err := e.recoveryMachine(hc)
	if err != nil {
		return err
	}

	switch m.CurrentState() {
	case "start":
		hc.FastEnableAttempts++
		if hc.FastEnableAttempts > MaxFastEnables {
			hc.FastEnableAttempts = 0
			hc.Active = nil // fall through to the full Enable FSM
			h.Action = inventory.ActionEnable
			return nil
		}
		if fire(m, "begin") {
			_ = m.Fire(ctx, "begin", nil)
		}

	case "mtc_alive_wait":
		if reportedUptime > hc.RememberedUptime && hc.RememberedUptime != 0 {
			if fire(m, "timeout") {
				_ = m.Fire(ctx, "timeout", nil)
			}
			return nil
		}
		if fire(m, "mtc_alive_received") {
			_ = m.Fire(ctx, "mtc_alive_received", nil)
		}

	case "intest":
		if !healthy && fire(m, "not_healthy") {
			_ = m.Fire(ctx, "not_healthy", nil)
			return e.raiseConfigAlarm(ctx, h)
		}
		if fire(m, "goenable_pass") {
			_ = m.Fire(ctx, "goenable_pass", nil)
		}

	case "host_services":
		e.stepHostServicesQueue(ctx, h, hc, m)

	case "heartbeat_soak":
		e.stepHeartbeatSoak(ctx, h, hc, m, "soak_pass", "soak_fail")

	case "recovered":
		hc.FastEnableAttempts = 0
		hc.RememberedUptime = reportedUptime
		_ = e.inv.AllStateChange(ctx, h.Hostname, h.Admin, inventory.OperEnabled, inventory.AvailAvailable)
		if fire(m, "reset") {
			_ = m.Fire(ctx, "reset", nil)
		}

	case "force_full_enable":
		hc.Active = nil
		h.Action = inventory.ActionEnable
	}

	return nil
}

func (e *Engine) recoveryMachine(hc *HostContext) (*state.FSM, error) {
	if hc.Active != nil && hc.Active.Name() == recoveryMachineName(hc.Hostname) {
		return hc.Active, nil
	}
	m, err := state.NewGracefulRecoveryStateMachine(recoveryMachineName(hc.Hostname))
	if err != nil {
		return nil, err
	}
	if err := m.Start(context.Background()); err != nil {
		return nil, err
	}
	hc.Active = m
	return m, nil
}

// healthyPeerController returns another unlocked-enabled controller-type
// host besides h, or nil if h is the fleet's sole enabled controller
// (spec.md §4.4.1 scenario S3).
func (e *Engine) healthyPeerController(h *inventory.Host) *inventory.Host {
	for _, peer := range e.inv.All() {
		if peer.Hostname == h.Hostname || !peer.HasNodeType(inventory.NodeController) {
			continue
		}
		if peer.Admin == inventory.AdminUnlocked && peer.Oper == inventory.OperEnabled {
			return peer
		}
	}
	return nil
}

func (e *Engine) raiseConfigAlarm(ctx context.Context, h *inventory.Host) error {
	if e.clients.Alarm == nil {
		return nil
	}
	return e.clients.Alarm.Raise(ctx, client.AlarmConfig, h.Hostname, client.SeverityMajor)
}

func (e *Engine) raiseEnableAlarm(ctx context.Context, h *inventory.Host) error {
	if e.clients.Alarm == nil {
		return nil
	}
	return e.clients.Alarm.Raise(ctx, client.AlarmEnable, h.Hostname, client.SeverityCritical)
}

func (c Clients) notifyHA(ctx context.Context, hostname, action string) error {
	if c.HAManager == nil {
		return nil
	}
	return c.HAManager.NotifyState(ctx, hostname, client.ServicenodeEvent{Origin: "mtce", Action: action})
}
