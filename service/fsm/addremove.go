// SPDX-License-Identifier: BSD-3-Clause

package fsm

import (
	"context"

	"github.com/u-mtc/u-mtc/service/client"
	"github.com/u-mtc/u-mtc/service/inventory"
)

// DownstreamEvent names the idempotent commands pushed to collaborator
// daemons (heartbeat, hwmon, guest, log shipper) on host add/delete
// (spec.md §4.6).
type DownstreamEvent string

const (
	DownstreamAddHost    DownstreamEvent = "ADD_HOST"
	DownstreamDelHost    DownstreamEvent = "DEL_HOST"
	DownstreamStartHost  DownstreamEvent = "START_HOST"
	DownstreamStopHost   DownstreamEvent = "STOP_HOST"
	DownstreamActiveCtrl DownstreamEvent = "ACTIVE_CTRL"
)

// DownstreamNotifier pushes an idempotent command to the downstream
// collaborator daemons over their UDP control sockets. It is supplied by
// service/mtce at wiring time so this package stays transport-agnostic.
type DownstreamNotifier func(ctx context.Context, event DownstreamEvent, hostname string)

// SetDownstreamNotifier wires the callback used to propagate host add/delete
// to heartbeat, hwmon, guest, and log-shipper collaborators.
func (e *Engine) SetDownstreamNotifier(n DownstreamNotifier) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.downstream = n
}

// GuestNotifier acknowledges an Enable/Disable transition to the guest
// monitor daemon, the narrow ADD_HOST/DEL_HOST-shaped surface
// guestServer.cpp expects the core to issue independently of the Add/Delete
// FSMs' own downstream notifications. Supplied by service/mtce at wiring
// time so this package stays transport-agnostic.
type GuestNotifier func(hostname string, enabled bool)

// SetGuestNotifier wires the callback used to acknowledge Enable/Disable
// transitions to the guest monitor daemon.
func (e *Engine) SetGuestNotifier(n GuestNotifier) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.guestNotify = n
}

func (e *Engine) notifyGuest(hostname string, enabled bool) {
	e.mu.Lock()
	n := e.guestNotify
	e.mu.Unlock()
	if n != nil {
		n(hostname, enabled)
	}
}

// stepAdd runs the Add FSM's single reconciliation pass (spec.md §4.4.6):
// the enable-alarm severity is folded into the degrade mask, a host record
// that loads as (unlocked, enabled, degraded) is kept degraded rather than
// silently overridden to available when the mask is still non-empty (Open
// Question (a); see DESIGN.md), and the host is pushed to every downstream
// daemon its node type requires.
func (e *Engine) stepAdd(ctx context.Context, h *inventory.Host, hc *HostContext) error {
	if h.Alarms != nil {
		if _, enableAlarmActive := h.Alarms[string(client.AlarmEnable)]; enableAlarmActive {
			h.DegradeMask |= inventory.FlagDegraded
		}
	}

	if err := e.stepDegradeAudit(ctx, h, "add"); err != nil {
		return err
	}

	e.notifyDownstream(ctx, DownstreamAddHost, h.Hostname)
	if h.HasNodeType(inventory.NodeWorker) {
		e.notifyDownstream(ctx, DownstreamStartHost, h.Hostname)
	}

	h.Action = inventory.ActionNone
	return nil
}

// Delete retires a host: its BMC worker is stopped (by canceling the
// context the caller started it under), its BMC is unprovisioned, every
// downstream daemon is told to drop it, every alarm is cleared, and the
// record is removed from inventory and from this engine's bookkeeping
// (spec.md §4.4.6 Delete FSM).
func (e *Engine) Delete(ctx context.Context, hostname string) error {
	h, err := e.inv.Get(hostname)
	if err != nil {
		return err
	}

	e.mu.Lock()
	delete(e.bmc, hostname)
	e.mu.Unlock()

	h.BMCProvisioned = false

	if e.clients.Alarm != nil {
		for id := range h.Alarms {
			_ = e.clients.Alarm.Clear(ctx, client.AlarmID(id), hostname)
		}
	}

	e.notifyDownstream(ctx, DownstreamDelHost, hostname)
	e.Forget(hostname)
	return e.inv.Delete(hostname)
}

func (e *Engine) notifyDownstream(ctx context.Context, event DownstreamEvent, hostname string) {
	e.mu.Lock()
	n := e.downstream
	e.mu.Unlock()
	if n != nil {
		n(ctx, event, hostname)
	}
}
