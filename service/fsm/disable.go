// SPDX-License-Identifier: BSD-3-Clause

package fsm

import (
	"context"
	"time"

	"github.com/u-mtc/u-mtc/pkg/state"
	"github.com/u-mtc/u-mtc/service/client"
	"github.com/u-mtc/u-mtc/service/inventory"
)

func disableMachineName(hostname string) string { return hostname + ".disable" }

// stepDisable drives the Disable FSM (spec.md §4.4.3): a plain Lock stops
// host services and declares the host disabled once the work queue drains;
// a Force-Lock instead branches into the reset-progression path and waits
// for the host to go offline before declaring it disabled.
func (e *Engine) stepDisable(ctx context.Context, h *inventory.Host, hc *HostContext) error {
	m, err := e.disableMachine(hc)
	if err != nil {
		return err
	}

	switch m.CurrentState() {
	case "start":
		if fire(m, "begin") {
			_ = m.Fire(ctx, "begin", nil)
		}

	case "stop_host_services":
		work, done := hc.Queue.Len()
		if work == 0 && done == 0 {
			hc.Queue.Enqueue("stop_host_services", nil, time.Now().Add(30*time.Second))
			return nil
		}
		if _, ok := hc.Queue.DequeueDone(); !ok {
			return nil
		}

		if h.Action == inventory.ActionForceLock && fire(m, "force_lock") {
			_ = m.Fire(ctx, "force_lock", nil)
			return e.sendBMCReset(ctx, h)
		}
		if fire(m, "lock") {
			_ = m.Fire(ctx, "lock", nil)
		}

	case "reset_progression":
		if fire(m, "reset_sent") {
			_ = m.Fire(ctx, "reset_sent", nil)
		}

	case "wait_offline":
		if h.Avail == inventory.AvailOffline && fire(m, "offline_confirmed") {
			_ = m.Fire(ctx, "offline_confirmed", nil)
		}

	case "disabled":
		hc.Queue.Purge()
		_ = e.inv.AllStateChange(ctx, h.Hostname, h.Admin, inventory.OperDisabled, inventory.AvailOffDuty)
		_ = e.clients.notifyHA(ctx, h.Hostname, "disabled")
		e.notifyGuest(h.Hostname, false)
		h.Action = inventory.ActionNone
		hc.Active = nil
	}

	return nil
}

func (e *Engine) disableMachine(hc *HostContext) (*state.FSM, error) {
	if hc.Active != nil && hc.Active.Name() == disableMachineName(hc.Hostname) {
		return hc.Active, nil
	}
	m, err := state.NewDisableStateMachine(disableMachineName(hc.Hostname))
	if err != nil {
		return nil, err
	}
	if err := m.Start(context.Background()); err != nil {
		return nil, err
	}
	hc.Active = m
	return m, nil
}

func (e *Engine) sendBMCReset(ctx context.Context, h *inventory.Host) error {
	w, ok := e.bmc[h.Hostname]
	if !ok {
		return nil
	}
	return w.Send(ctx, client.BMCCommand{Command: "reset"})
}
