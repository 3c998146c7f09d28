// SPDX-License-Identifier: BSD-3-Clause

package fsm

import (
	"context"
	"time"

	"github.com/u-mtc/u-mtc/pkg/state"
	"github.com/u-mtc/u-mtc/service/client"
	"github.com/u-mtc/u-mtc/service/inventory"
)

func reinstallMachineName(hostname string) string { return hostname + ".reinstall" }

// stepReinstall drives the wipe-and-reinstall FSM (spec.md §4.4.5): the
// wipe-disk command is sent and acknowledged, then the host is expected
// offline and later back online within the combined mtcAlive/reinstall
// timeout; a miss on either wait logs a reinstall-failed transition.
func (e *Engine) stepReinstall(ctx context.Context, h *inventory.Host, hc *HostContext) error {
	m, err := e.reinstallMachine(hc)
	if err != nil {
		return err
	}

	w, hasWorker := e.bmc[h.Hostname]

	switch m.CurrentState() {
	case "start":
		if !hasWorker {
			return nil
		}
		if err := w.Send(ctx, client.BMCCommand{Command: "wipe-disk"}); err != nil {
			return err
		}
		if fire(m, "wipe_disk_sent") {
			_ = m.Fire(ctx, "wipe_disk_sent", nil)
		}

	case "resp_wait":
		res, ready := w.TryRecv()
		if !ready {
			return nil
		}
		if res.Status == client.BMCPass && fire(m, "wipe_disk_ack") {
			_ = m.Fire(ctx, "wipe_disk_ack", nil)
			hc.StageDeadline = time.Now().Add(30 * time.Minute)
		} else if fire(m, "wipe_disk_nack") {
			_ = m.Fire(ctx, "wipe_disk_nack", nil)
		}

	case "offline_wait":
		if h.Avail == inventory.AvailOffline && fire(m, "offline_confirmed") {
			_ = m.Fire(ctx, "offline_confirmed", nil)
			return nil
		}
		if time.Now().After(hc.StageDeadline) && fire(m, "timeout") {
			_ = m.Fire(ctx, "timeout", nil)
		}

	case "online_wait":
		if h.Avail == inventory.AvailOnline && fire(m, "online_confirmed") {
			_ = m.Fire(ctx, "online_confirmed", nil)
			return nil
		}
		if time.Now().After(hc.StageDeadline) && fire(m, "timeout") {
			_ = m.Fire(ctx, "timeout", nil)
		}

	case "msg_display":
		if fire(m, "ack") {
			_ = m.Fire(ctx, "ack", nil)
		}

	case "done":
		h.Action = inventory.ActionNone
		hc.Active = nil

	case "failed":
		_ = e.inv.AllStateChange(ctx, h.Hostname, h.Admin, h.Oper, inventory.AvailFailed)
		h.Action = inventory.ActionNone
		hc.Active = nil
	}

	return nil
}

func (e *Engine) reinstallMachine(hc *HostContext) (*state.FSM, error) {
	name := reinstallMachineName(hc.Hostname)
	if hc.Active != nil && hc.Active.Name() == name {
		return hc.Active, nil
	}
	m, err := state.NewReinstallStateMachine(name)
	if err != nil {
		return nil, err
	}
	if err := m.Start(context.Background()); err != nil {
		return nil, err
	}
	hc.Active = m
	return m, nil
}
