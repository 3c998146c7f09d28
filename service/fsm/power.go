// SPDX-License-Identifier: BSD-3-Clause

package fsm

import (
	"context"
	"time"

	"github.com/u-mtc/u-mtc/pkg/state"
	"github.com/u-mtc/u-mtc/service/client"
	"github.com/u-mtc/u-mtc/service/inventory"
)

func powerMachineName(hostname, kind string) string { return hostname + ".power." + kind }

// stepPower drives the Reset/Power/Powercycle family (spec.md §4.4.4): a BMC
// command is sent and later reaped via the BMC worker's Send/TryRecv, with a
// cool-off holdoff and a post-power-on soak that expects the host online
// within a timeout. A RETRY result is counted in PowercycleRetries and the
// command is sent again; these inner retries have no upper bound. Powercycle additionally tracks
// an outer attempts counter; exceeding MaxPowercycleAttemptRetries leaves
// the host powered down for manual intervention rather than retrying
// indefinitely.
func (e *Engine) stepPower(ctx context.Context, h *inventory.Host, hc *HostContext, kind string) error {
	m, err := e.powerMachine(hc, kind)
	if err != nil {
		return err
	}

	w, hasWorker := e.bmc[h.Hostname]

	switch m.CurrentState() {
	case "start":
		if !hasWorker {
			return nil
		}
		if fire(m, "bmc_command_send") {
			if err := w.Send(ctx, client.BMCCommand{Command: kind}); err != nil {
				return err
			}
			_ = m.Fire(ctx, "bmc_command_send", nil)
		}

	case "command_sent":
		if !hasWorker {
			return nil
		}
		res, ready := w.TryRecv()
		if !ready {
			return nil
		}

		switch res.Status {
		case client.BMCPass:
			if fire(m, "bmc_command_pass") {
				_ = m.Fire(ctx, "bmc_command_pass", nil)
				hc.StageDeadline = time.Now().Add(5 * time.Second) // holdoff
			}
		case client.BMCRetry:
			hc.PowercycleRetries++
			if fire(m, "bmc_command_retry") {
				_ = m.Fire(ctx, "bmc_command_retry", nil)
			}
		default:
			if fire(m, "bmc_command_fail") {
				_ = m.Fire(ctx, "bmc_command_fail", nil)
			}
		}

	case "holdoff":
		if time.Now().Before(hc.StageDeadline) {
			return nil
		}
		if fire(m, "holdoff_elapsed") {
			_ = m.Fire(ctx, "holdoff_elapsed", nil)
			hc.StageDeadline = time.Now().Add(60 * time.Second) // online soak
		}

	case "soak":
		if h.Avail == inventory.AvailOnline || h.Avail == inventory.AvailAvailable {
			if fire(m, "online_confirmed") {
				_ = m.Fire(ctx, "online_confirmed", nil)
			}
			return nil
		}
		if time.Now().After(hc.StageDeadline) && fire(m, "soak_timeout") {
			_ = m.Fire(ctx, "soak_timeout", nil)
		}

	case "complete":
		hc.PowercycleAttempts = 0
		hc.PowercycleRetries = 0
		h.Action = inventory.ActionNone
		hc.Active = nil

	case "failed":
		hc.PowercycleAttempts++
		if hc.PowercycleAttempts > MaxPowercycleAttemptRetries {
			_ = e.inv.AvailStatusChange(ctx, h.Hostname, inventory.AvailPoweredOff)
			h.Action = inventory.ActionNone
			hc.Active = nil
			return ErrManualInterventionRequired
		}
		hc.Active = nil // retry from start on the next tick
	}

	return nil
}

func (e *Engine) powerMachine(hc *HostContext, kind string) (*state.FSM, error) {
	name := powerMachineName(hc.Hostname, kind)
	if hc.Active != nil && hc.Active.Name() == name {
		return hc.Active, nil
	}
	m, err := state.NewPowerStateMachine(name)
	if err != nil {
		return nil, err
	}
	if err := m.Start(context.Background()); err != nil {
		return nil, err
	}
	hc.Active = m
	return m, nil
}
