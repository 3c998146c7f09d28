// SPDX-License-Identifier: BSD-3-Clause

package fsm

import (
	"context"
	"time"

	"github.com/u-mtc/u-mtc/pkg/state"
	"github.com/u-mtc/u-mtc/service/inventory"
)

func swactMachineName(hostname string) string { return hostname + ".swact" }

// SwactPollInterval bounds how often the polling state re-queries the HA
// manager for the outgoing controller's active-service count (spec.md
// §4.4.8 SWACT_POLL_TIMER).
const SwactPollInterval = 2 * time.Second

// stepSwact drives the controller-activity-swap FSM (spec.md §4.4.8):
// query the HA manager for active services, request the swap, then poll
// until none remain or the configured swact timeout elapses. Simplex
// systems refuse every HA manager call, so on a simplex system Swact goes
// from "query" straight to "failed".
func (e *Engine) stepSwact(ctx context.Context, h *inventory.Host, hc *HostContext) error {
	m, err := e.swactMachine(hc)
	if err != nil {
		return err
	}

	switch m.CurrentState() {
	case "start":
		if fire(m, "begin") {
			_ = m.Fire(ctx, "begin", nil)
			hc.StageDeadline = time.Now().Add(SwactTimeout)
		}

	case "query":
		if e.clients.HAManager == nil {
			if fire(m, "query_failed") {
				_ = m.Fire(ctx, "query_failed", nil)
			}
			return nil
		}

		req, err := e.clients.HAManager.Query(ctx, h.Hostname)
		if err != nil || req == nil {
			if fire(m, "query_failed") {
				_ = m.Fire(ctx, "query_failed", nil)
			}
			return nil
		}
		if fire(m, "active_services_found") {
			_ = m.Fire(ctx, "active_services_found", nil)
		}

	case "requested":
		if e.clients.HAManager == nil {
			return nil
		}
		if err := e.clients.HAManager.Swact(ctx, h.Hostname); err != nil {
			return nil
		}
		if fire(m, "swact_sent") {
			_ = m.Fire(ctx, "swact_sent", nil)
		}

	case "polling":
		if time.Now().After(hc.StageDeadline) {
			if fire(m, "timeout") {
				_ = m.Fire(ctx, "timeout", nil)
			}
			return nil
		}

		req, err := e.clients.HAManager.Query(ctx, h.Hostname)
		if err == nil && req != nil && fire(m, "active_services_none") {
			_ = m.Fire(ctx, "active_services_none", nil)
		}

	case "complete":
		_ = e.clients.notifyHA(ctx, h.Hostname, "swact-complete")
		e.notifyDownstream(ctx, DownstreamActiveCtrl, h.Hostname)
		h.Action = inventory.ActionNone
		hc.Active = nil

	case "failed":
		h.Action = inventory.ActionNone
		hc.Active = nil
	}

	return nil
}

// SwactTimeout is the default bound on the whole Swact FSM, overridden by
// service/mtce from the loaded timeouts.swact_timeout configuration key.
var SwactTimeout = 90 * time.Second

func (e *Engine) swactMachine(hc *HostContext) (*state.FSM, error) {
	name := swactMachineName(hc.Hostname)
	if hc.Active != nil && hc.Active.Name() == name {
		return hc.Active, nil
	}
	m, err := state.NewSwactStateMachine(name)
	if err != nil {
		return nil, err
	}
	if err := m.Start(context.Background()); err != nil {
		return nil, err
	}
	hc.Active = m
	return m, nil
}
