// SPDX-License-Identifier: BSD-3-Clause

package fsm

import (
	"context"

	"github.com/u-mtc/u-mtc/pkg/state"
	"github.com/u-mtc/u-mtc/service/client"
	"github.com/u-mtc/u-mtc/service/inventory"
)

func subfunctionMachineName(hostname string) string { return hostname + ".subf" }

// stepSubfunctionEnable runs the parallel subfunction-enable FSM on combined
// controller+worker hosts once the main Enable FSM has completed (spec.md
// §4.4.7). On failure, availStatus_subf is set to failed; the host's main
// availability is only ever degraded (never failed) for this reason, and
// only when this host is the sole enabled controller.
func (e *Engine) stepSubfunctionEnable(ctx context.Context, h *inventory.Host, hc *HostContext) error {
	if !h.HasSubfunction {
		h.Action = inventory.ActionNone
		return nil
	}

	m, err := e.subfunctionMachine(hc)
	if err != nil {
		return err
	}

	switch m.CurrentState() {
	case "start":
		if fire(m, "begin") {
			_ = m.Fire(ctx, "begin", nil)
		}

	case "wait_subf_configured":
		if !h.HasFlag(inventory.FlagNotConfigured) && fire(m, "subf_configured") {
			_ = m.Fire(ctx, "subf_configured", nil)
		}

	case "goenable_subf":
		e.stepGoEnableQueue(ctx, h, hc, m)

	case "host_services_subf":
		e.stepHostServicesQueue(ctx, h, hc, m)

	case "heartbeat_soak_subf":
		e.stepHeartbeatSoak(ctx, h, hc, m, "soak_pass", "soak_fail")

	case "enabled_subf":
		_ = e.inv.SubfStateChange(ctx, h.Hostname, inventory.OperEnabled, inventory.AvailAvailable)
		h.Action = inventory.ActionNone
		hc.Active = nil

	case "failed_subf":
		_ = e.inv.SubfStateChange(ctx, h.Hostname, inventory.OperDisabled, inventory.AvailFailed)
		if e.isSoleEnabledController(h) {
			_ = e.inv.AvailStatusChange(ctx, h.Hostname, inventory.AvailDegraded)
		}
		if e.clients.Alarm != nil {
			_ = e.clients.Alarm.Raise(ctx, client.AlarmChComp, h.Hostname, client.SeverityMajor)
		}
		h.Action = inventory.ActionNone
		hc.Active = nil
	}

	return nil
}

func (e *Engine) subfunctionMachine(hc *HostContext) (*state.FSM, error) {
	name := subfunctionMachineName(hc.Hostname)
	if hc.Active != nil && hc.Active.Name() == name {
		return hc.Active, nil
	}
	m, err := state.NewSubfunctionEnableStateMachine(name)
	if err != nil {
		return nil, err
	}
	if err := m.Start(context.Background()); err != nil {
		return nil, err
	}
	hc.Active = m
	return m, nil
}

func (e *Engine) isSoleEnabledController(h *inventory.Host) bool {
	if !h.HasNodeType(inventory.NodeController) {
		return false
	}
	count := 0
	for _, other := range e.inv.All() {
		if other.HasNodeType(inventory.NodeController) && other.Oper == inventory.OperEnabled {
			count++
		}
	}
	return count <= 1
}
