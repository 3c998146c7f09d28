// SPDX-License-Identifier: BSD-3-Clause

package fleet

import (
	"context"
	"time"

	"github.com/u-mtc/u-mtc/pkg/ipc"
)

// dorState tracks the Dead-Office-Recovery window opened on startup after a
// full-site power cycle, during which simultaneous host returns must not be
// mistaken for a mass failure (spec.md §4.4.10).
type dorState struct {
	active   bool
	deadline time.Time
}

// ActivateDOR opens the DOR window if this controller's own uptime is still
// under the configured activation ceiling, scaling the window's duration
// linearly by the number of hosts expected to report in (mtcNodeCtrl.cpp's
// dor_mode_timeout computation, carried forward per SPEC_FULL.md). Calling
// this after the ceiling has passed is a no-op, matching the source's
// "DOR only ever activates once, at startup" rule.
func (c *Coordinator) ActivateDOR(ctx context.Context, controllerUptime time.Duration, enabledHostCount int) {
	if controllerUptime >= c.cfg.dorActivationUptime {
		return
	}

	timeout := c.cfg.dorBaseTimeout + time.Duration(enabledHostCount)*c.cfg.dorPerHostIncrement

	c.mu.Lock()
	c.dor.active = true
	c.dor.deadline = time.Now().Add(timeout)
	c.mu.Unlock()

	c.log.InfoContext(ctx, "dead-office-recovery window active",
		"timeout", timeout, "enabled_host_count", enabledHostCount)
	c.publish(ctx, ipc.SubjectFleetDOR, dorEvent{Active: true, TimeoutSeconds: int(timeout.Seconds())})
}

// evaluateDOR closes the window once its deadline passes.
func (c *Coordinator) evaluateDOR(ctx context.Context) {
	if !c.dor.active {
		return
	}
	if time.Now().Before(c.dor.deadline) {
		return
	}

	c.dor.active = false
	c.log.InfoContext(ctx, "dead-office-recovery window closed")
	c.publish(ctx, ipc.SubjectFleetDOR, dorEvent{Active: false})
}

// InDOR reports whether the fleet is still inside its startup
// Dead-Office-Recovery window. service/fsm consults this (via
// Engine.SuppressHostServices) to avoid a Start-Host-Services stampede
// across every host returning at once.
func (c *Coordinator) InDOR() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dor.active
}

type dorEvent struct {
	Active         bool `json:"active"`
	TimeoutSeconds int  `json:"timeout_seconds,omitempty"`
}
