// SPDX-License-Identifier: BSD-3-Clause

package fsm

import (
	"context"
	"crypto/md5"
	"fmt"
	"time"

	"github.com/u-mtc/u-mtc/service/client"
	"github.com/u-mtc/u-mtc/service/inventory"
)

// OfflineThreshold is the number of consecutive probe windows with no
// mtcAlive before a host is declared offline (spec.md §4.4.9 Offline
// handler). It mirrors the agent.offline_threshold configuration key;
// service/mtce overrides this default from the loaded Config.
var OfflineThreshold = 10

// OnlineHitsRequired is the number of consecutive mtcAlive hits a locked,
// powered-off host needs before the Online audit declares it online
// (spec.md §4.4.9 Online handler, MTC_MTCALIVE_HITS_TO_GO_ONLINE).
var OnlineHitsRequired = 3

// UptimePeriod is how often the Uptime audit refreshes an enabled host's
// uptime to inventory; UptimeSlowPeriod replaces it once the host has been
// up over an hour (spec.md §4.4.9 Uptime audit).
var (
	UptimePeriod     = 60 * time.Second
	UptimeSlowPeriod = 5 * time.Minute
)

// stepAudits runs the always-on, admin-action-independent checks. It is the
// driver invoked when a host's Action is ActionNone, i.e. it is not
// mid-transition on any explicit administrative or recovery FSM. Uptime and
// BMC reachability are checked regardless of admin state; a locked host
// gets the Online audit and the Out-of-service test, an unlocked-enabled
// host gets the Offline audit, Degrade reconciliation, and the In-service
// test (spec.md §4.4.9).
func (e *Engine) stepAudits(ctx context.Context, h *inventory.Host, hc *HostContext) error {
	e.stepUptimeAudit(ctx, h, hc)
	_ = e.stepBMCAudit(ctx, h)

	if h.Admin == inventory.AdminLocked {
		e.stepOnlineAudit(ctx, h, hc)
		e.stepOutOfServiceTest(ctx, h, hc)
		return nil
	}

	if h.Oper != inventory.OperEnabled {
		return nil
	}

	e.stepOfflineAudit(ctx, h, hc)
	if err := e.stepDegradeAudit(ctx, h, "audit"); err != nil {
		return err
	}
	return e.stepInServiceTest(ctx, h, hc)
}

// NoteMtcAlive is called by the message I/O layer (C4) whenever a liveness
// datagram arrives for hostname: it resets the Offline audit's miss counter
// and, for a locked/powered-off host, advances the Online audit's hit count.
func (e *Engine) NoteMtcAlive(ctx context.Context, hostname string) {
	hc := e.contextFor(hostname)
	hc.OfflineMisses = 0

	h, err := e.inv.Get(hostname)
	if err != nil {
		return
	}

	if h.Avail == inventory.AvailOffline {
		_ = e.inv.AvailStatusChange(ctx, hostname, inventory.AvailAvailable)
		if err := e.stepGracefulRecovery(ctx, h, hc, 0, true); err != nil {
			e.log.Error("graceful recovery step failed", "hostname", hostname, "error", err)
		}
		return
	}

	if h.Admin == inventory.AdminLocked && h.Avail == inventory.AvailPoweredOff {
		hc.OnlineHits++
	}
}

// stepOnlineAudit mirrors the Offline audit for locked hosts: it requires
// OnlineHitsRequired consecutive mtcAlive hits (counted by NoteMtcAlive)
// before leaving powered-off for online, and resets its count whenever the
// host is not currently powered-off.
func (e *Engine) stepOnlineAudit(ctx context.Context, h *inventory.Host, hc *HostContext) {
	if h.Avail != inventory.AvailPoweredOff {
		hc.OnlineHits = 0
		return
	}

	if hc.OnlineHits < OnlineHitsRequired {
		return
	}

	_ = e.inv.AvailStatusChange(ctx, h.Hostname, inventory.AvailOnline)
	hc.OnlineHits = 0
}

// stepOutOfServiceTest refreshes a locked host's recorded state only while
// its work/done queue is quiescent, and asserts it offline if it has gone
// OfflineThreshold windows without a liveness hit while stuck in some other
// availability status (spec.md §4.4.9 Out-of-service test).
func (e *Engine) stepOutOfServiceTest(ctx context.Context, h *inventory.Host, hc *HostContext) {
	work, done := hc.Queue.Len()
	if work != 0 || done != 0 {
		return
	}

	hc.OfflineMisses++
	if hc.OfflineMisses < OfflineThreshold || h.Avail == inventory.AvailOffline {
		return
	}

	_ = e.inv.AllStateChange(ctx, h.Hostname, inventory.AdminLocked, inventory.OperDisabled, inventory.AvailOffline)
}

// stepUptimeAudit refreshes an enabled host's uptime to inventory at
// UptimePeriod, throttled to UptimeSlowPeriod once it has been up over an
// hour. Absent a true hardware uptime figure carried over the wire, uptime
// is reported as elapsed time since the host last reached Enable's
// terminal state.
func (e *Engine) stepUptimeAudit(ctx context.Context, h *inventory.Host, hc *HostContext) {
	if hc.EnabledAt.IsZero() {
		return
	}

	uptime := time.Since(hc.EnabledAt)
	period := UptimePeriod
	if uptime > time.Hour {
		period = UptimeSlowPeriod
	}

	if !hc.LastUptimeRefresh.IsZero() && time.Since(hc.LastUptimeRefresh) < period {
		return
	}

	hc.LastUptimeRefresh = time.Now()
	_ = e.inv.UptimeChange(ctx, h.Hostname, uptime)
}

// stepOfflineAudit increments the miss counter absent a mtcAlive this tick
// (the I/O layer resets it via NoteMtcAlive when one arrives) and declares
// the host offline once OfflineThreshold consecutive windows have missed.
func (e *Engine) stepOfflineAudit(ctx context.Context, h *inventory.Host, hc *HostContext) {
	if h.Avail == inventory.AvailOffline {
		return
	}

	hc.OfflineMisses++
	if hc.OfflineMisses < OfflineThreshold {
		return
	}

	_ = e.inv.AvailStatusChange(ctx, h.Hostname, inventory.AvailOffline)
	_ = e.clients.notifyVIM(ctx, h.Hostname, "offline")
}

// stepInServiceTest acts on NOT_HEALTHY only: it raises a forced re-enable
// for a peer host, and a critical config alarm instead for the active
// controller itself (spec.md §4.4.9). It does not manage the Enable or
// compute-subfunction alarms and does not toggle autorecovery_enabled.
// isSelf is approximated here by the controller node type, since "self"
// identity is resolved by service/mtce at wiring time.
func (e *Engine) stepInServiceTest(ctx context.Context, h *inventory.Host, hc *HostContext) error {
	if !h.HasFlag(inventory.FlagNotHealthy) {
		return nil
	}

	if h.HasNodeType(inventory.NodeController) {
		if e.clients.Alarm == nil {
			return nil
		}
		return e.clients.Alarm.Raise(ctx, client.AlarmConfig, h.Hostname, client.SeverityCritical)
	}

	h.Action = inventory.ActionEnable
	hc.Active = nil
	return nil
}

// stepDegradeAudit reconciles a host's degrade mask into its availability
// status: a non-zero mask while enabled reports "degraded" rather than
// "available", and clearing the mask restores "available".
func (e *Engine) stepDegradeAudit(ctx context.Context, h *inventory.Host, cause string) error {
	if h.DegradeMask != 0 {
		if h.Avail != inventory.AvailDegraded {
			return e.inv.AvailStatusChange(ctx, h.Hostname, inventory.AvailDegraded)
		}
		return nil
	}

	if h.Avail == inventory.AvailDegraded {
		return e.inv.AvailStatusChange(ctx, h.Hostname, inventory.AvailAvailable)
	}
	return nil
}

// stepBMCAudit pings a provisioned BMC and raises/clears the BMC-unreachable
// alarm (spec.md §6 MTC_ALARM_ID__BM) based on the command's outcome.
func (e *Engine) stepBMCAudit(ctx context.Context, h *inventory.Host) error {
	if !h.BMCProvisioned || e.clients.Alarm == nil {
		return nil
	}

	w, ok := e.bmc[h.Hostname]
	if !ok {
		return nil
	}

	if err := w.Send(ctx, client.BMCCommand{Command: "ping"}); err != nil {
		return e.clients.Alarm.Raise(ctx, client.AlarmBM, h.Hostname, client.SeverityMajor)
	}

	res, ready := w.TryRecv()
	if !ready || res.Status != client.BMCPass {
		return nil
	}
	return e.clients.Alarm.Clear(ctx, client.AlarmBM, h.Hostname)
}

// stepConfigAudit requests the root credential signature from inventory,
// computes an MD5 of the local shadow entry, and pushes a correction if they
// differ (spec.md §4.4.9 Config audit).
func (e *Engine) stepConfigAudit(ctx context.Context, h *inventory.Host, localShadowEntry []byte) error {
	if e.clients.Inventory == nil {
		return nil
	}

	remote, err := e.clients.Inventory.LoadHost(ctx, h.Hostname)
	if err != nil {
		return err
	}

	localSig := fmt.Sprintf("%x", md5.Sum(localShadowEntry))
	if string(remote) == localSig {
		return nil
	}

	return e.clients.Inventory.ModifyRootCredential(ctx, h.Hostname, localSig)
}

// RunConfigAudit is the credential-watcher-triggered entry point for the
// Config audit: hostname is this controller's own host record, and
// localShadowEntry is the just-changed root credential file's contents.
// service/mtce calls this from its inotify OnCredential handler rather than
// running it on every tick, since it only needs to re-run on change.
func (e *Engine) RunConfigAudit(ctx context.Context, hostname string, localShadowEntry []byte) error {
	h, err := e.inv.Get(hostname)
	if err != nil {
		return err
	}
	return e.stepConfigAudit(ctx, h, localShadowEntry)
}

func (c Clients) notifyVIM(ctx context.Context, hostname, state string) error {
	if c.VIM == nil {
		return nil
	}
	return c.VIM.NotifyStateChange(ctx, client.StateChangeEvent{Hostname: hostname, State: state})
}
