// SPDX-License-Identifier: BSD-3-Clause

package fsm

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/u-mtc/u-mtc/service/client"
	"github.com/u-mtc/u-mtc/service/inventory"
	"github.com/u-mtc/u-mtc/service/queue"
	"github.com/u-mtc/u-mtc/service/timer"
)

// Clients bundles the external client handles every action driver needs.
// A field left nil (e.g. a simplex system's HAManager) simply means the
// driver steps that call it skip the call, matching each client's own
// simplex/unsupported short-circuit.
type Clients struct {
	Inventory *client.InventoryClient
	HAManager *client.HAManagerClient
	VIM       *client.VIMClient
	Alarm     *client.AlarmClient
}

// Engine owns one HostContext per managed host and, on every fan-in tick,
// advances whichever action FSM is active for that host (spec.md §4.4, C6).
type Engine struct {
	mu    sync.Mutex
	hosts map[string]*HostContext

	inv         *inventory.Inventory
	timers      *timer.Service
	clients     Clients
	bmc         map[string]*client.BMCWorker
	downstream  DownstreamNotifier
	guestNotify GuestNotifier

	// HeartbeatSoakDuration overrides the default 10s heartbeat soak every
	// Enable-family FSM waits out before declaring a host enabled. Tests
	// shrink this; production wiring leaves it at its zero value, which
	// stepHeartbeatSoak treats as the 10s default.
	HeartbeatSoakDuration time.Duration

	// SuppressHostServices, when set, is consulted before starting a new
	// Start-Host-Services stage; returning true parks the FSM at that stage
	// without enqueueing work. service/mtce wires this to
	// fleet.Coordinator.InDOR so a fleet-wide return-from-power-cycle does
	// not stampede every host's host-services start at once (spec.md
	// §4.4.10 Dead-Office-Recovery window).
	SuppressHostServices func(hostname string) bool

	log *slog.Logger
}

// New creates an Engine bound to the live inventory and external clients.
func New(inv *inventory.Inventory, timers *timer.Service, clients Clients, log *slog.Logger) *Engine {
	return &Engine{
		hosts:   make(map[string]*HostContext),
		inv:     inv,
		timers:  timers,
		clients: clients,
		bmc:     make(map[string]*client.BMCWorker),
		log:     log,
	}
}

// RegisterBMCWorker attaches a BMC worker for hostname, used by the
// Reset/Power/Powercycle drivers to send and reap BMC commands.
func (e *Engine) RegisterBMCWorker(hostname string, w *client.BMCWorker) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bmc[hostname] = w
}

// contextFor returns (creating if necessary) the HostContext for hostname.
func (e *Engine) contextFor(hostname string) *HostContext {
	e.mu.Lock()
	defer e.mu.Unlock()

	hc, ok := e.hosts[hostname]
	if !ok {
		hc = NewHostContext(hostname)
		e.hosts[hostname] = hc
	}
	return hc
}

// Forget drops a host's driver state, called from the Delete FSM once a
// host record is removed from inventory.
func (e *Engine) Forget(hostname string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.hosts, hostname)
}

// PendingWork exposes hostname's undispatched work queue entries so
// service/mtce's message dispatcher can send them out over the wire without
// reaching into engine-private bookkeeping.
func (e *Engine) PendingWork(hostname string) []queue.Entry {
	return e.contextFor(hostname).Queue.PendingWork()
}

// MarkDispatched records that hostname's work entry with the given sequence
// has been sent, so the dispatcher does not resend it every tick.
func (e *Engine) MarkDispatched(hostname string, sequence uint64) {
	e.contextFor(hostname).Queue.MarkDispatched(sequence)
}

// CompleteWork moves hostname's work entry with the given sequence to its
// done queue, called once the I/O layer receives a command response.
func (e *Engine) CompleteWork(hostname string, sequence uint64, status queue.Status, statusString string) {
	e.contextFor(hostname).Queue.Complete(sequence, status, statusString)
}

// Tick advances every managed host's active action FSM by one step. It
// never waits on a stage: each driver's Step only acts on what is already
// ready in its queue or past its stage deadline. External-client calls
// made inside a step are synchronous.
func (e *Engine) Tick(ctx context.Context) {
	for _, h := range e.inv.All() {
		hc := e.contextFor(h.Hostname)
		if err := e.step(ctx, h, hc); err != nil {
			e.log.Error("fsm step failed", "hostname", h.Hostname, "action", h.Action, "error", err)
		}
	}
}

func (e *Engine) step(ctx context.Context, h *inventory.Host, hc *HostContext) error {
	switch h.Action {
	case inventory.ActionNone:
		return e.stepAudits(ctx, h, hc)
	case inventory.ActionUnlock, inventory.ActionEnable:
		return e.stepEnable(ctx, h, hc)
	case inventory.ActionLock, inventory.ActionForceLock:
		return e.stepDisable(ctx, h, hc)
	case inventory.ActionReboot, inventory.ActionReset:
		return e.stepPower(ctx, h, hc, "reset")
	case inventory.ActionPowerOn:
		return e.stepPower(ctx, h, hc, "power-on")
	case inventory.ActionPowerOff:
		return e.stepPower(ctx, h, hc, "power-off")
	case inventory.ActionReinstall:
		return e.stepReinstall(ctx, h, hc)
	case inventory.ActionSwact:
		return e.stepSwact(ctx, h, hc)
	case inventory.ActionEnableSubf:
		return e.stepSubfunctionEnable(ctx, h, hc)
	case inventory.ActionAdd:
		return e.stepAdd(ctx, h, hc)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownAction, h.Action)
	}
}
