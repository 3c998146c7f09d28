// SPDX-License-Identifier: BSD-3-Clause

package fleet

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/u-mtc/u-mtc/pkg/ipc"
	"github.com/u-mtc/u-mtc/service/inventory"
)

// Coordinator is the fleet-level view the per-host FSM engine cannot see on
// its own: how many hosts are failing heartbeat at once, whether the
// startup Dead-Office-Recovery window is still open, and which controller
// is this process's inactive peer (spec.md §4.4.10, C7). It reads the same
// inventory service/fsm.Engine reads but keeps its own bookkeeping — the
// two packages never import each other; service/mtce wires their outputs
// together (Engine.SuppressHostServices, and the dispatcher's inbound
// liveness datagrams feeding both Engine.NoteMtcAlive and NoteHeartbeat).
type Coordinator struct {
	mu sync.Mutex

	inv      *inventory.Inventory
	nc       *nats.Conn
	thisHost string

	cfg    *config
	mnfa   *mnfaState
	dor    dorState
	misses map[string]int
	seen   map[string]bool

	log *slog.Logger
}

// New creates a Coordinator for thisHost (the controller hostname this
// process is running on). nc may be nil, in which case state transitions
// are tracked but never published (used by tests).
func New(inv *inventory.Inventory, nc *nats.Conn, thisHost string, log *slog.Logger, opts ...Option) *Coordinator {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt.apply(cfg)
	}
	return &Coordinator{
		inv:      inv,
		nc:       nc,
		thisHost: thisHost,
		cfg:      cfg,
		mnfa:     newMNFAState(),
		misses:   make(map[string]int),
		seen:     make(map[string]bool),
		log:      log,
	}
}

// NoteHeartbeat marks hostname as having reported a liveness datagram since
// the last Tick, so Tick resets its consecutive-miss counter instead of
// incrementing it. It is called alongside service/fsm.Engine.NoteMtcAlive
// whenever the message I/O layer delivers a datagram — the two
// notifications share a trigger but feed independent counters kept for
// independent purposes (see WithHeartbeatMissLimit).
func (c *Coordinator) NoteHeartbeat(hostname string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen[hostname] = true
}

// Tick advances the fleet-wide window state by one pass: every enabled
// host that reported a heartbeat since the last Tick has its miss counter
// reset, every other enabled host's counter is incremented, MNFA
// membership is reevaluated against the updated counts, and the DOR window
// is checked for expiry. Per spec.md §4.4 Ordering, this one pass sees
// every host before I/O is serviced again.
func (c *Coordinator) Tick(ctx context.Context) {
	c.mu.Lock()
	for _, h := range c.inv.All() {
		if h.Oper != inventory.OperEnabled {
			delete(c.misses, h.Hostname)
			continue
		}
		if c.seen[h.Hostname] {
			c.misses[h.Hostname] = 0
		} else {
			c.misses[h.Hostname]++
		}
	}
	c.seen = make(map[string]bool)

	misses := make(map[string]int, len(c.misses))
	for k, v := range c.misses {
		misses[k] = v
	}
	c.mu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.evaluateMNFA(ctx, misses)
	c.evaluateDOR(ctx)
}

// InactiveControllerPeer returns the other controller-typed host — the only
// host this process's fleet logic ever targets with failure or swact
// orchestration actions (spec.md §4.4.10 active/inactive controller
// tracking). ok is false on a simplex system or if no peer is provisioned.
func (c *Coordinator) InactiveControllerPeer() (h *inventory.Host, ok bool) {
	for _, host := range c.inv.All() {
		if host.Hostname == c.thisHost {
			continue
		}
		if host.HasNodeType(inventory.NodeController) {
			return host, true
		}
	}
	return nil, false
}

// RequestSwact publishes a fleet-level Swact orchestration request for
// hostname on ipc.SubjectFleetSwactRequest. The fleet coordinator itself
// never calls the HA manager directly. service/fsm's Enable driver does not
// go through this method: on an active-controller failure with a healthy
// peer it calls the HA manager's Swact itself.
func (c *Coordinator) RequestSwact(ctx context.Context, hostname string) {
	c.log.WarnContext(ctx, "requesting fleet swact", "hostname", hostname)
	c.publish(ctx, ipc.SubjectFleetSwactRequest, swactRequestEvent{Hostname: hostname})
}

type swactRequestEvent struct {
	Hostname string `json:"hostname"`
}

func (c *Coordinator) publish(ctx context.Context, subject string, event any) {
	if c.nc == nil {
		return
	}
	if err := ipc.PublishJSON(ctx, c.nc, subject, event); err != nil {
		c.log.ErrorContext(ctx, "failed to publish fleet event", "subject", subject, "error", err)
	}
}
