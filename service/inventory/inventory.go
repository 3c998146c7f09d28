// SPDX-License-Identifier: BSD-3-Clause

// Package inventory implements the node inventory (spec.md §4.3, C3): the
// per-host record set keyed by hostname, with secondary lookups by UUID and
// by IP, and the mutators that publish every state transition onto the
// in-process bus for the fleet coordinator and the reporting fabric.
package inventory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/u-mtc/u-mtc/pkg/ipc"
)

// AdminState, OperState, and AvailStatus are the three legs of a host's
// state triplet (spec.md §3).
type AdminState string

const (
	AdminLocked   AdminState = "locked"
	AdminUnlocked AdminState = "unlocked"
)

type OperState string

const (
	OperEnabled  OperState = "enabled"
	OperDisabled OperState = "disabled"
)

type AvailStatus string

const (
	AvailAvailable   AvailStatus = "available"
	AvailDegraded    AvailStatus = "degraded"
	AvailIntest      AvailStatus = "intest"
	AvailFailed      AvailStatus = "failed"
	AvailOffline     AvailStatus = "offline"
	AvailOnline      AvailStatus = "online"
	AvailOffDuty     AvailStatus = "offduty"
	AvailPoweredOff  AvailStatus = "powered-off"
	AvailNotInstalled AvailStatus = "not-installed"
)

// AdminAction is the action currently driving a host's FSM engine.
type AdminAction string

const (
	ActionNone       AdminAction = "none"
	ActionUnlock     AdminAction = "unlock"
	ActionLock       AdminAction = "lock"
	ActionForceLock  AdminAction = "force-lock"
	ActionReboot     AdminAction = "reboot"
	ActionReset      AdminAction = "reset"
	ActionReinstall  AdminAction = "reinstall"
	ActionPowerOn    AdminAction = "power-on"
	ActionPowerOff   AdminAction = "power-off"
	ActionSwact      AdminAction = "swact"
	ActionEnable     AdminAction = "enable"
	ActionEnableSubf AdminAction = "enable-subf"
	ActionAdd        AdminAction = "add"
)

// NodeType enumerates the subfunction combinations a host can carry.
type NodeType string

const (
	NodeController NodeType = "controller"
	NodeWorker     NodeType = "worker"
	NodeStorage    NodeType = "storage"
)

// Host is one managed node's full inventory record.
type Host struct {
	Hostname string
	UUID     string

	MgmtIP    string
	ClusterIP string
	MAC       string
	NodeTypes []NodeType

	BMCType          string
	BMCIP            string
	BMCProvisioned   bool

	Admin AdminState
	Oper  OperState
	Avail AvailStatus

	// Uptime is refreshed by the Uptime audit (spec.md §4.4.9).
	Uptime time.Duration

	HasSubfunction bool
	OperSubf       OperState
	AvailSubf      AvailStatus

	Action AdminAction

	Flags       uint32
	DegradeMask uint32

	Alarms map[string]string
}

// HasNodeType reports whether h carries the given subfunction.
func (h *Host) HasNodeType(t NodeType) bool {
	for _, nt := range h.NodeTypes {
		if nt == t {
			return true
		}
	}
	return false
}

// Inventory is the live set of Host records, keyed by hostname with
// secondary indices by UUID and management IP.
type Inventory struct {
	mu       sync.RWMutex
	byName   map[string]*Host
	byUUID   map[string]*Host
	byMgmtIP map[string]*Host

	nc *nats.Conn
}

// New creates an empty Inventory. nc may be nil, in which case mutators
// skip publication (used by tests that exercise state transitions alone).
func New(nc *nats.Conn) *Inventory {
	return &Inventory{
		byName:   make(map[string]*Host),
		byUUID:   make(map[string]*Host),
		byMgmtIP: make(map[string]*Host),
		nc:       nc,
	}
}

// Add ingests a host record (spec.md §4.4.6 Add FSM ingestion step).
func (inv *Inventory) Add(h *Host) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if _, exists := inv.byName[h.Hostname]; exists {
		return fmt.Errorf("%w: %s", ErrHostAlreadyExists, h.Hostname)
	}

	if h.Alarms == nil {
		h.Alarms = make(map[string]string)
	}

	inv.byName[h.Hostname] = h
	if h.UUID != "" {
		inv.byUUID[h.UUID] = h
	}
	if h.MgmtIP != "" {
		inv.byMgmtIP[h.MgmtIP] = h
	}

	return nil
}

// Delete removes a host record (spec.md §4.4.6 Delete FSM).
func (inv *Inventory) Delete(hostname string) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	h, ok := inv.byName[hostname]
	if !ok {
		return fmt.Errorf("%w: %s", ErrHostNotFound, hostname)
	}

	delete(inv.byName, hostname)
	delete(inv.byUUID, h.UUID)
	delete(inv.byMgmtIP, h.MgmtIP)
	return nil
}

// Get looks up a host by hostname.
func (inv *Inventory) Get(hostname string) (*Host, error) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	h, ok := inv.byName[hostname]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHostNotFound, hostname)
	}
	return h, nil
}

// GetByUUID looks up a host by UUID.
func (inv *Inventory) GetByUUID(uuid string) (*Host, error) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	h, ok := inv.byUUID[uuid]
	if !ok {
		return nil, fmt.Errorf("%w: uuid %s", ErrHostNotFound, uuid)
	}
	return h, nil
}

// GetByMgmtIP looks up a host by management IP.
func (inv *Inventory) GetByMgmtIP(ip string) (*Host, error) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	h, ok := inv.byMgmtIP[ip]
	if !ok {
		return nil, fmt.Errorf("%w: ip %s", ErrHostNotFound, ip)
	}
	return h, nil
}

// All returns every managed host, for callers that must iterate the full
// set (the FSM dispatcher, the always-on audits, print_node_info).
func (inv *Inventory) All() []*Host {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	hosts := make([]*Host, 0, len(inv.byName))
	for _, h := range inv.byName {
		hosts = append(hosts, h)
	}
	return hosts
}

// AllStateChangeEvent is published on ipc.SubjectHostAllStateChange.
type AllStateChangeEvent struct {
	Hostname string      `json:"hostname"`
	Admin    AdminState  `json:"admin"`
	Oper     OperState   `json:"oper"`
	Avail    AvailStatus `json:"avail"`
}

// AllStateChange sets the full state triplet and publishes the transition.
// It is idempotent: setting a host to its current triplet still publishes,
// matching the source's "every mutator logs the transition" contract.
func (inv *Inventory) AllStateChange(ctx context.Context, hostname string, admin AdminState, oper OperState, avail AvailStatus) error {
	h, err := inv.Get(hostname)
	if err != nil {
		return err
	}

	inv.mu.Lock()
	h.Admin, h.Oper, h.Avail = admin, oper, avail
	inv.mu.Unlock()

	return inv.publish(ctx, ipc.SubjectHostAllStateChange, AllStateChangeEvent{
		Hostname: hostname, Admin: admin, Oper: oper, Avail: avail,
	})
}

// SubfStateChangeEvent is published on ipc.SubjectHostSubfStateChange.
type SubfStateChangeEvent struct {
	Hostname  string      `json:"hostname"`
	OperSubf  OperState   `json:"oper_subf"`
	AvailSubf AvailStatus `json:"avail_subf"`
}

// SubfStateChange sets the subfunction state pair and publishes it.
func (inv *Inventory) SubfStateChange(ctx context.Context, hostname string, oper OperState, avail AvailStatus) error {
	h, err := inv.Get(hostname)
	if err != nil {
		return err
	}

	inv.mu.Lock()
	h.OperSubf, h.AvailSubf = oper, avail
	inv.mu.Unlock()

	return inv.publish(ctx, ipc.SubjectHostSubfStateChange, SubfStateChangeEvent{
		Hostname: hostname, OperSubf: oper, AvailSubf: avail,
	})
}

// AvailStatusChangeEvent is published on ipc.SubjectHostAvailStatusChange.
type AvailStatusChangeEvent struct {
	Hostname string      `json:"hostname"`
	Avail    AvailStatus `json:"avail"`
}

// AvailStatusChange sets only the availability leg of the triplet.
func (inv *Inventory) AvailStatusChange(ctx context.Context, hostname string, avail AvailStatus) error {
	h, err := inv.Get(hostname)
	if err != nil {
		return err
	}

	inv.mu.Lock()
	h.Avail = avail
	inv.mu.Unlock()

	return inv.publish(ctx, ipc.SubjectHostAvailStatusChange, AvailStatusChangeEvent{
		Hostname: hostname, Avail: avail,
	})
}

// UptimeChangeEvent is published on ipc.SubjectHostUptimeChange.
type UptimeChangeEvent struct {
	Hostname string        `json:"hostname"`
	Uptime   time.Duration `json:"uptime"`
}

// UptimeChange sets the host's recorded uptime and publishes the refresh.
func (inv *Inventory) UptimeChange(ctx context.Context, hostname string, uptime time.Duration) error {
	h, err := inv.Get(hostname)
	if err != nil {
		return err
	}

	inv.mu.Lock()
	h.Uptime = uptime
	inv.mu.Unlock()

	return inv.publish(ctx, ipc.SubjectHostUptimeChange, UptimeChangeEvent{
		Hostname: hostname, Uptime: uptime,
	})
}

// AdminActionChangeEvent is published on ipc.SubjectHostAdminActionChange.
type AdminActionChangeEvent struct {
	Hostname string      `json:"hostname"`
	Action   AdminAction `json:"action"`
}

// AdminActionChange sets the action driving the FSM engine for this host.
func (inv *Inventory) AdminActionChange(ctx context.Context, hostname string, action AdminAction) error {
	h, err := inv.Get(hostname)
	if err != nil {
		return err
	}

	inv.mu.Lock()
	h.Action = action
	inv.mu.Unlock()

	return inv.publish(ctx, ipc.SubjectHostAdminActionChange, AdminActionChangeEvent{
		Hostname: hostname, Action: action,
	})
}

func (inv *Inventory) publish(ctx context.Context, subject string, event any) error {
	if inv.nc == nil {
		return nil
	}
	return ipc.PublishJSON(ctx, inv.nc, subject, event)
}

// PrintNodeInfo renders the full inventory for diagnostics.
func (inv *Inventory) PrintNodeInfo() string {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	out := fmt.Sprintf("inventory: %d hosts\n", len(inv.byName))
	for _, h := range inv.byName {
		out += fmt.Sprintf("  %-20s uuid=%-36s (%s, %s, %s) action=%s degrade=0x%x\n",
			h.Hostname, h.UUID, h.Admin, h.Oper, h.Avail, h.Action, h.DegradeMask)
	}
	return out
}
