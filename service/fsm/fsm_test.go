// SPDX-License-Identifier: BSD-3-Clause

package fsm_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/u-mtc/u-mtc/service/fsm"
	"github.com/u-mtc/u-mtc/service/inventory"
)

func newEngine(t *testing.T) (*fsm.Engine, *inventory.Inventory) {
	t.Helper()
	inv := inventory.New(nil)
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	e := fsm.New(inv, nil, fsm.Clients{}, log)
	e.HeartbeatSoakDuration = time.Millisecond
	return e, inv
}

func addHost(t *testing.T, inv *inventory.Inventory, name string, action inventory.AdminAction) *inventory.Host {
	t.Helper()
	h := &inventory.Host{
		Hostname:  name,
		UUID:      name + "-uuid",
		NodeTypes: []inventory.NodeType{inventory.NodeWorker},
		Admin:     inventory.AdminUnlocked,
		Oper:      inventory.OperDisabled,
		Avail:     inventory.AvailOffline,
		Action:    action,
	}
	require.NoError(t, inv.Add(h))
	return h
}

// TestEnableFSMProgressesThroughDiscovery exercises the Enable driver up to
// the first stage that needs a collaborator response (goenable): the
// purge, discover, and config_check transitions are all collaborator-free,
// so they must advance deterministically from Tick alone.
func TestEnableFSMProgressesThroughDiscovery(t *testing.T) {
	e, inv := newEngine(t)
	addHost(t, inv, "compute-0", inventory.ActionEnable)

	ctx := context.Background()
	for i := 0; i < fsm.MtcAlivePurgeTicks+3; i++ {
		e.Tick(ctx)
	}

	h, err := inv.Get("compute-0")
	require.NoError(t, err)
	assert.Equal(t, inventory.ActionEnable, h.Action)
}

func TestDisableFSMParksWaitingOnHostServices(t *testing.T) {
	e, inv := newEngine(t)
	h := addHost(t, inv, "compute-1", inventory.ActionLock)
	h.Oper = inventory.OperEnabled
	h.Avail = inventory.AvailAvailable

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		e.Tick(ctx)
	}

	// Without a collaborator completing stop_host_services, Disable parks
	// there rather than erroring or skipping ahead.
	assert.NotEqual(t, inventory.ActionNone, h.Action)
}

func TestDeleteRemovesHostAndClearsBookkeeping(t *testing.T) {
	e, inv := newEngine(t)
	addHost(t, inv, "compute-2", inventory.ActionNone)

	require.NoError(t, e.Delete(context.Background(), "compute-2"))

	_, err := inv.Get("compute-2")
	assert.ErrorIs(t, err, inventory.ErrHostNotFound)
}

func TestAddReconcilesDegradedMaskWithoutOverridingToAvailable(t *testing.T) {
	e, inv := newEngine(t)
	h := addHost(t, inv, "compute-3", inventory.ActionAdd)
	h.DegradeMask = 1
	h.Oper = inventory.OperEnabled
	h.Admin = inventory.AdminUnlocked

	e.Tick(context.Background())

	assert.Equal(t, inventory.AvailDegraded, h.Avail)
	assert.Equal(t, inventory.ActionNone, h.Action)
}

func TestAddClearsDegradeWhenMaskEmpty(t *testing.T) {
	e, inv := newEngine(t)
	h := addHost(t, inv, "compute-4", inventory.ActionAdd)
	h.Avail = inventory.AvailDegraded
	h.DegradeMask = 0

	e.Tick(context.Background())

	assert.Equal(t, inventory.AvailAvailable, h.Avail)
}
