// SPDX-License-Identifier: BSD-3-Clause

package fleet_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/u-mtc/u-mtc/service/fleet"
	"github.com/u-mtc/u-mtc/service/inventory"
)

func newCoordinator(t *testing.T, opts ...fleet.Option) (*fleet.Coordinator, *inventory.Inventory) {
	t.Helper()
	inv := inventory.New(nil)
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	c := fleet.New(inv, nil, "controller-0", log, opts...)
	return c, inv
}

func enabledWorker(name string) *inventory.Host {
	return &inventory.Host{
		Hostname:  name,
		UUID:      name + "-uuid",
		NodeTypes: []inventory.NodeType{inventory.NodeWorker},
		Admin:     inventory.AdminUnlocked,
		Oper:      inventory.OperEnabled,
		Avail:     inventory.AvailAvailable,
	}
}

func TestMNFAEntersOnThresholdAndExitsOnRecovery(t *testing.T) {
	c, inv := newCoordinator(t,
		fleet.WithMNFAThreshold(2),
		fleet.WithHeartbeatMissLimit(2),
		fleet.WithMNFATimeout(time.Hour),
	)
	require.NoError(t, inv.Add(enabledWorker("compute-0")))
	require.NoError(t, inv.Add(enabledWorker("compute-1")))

	ctx := context.Background()
	c.Tick(ctx)
	c.Tick(ctx)

	assert.True(t, c.InMNFA("compute-0"))
	assert.True(t, c.InMNFA("compute-1"))

	c.NoteHeartbeat("compute-0")
	c.NoteHeartbeat("compute-1")
	c.Tick(ctx)

	assert.False(t, c.InMNFA("compute-0"))
	assert.False(t, c.InMNFA("compute-1"))
}

func TestMNFADoesNotEnterBelowThreshold(t *testing.T) {
	c, inv := newCoordinator(t, fleet.WithMNFAThreshold(3), fleet.WithHeartbeatMissLimit(1))
	require.NoError(t, inv.Add(enabledWorker("compute-0")))

	ctx := context.Background()
	c.Tick(ctx)
	c.Tick(ctx)

	assert.False(t, c.InMNFA("compute-0"))
}

func TestDORActivatesUnderUptimeCeiling(t *testing.T) {
	c, _ := newCoordinator(t, fleet.WithDORTimeoutScaling(time.Minute, time.Second))

	c.ActivateDOR(context.Background(), 5*time.Minute, 10)

	assert.True(t, c.InDOR())
}

func TestDORDoesNotActivatePastUptimeCeiling(t *testing.T) {
	c, _ := newCoordinator(t, fleet.WithDORActivationUptime(time.Minute))

	c.ActivateDOR(context.Background(), time.Hour, 10)

	assert.False(t, c.InDOR())
}

func TestInactiveControllerPeerExcludesSelf(t *testing.T) {
	c, inv := newCoordinator(t)
	require.NoError(t, inv.Add(&inventory.Host{
		Hostname:  "controller-0",
		NodeTypes: []inventory.NodeType{inventory.NodeController},
	}))
	require.NoError(t, inv.Add(&inventory.Host{
		Hostname:  "controller-1",
		NodeTypes: []inventory.NodeType{inventory.NodeController},
	}))

	peer, ok := c.InactiveControllerPeer()
	require.True(t, ok)
	assert.Equal(t, "controller-1", peer.Hostname)
}

func TestInactiveControllerPeerNoneOnSimplex(t *testing.T) {
	c, inv := newCoordinator(t)
	require.NoError(t, inv.Add(&inventory.Host{
		Hostname:  "controller-0",
		NodeTypes: []inventory.NodeType{inventory.NodeController},
	}))

	_, ok := c.InactiveControllerPeer()
	assert.False(t, ok)
}
