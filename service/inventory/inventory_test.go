// SPDX-License-Identifier: BSD-3-Clause

package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/u-mtc/u-mtc/service/inventory"
)

func newTestHost(name string) *inventory.Host {
	return &inventory.Host{
		Hostname:  name,
		UUID:      name + "-uuid",
		MgmtIP:    "10.0.0.1",
		NodeTypes: []inventory.NodeType{inventory.NodeWorker},
		Admin:     inventory.AdminLocked,
		Oper:      inventory.OperDisabled,
		Avail:     inventory.AvailOffline,
	}
}

func TestAddGetDelete(t *testing.T) {
	inv := inventory.New(nil)
	h := newTestHost("compute-0")

	require.NoError(t, inv.Add(h))

	got, err := inv.Get("compute-0")
	require.NoError(t, err)
	assert.Equal(t, h, got)

	byUUID, err := inv.GetByUUID("compute-0-uuid")
	require.NoError(t, err)
	assert.Equal(t, h, byUUID)

	require.NoError(t, inv.Delete("compute-0"))
	_, err = inv.Get("compute-0")
	assert.ErrorIs(t, err, inventory.ErrHostNotFound)
}

func TestAddDuplicateRejected(t *testing.T) {
	inv := inventory.New(nil)
	require.NoError(t, inv.Add(newTestHost("compute-0")))
	err := inv.Add(newTestHost("compute-0"))
	assert.ErrorIs(t, err, inventory.ErrHostAlreadyExists)
}

func TestAllStateChangeUpdatesTriplet(t *testing.T) {
	inv := inventory.New(nil)
	require.NoError(t, inv.Add(newTestHost("compute-0")))

	ctx := context.Background()
	require.NoError(t, inv.AllStateChange(ctx, "compute-0", inventory.AdminUnlocked, inventory.OperEnabled, inventory.AvailAvailable))

	h, err := inv.Get("compute-0")
	require.NoError(t, err)
	assert.Equal(t, inventory.AdminUnlocked, h.Admin)
	assert.Equal(t, inventory.OperEnabled, h.Oper)
	assert.Equal(t, inventory.AvailAvailable, h.Avail)
}

func TestAvailStatusChangeUnknownHost(t *testing.T) {
	inv := inventory.New(nil)
	err := inv.AvailStatusChange(context.Background(), "missing", inventory.AvailFailed)
	assert.ErrorIs(t, err, inventory.ErrHostNotFound)
}
