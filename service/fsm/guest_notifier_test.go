// SPDX-License-Identifier: BSD-3-Clause

package fsm_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/u-mtc/u-mtc/service/fsm"
	"github.com/u-mtc/u-mtc/service/inventory"
	"github.com/u-mtc/u-mtc/service/queue"
)

// completeAllWork drains hostname's pending work queue with a pass result,
// standing in for the I/O layer's command-response round trip.
func completeAllWork(e *fsm.Engine, hostname string) {
	for _, entry := range e.PendingWork(hostname) {
		e.MarkDispatched(hostname, entry.Sequence)
		e.CompleteWork(hostname, entry.Sequence, queue.StatusPass, "")
	}
}

// TestEnableNotifiesGuestDaemonOnceEnabled covers comment 4's
// GuestHeartbeatAck surface: reaching "enabled" must fire the guest
// notifier with enabled=true.
func TestEnableNotifiesGuestDaemonOnceEnabled(t *testing.T) {
	e, inv := newEngine(t)
	h := addHost(t, inv, "compute-10", inventory.ActionEnable)

	var gotHost string
	var gotEnabled bool
	calls := 0
	e.SetGuestNotifier(func(hostname string, enabled bool) {
		calls++
		gotHost = hostname
		gotEnabled = enabled
	})

	ctx := context.Background()
	for i := 0; i < fsm.MtcAlivePurgeTicks+20 && h.Oper != inventory.OperEnabled; i++ {
		e.Tick(ctx)
		completeAllWork(e, "compute-10")
		time.Sleep(2 * time.Millisecond)
	}

	require.Equal(t, inventory.OperEnabled, h.Oper)
	require.Equal(t, 1, calls)
	assert.Equal(t, "compute-10", gotHost)
	assert.True(t, gotEnabled)
}

// TestDisableNotifiesGuestDaemonOnceDisabled mirrors the above for Lock.
func TestDisableNotifiesGuestDaemonOnceDisabled(t *testing.T) {
	e, inv := newEngine(t)
	h := addHost(t, inv, "compute-11", inventory.ActionLock)
	h.Oper = inventory.OperEnabled
	h.Avail = inventory.AvailAvailable

	var gotEnabled bool
	calls := 0
	e.SetGuestNotifier(func(_ string, enabled bool) {
		calls++
		gotEnabled = enabled
	})

	ctx := context.Background()
	for i := 0; i < 20 && h.Oper != inventory.OperDisabled; i++ {
		e.Tick(ctx)
		completeAllWork(e, "compute-11")
		time.Sleep(2 * time.Millisecond)
	}

	require.Equal(t, inventory.OperDisabled, h.Oper)
	require.Equal(t, 1, calls)
	assert.False(t, gotEnabled)
}
