// SPDX-License-Identifier: BSD-3-Clause

package fsm_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/u-mtc/u-mtc/service/client"
	"github.com/u-mtc/u-mtc/service/fsm"
	"github.com/u-mtc/u-mtc/service/inventory"
)

func addController(t *testing.T, inv *inventory.Inventory, name string) *inventory.Host {
	t.Helper()
	h := &inventory.Host{
		Hostname:  name,
		UUID:      name + "-uuid",
		NodeTypes: []inventory.NodeType{inventory.NodeController},
		Admin:     inventory.AdminUnlocked,
		Oper:      inventory.OperDisabled,
		Avail:     inventory.AvailFailed,
		Action:    inventory.ActionNone,
	}
	require.NoError(t, inv.Add(h))
	return h
}

// TestSoleControllerFailureDegradesInsteadOfRetrying covers comment 5's
// scenario S3: with no healthy peer controller, a failing controller must
// stay degraded rather than loop on retry/alarm.
func TestSoleControllerFailureDegradesInsteadOfRetrying(t *testing.T) {
	e, inv := newEngine(t)
	ctrl := addController(t, inv, "controller-0")
	ctrl.Action = inventory.ActionEnable
	ctrl.DegradeMask = 1 // forces config_check -> failed without a collaborator round-trip

	ctx := context.Background()
	for i := 0; i < fsm.MtcAlivePurgeTicks+50 && ctrl.Avail != inventory.AvailDegraded; i++ {
		e.Tick(ctx)
	}

	assert.Equal(t, inventory.AvailDegraded, ctrl.Avail)
}

// TestFailingControllerRequestsSwactWhenPeerHealthy covers the other half of
// comment 5: a healthy unlocked-enabled peer controller must receive a
// Swact request instead of the sole-controller degrade path.
func TestFailingControllerRequestsSwactWhenPeerHealthy(t *testing.T) {
	swacted := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			select {
			case swacted <- r.URL.Path:
			default:
			}
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	inv := inventory.New(nil)
	clients := fsm.Clients{HAManager: client.NewHAManagerClient(srv.URL, false, 0)}
	e := fsm.New(inv, nil, clients, slog.New(slog.NewTextHandler(os.Stderr, nil)))

	peer := addController(t, inv, "controller-1")
	peer.Admin = inventory.AdminUnlocked
	peer.Oper = inventory.OperEnabled
	peer.Avail = inventory.AvailAvailable

	ctrl := addController(t, inv, "controller-0")
	ctrl.Action = inventory.ActionEnable
	ctrl.DegradeMask = 1 // forces config_check -> failed without a collaborator round-trip

	ctx := context.Background()
	timedOut := true
	for i := 0; i < fsm.MtcAlivePurgeTicks+50; i++ {
		e.Tick(ctx)
		select {
		case <-swacted:
			timedOut = false
		default:
		}
		if !timedOut {
			break
		}
	}

	assert.False(t, timedOut, "expected a Swact request against the HA manager")
	assert.NotEqual(t, inventory.AvailDegraded, ctrl.Avail)
}
