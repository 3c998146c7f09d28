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

	"github.com/u-mtc/u-mtc/service/client"
	"github.com/u-mtc/u-mtc/service/fsm"
	"github.com/u-mtc/u-mtc/service/inventory"
)

// TestSwactCompleteNotifiesDownstreamActiveCtrl covers the ACTIVE_CTRL leg
// of the downstream-daemon wiring (spec.md §4.6): the outgoing controller
// must tell the collaborator daemons activity moved once Swact completes.
func TestSwactCompleteNotifiesDownstreamActiveCtrl(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	inv := inventory.New(nil)
	clients := fsm.Clients{HAManager: client.NewHAManagerClient(srv.URL, false, 0)}
	e := fsm.New(inv, nil, clients, slog.New(slog.NewTextHandler(os.Stderr, nil)))

	var gotEvent fsm.DownstreamEvent
	var gotHost string
	e.SetDownstreamNotifier(func(_ context.Context, event fsm.DownstreamEvent, hostname string) {
		gotEvent = event
		gotHost = hostname
	})

	h := addController(t, inv, "controller-0")
	h.Action = inventory.ActionSwact

	ctx := context.Background()
	for i := 0; i < 10 && h.Action != inventory.ActionNone; i++ {
		e.Tick(ctx)
	}

	assert.Equal(t, inventory.ActionNone, h.Action)
	assert.Equal(t, fsm.DownstreamActiveCtrl, gotEvent)
	assert.Equal(t, "controller-0", gotHost)
}
