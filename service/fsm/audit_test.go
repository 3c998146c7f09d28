// SPDX-License-Identifier: BSD-3-Clause

package fsm_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/u-mtc/u-mtc/service/client"
	"github.com/u-mtc/u-mtc/service/fsm"
	"github.com/u-mtc/u-mtc/service/inventory"
)

// TestAuditsClearDegradeOnEnabledHost exercises comment 1: the always-on
// pass must reach stepDegradeAudit for an unlocked, enabled host even
// though nothing ever set h.Action to ActionAdd.
func TestAuditsClearDegradeOnEnabledHost(t *testing.T) {
	e, inv := newEngine(t)
	h := addHost(t, inv, "compute-5", inventory.ActionNone)
	h.Oper = inventory.OperEnabled
	h.Avail = inventory.AvailDegraded
	h.DegradeMask = 0

	e.Tick(context.Background())

	assert.Equal(t, inventory.AvailAvailable, h.Avail)
}

// TestOnlineAuditDeclaresHostOnlineAfterHits exercises §4.4.9's Online
// handler: a locked, powered-off host needs OnlineHitsRequired consecutive
// mtcAlive hits before the audit declares it online.
func TestOnlineAuditDeclaresHostOnlineAfterHits(t *testing.T) {
	e, inv := newEngine(t)
	h := addHost(t, inv, "compute-6", inventory.ActionNone)
	h.Admin = inventory.AdminLocked
	h.Oper = inventory.OperDisabled
	h.Avail = inventory.AvailPoweredOff

	ctx := context.Background()
	for i := 0; i < fsm.OnlineHitsRequired; i++ {
		e.NoteMtcAlive(ctx, "compute-6")
	}
	e.Tick(ctx)

	assert.Equal(t, inventory.AvailOnline, h.Avail)
}

// TestOutOfServiceTestAssertsOfflineAfterThreshold exercises the locked-host
// counterpart of the Offline audit.
func TestOutOfServiceTestAssertsOfflineAfterThreshold(t *testing.T) {
	e, inv := newEngine(t)
	h := addHost(t, inv, "compute-7", inventory.ActionNone)
	h.Admin = inventory.AdminLocked
	h.Oper = inventory.OperDisabled
	h.Avail = inventory.AvailOnline

	ctx := context.Background()
	for i := 0; i < fsm.OfflineThreshold; i++ {
		e.Tick(ctx)
	}

	assert.Equal(t, inventory.AvailOffline, h.Avail)
	assert.Equal(t, inventory.OperDisabled, h.Oper)
}

// TestUptimeAuditNoopBeforeEnable checks that stepUptimeAudit does not
// panic for a host that has never reached Enable's terminal state.
func TestUptimeAuditNoopBeforeEnable(t *testing.T) {
	e, inv := newEngine(t)
	addHost(t, inv, "compute-8", inventory.ActionNone)

	// No EnabledAt stamped yet: the audit must be a no-op, not a panic.
	assert.NotPanics(t, func() { e.Tick(context.Background()) })
}

// TestRunConfigAuditPushesCorrectedSignature exercises comment 2's
// credential-change path end to end against a fake inventory collaborator.
func TestRunConfigAuditPushesCorrectedSignature(t *testing.T) {
	var gotModify bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte("stale-signature"))
		case http.MethodPatch:
			gotModify = true
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	inv := inventory.New(nil)
	clients := fsm.Clients{Inventory: client.NewInventoryClient(srv.URL, time.Second, time.Second, 0)}
	e := fsm.New(inv, nil, clients, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	addHost(t, inv, "compute-9", inventory.ActionNone)

	require.NoError(t, e.RunConfigAudit(context.Background(), "compute-9", []byte("root:$6$freshhash:19000:0:99999:7:::")))
	assert.True(t, gotModify)
}
