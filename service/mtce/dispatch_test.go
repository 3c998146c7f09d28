// SPDX-License-Identifier: BSD-3-Clause

package mtce

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/u-mtc/u-mtc/service/fsm"
	"github.com/u-mtc/u-mtc/service/inventory"
	"github.com/u-mtc/u-mtc/service/ioloop"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func TestDispatcherRoutesMtcAliveToBothCallbacks(t *testing.T) {
	inv := inventory.New(nil)
	engine := fsm.New(inv, nil, fsm.Clients{}, newTestLogger())

	var noted string
	disp := newDispatcher(engine, func(hostname string) { noted = hostname }, nil, newTestLogger())

	data, err := ioloop.Encode(ioloop.CmdMtcAlive, "compute-0", nil)
	require.NoError(t, err)
	msg, err := ioloop.Decode(data)
	require.NoError(t, err)

	disp.onMessage(context.Background(), "management", ioloop.Received{
		Message: msg,
		Addr:    &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 4000},
	})

	assert.Equal(t, "compute-0", noted)
}

func TestDispatcherCompletesWorkOnCommandResponse(t *testing.T) {
	inv := inventory.New(nil)
	engine := fsm.New(inv, nil, fsm.Clients{}, newTestLogger())
	engine.HeartbeatSoakDuration = time.Millisecond

	require.NoError(t, inv.Add(&inventory.Host{
		Hostname:  "compute-1",
		UUID:      "compute-1-uuid",
		NodeTypes: []inventory.NodeType{inventory.NodeWorker},
		Admin:     inventory.AdminUnlocked,
		Oper:      inventory.OperDisabled,
		Avail:     inventory.AvailOffline,
		Action:    inventory.ActionEnable,
	}))

	ctx := context.Background()
	for i := 0; i < fsm.MtcAlivePurgeTicks+6; i++ {
		engine.Tick(ctx)
	}

	pending := engine.PendingWork("compute-1")
	require.Len(t, pending, 1)
	assert.Equal(t, "goenable", pending[0].Command)

	disp := newDispatcher(engine, nil, nil, newTestLogger())
	frame, err := json.Marshal(commandFrame{Sequence: pending[0].Sequence, Command: pending[0].Command, StatusString: "pass"})
	require.NoError(t, err)
	disp.onCommandResponse("compute-1", frame)

	assert.Empty(t, engine.PendingWork("compute-1"))
}
