// SPDX-License-Identifier: BSD-3-Clause

package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/u-mtc/u-mtc/service/client"
)

func TestInventoryClientPushState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PATCH", r.Method)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := client.NewInventoryClient(srv.URL, time.Second, time.Second, 2)
	err := c.PushState(context.Background(), "compute-0", client.HostStateUpdate{Avail: "available"})
	require.NoError(t, err)
}

func TestHAManagerSimplexSkipsCalls(t *testing.T) {
	c := client.NewHAManagerClient("http://unused", true, 1)

	_, err := c.Query(context.Background(), "controller-0")
	assert.ErrorIs(t, err, client.ErrSimplexUnsupported)

	err = c.Swact(context.Background(), "controller-0")
	assert.ErrorIs(t, err, client.ErrSimplexUnsupported)
}

func TestHTTPClientRetriesOnServerError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	hc := client.NewHTTPClient(time.Second)
	req := &client.Request{Method: "GET", URL: srv.URL, Retries: 3}
	require.NoError(t, hc.Do(context.Background(), req))
	assert.Equal(t, 3, attempts)
	assert.Equal(t, http.StatusOK, req.Status)
}

func TestAlarmClientRaiseAndClear(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := client.NewAlarmClient(srv.URL)
	require.NoError(t, c.Raise(context.Background(), client.AlarmEnable, "controller-0", client.SeverityCritical))
	require.NoError(t, c.Clear(context.Background(), client.AlarmEnable, "controller-0"))
	assert.Len(t, seen, 2)
}

func TestAlarmClientUnknownID(t *testing.T) {
	c := client.NewAlarmClient("http://unused")
	err := c.Raise(context.Background(), client.AlarmID("bogus"), "host", client.SeverityMajor)
	assert.ErrorIs(t, err, client.ErrUnknownAlarmID)
}

func TestBMCWorkerSendRecv(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := client.NewBMCWorker("bmc-0", func(ctx context.Context, cmd client.BMCCommand) client.BMCResult {
		return client.BMCResult{Command: cmd.Command, Status: client.BMCPass}
	})
	go w.Run(ctx)

	require.NoError(t, w.Send(ctx, client.BMCCommand{Command: "power-on"}))
	res, err := w.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, client.BMCPass, res.Status)
}
