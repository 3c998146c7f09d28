// SPDX-License-Identifier: BSD-3-Clause

package client_test

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/u-mtc/u-mtc/service/client"
)

func listenUDP(t *testing.T) (*net.UDPConn, string) {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, conn.LocalAddr().String()
}

func recvCommand(t *testing.T, conn *net.UDPConn) map[string]string {
	t.Helper()
	buf := make([]byte, 256)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := conn.ReadFromUDP(buf)
	require.NoError(t, err)

	var cmd map[string]string
	require.NoError(t, json.Unmarshal(buf[:n], &cmd))
	return cmd
}

func TestDaemonClientNotifyReachesConfiguredAddrs(t *testing.T) {
	guest, guestAddr := listenUDP(t)

	c, err := client.NewDaemonClient(client.DaemonAddrs{Guest: guestAddr})
	require.NoError(t, err)
	defer c.Close()

	c.Notify("ADD_HOST", "compute-0")

	cmd := recvCommand(t, guest)
	assert.Equal(t, "ADD_HOST", cmd["event"])
	assert.Equal(t, "compute-0", cmd["hostname"])
}

func TestDaemonClientNotifySkipsUnconfiguredAddrs(t *testing.T) {
	c, err := client.NewDaemonClient(client.DaemonAddrs{})
	require.NoError(t, err)
	defer c.Close()

	assert.NotPanics(t, func() { c.Notify("DEL_HOST", "compute-1") })
}

func TestGuestHeartbeatAckTogglesEvent(t *testing.T) {
	guest, guestAddr := listenUDP(t)

	c, err := client.NewDaemonClient(client.DaemonAddrs{Guest: guestAddr})
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.GuestHeartbeatAck("compute-2", true))
	cmd := recvCommand(t, guest)
	assert.Equal(t, "ADD_HOST", cmd["event"])

	require.NoError(t, c.GuestHeartbeatAck("compute-2", false))
	cmd = recvCommand(t, guest)
	assert.Equal(t, "DEL_HOST", cmd["event"])
}
