// SPDX-License-Identifier: BSD-3-Clause

package client

import (
	"encoding/json"
	"fmt"
	"net"
)

// DaemonAddrs holds the downstream collaborator daemons' UDP control socket
// addresses (spec.md §4.6): heartbeat, hwmon, guest, and log shipper each
// listen for idempotent ADD_HOST/DEL_HOST/START_HOST/STOP_HOST/ACTIVE_CTRL
// commands. An empty address leaves that daemon unaddressed; Notify skips it.
type DaemonAddrs struct {
	Heartbeat  string
	Hwmon      string
	Guest      string
	LogShipper string
}

// daemonCommand is the wire shape one idempotent command takes over a
// daemon's UDP control socket.
type daemonCommand struct {
	Event    string `json:"event"`
	Hostname string `json:"hostname"`
}

// DaemonClient fires idempotent host-lifecycle commands at the downstream
// collaborator daemons over UDP, replacing the source's per-daemon control
// socket calls with one fire-and-forget sender (spec.md §2 C5, §4.6).
type DaemonClient struct {
	addrs DaemonAddrs
	conn  *net.UDPConn
}

// NewDaemonClient opens the UDP socket used to fire datagrams at every
// configured daemon address.
func NewDaemonClient(addrs DaemonAddrs) (*DaemonClient, error) {
	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return nil, fmt.Errorf("open daemon control socket: %w", err)
	}
	return &DaemonClient{addrs: addrs, conn: conn}, nil
}

// Close releases the underlying UDP socket.
func (c *DaemonClient) Close() error {
	return c.conn.Close()
}

func (c *DaemonClient) send(addr, event, hostname string) error {
	if addr == "" {
		return nil
	}
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	data, err := json.Marshal(daemonCommand{Event: event, Hostname: hostname})
	if err != nil {
		return err
	}
	_, err = c.conn.WriteToUDP(data, raddr)
	return err
}

// Notify fires event at hostname against every configured daemon address.
// Failures are per-daemon and independent: one unreachable daemon does not
// stop the command from reaching the others.
func (c *DaemonClient) Notify(event, hostname string) {
	_ = c.send(c.addrs.Heartbeat, event, hostname)
	_ = c.send(c.addrs.Hwmon, event, hostname)
	_ = c.send(c.addrs.Guest, event, hostname)
	_ = c.send(c.addrs.LogShipper, event, hostname)
}

// GuestHeartbeatAck is the guest monitor's enable/disable acknowledgement
// surface (mtce-common's guestServer.cpp): an idempotent ADD_HOST/DEL_HOST
// aimed solely at the guest daemon, issued on Enable/Disable independently
// of the Add/Delete FSMs' own host-lifecycle notifications.
func (c *DaemonClient) GuestHeartbeatAck(hostname string, enabled bool) error {
	event := "DEL_HOST"
	if enabled {
		event = "ADD_HOST"
	}
	return c.send(c.addrs.Guest, event, hostname)
}
