// SPDX-License-Identifier: BSD-3-Clause

package ioloop

import (
	"errors"
	"log/slog"
	"net"
	"time"
)

// MaxRxMsgBatch bounds how many datagrams one Drain call reaps from a single
// socket per wake-up, so one noisy network never starves the others.
const MaxRxMsgBatch = 32

// Received pairs a decoded Message with the address it arrived from.
type Received struct {
	Message *Message
	Addr    *net.UDPAddr
}

// Receiver is a non-blocking UDP socket bound to one network (management or
// cluster-host), drained in batches rather than one goroutine per datagram.
type Receiver struct {
	name string
	conn *net.UDPConn
	log  *slog.Logger
}

// NewReceiver opens a UDP listener on addr, named for logging.
func NewReceiver(name, addr string, log *slog.Logger) (*Receiver, error) {
	laddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}

	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, err
	}

	return &Receiver{name: name, conn: conn, log: log}, nil
}

// Name identifies the network this receiver serves (e.g. "management").
func (r *Receiver) Name() string { return r.name }

// Close releases the underlying socket.
func (r *Receiver) Close() error { return r.conn.Close() }

// LocalAddr returns the socket's bound address, useful when addr was
// specified with an ephemeral port (":0").
func (r *Receiver) LocalAddr() *net.UDPAddr {
	return r.conn.LocalAddr().(*net.UDPAddr)
}

// Send transmits a pre-encoded datagram to addr. Send is best-effort: the
// caller does not block waiting for delivery.
func (r *Receiver) Send(data []byte, addr *net.UDPAddr) error {
	_, err := r.conn.WriteToUDP(data, addr)
	return err
}

// Drain reaps up to MaxRxMsgBatch ready datagrams without blocking, decoding
// each into a Received. Malformed datagrams are logged and skipped rather
// than aborting the batch.
func (r *Receiver) Drain() []Received {
	var out []Received
	buf := make([]byte, 65536)

	for i := 0; i < MaxRxMsgBatch; i++ {
		if err := r.conn.SetReadDeadline(time.Now()); err != nil {
			break
		}

		n, addr, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			var netErr net.Error
			if !errors.As(err, &netErr) || !netErr.Timeout() {
				r.log.Error("udp receive failed", "receiver", r.name, "error", err)
			}
			break
		}

		msg, err := Decode(buf[:n])
		if err != nil {
			r.log.Warn("dropping malformed datagram", "receiver", r.name, "addr", addr, "error", err)
			continue
		}

		out = append(out, Received{Message: msg, Addr: addr})
	}

	return out
}
