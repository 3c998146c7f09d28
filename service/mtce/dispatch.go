// SPDX-License-Identifier: BSD-3-Clause

package mtce

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"sync"

	"github.com/u-mtc/u-mtc/service/fsm"
	"github.com/u-mtc/u-mtc/service/ioloop"
	"github.com/u-mtc/u-mtc/service/queue"
)

// commandFrame is the wire payload a dispatched work entry carries inside a
// CmdModify datagram, and the shape a CmdCmdRsp reply is expected back in.
type commandFrame struct {
	Sequence     uint64 `json:"sequence"`
	Command      string `json:"command"`
	StatusString string `json:"status_string,omitempty"`
}

// dispatcher moves fsm.Engine work-queue entries onto the wire and routes
// responses back, replacing the source's direct per-command socket calls
// with the channel the fan-in loop already owns (spec.md §4.2's work/done
// queue contract, C2-C4 wiring).
type dispatcher struct {
	mu    sync.Mutex
	addrs map[string]*net.UDPAddr

	engine  *fsm.Engine
	onAlive func(hostname string)
	mgmt    *ioloop.Receiver
	log     *slog.Logger
}

// newDispatcher builds a dispatcher. onAlive is called alongside
// engine.NoteMtcAlive for every liveness datagram observed — service/mtce
// wires this to fleet.Coordinator.NoteHeartbeat so both packages see the
// same trigger without importing each other.
func newDispatcher(engine *fsm.Engine, onAlive func(hostname string), mgmt *ioloop.Receiver, log *slog.Logger) *dispatcher {
	return &dispatcher{
		addrs:   make(map[string]*net.UDPAddr),
		engine:  engine,
		onAlive: onAlive,
		mgmt:    mgmt,
		log:     log,
	}
}

// onMessage is the ioloop.Handlers.OnMessage callback: it records the
// sender's address for future dispatch and routes the datagram by command.
func (d *dispatcher) onMessage(ctx context.Context, network string, r ioloop.Received) {
	hostname := r.Message.Hostname()
	if hostname == "" {
		return
	}

	d.mu.Lock()
	d.addrs[hostname] = r.Addr
	d.mu.Unlock()

	switch r.Message.Cmd {
	case ioloop.CmdMtcAlive:
		d.onMtcAlive(ctx, hostname)
	case ioloop.CmdCmdRsp:
		d.onCommandResponse(hostname, r.Message.Buf)
	}
}

func (d *dispatcher) onMtcAlive(ctx context.Context, hostname string) {
	d.engine.NoteMtcAlive(ctx, hostname)
	if d.onAlive != nil {
		d.onAlive(hostname)
	}
}

func (d *dispatcher) onCommandResponse(hostname string, buf []byte) {
	var frame commandFrame
	if err := json.Unmarshal(buf, &frame); err != nil {
		d.log.Warn("dropping malformed command response", "hostname", hostname, "error", err)
		return
	}

	status := queue.StatusFail
	switch frame.StatusString {
	case "pass":
		status = queue.StatusPass
	case "retry":
		status = queue.StatusRetry
	}

	d.engine.CompleteWork(hostname, frame.Sequence, status, frame.StatusString)
}

// drainPending sends every hostname's undispatched work-queue entries to
// its last-known address. A host never heard from yet keeps its work
// pending rather than being dropped.
func (d *dispatcher) drainPending(hostnames []string) {
	for _, hostname := range hostnames {
		d.mu.Lock()
		addr, known := d.addrs[hostname]
		d.mu.Unlock()
		if !known {
			continue
		}

		for _, entry := range d.engine.PendingWork(hostname) {
			data, err := ioloop.Encode(ioloop.CmdModify, hostname, mustJSON(entry))
			if err != nil {
				d.log.Error("failed to encode work entry", "hostname", hostname, "command", entry.Command, "error", err)
				continue
			}
			if err := d.mgmt.Send(data, addr); err != nil {
				d.log.Error("failed to dispatch work entry", "hostname", hostname, "command", entry.Command, "error", err)
				continue
			}
			d.engine.MarkDispatched(hostname, entry.Sequence)
		}
	}
}

func mustJSON(entry queue.Entry) []byte {
	data, err := json.Marshal(commandFrame{Sequence: entry.Sequence, Command: entry.Command})
	if err != nil {
		return nil
	}
	return data
}
