// SPDX-License-Identifier: BSD-3-Clause

package ioloop

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/u-mtc/u-mtc/service/timer"
)

// DefaultTick is the fan-in loop's wake-up period absent a faster event, per
// spec.md §4.5's 50-100ms guidance.
const DefaultTick = 75 * time.Millisecond

// Handlers are the callbacks a Loop's tick invokes for each kind of input it
// fans in. All of them run on the loop goroutine; none may block.
type Handlers struct {
	OnMessage    func(ctx context.Context, network string, r Received)
	OnLinkChange func(ctx context.Context, ev LinkEvent)
	OnCredential func(ctx context.Context, ev CredentialEvent)
	OnTimer      func(ctx context.Context, exp timer.Expiry)
	OnTick       func(ctx context.Context)
}

// Loop is the single-threaded cooperative fan-in loop (C4): it owns the
// management and (optional) cluster-host UDP receivers, the HTTP server, the
// netlink link watcher, the credential inotify watch, and a tick selector
// that drains whatever sources are ready before the caller's FSM pass runs.
// The UDP, netlink, credential and timer sources are read only here; the
// HTTP server's handlers run on their own goroutine, and the BMC worker
// (C5) is the other concurrent actor outside it.
type Loop struct {
	mgmt    *Receiver
	cluster *Receiver
	http    *Server
	links   *LinkWatcher
	creds   *CredentialWatcher
	timers  *timer.Service

	tick     time.Duration
	handlers Handlers
	log      *slog.Logger
}

// New assembles a Loop. cluster may be nil when the system has no separate
// cluster-host network.
func New(mgmt, cluster *Receiver, httpSrv *Server, links *LinkWatcher, creds *CredentialWatcher, timers *timer.Service, tick time.Duration, h Handlers, log *slog.Logger) *Loop {
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Loop{
		mgmt:     mgmt,
		cluster:  cluster,
		http:     httpSrv,
		links:    links,
		creds:    creds,
		timers:   timers,
		tick:     tick,
		handlers: h,
		log:      log,
	}
}

// Run drives the fan-in loop until ctx is canceled. Each tick it drains the
// UDP receivers in batches, then delivers any ready netlink, credential, and
// timer events, then invokes OnTick to run the FSM pass. The HTTP server
// runs on its own goroutine since net/http is intrinsically callback-driven.
func (l *Loop) Run(ctx context.Context) error {
	if l.http != nil {
		go func() {
			if err := l.http.Run(ctx); err != nil {
				l.log.Error("ioloop http server exited", "error", err)
			}
		}()
	}

	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.closeReceivers()
			return nil

		case <-ticker.C:
			l.drainUDP(ctx, "management", l.mgmt)
			if l.cluster != nil {
				l.drainUDP(ctx, "cluster-host", l.cluster)
			}
			l.drainLinks(ctx)
			l.drainCredentials(ctx)
			l.drainTimers(ctx)

			if l.handlers.OnTick != nil {
				l.handlers.OnTick(ctx)
			}
		}
	}
}

func (l *Loop) drainUDP(ctx context.Context, network string, r *Receiver) {
	if r == nil || l.handlers.OnMessage == nil {
		return
	}
	for _, received := range r.Drain() {
		l.handlers.OnMessage(ctx, network, received)
	}
}

func (l *Loop) drainLinks(ctx context.Context) {
	if l.links == nil || l.handlers.OnLinkChange == nil {
		return
	}
	for {
		select {
		case ev, ok := <-l.links.Events():
			if !ok {
				return
			}
			l.handlers.OnLinkChange(ctx, ev)
		default:
			return
		}
	}
}

func (l *Loop) drainCredentials(ctx context.Context) {
	if l.creds == nil || l.handlers.OnCredential == nil {
		return
	}
	for {
		select {
		case ev, ok := <-l.creds.Events():
			if !ok {
				return
			}
			l.handlers.OnCredential(ctx, ev)
		default:
			return
		}
	}
}

func (l *Loop) drainTimers(ctx context.Context) {
	if l.timers == nil || l.handlers.OnTimer == nil {
		return
	}
	for {
		select {
		case exp := <-l.timers.Mailbox():
			l.handlers.OnTimer(ctx, exp)
		default:
			return
		}
	}
}

func (l *Loop) closeReceivers() {
	if l.mgmt != nil {
		l.mgmt.Close()
	}
	if l.cluster != nil {
		l.cluster.Close()
	}
	if l.links != nil {
		l.links.Close()
	}
	if l.creds != nil {
		l.creds.Close()
	}
}

// SendTo is a convenience for outbound best-effort replies on the network a
// message arrived from.
func SendTo(r *Receiver, data []byte, addr *net.UDPAddr) error {
	if r == nil {
		return ErrReceiverClosed
	}
	return r.Send(data, addr)
}
