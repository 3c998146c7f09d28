// SPDX-License-Identifier: BSD-3-Clause

package ioloop

import (
	"context"
	"log/slog"

	"github.com/vishvananda/netlink"
)

// LinkEvent reports a link up/down transition observed on the management
// or cluster-host interface.
type LinkEvent struct {
	Interface string
	Up        bool
}

// LinkWatcher wraps a netlink link-state subscription and republishes
// updates as LinkEvent on a buffered channel the main loop selects on.
type LinkWatcher struct {
	events chan LinkEvent
	done   chan struct{}
	log    *slog.Logger
}

// NewLinkWatcher subscribes to netlink link updates for the lifetime of ctx.
func NewLinkWatcher(ctx context.Context, log *slog.Logger) (*LinkWatcher, error) {
	updates := make(chan netlink.LinkUpdate, 64)
	done := make(chan struct{})
	if err := netlink.LinkSubscribe(updates, done); err != nil {
		close(done)
		return nil, err
	}

	w := &LinkWatcher{
		events: make(chan LinkEvent, 64),
		done:   done,
		log:    log,
	}

	go w.run(ctx, updates)
	return w, nil
}

func (w *LinkWatcher) run(ctx context.Context, updates chan netlink.LinkUpdate) {
	defer close(w.events)
	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			w.events <- LinkEvent{
				Interface: upd.Link.Attrs().Name,
				Up:        upd.Link.Attrs().OperState == netlink.OperUp,
			}
		}
	}
}

// Events is the channel of observed link transitions.
func (w *LinkWatcher) Events() <-chan LinkEvent { return w.events }

// Close tears down the netlink subscription.
func (w *LinkWatcher) Close() {
	select {
	case <-w.done:
	default:
		close(w.done)
	}
}
