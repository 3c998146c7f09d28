// SPDX-License-Identifier: BSD-3-Clause

package ioloop

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// CredentialEvent reports that the watched credential file changed.
type CredentialEvent struct {
	Path string
}

// CredentialWatcher watches the root-credential file (/etc/shadow) for
// changes. Editors typically replace the file rather than write in place,
// which fires Remove/Rename and drops the underlying inotify watch (the
// kernel's IN_IGNORED); CredentialWatcher re-arms on exactly that path so
// the watch survives editor-induced replacement.
type CredentialWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	events  chan CredentialEvent
	log     *slog.Logger
}

// NewCredentialWatcher opens an inotify watch on path.
func NewCredentialWatcher(ctx context.Context, path string, log *slog.Logger) (*CredentialWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, err
	}

	cw := &CredentialWatcher{
		path:    path,
		watcher: w,
		events:  make(chan CredentialEvent, 8),
		log:     log,
	}

	go cw.run(ctx)
	return cw, nil
}

func (cw *CredentialWatcher) run(ctx context.Context) {
	defer close(cw.events)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-cw.watcher.Events:
			if !ok {
				return
			}

			if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				if err := cw.watcher.Add(cw.path); err != nil {
					cw.log.Error("failed to re-arm credential watch", "path", cw.path, "error", err)
				}
			}

			cw.events <- CredentialEvent{Path: ev.Name}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.log.Error("credential watch error", "path", cw.path, "error", err)
		}
	}
}

// Events is the channel of observed credential-file changes.
func (cw *CredentialWatcher) Events() <-chan CredentialEvent { return cw.events }

// Close releases the underlying inotify descriptor.
func (cw *CredentialWatcher) Close() error { return cw.watcher.Close() }
