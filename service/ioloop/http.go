// SPDX-License-Identifier: BSD-3-Clause

package ioloop

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/u-mtc/u-mtc/service/client"
)

// shutdownGrace bounds how long Run waits for in-flight requests to drain.
const shutdownGrace = 5 * time.Second

// HostStateCallback is invoked when inventory or the VIM push a host state
// update through the HTTP server.
type HostStateCallback func(ctx context.Context, hostname string, update client.HostStateUpdate)

// Server is the HTTP listener inventory and the VIM use to push host state
// back into the maintenance core, instrumented the same way service/client
// instruments its egress calls.
type Server struct {
	srv *http.Server
	log *slog.Logger
}

// NewServer builds a Server bound to addr. onState is called for every
// accepted push, whether it originates from inventory or the VIM.
func NewServer(addr string, log *slog.Logger, onState HostStateCallback) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /v1/ihosts/{hostname}", func(w http.ResponseWriter, r *http.Request) {
		var update client.HostStateUpdate
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		onState(r.Context(), r.PathValue("hostname"), update)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /v1/hosts/state-change", func(w http.ResponseWriter, r *http.Request) {
		var event client.StateChangeEvent
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		onState(r.Context(), event.Hostname, client.HostStateUpdate{Avail: event.State})
		w.WriteHeader(http.StatusNoContent)
	})

	return &Server{
		srv: &http.Server{
			Addr:    addr,
			Handler: otelhttp.NewHandler(mux, "ioloop.http"),
		},
		log: log,
	}
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("ioloop http server shutdown failed", "error", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}
