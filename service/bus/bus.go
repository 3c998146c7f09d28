// SPDX-License-Identifier: BSD-3-Clause

// Package bus provides the embedded, in-process NATS server every other
// maintenance-core service publishes inventory and fleet events on. No
// network listener is ever opened; callers reach it only through the
// ConnProvider returned by GetConnProvider.
package bus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/u-mtc/u-mtc/pkg/log"
	"github.com/u-mtc/u-mtc/service"
)

var _ service.Service = (*Bus)(nil)

// Bus runs the embedded NATS server that is the maintenance core's only
// message fabric: inventory mutators publish state changes, the fleet
// coordinator and reporting fabric subscribe.
type Bus struct {
	config *config
	server *server.Server
	logger *slog.Logger
	tracer trace.Tracer
}

// New creates a Bus with the given options applied on top of the defaults.
func New(opts ...Option) *Bus {
	cfg := &config{
		serviceName:                 DefaultServiceName,
		serviceDescription:          DefaultServiceDescription,
		serviceVersion:              DefaultServiceVersion,
		serverName:                  DefaultServerName,
		storeDir:                    DefaultStoreDir,
		enableJetStream:             false,
		dontListen:                  true,
		maxMemory:                   DefaultMaxMemory,
		maxStorage:                  DefaultMaxStorage,
		startupTimeout:              DefaultStartupTimeout,
		shutdownTimeout:             DefaultShutdownTimeout,
		maxControlLine:              1024,
		maxPayload:                  1048576,
		writeDeadline:               2 * time.Second,
		pingInterval:                2 * time.Minute,
		maxPingsOut:                 2,
		enableSlowConsumerDetection: true,
		slowConsumerThreshold:       5 * time.Second,
	}
	for _, opt := range opts {
		opt.apply(cfg)
	}
	return &Bus{config: cfg}
}

// Name implements service.Service.
func (s *Bus) Name() string {
	return s.config.serviceName
}

// Run starts the embedded NATS server and blocks until ctx is canceled.
// The ipcConn parameter is unused — Bus is the provider other services
// consume, not a consumer itself — and must be nil.
func (s *Bus) Run(ctx context.Context, ipcConn nats.InProcessConnProvider) error {
	s.tracer = otel.Tracer(s.config.serviceName)
	ctx, span := s.tracer.Start(ctx, "Run")
	defer span.End()

	s.logger = log.GetGlobalLogger().With("service", s.config.serviceName)
	s.logger.InfoContext(ctx, "starting message bus",
		"version", s.config.serviceVersion,
		"server_name", s.config.serverName)

	if ipcConn != nil {
		err := fmt.Errorf("%w: existing connection provider supplied to bus", ErrInvalidConfiguration)
		span.RecordError(err)
		return err
	}

	if err := s.config.Validate(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}

	ns, err := server.NewServer(s.config.toServerOptions())
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrServerCreationFailed, err)
	}
	s.server = ns
	s.server.SetLoggerV2(log.NewNATSLogger(s.logger), true, false, false)

	s.logger.InfoContext(ctx, "starting NATS server", "server_name", s.config.serverName)
	s.server.Start()

	if !s.server.ReadyForConnections(s.config.startupTimeout) {
		s.server.Shutdown()
		err := fmt.Errorf("%w: server not ready within %v", ErrServerTimeout, s.config.startupTimeout)
		span.RecordError(err)
		return err
	}

	s.logger.InfoContext(ctx, "message bus started", "server_id", s.server.ID())
	span.SetAttributes(
		attribute.String("service.name", s.config.serviceName),
		attribute.String("server.id", s.server.ID()),
	)

	<-ctx.Done()

	return s.shutdown(ctx)
}

// GetConnProvider returns a ConnProvider other services use to obtain
// in-process NATS connections, blocking until the server is assigned or
// the configured startup timeout elapses.
func (s *Bus) GetConnProvider() *ConnProvider {
	timeout := time.Now().Add(s.config.startupTimeout)
	for s.server == nil && time.Now().Before(timeout) {
		time.Sleep(time.Millisecond)
	}

	return &ConnProvider{server: s.server}
}

func (s *Bus) shutdown(ctx context.Context) error {
	err := ctx.Err()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.shutdownTimeout)
	defer cancel()

	s.logger.InfoContext(shutdownCtx, "shutting down message bus")

	if s.server != nil {
		s.server.LameDuckShutdown()

		done := make(chan struct{})
		go func() {
			defer close(done)
			s.server.Shutdown()
		}()

		select {
		case <-done:
			s.logger.InfoContext(shutdownCtx, "message bus shutdown complete")
		case <-shutdownCtx.Done():
			s.logger.WarnContext(shutdownCtx, "message bus shutdown timed out, forcing")
		}
	}

	return err
}
