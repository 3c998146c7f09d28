// SPDX-License-Identifier: BSD-3-Clause

package bus

import (
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

const (
	DefaultServiceName        = "bus"
	DefaultServiceDescription = "in-process message bus for the maintenance core"
	DefaultServiceVersion     = "1.0.0"
	DefaultServerName         = "mtce-bus"
	DefaultStoreDir           = "/var/lib/mtced/bus"
	DefaultMaxMemory          = 64 * 1024 * 1024
	DefaultMaxStorage         = 256 * 1024 * 1024
	DefaultStartupTimeout     = 10 * time.Second
	DefaultShutdownTimeout    = 5 * time.Second
)

type config struct {
	serviceName        string
	serviceDescription string
	serviceVersion     string
	serverName         string
	storeDir           string

	enableJetStream bool
	dontListen      bool

	maxMemory  int64
	maxStorage int64

	startupTimeout  time.Duration
	shutdownTimeout time.Duration

	maxConnections int
	maxControlLine int32
	maxPayload     int32

	writeDeadline time.Duration
	pingInterval  time.Duration
	maxPingsOut   int

	enableSlowConsumerDetection bool
	slowConsumerThreshold       time.Duration
}

// Option configures a Bus.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

// WithServiceName sets the service's registered name.
func WithServiceName(name string) Option {
	return optionFunc(func(c *config) { c.serviceName = name })
}

// WithServerName sets the embedded NATS server's name.
func WithServerName(name string) Option {
	return optionFunc(func(c *config) { c.serverName = name })
}

// WithStoreDir sets the JetStream storage directory.
func WithStoreDir(dir string) Option {
	return optionFunc(func(c *config) { c.storeDir = dir })
}

// WithJetStream enables or disables JetStream persistence.
func WithJetStream(enabled bool) Option {
	return optionFunc(func(c *config) { c.enableJetStream = enabled })
}

// WithMaxMemory sets the JetStream in-memory storage ceiling.
func WithMaxMemory(bytes int64) Option {
	return optionFunc(func(c *config) { c.maxMemory = bytes })
}

// WithMaxStorage sets the JetStream on-disk storage ceiling.
func WithMaxStorage(bytes int64) Option {
	return optionFunc(func(c *config) { c.maxStorage = bytes })
}

// WithStartupTimeout bounds how long Run waits for the server to accept connections.
func WithStartupTimeout(timeout time.Duration) Option {
	return optionFunc(func(c *config) { c.startupTimeout = timeout })
}

// WithShutdownTimeout bounds how long Run waits for a graceful shutdown.
func WithShutdownTimeout(timeout time.Duration) Option {
	return optionFunc(func(c *config) { c.shutdownTimeout = timeout })
}

func (c *config) Validate() error {
	if c.serviceName == "" {
		return ErrInvalidServerName
	}
	if c.startupTimeout <= 0 || c.shutdownTimeout <= 0 {
		return ErrInvalidTimeout
	}
	return nil
}

func (c *config) toServerOptions() *server.Options {
	return &server.Options{
		ServerName:     c.serverName,
		DontListen:     c.dontListen,
		JetStream:      c.enableJetStream,
		StoreDir:       c.storeDir,
		JetStreamMaxMemory:  c.maxMemory,
		JetStreamMaxStore:   c.maxStorage,
		MaxConn:        c.maxConnections,
		MaxControlLine: c.maxControlLine,
		MaxPayload:     c.maxPayload,
		WriteDeadline:  c.writeDeadline,
		PingInterval:   c.pingInterval,
		MaxPingsOut:    c.maxPingsOut,
	}
}
