// SPDX-License-Identifier: BSD-3-Clause

package mtce

import (
	"log/slog"
	"time"

	"github.com/u-mtc/u-mtc/pkg/log"
	"github.com/u-mtc/u-mtc/pkg/telemetry"
	"github.com/u-mtc/u-mtc/service/bus"
	"github.com/u-mtc/u-mtc/service/client"
)

const (
	// DefaultName is the controller's registered service name.
	DefaultName = "mtce"
	// DefaultIDDir is the directory a controller's persistent instance ID
	// file is stored under, named after the controller's service name.
	DefaultIDDir = "/var/lib/mtced"
	// DefaultConfigPath is the TOML file mtce.Controller loads at startup.
	DefaultConfigPath = "/etc/mtc/mtc.conf"
	// DefaultCredentialPath is the root-credential file the config audit watches.
	DefaultCredentialPath = "/etc/shadow"
	// DefaultMgmtAddr is the UDP listen address on the management network.
	DefaultMgmtAddr = ":2112"
	// DefaultHTTPAddr is the bind address for inventory/VIM state pushes.
	DefaultHTTPAddr = ":2113"
	// DefaultTimeout bounds how long a supervised child process gets to start.
	DefaultTimeout = 10 * time.Second
)

type config struct {
	name string
	id   string

	configPath     string
	credentialPath string
	hostname       string

	mgmtAddr    string
	clusterAddr string
	httpAddr    string

	tick    time.Duration
	timeout time.Duration

	busOpts []bus.Option

	// External client base URLs. Left empty, the corresponding client is
	// never built and every driver step that would call it skips the call
	// (the simplex/unsupported short-circuit every service/client type
	// already implements).
	haBaseURL        string
	inventoryBaseURL string
	vimBaseURL       string
	alarmBaseURL     string
	simplex          bool

	// daemonAddrs are the downstream collaborator daemons' UDP control
	// socket addresses (spec.md §4.6). Left zero-valued, the daemon
	// client is still built but every Notify call is a no-op.
	daemonAddrs client.DaemonAddrs

	otelSetup func()
	logger    *slog.Logger
}

// Option configures a Controller.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

// WithName sets the controller's registered service name.
func WithName(name string) Option {
	return optionFunc(func(c *config) { c.name = name })
}

// WithID pins the controller's persistent instance ID instead of loading or
// minting one from disk.
func WithID(id string) Option {
	return optionFunc(func(c *config) { c.id = id })
}

// WithHostname sets the hostname this controller process runs on, used to
// find its own record in inventory and exclude itself from fleet peer
// lookups.
func WithHostname(hostname string) Option {
	return optionFunc(func(c *config) { c.hostname = hostname })
}

// WithConfigPath sets the TOML configuration file to load at startup.
func WithConfigPath(path string) Option {
	return optionFunc(func(c *config) { c.configPath = path })
}

// WithCredentialPath sets the root-credential file the config audit watches.
func WithCredentialPath(path string) Option {
	return optionFunc(func(c *config) { c.credentialPath = path })
}

// WithNetworks sets the management network's UDP listen address and,
// optionally, a separate cluster-host network's address. An empty
// clusterAddr means the system has no separate cluster-host network.
func WithNetworks(mgmtAddr, clusterAddr string) Option {
	return optionFunc(func(c *config) {
		c.mgmtAddr = mgmtAddr
		c.clusterAddr = clusterAddr
	})
}

// WithHTTPAddr sets the bind address inventory and the VIM push host state
// updates to.
func WithHTTPAddr(addr string) Option {
	return optionFunc(func(c *config) { c.httpAddr = addr })
}

// WithTick overrides the fan-in loop's wake-up period.
func WithTick(d time.Duration) Option {
	return optionFunc(func(c *config) { c.tick = d })
}

// WithTimeout bounds how long a supervised child process gets to start.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *config) { c.timeout = d })
}

// WithBusOptions passes additional options through to the embedded message
// bus, e.g. bus.WithServerName for a recognizable server identity.
func WithBusOptions(opts ...bus.Option) Option {
	return optionFunc(func(c *config) { c.busOpts = append(c.busOpts, opts...) })
}

// WithExternalClients sets the base URLs of the HA manager, sysinv
// inventory, VIM, and alarm collaborators this controller talks to. Any
// left empty keeps the corresponding client nil. simplex marks a one-node
// system, which the HA manager client checks before making any call.
func WithExternalClients(haBaseURL, inventoryBaseURL, vimBaseURL, alarmBaseURL string, simplex bool) Option {
	return optionFunc(func(c *config) {
		c.haBaseURL = haBaseURL
		c.inventoryBaseURL = inventoryBaseURL
		c.vimBaseURL = vimBaseURL
		c.alarmBaseURL = alarmBaseURL
		c.simplex = simplex
	})
}

// WithDaemonAddrs sets the downstream collaborator daemons' UDP control
// socket addresses that the Add/Delete/Enable/Disable/Swact FSMs notify on
// host lifecycle transitions (spec.md §2 C5, §4.6).
func WithDaemonAddrs(addrs client.DaemonAddrs) Option {
	return optionFunc(func(c *config) { c.daemonAddrs = addrs })
}

// WithOtelSetup overrides the OpenTelemetry bootstrap invoked at the top of
// Run, defaulting to telemetry.DefaultSetup.
func WithOtelSetup(setup func()) Option {
	return optionFunc(func(c *config) { c.otelSetup = setup })
}

// WithLogger stores a base logger, defaulting to log.NewDefaultLogger. Run
// does not use it: it logs through log.GetGlobalLogger.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *config) { c.logger = l })
}

func defaultConfig() *config {
	return &config{
		name:           DefaultName,
		configPath:     DefaultConfigPath,
		credentialPath: DefaultCredentialPath,
		mgmtAddr:       DefaultMgmtAddr,
		httpAddr:       DefaultHTTPAddr,
		timeout:        DefaultTimeout,
		otelSetup:      telemetry.DefaultSetup,
		logger:         log.NewDefaultLogger(),
	}
}
