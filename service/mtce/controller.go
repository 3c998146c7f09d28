// SPDX-License-Identifier: BSD-3-Clause

package mtce

import (
	"context"
	"fmt"
	"os"

	"cirello.io/oversight/v2"
	"github.com/arunsworld/nursery"
	"github.com/nats-io/nats.go"

	"github.com/u-mtc/u-mtc/pkg/id"
	"github.com/u-mtc/u-mtc/pkg/log"
	"github.com/u-mtc/u-mtc/pkg/process"
	"github.com/u-mtc/u-mtc/service"
	"github.com/u-mtc/u-mtc/service/bus"
	"github.com/u-mtc/u-mtc/service/client"
	svcconfig "github.com/u-mtc/u-mtc/service/config"
	"github.com/u-mtc/u-mtc/service/fleet"
	"github.com/u-mtc/u-mtc/service/fsm"
	"github.com/u-mtc/u-mtc/service/inventory"
	"github.com/u-mtc/u-mtc/service/ioloop"
	"github.com/u-mtc/u-mtc/service/timer"
)

var _ service.Service = (*Controller)(nil)

// Controller is the maintenance core's top-level process (C8): it loads
// configuration, starts the embedded message bus and the fan-in I/O loop
// under a supervision tree, and wires the per-host action engine and fleet
// coordinator to the same liveness signal the I/O loop observes.
type Controller struct {
	config
}

// New creates a Controller with the given options applied on top of the
// defaults.
func New(opts ...Option) *Controller {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt.apply(cfg)
	}
	return &Controller{config: *cfg}
}

// Name returns the controller's registered service name.
func (c *Controller) Name() string {
	return c.name
}

// Run loads configuration, starts the message bus and fan-in loop under
// supervision, and blocks until ctx is canceled. ipcConn is accepted to
// satisfy service.Service but unused: the controller always provides its
// own embedded bus.
func (c *Controller) Run(ctx context.Context, _ nats.InProcessConnProvider) (err error) {
	if c.name == "" {
		return ErrNameEmpty
	}
	if c.hostname == "" {
		return ErrHostnameEmpty
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s %w: %v", c.Name(), ErrPanicked, r)
		}
	}()

	c.otelSetup()
	l := log.GetGlobalLogger()

	if c.id == "" {
		idStr, err := id.GetOrCreatePersistentID(c.name, DefaultIDDir)
		if err != nil {
			l.ErrorContext(ctx, "failed to get/create persistent ID, using ephemeral ID", "error", err)
			c.id = id.NewID()
		} else {
			c.id = idStr
		}
	}

	mtcCfg, err := svcconfig.Load(c.configPath)
	if err != nil {
		l.WarnContext(ctx, "failed to load configuration file, falling back to defaults", "path", c.configPath, "error", err)
		mtcCfg = svcconfig.Default()
	}

	if mtcCfg.Agent.OfflineThreshold > 0 {
		fsm.OfflineThreshold = mtcCfg.Agent.OfflineThreshold
	}

	b := bus.New(append([]bus.Option{bus.WithServiceName(c.name + "-bus")}, c.busOpts...)...)

	supervisionTree := oversight.New(
		oversight.NeverHalt(),
		oversight.DefaultRestartStrategy(),
		oversight.WithLogger(log.NewOversightLogger(l)),
	)

	if err := supervisionTree.Add(
		process.New(b, nil),
		oversight.Transient(),
		oversight.Timeout(c.timeout),
		b.Name(),
	); err != nil {
		return fmt.Errorf("%w %s to tree: %w", ErrAddProcess, b.Name(), err)
	}

	supervise := func(ctx context.Context, errc chan error) {
		errc <- supervisionTree.Start(ctx)
	}

	spawnProcs := func(ctx context.Context, errc chan error) {
		nc, err := c.connect(b)
		if err != nil {
			errc <- err
			return
		}
		go func() {
			<-ctx.Done()
			nc.Close()
		}()

		inv := inventory.New(nc)
		timers := timer.New(256)
		engine := fsm.New(inv, timers, c.buildClients(mtcCfg), l.With("service", "fsm"))
		coordinator := fleet.New(inv, nc, c.hostname, l.With("service", "fleet"), fleetOptions(mtcCfg)...)
		engine.SuppressHostServices = func(string) bool { return coordinator.InDOR() }

		daemons, err := client.NewDaemonClient(c.daemonAddrs)
		if err != nil {
			errc <- fmt.Errorf("daemon control socket: %w", err)
			return
		}
		go func() {
			<-ctx.Done()
			daemons.Close()
		}()
		engine.SetDownstreamNotifier(func(_ context.Context, event fsm.DownstreamEvent, hostname string) {
			daemons.Notify(string(event), hostname)
		})
		engine.SetGuestNotifier(func(hostname string, enabled bool) {
			if err := daemons.GuestHeartbeatAck(hostname, enabled); err != nil {
				l.WarnContext(ctx, "guest heartbeat ack failed", "hostname", hostname, "error", err)
			}
		})

		mgmt, err := ioloop.NewReceiver("management", c.mgmtAddr, l.With("network", "management"))
		if err != nil {
			errc <- fmt.Errorf("management receiver: %w", err)
			return
		}

		var cluster *ioloop.Receiver
		if c.clusterAddr != "" {
			cluster, err = ioloop.NewReceiver("cluster-host", c.clusterAddr, l.With("network", "cluster-host"))
			if err != nil {
				errc <- fmt.Errorf("cluster-host receiver: %w", err)
				return
			}
		}

		httpSrv := ioloop.NewServer(c.httpAddr, l.With("component", "http"), func(ctx context.Context, hostname string, update client.HostStateUpdate) {
			if update.Avail == "" {
				return
			}
			if err := inv.AvailStatusChange(ctx, hostname, inventory.AvailStatus(update.Avail)); err != nil {
				l.ErrorContext(ctx, "failed to apply pushed host state", "hostname", hostname, "error", err)
			}
		})

		links, err := ioloop.NewLinkWatcher(ctx, l.With("component", "netlink"))
		if err != nil {
			l.WarnContext(ctx, "link watcher unavailable, continuing without it", "error", err)
			links = nil
		}

		creds, err := ioloop.NewCredentialWatcher(ctx, c.credentialPath, l.With("component", "credwatch"))
		if err != nil {
			l.WarnContext(ctx, "credential watcher unavailable, continuing without it", "error", err)
			creds = nil
		}

		coordinator.ActivateDOR(ctx, 0, countEnabled(inv))

		disp := newDispatcher(engine, coordinator.NoteHeartbeat, mgmt, l.With("component", "dispatch"))

		handlers := ioloop.Handlers{
			OnMessage: disp.onMessage,
			OnLinkChange: func(ctx context.Context, ev ioloop.LinkEvent) {
				l.InfoContext(ctx, "link state changed", "interface", ev.Interface, "up", ev.Up)
			},
			OnCredential: func(ctx context.Context, ev ioloop.CredentialEvent) {
				data, err := os.ReadFile(ev.Path)
				if err != nil {
					l.ErrorContext(ctx, "failed to read changed credential file", "path", ev.Path, "error", err)
					return
				}
				if err := engine.RunConfigAudit(ctx, c.hostname, data); err != nil {
					l.ErrorContext(ctx, "config audit failed", "path", ev.Path, "error", err)
				}
			},
			OnTimer: func(ctx context.Context, exp timer.Expiry) {
				l.DebugContext(ctx, "timer expired", "owner", exp.Owner)
			},
			OnTick: func(ctx context.Context) {
				engine.Tick(ctx)
				coordinator.Tick(ctx)
				disp.drainPending(hostnames(inv))
			},
		}

		loop := ioloop.New(mgmt, cluster, httpSrv, links, creds, timers, c.tick, handlers, l.With("component", "ioloop"))
		svc := &ioService{name: c.name + "-ioloop", loop: loop}

		if err := supervisionTree.Add(
			process.New(svc, nil),
			oversight.Transient(),
			oversight.Timeout(c.timeout),
			svc.Name(),
		); err != nil {
			errc <- fmt.Errorf("%w %s to tree: %w", ErrAddProcess, svc.Name(), err)
			return
		}
	}

	l.InfoContext(ctx, "starting maintenance controller", "hostname", c.hostname, "id", c.id)
	return nursery.RunConcurrentlyWithContext(ctx, supervise, spawnProcs)
}

// connect dials an in-process connection to b's embedded server, waiting
// (via GetConnProvider) for the bus process to have started the server.
func (c *Controller) connect(b *bus.Bus) (*nats.Conn, error) {
	provider := b.GetConnProvider()
	nc, err := nats.Connect("", nats.InProcessServer(provider))
	if err != nil {
		return nil, fmt.Errorf("connect to message bus: %w", err)
	}
	return nc, nil
}

func (c *Controller) buildClients(mtcCfg *svcconfig.Config) fsm.Clients {
	var clients fsm.Clients
	if c.haBaseURL != "" {
		clients.HAManager = client.NewHAManagerClient(c.haBaseURL, c.simplex, mtcCfg.Agent.APIRetries)
	}
	if c.inventoryBaseURL != "" {
		clients.Inventory = client.NewInventoryClient(c.inventoryBaseURL, mtcCfg.Timeouts.SysinvTimeout, mtcCfg.Timeouts.SysinvNoncritTimeout, mtcCfg.Agent.APIRetries)
	}
	if c.vimBaseURL != "" {
		clients.VIM = client.NewVIMClient(c.vimBaseURL, mtcCfg.Agent.APIRetries)
	}
	if c.alarmBaseURL != "" {
		clients.Alarm = client.NewAlarmClient(c.alarmBaseURL)
	}
	return clients
}

func fleetOptions(mtcCfg *svcconfig.Config) []fleet.Option {
	var opts []fleet.Option
	if mtcCfg.Agent.MNFAThreshold > 0 {
		opts = append(opts, fleet.WithMNFAThreshold(mtcCfg.Agent.MNFAThreshold))
	}
	if mtcCfg.Timeouts.MNFATimeout > 0 {
		opts = append(opts, fleet.WithMNFATimeout(mtcCfg.Timeouts.MNFATimeout))
	}
	if mtcCfg.Timeouts.DORModeTimeout > 0 {
		opts = append(opts, fleet.WithDORTimeoutScaling(mtcCfg.Timeouts.DORModeTimeout, fleet.DefaultDORPerHostIncrement))
	}
	return opts
}

func countEnabled(inv *inventory.Inventory) int {
	n := 0
	for _, h := range inv.All() {
		if h.Oper == inventory.OperEnabled {
			n++
		}
	}
	return n
}

func hostnames(inv *inventory.Inventory) []string {
	hosts := inv.All()
	names := make([]string, len(hosts))
	for i, h := range hosts {
		names[i] = h.Hostname
	}
	return names
}
