// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/u-mtc/u-mtc/service/mtce"
)

func main() {
	var (
		hostname    = flag.String("hostname", "", "hostname this controller process runs on")
		configPath  = flag.String("config", mtce.DefaultConfigPath, "path to the maintenance core's TOML configuration file")
		mgmtAddr    = flag.String("mgmt-addr", mtce.DefaultMgmtAddr, "UDP listen address on the management network")
		clusterAddr = flag.String("cluster-addr", "", "UDP listen address on the cluster-host network, empty if the system has none")
		httpAddr    = flag.String("http-addr", mtce.DefaultHTTPAddr, "bind address for inventory and VIM host-state pushes")
	)
	flag.Parse()

	if *hostname == "" {
		if h, err := os.Hostname(); err == nil {
			*hostname = h
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c := mtce.New(
		mtce.WithHostname(*hostname),
		mtce.WithConfigPath(*configPath),
		mtce.WithNetworks(*mgmtAddr, *clusterAddr),
		mtce.WithHTTPAddr(*httpAddr),
	)

	if err := c.Run(ctx, nil); err != nil {
		panic(err)
	}
}
