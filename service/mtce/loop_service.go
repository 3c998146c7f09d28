// SPDX-License-Identifier: BSD-3-Clause

package mtce

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/u-mtc/u-mtc/service"
	"github.com/u-mtc/u-mtc/service/ioloop"
)

var _ service.Service = (*ioService)(nil)

// ioService adapts ioloop.Loop to service.Service so the fan-in loop can be
// supervised alongside the message bus. It needs no IPC connection of its
// own: every handler closed over it at construction already holds whatever
// NATS connection it needs to publish through.
type ioService struct {
	name string
	loop *ioloop.Loop
}

func (s *ioService) Name() string { return s.name }

func (s *ioService) Run(ctx context.Context, _ nats.InProcessConnProvider) error {
	return s.loop.Run(ctx)
}
