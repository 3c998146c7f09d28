// SPDX-License-Identifier: BSD-3-Clause

package process

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"

	"cirello.io/oversight/v2"
)

// Collaborator starts and stops an external daemon binary (heartbeat,
// hardware-monitor, guest-heartbeat, log shipper) without owning anything
// about its internals. The maintenance core only ever issues Start/Stop;
// it never inspects or drives the collaborator's protocol directly.
type Collaborator struct {
	name string
	path string
	args []string
	log  *slog.Logger

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewCollaborator creates a Collaborator for the binary at path.
func NewCollaborator(name, path string, args []string, logger *slog.Logger) *Collaborator {
	return &Collaborator{
		name: name,
		path: path,
		args: args,
		log:  logger,
	}
}

// Name returns the collaborator's identifier.
func (c *Collaborator) Name() string {
	return c.name
}

// Start launches the collaborator binary if it is not already running.
func (c *Collaborator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cmd != nil && c.cmd.Process != nil {
		return nil
	}

	cmd := exec.CommandContext(ctx, c.path, c.args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrChildProcessCreation, c.name, err)
	}
	c.cmd = cmd

	if c.log != nil {
		c.log.InfoContext(ctx, "collaborator started", "collaborator", c.name, "pid", cmd.Process.Pid)
	}

	return nil
}

// Stop signals the collaborator to terminate and waits for it to exit.
func (c *Collaborator) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cmd == nil || c.cmd.Process == nil {
		return nil
	}

	if err := c.cmd.Process.Kill(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrServiceShutdown, c.name, err)
	}
	_ = c.cmd.Wait()
	c.cmd = nil

	if c.log != nil {
		c.log.InfoContext(ctx, "collaborator stopped", "collaborator", c.name)
	}

	return nil
}

// Supervised returns an oversight.ChildProcess that keeps the collaborator
// started for the lifetime of ctx and stops it on cancellation.
func (c *Collaborator) Supervised() oversight.ChildProcess {
	return func(ctx context.Context) error {
		if err := c.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return c.Stop(context.Background())
	}
}
