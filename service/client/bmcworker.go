// SPDX-License-Identifier: BSD-3-Clause

package client

import (
	"context"
)

// BMCCommand is one request placed on a BMCWorker's request channel.
type BMCCommand struct {
	Command string
	Payload any
}

// BMCResult is the outcome a BMCWorker returns on its result channel.
// Status mirrors bmc_command_recv's PASS/FAIL/RETRY contract.
type BMCResult struct {
	Command string
	Status  BMCStatus
	Data    any
}

// BMCStatus is the outcome of one BMC command.
type BMCStatus int

const (
	BMCPass BMCStatus = iota
	BMCFail
	BMCRetry
)

// BMCWorker replaces the source's ad-hoc BMC worker thread with a task
// bound to a request channel and a result channel: bmc_command_send and
// bmc_command_recv become sends and receives on these channels, and a
// kill is a context cancellation rather than a control field.
type BMCWorker struct {
	hostname string
	execute  func(ctx context.Context, cmd BMCCommand) BMCResult

	requests chan BMCCommand
	results  chan BMCResult
	done     chan struct{}
}

// NewBMCWorker creates a BMCWorker for hostname. execute performs the
// actual IPMI/Redfish call and is supplied by the caller so this package
// stays transport-agnostic.
func NewBMCWorker(hostname string, execute func(ctx context.Context, cmd BMCCommand) BMCResult) *BMCWorker {
	return &BMCWorker{
		hostname: hostname,
		execute:  execute,
		requests: make(chan BMCCommand, 4),
		results:  make(chan BMCResult, 4),
		done:     make(chan struct{}),
	}
}

// Run drains the request channel until ctx is canceled, executing each
// command and depositing its result for bmc_command_recv-style reaping.
func (w *BMCWorker) Run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-w.requests:
			w.results <- w.execute(ctx, cmd)
		}
	}
}

// Send is bmc_command_send: it enqueues cmd for the worker goroutine.
func (w *BMCWorker) Send(ctx context.Context, cmd BMCCommand) error {
	select {
	case <-w.done:
		return ErrBMCWorkerStopped
	case w.requests <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recv is bmc_command_recv: it reaps the next completed command's result,
// blocking until one arrives.
func (w *BMCWorker) Recv(ctx context.Context) (BMCResult, error) {
	select {
	case res := <-w.results:
		return res, nil
	case <-w.done:
		return BMCResult{}, ErrBMCWorkerStopped
	case <-ctx.Done():
		return BMCResult{}, ctx.Err()
	}
}

// TryRecv is Recv's non-blocking counterpart, for callers on a cooperative
// tick that must never stall waiting on a result that is not yet ready.
func (w *BMCWorker) TryRecv() (BMCResult, bool) {
	select {
	case res := <-w.results:
		return res, true
	default:
		return BMCResult{}, false
	}
}
