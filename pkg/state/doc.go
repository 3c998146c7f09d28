// SPDX-License-Identifier: BSD-3-Clause

// Package state implements the per-host action and audit finite state
// machines used by service/fsm, on top of github.com/qmuntal/stateless.
//
// An FSM is built from a Config: a name, an initial state, a set of
// StateDefinitions, and a set of TransitionDefinitions, each carrying an
// optional GuardFunc and ActionFunc. Fire runs one transition with a bounded
// timeout and, if configured, persists the new state and broadcasts the
// change before returning.
//
// The builders in builders.go construct the specific FSM shapes the
// maintenance core drives per host: Enable, Graceful Recovery, Disable,
// Power/Reset/Powercycle, Subfunction-Enable, Swact, and the always-on
// audit probes. Manager tracks the live set of per-host FSMs by name.
package state
