// SPDX-License-Identifier: BSD-3-Clause

// Package fsm implements the per-host maintenance action FSM engine (spec.md
// §4.4, C6): one driver per managed host that selects, drives, and retires
// the Enable, Graceful Recovery, Disable, Reset/Power/Powercycle, Reinstall,
// Add/Delete, Subfunction-Enable, Swact, and always-on audit state machines
// built by pkg/state's builders. Each driver's Step is called once per
// fan-in tick; it never waits on a stage, polling the per-host work/done
// queue (service/queue) and the per-host stage deadlines kept in
// HostContext for what has become ready since the last tick, as the
// source's single-threaded FSM pass does. Calls to the external clients
// made inside a step are synchronous HTTP requests.
package fsm
