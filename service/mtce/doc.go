// SPDX-License-Identifier: BSD-3-Clause

// Package mtce composes every other service package into the maintenance
// core's top-level process (C8): the embedded message bus, inventory, the
// per-host action engine, the fleet coordinator, and the single-threaded
// fan-in I/O loop that drives them all one tick at a time. It is the
// maintenance-side analogue of an orchestrator that starts and supervises a
// fixed set of subsystems rather than the hardware-facing services it was
// patterned on.
package mtce
