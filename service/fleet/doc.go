// SPDX-License-Identifier: BSD-3-Clause

// Package fleet implements the cluster-wide coordinator (spec.md §4.4.10,
// C7): Multi-Node Failure Avoidance (MNFA), the Dead-Office-Recovery (DOR)
// startup window, active/inactive controller tracking, and the Swact
// orchestration trigger. Where service/fsm decides what a single host
// should do next, Coordinator decides what the fleet as a whole should do
// next — deferring per-host recovery when many hosts fail heartbeat at
// once, and suppressing host-services stampedes in the window right after
// a full-site power cycle.
package fleet
