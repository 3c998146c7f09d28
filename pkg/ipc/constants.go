// SPDX-License-Identifier: BSD-3-Clause

package ipc

// Subject constants for the in-process NATS bus that carries inventory
// mutation events from service/inventory to their subscribers (the fleet
// coordinator and the reporting fabric). Subjects are hierarchical so
// subscribers can wildcard on a host or on an event class.

// Host state-change subjects, one per C3 mutator in spec.md §4.3.
const (
	// SubjectHostAllStateChange carries allStateChange(host, admin, oper, avail).
	SubjectHostAllStateChange = "mtc.host.state.all"
	// SubjectHostSubfStateChange carries subfStateChange(host, operSubf, availSubf).
	SubjectHostSubfStateChange = "mtc.host.state.subf"
	// SubjectHostAvailStatusChange carries availStatusChange(host, avail).
	SubjectHostAvailStatusChange = "mtc.host.state.avail"
	// SubjectHostAdminActionChange carries adminActionChange(host, action).
	SubjectHostAdminActionChange = "mtc.host.state.action"
	// SubjectHostAlarmChange carries alarm raise/clear events.
	SubjectHostAlarmChange = "mtc.host.alarm"
	// SubjectHostUptimeChange carries the Uptime audit's periodic refresh.
	SubjectHostUptimeChange = "mtc.host.uptime"
)

// Fleet coordination subjects (C7).
const (
	// SubjectFleetMNFAEnter/Exit mark multi-node failure avoidance transitions.
	SubjectFleetMNFAEnter = "mtc.fleet.mnfa.enter"
	SubjectFleetMNFAExit  = "mtc.fleet.mnfa.exit"
	// SubjectFleetDOR marks Dead-Office-Recovery window transitions.
	SubjectFleetDOR = "mtc.fleet.dor"
	// SubjectFleetSwactRequest is published when the FSM engine asks the
	// fleet coordinator to initiate a Swact.
	SubjectFleetSwactRequest = "mtc.fleet.swact.request"
)

// Queue groups, used so exactly one subscriber in a group handles a given
// message when more than one instance is listening (diagnostics tooling,
// the reporting fabric, etc. can still subscribe outside any group to see
// every event).
const (
	QueueGroupFleet     = "fleet"
	QueueGroupReporting = "reporting"
)

// Default timeouts for internal bus round-trips.
const (
	DefaultPublishTimeoutMS = 1000
)
