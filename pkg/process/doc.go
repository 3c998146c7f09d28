// SPDX-License-Identifier: BSD-3-Clause

// Package process bridges service.Service and the oversight supervision
// tree, and models the external daemons the maintenance core starts and
// stops but never drives directly: heartbeat, hardware-monitor,
// guest-heartbeat, and the log shipper (spec.md §1 Non-goals).
//
// New wraps a service.Service as an oversight.ChildProcess with panic
// recovery. Collaborator wraps an external binary the same way, issuing
// start/stop rather than owning the daemon's internals.
package process
