// SPDX-License-Identifier: BSD-3-Clause

// Package ioloop implements the maintenance core's message fan-in layer
// (spec.md §4.5, C4): non-blocking UDP receivers on the management and
// cluster-host networks, an HTTP server for inventory/VIM callbacks, a
// netlink listener for link up/down transitions, and an inotify watch on
// the credential file. A single Loop composes these sources with the timer
// mailbox (service/timer) and drains whatever is ready on each tick before
// the FSM pass runs, matching the source's single-threaded cooperative
// event loop rather than spawning one goroutine per connection per host.
package ioloop
