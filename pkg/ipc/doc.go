// SPDX-License-Identifier: BSD-3-Clause

// Package ipc defines the subjects and small helpers shared by the in-process
// NATS bus (service/bus) that fans inventory mutation events out to their
// subscribers: the fleet coordinator and the reporting fabric.
//
// Services obtain a connection to the bus through an
// nats.InProcessConnProvider (an embedded, in-process NATS server; no
// network listener is ever opened) and publish/subscribe on the subjects
// declared here rather than constructing subject strings ad hoc.
package ipc
