// SPDX-License-Identifier: BSD-3-Clause

package fsm

import "errors"

var (
	// ErrNoDriver indicates a tick arrived for a host with no registered driver.
	ErrNoDriver = errors.New("no FSM driver registered for host")
	// ErrUnknownAction indicates a host's inventory action has no matching FSM.
	ErrUnknownAction = errors.New("no FSM defined for admin action")
	// ErrManualInterventionRequired indicates powercycle exhausted its retry
	// budget and recovery is intentionally left to an operator.
	ErrManualInterventionRequired = errors.New("powercycle attempts exhausted, host left powered down")
)
