// SPDX-License-Identifier: BSD-3-Clause

package client

import "errors"

var (
	// ErrEncodeFailed indicates a request payload could not be marshaled.
	ErrEncodeFailed = errors.New("failed to encode request payload")
	// ErrRequestConstruction indicates the HTTP request object could not be built.
	ErrRequestConstruction = errors.New("failed to construct HTTP request")
	// ErrServerError indicates the remote service returned a 5xx response.
	ErrServerError = errors.New("remote service returned a server error")
	// ErrRequestFailed indicates every retry attempt was exhausted without success.
	ErrRequestFailed = errors.New("request failed after retries")
	// ErrSimplexUnsupported indicates an HA-manager call was attempted on a simplex system.
	ErrSimplexUnsupported = errors.New("HA manager calls are unsupported on simplex systems")
	// ErrBMCWorkerStopped indicates a command was sent to a BMC worker that already stopped.
	ErrBMCWorkerStopped = errors.New("BMC worker stopped")
	// ErrUnknownAlarmID indicates a lookup against an AlarmID with no canonical metadata.
	ErrUnknownAlarmID = errors.New("unknown alarm id")
)
