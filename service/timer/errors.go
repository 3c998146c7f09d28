// SPDX-License-Identifier: BSD-3-Clause

package timer

import "errors"

var (
	// ErrUnknownTimer indicates a Handle that was never returned by Init, or
	// whose Service has been discarded.
	ErrUnknownTimer = errors.New("unknown timer handle")
)
