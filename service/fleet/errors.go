// SPDX-License-Identifier: BSD-3-Clause

package fleet

import "errors"

// ErrNotInactiveController reports a Swact requested for a host that is not
// this controller's enabled, unlocked peer. No function in this package
// returns it.
var ErrNotInactiveController = errors.New("fleet: host is not the inactive controller")
