// SPDX-License-Identifier: BSD-3-Clause

package mtce

import "errors"

var (
	// ErrNameEmpty indicates the controller name cannot be empty.
	ErrNameEmpty = errors.New("controller name cannot be empty")
	// ErrHostnameEmpty indicates the controller's own hostname was never set.
	ErrHostnameEmpty = errors.New("controller hostname not configured")
	// ErrAddProcess indicates adding a child process to the supervision tree failed.
	ErrAddProcess = errors.New("failed to add process to supervision tree")
	// ErrPanicked indicates the controller panicked during Run.
	ErrPanicked = errors.New("controller panicked")
)
