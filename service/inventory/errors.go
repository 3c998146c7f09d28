// SPDX-License-Identifier: BSD-3-Clause

package inventory

import "errors"

var (
	// ErrHostNotFound indicates a lookup found no matching host record.
	ErrHostNotFound = errors.New("host not found")
	// ErrHostAlreadyExists indicates Add was called for a hostname already in the inventory.
	ErrHostAlreadyExists = errors.New("host already exists")
)
