// SPDX-License-Identifier: BSD-3-Clause

package config

import "errors"

var (
	// ErrDecodeFailed indicates the TOML configuration file could not be parsed.
	ErrDecodeFailed = errors.New("failed to decode configuration")
	// ErrMissingRequiredKeys indicates one or more required configuration keys were absent.
	ErrMissingRequiredKeys = errors.New("missing required configuration keys")
)
