// SPDX-License-Identifier: BSD-3-Clause

package bus

import "errors"

var (
	// ErrInvalidConfiguration indicates the bus configuration is invalid.
	ErrInvalidConfiguration = errors.New("invalid bus configuration")
	// ErrServerCreationFailed indicates the embedded NATS server could not be constructed.
	ErrServerCreationFailed = errors.New("failed to create NATS server")
	// ErrServerNotReady indicates the embedded server is not ready for connections.
	ErrServerNotReady = errors.New("NATS server not ready for connections")
	// ErrServerTimeout indicates the embedded server did not become ready in time.
	ErrServerTimeout = errors.New("NATS server startup timeout")
	// ErrInProcessConnFailed indicates an in-process connection could not be created.
	ErrInProcessConnFailed = errors.New("failed to create in-process connection")
	// ErrConnectionNotAvailable indicates no server instance is available to connect to.
	ErrConnectionNotAvailable = errors.New("connection not available")
	// ErrInvalidServerName indicates an empty or invalid service/server name.
	ErrInvalidServerName = errors.New("invalid server name")
	// ErrInvalidTimeout indicates a non-positive timeout was configured.
	ErrInvalidTimeout = errors.New("invalid timeout value")
)
