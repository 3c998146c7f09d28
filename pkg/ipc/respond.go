// SPDX-License-Identifier: BSD-3-Clause

package ipc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/u-mtc/u-mtc/pkg/log"
)

// PublishJSON marshals v and publishes it on subject over nc, logging and
// wrapping any failure. It is the one place event publication goes through
// so every bus write gets the same error handling and log shape.
func PublishJSON(ctx context.Context, nc *nats.Conn, subject string, v any) error {
	l := log.GetGlobalLogger()

	data, err := json.Marshal(v)
	if err != nil {
		l.ErrorContext(ctx, "failed to marshal bus event", "subject", subject, "error", err)
		return fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}

	if err := nc.Publish(subject, data); err != nil {
		l.ErrorContext(ctx, "failed to publish bus event", "subject", subject, "error", err)
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	return nil
}
