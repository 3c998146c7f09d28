// SPDX-License-Identifier: BSD-3-Clause

package bus

import (
	"fmt"
	"net"
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

// ConnProvider implements nats.InProcessConnProvider against the Bus's
// embedded server, so other services dial in without a network listener.
type ConnProvider struct {
	server *server.Server
}

// InProcessConn returns a net.Conn connected to the embedded server.
func (p *ConnProvider) InProcessConn() (net.Conn, error) {
	if p.server == nil {
		return nil, ErrConnectionNotAvailable
	}

	if !p.server.ReadyForConnections(time.Minute) {
		return nil, ErrServerNotReady
	}

	conn, err := p.server.InProcessConn()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInProcessConnFailed, err)
	}

	return conn, nil
}
