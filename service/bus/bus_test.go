// SPDX-License-Identifier: BSD-3-Clause

package bus_test

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/u-mtc/u-mtc/pkg/ipc"
	"github.com/u-mtc/u-mtc/service/bus"
)

func TestBusPublishSubscribeRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := bus.New(bus.WithServiceName("test-bus"), bus.WithStartupTimeout(2*time.Second))

	go func() {
		_ = b.Run(ctx, nil)
	}()

	provider := b.GetConnProvider()
	require.NotNil(t, provider)

	nc, err := nats.Connect("", nats.InProcessServer(provider))
	require.NoError(t, err)
	defer nc.Close()

	received := make(chan []byte, 1)
	sub, err := nc.Subscribe(ipc.SubjectHostAllStateChange, func(msg *nats.Msg) {
		received <- msg.Data
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.NoError(t, ipc.PublishJSON(ctx, nc, ipc.SubjectHostAllStateChange, map[string]string{"hostname": "compute-0"}))

	select {
	case data := <-received:
		assert.Contains(t, string(data), "compute-0")
	case <-time.After(2 * time.Second):
		t.Fatal("did not receive published event")
	}
}
