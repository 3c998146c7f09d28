// SPDX-License-Identifier: BSD-3-Clause

package ioloop_test

import (
	"context"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/u-mtc/u-mtc/service/ioloop"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	data, err := ioloop.Encode(ioloop.CmdMtcAlive, "compute-0", []byte("payload"))
	require.NoError(t, err)

	msg, err := ioloop.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, ioloop.CmdMtcAlive, msg.Cmd)
	assert.Equal(t, "compute-0", msg.Hostname())
	assert.Equal(t, []byte("payload"), msg.Buf)
}

func TestDecodeTruncated(t *testing.T) {
	_, err := ioloop.Decode([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ioloop.ErrMessageTruncated)
}

func TestReceiverDrainsDatagram(t *testing.T) {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	r, err := ioloop.NewReceiver("management", "127.0.0.1:0", log)
	require.NoError(t, err)
	defer r.Close()

	addr := r.LocalAddr()
	data, err := ioloop.Encode(ioloop.CmdMtcAlive, "compute-0", nil)
	require.NoError(t, err)

	conn, err := net.DialUDP("udp", nil, addr)
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write(data)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(r.Drain()) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestCredentialWatcherReportsWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shadow")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cw, err := ioloop.NewCredentialWatcher(ctx, path, log)
	require.NoError(t, err)
	defer cw.Close()

	require.NoError(t, os.WriteFile(path, []byte("y"), 0o600))

	require.Eventually(t, func() bool {
		select {
		case <-cw.Events():
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}
