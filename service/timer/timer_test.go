// SPDX-License-Identifier: BSD-3-Clause

package timer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/u-mtc/u-mtc/service/timer"
)

func TestStartAndExpire(t *testing.T) {
	s := timer.New(4)
	h := s.Init("compute-0")

	// A handle that was never armed reports expired.
	assert.True(t, s.Expired(h))

	require.NoError(t, s.StartMS(h, 10*time.Millisecond))

	select {
	case exp := <-s.Mailbox():
		assert.Equal(t, "compute-0", exp.Owner)
	case <-time.After(time.Second):
		t.Fatal("timer never rang")
	}

	assert.True(t, s.Expired(h))
}

func TestStopPreventsRing(t *testing.T) {
	s := timer.New(4)
	h := s.Init("compute-1")

	require.NoError(t, s.StartMS(h, 50*time.Millisecond))
	require.NoError(t, s.Stop(h))

	select {
	case exp := <-s.Mailbox():
		t.Fatalf("unexpected expiry after Stop: %+v", exp)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestResetClearsLatch(t *testing.T) {
	s := timer.New(4)
	h := s.Init("compute-2")

	require.NoError(t, s.StartMS(h, 5*time.Millisecond))
	<-s.Mailbox()
	assert.True(t, s.Expired(h))

	require.NoError(t, s.Reset(h))
	assert.False(t, s.Expired(h))
}

func TestUnknownHandle(t *testing.T) {
	s := timer.New(1)
	bogus := timer.Handle{}

	assert.ErrorIs(t, s.Start(bogus, 1), timer.ErrUnknownTimer)
	assert.True(t, s.Expired(bogus))
}
