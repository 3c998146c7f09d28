// SPDX-License-Identifier: BSD-3-Clause

package queue_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/u-mtc/u-mtc/service/queue"
)

func TestEnqueueCompleteDequeue(t *testing.T) {
	q := queue.New()

	seq := q.Enqueue("reset", nil, time.Now().Add(time.Minute))
	work, done := q.Len()
	assert.Equal(t, 1, work)
	assert.Equal(t, 0, done)

	q.Complete(seq, queue.StatusPass, "reset complete")

	work, done = q.Len()
	assert.Equal(t, 0, work)
	assert.Equal(t, 1, done)

	entry, ok := q.DequeueDone()
	assert.True(t, ok)
	assert.Equal(t, queue.StatusPass, entry.Status)

	_, ok = q.DequeueDone()
	assert.False(t, ok)
}

func TestWorkQueueDonePass(t *testing.T) {
	q := queue.New()
	seq := q.Enqueue("goenable", nil, time.Now().Add(time.Minute))
	q.Complete(seq, queue.StatusPass, "")

	assert.Equal(t, queue.ResultPass, q.WorkQueueDone(time.Now()))
}

func TestWorkQueueDoneRetryThenTimeout(t *testing.T) {
	q := queue.New()
	q.Enqueue("host-services", nil, time.Now().Add(time.Minute))
	now := time.Now()
	q.SetWaitDeadline(now.Add(10 * time.Millisecond))

	assert.Equal(t, queue.ResultRetry, q.WorkQueueDone(now))
	assert.Equal(t, queue.ResultFailTimeout, q.WorkQueueDone(now.Add(20*time.Millisecond)))
}

func TestPendingWorkExcludesDispatchedEntries(t *testing.T) {
	q := queue.New()
	seq1 := q.Enqueue("reset", nil, time.Now().Add(time.Minute))
	seq2 := q.Enqueue("goenable", nil, time.Now().Add(time.Minute))

	pending := q.PendingWork()
	assert.Len(t, pending, 2)

	q.MarkDispatched(seq1)

	pending = q.PendingWork()
	assert.Len(t, pending, 1)
	assert.Equal(t, seq2, pending[0].Sequence)

	q.Complete(seq2, queue.StatusPass, "")
	assert.Empty(t, q.PendingWork())
}

func TestMarkDispatchedIgnoresUnknownSequence(t *testing.T) {
	q := queue.New()
	q.Enqueue("reset", nil, time.Now().Add(time.Minute))

	q.MarkDispatched(999)

	assert.Len(t, q.PendingWork(), 1)
}

func TestPurgeClearsBothQueues(t *testing.T) {
	q := queue.New()
	q.Enqueue("reset", nil, time.Now().Add(time.Minute))
	q.Purge()

	work, done := q.Len()
	assert.Equal(t, 0, work)
	assert.Equal(t, 0, done)
	assert.Equal(t, queue.ResultPass, q.WorkQueueDone(time.Now()))
}
