// SPDX-License-Identifier: BSD-3-Clause

// Package queue implements the per-host work/done queues (spec.md §4.2,
// C2) that every action FSM stage drives instead of blocking on I/O
// directly: a stage enqueues a command and returns, and the I/O layer
// (service/ioloop) moves the command from work to done once it completes.
package queue

import (
	"sync"
	"time"
)

// Status is the outcome recorded against a done entry.
type Status int

const (
	StatusPending Status = iota
	StatusPass
	StatusRetry
	StatusFail
)

// Entry is one queued command.
type Entry struct {
	Sequence     uint64
	Command      string
	Payload      any
	Deadline     time.Time
	Status       Status
	StatusString string

	// Dispatched marks whether the I/O layer has already sent this entry
	// out over the wire, so a tick-driven dispatcher does not resend a
	// command still awaiting its response.
	Dispatched bool
}

// Result is the aggregate verdict workQueue_done returns.
type Result int

const (
	ResultPass Result = iota
	ResultRetry
	ResultFailTimeout
)

// HostQueue holds one host's work and done FIFOs.
type HostQueue struct {
	mu       sync.Mutex
	nextSeq  uint64
	work     []Entry
	done     []Entry
	waitDone time.Time
}

// New creates an empty HostQueue.
func New() *HostQueue {
	return &HostQueue{}
}

// Enqueue appends a command to the work queue and returns its sequence.
func (q *HostQueue) Enqueue(command string, payload any, deadline time.Time) uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.nextSeq++
	q.work = append(q.work, Entry{
		Sequence: q.nextSeq,
		Command:  command,
		Payload:  payload,
		Deadline: deadline,
		Status:   StatusPending,
	})
	return q.nextSeq
}

// Complete moves the work entry with the given sequence to done, recording
// its outcome. It is a no-op if the sequence is not currently in flight.
func (q *HostQueue) Complete(sequence uint64, status Status, statusString string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, e := range q.work {
		if e.Sequence != sequence {
			continue
		}
		e.Status = status
		e.StatusString = statusString
		q.done = append(q.done, e)
		q.work = append(q.work[:i], q.work[i+1:]...)
		return
	}
}

// PendingWork returns a snapshot of work entries not yet marked Dispatched,
// for the I/O layer to send out over the wire.
func (q *HostQueue) PendingWork() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []Entry
	for _, e := range q.work {
		if !e.Dispatched {
			out = append(out, e)
		}
	}
	return out
}

// MarkDispatched records that the work entry with the given sequence has
// been sent, so PendingWork stops returning it until it completes or times
// out.
func (q *HostQueue) MarkDispatched(sequence uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, e := range q.work {
		if e.Sequence == sequence {
			q.work[i].Dispatched = true
			return
		}
	}
}

// DequeueDone pops the head of the done queue and reports its status.
func (q *HostQueue) DequeueDone() (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.done) == 0 {
		return Entry{}, false
	}

	head := q.done[0]
	q.done = q.done[1:]
	return head, true
}

// SetWaitDeadline arms the timeout workQueue_done checks against.
func (q *HostQueue) SetWaitDeadline(deadline time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.waitDone = deadline
}

// WorkQueueDone reports PASS once the work queue is empty and every done
// entry succeeded, FAIL_WORKQ_TIMEOUT once the wait deadline has passed, or
// RETRY otherwise.
func (q *HostQueue) WorkQueueDone(now time.Time) Result {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.work) == 0 {
		allPass := true
		for _, e := range q.done {
			if e.Status != StatusPass {
				allPass = false
				break
			}
		}
		if allPass {
			return ResultPass
		}
	}

	if !q.waitDone.IsZero() && now.After(q.waitDone) {
		return ResultFailTimeout
	}

	return ResultRetry
}

// Purge clears both queues. It is mandatory on every FSM failure path
// before the action is restarted.
func (q *HostQueue) Purge() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.work = nil
	q.done = nil
	q.waitDone = time.Time{}
}

// Len reports the current depth of the work and done queues, for audits and
// the always-on quiescence checks.
func (q *HostQueue) Len() (work, done int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.work), len(q.done)
}
