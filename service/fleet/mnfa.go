// SPDX-License-Identifier: BSD-3-Clause

package fleet

import (
	"context"
	"time"

	"github.com/u-mtc/u-mtc/pkg/ipc"
)

// mnfaState tracks the fleet's Multi-Node Failure Avoidance window
// (spec.md §4.4.10, S6). Entry freezes per-host recovery for every host
// that was failing heartbeat at the moment the threshold was crossed;
// membership can still shrink as individual hosts recover, but new
// failures after entry do not extend membership — they are handled as
// ordinary per-host failures once MNFA exits.
type mnfaState struct {
	active    bool
	enteredAt time.Time
	members   map[string]bool
}

func newMNFAState() *mnfaState {
	return &mnfaState{members: make(map[string]bool)}
}

// evaluateMNFA is called once per Tick with the current per-host miss
// counts. It enters MNFA when the candidate count reaches the configured
// threshold, drops recovered hosts from membership, and exits either when
// membership empties or the configured timeout elapses.
func (c *Coordinator) evaluateMNFA(ctx context.Context, misses map[string]int) {
	s := c.mnfa

	if !s.active {
		var candidates []string
		for hostname, n := range misses {
			if n >= c.cfg.heartbeatMissLimit {
				candidates = append(candidates, hostname)
			}
		}
		if len(candidates) < c.cfg.mnfaThreshold {
			return
		}

		s.active = true
		s.enteredAt = time.Now()
		for _, hostname := range candidates {
			s.members[hostname] = true
		}
		c.log.WarnContext(ctx, "entering multi-node failure avoidance",
			"member_count", len(s.members), "threshold", c.cfg.mnfaThreshold)
		c.publish(ctx, mnfaSubject(true), mnfaEvent{Members: mapKeys(s.members)})
		return
	}

	for hostname := range s.members {
		if misses[hostname] == 0 {
			delete(s.members, hostname)
		}
	}

	expired := time.Since(s.enteredAt) > c.cfg.mnfaTimeout
	if len(s.members) == 0 || expired {
		c.log.InfoContext(ctx, "exiting multi-node failure avoidance",
			"expired", expired, "remaining_members", len(s.members))
		c.publish(ctx, mnfaSubject(false), mnfaEvent{Members: mapKeys(s.members), Expired: expired})
		for hostname := range s.members {
			delete(s.members, hostname)
		}
		s.active = false
	}
}

// InMNFA reports whether hostname's per-host recovery is currently
// deferred by the fleet-wide MNFA window.
func (c *Coordinator) InMNFA(hostname string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mnfa.active && c.mnfa.members[hostname]
}

type mnfaEvent struct {
	Members []string `json:"members"`
	Expired bool     `json:"expired,omitempty"`
}

func mapKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func mnfaSubject(entering bool) string {
	if entering {
		return ipc.SubjectFleetMNFAEnter
	}
	return ipc.SubjectFleetMNFAExit
}
