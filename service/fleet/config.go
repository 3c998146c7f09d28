// SPDX-License-Identifier: BSD-3-Clause

package fleet

import "time"

// Defaults mirror the source's [agent]/[timeouts] keys this package reads
// (spec.md §5 Configuration): mnfa_threshold, mnfa_timeout, dor_mode_timeout,
// and the per-host heartbeat-miss threshold that feeds MNFA candidacy.
const (
	DefaultMNFAThreshold         = 3
	DefaultMNFATimeout           = 60 * time.Second
	DefaultHeartbeatMissLimit    = 3
	DefaultDORBaseTimeout        = 5 * time.Minute
	DefaultDORPerHostIncrement   = 2 * time.Second
	DefaultDORActivationUptime   = 15 * time.Minute
)

type config struct {
	mnfaThreshold       int
	mnfaTimeout          time.Duration
	heartbeatMissLimit   int
	dorBaseTimeout       time.Duration
	dorPerHostIncrement  time.Duration
	dorActivationUptime  time.Duration
}

// Option configures a Coordinator.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

// WithMNFAThreshold sets the number of simultaneously heartbeat-failing
// hosts that triggers Multi-Node Failure Avoidance.
func WithMNFAThreshold(n int) Option {
	return optionFunc(func(c *config) { c.mnfaThreshold = n })
}

// WithMNFATimeout bounds how long the fleet stays in MNFA waiting for
// affected hosts to recover before falling through to per-host failure.
func WithMNFATimeout(d time.Duration) Option {
	return optionFunc(func(c *config) { c.mnfaTimeout = d })
}

// WithHeartbeatMissLimit sets how many consecutive missed windows mark a
// host an MNFA candidate (mirrors, independently, the Offline audit's own
// miss threshold in service/fsm — the two serve different purposes and are
// deliberately configured separately, matching the source's separate
// offline_threshold and mnfa_threshold keys).
func WithHeartbeatMissLimit(n int) Option {
	return optionFunc(func(c *config) { c.heartbeatMissLimit = n })
}

// WithDORTimeoutScaling sets the Dead-Office-Recovery window's base
// duration and its linear per-enabled-host increment.
func WithDORTimeoutScaling(base, perHost time.Duration) Option {
	return optionFunc(func(c *config) {
		c.dorBaseTimeout = base
		c.dorPerHostIncrement = perHost
	})
}

// WithDORActivationUptime sets the controller-uptime ceiling below which
// DOR mode activates on startup.
func WithDORActivationUptime(d time.Duration) Option {
	return optionFunc(func(c *config) { c.dorActivationUptime = d })
}

func defaultConfig() *config {
	return &config{
		mnfaThreshold:       DefaultMNFAThreshold,
		mnfaTimeout:         DefaultMNFATimeout,
		heartbeatMissLimit:  DefaultHeartbeatMissLimit,
		dorBaseTimeout:      DefaultDORBaseTimeout,
		dorPerHostIncrement: DefaultDORPerHostIncrement,
		dorActivationUptime: DefaultDORActivationUptime,
	}
}
