// SPDX-License-Identifier: BSD-3-Clause

package config

import "time"

// Option mutates a Config built from Default(), the same pattern used by
// every service/*/config.go in this tree, for callers (mainly tests) that
// want to construct a Config without writing a TOML file.
type Option interface {
	apply(*Config)
}

type optionFunc func(*Config)

func (f optionFunc) apply(c *Config) { f(c) }

// WithAgentPort sets agent.mtc_agent_port.
func WithAgentPort(port int) Option {
	return optionFunc(func(c *Config) { c.Agent.MtcAgentPort = port })
}

// WithHBSCmdPort sets agent.mtc_to_hbs_cmd_port.
func WithHBSCmdPort(port int) Option {
	return optionFunc(func(c *Config) { c.Agent.MtcToHBSCmdPort = port })
}

// WithHBSEventPort sets agent.hbs_to_mtc_event_port.
func WithHBSEventPort(port int) Option {
	return optionFunc(func(c *Config) { c.Agent.HBSToMtcEventPort = port })
}

// WithOfflinePeriod sets agent.offline_period.
func WithOfflinePeriod(period time.Duration) Option {
	return optionFunc(func(c *Config) { c.Agent.OfflinePeriod = period })
}

// WithOfflineThreshold sets agent.offline_threshold.
func WithOfflineThreshold(threshold int) Option {
	return optionFunc(func(c *Config) { c.Agent.OfflineThreshold = threshold })
}

// WithMNFAThreshold sets agent.mnfa_threshold.
func WithMNFAThreshold(threshold int) Option {
	return optionFunc(func(c *Config) { c.Agent.MNFAThreshold = threshold })
}

// WithSwactTimeout sets timeouts.swact_timeout.
func WithSwactTimeout(timeout time.Duration) Option {
	return optionFunc(func(c *Config) { c.Timeouts.SwactTimeout = timeout })
}

// WithGoEnabledTimeout sets timeouts.goenabled_timeout.
func WithGoEnabledTimeout(timeout time.Duration) Option {
	return optionFunc(func(c *Config) { c.Timeouts.GoEnabledTimeout = timeout })
}

// New builds a Config from Default() with opts applied, then validates it.
func New(opts ...Option) (*Config, error) {
	cfg := Default()
	for _, opt := range opts {
		opt.apply(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
