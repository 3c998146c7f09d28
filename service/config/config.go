// SPDX-License-Identifier: BSD-3-Clause

// Package config loads and validates the maintenance core's startup
// configuration: one INI-shaped file read once at process start, decoded
// with github.com/BurntSushi/toml into the section structs below.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// AgentConfig holds the [agent] section: ports, refresh rates, and the
// autorecovery thresholds keyed by failure cause.
type AgentConfig struct {
	MtcAgentPort          int            `toml:"mtc_agent_port"`
	MtcToHBSCmdPort       int            `toml:"mtc_to_hbs_cmd_port"`
	MtcToGuestCmdPort     int            `toml:"mtc_to_guest_cmd_port"`
	HBSToMtcEventPort     int            `toml:"hbs_to_mtc_event_port"`
	KeystonePort          int            `toml:"keystone_port"`
	HAPort                int            `toml:"ha_port"`
	InvEventPort          int            `toml:"inv_event_port"`
	TokenRefreshRate      time.Duration  `toml:"token_refresh_rate"`
	APIRetries            int            `toml:"api_retries"`
	BMCResetDelay         time.Duration  `toml:"bmc_reset_delay"`
	AutorecoveryThreshold int            `toml:"autorecovery_threshold"`
	OfflinePeriod         time.Duration  `toml:"offline_period"`
	OfflineThreshold      int            `toml:"offline_threshold"`
	ARThreshold           map[string]int `toml:"ar_threshold"`
	ARInterval            map[string]int `toml:"ar_interval"`
	HeartbeatFailureAction string        `toml:"heartbeat_failure_action"`
	MNFAThreshold         int            `toml:"mnfa_threshold"`
}

// ClientConfig holds the [client] section: the ports the daemon listens on
// for downstream collaborator traffic.
type ClientConfig struct {
	HwmonCmdPort    int `toml:"hwmon_cmd_port"`
	DaemonLogPort   int `toml:"daemon_log_port"`
	MtcRxMgmntPort  int `toml:"mtc_rx_mgmnt_port"`
	MtcRxClstrPort  int `toml:"mtc_rx_clstr_port"`
}

// TimeoutsConfig holds the [timeouts] section.
type TimeoutsConfig struct {
	FailsafeShutdownDelay     time.Duration `toml:"failsafe_shutdown_delay"`
	MNFATimeout               time.Duration `toml:"mnfa_timeout"`
	DORModeTimeout            time.Duration `toml:"dor_mode_timeout"`
	LocRecoveryTimeout        time.Duration `toml:"loc_recovery_timeout"`
	GoEnabledTimeout          time.Duration `toml:"goenabled_timeout"`
	ControllerMtcAliveTimeout time.Duration `toml:"controller_mtcalive_timeout"`
	ComputeMtcAliveTimeout    time.Duration `toml:"compute_mtcalive_timeout"`
	NodeReinstallTimeout      time.Duration `toml:"node_reinstall_timeout"`
	SwactTimeout              time.Duration `toml:"swact_timeout"`
	WorkQueueTimeout          time.Duration `toml:"work_queue_timeout"`
	SysinvTimeout             time.Duration `toml:"sysinv_timeout"`
	SysinvNoncritTimeout      time.Duration `toml:"sysinv_noncrit_timeout"`
}

// Config is the maintenance core's full startup configuration.
type Config struct {
	Agent    AgentConfig    `toml:"agent"`
	Client   ClientConfig   `toml:"client"`
	Timeouts TimeoutsConfig `toml:"timeouts"`
}

// requiredKey names a key this package insists on before starting, and the
// bit it occupies in the validation bitmask.
type requiredKey struct {
	bit  uint64
	name string
	set  func(c *Config) bool
}

var requiredKeys = []requiredKey{
	{1 << 0, "agent.mtc_agent_port", func(c *Config) bool { return c.Agent.MtcAgentPort != 0 }},
	{1 << 1, "agent.mtc_to_hbs_cmd_port", func(c *Config) bool { return c.Agent.MtcToHBSCmdPort != 0 }},
	{1 << 2, "agent.hbs_to_mtc_event_port", func(c *Config) bool { return c.Agent.HBSToMtcEventPort != 0 }},
	{1 << 3, "agent.offline_period", func(c *Config) bool { return c.Agent.OfflinePeriod != 0 }},
	{1 << 4, "agent.offline_threshold", func(c *Config) bool { return c.Agent.OfflineThreshold != 0 }},
	{1 << 5, "timeouts.goenabled_timeout", func(c *Config) bool { return c.Timeouts.GoEnabledTimeout != 0 }},
	{1 << 6, "timeouts.controller_mtcalive_timeout", func(c *Config) bool { return c.Timeouts.ControllerMtcAliveTimeout != 0 }},
	{1 << 7, "timeouts.compute_mtcalive_timeout", func(c *Config) bool { return c.Timeouts.ComputeMtcAliveTimeout != 0 }},
	{1 << 8, "timeouts.swact_timeout", func(c *Config) bool { return c.Timeouts.SwactTimeout != 0 }},
	{1 << 9, "timeouts.work_queue_timeout", func(c *Config) bool { return c.Timeouts.WorkQueueTimeout != 0 }},
}

// Load decodes the TOML file at path and validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecodeFailed, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a Config with the teacher-grade fallback values filled in;
// Load overlays whatever the TOML file sets on top of these.
func Default() *Config {
	return &Config{
		Agent: AgentConfig{
			TokenRefreshRate: time.Hour,
			APIRetries:       3,
			BMCResetDelay:    5 * time.Second,
			OfflinePeriod:    100 * time.Millisecond,
			OfflineThreshold: 10,
			MNFAThreshold:    2,
		},
		Timeouts: TimeoutsConfig{
			FailsafeShutdownDelay:     30 * time.Second,
			MNFATimeout:               5 * time.Minute,
			DORModeTimeout:            10 * time.Minute,
			LocRecoveryTimeout:        30 * time.Second,
			GoEnabledTimeout:          300 * time.Second,
			ControllerMtcAliveTimeout: 30 * time.Second,
			ComputeMtcAliveTimeout:    20 * time.Second,
			NodeReinstallTimeout:      30 * time.Minute,
			SwactTimeout:              90 * time.Second,
			WorkQueueTimeout:          30 * time.Second,
			SysinvTimeout:             30 * time.Second,
			SysinvNoncritTimeout:      15 * time.Second,
		},
	}
}

// Validate checks every required key against the bitmask and fails startup
// with the names of whatever is missing.
func (c *Config) Validate() error {
	var mask uint64
	var missing []string

	for _, k := range requiredKeys {
		if k.set(c) {
			mask |= k.bit
		} else {
			missing = append(missing, k.name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrMissingRequiredKeys, missing)
	}

	return nil
}
