// SPDX-License-Identifier: BSD-3-Clause

package state

import "time"

// NewStateMachine creates an FSM from the provided options.
func NewStateMachine(opts ...Option) (*FSM, error) {
	config := NewConfig(opts...)
	return New(config)
}

// NewEnableStateMachine builds the per-host Enable action FSM (spec.md §4.4.1):
// discovery, configuration check, go-enable test, host-services launch, and a
// heartbeat soak before the host is declared enabled.
func NewEnableStateMachine(name string, opts ...Option) (*FSM, error) {
	baseOpts := []Option{
		WithName(name),
		WithDescription("Enable action FSM"),
		WithInitialState("start"),
		WithStates(
			StateDefinition{Name: "start"},
			StateDefinition{Name: "discover"},
			StateDefinition{Name: "config_check"},
			StateDefinition{Name: "goenable"},
			StateDefinition{Name: "host_services"},
			StateDefinition{Name: "heartbeat_soak"},
			StateDefinition{Name: "enabled"},
			StateDefinition{Name: "failed"},
		),
		WithTransitions(
			TransitionDefinition{From: "start", To: "discover", Trigger: "begin"},
			TransitionDefinition{From: "discover", To: "config_check", Trigger: "discovered"},
			TransitionDefinition{From: "config_check", To: "goenable", Trigger: "configured"},
			TransitionDefinition{From: "config_check", To: "failed", Trigger: "not_configured"},
			TransitionDefinition{From: "goenable", To: "host_services", Trigger: "goenable_pass"},
			TransitionDefinition{From: "goenable", To: "failed", Trigger: "goenable_fail"},
			TransitionDefinition{From: "host_services", To: "heartbeat_soak", Trigger: "host_services_pass"},
			TransitionDefinition{From: "host_services", To: "failed", Trigger: "host_services_fail"},
			TransitionDefinition{From: "heartbeat_soak", To: "enabled", Trigger: "soak_pass"},
			TransitionDefinition{From: "heartbeat_soak", To: "failed", Trigger: "soak_fail"},
			TransitionDefinition{From: "failed", To: "start", Trigger: "retry"},
			TransitionDefinition{From: "enabled", To: "start", Trigger: "disable_requested"},
		),
		WithStateTimeout(30 * time.Second),
	}

	allOpts := append(baseOpts, opts...)
	return NewStateMachine(allOpts...)
}

// NewGracefulRecoveryStateMachine builds the abbreviated re-enable path used
// after a transient loss of mtcAlive (spec.md §4.4.2): intest, go-enable,
// host-services, and a short heartbeat soak, with no full reset.
func NewGracefulRecoveryStateMachine(name string, opts ...Option) (*FSM, error) {
	baseOpts := []Option{
		WithName(name),
		WithDescription("Graceful recovery FSM"),
		WithInitialState("start"),
		WithStates(
			StateDefinition{Name: "start"},
			StateDefinition{Name: "mtc_alive_wait"},
			StateDefinition{Name: "intest"},
			StateDefinition{Name: "host_services"},
			StateDefinition{Name: "heartbeat_soak"},
			StateDefinition{Name: "recovered"},
			StateDefinition{Name: "force_full_enable"},
		),
		WithTransitions(
			TransitionDefinition{From: "start", To: "mtc_alive_wait", Trigger: "begin"},
			TransitionDefinition{From: "mtc_alive_wait", To: "intest", Trigger: "mtc_alive_received"},
			TransitionDefinition{From: "mtc_alive_wait", To: "force_full_enable", Trigger: "timeout"},
			TransitionDefinition{From: "intest", To: "host_services", Trigger: "goenable_pass"},
			TransitionDefinition{From: "intest", To: "force_full_enable", Trigger: "not_healthy"},
			TransitionDefinition{From: "host_services", To: "heartbeat_soak", Trigger: "host_services_pass"},
			TransitionDefinition{From: "host_services", To: "force_full_enable", Trigger: "host_services_fail"},
			TransitionDefinition{From: "heartbeat_soak", To: "recovered", Trigger: "soak_pass"},
			TransitionDefinition{From: "heartbeat_soak", To: "force_full_enable", Trigger: "soak_fail"},
			TransitionDefinition{From: "recovered", To: "start", Trigger: "reset"},
			TransitionDefinition{From: "force_full_enable", To: "start", Trigger: "reset"},
		),
		WithStateTimeout(15 * time.Second),
	}

	allOpts := append(baseOpts, opts...)
	return NewStateMachine(allOpts...)
}

// NewDisableStateMachine builds the per-host Disable action FSM (spec.md
// §4.4.3), including the Force-Lock reset-progression branch.
func NewDisableStateMachine(name string, opts ...Option) (*FSM, error) {
	baseOpts := []Option{
		WithName(name),
		WithDescription("Disable action FSM"),
		WithInitialState("start"),
		WithStates(
			StateDefinition{Name: "start"},
			StateDefinition{Name: "stop_host_services"},
			StateDefinition{Name: "reset_progression"},
			StateDefinition{Name: "wait_offline"},
			StateDefinition{Name: "disabled"},
		),
		WithTransitions(
			TransitionDefinition{From: "start", To: "stop_host_services", Trigger: "begin"},
			TransitionDefinition{From: "stop_host_services", To: "disabled", Trigger: "lock"},
			TransitionDefinition{From: "stop_host_services", To: "reset_progression", Trigger: "force_lock"},
			TransitionDefinition{From: "reset_progression", To: "wait_offline", Trigger: "reset_sent"},
			TransitionDefinition{From: "wait_offline", To: "disabled", Trigger: "offline_confirmed"},
		),
		WithStateTimeout(30 * time.Second),
	}

	allOpts := append(baseOpts, opts...)
	return NewStateMachine(allOpts...)
}

// NewSwactStateMachine builds the controller-activity-swap FSM (spec.md
// §4.4.8): query the HA manager, request Swact, poll until no active
// services remain on the outgoing controller.
func NewSwactStateMachine(name string, opts ...Option) (*FSM, error) {
	baseOpts := []Option{
		WithName(name),
		WithDescription("Swact FSM"),
		WithInitialState("start"),
		WithStates(
			StateDefinition{Name: "start"},
			StateDefinition{Name: "query"},
			StateDefinition{Name: "requested"},
			StateDefinition{Name: "polling"},
			StateDefinition{Name: "complete"},
			StateDefinition{Name: "failed"},
		),
		WithTransitions(
			TransitionDefinition{From: "start", To: "query", Trigger: "begin"},
			TransitionDefinition{From: "query", To: "requested", Trigger: "active_services_found"},
			TransitionDefinition{From: "query", To: "failed", Trigger: "query_failed"},
			TransitionDefinition{From: "requested", To: "polling", Trigger: "swact_sent"},
			TransitionDefinition{From: "polling", To: "complete", Trigger: "active_services_none"},
			TransitionDefinition{From: "polling", To: "failed", Trigger: "timeout"},
		),
		WithStateTimeout(60 * time.Second),
	}

	allOpts := append(baseOpts, opts...)
	return NewStateMachine(allOpts...)
}

// NewPowerStateMachine builds the Reset/Power/Powercycle family of FSMs
// (spec.md §4.4.4). Reset, Power and Powercycle share this one shape and
// trigger set; only the machine name differs, and the caller issues the
// matching BMC command itself.
func NewPowerStateMachine(name string, opts ...Option) (*FSM, error) {
	baseOpts := []Option{
		WithName(name),
		WithDescription("BMC power/reset action FSM"),
		WithInitialState("start"),
		WithStates(
			StateDefinition{Name: "start"},
			StateDefinition{Name: "command_sent"},
			StateDefinition{Name: "holdoff"},
			StateDefinition{Name: "soak"},
			StateDefinition{Name: "complete"},
			StateDefinition{Name: "failed"},
		),
		WithTransitions(
			TransitionDefinition{From: "start", To: "command_sent", Trigger: "bmc_command_send"},
			TransitionDefinition{From: "command_sent", To: "holdoff", Trigger: "bmc_command_pass"},
			TransitionDefinition{From: "command_sent", To: "start", Trigger: "bmc_command_retry"},
			TransitionDefinition{From: "command_sent", To: "failed", Trigger: "bmc_command_fail"},
			TransitionDefinition{From: "holdoff", To: "soak", Trigger: "holdoff_elapsed"},
			TransitionDefinition{From: "soak", To: "complete", Trigger: "online_confirmed"},
			TransitionDefinition{From: "soak", To: "failed", Trigger: "soak_timeout"},
		),
		WithStateTimeout(30 * time.Second),
	}

	allOpts := append(baseOpts, opts...)
	return NewStateMachine(allOpts...)
}

// NewSubfunctionEnableStateMachine builds the parallel subfunction-enable
// FSM run on combined controller+worker hosts after the main Enable FSM
// reaches its enabled state (spec.md §4.4.7).
func NewSubfunctionEnableStateMachine(name string, opts ...Option) (*FSM, error) {
	baseOpts := []Option{
		WithName(name),
		WithDescription("Subfunction-Enable FSM"),
		WithInitialState("start"),
		WithStates(
			StateDefinition{Name: "start"},
			StateDefinition{Name: "wait_subf_configured"},
			StateDefinition{Name: "goenable_subf"},
			StateDefinition{Name: "host_services_subf"},
			StateDefinition{Name: "heartbeat_soak_subf"},
			StateDefinition{Name: "enabled_subf"},
			StateDefinition{Name: "failed_subf"},
		),
		WithTransitions(
			TransitionDefinition{From: "start", To: "wait_subf_configured", Trigger: "begin"},
			TransitionDefinition{From: "wait_subf_configured", To: "goenable_subf", Trigger: "subf_configured"},
			TransitionDefinition{From: "goenable_subf", To: "host_services_subf", Trigger: "goenable_pass"},
			TransitionDefinition{From: "goenable_subf", To: "failed_subf", Trigger: "goenable_fail"},
			TransitionDefinition{From: "host_services_subf", To: "heartbeat_soak_subf", Trigger: "host_services_pass"},
			TransitionDefinition{From: "host_services_subf", To: "failed_subf", Trigger: "host_services_fail"},
			TransitionDefinition{From: "heartbeat_soak_subf", To: "enabled_subf", Trigger: "soak_pass"},
			TransitionDefinition{From: "heartbeat_soak_subf", To: "failed_subf", Trigger: "soak_fail"},
		),
		WithStateTimeout(30 * time.Second),
	}

	allOpts := append(baseOpts, opts...)
	return NewStateMachine(allOpts...)
}

// NewReinstallStateMachine builds the wipe-and-reinstall FSM (spec.md
// §4.4.5): send the wipe-disk command, wait for its acknowledgment, wait
// for the host to drop offline, then wait for it to come back online within
// the combined mtcAlive/reinstall timeout.
func NewReinstallStateMachine(name string, opts ...Option) (*FSM, error) {
	baseOpts := []Option{
		WithName(name),
		WithDescription("Reinstall FSM"),
		WithInitialState("start"),
		WithStates(
			StateDefinition{Name: "start"},
			StateDefinition{Name: "resp_wait"},
			StateDefinition{Name: "offline_wait"},
			StateDefinition{Name: "online_wait"},
			StateDefinition{Name: "msg_display"},
			StateDefinition{Name: "done"},
			StateDefinition{Name: "failed"},
		),
		WithTransitions(
			TransitionDefinition{From: "start", To: "resp_wait", Trigger: "wipe_disk_sent"},
			TransitionDefinition{From: "resp_wait", To: "offline_wait", Trigger: "wipe_disk_ack"},
			TransitionDefinition{From: "resp_wait", To: "failed", Trigger: "wipe_disk_nack"},
			TransitionDefinition{From: "offline_wait", To: "online_wait", Trigger: "offline_confirmed"},
			TransitionDefinition{From: "offline_wait", To: "failed", Trigger: "timeout"},
			TransitionDefinition{From: "online_wait", To: "msg_display", Trigger: "online_confirmed"},
			TransitionDefinition{From: "online_wait", To: "failed", Trigger: "timeout"},
			TransitionDefinition{From: "msg_display", To: "done", Trigger: "ack"},
		),
		WithStateTimeout(30 * time.Minute),
	}

	allOpts := append(baseOpts, opts...)
	return NewStateMachine(allOpts...)
}

// NewAuditStateMachine builds a four-state probe/result FSM shared by the
// always-on audits (Offline, Online, In-Service test, Out-of-Service test,
// spec.md §4.4.9): idle, waiting on a probe response, and a pass/fail
// outcome that loops back to idle on the next scheduled tick.
func NewAuditStateMachine(name string, opts ...Option) (*FSM, error) {
	baseOpts := []Option{
		WithName(name),
		WithDescription("audit FSM"),
		WithInitialState("idle"),
		WithStates(
			StateDefinition{Name: "idle"},
			StateDefinition{Name: "probing"},
			StateDefinition{Name: "pass"},
			StateDefinition{Name: "fail"},
		),
		WithTransitions(
			TransitionDefinition{From: "idle", To: "probing", Trigger: "scheduled"},
			TransitionDefinition{From: "probing", To: "pass", Trigger: "probe_pass"},
			TransitionDefinition{From: "probing", To: "fail", Trigger: "probe_fail"},
			TransitionDefinition{From: "pass", To: "idle", Trigger: "reset"},
			TransitionDefinition{From: "fail", To: "idle", Trigger: "reset"},
		),
		WithStateTimeout(10 * time.Second),
	}

	allOpts := append(baseOpts, opts...)
	return NewStateMachine(allOpts...)
}
