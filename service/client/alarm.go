// SPDX-License-Identifier: BSD-3-Clause

package client

import (
	"context"
	"fmt"
)

// Severity is an alarm's configured severity.
type Severity string

const (
	SeverityClear    Severity = "clear"
	SeverityWarning  Severity = "warning"
	SeverityMinor    Severity = "minor"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
)

// AlarmID is one of the stable alarm identifiers (spec.md §6).
type AlarmID string

const (
	AlarmLock     AlarmID = "MTC_ALARM_ID__LOCK"
	AlarmConfig   AlarmID = "MTC_ALARM_ID__CONFIG"
	AlarmEnable   AlarmID = "MTC_ALARM_ID__ENABLE"
	AlarmBM       AlarmID = "MTC_ALARM_ID__BM"
	AlarmChCont   AlarmID = "MTC_ALARM_ID__CH_CONT"
	AlarmChComp   AlarmID = "MTC_ALARM_ID__CH_COMP"
)

// alarmMeta is the canonical metadata for one alarm identifier.
type alarmMeta struct {
	Name          string
	ProbableCause string
	ReasonText    string
	RepairAction  string
}

// alarmTable is the canonical set of alarm metadata, one entry per AlarmID.
// It replaces the source's global alarm table with a package-level map
// looked up by value rather than mutated in place.
var alarmTable = map[AlarmID]alarmMeta{
	AlarmLock: {
		Name:          "host-locked",
		ProbableCause: "administrative-action",
		ReasonText:    "host %s has been administratively locked",
		RepairAction:  "unlock the host to restore service",
	},
	AlarmConfig: {
		Name:          "host-configuration-failure",
		ProbableCause: "configuration-out-of-date",
		ReasonText:    "host %s configuration is out of date",
		RepairAction:  "apply configuration and re-enable the host",
	},
	AlarmEnable: {
		Name:          "host-enable-failure",
		ProbableCause: "underlying-resource-unavailable",
		ReasonText:    "host %s failed to enable",
		RepairAction:  "investigate host connectivity and retry enable",
	},
	AlarmBM: {
		Name:          "bmc-unreachable",
		ProbableCause: "communication-subsystem-failure",
		ReasonText:    "board management controller for host %s is unreachable",
		RepairAction:  "verify BMC network connectivity and credentials",
	},
	AlarmChCont: {
		Name:          "compute-function-controller-failure",
		ProbableCause: "underlying-resource-unavailable",
		ReasonText:    "controller subfunction on host %s failed to enable",
		RepairAction:  "investigate subfunction host services",
	},
	AlarmChComp: {
		Name:          "compute-function-failure",
		ProbableCause: "underlying-resource-unavailable",
		ReasonText:    "worker subfunction on host %s failed to enable",
		RepairAction:  "investigate subfunction host services",
	},
}

// AlarmClient raises and clears alarms against the fault-management
// service. It does not update any host's alarm map (inventory.Host.Alarms).
type AlarmClient struct {
	http    *HTTPClient
	baseURL string
}

// NewAlarmClient creates an AlarmClient bound to baseURL.
func NewAlarmClient(baseURL string) *AlarmClient {
	return &AlarmClient{http: NewHTTPClient(0), baseURL: baseURL}
}

type alarmEvent struct {
	AlarmID       AlarmID  `json:"alarm_id"`
	EntityID      string   `json:"entity_id"`
	Severity      Severity `json:"severity"`
	ProbableCause string   `json:"probable_cause"`
	ReasonText    string   `json:"reason_text"`
	RepairAction  string   `json:"repair_action"`
}

// Raise publishes an alarm at the given severity for hostname, using the
// canonical metadata for id.
func (c *AlarmClient) Raise(ctx context.Context, id AlarmID, hostname string, severity Severity) error {
	meta, ok := alarmTable[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAlarmID, id)
	}

	event := alarmEvent{
		AlarmID:       id,
		EntityID:      hostname,
		Severity:      severity,
		ProbableCause: meta.ProbableCause,
		ReasonText:    fmt.Sprintf(meta.ReasonText, hostname),
		RepairAction:  meta.RepairAction,
	}

	req := &Request{Method: "POST", URL: c.baseURL + "/v1/alarms", Payload: event}
	return c.http.Do(ctx, req)
}

// Clear is idempotent: it raises the same alarm at SeverityClear, which the
// fault-management service treats as a clear regardless of prior state.
func (c *AlarmClient) Clear(ctx context.Context, id AlarmID, hostname string) error {
	return c.Raise(ctx, id, hostname, SeverityClear)
}
