package model

import "strings"

// ReportStatus is the lifecycle state of a report. It is the single status
// vocabulary for both the authority path and the community poll path.
type ReportStatus string

const (
	ReportStatusActive   ReportStatus = "Active"
	ReportStatusVerified ReportStatus = "Verified"
	ReportStatusResolved ReportStatus = "Resolved"
	ReportStatusRejected ReportStatus = "Rejected"
	ReportStatusFake     ReportStatus = "Fake Report"
)

// legacyStatuses maps the older authority-verification vocabulary onto ReportStatus
var legacyStatuses = map[string]ReportStatus{
	"pending":  ReportStatusActive,
	"verified": ReportStatusVerified,
	"resolved": ReportStatusResolved,
	"rejected": ReportStatusRejected,
}

// LegacyStatusMapping returns a copy of the legacy→current status mapping
func LegacyStatusMapping() map[string]ReportStatus {
	out := make(map[string]ReportStatus, len(legacyStatuses))
	for k, v := range legacyStatuses {
		out[k] = v
	}
	return out
}

// ParseReportStatus accepts current values verbatim and legacy lowercase values
// via the legacy mapping. The second result is false for unknown input.
func ParseReportStatus(s string) (ReportStatus, bool) {
	switch st := ReportStatus(s); st {
	case ReportStatusActive, ReportStatusVerified, ReportStatusResolved, ReportStatusRejected, ReportStatusFake:
		return st, true
	}
	if st, ok := legacyStatuses[strings.ToLower(strings.TrimSpace(s))]; ok {
		return st, true
	}
	return "", false
}

// IsValid reports whether s is one of the current statuses
func (s ReportStatus) IsValid() bool {
	switch s {
	case ReportStatusActive, ReportStatusVerified, ReportStatusResolved, ReportStatusRejected, ReportStatusFake:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are permitted
func (s ReportStatus) IsTerminal() bool {
	return s == ReportStatusResolved || s == ReportStatusFake || s == ReportStatusRejected
}

// IsOpen reports whether the report still accepts votes and can expire
func (s ReportStatus) IsOpen() bool {
	return s == ReportStatusActive || s == ReportStatusVerified
}

// OpenStatuses lists the non-terminal statuses
func OpenStatuses() []ReportStatus {
	return []ReportStatus{ReportStatusActive, ReportStatusVerified}
}

// TransitionPath identifies who is driving a status change
type TransitionPath string

const (
	// PathAuthority is police/municipal verification or rejection
	PathAuthority TransitionPath = "authority"
	// PathManual is a reporter or admin using the status endpoint
	PathManual TransitionPath = "manual"
	// PathCommunity is a poll vote
	PathCommunity TransitionPath = "community"
	// PathScheduler is the expiry sweep
	PathScheduler TransitionPath = "scheduler"
)

// transitions lists, per path, the allowed targets from each source state.
// Terminal states have no entries on any path.
var transitions = map[TransitionPath]map[ReportStatus][]ReportStatus{
	PathAuthority: {
		ReportStatusActive:   {ReportStatusVerified, ReportStatusRejected},
		ReportStatusVerified: {ReportStatusResolved, ReportStatusRejected},
	},
	PathManual: {
		ReportStatusActive:   {ReportStatusActive, ReportStatusResolved, ReportStatusFake},
		ReportStatusVerified: {ReportStatusResolved, ReportStatusFake},
	},
	PathCommunity: {
		ReportStatusActive:   {ReportStatusResolved, ReportStatusFake},
		ReportStatusVerified: {ReportStatusResolved, ReportStatusFake},
	},
	PathScheduler: {
		ReportStatusActive:   {ReportStatusResolved},
		ReportStatusVerified: {ReportStatusResolved},
	},
}

// CanTransitionTo reports whether moving from s to next is allowed on the given path
func (s ReportStatus) CanTransitionTo(next ReportStatus, path TransitionPath) bool {
	for _, allowed := range transitions[path][s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ManualStatuses are the targets accepted by the status endpoint
func ManualStatuses() []ReportStatus {
	return []ReportStatus{ReportStatusActive, ReportStatusResolved, ReportStatusFake}
}
