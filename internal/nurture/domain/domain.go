// Package domain provides core business rules for the nurture bounded context.
package domain

// Status is a lead's nurture status. It controls whether the sweep
// selects the lead and how inbound replies are routed.
type Status string

const (
	// StatusActive means the lead is in the automated drip sequence.
	StatusActive Status = "ACTIVE"
	// StatusEngaged means the lead replied positively and was handed to an agent.
	StatusEngaged Status = "ENGAGED"
	// StatusStopped means the lead opted out. Never message again.
	StatusStopped Status = "STOPPED"
	// StatusClosed means the lead declined and the sequence ended.
	StatusClosed Status = "CLOSED"
	// StatusSnoozed means the lead is parked until its lock expires.
	StatusSnoozed Status = "SNOOZED"
)

// Stage is a lead's position in the drip sequence.
type Stage string

const (
	StageDay1     Stage = "DAY_1"
	StageDay2     Stage = "DAY_2"
	StageDay3     Stage = "DAY_3"
	StageDay5     Stage = "DAY_5"
	StageDay7     Stage = "DAY_7"
	StageLongTerm Stage = "LONG_TERM"
)

var validStatuses = map[Status]bool{
	StatusActive:  true,
	StatusEngaged: true,
	StatusStopped: true,
	StatusClosed:  true,
	StatusSnoozed: true,
}

var validStages = map[Stage]bool{
	StageDay1:     true,
	StageDay2:     true,
	StageDay3:     true,
	StageDay5:     true,
	StageDay7:     true,
	StageLongTerm: true,
}

// terminalStatuses are statuses where no further automated sends occur.
var terminalStatuses = map[Status]bool{
	StatusStopped: true,
	StatusClosed:  true,
	StatusEngaged: true,
}

// IsValidStatus reports whether s is a known nurture status.
func IsValidStatus(s Status) bool { return validStatuses[s] }

// IsValidStage reports whether s is a known drip stage.
func IsValidStage(s Stage) bool { return validStages[s] }

// IsTerminalStatus reports whether the drip sequence has ended for a lead
// in this status. SNOOZED is not terminal: the sweep resumes it once its
// lock expires.
func IsTerminalStatus(s Status) bool { return terminalStatuses[s] }

// IsSweepable reports whether the sweep may select a lead in this status.
// SNOOZED is included because an expired snooze is released by clearing
// the lock, never by rewriting the status.
func IsSweepable(s Status) bool {
	return s == StatusActive || s == StatusSnoozed
}
