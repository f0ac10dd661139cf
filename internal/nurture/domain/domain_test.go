package domain

import "testing"

func TestTerminalStatuses(t *testing.T) {
	cases := []struct {
		status   Status
		terminal bool
	}{
		{StatusActive, false},
		{StatusSnoozed, false},
		{StatusEngaged, true},
		{StatusStopped, true},
		{StatusClosed, true},
	}
	for _, tc := range cases {
		if got := IsTerminalStatus(tc.status); got != tc.terminal {
			t.Errorf("IsTerminalStatus(%s) = %v, want %v", tc.status, got, tc.terminal)
		}
	}
}

func TestSweepableStatuses(t *testing.T) {
	for _, s := range []Status{StatusActive, StatusSnoozed} {
		if !IsSweepable(s) {
			t.Errorf("IsSweepable(%s) = false, want true", s)
		}
	}
	for _, s := range []Status{StatusEngaged, StatusStopped, StatusClosed} {
		if IsSweepable(s) {
			t.Errorf("IsSweepable(%s) = true, want false", s)
		}
	}
}

func TestValidation(t *testing.T) {
	if !IsValidStatus(StatusActive) || IsValidStatus(Status("PAUSED")) {
		t.Error("status validation broken")
	}
	if !IsValidStage(StageLongTerm) || IsValidStage(Stage("DAY_99")) {
		t.Error("stage validation broken")
	}
}
