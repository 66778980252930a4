package domain

import "testing"

func TestNormalizeRunState(t *testing.T) {
	cases := map[string]RunState{
		"created":   RunStateCreated,
		"pending":   RunStateCreated,
		" Running ": RunStateRunning,
		"failed":    RunStateExcepted,
		"bogus":     "",
	}
	for value, want := range cases {
		if got := NormalizeRunState(value); got != want {
			t.Fatalf("NormalizeRunState(%q)=%q, want %q", value, got, want)
		}
	}
}

func TestCanTransitionRunStateForwardOnly(t *testing.T) {
	if !CanTransitionRunState(RunStateSubmitted, RunStateRunning) {
		t.Fatalf("submitted -> running should be allowed")
	}
	if !CanTransitionRunState(RunStateRunning, RunStateRunning) {
		t.Fatalf("self transition should be allowed")
	}
	if CanTransitionRunState(RunStateFinished, RunStateRunning) {
		t.Fatalf("finished -> running should be rejected")
	}
	if CanTransitionRunState("", RunStateRunning) {
		t.Fatalf("empty current state should be rejected")
	}
}

func TestPluginExitCodeNumbering(t *testing.T) {
	first := PluginExitCode("bands", 0)
	second := PluginExitCode("pdos", 1)
	if first.Status != 403 || second.Status != 404 {
		t.Fatalf("exit codes = %d, %d; want 403, 404", first.Status, second.Status)
	}
	if first.Label != "ERROR_SUB_PROCESS_FAILED_bands" {
		t.Fatalf("label=%q", first.Label)
	}
}
