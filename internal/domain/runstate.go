package domain

import "strings"

// RunState is the coarse lifecycle state of one submitted run, persisted
// alongside the run record. It is distinct from the orchestrator's internal
// stage machine: a run in state "running" may be at any orchestration stage.
type RunState string

const (
	RunStateCreated   RunState = "created"
	RunStateSubmitted RunState = "submitted"
	RunStateRunning   RunState = "running"
	RunStateFinished  RunState = "finished"
	RunStateExcepted  RunState = "excepted"
)

// NormalizeRunState maps free-form status values to canonical run states.
func NormalizeRunState(value string) RunState {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(RunStateCreated), "pending":
		return RunStateCreated
	case string(RunStateSubmitted):
		return RunStateSubmitted
	case string(RunStateRunning):
		return RunStateRunning
	case string(RunStateFinished):
		return RunStateFinished
	case string(RunStateExcepted), "failed":
		return RunStateExcepted
	default:
		return ""
	}
}

// CanTransitionRunState enforces forward-only state progression.
func CanTransitionRunState(current, next RunState) bool {
	if current == "" || next == "" {
		return false
	}
	if current == next {
		return true
	}
	return runStateOrder(current) < runStateOrder(next)
}

func runStateOrder(state RunState) int {
	switch state {
	case RunStateCreated:
		return 1
	case RunStateSubmitted:
		return 2
	case RunStateRunning:
		return 3
	case RunStateFinished, RunStateExcepted:
		return 4
	default:
		return 0
	}
}
