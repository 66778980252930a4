package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// RunRecord is the persisted view of one submitted run. The UIParameters
// snapshot is the exact document the run was built from; it is written
// once at creation and never reparsed by the control plane.
type RunRecord struct {
	ID           string
	Label        string
	Formula      string
	Properties   []string
	State        RunState
	ExitStatus   int
	UIParameters []byte
	CreatedAt    time.Time
	EndedAt      *time.Time
}

func (r RunRecord) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("run id is required")
	}
	if NormalizeRunState(string(r.State)) == "" {
		return fmt.Errorf("unknown run state %q", r.State)
	}
	return nil
}
