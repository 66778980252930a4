// Package engine defines the execution surface the orchestrator drives.
// A workflow process is submitted once and then observed until it
// terminates; the engine never resubmits on its own.
package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/PNOGillespie/aiidalab-qe/internal/domain"
	"github.com/PNOGillespie/aiidalab-qe/internal/storage/workdir"
)

// ProcessSpec describes one workflow process submission.
type ProcessSpec struct {
	// WorkChain is the process type to run, e.g. "quantumespresso.pw.relax".
	WorkChain string
	// CallLink names the link under which the caller tracks this process.
	CallLink string
	// Label is a human-readable process label.
	Label string
	// Inputs is the full input namespace for the process.
	Inputs domain.Namespace
}

func (s ProcessSpec) Validate() error {
	if strings.TrimSpace(s.WorkChain) == "" {
		return errors.New("workchain is required")
	}
	if strings.TrimSpace(s.CallLink) == "" {
		return errors.New("call link is required")
	}
	if s.Inputs == nil {
		return errors.New("inputs are required")
	}
	return nil
}

// Descendant is one calculation called somewhere below a workflow process,
// with the remote working directory it left behind, if any.
type Descendant struct {
	ProcessID    string          `json:"process_id"`
	RemoteFolder *workdir.Folder `json:"remote_folder,omitempty"`
}

// Process is a handle on one submitted workflow process. Wait blocks until
// the process terminates; the observation methods are only meaningful after
// Wait has returned nil.
type Process interface {
	ID() string
	Wait(ctx context.Context) error
	FinishedOK() bool
	ExitStatus() int
	Outputs() domain.Namespace
	CalledDescendants() []Descendant
}

// Engine submits workflow processes to an execution backend.
type Engine interface {
	Submit(ctx context.Context, spec ProcessSpec) (Process, error)
}
