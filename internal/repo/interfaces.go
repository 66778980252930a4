package repo

import (
	"context"
	"errors"
	"time"

	"github.com/PNOGillespie/aiidalab-qe/internal/domain"
)

var ErrNotFound = errors.New("not found")

type RunFilter struct {
	Property string
	State    domain.RunState
	Limit    int
}

// RunRepository manages persisted run records.
type RunRepository interface {
	CreateRun(ctx context.Context, run domain.RunRecord) error
	GetRun(ctx context.Context, id string) (domain.RunRecord, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]domain.RunRecord, error)
	UpdateRunState(ctx context.Context, id string, state domain.RunState, exitStatus int, endedAt *time.Time) error
}
