// Package runs owns the submission lifecycle: blocker checks, builder
// construction, run persistence, orchestration, and state transitions.
package runs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/PNOGillespie/aiidalab-qe/internal/builder"
	"github.com/PNOGillespie/aiidalab-qe/internal/domain"
	"github.com/PNOGillespie/aiidalab-qe/internal/orchestrator"
	"github.com/PNOGillespie/aiidalab-qe/internal/platform/auditlog"
	"github.com/PNOGillespie/aiidalab-qe/internal/repo"
)

// BlockedError reports the advisory blockers that held back a submission.
type BlockedError struct {
	Blockers []string
}

func (e *BlockedError) Error() string {
	return "submission blocked: " + strings.Join(e.Blockers, "; ")
}

type AuditInfo struct {
	Actor     string
	RequestID string
	UserAgent string
	IP        net.IP
}

// SubmitRequest carries everything one submission needs.
type SubmitRequest struct {
	SessionID   string
	Structure   *domain.StructureData
	Parameters  *domain.ParametersDocument
	Codes       map[string]CodeInfo
	Environment Environment
	Audit       AuditInfo
}

type Service struct {
	runs    repo.RunRepository
	factory *builder.Factory
	orch    *orchestrator.Orchestrator
	gate    *Gate
	audit   auditlog.QueryRower
	logger  *slog.Logger
}

type Option func(*Service)

// WithAuditLog enables audit events for run state transitions.
func WithAuditLog(q auditlog.QueryRower) Option {
	return func(s *Service) { s.audit = q }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(runRepo repo.RunRepository, factory *builder.Factory, orch *orchestrator.Orchestrator, opts ...Option) *Service {
	if runRepo == nil || factory == nil || orch == nil {
		return nil
	}
	s := &Service{
		runs:    runRepo,
		factory: factory,
		orch:    orch,
		gate:    NewGate(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates, builds, persists, and executes one run, blocking until
// the run has terminated. The session slot is held for the whole duration
// so a session never has two runs in flight.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (domain.RunRecord, error) {
	if s == nil || s.runs == nil {
		return domain.RunRecord{}, fmt.Errorf("runs service not initialized")
	}
	if req.Structure == nil {
		return domain.RunRecord{}, errors.New("structure is required")
	}
	if req.Parameters == nil {
		return domain.RunRecord{}, errors.New("parameters document is required")
	}

	if blockers := SubmissionBlockers(req.Parameters, req.Codes, req.Environment); len(blockers) > 0 {
		return domain.RunRecord{}, &BlockedError{Blockers: blockers}
	}

	if err := s.gate.Acquire(req.SessionID); err != nil {
		return domain.RunRecord{}, err
	}
	defer s.gate.Release(req.SessionID)

	// Freeze the exact document the run is built from before any
	// consumption mutates it.
	doc, err := req.Parameters.Clone()
	if err != nil {
		return domain.RunRecord{}, err
	}
	doc.Codes = codeRefs(req.Codes)
	snapshot, err := doc.Snapshot()
	if err != nil {
		return domain.RunRecord{}, err
	}

	b, err := s.factory.Build(req.Structure, doc, nil)
	if err != nil {
		return domain.RunRecord{}, err
	}

	record := domain.RunRecord{
		ID:           uuid.NewString(),
		Label:        GenerateLabel(req.Structure.Formula(), doc.Workchain.RelaxType, doc.Workchain.Properties),
		Formula:      req.Structure.Formula(),
		Properties:   append([]string(nil), doc.Workchain.Properties...),
		State:        domain.RunStateCreated,
		UIParameters: snapshot,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.runs.CreateRun(ctx, record); err != nil {
		return domain.RunRecord{}, err
	}
	s.appendAudit(ctx, req.Audit, record.ID, "run.submitted")

	if err := s.transition(ctx, &record, domain.RunStateRunning, 0, nil); err != nil {
		return record, err
	}

	result, runErr := s.orch.Run(ctx, b)
	now := time.Now().UTC()
	if runErr != nil {
		if err := s.transition(ctx, &record, domain.RunStateExcepted, 0, &now); err != nil {
			s.log().Error("record run failure", "run_id", record.ID, "error", err)
		}
		s.appendAudit(ctx, req.Audit, record.ID, "run.excepted")
		return record, runErr
	}

	state := domain.RunStateFinished
	action := "run.finished"
	if result.ExitCode.Status != 0 {
		state = domain.RunStateExcepted
		action = "run.excepted"
	}
	if err := s.transition(ctx, &record, state, result.ExitCode.Status, &now); err != nil {
		return record, err
	}
	s.appendAudit(ctx, req.Audit, record.ID, action)
	return record, nil
}

func (s *Service) GetRun(ctx context.Context, id string) (domain.RunRecord, error) {
	if s == nil || s.runs == nil {
		return domain.RunRecord{}, fmt.Errorf("runs service not initialized")
	}
	return s.runs.GetRun(ctx, id)
}

func (s *Service) ListRuns(ctx context.Context, filter repo.RunFilter) ([]domain.RunRecord, error) {
	if s == nil || s.runs == nil {
		return nil, fmt.Errorf("runs service not initialized")
	}
	return s.runs.ListRuns(ctx, filter)
}

func (s *Service) transition(ctx context.Context, record *domain.RunRecord, next domain.RunState, exitStatus int, endedAt *time.Time) error {
	if !domain.CanTransitionRunState(record.State, next) {
		return fmt.Errorf("invalid run state transition %s -> %s", record.State, next)
	}
	if err := s.runs.UpdateRunState(ctx, record.ID, next, exitStatus, endedAt); err != nil {
		return err
	}
	record.State = next
	record.ExitStatus = exitStatus
	record.EndedAt = endedAt
	return nil
}

func (s *Service) appendAudit(ctx context.Context, info AuditInfo, runID, action string) {
	if s.audit == nil || strings.TrimSpace(info.Actor) == "" {
		return
	}
	_, err := auditlog.Insert(ctx, s.audit, auditlog.Event{
		Actor:     info.Actor,
		Action:    action,
		RunID:     runID,
		RequestID: info.RequestID,
		IP:        info.IP,
		UserAgent: info.UserAgent,
	})
	if err != nil {
		s.log().Warn("append audit event", "run_id", runID, "action", action, "error", err)
	}
}

func codeRefs(codes map[string]CodeInfo) map[string]string {
	refs := make(map[string]string, len(codes))
	for role, info := range codes {
		if strings.TrimSpace(info.Ref) == "" {
			continue
		}
		refs[role] = strings.TrimSpace(info.Ref)
	}
	return refs
}

func (s *Service) log() *slog.Logger {
	if s.logger == nil {
		return slog.Default()
	}
	return s.logger
}
