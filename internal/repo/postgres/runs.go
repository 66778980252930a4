package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/PNOGillespie/aiidalab-qe/internal/domain"
	"github.com/PNOGillespie/aiidalab-qe/internal/repo"
)

type RunStore struct {
	db DB
}

func NewRunStore(db DB) *RunStore {
	if db == nil {
		return nil
	}
	return &RunStore{db: db}
}

func (s *RunStore) CreateRun(ctx context.Context, run domain.RunRecord) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("run store not initialized")
	}
	if err := run.Validate(); err != nil {
		return err
	}
	propertiesJSON, err := encodeProperties(run.Properties)
	if err != nil {
		return fmt.Errorf("encode properties: %w", err)
	}
	createdAt := normalizeTime(run.CreatedAt)
	var endedAt sql.NullTime
	if run.EndedAt != nil {
		endedAt = sql.NullTime{Time: run.EndedAt.UTC(), Valid: true}
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO qe_runs (
			run_id,
			label,
			formula,
			properties,
			state,
			exit_status,
			ui_parameters,
			created_at,
			ended_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		strings.TrimSpace(run.ID),
		nullIfEmpty(run.Label),
		nullIfEmpty(run.Formula),
		propertiesJSON,
		string(run.State),
		run.ExitStatus,
		run.UIParameters,
		createdAt,
		endedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (s *RunStore) GetRun(ctx context.Context, id string) (domain.RunRecord, error) {
	if s == nil || s.db == nil {
		return domain.RunRecord{}, fmt.Errorf("run store not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.RunRecord{}, fmt.Errorf("run id is required")
	}
	row := s.db.QueryRowContext(
		ctx,
		`SELECT run_id, label, formula, properties, state, exit_status, ui_parameters, created_at, ended_at
		 FROM qe_runs
		 WHERE run_id = $1`,
		id,
	)
	return scanRun(row.Scan)
}

func (s *RunStore) ListRuns(ctx context.Context, filter repo.RunFilter) ([]domain.RunRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("run store not initialized")
	}
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 3)

	if strings.TrimSpace(filter.Property) != "" {
		args = append(args, strings.TrimSpace(filter.Property))
		clauses = append(clauses, fmt.Sprintf("properties ? $%d", len(args)))
	}
	if filter.State != "" {
		args = append(args, string(filter.State))
		clauses = append(clauses, fmt.Sprintf("state = $%d", len(args)))
	}

	query := `SELECT run_id, label, formula, properties, state, exit_status, ui_parameters, created_at, ended_at
		FROM qe_runs`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]domain.RunRecord, 0)
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

func (s *RunStore) UpdateRunState(ctx context.Context, id string, state domain.RunState, exitStatus int, endedAt *time.Time) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("run store not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("run id is required")
	}
	if domain.NormalizeRunState(string(state)) == "" {
		return fmt.Errorf("unknown run state %q", state)
	}
	var ended sql.NullTime
	if endedAt != nil {
		ended = sql.NullTime{Time: endedAt.UTC(), Valid: true}
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE qe_runs SET state = $1, exit_status = $2, ended_at = $3 WHERE run_id = $4`,
		string(state),
		exitStatus,
		ended,
		id,
	)
	if err != nil {
		return fmt.Errorf("update run state: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update run state: %w", err)
	}
	if rows == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func scanRun(scan func(dest ...any) error) (domain.RunRecord, error) {
	var run domain.RunRecord
	var label sql.NullString
	var formula sql.NullString
	var propertiesJSON []byte
	var state string
	var endedAt sql.NullTime
	if err := scan(&run.ID, &label, &formula, &propertiesJSON, &state, &run.ExitStatus, &run.UIParameters, &run.CreatedAt, &endedAt); err != nil {
		return domain.RunRecord{}, handleNotFound(err)
	}
	if label.Valid {
		run.Label = label.String
	}
	if formula.Valid {
		run.Formula = formula.String
	}
	if endedAt.Valid {
		ended := endedAt.Time.UTC()
		run.EndedAt = &ended
	}
	properties, err := decodeProperties(propertiesJSON)
	if err != nil {
		return domain.RunRecord{}, fmt.Errorf("decode properties: %w", err)
	}
	run.Properties = properties
	run.State = domain.NormalizeRunState(state)
	return run, nil
}

func nullIfEmpty(value string) sql.NullString {
	value = strings.TrimSpace(value)
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
