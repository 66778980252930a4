// Package auditlog appends run lifecycle and authentication events to an
// append-only table. Every row carries a checksum over its own canonical
// encoding so tampering with stored events is detectable offline.
package auditlog

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// Event is one audit record. Action follows a dotted scheme: run.submitted,
// run.finished, run.excepted for the submission lifecycle, auth.* for
// denied requests. RunID is empty for events not tied to a run.
type Event struct {
	OccurredAt time.Time
	Actor      string
	Action     string
	RunID      string
	RequestID  string
	IP         net.IP
	UserAgent  string
	Detail     map[string]any
}

type QueryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (e Event) Validate() error {
	if e.OccurredAt.IsZero() {
		return errors.New("OccurredAt is required")
	}
	if strings.TrimSpace(e.Actor) == "" {
		return errors.New("Actor is required")
	}
	if strings.TrimSpace(e.Action) == "" {
		return errors.New("Action is required")
	}
	return nil
}

func Insert(ctx context.Context, q QueryRower, event Event) (int64, error) {
	if q == nil {
		return 0, errors.New("queryer is required")
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := event.Validate(); err != nil {
		return 0, err
	}

	detail := event.Detail
	if detail == nil {
		detail = map[string]any{}
	}
	detailJSON, err := json.Marshal(detail)
	if err != nil {
		return 0, fmt.Errorf("marshal detail: %w", err)
	}

	var id int64
	err = q.QueryRowContext(
		ctx,
		`INSERT INTO qe_audit_events (
			occurred_at,
			actor,
			action,
			run_id,
			request_id,
			ip,
			user_agent,
			detail,
			checksum
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING event_id`,
		event.OccurredAt.UTC(),
		strings.TrimSpace(event.Actor),
		strings.TrimSpace(event.Action),
		nullIfBlank(event.RunID),
		nullIfBlank(event.RequestID),
		nullIfBlank(ipString(event.IP)),
		nullIfBlank(event.UserAgent),
		detailJSON,
		Checksum(event, detailJSON),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert audit event: %w", err)
	}
	return id, nil
}

// Checksum hashes the canonical field sequence of an event. Fields are
// NUL-separated so shifting content between adjacent fields changes the
// digest.
func Checksum(event Event, detailJSON []byte) string {
	h := sha256.New()
	for _, field := range []string{
		event.OccurredAt.UTC().Format(time.RFC3339Nano),
		strings.TrimSpace(event.Actor),
		strings.TrimSpace(event.Action),
		strings.TrimSpace(event.RunID),
		strings.TrimSpace(event.RequestID),
		ipString(event.IP),
		strings.TrimSpace(event.UserAgent),
		string(detailJSON),
	} {
		h.Write([]byte(field))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func ipString(ip net.IP) string {
	if ip == nil {
		return ""
	}
	return ip.String()
}

func nullIfBlank(value string) sql.NullString {
	value = strings.TrimSpace(value)
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
