package auditlog

import (
	"context"
	"database/sql"
	"net"
	"strings"

	"github.com/PNOGillespie/aiidalab-qe/internal/platform/auth"
)

// InsertAuthDeny records a rejected request. Denials carry no run id;
// the request path and the denial reason go into the detail document.
func InsertAuthDeny(ctx context.Context, db *sql.DB, service string, event auth.DenyEvent) error {
	actor := strings.TrimSpace(event.Subject)
	if actor == "" {
		actor = "anonymous"
	}

	var ip net.IP
	if host, _, err := net.SplitHostPort(event.RemoteAddr); err == nil {
		ip = net.ParseIP(host)
	}

	_, err := Insert(ctx, db, Event{
		OccurredAt: event.Time,
		Actor:      actor,
		Action:     "auth." + strings.TrimSpace(event.Reason),
		RequestID:  event.RequestID,
		IP:         ip,
		UserAgent:  event.UserAgent,
		Detail: map[string]any{
			"service": service,
			"method":  event.Method,
			"path":    event.Path,
			"status":  event.Status,
			"reason":  event.Reason,
			"error":   event.Error,
			"subject": event.Subject,
			"email":   event.Email,
			"roles":   event.Roles,
		},
	})
	return err
}
