package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type ctxKeySessionID struct{}

// ErrSessionRequired indicates a request that must carry an interactive
// session identifier but does not.
var ErrSessionRequired = errors.New("session_id_required")

// SessionResolver extracts the interactive session identifier for the
// request. The session scopes the one-in-flight submission gate.
type SessionResolver func(r *http.Request, identity Identity) (string, error)

func ContextWithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ctxKeySessionID{}, strings.TrimSpace(sessionID))
}

func SessionIDFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(ctxKeySessionID{}).(string)
	return strings.TrimSpace(value), ok
}

// SessionIDFromRequest checks the header and query for a session id.
func SessionIDFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if v := strings.TrimSpace(r.Header.Get("X-Session-Id")); v != "" {
		return v
	}
	if v := strings.TrimSpace(r.Header.Get("X-Session-ID")); v != "" {
		return v
	}
	if v := strings.TrimSpace(r.URL.Query().Get("session_id")); v != "" {
		return v
	}
	return ""
}

// RequireSessionIDResolver enforces session scoping for requests except
// listed prefixes.
func RequireSessionIDResolver(skipPrefixes []string) SessionResolver {
	return func(r *http.Request, identity Identity) (string, error) {
		for _, prefix := range skipPrefixes {
			if strings.HasPrefix(r.URL.Path, prefix) {
				return "", nil
			}
		}
		sessionID := SessionIDFromRequest(r)
		if sessionID == "" {
			return "", ErrSessionRequired
		}
		return sessionID, nil
	}
}
