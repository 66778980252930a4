package auth

import (
	"errors"
	"net/http"
	"strings"
)

var ErrForbidden = errors.New("forbidden")

// Role ladder, weakest first. Viewers browse runs, editors submit them,
// admins exist for operational tooling.
const (
	RoleViewer = "viewer"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

var roleOrder = []string{RoleViewer, RoleEditor, RoleAdmin}

func roleRank(role string) int {
	role = strings.ToLower(strings.TrimSpace(role))
	for i, known := range roleOrder {
		if role == known {
			return i + 1
		}
	}
	return 0
}

func HasAtLeast(roles []string, required string) bool {
	need := roleRank(required)
	if need == 0 {
		return false
	}
	for _, role := range roles {
		if roleRank(role) >= need {
			return true
		}
	}
	return false
}

// RequiredRoleForRequest maps a request to the weakest role that may
// perform it. Reads need viewer; so does the blockers preview, which
// inspects a candidate selection without submitting anything. Everything
// else mutates state and needs editor.
func RequiredRoleForRequest(r *http.Request) string {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return RoleViewer
	}
	if strings.HasSuffix(r.URL.Path, ":blockers") {
		return RoleViewer
	}
	return RoleEditor
}
