package auth

import (
	"context"
	"net/http"
)

type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) (Identity, error)
}

// DevAuthenticator trusts every request and stamps it with the identity
// configured through the DEV_AUTH_* variables. Local development only.
type DevAuthenticator struct {
	subject string
	email   string
	roles   []string
}

func NewDevAuthenticator(cfg Config) *DevAuthenticator {
	return &DevAuthenticator{
		subject: cfg.DevSubject,
		email:   cfg.DevEmail,
		roles:   append([]string(nil), cfg.DevRoles...),
	}
}

func (a *DevAuthenticator) Authenticate(ctx context.Context, r *http.Request) (Identity, error) {
	return Identity{
		Subject: a.subject,
		Email:   a.email,
		Roles:   append([]string(nil), a.roles...),
	}, nil
}
