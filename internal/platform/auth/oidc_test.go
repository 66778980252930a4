package auth

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"bearer", "Bearer abc.def", "abc.def"},
		{"lowercase scheme", "bearer abc", "abc"},
		{"padded", "  Bearer   tok  ", "tok"},
		{"wrong scheme", "Basic abc", ""},
		{"no token", "Bearer", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/v1/runs", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if got := bearerToken(r); got != tt.want {
				t.Fatalf("bearerToken(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestSafeReturnTo(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", "/"},
		{"/runs/abc", "/runs/abc"},
		{"https://evil.example/phish", "/"},
		{"//evil.example", "/"},
		{"relative/path", "/"},
		{"://bad", "/"},
	}
	for _, tt := range tests {
		if got := safeReturnTo(tt.raw); got != tt.want {
			t.Fatalf("safeReturnTo(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestLoginFlowCookieRoundTrip(t *testing.T) {
	s := &OIDCService{cfg: Config{
		SessionCookieSecure:   true,
		SessionCookieSameSite: "Lax",
	}}

	flow := loginFlow{
		State:    randomToken(),
		Verifier: randomToken(),
		Nonce:    randomToken(),
		ReturnTo: "/runs/0194f6a2",
	}

	rec := httptest.NewRecorder()
	if err := s.setFlowCookie(rec, flow); err != nil {
		t.Fatalf("setFlowCookie() error = %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != flowCookieName {
		t.Fatalf("cookies = %v, want single %s cookie", cookies, flowCookieName)
	}
	if !cookies[0].HttpOnly || !cookies[0].Secure {
		t.Fatal("flow cookie must be HttpOnly and Secure")
	}

	r := httptest.NewRequest(http.MethodGet, "/auth/callback", nil)
	r.AddCookie(cookies[0])
	got, err := s.flowFromCookie(r)
	if err != nil {
		t.Fatalf("flowFromCookie() error = %v", err)
	}
	if got != flow {
		t.Fatalf("flowFromCookie() = %+v, want %+v", got, flow)
	}
}

func TestFlowFromCookieRejectsIncomplete(t *testing.T) {
	s := &OIDCService{cfg: Config{SessionCookieSameSite: "Lax"}}

	rec := httptest.NewRecorder()
	if err := s.setFlowCookie(rec, loginFlow{State: "only-state"}); err != nil {
		t.Fatalf("setFlowCookie() error = %v", err)
	}
	r := httptest.NewRequest(http.MethodGet, "/auth/callback", nil)
	r.AddCookie(rec.Result().Cookies()[0])
	if _, err := s.flowFromCookie(r); err == nil {
		t.Fatal("flowFromCookie() accepted a flow without verifier and nonce")
	}

	bare := httptest.NewRequest(http.MethodGet, "/auth/callback", nil)
	if _, err := s.flowFromCookie(bare); err == nil {
		t.Fatal("flowFromCookie() accepted a request without the cookie")
	}
}

func TestRolesFromClaim(t *testing.T) {
	tests := []struct {
		name  string
		claim any
		want  []string
	}{
		{"list", []any{"Admin", " editor ", 7, ""}, []string{"admin", "editor"}},
		{"csv", "viewer, Editor", []string{"viewer", "editor"}},
		{"missing", nil, nil},
		{"wrong type", 42, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rolesFromClaim(tt.claim)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("rolesFromClaim(%v) = %v, want %v", tt.claim, got, tt.want)
			}
		})
	}
}
