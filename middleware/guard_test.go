package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	gatehouse "github.com/signably/gatehouse"
	"github.com/signably/gatehouse/access"
	"github.com/signably/gatehouse/permission"
	"github.com/signably/gatehouse/settings"
)

type passwordVerifier map[string]string

func (v passwordVerifier) VerifyCredentials(_ context.Context, identity, password string) error {
	if v[identity] == password {
		return nil
	}
	return gatehouse.ErrInvalidCredentials
}

type grantCaller map[string]bool

func (grantCaller) HasRole(string) bool              { return false }
func (c grantCaller) HasPermission(name string) bool { return c[name] }
func (grantCaller) Can(string, string) bool          { return false }

type callerTable map[string]permission.Caller

func (t callerTable) ResolveCaller(_ context.Context, subject string) (permission.Caller, error) {
	caller, ok := t[subject]
	if !ok {
		return nil, errors.New("unknown subject")
	}
	return caller, nil
}

func newTestEngine(t *testing.T) *gatehouse.Engine {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo, err := settings.NewRedisRepository(client, "test")
	if err != nil {
		t.Fatalf("NewRedisRepository: %v", err)
	}

	cfg := gatehouse.Config{
		Token: gatehouse.TokenConfig{
			SigningKey: []byte("0123456789abcdef0123456789abcdef"),
			Issuer:     "gatehouse-test",
		},
		Access:   gatehouse.AccessConfig{PublicPathPrefixes: []string{"/auth/"}},
		Settings: gatehouse.SettingsConfig{SeedOnBuild: true},
	}

	engine, err := gatehouse.New().
		WithConfig(cfg).
		WithRepository(repo).
		WithCredentialVerifier(passwordVerifier{"alice@example.com": "Sup3r-secret"}).
		WithCallerResolver(callerTable{
			"alice@example.com": grantCaller{"documents.read": true},
		}).
		WithRuleSource(access.StaticSource{
			{Method: "GET", Path: "/documents", RequireAuth: true,
				PermissionType: access.PermissionName, PermissionName: "documents.read"},
			{Method: "DELETE", Path: "/documents", RequireAuth: true,
				PermissionType: access.PermissionName, PermissionName: "documents.delete"},
		}).
		WithLogger(zap.NewNop()).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func newTestServer(t *testing.T, engine *gatehouse.Engine) http.Handler {
	t.Helper()

	return Guard(engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, ok := PrincipalFromContext(r.Context()); ok {
			_, _ = io.WriteString(w, p.Subject)
			return
		}
		_, _ = io.WriteString(w, "anonymous")
	}))
}

func TestGuardPublicPathSkipsAuth(t *testing.T) {
	handler := newTestServer(t, newTestEngine(t))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/auth/login", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "anonymous" {
		t.Fatalf("body = %q", got)
	}
}

func TestGuardRequiresAuthentication(t *testing.T) {
	handler := newTestServer(t, newTestEngine(t))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/documents", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "authentication required") {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestGuardAllowsAuthorizedCaller(t *testing.T) {
	engine := newTestEngine(t)
	handler := newTestServer(t, engine)

	pair, err := engine.Login(context.Background(), "alice@example.com", "Sup3r-secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	req := httptest.NewRequest("GET", "/documents", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Body.String(); got != "alice@example.com" {
		t.Fatalf("body = %q", got)
	}
}

func TestGuardForbidsInsufficientPrivilege(t *testing.T) {
	engine := newTestEngine(t)
	handler := newTestServer(t, engine)

	pair, err := engine.Login(context.Background(), "alice@example.com", "Sup3r-secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	req := httptest.NewRequest("DELETE", "/documents", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "insufficient privilege") {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestGuardRejectsInvalidToken(t *testing.T) {
	handler := newTestServer(t, newTestEngine(t))

	req := httptest.NewRequest("GET", "/documents", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
