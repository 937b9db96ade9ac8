package access

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/signably/gatehouse/settings"
)

type allowAllCaller struct{}

func (allowAllCaller) HasRole(string) bool       { return true }
func (allowAllCaller) HasPermission(string) bool { return true }
func (allowAllCaller) Can(string, string) bool   { return true }

type denyAllCaller struct{}

func (denyAllCaller) HasRole(string) bool       { return false }
func (denyAllCaller) HasPermission(string) bool { return false }
func (denyAllCaller) Can(string, string) bool   { return false }

func newTestStore(t *testing.T) *settings.Store {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo, err := settings.NewRedisRepository(client, "test")
	if err != nil {
		t.Fatalf("NewRedisRepository: %v", err)
	}
	store := settings.NewStore(repo, zap.NewNop())
	ctx := context.Background()
	if err := store.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := store.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	return store
}

func newTestResolver(t *testing.T, store *settings.Store, rules []Rule, prefixes ...string) *Resolver {
	t.Helper()

	r, err := NewResolver(StaticSource(rules), store, Config{PublicPrefixes: prefixes}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return r
}

func TestExactBeatsRegex(t *testing.T) {
	store := newTestStore(t)
	r := newTestResolver(t, store, []Rule{
		{Method: "GET", Path: `^/documents/.*$`, IsRegex: true,
			PermissionType: PermissionName, PermissionName: "documents.read", RequireAuth: true},
		{Method: "GET", Path: "/documents/public", RequireAuth: false},
	})

	// The exact rule has no capability constraint, so an unauthenticated
	// caller gets through even though the regex rule would demand a
	// permission.
	d := r.Resolve("GET", "/documents/public", nil)
	if !d.Allowed || d.Reason != ReasonRuleSatisfied {
		t.Fatalf("Resolve = %+v, want exact rule to win", d)
	}

	d = r.Resolve("GET", "/documents/42", nil)
	if d.Allowed || d.Reason != ReasonAuthRequired {
		t.Fatalf("Resolve = %+v, want auth-required from regex rule", d)
	}
}

func TestRegexTableOrder(t *testing.T) {
	store := newTestStore(t)
	r := newTestResolver(t, store, []Rule{
		{Method: "GET", Path: `^/reports/monthly$`, IsRegex: true,
			PermissionType: PermissionName, PermissionName: "reports.monthly"},
		{Method: "GET", Path: `^/reports/.*$`, IsRegex: true,
			PermissionType: PermissionName, PermissionName: "reports.any"},
	})

	d := r.Resolve("GET", "/reports/monthly", denyAllCaller{})
	if d.Rule == nil || d.Rule.PermissionName != "reports.monthly" {
		t.Fatalf("Resolve matched %+v, want first regex rule in table order", d.Rule)
	}
}

func TestPublicPrefixBypassesRules(t *testing.T) {
	store := newTestStore(t)
	r := newTestResolver(t, store, []Rule{
		{Method: "POST", Path: "/auth/login",
			PermissionType: PermissionName, PermissionName: "never.granted", RequireAuth: true},
	}, "/auth/", "/healthz")

	d := r.Resolve("POST", "/auth/login", nil)
	if !d.Allowed || d.Reason != ReasonPublicPath {
		t.Fatalf("Resolve = %+v, want public-path allow", d)
	}
	if d := r.Resolve("GET", "/healthz", nil); !d.Allowed {
		t.Fatalf("Resolve(/healthz) = %+v", d)
	}
}

func TestDefaultPolicyBothWays(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	r := newTestResolver(t, store, nil)

	// Seeded default is allow.
	d := r.Resolve("GET", "/unruled", nil)
	if !d.Allowed || d.Reason != ReasonDefaultAllow {
		t.Fatalf("Resolve = %+v, want default allow", d)
	}

	if err := store.Update(ctx, settings.KeyAccessDefaultAllow, "false"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := store.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if err := r.Reload(ctx); err != nil {
		t.Fatalf("resolver Reload: %v", err)
	}

	d = r.Resolve("GET", "/unruled", allowAllCaller{})
	if d.Allowed || d.Reason != ReasonNoRule {
		t.Fatalf("Resolve = %+v, want deny with no_rule", d)
	}
}

func TestCapabilityChecks(t *testing.T) {
	store := newTestStore(t)
	r := newTestResolver(t, store, []Rule{
		{Method: "DELETE", Path: "/templates/purge", RequireAuth: true,
			PermissionType: ActionResource, ActionCode: "delete", ResourceType: "template"},
	})

	d := r.Resolve("DELETE", "/templates/purge", nil)
	if d.Allowed || d.Reason != ReasonAuthRequired {
		t.Fatalf("unauthenticated: %+v, want auth required", d)
	}
	if d.Message() != "authentication required" {
		t.Fatalf("Message = %q", d.Message())
	}

	d = r.Resolve("DELETE", "/templates/purge", denyAllCaller{})
	if d.Allowed || d.Reason != ReasonForbidden {
		t.Fatalf("incapable caller: %+v, want forbidden", d)
	}
	if d.Message() != "authenticated but insufficient privilege" {
		t.Fatalf("Message = %q", d.Message())
	}

	d = r.Resolve("DELETE", "/templates/purge", allowAllCaller{})
	if !d.Allowed || d.Reason != ReasonRuleSatisfied {
		t.Fatalf("capable caller: %+v, want allow", d)
	}
}

func TestMethodWildcardAndMismatch(t *testing.T) {
	store := newTestStore(t)
	r := newTestResolver(t, store, []Rule{
		{Method: "*", Path: `^/admin/.*$`, IsRegex: true, RequireAuth: true},
	})

	for _, method := range []string{"GET", "POST", "DELETE"} {
		d := r.Resolve(method, "/admin/settings", nil)
		if d.Allowed || d.Reason != ReasonAuthRequired {
			t.Fatalf("Resolve(%s) = %+v, want wildcard method match", method, d)
		}
	}

	// A method-specific exact rule must not match other methods.
	r2 := newTestResolver(t, store, []Rule{
		{Method: "POST", Path: "/things", RequireAuth: true},
	})
	d := r2.Resolve("GET", "/things", nil)
	if d.Reason != ReasonDefaultAllow {
		t.Fatalf("Resolve(GET /things) = %+v, want default fallback", d)
	}
}

func TestReloadRejectsBadRegex(t *testing.T) {
	store := newTestStore(t)
	_, err := NewResolver(StaticSource([]Rule{
		{Method: "GET", Path: `([unclosed`, IsRegex: true},
	}), store, Config{}, zap.NewNop())
	if err == nil {
		t.Fatal("NewResolver accepted an invalid regex rule")
	}
}
