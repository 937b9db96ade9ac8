package gatehouse

import (
	"context"
	"errors"
	"testing"

	"github.com/signably/gatehouse/access"
	"github.com/signably/gatehouse/permission"
	"github.com/signably/gatehouse/settings"
)

func TestAuthorizeWithResolvedCaller(t *testing.T) {
	f := newTestEngine(t, nil)
	ctx := context.Background()

	pair, err := f.engine.Login(ctx, "alice@example.com", "Sup3r-secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	principal, err := f.engine.Authenticate(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	d := f.engine.Authorize(ctx, "GET", "/documents", principal.Caller)
	if !d.Allowed || d.Reason != access.ReasonRuleSatisfied {
		t.Fatalf("Authorize = %+v, want rule satisfied", d)
	}

	d = f.engine.Authorize(ctx, "GET", "/documents", nil)
	if d.Allowed || d.Reason != access.ReasonAuthRequired {
		t.Fatalf("Authorize(anonymous) = %+v, want auth required", d)
	}
	if got := f.engine.metrics.Value(MetricAuthorizeDeny); got != 1 {
		t.Fatalf("MetricAuthorizeDeny = %d, want 1", got)
	}
}

func TestAuthorizeDefaultPolicyAudited(t *testing.T) {
	f := newTestEngine(t, nil)
	ctx := context.Background()

	d := f.engine.Authorize(ctx, "GET", "/unruled", nil)
	if !d.Allowed || d.Reason != access.ReasonDefaultAllow {
		t.Fatalf("Authorize = %+v, want default allow", d)
	}
	if got := f.engine.metrics.Value(MetricAuthorizeDefaultAllow); got != 1 {
		t.Fatalf("MetricAuthorizeDefaultAllow = %d, want 1", got)
	}

	ev := <-f.sink.Events()
	if ev.EventType != "access.default_allow" {
		t.Fatalf("audit event = %q, want access.default_allow", ev.EventType)
	}

	// Flip the default to deny and reload.
	if err := f.engine.UpdateSetting(ctx, settings.KeyAccessDefaultAllow, "false"); err != nil {
		t.Fatalf("UpdateSetting: %v", err)
	}
	if err := f.engine.ReloadAll(ctx); err != nil {
		t.Fatalf("ReloadAll: %v", err)
	}

	d = f.engine.Authorize(ctx, "GET", "/unruled", nil)
	if d.Allowed || d.Reason != access.ReasonNoRule {
		t.Fatalf("Authorize after flip = %+v, want no_rule deny", d)
	}
}

func TestRequireEnforcesRequirement(t *testing.T) {
	f := newTestEngine(t, nil)
	ctx := context.Background()

	caller := &staticCaller{
		roles:       map[string]bool{"editor": true},
		permissions: map[string]bool{"documents.read": true},
	}

	if err := f.engine.Require(ctx, caller, permission.Requirement{
		Roles:      []string{"editor"},
		Permission: "documents.read",
	}); err != nil {
		t.Fatalf("Require: %v", err)
	}

	err := f.engine.Require(ctx, caller, permission.Requirement{Permission: "billing.manage"})
	if !errors.Is(err, permission.ErrAccessDenied) {
		t.Fatalf("Require: got %v, want ErrAccessDenied", err)
	}

	err = f.engine.Require(ctx, caller, permission.Requirement{
		ActionCode:   "transmogrify",
		ResourceType: "document",
	})
	if !errors.Is(err, permission.ErrInvalidActionCode) {
		t.Fatalf("Require: got %v, want ErrInvalidActionCode", err)
	}
}

func TestValidatePasswordDelegatesToPolicy(t *testing.T) {
	f := newTestEngine(t, nil)

	if err := f.engine.ValidatePassword("Aa1!bcde"); err != nil {
		t.Fatalf("ValidatePassword: %v", err)
	}
	if err := f.engine.ValidatePassword("short"); err == nil {
		t.Fatal("ValidatePassword accepted a non-compliant password")
	}
}
