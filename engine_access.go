package gatehouse

import (
	"context"

	"github.com/signably/gatehouse/access"
	"github.com/signably/gatehouse/permission"
)

// Authorize resolves whether the caller may reach method+path against the
// endpoint rule table. A nil caller represents an unauthenticated request.
// Denials and default-policy allows are audited.
func (e *Engine) Authorize(ctx context.Context, method, path string, caller permission.Caller) access.Decision {
	if e == nil {
		return access.Decision{Reason: access.ReasonNoRule}
	}

	start := e.now()
	decision := e.resolver.Resolve(method, path, caller)
	e.metrics.Observe(MetricAuthorizeLatency, e.now().Sub(start))

	switch {
	case decision.Allowed && decision.Reason == access.ReasonDefaultAllow:
		e.metrics.Inc(MetricAuthorizeDefaultAllow)
		e.metrics.Inc(MetricAuthorizeAllow)
		ev := newAuditEvent("access.default_allow")
		ev.Success = true
		ev.Metadata = map[string]string{"method": method, "path": path}
		e.emitAudit(ctx, ev)
	case decision.Allowed:
		e.metrics.Inc(MetricAuthorizeAllow)
	default:
		e.metrics.Inc(MetricAuthorizeDeny)
		ev := newAuditEvent("access.denied")
		ev.Error = decision.Message()
		ev.Metadata = map[string]string{
			"method": method,
			"path":   path,
			"reason": string(decision.Reason),
		}
		e.emitAudit(ctx, ev)
	}

	return decision
}

// Require is the method-level enforcement call: guarded operations invoke
// it before executing. Success is silent; denial returns
// permission.ErrAccessDenied and an unregistered action code returns
// permission.ErrInvalidActionCode.
func (e *Engine) Require(ctx context.Context, caller permission.Caller, req permission.Requirement) error {
	if e == nil {
		return ErrEngineNotReady
	}

	err := e.enforcer.Authorize(ctx, caller, req)
	if err != nil {
		e.metrics.Inc(MetricAuthorizeDeny)
		ev := newAuditEvent("permission.denied")
		ev.Error = err.Error()
		e.emitAudit(ctx, ev)
		return err
	}
	e.metrics.Inc(MetricAuthorizeAllow)
	return nil
}
