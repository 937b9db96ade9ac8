package gatehouse

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/signably/gatehouse/access"
	"github.com/signably/gatehouse/internal/limiters"
	"github.com/signably/gatehouse/internal/rate"
	"github.com/signably/gatehouse/opaque"
	"github.com/signably/gatehouse/password"
	"github.com/signably/gatehouse/permission"
	"github.com/signably/gatehouse/settings"
	"github.com/signably/gatehouse/token"
)

// Engine defines a public type used by gatehouse APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config Config

	settings *settings.Store
	tokens   *token.Manager
	codec    *opaque.Codec
	resolver *access.Resolver
	enforcer *permission.Enforcer
	policy   *password.Policy

	loginLimiter *rate.Limiter
	lockout      *limiters.Lockout

	verifier CredentialVerifier
	callers  CallerResolver

	audit   *auditDispatcher
	metrics *Metrics
	cron    *cron.Cron

	logger *zap.Logger
	now    func() time.Time
}

// Close stops the maintenance scheduler and drains the audit pipeline. The
// Engine must not be used afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.cron != nil {
		<-e.cron.Stop().Done()
	}
	e.audit.Close()
}

// Settings exposes the typed settings store for administrative surfaces.
func (e *Engine) Settings() *settings.Store {
	return e.settings
}

// ValidatePassword checks a candidate against the current password policy.
func (e *Engine) ValidatePassword(candidate string) error {
	return e.policy.Validate(candidate)
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded because the
// buffer was full.
func (e *Engine) AuditDropped() uint64 {
	return e.audit.Dropped()
}

// ReloadAll re-reads every derived policy from the settings repository:
// snapshot, token TTLs, identifier codec, access rules, and guard
// thresholds. Reloading the codec invalidates previously issued opaque
// identifiers.
func (e *Engine) ReloadAll(ctx context.Context) error {
	if err := e.settings.Reload(ctx); err != nil {
		return err
	}
	if err := e.tokens.Reload(); err != nil {
		return err
	}
	if err := e.codec.Reload(); err != nil {
		return err
	}
	if err := e.resolver.Reload(ctx); err != nil {
		return err
	}

	rateCfg, err := loginRateConfig(e.settings)
	if err != nil {
		return err
	}
	lockCfg, err := lockoutConfig(e.settings)
	if err != nil {
		return err
	}
	e.loginLimiter.Reconfigure(rateCfg)
	e.lockout.Reconfigure(lockCfg)

	e.logger.Info("engine policies reloaded")
	return nil
}

func (e *Engine) emitAudit(ctx context.Context, event AuditEvent) {
	if e.audit == nil {
		return
	}
	event.Timestamp = e.now()
	event.IP = clientIPFromContext(ctx)
	event.TenantID = tenantIDFromContext(ctx)
	e.audit.Emit(ctx, event)
}
