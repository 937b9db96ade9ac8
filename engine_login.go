package gatehouse

import (
	"context"
	"errors"
	"fmt"

	"github.com/signably/gatehouse/token"
)

// Login authenticates an identity and password, guarded by the login rate
// limiter and the lockout tracker. On success it returns an access/refresh
// token pair for the identity.
//
// Guard order is fixed: rate limit, then lockout, then credential
// verification. A backend failure from the verifier passes through without
// counting as a failed attempt.
func (e *Engine) Login(ctx context.Context, identity, pass string) (TokenPair, error) {
	if e == nil {
		return TokenPair{}, ErrEngineNotReady
	}

	if !e.loginLimiter.TryConsume(identity) {
		e.metrics.Inc(MetricLoginRateLimited)
		ev := newAuditEvent("login.rate_limited")
		ev.Subject = identity
		ev.Error = ErrLoginRateLimited.Error()
		e.emitAudit(ctx, ev)
		return TokenPair{}, ErrLoginRateLimited
	}

	if e.lockout.IsLockedOut(identity) {
		e.metrics.Inc(MetricLoginLockedOut)
		ev := newAuditEvent("login.locked_out")
		ev.Subject = identity
		ev.Error = ErrIdentityLocked.Error()
		e.emitAudit(ctx, ev)
		return TokenPair{}, ErrIdentityLocked
	}

	if pass == "" {
		return TokenPair{}, e.loginFailed(ctx, identity, ErrInvalidCredentials)
	}

	if err := e.verifier.VerifyCredentials(ctx, identity, pass); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return TokenPair{}, e.loginFailed(ctx, identity, err)
		}
		// Backend trouble, not a wrong password: no failure is recorded.
		return TokenPair{}, fmt.Errorf("credential verification: %w", err)
	}

	e.lockout.RecordSuccess(identity)

	pair, err := e.issuePair(identity)
	if err != nil {
		return TokenPair{}, err
	}

	e.metrics.Inc(MetricLoginSuccess)
	ev := newAuditEvent("login.success")
	ev.Subject = identity
	ev.Success = true
	e.emitAudit(ctx, ev)

	return pair, nil
}

func (e *Engine) loginFailed(ctx context.Context, identity string, cause error) error {
	locked := e.lockout.RecordFailure(identity)
	e.metrics.Inc(MetricLoginFailure)

	ev := newAuditEvent("login.failure")
	ev.Subject = identity
	ev.Error = cause.Error()
	ev.Metadata = map[string]string{
		"failed_attempts": fmt.Sprintf("%d", e.lockout.FailedAttempts(identity)),
	}
	e.emitAudit(ctx, ev)

	if locked {
		e.metrics.Inc(MetricLoginLockedOut)
		lockEv := newAuditEvent("login.locked_out")
		lockEv.Subject = identity
		lockEv.Error = ErrIdentityLocked.Error()
		e.emitAudit(ctx, lockEv)
		return ErrIdentityLocked
	}
	return ErrInvalidCredentials
}

func (e *Engine) issuePair(identity string) (TokenPair, error) {
	accessToken, err := e.tokens.Issue(identity, token.PurposeAccess)
	if err != nil {
		return TokenPair{}, err
	}
	refreshToken, err := e.tokens.Issue(identity, token.PurposeRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	e.metrics.Inc(MetricTokenIssued)
	e.metrics.Inc(MetricTokenIssued)
	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// IsLockedOut reports whether the identity is currently locked out.
func (e *Engine) IsLockedOut(identity string) bool {
	return e.lockout.IsLockedOut(identity)
}

// FailedAttempts reports the identity's consecutive failed login count.
func (e *Engine) FailedAttempts(identity string) int {
	return e.lockout.FailedAttempts(identity)
}

// Unlock is the administrative override that releases a lockout and clears
// the failure counter.
func (e *Engine) Unlock(ctx context.Context, identity string) {
	e.lockout.Unlock(identity)

	ev := newAuditEvent("lockout.unlocked")
	ev.Subject = identity
	ev.Success = true
	e.emitAudit(ctx, ev)
}
