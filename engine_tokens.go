package gatehouse

import (
	"context"
	"fmt"

	"github.com/signably/gatehouse/token"
)

// IssueToken issues a single token of the given purpose for a subject,
// outside the login flow. Registration and verification tokens are issued
// this way.
func (e *Engine) IssueToken(ctx context.Context, subject string, purpose token.Purpose) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}

	tok, err := e.tokens.Issue(subject, purpose)
	if err != nil {
		return "", err
	}
	e.metrics.Inc(MetricTokenIssued)

	ev := newAuditEvent("token.issued")
	ev.Subject = subject
	ev.Success = true
	ev.Metadata = map[string]string{"purpose": string(purpose)}
	e.emitAudit(ctx, ev)

	return tok, nil
}

// Refresh exchanges a valid refresh token for a fresh access/refresh pair.
// A token of any other purpose is rejected, so a leaked access token can
// never mint new credentials.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if e == nil {
		return TokenPair{}, ErrEngineNotReady
	}

	subject, err := e.subjectWithPurpose(refreshToken, token.PurposeRefresh)
	if err != nil {
		e.metrics.Inc(MetricRefreshFailure)
		ev := newAuditEvent("refresh.failure")
		ev.Error = err.Error()
		e.emitAudit(ctx, ev)
		return TokenPair{}, err
	}

	pair, err := e.issuePair(subject)
	if err != nil {
		return TokenPair{}, err
	}

	e.metrics.Inc(MetricRefreshSuccess)
	ev := newAuditEvent("refresh.success")
	ev.Subject = subject
	ev.Success = true
	e.emitAudit(ctx, ev)

	return pair, nil
}

// Authenticate validates an access token and resolves the subject's
// capability view through the caller resolver. Tokens of non-access purpose
// are rejected even when otherwise valid.
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (Principal, error) {
	if e == nil {
		return Principal{}, ErrEngineNotReady
	}

	subject, err := e.subjectWithPurpose(accessToken, token.PurposeAccess)
	if err != nil {
		return Principal{}, err
	}

	principal := Principal{Subject: subject, Purpose: token.PurposeAccess}
	if e.callers != nil {
		caller, err := e.callers.ResolveCaller(ctx, subject)
		if err != nil {
			return Principal{}, fmt.Errorf("resolve caller: %w", err)
		}
		principal.Caller = caller
	}
	return principal, nil
}

// VerifySubject validates a token of the given purpose and returns its
// subject. Used for verification and registration flows where no caller
// resolution is wanted.
func (e *Engine) VerifySubject(ctx context.Context, tok string, purpose token.Purpose) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	return e.subjectWithPurpose(tok, purpose)
}

func (e *Engine) subjectWithPurpose(tok string, want token.Purpose) (string, error) {
	subject, err := e.tokens.Subject(tok)
	if err != nil {
		e.metrics.Inc(MetricTokenInvalid)
		return "", ErrTokenInvalid
	}
	purpose, err := e.tokens.Purpose(tok)
	if err != nil || purpose != want {
		e.metrics.Inc(MetricTokenInvalid)
		return "", fmt.Errorf("%w: wrong purpose", ErrTokenInvalid)
	}
	return subject, nil
}

// EncodeID turns an internal numeric identifier into its opaque public form.
func (e *Engine) EncodeID(id int64) (string, error) {
	return e.codec.Encode(id)
}

// DecodeID recovers the internal identifier behind an opaque public form.
func (e *Engine) DecodeID(opaque string) (int64, error) {
	return e.codec.Decode(opaque)
}
