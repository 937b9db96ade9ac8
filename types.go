package gatehouse

import (
	"context"

	"github.com/signably/gatehouse/permission"
	"github.com/signably/gatehouse/token"
)

// CredentialVerifier defines a public type used by gatehouse APIs.
//
// CredentialVerifier instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CredentialVerifier interface {
	// VerifyCredentials checks the identity's password against the host
	// application's credential store. A wrong password must return
	// [ErrInvalidCredentials] (wrapped is fine); any other error is treated
	// as a backend failure and does not count as a failed attempt.
	VerifyCredentials(ctx context.Context, identity, password string) error
}

// CallerResolver defines a public type used by gatehouse APIs.
//
// CallerResolver instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CallerResolver interface {
	// ResolveCaller maps an authenticated subject to its capability view.
	ResolveCaller(ctx context.Context, subject string) (permission.Caller, error)
}

// TokenPair defines a public type used by gatehouse APIs.
//
// TokenPair instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Principal defines a public type used by gatehouse APIs.
//
// Principal instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Principal struct {
	Subject string
	Purpose token.Purpose
	Caller  permission.Caller
}
