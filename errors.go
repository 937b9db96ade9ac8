package gatehouse

import "errors"

var (
	// ErrInvalidCredentials is an exported constant or variable used by the security engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLoginRateLimited is an exported constant or variable used by the security engine.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrIdentityLocked is an exported constant or variable used by the security engine.
	ErrIdentityLocked = errors.New("identity locked out")
	// ErrTokenInvalid is an exported constant or variable used by the security engine.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrEngineNotReady is an exported constant or variable used by the security engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
