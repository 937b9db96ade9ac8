// Package token issues and validates the signed, self-contained tokens used
// by the security core: access, refresh, short-lived verification, and
// registration tokens, each with its own expiry policy and audience.
//
// # Validation contract
//
// [Manager.Validate] checks signature and expiry only. It deliberately does
// not enforce the token's purpose. Callers performing a purpose-sensitive
// operation must call [Manager.Purpose] and compare explicitly; the Engine
// does this uniformly for its refresh and authenticate paths.
//
// # What this package must NOT do
//
//   - Persist tokens or keep a revocation list (tokens die at expiry).
//   - Echo validation failure reasons to callers; reasons are logged only.
//   - Import any gatehouse package other than settings and internal.
package token

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/signably/gatehouse/internal"
	"github.com/signably/gatehouse/settings"
)

// Purpose tags a token with the single operation class it may authorize.
type Purpose string

const (
	// PurposeAccess is an exported constant or variable used by the security engine.
	PurposeAccess Purpose = "access"
	// PurposeRefresh is an exported constant or variable used by the security engine.
	PurposeRefresh Purpose = "refresh"
	// PurposeVerification is an exported constant or variable used by the security engine.
	PurposeVerification Purpose = "verification"
	// PurposeRegistration is an exported constant or variable used by the security engine.
	PurposeRegistration Purpose = "registration"
)

const minKeyBytes = 32

var (
	// ErrInvalid covers expired, malformed, and unsigned tokens alike. The
	// specific reason is logged, never returned, to avoid oracle leakage.
	ErrInvalid = errors.New("invalid token")
	// ErrUnknownPurpose indicates an issue request for a purpose the manager
	// has no expiry policy for.
	ErrUnknownPurpose = errors.New("unknown token purpose")
)

// Claims is the signed claim set. Purpose is omitted on tokens issued before
// purpose-tagging existed; such tokens are treated as access tokens.
type Claims struct {
	Purpose string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

// Config defines a public type used by gatehouse APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	// SigningKey is the symmetric HS256 key. When empty, a 32-byte key is
	// generated per process, which invalidates all tokens on restart.
	SigningKey []byte
	Issuer     string
	// Now is the clock used for both issuing and validation. Nil means
	// time.Now. Injectable for expiry boundary tests.
	Now func() time.Time
}

// Manager issues and validates signed tokens. Per-purpose TTLs are cached
// from the settings store at construction and re-derived by [Manager.Reload].
//
// Manager instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Manager struct {
	key      []byte
	issuer   string
	now      func() time.Time
	settings *settings.Store
	logger   *zap.Logger

	mu   sync.RWMutex
	ttls map[Purpose]time.Duration
}

// NewManager creates a Manager and derives the initial expiry policies.
func NewManager(cfg Config, store *settings.Store, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	key := cfg.SigningKey
	if len(key) == 0 {
		generated, err := internal.NewKey(minKeyBytes)
		if err != nil {
			return nil, fmt.Errorf("token key generation: %w", err)
		}
		key = generated
	}
	if len(key) < minKeyBytes {
		return nil, errors.New("token signing key must be at least 32 bytes")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	m := &Manager{
		key:      key,
		issuer:   cfg.Issuer,
		now:      now,
		settings: store,
		logger:   logger,
		ttls:     map[Purpose]time.Duration{},
	}
	if err := m.Reload(); err != nil {
		return nil, err
	}
	return m, nil
}

// Reload re-derives the per-purpose expiry durations from current settings.
// Tokens issued before the reload keep their original expiry.
func (m *Manager) Reload() error {
	accessMinutes, err := m.settings.Int(settings.KeyAccessExpiryMinutes)
	if err != nil {
		return fmt.Errorf("token reload: %w", err)
	}
	refreshMinutes, err := m.settings.Int64(settings.KeyRefreshExpiryMinutes)
	if err != nil {
		return fmt.Errorf("token reload: %w", err)
	}
	verificationSeconds, err := m.settings.Int(settings.KeyVerificationExpirySeconds)
	if err != nil {
		return fmt.Errorf("token reload: %w", err)
	}
	registrationMinutes, err := m.settings.Int(settings.KeyRegistrationExpiryMinutes)
	if err != nil {
		return fmt.Errorf("token reload: %w", err)
	}

	m.mu.Lock()
	m.ttls = map[Purpose]time.Duration{
		PurposeAccess:       time.Duration(accessMinutes) * time.Minute,
		PurposeRefresh:      time.Duration(refreshMinutes) * time.Minute,
		PurposeVerification: time.Duration(verificationSeconds) * time.Second,
		PurposeRegistration: time.Duration(registrationMinutes) * time.Minute,
	}
	m.mu.Unlock()
	return nil
}

// TTL returns the currently cached expiry duration for a purpose.
func (m *Manager) TTL(purpose Purpose) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ttls[purpose]
}

// Issue creates a signed token for subject with the given purpose.
func (m *Manager) Issue(subject string, purpose Purpose) (string, error) {
	m.mu.RLock()
	ttl, ok := m.ttls[purpose]
	m.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPurpose, purpose)
	}

	now := m.now()
	claims := Claims{
		Purpose: string(purpose),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{audienceFor(purpose)},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
}

// Validate reports whether the token carries a valid signature and has not
// expired. The failure reason is logged, never returned.
func (m *Manager) Validate(tokenStr string) bool {
	if _, err := m.parse(tokenStr); err != nil {
		m.logger.Debug("token rejected", zap.Error(err))
		return false
	}
	return true
}

// Purpose returns the token's purpose claim. Tokens without the claim
// default to [PurposeAccess] for backward compatibility with tokens issued
// before purpose-tagging existed. Invalid tokens fail with [ErrInvalid].
func (m *Manager) Purpose(tokenStr string) (Purpose, error) {
	claims, err := m.parse(tokenStr)
	if err != nil {
		m.logger.Debug("token rejected", zap.Error(err))
		return "", ErrInvalid
	}
	if claims.Purpose == "" {
		return PurposeAccess, nil
	}
	return Purpose(claims.Purpose), nil
}

// Subject extracts the subject claim. It fails with [ErrInvalid] rather than
// returning a sentinel value, so callers must validate before extracting.
func (m *Manager) Subject(tokenStr string) (string, error) {
	claims, err := m.parse(tokenStr)
	if err != nil {
		m.logger.Debug("token rejected", zap.Error(err))
		return "", ErrInvalid
	}
	return claims.Subject, nil
}

func (m *Manager) parse(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		options = append(options, jwt.WithIssuer(m.issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.key, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func audienceFor(purpose Purpose) string {
	return "gatehouse:" + string(purpose)
}
