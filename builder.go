package gatehouse

import (
	"context"
	"errors"
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

// Builder defines a public type used by gatehouse APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config

	repository settings.Repository
	ruleSource access.Source
	registry   permission.ActionRegistry

	verifier CredentialVerifier
	callers  CallerResolver

	auditSink AuditSink
	logger    *zap.Logger
	now       func() time.Time

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRepository describes the withrepository operation and its observable behavior.
//
// WithRepository may return an error when input validation, dependency calls, or security checks fail.
// WithRepository does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRepository(repo settings.Repository) *Builder {
	b.repository = repo
	return b
}

// WithRuleSource describes the withrulesource operation and its observable behavior.
//
// WithRuleSource may return an error when input validation, dependency calls, or security checks fail.
// WithRuleSource does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRuleSource(source access.Source) *Builder {
	b.ruleSource = source
	return b
}

// WithActionRegistry describes the withactionregistry operation and its observable behavior.
//
// WithActionRegistry may return an error when input validation, dependency calls, or security checks fail.
// WithActionRegistry does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithActionRegistry(registry permission.ActionRegistry) *Builder {
	b.registry = registry
	return b
}

// WithCredentialVerifier describes the withcredentialverifier operation and its observable behavior.
//
// WithCredentialVerifier may return an error when input validation, dependency calls, or security checks fail.
// WithCredentialVerifier does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithCredentialVerifier(v CredentialVerifier) *Builder {
	b.verifier = v
	return b
}

// WithCallerResolver describes the withcallerresolver operation and its observable behavior.
//
// WithCallerResolver may return an error when input validation, dependency calls, or security checks fail.
// WithCallerResolver does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithCallerResolver(r CallerResolver) *Builder {
	b.callers = r
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger describes the withlogger operation and its observable behavior.
//
// WithLogger may return an error when input validation, dependency calls, or security checks fail.
// WithLogger does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock describes the withclock operation and its observable behavior.
//
// WithClock may return an error when input validation, dependency calls, or security checks fail.
// WithClock does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms may return an error when input validation, dependency calls, or security checks fail.
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.repository == nil {
		return nil, errors.New("settings repository required")
	}
	if b.verifier == nil {
		return nil, errors.New("credential verifier required")
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	ctx := context.Background()

	// -------- SETTINGS STORE --------
	store := settings.NewStore(b.repository, logger.Named("settings"))
	if cfg.Settings.SeedOnBuild {
		if err := store.Seed(ctx); err != nil {
			return nil, err
		}
	}
	if err := store.Reload(ctx); err != nil {
		return nil, err
	}

	// -------- TOKEN MANAGER --------
	tokens, err := token.NewManager(token.Config{
		SigningKey: cfg.Token.SigningKey,
		Issuer:     cfg.Token.Issuer,
		Now:        now,
	}, store, logger.Named("token"))
	if err != nil {
		return nil, err
	}

	// -------- IDENTIFIER CODEC --------
	codec, err := opaque.NewCodec(store)
	if err != nil {
		return nil, err
	}

	// -------- ACCESS RESOLVER --------
	ruleSource := b.ruleSource
	if ruleSource == nil {
		ruleSource = access.StaticSource(nil)
	}
	resolver, err := access.NewResolver(ruleSource, store, access.Config{
		PublicPrefixes: cfg.Access.PublicPathPrefixes,
	}, logger.Named("access"))
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:   cfg,
		settings: store,
		tokens:   tokens,
		codec:    codec,
		resolver: resolver,
		enforcer: permission.NewEnforcer(b.registry, logger.Named("permission")),
		policy:   password.NewPolicy(store, logger.Named("password")),
		verifier: b.verifier,
		callers:  b.callers,
		logger:   logger,
		now:      now,
	}

	// -------- LOGIN GUARDS --------
	rateCfg, err := loginRateConfig(store)
	if err != nil {
		return nil, err
	}
	lockCfg, err := lockoutConfig(store)
	if err != nil {
		return nil, err
	}
	engine.loginLimiter = rate.NewLimiter(rateCfg, now)
	engine.lockout = limiters.NewLockout(lockCfg, now)

	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	if cfg.Maintenance.Enabled {
		c := cron.New()
		if _, err := c.AddFunc(cfg.Maintenance.Schedule, engine.runMaintenance); err != nil {
			engine.audit.Close()
			return nil, err
		}
		c.Start()
		engine.cron = c
	}

	b.built = true

	return engine, nil
}

func loginRateConfig(store *settings.Store) (rate.Config, error) {
	enabled, err := store.Bool(settings.KeyLoginRateEnabled)
	if err != nil {
		return rate.Config{}, err
	}
	capacity, err := store.Int(settings.KeyLoginRateCapacity)
	if err != nil {
		return rate.Config{}, err
	}
	refillTokens, err := store.Float(settings.KeyLoginRateRefillTokens)
	if err != nil {
		return rate.Config{}, err
	}
	refillSeconds, err := store.Int(settings.KeyLoginRateRefillSeconds)
	if err != nil {
		return rate.Config{}, err
	}

	return rate.Config{
		Enabled:        enabled,
		Capacity:       float64(capacity),
		RefillTokens:   refillTokens,
		RefillInterval: time.Duration(refillSeconds) * time.Second,
	}, nil
}

func lockoutConfig(store *settings.Store) (limiters.Config, error) {
	enabled, err := store.Bool(settings.KeyLockoutEnabled)
	if err != nil {
		return limiters.Config{}, err
	}
	maxAttempts, err := store.Int(settings.KeyLockoutMaxAttempts)
	if err != nil {
		return limiters.Config{}, err
	}
	durationMinutes, err := store.Int(settings.KeyLockoutDurationMinutes)
	if err != nil {
		return limiters.Config{}, err
	}
	resetMinutes, err := store.Int(settings.KeyLockoutCounterResetMinutes)
	if err != nil {
		return limiters.Config{}, err
	}

	return limiters.Config{
		Enabled:         enabled,
		MaxAttempts:     maxAttempts,
		LockoutDuration: time.Duration(durationMinutes) * time.Minute,
		CounterReset:    time.Duration(resetMinutes) * time.Minute,
	}, nil
}
