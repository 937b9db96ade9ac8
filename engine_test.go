package gatehouse

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/signably/gatehouse/access"
	"github.com/signably/gatehouse/permission"
	"github.com/signably/gatehouse/settings"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// mapVerifier accepts the passwords in its map and treats unknown
// identities as wrong-password failures.
type mapVerifier struct {
	passwords map[string]string
	backendUp bool
}

func (v *mapVerifier) VerifyCredentials(_ context.Context, identity, password string) error {
	if !v.backendUp {
		return errors.New("credential store unreachable")
	}
	if want, ok := v.passwords[identity]; ok && want == password {
		return nil
	}
	return ErrInvalidCredentials
}

type staticCaller struct {
	roles       map[string]bool
	permissions map[string]bool
}

func (c *staticCaller) HasRole(name string) bool       { return c.roles[name] }
func (c *staticCaller) HasPermission(name string) bool { return c.permissions[name] }
func (c *staticCaller) Can(string, string) bool        { return false }

type staticResolver struct {
	callers map[string]permission.Caller
}

func (r *staticResolver) ResolveCaller(_ context.Context, subject string) (permission.Caller, error) {
	caller, ok := r.callers[subject]
	if !ok {
		return nil, errors.New("unknown subject")
	}
	return caller, nil
}

var engineTestKey = []byte("0123456789abcdef0123456789abcdef")

type engineFixture struct {
	engine   *Engine
	clock    *fakeClock
	verifier *mapVerifier
	sink     *ChannelSink
}

func newTestRepository(t *testing.T) settings.Repository {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo, err := settings.NewRedisRepository(client, "test")
	if err != nil {
		t.Fatalf("NewRedisRepository: %v", err)
	}
	return repo
}

func newTestEngine(t *testing.T, mutate func(*Config, *Builder)) *engineFixture {
	t.Helper()

	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	verifier := &mapVerifier{
		passwords: map[string]string{"alice@example.com": "Sup3r-secret"},
		backendUp: true,
	}
	sink := NewChannelSink(256)

	cfg := defaultConfig()
	cfg.Token.SigningKey = engineTestKey
	cfg.Audit.Enabled = true
	cfg.Metrics.Enabled = true
	cfg.Maintenance.Enabled = false

	builder := New().
		WithRepository(newTestRepository(t)).
		WithCredentialVerifier(verifier).
		WithCallerResolver(&staticResolver{callers: map[string]permission.Caller{
			"alice@example.com": &staticCaller{
				roles:       map[string]bool{"editor": true},
				permissions: map[string]bool{"documents.read": true},
			},
		}}).
		WithRuleSource(access.StaticSource{
			{Method: "GET", Path: "/documents", RequireAuth: true,
				PermissionType: access.PermissionName, PermissionName: "documents.read"},
		}).
		WithAuditSink(sink).
		WithClock(clock.Now).
		WithLogger(zap.NewNop())

	if mutate != nil {
		mutate(&cfg, builder)
	}
	builder.WithConfig(cfg).WithClock(clock.Now)

	engine, err := builder.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	return &engineFixture{engine: engine, clock: clock, verifier: verifier, sink: sink}
}
