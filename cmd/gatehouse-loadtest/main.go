// Command gatehouse-loadtest hammers the engine's login and authorize paths
// against a miniredis-backed settings store and prints throughput and a
// metrics snapshot. It exists to keep an eye on hot-path regressions without
// any external infrastructure.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	gatehouse "github.com/signably/gatehouse"
	"github.com/signably/gatehouse/access"
	"github.com/signably/gatehouse/permission"
	"github.com/signably/gatehouse/settings"
)

type benchVerifier struct{}

func (benchVerifier) VerifyCredentials(_ context.Context, _, password string) error {
	if password == "bench-password" {
		return nil
	}
	return gatehouse.ErrInvalidCredentials
}

type benchCaller struct{}

func (benchCaller) HasRole(string) bool              { return true }
func (benchCaller) HasPermission(name string) bool   { return name == "bench.read" }
func (benchCaller) Can(action, resource string) bool { return false }

type benchResolver struct{}

func (benchResolver) ResolveCaller(context.Context, string) (permission.Caller, error) {
	return benchCaller{}, nil
}

func main() {
	var (
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 100000, "authorize operations to run")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "concurrency and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		defer mr.Close()
		addr = mr.Addr()
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	repo, err := settings.NewRedisRepository(client, "loadtest")
	if err != nil {
		fmt.Fprintf(os.Stderr, "settings repository: %v\n", err)
		os.Exit(1)
	}

	cfg := gatehouse.Config{
		Token: gatehouse.TokenConfig{
			SigningKey: []byte("loadtest-0123456789abcdef-loadtest"),
			Issuer:     "gatehouse-loadtest",
		},
		Settings: gatehouse.SettingsConfig{SeedOnBuild: true},
		Metrics:  gatehouse.MetricsConfig{Enabled: true, EnableLatencyHistograms: true},
	}

	engine, err := gatehouse.New().
		WithConfig(cfg).
		WithRepository(repo).
		WithCredentialVerifier(benchVerifier{}).
		WithCallerResolver(benchResolver{}).
		WithRuleSource(access.StaticSource{
			{Method: "GET", Path: "/bench", RequireAuth: true,
				PermissionType: access.PermissionName, PermissionName: "bench.read"},
			{Method: "GET", Path: `^/bench/[0-9]+$`, IsRegex: true, RequireAuth: true,
				PermissionType: access.PermissionName, PermissionName: "bench.read"},
		}).
		WithLogger(zap.NewNop()).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	// One real login to exercise the full path before the authorize storm.
	pair, err := engine.Login(ctx, "bench@example.com", "bench-password")
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed login: %v\n", err)
		os.Exit(1)
	}
	principal, err := engine.Authenticate(ctx, pair.AccessToken)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed authenticate: %v\n", err)
		os.Exit(1)
	}

	var (
		wg      sync.WaitGroup
		counter atomic.Int64
		denied  atomic.Int64
	)

	start := time.Now()
	for w := 0; w < *concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for {
				n := counter.Add(1)
				if n > int64(*ops) {
					return
				}
				path := "/bench"
				if n%2 == 0 {
					path = fmt.Sprintf("/bench/%d", n)
				}
				d := engine.Authorize(ctx, "GET", path, principal.Caller)
				if !d.Allowed {
					denied.Add(1)
				}
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	fmt.Printf("authorize: %d ops in %v (%.0f ops/sec), %d denied\n",
		*ops, elapsed.Round(time.Millisecond),
		float64(*ops)/elapsed.Seconds(), denied.Load())

	snap := engine.MetricsSnapshot()
	fmt.Printf("allow=%d deny=%d default_allow=%d\n",
		snap.Counters[gatehouse.MetricAuthorizeAllow],
		snap.Counters[gatehouse.MetricAuthorizeDeny],
		snap.Counters[gatehouse.MetricAuthorizeDefaultAllow])
	if buckets, ok := snap.Histograms[gatehouse.MetricAuthorizeLatency]; ok {
		fmt.Printf("latency buckets (<=5ms..>500ms): %v\n", buckets)
	}
}
