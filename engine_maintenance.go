package gatehouse

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// runMaintenance sweeps both login guards: refilled rate buckets are
// evicted, expired lockouts released, and stale failure counters cleared.
// The scheduler invokes it on the configured cron schedule; tests call it
// directly.
func (e *Engine) runMaintenance() {
	evictedBuckets := e.loginLimiter.Sweep()
	evictedRecords := e.lockout.Sweep()
	e.metrics.Inc(MetricSweepRuns)

	e.logger.Debug("guard maintenance sweep",
		zap.Int("rate_buckets_evicted", evictedBuckets),
		zap.Int("lockout_records_evicted", evictedRecords),
	)
}

func parseSchedule(spec string) (cron.Schedule, error) {
	return cron.ParseStandard(spec)
}
