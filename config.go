package gatehouse

import "errors"

// Config defines a public type used by gatehouse APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Token       TokenConfig
	Access      AccessConfig
	Settings    SettingsConfig
	Audit       AuditConfig
	Metrics     MetricsConfig
	Maintenance MaintenanceConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig defines a public type used by gatehouse APIs.
//
// TokenConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenConfig struct {
	// SigningKey is the HS256 key. Empty generates an ephemeral key at
	// build time, which invalidates all tokens on restart.
	SigningKey []byte
	Issuer     string
}

/*
====================================
ACCESS CONFIG
====================================
*/

// AccessConfig defines a public type used by gatehouse APIs.
//
// AccessConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AccessConfig struct {
	// PublicPathPrefixes bypass endpoint access resolution entirely.
	PublicPathPrefixes []string
}

/*
====================================
SETTINGS CONFIG
====================================
*/

// SettingsConfig defines a public type used by gatehouse APIs.
//
// SettingsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SettingsConfig struct {
	// SeedOnBuild inserts missing system-default rows before the first
	// reload. Existing rows are never overwritten.
	SeedOnBuild bool
}

// AuditConfig defines a public type used by gatehouse APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by gatehouse APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
MAINTENANCE CONFIG
====================================
*/

// MaintenanceConfig defines a public type used by gatehouse APIs.
//
// MaintenanceConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MaintenanceConfig struct {
	// Enabled runs the background sweep of guard state on Schedule.
	Enabled bool
	// Schedule is a cron expression, including @every shorthand.
	Schedule string
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			Issuer: "gatehouse",
		},
		Settings: SettingsConfig{
			SeedOnBuild: true,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Maintenance: MaintenanceConfig{
			Enabled:  true,
			Schedule: "@every 5m",
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.SigningKey = cloneBytes(cfg.Token.SigningKey)
	if len(cfg.Access.PublicPathPrefixes) > 0 {
		out.Access.PublicPathPrefixes = append([]string(nil), cfg.Access.PublicPathPrefixes...)
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	if len(c.Token.SigningKey) > 0 && len(c.Token.SigningKey) < 32 {
		return errors.New("Token SigningKey must be >= 32 bytes when provided")
	}
	if c.Token.Issuer == "" {
		return errors.New("Token Issuer must not be empty")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	if c.Maintenance.Enabled {
		if c.Maintenance.Schedule == "" {
			return errors.New("Maintenance Schedule is required when maintenance is enabled")
		}
		if _, err := parseSchedule(c.Maintenance.Schedule); err != nil {
			return errors.New("Maintenance Schedule is not a valid cron expression")
		}
	}

	return nil
}
