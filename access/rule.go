// Package access resolves per-request authorization decisions against an
// externally managed rule table keyed by HTTP method and path. Rules support
// exact and regex matches, with a public-path bypass and a configurable
// default decision when no rule matches.
//
// # Match order
//
// Public prefixes first, then exact (method, path) rules, then regex rules
// in table order. An exact rule always beats a regex rule for the same path.
//
// # Default decision
//
// A request matching no rule resolves per the access.default-allow setting.
// Default-allow is the historical posture and a known hazard (forgetting to
// add a rule silently permits access), so every default-fallback allow is
// logged.
package access

import "context"

// PermissionType selects which capability check a rule performs.
type PermissionType string

const (
	// PermissionName is an exported constant or variable used by the security engine.
	PermissionName PermissionType = "PERMISSION_NAME"
	// ActionResource is an exported constant or variable used by the security engine.
	ActionResource PermissionType = "ACTION_RESOURCE"
)

// Rule is one row of the endpoint rule table. The table is administrative
// data owned by the host application; this core only reads it.
type Rule struct {
	Method         string
	Path           string
	IsRegex        bool
	PermissionType PermissionType
	PermissionName string
	ActionCode     string
	ResourceType   string
	RequireAuth    bool
}

// Source supplies the current rule table. [Resolver.Reload] pulls from it;
// the resolver never watches for changes on its own.
type Source interface {
	Rules(ctx context.Context) ([]Rule, error)
}

// StaticSource is a fixed in-memory [Source], useful for tests and for
// deployments whose rule table ships with the binary.
type StaticSource []Rule

// Rules returns the static table.
func (s StaticSource) Rules(context.Context) ([]Rule, error) {
	return s, nil
}
