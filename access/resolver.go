package access

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/signably/gatehouse/permission"
	"github.com/signably/gatehouse/settings"
)

// Reason explains a [Decision] for observability. Deny reasons distinguish
// "no authentication" from "authenticated but insufficient privilege".
type Reason string

const (
	// ReasonPublicPath is an exported constant or variable used by the security engine.
	ReasonPublicPath Reason = "public_path"
	// ReasonRuleSatisfied is an exported constant or variable used by the security engine.
	ReasonRuleSatisfied Reason = "rule_satisfied"
	// ReasonDefaultAllow is an exported constant or variable used by the security engine.
	ReasonDefaultAllow Reason = "default_allow"
	// ReasonNoRule is an exported constant or variable used by the security engine.
	ReasonNoRule Reason = "no_rule"
	// ReasonAuthRequired is an exported constant or variable used by the security engine.
	ReasonAuthRequired Reason = "authentication_required"
	// ReasonForbidden is an exported constant or variable used by the security engine.
	ReasonForbidden Reason = "insufficient_privilege"
)

// Decision is the outcome of resolving one request.
type Decision struct {
	Allowed bool
	Reason  Reason
	// Rule is the matched rule, nil for public-path and default decisions.
	Rule *Rule
}

// Message renders a caller-facing explanation for deny decisions.
func (d Decision) Message() string {
	switch d.Reason {
	case ReasonAuthRequired:
		return "authentication required"
	case ReasonForbidden:
		return "authenticated but insufficient privilege"
	case ReasonNoRule:
		return "no access rule for this endpoint"
	default:
		return string(d.Reason)
	}
}

// Config holds the resolver's static wiring.
type Config struct {
	// PublicPrefixes bypass all rule evaluation. Matching requests are
	// allowed unconditionally.
	PublicPrefixes []string
}

type regexRule struct {
	rule Rule
	re   *regexp.Regexp
}

type snapshot struct {
	exact        map[string]Rule
	regex        []regexRule
	defaultAllow bool
}

// Resolver evaluates (method, path, caller) against a compiled snapshot of
// the rule table. [Resolver.Reload] recompiles; between reloads the snapshot
// is immutable and safe for concurrent use.
//
// Resolver instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Resolver struct {
	source   Source
	settings *settings.Store
	logger   *zap.Logger
	prefixes []string

	mu   sync.RWMutex
	snap *snapshot
}

// NewResolver creates a Resolver and compiles the initial snapshot.
func NewResolver(source Source, store *settings.Store, cfg Config, logger *zap.Logger) (*Resolver, error) {
	if source == nil {
		source = StaticSource(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Resolver{
		source:   source,
		settings: store,
		logger:   logger,
		prefixes: cfg.PublicPrefixes,
	}
	if err := r.Reload(context.Background()); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload pulls the rule table from the source and recompiles the snapshot,
// re-reading the default decision from settings.
func (r *Resolver) Reload(ctx context.Context) error {
	rules, err := r.source.Rules(ctx)
	if err != nil {
		return fmt.Errorf("access reload: %w", err)
	}
	defaultAllow, err := r.settings.Bool(settings.KeyAccessDefaultAllow)
	if err != nil {
		return fmt.Errorf("access reload: %w", err)
	}

	next := &snapshot{
		exact:        make(map[string]Rule),
		defaultAllow: defaultAllow,
	}
	for _, rule := range rules {
		if rule.IsRegex {
			re, err := regexp.Compile(rule.Path)
			if err != nil {
				return fmt.Errorf("access reload: rule %s %s: %w", rule.Method, rule.Path, err)
			}
			next.regex = append(next.regex, regexRule{rule: rule, re: re})
			continue
		}
		// Exact duplicates for the same (method, path) keep the first row,
		// matching first-match-wins table semantics.
		key := exactKey(rule.Method, rule.Path)
		if _, dup := next.exact[key]; dup {
			r.logger.Warn("duplicate exact access rule ignored",
				zap.String("method", rule.Method),
				zap.String("path", rule.Path),
			)
			continue
		}
		next.exact[key] = rule
	}

	r.mu.Lock()
	r.snap = next
	r.mu.Unlock()

	r.logger.Debug("access rules reloaded",
		zap.Int("exact", len(next.exact)),
		zap.Int("regex", len(next.regex)),
		zap.Bool("default_allow", defaultAllow),
	)
	return nil
}

// Resolve decides whether the request may proceed. A nil caller means the
// request is unauthenticated.
func (r *Resolver) Resolve(method, path string, caller permission.Caller) Decision {
	for _, prefix := range r.prefixes {
		if strings.HasPrefix(path, prefix) {
			return Decision{Allowed: true, Reason: ReasonPublicPath}
		}
	}

	r.mu.RLock()
	snap := r.snap
	r.mu.RUnlock()

	rule, found := snap.lookup(method, path)
	if !found {
		if snap.defaultAllow {
			// The documented hazard: an unruled endpoint silently allowed.
			r.logger.Warn("no access rule matched, default policy allows",
				zap.String("method", method),
				zap.String("path", path),
			)
			return Decision{Allowed: true, Reason: ReasonDefaultAllow}
		}
		return Decision{Allowed: false, Reason: ReasonNoRule}
	}

	if rule.RequireAuth && caller == nil {
		return Decision{Allowed: false, Reason: ReasonAuthRequired, Rule: &rule}
	}

	switch rule.PermissionType {
	case PermissionName:
		if rule.PermissionName == "" {
			break
		}
		if caller == nil {
			return Decision{Allowed: false, Reason: ReasonAuthRequired, Rule: &rule}
		}
		if !caller.HasPermission(rule.PermissionName) {
			return Decision{Allowed: false, Reason: ReasonForbidden, Rule: &rule}
		}
	case ActionResource:
		if rule.ActionCode == "" {
			break
		}
		if caller == nil {
			return Decision{Allowed: false, Reason: ReasonAuthRequired, Rule: &rule}
		}
		if !caller.Can(rule.ActionCode, rule.ResourceType) {
			return Decision{Allowed: false, Reason: ReasonForbidden, Rule: &rule}
		}
	}

	return Decision{Allowed: true, Reason: ReasonRuleSatisfied, Rule: &rule}
}

func (s *snapshot) lookup(method, path string) (Rule, bool) {
	if rule, ok := s.exact[exactKey(method, path)]; ok {
		return rule, true
	}
	for _, rr := range s.regex {
		if !methodMatches(rr.rule.Method, method) {
			continue
		}
		if rr.re.MatchString(path) {
			return rr.rule, true
		}
	}
	return Rule{}, false
}

func exactKey(method, path string) string {
	return strings.ToUpper(method) + " " + path
}

func methodMatches(ruleMethod, method string) bool {
	if ruleMethod == "" || ruleMethod == "*" {
		return true
	}
	return strings.EqualFold(ruleMethod, method)
}
