// Package permission implements the method-level permission enforcer: an
// explicit authorization call that guarded operations invoke before
// executing, checking role membership and named-permission or
// action-on-resource capability against a caller object.
//
// # Architecture boundaries
//
// The caller's roles and permissions are owned by the host application's
// user/role subsystem; this package only consumes the [Caller] predicates
// and never defines how they are computed. Action codes are validated
// against an [ActionRegistry] before the capability check so that a typo in
// a guard declaration surfaces as a loud configuration error instead of a
// silent denial.
//
// # What this package must NOT do
//
//   - Store roles, permissions, or users.
//   - Produce side effects on success — authorization passes silently.
package permission

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	// ErrAccessDenied is the expected, frequent authorization failure. The
	// wrapped message distinguishes missing authentication from insufficient
	// privilege.
	ErrAccessDenied = errors.New("access denied")
	// ErrInvalidActionCode indicates a guard declared an action code that is
	// not in the registry. This is a deployment mismatch, not a user error,
	// and is logged at error level.
	ErrInvalidActionCode = errors.New("invalid action code")
)

// Caller is the capability interface consumed from the user/role subsystem.
// How the predicates are computed is entirely the collaborator's business.
type Caller interface {
	HasRole(name string) bool
	HasPermission(name string) bool
	Can(actionCode, resourceType string) bool
}

// ActionRegistry validates action codes referenced by guarded operations.
type ActionRegistry interface {
	ActionExists(code string) bool
}

// DefaultActionCodes are the platform's registered operation categories,
// used when no custom registry is supplied.
var DefaultActionCodes = []string{
	"create", "read", "update", "delete", "list", "send", "export", "manage",
}

// StaticRegistry is a fixed in-memory [ActionRegistry].
type StaticRegistry struct {
	codes map[string]struct{}
}

// NewStaticRegistry builds a registry from the given action codes.
func NewStaticRegistry(codes ...string) *StaticRegistry {
	r := &StaticRegistry{codes: make(map[string]struct{}, len(codes))}
	for _, code := range codes {
		r.codes[code] = struct{}{}
	}
	return r
}

// ActionExists reports whether code is registered.
func (r *StaticRegistry) ActionExists(code string) bool {
	_, ok := r.codes[code]
	return ok
}

// Requirement declares what a guarded operation demands of its caller.
// Permission takes precedence over ActionCode/ResourceType when both are
// set; only one of the two is ever evaluated.
type Requirement struct {
	// Roles the caller must hold. AllRoles selects ALL (AND) semantics;
	// otherwise holding ANY listed role satisfies the constraint.
	Roles    []string
	AllRoles bool

	// Permission is a named permission checked directly.
	Permission string

	// ActionCode and ResourceType express an action-on-resource capability.
	// The code must exist in the registry.
	ActionCode   string
	ResourceType string
}

// Enforcer evaluates [Requirement] values against callers. It fails closed:
// any unmet constraint raises [ErrAccessDenied].
//
// Enforcer instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Enforcer struct {
	registry ActionRegistry
	logger   *zap.Logger
}

// NewEnforcer creates an Enforcer over the given action registry.
func NewEnforcer(registry ActionRegistry, logger *zap.Logger) *Enforcer {
	if registry == nil {
		registry = NewStaticRegistry(DefaultActionCodes...)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enforcer{registry: registry, logger: logger}
}

// Authorize checks the requirement against the caller. Success is silent;
// denial raises ErrAccessDenied, and an unregistered action code raises
// ErrInvalidActionCode.
func (e *Enforcer) Authorize(ctx context.Context, caller Caller, req Requirement) error {
	if caller == nil {
		return fmt.Errorf("%w: not authenticated", ErrAccessDenied)
	}

	if len(req.Roles) > 0 {
		if err := e.checkRoles(caller, req); err != nil {
			return err
		}
	}

	switch {
	case req.Permission != "":
		if !caller.HasPermission(req.Permission) {
			return fmt.Errorf("%w: missing permission %q", ErrAccessDenied, req.Permission)
		}
	case req.ActionCode != "":
		if !e.registry.ActionExists(req.ActionCode) {
			e.logger.Error("guard references unregistered action code",
				zap.String("action", req.ActionCode),
				zap.String("resource", req.ResourceType),
			)
			return fmt.Errorf("%w: %q", ErrInvalidActionCode, req.ActionCode)
		}
		if !caller.Can(req.ActionCode, req.ResourceType) {
			return fmt.Errorf("%w: cannot %s %s", ErrAccessDenied, req.ActionCode, req.ResourceType)
		}
	}

	return nil
}

func (e *Enforcer) checkRoles(caller Caller, req Requirement) error {
	if req.AllRoles {
		for _, role := range req.Roles {
			if !caller.HasRole(role) {
				return fmt.Errorf("%w: missing role %q", ErrAccessDenied, role)
			}
		}
		return nil
	}

	for _, role := range req.Roles {
		if caller.HasRole(role) {
			return nil
		}
	}
	return fmt.Errorf("%w: requires one of roles %v", ErrAccessDenied, req.Roles)
}
