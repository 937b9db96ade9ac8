package password

import (
	"errors"
	"fmt"
	"unicode"

	"go.uber.org/zap"

	"github.com/signably/gatehouse/settings"
)

// ErrPolicy is the common ancestor of every [Violation], so callers can
// match any policy failure with errors.Is.
var ErrPolicy = errors.New("password policy violation")

// Violation reports the first rule a candidate password failed.
type Violation struct {
	// Rule names the failed check: blank, min_length, max_length,
	// uppercase, lowercase, digit, special.
	Rule string
	// Detail is a caller-facing message naming the unmet requirement.
	Detail string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%v: %s", ErrPolicy, v.Detail)
}

// Unwrap makes every Violation match [ErrPolicy].
func (v *Violation) Unwrap() error { return ErrPolicy }

// Policy validates candidates against the current composition settings.
// It holds no cached state: every Validate call reads the store, so an
// administrative change applies immediately.
type Policy struct {
	settings *settings.Store
	logger   *zap.Logger
}

// NewPolicy creates a Policy over the given settings store.
func NewPolicy(store *settings.Store, logger *zap.Logger) *Policy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Policy{settings: store, logger: logger}
}

// Validate checks the candidate and returns the first violated rule, in a
// fixed order: blank, length bounds, then character classes. Class checks
// use Unicode categories, not ASCII ranges.
func (p *Policy) Validate(candidate string) error {
	if candidate == "" {
		return &Violation{Rule: "blank", Detail: "password must not be blank"}
	}

	minLen, err := p.settings.Int(settings.KeyPasswordMinLength)
	if err != nil {
		return fmt.Errorf("password policy: %w", err)
	}
	maxLen, err := p.settings.Int(settings.KeyPasswordMaxLength)
	if err != nil {
		return fmt.Errorf("password policy: %w", err)
	}

	runes := []rune(candidate)
	if len(runes) < minLen {
		return &Violation{Rule: "min_length", Detail: fmt.Sprintf("password must be at least %d characters", minLen)}
	}
	if len(runes) > maxLen {
		return &Violation{Rule: "max_length", Detail: fmt.Sprintf("password must be at most %d characters", maxLen)}
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range runes {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	if err := p.requireClass(settings.KeyPasswordRequireUppercase, hasUpper, "uppercase", "an uppercase letter"); err != nil {
		return err
	}
	if err := p.requireClass(settings.KeyPasswordRequireLowercase, hasLower, "lowercase", "a lowercase letter"); err != nil {
		return err
	}
	if err := p.requireClass(settings.KeyPasswordRequireDigit, hasDigit, "digit", "a digit"); err != nil {
		return err
	}
	if err := p.requireClass(settings.KeyPasswordRequireSpecial, hasSpecial, "special", "a special character"); err != nil {
		return err
	}

	return nil
}

func (p *Policy) requireClass(key string, present bool, rule, noun string) error {
	required, err := p.settings.Bool(key)
	if err != nil {
		return fmt.Errorf("password policy: %w", err)
	}
	if required && !present {
		return &Violation{Rule: rule, Detail: "password must contain " + noun}
	}
	return nil
}
