package settings

import (
	"context"
	"errors"
	"time"
)

// ValueType is the declared type of a [Setting] value. Getters reject reads
// that disagree with the declared type.
type ValueType string

const (
	// TypeString is an exported constant or variable used by the security engine.
	TypeString ValueType = "STRING"
	// TypeInt is an exported constant or variable used by the security engine.
	TypeInt ValueType = "INT"
	// TypeBool is an exported constant or variable used by the security engine.
	TypeBool ValueType = "BOOL"
	// TypeLong is an exported constant or variable used by the security engine.
	TypeLong ValueType = "LONG"
	// TypeDouble is an exported constant or variable used by the security engine.
	TypeDouble ValueType = "DOUBLE"
)

var (
	// ErrSettingNotFound indicates the key is absent or the row is inactive.
	ErrSettingNotFound = errors.New("setting not found")
	// ErrSettingType indicates the declared type does not match the requested
	// getter or the stored value does not parse as the declared type.
	ErrSettingType = errors.New("setting type mismatch")
	// ErrSettingExists indicates a create collided with an existing key.
	ErrSettingExists = errors.New("setting already exists")
	// ErrInvalidOperation indicates a mutation that would violate a store
	// invariant, such as deleting a system default.
	ErrInvalidOperation = errors.New("invalid setting operation")
)

// Setting is one runtime-tunable configuration row. Key is unique across the
// store. Default holds the value recorded when the row was seeded and is what
// ResetToDefault restores.
type Setting struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Key             string    `gorm:"uniqueIndex;size:128" json:"key"`
	Value           string    `gorm:"type:text" json:"value"`
	Type            ValueType `gorm:"size:16" json:"type"`
	Category        string    `gorm:"size:64;index" json:"category"`
	Active          bool      `json:"active"`
	SystemDefault   bool      `json:"system_default"`
	Default         string    `gorm:"type:text" json:"default"`
	RequiresRestart bool      `json:"requires_restart"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Repository is the persistence collaborator behind the [Store]. Both shipped
// implementations ([GormRepository], [RedisRepository]) key rows by Setting.Key.
type Repository interface {
	All(ctx context.Context) ([]Setting, error)
	Get(ctx context.Context, key string) (*Setting, error)
	Create(ctx context.Context, s *Setting) error
	Update(ctx context.Context, s *Setting) error
	Delete(ctx context.Context, key string) error
}
