package settings

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// GormRepository persists settings rows through gorm. The schema is migrated
// on construction.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository migrates the settings table and returns a repository
// bound to db.
func NewGormRepository(db *gorm.DB) (*GormRepository, error) {
	if db == nil {
		return nil, errors.New("settings: gorm db required")
	}
	if err := db.AutoMigrate(&Setting{}); err != nil {
		return nil, fmt.Errorf("settings migrate: %w", err)
	}
	return &GormRepository{db: db}, nil
}

// All returns every settings row.
func (r *GormRepository) All(ctx context.Context) ([]Setting, error) {
	var rows []Setting
	if err := r.db.WithContext(ctx).Order("key").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Get returns the row for key, or [ErrSettingNotFound].
func (r *GormRepository) Get(ctx context.Context, key string) (*Setting, error) {
	var row Setting
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSettingNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Create inserts a new row. The unique index on Key rejects duplicates.
func (r *GormRepository) Create(ctx context.Context, s *Setting) error {
	err := r.db.WithContext(ctx).Create(s).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", ErrSettingExists, s.Key)
	}
	return err
}

// Update saves the full row keyed by its Key.
func (r *GormRepository) Update(ctx context.Context, s *Setting) error {
	res := r.db.WithContext(ctx).Model(&Setting{}).Where("key = ?", s.Key).Updates(map[string]any{
		"value":            s.Value,
		"type":             s.Type,
		"category":         s.Category,
		"active":           s.Active,
		"system_default":   s.SystemDefault,
		"default":          s.Default,
		"requires_restart": s.RequiresRestart,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrSettingNotFound, s.Key)
	}
	return nil
}

// Delete removes the row for key.
func (r *GormRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where("key = ?", key).Delete(&Setting{}).Error
}
