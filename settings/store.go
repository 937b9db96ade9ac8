package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

// Store serves typed settings from an in-memory snapshot and writes mutations
// through the backing [Repository].
//
// Store instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Store struct {
	repo   Repository
	logger *zap.Logger

	mu    sync.RWMutex
	items map[string]Setting
}

// NewStore creates a Store over the given repository. The snapshot is empty
// until the first [Store.Reload].
func NewStore(repo Repository, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		repo:   repo,
		logger: logger,
		items:  map[string]Setting{},
	}
}

// Reload replaces the snapshot with the repository's current contents.
func (s *Store) Reload(ctx context.Context) error {
	all, err := s.repo.All(ctx)
	if err != nil {
		return fmt.Errorf("settings reload: %w", err)
	}

	next := make(map[string]Setting, len(all))
	for _, row := range all {
		next[row.Key] = row
	}

	s.mu.Lock()
	s.items = next
	s.mu.Unlock()

	s.logger.Debug("settings snapshot reloaded", zap.Int("count", len(next)))
	return nil
}

// Seed inserts every well-known default exactly once. Existing keys are
// skipped so operator edits persist across restarts.
func (s *Store) Seed(ctx context.Context) error {
	for _, def := range Defaults() {
		existing, err := s.repo.Get(ctx, def.Key)
		if err != nil && !errors.Is(err, ErrSettingNotFound) {
			return fmt.Errorf("settings seed %s: %w", def.Key, err)
		}
		if existing != nil {
			continue
		}

		row := def
		row.Active = true
		row.SystemDefault = true
		row.Default = def.Value
		if err := s.repo.Create(ctx, &row); err != nil {
			return fmt.Errorf("settings seed %s: %w", def.Key, err)
		}
	}
	return nil
}

/*
====================================
TYPED GETTERS
====================================
*/

func (s *Store) active(key string) (Setting, error) {
	s.mu.RLock()
	row, ok := s.items[key]
	s.mu.RUnlock()

	if !ok || !row.Active {
		return Setting{}, fmt.Errorf("%w: %s", ErrSettingNotFound, key)
	}
	return row, nil
}

// String returns the value of a STRING setting.
func (s *Store) String(key string) (string, error) {
	row, err := s.active(key)
	if err != nil {
		return "", err
	}
	if row.Type != TypeString {
		return "", fmt.Errorf("%w: %s is %s, not STRING", ErrSettingType, key, row.Type)
	}
	return row.Value, nil
}

// Int returns the value of an INT setting.
func (s *Store) Int(key string) (int, error) {
	row, err := s.active(key)
	if err != nil {
		return 0, err
	}
	if row.Type != TypeInt {
		return 0, fmt.Errorf("%w: %s is %s, not INT", ErrSettingType, key, row.Type)
	}
	v, err := strconv.Atoi(row.Value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s value %q", ErrSettingType, key, row.Value)
	}
	return v, nil
}

// Int64 returns the value of a LONG setting. INT rows are accepted too, since
// every INT fits a LONG.
func (s *Store) Int64(key string) (int64, error) {
	row, err := s.active(key)
	if err != nil {
		return 0, err
	}
	if row.Type != TypeLong && row.Type != TypeInt {
		return 0, fmt.Errorf("%w: %s is %s, not LONG", ErrSettingType, key, row.Type)
	}
	v, err := strconv.ParseInt(row.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s value %q", ErrSettingType, key, row.Value)
	}
	return v, nil
}

// Bool returns the value of a BOOL setting.
func (s *Store) Bool(key string) (bool, error) {
	row, err := s.active(key)
	if err != nil {
		return false, err
	}
	if row.Type != TypeBool {
		return false, fmt.Errorf("%w: %s is %s, not BOOL", ErrSettingType, key, row.Type)
	}
	v, err := strconv.ParseBool(row.Value)
	if err != nil {
		return false, fmt.Errorf("%w: %s value %q", ErrSettingType, key, row.Value)
	}
	return v, nil
}

// Float returns the value of a DOUBLE setting.
func (s *Store) Float(key string) (float64, error) {
	row, err := s.active(key)
	if err != nil {
		return 0, err
	}
	if row.Type != TypeDouble {
		return 0, fmt.Errorf("%w: %s is %s, not DOUBLE", ErrSettingType, key, row.Type)
	}
	v, err := strconv.ParseFloat(row.Value, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s value %q", ErrSettingType, key, row.Value)
	}
	return v, nil
}

// Get returns the raw row for a key regardless of its active flag.
func (s *Store) Get(key string) (Setting, error) {
	s.mu.RLock()
	row, ok := s.items[key]
	s.mu.RUnlock()

	if !ok {
		return Setting{}, fmt.Errorf("%w: %s", ErrSettingNotFound, key)
	}
	return row, nil
}

// All returns a copy of the current snapshot.
func (s *Store) All() []Setting {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Setting, 0, len(s.items))
	for _, row := range s.items {
		out = append(out, row)
	}
	return out
}

/*
====================================
MUTATIONS
====================================
*/

func (s *Store) patch(row Setting) {
	s.mu.Lock()
	s.items[row.Key] = row
	s.mu.Unlock()
}

// Update replaces the value of an existing key.
func (s *Store) Update(ctx context.Context, key, value string) error {
	row, err := s.Get(key)
	if err != nil {
		return err
	}

	row.Value = value
	if err := s.repo.Update(ctx, &row); err != nil {
		return fmt.Errorf("settings update %s: %w", key, err)
	}
	s.patch(row)
	return nil
}

// Activate re-enables a previously deactivated key.
func (s *Store) Activate(ctx context.Context, key string) error {
	return s.setActive(ctx, key, true)
}

// Deactivate disables a key so getters report it as not found. System
// defaults cannot be deactivated.
func (s *Store) Deactivate(ctx context.Context, key string) error {
	return s.setActive(ctx, key, false)
}

func (s *Store) setActive(ctx context.Context, key string, active bool) error {
	row, err := s.Get(key)
	if err != nil {
		return err
	}
	if !active && row.SystemDefault {
		return fmt.Errorf("%w: cannot deactivate system default %s", ErrInvalidOperation, key)
	}

	row.Active = active
	if err := s.repo.Update(ctx, &row); err != nil {
		return fmt.Errorf("settings activate %s: %w", key, err)
	}
	s.patch(row)
	return nil
}

// Delete removes a non-default key entirely. System defaults are protected;
// they can only be reset, never removed.
func (s *Store) Delete(ctx context.Context, key string) error {
	row, err := s.Get(key)
	if err != nil {
		return err
	}
	if row.SystemDefault {
		return fmt.Errorf("%w: cannot delete system default %s", ErrInvalidOperation, key)
	}

	if err := s.repo.Delete(ctx, key); err != nil {
		return fmt.Errorf("settings delete %s: %w", key, err)
	}

	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

// ResetToDefault restores the seed-time value of a system default and
// reactivates the row.
func (s *Store) ResetToDefault(ctx context.Context, key string) error {
	row, err := s.Get(key)
	if err != nil {
		return err
	}
	if !row.SystemDefault {
		return fmt.Errorf("%w: %s is not a system default", ErrInvalidOperation, key)
	}

	row.Value = row.Default
	row.Active = true
	if err := s.repo.Update(ctx, &row); err != nil {
		return fmt.Errorf("settings reset %s: %w", key, err)
	}
	s.patch(row)
	return nil
}
