package settings

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newGormStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "settings.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Discard,
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}

	repo, err := NewGormRepository(db)
	if err != nil {
		t.Fatalf("NewGormRepository: %v", err)
	}
	return NewStore(repo, zap.NewNop())
}

func TestGormSeedAndRead(t *testing.T) {
	store := newGormStore(t)
	ctx := context.Background()

	if err := store.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := store.Seed(ctx); err != nil {
		t.Fatalf("second seed must be a no-op: %v", err)
	}
	if err := store.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	if len(store.All()) != len(Defaults()) {
		t.Fatalf("row count = %d, want %d", len(store.All()), len(Defaults()))
	}
	if v, err := store.Int(KeyAccessExpiryMinutes); err != nil || v != 180 {
		t.Fatalf("Int(access expiry) = %d, %v", v, err)
	}
}

func TestGormCreateDuplicate(t *testing.T) {
	store := newGormStore(t)
	ctx := context.Background()

	row := Setting{Key: "dup.key", Value: "1", Type: TypeInt, Category: "test", Active: true}
	if err := store.repo.Create(ctx, &row); err != nil {
		t.Fatalf("first create: %v", err)
	}

	again := Setting{Key: "dup.key", Value: "2", Type: TypeInt, Category: "test", Active: true}
	if err := store.repo.Create(ctx, &again); !errors.Is(err, ErrSettingExists) {
		t.Fatalf("duplicate create: got %v, want ErrSettingExists", err)
	}
}

func TestGormUpdatePersists(t *testing.T) {
	store := newGormStore(t)
	ctx := context.Background()

	if err := store.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := store.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if err := store.Update(ctx, KeyPasswordMaxLength, "128"); err != nil {
		t.Fatalf("Update: %v", err)
	}

	// A second store over the same repository sees the persisted value.
	other := NewStore(store.repo, zap.NewNop())
	if err := other.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if v, err := other.Int(KeyPasswordMaxLength); err != nil || v != 128 {
		t.Fatalf("persisted value = %d, %v", v, err)
	}
}
