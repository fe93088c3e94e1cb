package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/glebarez/sqlite"
	"github.com/vesaa/calqshell/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Backend is durable key-value storage.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// OpenDB opens the database and runs AutoMigrate.
func OpenDB(driver, path string, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite", "":
		dialector = sqlite.Open(path)
	default:
		return nil, fmt.Errorf("unsupported db_driver %q (use 'sqlite' or 'memory')", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.AutoMigrate(&models.Preference{}); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	if log != nil {
		log.Info("database opened", zap.String("driver", "sqlite"), zap.String("path", path))
	}
	return db, nil
}

// SQLBackend stores preferences in the preferences table.
type SQLBackend struct {
	db *gorm.DB
}

// NewSQLBackend wraps an opened and migrated database.
func NewSQLBackend(db *gorm.DB) *SQLBackend {
	return &SQLBackend{db: db}
}

// Get returns the value under key and whether it was present.
func (b *SQLBackend) Get(ctx context.Context, key string) (string, bool, error) {
	var p models.Preference
	err := b.db.WithContext(ctx).Where("pref_key = ?", key).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return p.Value, true, nil
}

// Put upserts key.
func (b *SQLBackend) Put(ctx context.Context, key, value string) error {
	p := models.Preference{Key: key, Value: value}
	return b.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pref_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&p).Error
}

// Delete removes key. Deleting an absent key is not an error.
func (b *SQLBackend) Delete(ctx context.Context, key string) error {
	return b.db.WithContext(ctx).Where("pref_key = ?", key).Delete(&models.Preference{}).Error
}

// MemoryBackend keeps entries for the lifetime of the process.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryBackend returns an empty, process-local backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string]string)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryBackend) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
