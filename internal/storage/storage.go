package storage

import (
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Well-known setting keys.
const (
	KeyToken       = "token"
	KeyPendingPlan = "pending_plan"
	KeyUIState     = "ui-storage"
)

// Setting is one durable key-value entry. The client keeps only a handful of
// these: the bearer token, the pending checkout plan and the UI preferences.
type Setting struct {
	gorm.Model
	Key   string `gorm:"uniqueIndex;not null"`
	Value string
}

// Store is the durable client-side storage backing sessions and preferences.
// Reads and writes go through gorm so state survives restarts.
type Store struct {
	db *gorm.DB
}

// Open creates the storage connection and migrates the schema.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	if err := db.AutoMigrate(&Setting{}); err != nil {
		return nil, fmt.Errorf("failed to migrate storage schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Get returns the value for key, or "" when the key is absent.
func (s *Store) Get(key string) (string, error) {
	var setting Setting
	err := s.db.First(&setting, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %q: %w", key, err)
	}
	return setting.Value, nil
}

// Set writes the value for key, creating the entry if needed.
func (s *Store) Set(key, value string) error {
	var setting Setting
	err := s.db.First(&setting, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		setting = Setting{Key: key, Value: value}
		if err := s.db.Create(&setting).Error; err != nil {
			return fmt.Errorf("failed to create setting %q: %w", key, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read setting %q: %w", key, err)
	}

	if err := s.db.Model(&setting).Update("value", value).Error; err != nil {
		return fmt.Errorf("failed to update setting %q: %w", key, err)
	}
	return nil
}

// Delete removes the entry for key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	if err := s.db.Unscoped().Where("key = ?", key).Delete(&Setting{}).Error; err != nil {
		return fmt.Errorf("failed to delete setting %q: %w", key, err)
	}
	return nil
}

// Token returns the persisted bearer token, or "" when logged out.
// Satisfies the api client's TokenProvider.
func (s *Store) Token() string {
	token, err := s.Get(KeyToken)
	if err != nil {
		return ""
	}
	return token
}

// SetToken persists the bearer token.
func (s *Store) SetToken(token string) error {
	return s.Set(KeyToken, token)
}

// ClearToken removes the persisted bearer token.
func (s *Store) ClearToken() error {
	return s.Delete(KeyToken)
}

// PendingPlan returns the plan tier saved before an off-site payment redirect.
func (s *Store) PendingPlan() (string, error) {
	return s.Get(KeyPendingPlan)
}

// SetPendingPlan saves the chosen plan tier ahead of an off-site redirect.
func (s *Store) SetPendingPlan(plan string) error {
	return s.Set(KeyPendingPlan, plan)
}

// ClearPendingPlan removes the saved plan after the checkout completes.
func (s *Store) ClearPendingPlan() error {
	return s.Delete(KeyPendingPlan)
}
