// Package repository provides the ledger store backends.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/taylorbuilt/drawline/internal/project/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRecord is the persistence row: one serialized ledger per estimate.
type LedgerRecord struct {
	EstimateID string    `gorm:"primaryKey;type:text"`
	Data       string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (LedgerRecord) TableName() string { return "project_ledgers" }

type gormStore struct {
	db *gorm.DB
}

// NewGormStore returns a Store backed by the relational database. The
// backing table is migrated on construction.
func NewGormStore(db *gorm.DB) (domain.Store, error) {
	if err := db.AutoMigrate(&LedgerRecord{}); err != nil {
		return nil, err
	}
	return &gormStore{db: db}, nil
}

func (s *gormStore) Get(ctx context.Context, key string) (string, bool, error) {
	var record LedgerRecord
	err := s.db.WithContext(ctx).First(&record, "estimate_id = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return record.Data, true, nil
}

func (s *gormStore) Set(ctx context.Context, key, value string) error {
	record := LedgerRecord{EstimateID: key, Data: value}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "estimate_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&record).Error
}

func (s *gormStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Delete(&LedgerRecord{}, "estimate_id = ?", key).Error
}

func (s *gormStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.db.WithContext(ctx).
		Model(&LedgerRecord{}).
		Order("estimate_id asc").
		Pluck("estimate_id", &keys).Error
	if err != nil {
		return nil, err
	}
	return keys, nil
}
