package sequence

import (
	"context"
	"errors"
	"time"

	"github.com/ariebrainware/clinic-hms/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ CounterStore = (*GormStore)(nil)

// GormStore keeps counters in the application database (MySQL in
// production, SQLite in tests).
type GormStore struct {
	db *gorm.DB
}

// NewGormStore returns a store backed by the counters table.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Next upserts the row with current_value+1 and reads it back in the same
// transaction, while the row lock taken by the upsert is still held.
func (s *GormStore) Next(ctx context.Context, key Key) (int64, error) {
	if err := key.validate(); err != nil {
		return 0, err
	}

	var value int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		counter := model.Counter{Type: key.Type, Scope: key.Scope, CurrentValue: 1}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "type"}, {Name: "scope"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"current_value": gorm.Expr("current_value + 1"),
				"updated_at":    time.Now(),
			}),
		}).Create(&counter).Error; err != nil {
			return err
		}
		return tx.Model(&model.Counter{}).
			Select("current_value").
			Where("type = ? AND scope = ?", key.Type, key.Scope).
			Scan(&value).Error
	})
	if err != nil {
		return 0, storageError("next", key, err)
	}
	return value, nil
}

// Current returns the stored value without changing it.
func (s *GormStore) Current(ctx context.Context, key Key) (int64, error) {
	if err := key.validate(); err != nil {
		return 0, err
	}

	var counter model.Counter
	err := s.db.WithContext(ctx).Where("type = ? AND scope = ?", key.Type, key.Scope).Take(&counter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, storageError("current", key, err)
	}
	return counter.CurrentValue, nil
}

// AdvanceTo raises the counter to floor when it is below it.
func (s *GormStore) AdvanceTo(ctx context.Context, key Key, floor int64) error {
	if err := key.validate(); err != nil {
		return err
	}
	if floor <= 0 {
		return nil
	}

	counter := model.Counter{Type: key.Type, Scope: key.Scope, CurrentValue: floor}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "type"}, {Name: "scope"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"current_value": gorm.Expr("CASE WHEN current_value < ? THEN ? ELSE current_value END", floor, floor),
			"updated_at":    time.Now(),
		}),
	}).Create(&counter).Error
	if err != nil {
		return storageError("advance", key, err)
	}
	return nil
}
