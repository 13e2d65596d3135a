package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/harmonia-app/matchcore/internal/db"
)

// SwipeRepository provides data access for the DailySwipeCounter model.
type SwipeRepository struct {
	db *gorm.DB
}

// NewSwipeRepository creates a new repository bound to the given DB connection.
func NewSwipeRepository(database *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: database}
}

// TryIncrement bumps the (owner, day) counter by one unless the limit is
// already reached.
//
// Behavior:
//   - The increment is a guarded relative UPDATE (count < limit), so the
//     cap holds under concurrent swipes: past the limit the UPDATE matches
//     zero rows and the call reports false.
//   - First swipe of the day inserts the row with count = 1; an insert race
//     falls back to the guarded UPDATE.
func (r *SwipeRepository) TryIncrement(ctx context.Context, ownerID uint64, day string, limit int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.DailySwipeCounter{}).
		Where("owner_id = ? AND day = ? AND count < ?", ownerID, day, limit).
		Update("count", gorm.Expr("count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	// no row yet, or at the limit: attempt first-of-day insert
	counter := db.DailySwipeCounter{OwnerID: ownerID, Day: day, Count: 1}
	ins := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_id"}, {Name: "day"}},
			DoNothing: true,
		}).
		Create(&counter)
	if ins.Error != nil && !errors.Is(ins.Error, gorm.ErrDuplicatedKey) {
		return false, ins.Error
	}
	if ins.Error == nil && ins.RowsAffected > 0 {
		return true, nil
	}

	// row appeared concurrently: one more guarded attempt, then give up
	res = r.db.WithContext(ctx).
		Model(&db.DailySwipeCounter{}).
		Where("owner_id = ? AND day = ? AND count < ?", ownerID, day, limit).
		Update("count", gorm.Expr("count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Count returns the counter value for (owner, day); zero when absent.
func (r *SwipeRepository) Count(ctx context.Context, ownerID uint64, day string) (int, error) {
	var counter db.DailySwipeCounter
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND day = ?", ownerID, day).
		First(&counter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return counter.Count, nil
}
