package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/harmonia-app/matchcore/internal/db"
)

// GoalRepository provides data access for the Goal model.
type GoalRepository struct {
	db *gorm.DB
}

// NewGoalRepository creates a new repository bound to the given DB connection.
func NewGoalRepository(database *gorm.DB) *GoalRepository {
	return &GoalRepository{db: database}
}

// Create inserts a new goal.
func (r *GoalRepository) Create(ctx context.Context, goal *db.Goal) error {
	return r.db.WithContext(ctx).Create(goal).Error
}

// Save persists the full goal row.
func (r *GoalRepository) Save(ctx context.Context, goal *db.Goal) error {
	return r.db.WithContext(ctx).Save(goal).Error
}

// GetByID returns a goal by primary key.
func (r *GoalRepository) GetByID(ctx context.Context, id uint64) (*db.Goal, error) {
	var goal db.Goal
	if err := r.db.WithContext(ctx).First(&goal, id).Error; err != nil {
		return nil, err
	}
	return &goal, nil
}

// ListByOwner returns all goals owned by the user, newest first.
func (r *GoalRepository) ListByOwner(ctx context.Context, ownerID uint64) ([]db.Goal, error) {
	var goals []db.Goal
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Find(&goals).Error
	return goals, err
}

// ListSharedWith returns goals shared with the given partner.
func (r *GoalRepository) ListSharedWith(ctx context.Context, partnerID uint64) ([]db.Goal, error) {
	var goals []db.Goal
	err := r.db.WithContext(ctx).
		Where("partner_id = ? AND shared_with_partner = ?", partnerID, true).
		Order("created_at DESC, id DESC").
		Find(&goals).Error
	return goals, err
}
