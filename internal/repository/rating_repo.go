package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/harmonia-app/matchcore/internal/db"
	svcErr "github.com/harmonia-app/matchcore/internal/errors"
)

// RatingRepository provides data access for the immutable Rating model.
type RatingRepository struct {
	db *gorm.DB
}

// NewRatingRepository creates a new repository bound to the given DB connection.
func NewRatingRepository(database *gorm.DB) *RatingRepository {
	return &RatingRepository{db: database}
}

// Create inserts a rating for (rater, rated).
//
// Behavior:
//   - Ratings are immutable: a second write for the same ordered pair
//     surfaces as a conflict, never an overwrite.
//   - The composite PK (rater_id, rated_id) is the uniqueness authority.
func (r *RatingRepository) Create(ctx context.Context, rating *db.Rating) error {
	err := r.db.WithContext(ctx).Create(rating).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return svcErr.Conflict("rating by %d of %d already exists", rating.RaterID, rating.RatedID)
	}
	return err
}

// Get returns the rating made by rater of rated, or nil when none exists.
func (r *RatingRepository) Get(ctx context.Context, raterID, ratedID uint64) (*db.Rating, error) {
	var rating db.Rating
	err := r.db.WithContext(ctx).
		Where("rater_id = ? AND rated_id = ?", raterID, ratedID).
		First(&rating).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rating, nil
}
