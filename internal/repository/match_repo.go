package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/harmonia-app/matchcore/internal/db"
)

// MatchRepository provides data access for the canonical Match model.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// CreateIfAbsent inserts the match unless one already exists for the pair,
// then returns the canonical row either way.
//
// Behavior:
//   - The unique index on (user_a_id, user_b_id) plus OnConflict DoNothing
//     is the atomic primitive: under a race from both sides exactly one
//     row wins and both callers read it back.
//   - created reports whether this call inserted the row.
func (r *MatchRepository) CreateIfAbsent(ctx context.Context, match *db.Match) (out *db.Match, created bool, err error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_a_id"}, {Name: "user_b_id"}},
			DoNothing: true,
		}).
		Create(match)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return nil, false, res.Error
	}
	created = res.Error == nil && res.RowsAffected > 0

	existing, err := r.GetByPair(ctx, match.UserAID, match.UserBID)
	if err != nil {
		return nil, false, err
	}
	return existing, created, nil
}

// GetByPair returns the match for the unordered pair, or gorm.ErrRecordNotFound.
func (r *MatchRepository) GetByPair(ctx context.Context, a, b uint64) (*db.Match, error) {
	lo, hi := db.CanonicalPair(a, b)
	var match db.Match
	err := r.db.WithContext(ctx).
		Where("user_a_id = ? AND user_b_id = ?", lo, hi).
		First(&match).Error
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// GetByID returns a match by primary key.
func (r *MatchRepository) GetByID(ctx context.Context, id uint64) (*db.Match, error) {
	var match db.Match
	if err := r.db.WithContext(ctx).First(&match, id).Error; err != nil {
		return nil, err
	}
	return &match, nil
}

// UpdateStatus moves a match to the given status, guarded by the current
// one so concurrent transitions do not stomp each other. Returns true when
// the row actually changed.
func (r *MatchRepository) UpdateStatus(ctx context.Context, id uint64, from, to string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected > 0, res.Error
}

// ActiveBetween reports whether an active match exists for the unordered pair.
func (r *MatchRepository) ActiveBetween(ctx context.Context, a, b uint64) (bool, error) {
	lo, hi := db.CanonicalPair(a, b)
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("user_a_id = ? AND user_b_id = ? AND status = ?", lo, hi, db.MatchActive).
		Count(&count).Error
	return count > 0, err
}
