package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/harmonia-app/matchcore/internal/db"
)

// SubscriptionRepository provides data access for the Subscription model.
type SubscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new repository bound to the given DB connection.
func NewSubscriptionRepository(database *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: database}
}

// LatestActive returns the owner's most recent active subscription whose
// validity window contains now, or nil when none exists. Ties break by
// starts_at recency, then id.
func (r *SubscriptionRepository) LatestActive(ctx context.Context, ownerID uint64, now time.Time) (*db.Subscription, error) {
	var sub db.Subscription
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND status = ? AND starts_at <= ? AND expires_at > ?",
			ownerID, db.SubscriptionActive, now, now).
		Order("starts_at DESC, id DESC").
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Activate makes sub the owner's single active subscription.
//
// Behavior:
//   - Runs in one transaction: first expires any currently-active rows for
//     the owner, then inserts the new row as active. Keeps the at-most-one
//     active invariant without a partial unique index.
func (r *SubscriptionRepository) Activate(ctx context.Context, sub *db.Subscription) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&db.Subscription{}).
			Where("owner_id = ? AND status = ?", sub.OwnerID, db.SubscriptionActive).
			Update("status", db.SubscriptionExpired).Error; err != nil {
			return err
		}
		sub.Status = db.SubscriptionActive
		return tx.Create(sub).Error
	})
}

// ExpireDue flips active subscriptions whose window has closed to expired.
// Invoked by the scheduling collaborator; repeat-safe.
func (r *SubscriptionRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Subscription{}).
		Where("status = ? AND expires_at <= ?", db.SubscriptionActive, now).
		Update("status", db.SubscriptionExpired)
	return res.RowsAffected, res.Error
}

// Cancel marks a subscription cancelled. Only active or pending rows move.
func (r *SubscriptionRepository) Cancel(ctx context.Context, id uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Subscription{}).
		Where("id = ? AND status IN ?", id, []string{db.SubscriptionActive, db.SubscriptionPending}).
		Update("status", db.SubscriptionCancelled)
	return res.RowsAffected > 0, res.Error
}
