package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/harmonia-app/matchcore/internal/db"
)

// SessionRepository provides data access for the VideoSession model.
type SessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new repository bound to the given DB connection.
func NewSessionRepository(database *gorm.DB) *SessionRepository {
	return &SessionRepository{db: database}
}

// Create inserts a new session row.
func (r *SessionRepository) Create(ctx context.Context, session *db.VideoSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// GetByID returns a session by primary key.
func (r *SessionRepository) GetByID(ctx context.Context, id uint64) (*db.VideoSession, error) {
	var session db.VideoSession
	if err := r.db.WithContext(ctx).First(&session, id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// Transition moves a session from one status to another, applying extra
// column updates in the same statement.
//
// Behavior:
//   - The status guard makes the transition race-safe: two concurrent
//     transitions from the same state can both pass the service-level
//     check, but only one UPDATE matches the row.
//   - Returns true only for the call that performed the transition.
func (r *SessionRepository) Transition(ctx context.Context, id uint64, from, to string, sets map[string]any) (bool, error) {
	updates := map[string]any{"status": to}
	for k, v := range sets {
		updates[k] = v
	}
	res := r.db.WithContext(ctx).
		Model(&db.VideoSession{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

// CompletedExists reports whether any session for the match has reached
// completed. Input to the extended-date unlock rule.
func (r *SessionRepository) CompletedExists(ctx context.Context, matchID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.VideoSession{}).
		Where("match_id = ? AND status = ?", matchID, db.SessionCompleted).
		Count(&count).Error
	return count > 0, err
}

// FileSafetyReport raises the safety flag once and records when.
// Returns true only for the false→true transition.
func (r *SessionRepository) FileSafetyReport(ctx context.Context, id uint64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.VideoSession{}).
		Where("id = ? AND safety_report_filed = ?", id, false).
		Updates(map[string]any{
			"safety_report_filed":    true,
			"safety_report_filed_at": at,
		})
	return res.RowsAffected > 0, res.Error
}

// SetRecordingRetention extends the recording retention window.
// Extend-only: an earlier candidate than the current date affects no rows.
func (r *SessionRepository) SetRecordingRetention(ctx context.Context, id uint64, retainUntil time.Time) error {
	return r.db.WithContext(ctx).
		Model(&db.VideoSession{}).
		Where("id = ? AND (recording_retention_date IS NULL OR recording_retention_date < ?)", id, retainUntil).
		Update("recording_retention_date", retainUntil).Error
}

// ClearExpiredRecordings drops recording references whose retention has
// passed the cutoff. Zero matches is success.
func (r *SessionRepository) ClearExpiredRecordings(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db.VideoSession{}).
		Where("recording_retention_date IS NOT NULL AND recording_retention_date <= ?", cutoff).
		Updates(map[string]any{
			"recording_id":             nil,
			"recording_retention_date": nil,
		})
	return res.RowsAffected, res.Error
}
