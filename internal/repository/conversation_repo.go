package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/harmonia-app/matchcore/internal/db"
)

// Unlock flag names, used for guarded updates and unlock-changed events.
const (
	FlagVideoDate       = "video_date_unlocked"
	FlagExtendedDate    = "extended_date_unlocked"
	FlagHighValueAction = "high_value_action_unlocked"
)

// ConversationRepository provides data access for the Conversation model.
type ConversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository creates a new repository bound to the given DB connection.
func NewConversationRepository(database *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: database}
}

// CreateForMatch inserts the 1:1 conversation for a match. Safe to call
// twice: the unique index on match_id makes the second call a no-op and
// the existing row is returned.
func (r *ConversationRepository) CreateForMatch(ctx context.Context, matchID uint64) (*db.Conversation, error) {
	conv := db.Conversation{MatchID: matchID}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "match_id"}},
			DoNothing: true,
		}).
		Create(&conv).Error
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, err
	}
	return r.GetByMatchID(ctx, matchID)
}

// GetByMatchID returns the conversation owned by the match.
func (r *ConversationRepository) GetByMatchID(ctx context.Context, matchID uint64) (*db.Conversation, error) {
	var conv db.Conversation
	err := r.db.WithContext(ctx).Where("match_id = ?", matchID).First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// GetByID returns a conversation by primary key.
func (r *ConversationRepository) GetByID(ctx context.Context, id uint64) (*db.Conversation, error) {
	var conv db.Conversation
	if err := r.db.WithContext(ctx).First(&conv, id).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

// SetUnlocked raises a single unlock flag.
//
// Behavior:
//   - Monotonic by construction: the UPDATE only matches rows where the
//     flag is still false, so a flag never reverts and a concurrent
//     duplicate raise affects zero rows.
//   - Returns true only for the call that performed the false→true flip,
//     which is the call that owns emitting the unlock-changed event.
func (r *ConversationRepository) SetUnlocked(ctx context.Context, conversationID uint64, flag string) (bool, error) {
	switch flag {
	case FlagVideoDate, FlagExtendedDate, FlagHighValueAction:
	default:
		return false, errors.New("unknown unlock flag: " + flag)
	}

	res := r.db.WithContext(ctx).
		Model(&db.Conversation{}).
		Where("id = ? AND "+flag+" = ?", conversationID, false).
		Update(flag, true)
	return res.RowsAffected > 0, res.Error
}

// RecountMessages re-derives message_count from surviving message rows.
// Repair path for drift detection; the hot path increments atomically.
func (r *ConversationRepository) RecountMessages(ctx context.Context, conversationID uint64) error {
	return r.db.WithContext(ctx).
		Model(&db.Conversation{}).
		Where("id = ?", conversationID).
		Update("message_count", r.db.
			Model(&db.Message{}).
			Select("COUNT(*)").
			Where("conversation_id = ?", conversationID),
		).Error
}
