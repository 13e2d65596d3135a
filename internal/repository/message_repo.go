package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/harmonia-app/matchcore/internal/db"
	"github.com/harmonia-app/matchcore/internal/utils/pagination"
)

// MessageRepository provides data access for the Message model and the
// conversation counter that rides along with it.
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new repository bound to the given DB connection.
func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

// CreateWithCount inserts the message and bumps the conversation counter
// in one transaction.
//
// Behavior:
//   - message_count is incremented with a relative SQL expression, not a
//     read-modify-write, so concurrent sends never lose updates.
//   - last_message_at is set to the message timestamp in the same UPDATE.
func (r *MessageRepository) CreateWithCount(ctx context.Context, msg *db.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&db.Conversation{}).
			Where("id = ?", msg.ConversationID).
			Updates(map[string]any{
				"message_count":   gorm.Expr("message_count + 1"),
				"last_message_at": msg.CreatedAt,
			}).Error
	})
}

// GetByID returns a message by primary key.
func (r *MessageRepository) GetByID(ctx context.Context, id uint64) (*db.Message, error) {
	var msg db.Message
	if err := r.db.WithContext(ctx).First(&msg, id).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// List returns conversation history newest-first with cursor pagination.
//
// Behavior:
//   - Ordered by created_at DESC, id DESC for a stable cursor.
//   - Returns limit rows and, when more remain, an opaque next-page token.
func (r *MessageRepository) List(
	ctx context.Context,
	conversationID uint64,
	paginationToken *string,
	limit int,
) ([]db.Message, *string, error) {
	var messages []db.Message

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	if cursor.MessageID > 0 && cursor.CreatedUnix > 0 {
		ts := time.UnixMilli(cursor.CreatedUnix)
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND id < ?))",
			ts, ts, cursor.MessageID,
		)
	}

	if err := query.Find(&messages).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(messages) > limit {
		last := messages[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			MessageID:   last.ID,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		messages = messages[:limit]
	}

	return messages, nextToken, nil
}

// MarkRead stamps read_at once; re-reads keep the original timestamp.
func (r *MessageRepository) MarkRead(ctx context.Context, id uint64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", at).Error
}

// Flag marks the message flagged and extends retention.
//
// Behavior:
//   - The retention_date guard makes the update extend-only: a candidate
//     date earlier than the current one affects zero rows, so re-flagging
//     can never shorten the window.
func (r *MessageRepository) Flag(ctx context.Context, id uint64, retainUntil time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&db.Message{}).
			Where("id = ?", id).
			Update("flagged", true).Error; err != nil {
			return err
		}
		return tx.Model(&db.Message{}).
			Where("id = ? AND retention_date < ?", id, retainUntil).
			Update("retention_date", retainUntil).Error
	})
}

// DeleteExpired removes every message whose retention_date has passed the
// cutoff. Zero matches is success; the delete is a single point-in-time
// filtered statement so it tolerates concurrent writes.
func (r *MessageRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("retention_date <= ?", cutoff).
		Delete(&db.Message{})
	return res.RowsAffected, res.Error
}

// ExpiringBetween returns messages whose retention falls inside (from, to],
// for retention-imminent notification events.
func (r *MessageRepository) ExpiringBetween(ctx context.Context, from, to time.Time) ([]db.Message, error) {
	var messages []db.Message
	err := r.db.WithContext(ctx).
		Where("retention_date > ? AND retention_date <= ?", from, to).
		Find(&messages).Error
	return messages, err
}

// CountByConversation counts surviving rows, for the recount repair path.
func (r *MessageRepository) CountByConversation(ctx context.Context, conversationID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("conversation_id = ?", conversationID).
		Count(&count).Error
	return count, err
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
