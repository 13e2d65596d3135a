package events

import "time"

// Event is the marker for all domain events. Events are plain data,
// published after a committed write; collaborators (notification delivery,
// derived-state handlers) subscribe by name.
type Event interface {
	Name() string
}

// RatingRecorded fires after an immutable rating row is written.
// The match formulator listens to it.
type RatingRecorded struct {
	RaterID uint64
	RatedID uint64
	Overall int
}

func (RatingRecorded) Name() string { return "rating.recorded" }

// MatchCreated fires exactly once per pair, when mutual qualifying ratings
// first produce a match.
type MatchCreated struct {
	MatchID       uint64
	UserAID       uint64
	UserBID       uint64
	Compatibility int
}

func (MatchCreated) Name() string { return "match.created" }

// MessageSent fires after a message insert and its counter increment commit.
// The unlock recompute listens to it.
type MessageSent struct {
	MessageID      uint64
	ConversationID uint64
	MatchID        uint64
	SenderID       uint64
}

func (MessageSent) Name() string { return "message.sent" }

// SessionCompleted fires when a video session reaches completed.
// The unlock recompute listens to it.
type SessionCompleted struct {
	SessionID uint64
	MatchID   uint64
	Type      string
}

func (SessionCompleted) Name() string { return "session.completed" }

// UnlockChanged fires once per flag on its false→true transition.
type UnlockChanged struct {
	ConversationID uint64
	MatchID        uint64
	Flag           string
}

func (UnlockChanged) Name() string { return "conversation.unlock_changed" }

// RetentionImminent fires from the sweep for content expiring within the
// configured horizon. Delivery de-duplication is the subscriber's problem.
type RetentionImminent struct {
	MessageID      uint64
	ConversationID uint64
	RetentionDate  time.Time
}

func (RetentionImminent) Name() string { return "retention.imminent" }
