package db

import (
	"time"
)

// User table
type User struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"uniqueIndex;size:64;not null"`
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Active       bool   `gorm:"default:true"`
	LastLoginAt  time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// Rating is one actor's assessment of another, immutable once written.
//
// Composite PK: (RaterID, RatedID)
//   - Guarantees a single rating per ordered pair; re-rating is a conflict,
//     not an overwrite.
//
// The four weights are captured at write time so later changes to a user's
// learned priorities never retroactively alter historical ratings. Overall
// is derived from sub-scores and weights at write time and stored alongside
// the raw inputs.
type Rating struct {
	RaterID uint64 `gorm:"primaryKey"`
	RatedID uint64 `gorm:"primaryKey;index:idx_rated_overall,priority:1"`

	Communication int `gorm:"not null"`
	Chemistry     int `gorm:"not null"`
	Values        int `gorm:"not null"`
	Lifestyle     int `gorm:"not null"`

	WeightCommunication float64 `gorm:"not null"`
	WeightChemistry     float64 `gorm:"not null"`
	WeightValues        float64 `gorm:"not null"`
	WeightLifestyle     float64 `gorm:"not null"`

	Overall   int       `gorm:"not null;index:idx_rated_overall,priority:2"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// SubScores returns the four raw sub-scores in canonical order.
func (r *Rating) SubScores() [4]int {
	return [4]int{r.Communication, r.Chemistry, r.Values, r.Lifestyle}
}

// Weights returns the captured weight vector in canonical order.
func (r *Rating) Weights() [4]float64 {
	return [4]float64{r.WeightCommunication, r.WeightChemistry, r.WeightValues, r.WeightLifestyle}
}

// Match statuses.
const (
	MatchActive   = "active"
	MatchArchived = "archived"
	MatchBlocked  = "blocked"
)

// Match is the canonical record for a mutually-qualified pair.
//
// UserAID < UserBID always; the unique index on the ordered pair is the
// atomic primitive that makes concurrent creation from both sides yield
// exactly one row.
type Match struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	UserAID uint64 `gorm:"not null;uniqueIndex:idx_match_pair,priority:1;index:idx_match_a_status"`
	UserBID uint64 `gorm:"not null;uniqueIndex:idx_match_pair,priority:2;index:idx_match_b_status"`

	ScoreAB       int    `gorm:"not null"` // A's rating of B
	ScoreBA       int    `gorm:"not null"` // B's rating of A
	Compatibility int    `gorm:"not null"`
	Status        string `gorm:"size:16;not null;default:active;index:idx_match_a_status,priority:2;index:idx_match_b_status,priority:2"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// CanonicalPair orders two user IDs lower-first.
func CanonicalPair(a, b uint64) (uint64, uint64) {
	if a < b {
		return a, b
	}
	return b, a
}

// Conversation is 1:1 with a Match. The three unlock flags transition
// false→true only and never revert; they are re-derived from current
// totals, never from deltas.
type Conversation struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement"`
	MatchID       uint64 `gorm:"not null;uniqueIndex"`
	MessageCount  int64  `gorm:"not null;default:0"`
	LastMessageAt *time.Time

	VideoDateUnlocked       bool `gorm:"not null;default:false"`
	ExtendedDateUnlocked    bool `gorm:"not null;default:false"`
	HighValueActionUnlocked bool `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Message carries conversation content. RetentionDate is the sole authority
// for expiry: computed at creation, extended (never shortened) on re-flag,
// and consulted only by the sweep.
type Message struct {
	ID             uint64 `gorm:"primaryKey;autoIncrement"`
	ConversationID uint64 `gorm:"not null;index:idx_msg_conversation"`
	SenderID       uint64 `gorm:"not null"`
	RecipientID    uint64 `gorm:"not null"`
	Content        string `gorm:"type:text;not null"`
	ReadAt         *time.Time
	Flagged        bool      `gorm:"not null;default:false"`
	RetentionDate  time.Time `gorm:"not null;index:idx_msg_retention"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

// Video session types and statuses.
const (
	SessionShort    = "short"
	SessionExtended = "extended"

	SessionScheduled = "scheduled"
	SessionActive    = "active"
	SessionCompleted = "completed"
	SessionFailed    = "failed"
	SessionCancelled = "cancelled"
)

// VideoSession is a live date between the two sides of a match.
// Participants are stored in canonical order like the match pair.
// Status is terminal once it leaves scheduled/active.
type VideoSession struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	MatchID      uint64 `gorm:"not null;index:idx_session_match_status,priority:1"`
	ParticipantA uint64 `gorm:"not null"`
	ParticipantB uint64 `gorm:"not null"`
	Type         string `gorm:"size:16;not null"`
	Status       string `gorm:"size:16;not null;default:scheduled;index:idx_session_match_status,priority:2"`
	RoomID       string `gorm:"size:36;not null"`

	ScheduledAt     time.Time `gorm:"not null"`
	StartedAt       *time.Time
	EndedAt         *time.Time
	DurationSeconds int64 `gorm:"not null;default:0"`

	SafetyReportFiled      bool `gorm:"not null;default:false"`
	SafetyReportFiledAt    *time.Time
	RecordingID            *string    `gorm:"size:36"`
	RecordingRetentionDate *time.Time `gorm:"index:idx_session_rec_retention"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Terminal reports whether the session status admits no further transitions.
func (s *VideoSession) Terminal() bool {
	switch s.Status {
	case SessionCompleted, SessionFailed, SessionCancelled:
		return true
	}
	return false
}

// Goal statuses.
const (
	GoalActive   = "active"
	GoalPaused   = "paused"
	GoalCompleted = "completed"
	GoalArchived = "archived"
)

// Goal is a structured improvement goal with SMART fields. Milestones and
// CompletedMilestones are parallel arrays and must have equal length on
// every write.
type Goal struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	OwnerID uint64 `gorm:"not null;index:idx_goal_owner"`

	Title      string `gorm:"size:255;not null"`
	Specific   string `gorm:"type:text"`
	Measurable string `gorm:"type:text"`
	Achievable string `gorm:"type:text"`
	Relevant   string `gorm:"type:text"`
	TargetDate *time.Time

	Progress    int  `gorm:"not null;default:0"`
	IsCompleted bool `gorm:"not null;default:false"`
	CompletedAt *time.Time

	Milestones          []string `gorm:"serializer:json"`
	CompletedMilestones []bool   `gorm:"serializer:json"`

	SharedWithPartner bool    `gorm:"not null;default:false"`
	PartnerID         *uint64 `gorm:"index:idx_goal_partner"`

	Status    string    `gorm:"size:16;not null;default:active"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Subscription tiers and statuses.
const (
	TierFree     = "free"
	TierDating   = "dating"
	TierTraining = "training"
	TierBundle   = "bundle"

	SubscriptionActive    = "active"
	SubscriptionExpired   = "expired"
	SubscriptionCancelled = "cancelled"
	SubscriptionPending   = "pending"
)

// Subscription grants a feature tier for a validity window. At most one
// active row per owner; activation logic expires the previous one.
type Subscription struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	OwnerID      uint64    `gorm:"not null;index:idx_sub_owner_status,priority:1"`
	Tier         string    `gorm:"size:16;not null"`
	Status       string    `gorm:"size:16;not null;default:pending;index:idx_sub_owner_status,priority:2"`
	BillingCycle string    `gorm:"size:16;not null;default:monthly"`
	StartsAt     time.Time `gorm:"not null"`
	ExpiresAt    time.Time `gorm:"not null;index:idx_sub_expiry"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// DailySwipeCounter caps discovery swipes per owner per calendar day.
//
// Composite PK: (OwnerID, Day), one row per owner per day. Day is the
// UTC date in YYYY-MM-DD form. Count never exceeds the configured limit;
// the repository guards the increment.
type DailySwipeCounter struct {
	OwnerID   uint64    `gorm:"primaryKey"`
	Day       string    `gorm:"primaryKey;size:10"`
	Count     int       `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
