// Package authz exposes row-scoped read predicates for the platform's
// authorization layer. Predicates are pure functions over loaded rows so
// the enforcing layer decides where and when to evaluate them.
package authz

import (
	"github.com/harmonia-app/matchcore/internal/db"
)

// CanReadRating: a rating belongs to its author. The rated side sees only
// derived match state, never the raw rating.
func CanReadRating(actorID uint64, r *db.Rating) bool {
	return r != nil && r.RaterID == actorID
}

// CanReadMatch: either participant.
func CanReadMatch(actorID uint64, m *db.Match) bool {
	return m != nil && (m.UserAID == actorID || m.UserBID == actorID)
}

// CanReadMessage: sender or recipient.
func CanReadMessage(actorID uint64, msg *db.Message) bool {
	return msg != nil && (msg.SenderID == actorID || msg.RecipientID == actorID)
}

// CanReadSession: either participant.
func CanReadSession(actorID uint64, s *db.VideoSession) bool {
	return s != nil && (s.ParticipantA == actorID || s.ParticipantB == actorID)
}

// CanReadGoal: the owner always; the sharing partner only while sharing is
// on AND the match between owner and partner is still active. The caller
// resolves match state and passes it in, keeping the predicate pure.
func CanReadGoal(actorID uint64, g *db.Goal, matchActive bool) bool {
	if g == nil {
		return false
	}
	if g.OwnerID == actorID {
		return true
	}
	return g.SharedWithPartner && g.PartnerID != nil && *g.PartnerID == actorID && matchActive
}
