package retention

import (
	"time"

	"github.com/harmonia-app/matchcore/internal/config"
)

// For computes a message's retention date at creation time. Flagged
// content is held twice as long for safety review.
func For(rules config.Domain, createdAt time.Time, flagged bool) time.Time {
	if flagged {
		return createdAt.Add(rules.FlaggedRetention)
	}
	return createdAt.Add(rules.MessageRetention)
}
