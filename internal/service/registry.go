package service

import (
	"github.com/harmonia-app/matchcore/internal/app"
	"github.com/harmonia-app/matchcore/internal/events"
	"github.com/harmonia-app/matchcore/internal/service/access"
	"github.com/harmonia-app/matchcore/internal/service/conversation"
	"github.com/harmonia-app/matchcore/internal/service/discovery"
	"github.com/harmonia-app/matchcore/internal/service/goal"
	"github.com/harmonia-app/matchcore/internal/service/match"
	"github.com/harmonia-app/matchcore/internal/service/rating"
	"github.com/harmonia-app/matchcore/internal/service/retention"
	"github.com/harmonia-app/matchcore/internal/service/session"
)

// Registry constructs every domain service and wires the event cascade:
// rating → match formulation, message/session → unlock recompute. The
// cascade runs through the dispatcher so it stays visible and testable
// rather than hiding in write hooks.
type Registry struct {
	Rating       *rating.Service
	Match        *match.Service
	Conversation *conversation.Service
	Session      *session.Service
	Retention    *retention.Service
	Access       *access.Service
	Goal         *goal.Service
	Discovery    *discovery.Service
}

// NewRegistry builds all services from the shared AppContext and
// subscribes the derived-state handlers.
func NewRegistry(appCtx *app.AppContext) *Registry {
	r := &Registry{
		Rating:       rating.NewService(appCtx),
		Match:        match.NewService(appCtx),
		Conversation: conversation.NewService(appCtx),
		Session:      session.NewService(appCtx),
		Retention:    retention.NewService(appCtx),
		Access:       access.NewService(appCtx),
		Goal:         goal.NewService(appCtx),
		Discovery:    discovery.NewService(appCtx),
	}

	appCtx.Events.Subscribe(events.RatingRecorded{}.Name(), r.Match.HandleRatingRecorded)
	appCtx.Events.Subscribe(events.MessageSent{}.Name(), r.Conversation.HandleMessageSent)
	appCtx.Events.Subscribe(events.SessionCompleted{}.Name(), r.Conversation.HandleSessionCompleted)

	return r
}
