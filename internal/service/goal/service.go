package goal

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/harmonia-app/matchcore/internal/app"
	"github.com/harmonia-app/matchcore/internal/db"
	svcErr "github.com/harmonia-app/matchcore/internal/errors"
	"github.com/harmonia-app/matchcore/internal/repository"
)

// Input carries the writable goal fields. Milestones and
// CompletedMilestones are parallel arrays; every write must keep their
// lengths equal.
type Input struct {
	Title               string `validate:"required,max=255"`
	Specific            string
	Measurable          string
	Achievable          string
	Relevant            string
	TargetDate          *time.Time
	Progress            int `validate:"gte=0,lte=100"`
	Milestones          []string
	CompletedMilestones []bool
}

// Service manages the improvement-goal lifecycle and its partner
// visibility rules.
type Service struct {
	appCtx    *app.AppContext
	goalRepo  *repository.GoalRepository
	matchRepo *repository.MatchRepository
	validate  *validator.Validate
}

// NewService creates the goal service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:    appCtx,
		goalRepo:  repository.NewGoalRepository(appCtx.DB),
		matchRepo: repository.NewMatchRepository(appCtx.DB),
		validate:  validator.New(),
	}
}

// Create inserts a new active goal for the owner.
func (s *Service) Create(ctx context.Context, ownerID uint64, in Input) (*db.Goal, error) {
	if err := s.checkInput(in); err != nil {
		return nil, err
	}
	g := &db.Goal{
		OwnerID:             ownerID,
		Title:               in.Title,
		Specific:            in.Specific,
		Measurable:          in.Measurable,
		Achievable:          in.Achievable,
		Relevant:            in.Relevant,
		TargetDate:          in.TargetDate,
		Progress:            in.Progress,
		Milestones:          in.Milestones,
		CompletedMilestones: in.CompletedMilestones,
		Status:              db.GoalActive,
	}
	if err := s.goalRepo.Create(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// Update rewrites the goal's writable fields. Owner only.
func (s *Service) Update(ctx context.Context, ownerID, goalID uint64, in Input) (*db.Goal, error) {
	if err := s.checkInput(in); err != nil {
		return nil, err
	}
	g, err := s.getOwned(ctx, ownerID, goalID)
	if err != nil {
		return nil, err
	}
	g.Title = in.Title
	g.Specific = in.Specific
	g.Measurable = in.Measurable
	g.Achievable = in.Achievable
	g.Relevant = in.Relevant
	g.TargetDate = in.TargetDate
	g.Progress = in.Progress
	g.Milestones = in.Milestones
	g.CompletedMilestones = in.CompletedMilestones
	if err := s.goalRepo.Save(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// SetCompleted toggles completion.
//
// Behavior:
//   - true: stamps completed_at with the current time and forces progress
//     to 100.
//   - false: clears completed_at; progress is left where it was.
func (s *Service) SetCompleted(ctx context.Context, ownerID, goalID uint64, completed bool) (*db.Goal, error) {
	g, err := s.getOwned(ctx, ownerID, goalID)
	if err != nil {
		return nil, err
	}
	if completed {
		now := s.appCtx.Clock.Now()
		g.IsCompleted = true
		g.CompletedAt = &now
		g.Progress = 100
	} else {
		g.IsCompleted = false
		g.CompletedAt = nil
	}
	if err := s.goalRepo.Save(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// SetStatus moves the goal between active, paused, completed, archived.
func (s *Service) SetStatus(ctx context.Context, ownerID, goalID uint64, status string) error {
	switch status {
	case db.GoalActive, db.GoalPaused, db.GoalCompleted, db.GoalArchived:
	default:
		return svcErr.Validation("unknown goal status %q", status)
	}
	g, err := s.getOwned(ctx, ownerID, goalID)
	if err != nil {
		return err
	}
	g.Status = status
	return s.goalRepo.Save(ctx, g)
}

// Share makes the goal visible to partnerID. Requires an existing active
// match between owner and partner; visibility lapses with the match.
func (s *Service) Share(ctx context.Context, ownerID, goalID, partnerID uint64) error {
	active, err := s.matchRepo.ActiveBetween(ctx, ownerID, partnerID)
	if err != nil {
		return err
	}
	if !active {
		return svcErr.InvalidState("no active match between %d and %d", ownerID, partnerID)
	}
	g, err := s.getOwned(ctx, ownerID, goalID)
	if err != nil {
		return err
	}
	g.SharedWithPartner = true
	g.PartnerID = &partnerID
	return s.goalRepo.Save(ctx, g)
}

// Unshare revokes partner visibility.
func (s *Service) Unshare(ctx context.Context, ownerID, goalID uint64) error {
	g, err := s.getOwned(ctx, ownerID, goalID)
	if err != nil {
		return err
	}
	g.SharedWithPartner = false
	g.PartnerID = nil
	return s.goalRepo.Save(ctx, g)
}

// Get returns a goal the actor may read: their own, or one shared with
// them while the sharing match remains active.
func (s *Service) Get(ctx context.Context, actorID, goalID uint64) (*db.Goal, error) {
	g, err := s.goalRepo.GetByID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if g.OwnerID == actorID {
		return g, nil
	}
	if g.SharedWithPartner && g.PartnerID != nil && *g.PartnerID == actorID {
		active, err := s.matchRepo.ActiveBetween(ctx, g.OwnerID, actorID)
		if err != nil {
			return nil, err
		}
		if active {
			return g, nil
		}
	}
	return nil, svcErr.NotFound("goal %d not found", goalID)
}

// ListOwn returns the actor's goals, newest first.
func (s *Service) ListOwn(ctx context.Context, actorID uint64) ([]db.Goal, error) {
	return s.goalRepo.ListByOwner(ctx, actorID)
}

func (s *Service) checkInput(in Input) error {
	if err := s.validate.Struct(in); err != nil {
		return svcErr.Validation("invalid goal: %v", err)
	}
	if len(in.Milestones) != len(in.CompletedMilestones) {
		return svcErr.Validation("milestones and completions must have equal length: %d != %d",
			len(in.Milestones), len(in.CompletedMilestones))
	}
	return nil
}

func (s *Service) getOwned(ctx context.Context, ownerID, goalID uint64) (*db.Goal, error) {
	g, err := s.goalRepo.GetByID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if g.OwnerID != ownerID {
		return nil, svcErr.NotFound("goal %d not found", goalID)
	}
	return g, nil
}
