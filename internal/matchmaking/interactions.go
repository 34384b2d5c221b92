package matchmaking

import (
	"context"
	"fmt"

	"github.com/Zalthoryn/DatingBot/internal/app"
	"github.com/Zalthoryn/DatingBot/internal/db"
	"github.com/Zalthoryn/DatingBot/internal/repository"
)

// Outcome is the result of recording a like/skip decision.
type Outcome int

const (
	// OutcomeLikeRecorded: the like was written; no mutual like yet.
	OutcomeLikeRecorded Outcome = iota
	// OutcomeSkipRecorded: the skip was written; the pair is now excluded.
	OutcomeSkipRecorded
	// OutcomeMatchCreated: the like completed a mutual pair and this call
	// created the Match row.
	OutcomeMatchCreated
	// OutcomeAlreadyInteracted: the ordered pair had a prior interaction;
	// nothing was written. A defined answer, not an error.
	OutcomeAlreadyInteracted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLikeRecorded:
		return "like_recorded"
	case OutcomeSkipRecorded:
		return "skip_recorded"
	case OutcomeMatchCreated:
		return "match_created"
	case OutcomeAlreadyInteracted:
		return "already_interacted"
	}
	return "unknown"
}

// InteractionService wraps the repository's state transitions with validation
// and outcome classification.
type InteractionService struct {
	appCtx       *app.AppContext
	interactions *repository.InteractionRepository
}

// NewInteractionService creates the service with dependencies from AppContext.
func NewInteractionService(appCtx *app.AppContext) *InteractionService {
	return &InteractionService{
		appCtx:       appCtx,
		interactions: repository.NewInteractionRepository(appCtx.DB),
	}
}

// Record applies a like/skip decision from one profile toward another.
// Returns the outcome and, for OutcomeMatchCreated, the new Match row.
//
// Safe to retry: a redelivered decision hits the duplicate guard and comes
// back as OutcomeAlreadyInteracted without side effects.
func (s *InteractionService) Record(
	ctx context.Context,
	fromProfileID, toProfileID uint64,
	action string,
) (Outcome, *db.Match, error) {
	if fromProfileID == toProfileID {
		return 0, nil, fmt.Errorf("profile %d cannot decide on itself", fromProfileID)
	}
	if action != db.ActionLike && action != db.ActionSkip {
		return 0, nil, fmt.Errorf("unknown interaction action %q", action)
	}

	res, err := s.interactions.RecordInteraction(ctx, fromProfileID, toProfileID, action)
	if err != nil {
		return 0, nil, err
	}

	switch {
	case res.Duplicate:
		return OutcomeAlreadyInteracted, nil, nil
	case action == db.ActionSkip:
		return OutcomeSkipRecorded, nil, nil
	case res.Match != nil:
		return OutcomeMatchCreated, res.Match, nil
	default:
		return OutcomeLikeRecorded, nil, nil
	}
}
