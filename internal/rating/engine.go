// Package rating computes and persists profile scores. The score is a pure
// function of the stored profile, its photo count, and its match count, so
// recomputes are idempotent and safe under message redelivery.
package rating

import (
	"context"

	"github.com/Zalthoryn/DatingBot/internal/app"
	"github.com/Zalthoryn/DatingBot/internal/db"
	"github.com/Zalthoryn/DatingBot/internal/metrics"
	"github.com/Zalthoryn/DatingBot/internal/repository"
)

// Score holds the three rating components for a profile.
// Combined is always Primary + Behavioral.
type Score struct {
	Primary    int
	Behavioral int
	Combined   int
}

// Engine recomputes ratings from current state.
type Engine struct {
	appCtx       *app.AppContext
	profiles     *repository.ProfileRepository
	interactions *repository.InteractionRepository
}

// NewEngine creates a rating engine with dependencies from AppContext.
func NewEngine(appCtx *app.AppContext) *Engine {
	return &Engine{
		appCtx:       appCtx,
		profiles:     repository.NewProfileRepository(appCtx.DB),
		interactions: repository.NewInteractionRepository(appCtx.DB),
	}
}

// Compute derives the score without persisting it.
//
// primary: one point per non-empty attribute among age, gender, interests,
// city, plus one point when at least one photo exists. The photo term is
// capped at 1 so photo spam cannot inflate the score.
// behavioral: 2 points per match.
func Compute(profile *db.Profile, photoCount, matchCount int64) Score {
	var s Score
	if profile.Age > 0 {
		s.Primary++
	}
	if profile.Gender != "" {
		s.Primary++
	}
	if profile.Interests != "" {
		s.Primary++
	}
	if profile.City != "" {
		s.Primary++
	}
	if photoCount > 0 {
		s.Primary++
	}

	s.Behavioral = int(matchCount) * 2
	s.Combined = s.Primary + s.Behavioral
	return s
}

// Recompute recalculates and persists the rating for one profile.
func (e *Engine) Recompute(ctx context.Context, profileID uint64) (Score, error) {
	profile, err := e.profiles.GetProfileByID(ctx, profileID)
	if err != nil {
		return Score{}, err
	}

	photoCount, err := e.profiles.CountPhotos(ctx, profile.UserID)
	if err != nil {
		return Score{}, err
	}

	matchCount, err := e.interactions.CountMatches(ctx, profileID)
	if err != nil {
		return Score{}, err
	}

	score := Compute(profile, photoCount, matchCount)

	rating := &db.Rating{
		ProfileID:        profileID,
		PrimaryRating:    score.Primary,
		BehavioralRating: score.Behavioral,
		CombinedRating:   score.Combined,
	}
	if err := e.profiles.SaveRating(ctx, rating); err != nil {
		return Score{}, err
	}

	e.appCtx.Logger.Debug("rating recomputed",
		"profile_id", profileID,
		"primary", score.Primary,
		"behavioral", score.Behavioral,
		"combined", score.Combined,
	)
	return score, nil
}

// RecomputeAll recalculates every profile's rating. A failure on one profile
// is logged and counted but does not abort the batch.
func (e *Engine) RecomputeAll(ctx context.Context) (updated, failed int, err error) {
	ids, err := e.profiles.AllProfileIDs(ctx)
	if err != nil {
		return 0, 0, err
	}

	for _, id := range ids {
		if _, rerr := e.Recompute(ctx, id); rerr != nil {
			e.appCtx.Logger.Error("rating recompute failed", "profile_id", id, "err", rerr)
			metrics.RatingRecomputesTotal.WithLabelValues("failed").Inc()
			failed++
			continue
		}
		metrics.RatingRecomputesTotal.WithLabelValues("ok").Inc()
		updated++
	}
	return updated, failed, nil
}
