package matchmaking

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Zalthoryn/DatingBot/internal/app"
	"github.com/Zalthoryn/DatingBot/internal/cache"
	"github.com/Zalthoryn/DatingBot/internal/db"
	"github.com/Zalthoryn/DatingBot/internal/repository"
)

// Selector finds a compatible, not-yet-interacted candidate for a requester.
//
// Lookup order:
//  1. advisory redis cache of the top-rated profiles (same city only)
//  2. authoritative same-city query
//  3. authoritative any-other-city query
//
// The cache is never trusted for exclusion decisions: a cached hit is
// re-verified against Match/Interaction history before being returned.
type Selector struct {
	appCtx       *app.AppContext
	profiles     *repository.ProfileRepository
	interactions *repository.InteractionRepository
}

// NewSelector creates a selector with dependencies from AppContext.
func NewSelector(appCtx *app.AppContext) *Selector {
	return &Selector{
		appCtx:       appCtx,
		profiles:     repository.NewProfileRepository(appCtx.DB),
		interactions: repository.NewInteractionRepository(appCtx.DB),
	}
}

// FindCandidate returns the best candidate for the requester, or nil when no
// profile qualifies. An empty result is normal, not an error.
func (s *Selector) FindCandidate(ctx context.Context, requester *db.Profile) (*db.Profile, error) {
	if candidate := s.fromCache(ctx, requester); candidate != nil {
		return candidate, nil
	}

	candidate, err := s.profiles.FindCandidate(ctx, requester, true)
	if err != nil {
		return nil, err
	}
	if candidate != nil {
		return candidate, nil
	}

	// cross-city fallback; refresh the cache on the way since we already
	// know it had nothing useful
	s.refreshCache(ctx)

	return s.profiles.FindCandidate(ctx, requester, false)
}

// fromCache scans the cached top-rated pool for a same-city opposite-gender
// profile and re-verifies it against the authoritative store. Any cache or
// verification error degrades to a miss.
func (s *Selector) fromCache(ctx context.Context, requester *db.Profile) *db.Profile {
	raw, err := s.appCtx.RedisCache.Get(ctx, s.appCtx.RedisCache.KeyForTopProfiles())
	if errors.Is(err, cache.ErrMiss) {
		s.refreshCache(ctx)
		return nil
	}
	if err != nil {
		s.appCtx.Logger.Warn("candidate cache read failed", "err", err)
		return nil
	}

	var pool []repository.ProfileSummary
	if err := json.Unmarshal([]byte(raw), &pool); err != nil {
		s.appCtx.Logger.Warn("candidate cache corrupt, dropping", "err", err)
		_ = s.appCtx.RedisCache.Del(ctx, s.appCtx.RedisCache.KeyForTopProfiles())
		return nil
	}

	for _, entry := range pool {
		if entry.ProfileID == requester.ID ||
			entry.Gender == requester.Gender ||
			entry.City != requester.City {
			continue
		}

		interacted, err := s.interactions.HasInteracted(ctx, requester.ID, entry.ProfileID)
		if err != nil || interacted {
			continue
		}
		paired, err := s.interactions.ArePaired(ctx, requester.ID, entry.ProfileID)
		if err != nil || paired {
			continue
		}

		candidate, err := s.profiles.GetProfileByID(ctx, entry.ProfileID)
		if err != nil {
			continue
		}
		s.appCtx.Logger.Debug("candidate served from cache",
			"requester", requester.ID, "candidate", candidate.ID)
		return candidate
	}
	return nil
}

// refreshCache repopulates the top-rated pool. Best effort: failures are
// logged and the authoritative query carries on regardless.
func (s *Selector) refreshCache(ctx context.Context) {
	pool, err := s.profiles.TopRatedProfiles(ctx, s.appCtx.Cfg.Matching.CacheSize)
	if err != nil {
		s.appCtx.Logger.Warn("candidate cache refresh query failed", "err", err)
		return
	}

	data, err := json.Marshal(pool)
	if err != nil {
		s.appCtx.Logger.Warn("candidate cache marshal failed", "err", err)
		return
	}

	if err := s.appCtx.RedisCache.Set(ctx,
		s.appCtx.RedisCache.KeyForTopProfiles(),
		data,
		s.appCtx.Cfg.Matching.CacheTTL,
	); err != nil {
		s.appCtx.Logger.Warn("candidate cache write failed", "err", err)
	}
}
