package matchmaking

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/Zalthoryn/DatingBot/internal/app"
	"github.com/Zalthoryn/DatingBot/internal/db"
	svcErr "github.com/Zalthoryn/DatingBot/internal/errors"
	"github.com/Zalthoryn/DatingBot/internal/messaging"
	"github.com/Zalthoryn/DatingBot/internal/metrics"
	"github.com/Zalthoryn/DatingBot/internal/notify"
	"github.com/Zalthoryn/DatingBot/internal/rating"
	"github.com/Zalthoryn/DatingBot/internal/repository"
)

// Service is the matchmaking worker: it consumes matchmaking.request and
// interactions.decide, drives the selector and the interaction state machine,
// and hands confirmed matches to the dispatcher.
//
// Handlers never return errors to the transport: every failure is logged and
// the message acknowledged. Redeliveries are cheap because every step is
// idempotent (cooldown marker, duplicate-interaction guard, pure recompute).
type Service struct {
	appCtx       *app.AppContext
	profiles     *repository.ProfileRepository
	selector     *Selector
	interactions *InteractionService
	dispatcher   *notify.Dispatcher
	engine       *rating.Engine
}

// NewService wires the matchmaking worker from AppContext and the transport.
func NewService(appCtx *app.AppContext, pub notify.Publisher) *Service {
	return &Service{
		appCtx:       appCtx,
		profiles:     repository.NewProfileRepository(appCtx.DB),
		selector:     NewSelector(appCtx),
		interactions: NewInteractionService(appCtx),
		dispatcher:   notify.NewDispatcher(appCtx, pub),
		engine:       rating.NewEngine(appCtx),
	}
}

// Start subscribes the worker to its subjects within the matchmaker group.
func (s *Service) Start(nc *messaging.Client) error {
	if err := nc.QueueSubscribe(messaging.SubjectMatchRequest, messaging.GroupMatchmakers, s.HandleMatchRequest); err != nil {
		return err
	}
	if err := nc.QueueSubscribe(messaging.SubjectInteractionDecide, messaging.GroupMatchmakers, s.HandleDecision); err != nil {
		return err
	}
	s.appCtx.Logger.Info("matchmaking worker started")
	return nil
}

// HandleMatchRequest runs candidate selection for one user and publishes the
// proposal card when someone qualifies.
func (s *Service) HandleMatchRequest(data []byte) {
	ctx := context.Background()

	var req messaging.MatchRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.appCtx.Logger.Error("invalid match request, dropping", "err", err)
		metrics.MatchRequestsTotal.WithLabelValues("dropped").Inc()
		return
	}

	log := s.appCtx.Logger.With("user_id", req.UserID)

	// the cooldown marker doubles as a redelivery guard: the first delivery
	// serves a candidate and sets it, a redelivered copy lands here
	onCooldown, err := s.appCtx.RedisCache.OnSearchCooldown(ctx, req.UserID)
	if err != nil {
		log.Warn("cooldown check failed, proceeding", "err", err)
	}
	if onCooldown {
		log.Debug("user on search cooldown, dropping request")
		metrics.MatchRequestsTotal.WithLabelValues("cooldown").Inc()
		return
	}

	user, profile, ok := s.loadEligible(ctx, req.UserID, log)
	if !ok {
		metrics.MatchRequestsTotal.WithLabelValues("dropped").Inc()
		return
	}

	candidate, err := s.selector.FindCandidate(ctx, profile)
	if err != nil {
		log.Error("candidate selection failed", "err", err)
		metrics.MatchRequestsTotal.WithLabelValues("dropped").Inc()
		return
	}
	if candidate == nil {
		log.Info("no candidate available")
		metrics.MatchRequestsTotal.WithLabelValues("no_candidate").Inc()
		return
	}

	if err := s.dispatcher.PublishCandidate(ctx, user, candidate); err != nil {
		log.Error("candidate proposal publish failed", "candidate", candidate.ID, "err", err)
		metrics.MatchRequestsTotal.WithLabelValues("dropped").Inc()
		return
	}

	if err := s.appCtx.RedisCache.SetSearchCooldown(ctx, req.UserID, s.appCtx.Cfg.Matching.SearchCooldown); err != nil {
		log.Warn("cooldown set failed", "err", err)
	}

	log.Info("candidate proposed", "candidate", candidate.ID)
	metrics.MatchRequestsTotal.WithLabelValues("served").Inc()
}

// HandleDecision records a like/skip answer and, on a mutual like, dispatches
// the match and refreshes both participants' ratings.
func (s *Service) HandleDecision(data []byte) {
	ctx := context.Background()

	var req messaging.DecideRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.appCtx.Logger.Error("invalid decide request, dropping", "err", err)
		return
	}

	log := s.appCtx.Logger.With("from_user", req.FromUserID, "to_user", req.ToUserID)

	fromProfile, err := s.profileForTelegramID(ctx, req.FromUserID)
	if err != nil {
		log.Warn("decision sender unresolved, dropping", "err", err)
		return
	}
	toProfile, err := s.profileForTelegramID(ctx, req.ToUserID)
	if err != nil {
		log.Warn("decision target unresolved, dropping", "err", err)
		return
	}

	outcome, match, err := s.interactions.Record(ctx, fromProfile.ID, toProfile.ID, req.Action)
	if err != nil {
		log.Error("interaction recording failed", "action", req.Action, "err", err)
		return
	}

	log.Info("interaction recorded", "action", req.Action, "outcome", outcome.String())

	switch outcome {
	case OutcomeAlreadyInteracted:
		metrics.InteractionsTotal.WithLabelValues("duplicate").Inc()
	case OutcomeSkipRecorded:
		metrics.InteractionsTotal.WithLabelValues("skip").Inc()
	case OutcomeLikeRecorded:
		metrics.InteractionsTotal.WithLabelValues("like").Inc()
	case OutcomeMatchCreated:
		metrics.InteractionsTotal.WithLabelValues("match").Inc()
		metrics.MatchesCreatedTotal.Inc()

		if err := s.dispatcher.DispatchMatch(ctx, match); err != nil {
			// the match stays committed; notifications are best effort
			log.Error("match dispatch failed", "match_id", match.ID, "err", err)
		}
		s.recomputeRatings(ctx, log, match.Profile1ID, match.Profile2ID)
	}
}

// recomputeRatings refreshes both participants after a match. Failures are
// logged; the periodic batch job will converge the scores eventually.
func (s *Service) recomputeRatings(ctx context.Context, log *slog.Logger, profileIDs ...uint64) {
	for _, id := range profileIDs {
		if _, err := s.engine.Recompute(ctx, id); err != nil {
			log.Error("post-match rating recompute failed", "profile_id", id, "err", err)
			metrics.RatingRecomputesTotal.WithLabelValues("failed").Inc()
			continue
		}
		metrics.RatingRecomputesTotal.WithLabelValues("ok").Inc()
	}
}

// loadEligible resolves the telegram id to a profile and enforces the
// completeness threshold gating matchmaking.
func (s *Service) loadEligible(ctx context.Context, telegramID int64, log *slog.Logger) (*db.User, *db.Profile, bool) {
	user, err := s.profiles.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		log.Warn("user lookup failed, dropping request", "err", err)
		return nil, nil, false
	}

	profile, err := s.profiles.GetProfileByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, svcErr.ErrNotFound) {
			log.Warn("user has no profile, dropping request")
		} else {
			log.Warn("profile lookup failed, dropping request", "err", err)
		}
		return nil, nil, false
	}

	if profile.Completeness < s.appCtx.Cfg.Matching.CompletenessThreshold {
		log.Warn("profile below completeness threshold, dropping request",
			"completeness", profile.Completeness,
			"threshold", s.appCtx.Cfg.Matching.CompletenessThreshold)
		return nil, nil, false
	}

	return user, profile, true
}

func (s *Service) profileForTelegramID(ctx context.Context, telegramID int64) (*db.Profile, error) {
	user, err := s.profiles.GetUserByTelegramID(ctx, telegramID)
	if errors.Is(err, svcErr.ErrNotFound) {
		return nil, svcErr.NotFoundf("no user for telegram id %d", telegramID)
	}
	if err != nil {
		return nil, err
	}
	return s.profiles.GetProfileByUserID(ctx, user.ID)
}
