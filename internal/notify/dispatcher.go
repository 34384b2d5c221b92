// Package notify assembles and delivers profile cards: match notifications on
// a confirmed mutual like, and candidate proposals from the selector.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Zalthoryn/DatingBot/internal/app"
	"github.com/Zalthoryn/DatingBot/internal/db"
	"github.com/Zalthoryn/DatingBot/internal/messaging"
	"github.com/Zalthoryn/DatingBot/internal/repository"
)

// photoLimit caps how many photo keys a card carries.
const photoLimit = 3

// Publisher is the slice of the message transport the dispatcher needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Dispatcher assembles outgoing cards and hands them to the transport.
// Publishing is fire-and-forget: the dispatcher never blocks on delivery and
// never rolls back a committed match over a transport failure.
type Dispatcher struct {
	appCtx   *app.AppContext
	profiles *repository.ProfileRepository
	pub      Publisher
}

// NewDispatcher creates a dispatcher with dependencies from AppContext.
func NewDispatcher(appCtx *app.AppContext, pub Publisher) *Dispatcher {
	return &Dispatcher{
		appCtx:   appCtx,
		profiles: repository.NewProfileRepository(appCtx.DB),
		pub:      pub,
	}
}

// DispatchMatch publishes the two cross-notifications for a new match, clears
// both participants' search cooldowns, and emits a re-enter-pool signal for
// each so they can immediately search again.
func (d *Dispatcher) DispatchMatch(ctx context.Context, match *db.Match) error {
	profile1, err := d.profiles.GetProfileByID(ctx, match.Profile1ID)
	if err != nil {
		return fmt.Errorf("dispatch match %d: %w", match.ID, err)
	}
	profile2, err := d.profiles.GetProfileByID(ctx, match.Profile2ID)
	if err != nil {
		return fmt.Errorf("dispatch match %d: %w", match.ID, err)
	}

	user1, err := d.profiles.GetUserByID(ctx, profile1.UserID)
	if err != nil {
		return fmt.Errorf("dispatch match %d: %w", match.ID, err)
	}
	user2, err := d.profiles.GetUserByID(ctx, profile2.UserID)
	if err != nil {
		return fmt.Errorf("dispatch match %d: %w", match.ID, err)
	}

	// each participant gets the OTHER party's card
	if err := d.publishCard(ctx, messaging.SubjectMatchNotification, user1.TelegramID, profile2, user2); err != nil {
		d.appCtx.Logger.Error("match notification publish failed",
			"match_id", match.ID, "to_user", user1.TelegramID, "err", err)
	}
	if err := d.publishCard(ctx, messaging.SubjectMatchNotification, user2.TelegramID, profile1, user1); err != nil {
		d.appCtx.Logger.Error("match notification publish failed",
			"match_id", match.ID, "to_user", user2.TelegramID, "err", err)
	}

	// matching resets the cooldown so both can re-enter the pool right away
	for _, u := range []*db.User{user1, user2} {
		if err := d.appCtx.RedisCache.Del(ctx, d.appCtx.RedisCache.KeyForSearchCooldown(u.TelegramID)); err != nil {
			d.appCtx.Logger.Warn("cooldown clear failed", "user", u.TelegramID, "err", err)
		}
		data, _ := json.Marshal(messaging.MatchRequest{UserID: u.TelegramID})
		if err := d.pub.Publish(messaging.SubjectMatchRequest, data); err != nil {
			d.appCtx.Logger.Error("re-enter pool publish failed", "user", u.TelegramID, "err", err)
		}
	}

	d.appCtx.Logger.Info("match dispatched",
		"match_id", match.ID,
		"user1", user1.TelegramID,
		"user2", user2.TelegramID,
	)
	return nil
}

// PublishCandidate sends a candidate proposal card to the requester.
func (d *Dispatcher) PublishCandidate(ctx context.Context, requester *db.User, candidate *db.Profile) error {
	candidateUser, err := d.profiles.GetUserByID(ctx, candidate.UserID)
	if err != nil {
		return fmt.Errorf("publish candidate %d: %w", candidate.ID, err)
	}
	return d.publishCard(ctx, messaging.SubjectMatchCandidate, requester.TelegramID, candidate, candidateUser)
}

// publishCard assembles a ProfileCard about the given profile and publishes it
// on the subject, addressed to toTelegramID. Photo lookup failures degrade to
// a card without keys rather than blocking the notification.
func (d *Dispatcher) publishCard(
	ctx context.Context,
	subject string,
	toTelegramID int64,
	about *db.Profile,
	aboutUser *db.User,
) error {
	keys, err := d.profiles.RecentPhotoKeys(ctx, aboutUser.ID, photoLimit)
	if err != nil {
		d.appCtx.Logger.Warn("photo key lookup failed, sending text-only card",
			"user", aboutUser.TelegramID, "err", err)
		keys = nil
	}

	card := messaging.ProfileCard{
		UserInfo: messaging.UserInfo{
			ToUserID:  toTelegramID,
			Nickname:  about.Nickname,
			Age:       about.Age,
			Gender:    about.Gender,
			Interests: about.Interests,
			City:      about.City,
		},
		ObjectKeys: keys,
	}

	data, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("marshal card: %w", err)
	}
	return d.pub.Publish(subject, data)
}
