package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Zalthoryn/DatingBot/internal/app"
	"github.com/Zalthoryn/DatingBot/internal/messaging"
	"github.com/Zalthoryn/DatingBot/internal/metrics"
)

// PhotoFetcher pulls photo bytes from the object store.
type PhotoFetcher interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// Messenger delivers a rendered card to the chat front end.
type Messenger interface {
	SendProfileCard(ctx context.Context, toUserID int64, caption string, photos [][]byte) error
}

// Worker consumes card payloads, resolves their photos, and hands them to the
// Messenger. Every failure is logged and the message acknowledged: delivery is
// at-least-once and duplicate match notices are harmless to receivers.
type Worker struct {
	appCtx    *app.AppContext
	store     PhotoFetcher
	messenger Messenger
}

// NewWorker creates a notification worker.
func NewWorker(appCtx *app.AppContext, store PhotoFetcher, messenger Messenger) *Worker {
	return &Worker{
		appCtx:    appCtx,
		store:     store,
		messenger: messenger,
	}
}

// Start subscribes the worker to both card subjects within the notifier group.
func (w *Worker) Start(nc *messaging.Client) error {
	if err := nc.QueueSubscribe(messaging.SubjectMatchNotification, messaging.GroupNotifiers, w.HandleMatchNotification); err != nil {
		return err
	}
	if err := nc.QueueSubscribe(messaging.SubjectMatchCandidate, messaging.GroupNotifiers, w.HandleCandidateProposal); err != nil {
		return err
	}
	w.appCtx.Logger.Info("notification worker started")
	return nil
}

// HandleMatchNotification delivers a "you have a new match" card.
func (w *Worker) HandleMatchNotification(data []byte) {
	w.deliver(data, "You have a new match!")
}

// HandleCandidateProposal delivers a "here is a candidate for you" card.
func (w *Worker) HandleCandidateProposal(data []byte) {
	w.deliver(data, "We found someone for you. Like or skip?")
}

func (w *Worker) deliver(data []byte, header string) {
	ctx := context.Background()

	var card messaging.ProfileCard
	if err := json.Unmarshal(data, &card); err != nil {
		w.appCtx.Logger.Error("invalid card payload, dropping", "err", err)
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		return
	}

	photos := w.fetchPhotos(ctx, card.ObjectKeys)
	caption := renderCard(header, card.UserInfo)

	if err := w.messenger.SendProfileCard(ctx, card.UserInfo.ToUserID, caption, photos); err != nil {
		w.appCtx.Logger.Error("card delivery failed",
			"to_user", card.UserInfo.ToUserID, "err", err)
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		return
	}

	result := "sent"
	if len(photos) == 0 && len(card.ObjectKeys) > 0 {
		result = "text_only"
	}
	metrics.NotificationsTotal.WithLabelValues(result).Inc()

	w.appCtx.Logger.Info("card delivered",
		"to_user", card.UserInfo.ToUserID,
		"photos", len(photos),
	)
}

// fetchPhotos resolves object keys to bytes. A failed fetch skips that photo;
// if all fail, the caller falls back to a text-only card.
func (w *Worker) fetchPhotos(ctx context.Context, keys []string) [][]byte {
	var photos [][]byte
	for _, key := range keys {
		blob, err := w.store.Fetch(ctx, key)
		if err != nil {
			w.appCtx.Logger.Warn("photo fetch failed", "key", key, "err", err)
			continue
		}
		photos = append(photos, blob)
	}
	return photos
}

func renderCard(header string, u messaging.UserInfo) string {
	return fmt.Sprintf(
		"%s\n\nNickname: %s\nAge: %d\nGender: %s\nInterests: %s\nCity: %s",
		header, u.Nickname, u.Age, u.Gender, u.Interests, u.City,
	)
}
