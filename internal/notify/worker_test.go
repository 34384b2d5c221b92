package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zalthoryn/DatingBot/internal/messaging"
	"github.com/Zalthoryn/DatingBot/internal/notify"
)

type fakeFetcher struct {
	blobs map[string][]byte
}

func (f *fakeFetcher) Fetch(_ context.Context, key string) ([]byte, error) {
	blob, ok := f.blobs[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return blob, nil
}

type sentCard struct {
	toUserID int64
	caption  string
	photos   [][]byte
}

type fakeMessenger struct {
	sent []sentCard
	fail bool
}

func (m *fakeMessenger) SendProfileCard(_ context.Context, toUserID int64, caption string, photos [][]byte) error {
	if m.fail {
		return errors.New("chat unavailable")
	}
	m.sent = append(m.sent, sentCard{toUserID: toUserID, caption: caption, photos: photos})
	return nil
}

func cardPayload(t *testing.T, keys []string) []byte {
	t.Helper()
	data, err := json.Marshal(messaging.ProfileCard{
		UserInfo: messaging.UserInfo{
			ToUserID: 1001, Nickname: "maria", Age: 26,
			Gender: "female", Interests: "art", City: "Moscow",
		},
		ObjectKeys: keys,
	})
	require.NoError(t, err)
	return data
}

func TestHandleMatchNotification(t *testing.T) {
	appCtx, _ := setupAppCtx(t)
	fetcher := &fakeFetcher{blobs: map[string][]byte{
		"a.jpg": []byte("aaa"),
		"b.jpg": []byte("bbb"),
	}}
	messenger := &fakeMessenger{}
	worker := notify.NewWorker(appCtx, fetcher, messenger)

	worker.HandleMatchNotification(cardPayload(t, []string{"a.jpg", "b.jpg"}))

	require.Len(t, messenger.sent, 1)
	sent := messenger.sent[0]
	assert.Equal(t, int64(1001), sent.toUserID)
	assert.True(t, strings.HasPrefix(sent.caption, "You have a new match!"))
	assert.Contains(t, sent.caption, "Nickname: maria")
	assert.Contains(t, sent.caption, "City: Moscow")
	assert.Len(t, sent.photos, 2)
}

func TestHandleCandidateProposal(t *testing.T) {
	appCtx, _ := setupAppCtx(t)
	messenger := &fakeMessenger{}
	worker := notify.NewWorker(appCtx, &fakeFetcher{}, messenger)

	worker.HandleCandidateProposal(cardPayload(t, nil))

	require.Len(t, messenger.sent, 1)
	assert.True(t, strings.HasPrefix(messenger.sent[0].caption, "We found someone for you."))
	assert.Empty(t, messenger.sent[0].photos)
}

func TestDeliverSkipsFailedPhotos(t *testing.T) {
	appCtx, _ := setupAppCtx(t)
	fetcher := &fakeFetcher{blobs: map[string][]byte{
		"b.jpg": []byte("bbb"),
	}}
	messenger := &fakeMessenger{}
	worker := notify.NewWorker(appCtx, fetcher, messenger)

	// a.jpg cannot be fetched; the card still goes out with what resolved
	worker.HandleMatchNotification(cardPayload(t, []string{"a.jpg", "b.jpg"}))

	require.Len(t, messenger.sent, 1)
	require.Len(t, messenger.sent[0].photos, 1)
	assert.Equal(t, []byte("bbb"), messenger.sent[0].photos[0])
}

func TestDeliverTextOnlyWhenAllPhotosFail(t *testing.T) {
	appCtx, _ := setupAppCtx(t)
	messenger := &fakeMessenger{}
	worker := notify.NewWorker(appCtx, &fakeFetcher{}, messenger)

	worker.HandleMatchNotification(cardPayload(t, []string{"a.jpg", "b.jpg"}))

	require.Len(t, messenger.sent, 1)
	assert.Empty(t, messenger.sent[0].photos)
}

func TestDeliverDropsInvalidPayload(t *testing.T) {
	appCtx, _ := setupAppCtx(t)
	messenger := &fakeMessenger{}
	worker := notify.NewWorker(appCtx, &fakeFetcher{}, messenger)

	worker.HandleMatchNotification([]byte("not json"))
	assert.Empty(t, messenger.sent)
}

func TestDeliverMessengerFailure(t *testing.T) {
	appCtx, _ := setupAppCtx(t)
	messenger := &fakeMessenger{fail: true}
	worker := notify.NewWorker(appCtx, &fakeFetcher{}, messenger)

	// delivery failure is swallowed: logged, counted, message acknowledged
	worker.HandleMatchNotification(cardPayload(t, nil))
	assert.Empty(t, messenger.sent)
}
