package notify_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Zalthoryn/DatingBot/internal/app"
	"github.com/Zalthoryn/DatingBot/internal/cache"
	"github.com/Zalthoryn/DatingBot/internal/config"
	"github.com/Zalthoryn/DatingBot/internal/db"
	"github.com/Zalthoryn/DatingBot/internal/messaging"
	"github.com/Zalthoryn/DatingBot/internal/notify"
)

//
// Test helpers
//

type fakePublisher struct {
	mu       sync.Mutex
	messages map[string][][]byte
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{messages: map[string][][]byte{}}
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages[subject] = append(p.messages[subject], data)
	return nil
}

func setupAppCtx(t *testing.T) (*app.AppContext, *miniredis.Miniredis) {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(dbase))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // discard logs in tests
	return app.New(cfg, dbase, cache.NewRedisCache(cfg), logger), mr
}

// seedMatchedPair creates users 1 (male, 4 photos) and 2 (female, 1 photo)
// with profiles, plus the Match row between them.
func seedMatchedPair(t *testing.T, gdb *gorm.DB) *db.Match {
	t.Helper()

	require.NoError(t, gdb.Create(&db.User{ID: 1, TelegramID: 1001, Username: "alex"}).Error)
	require.NoError(t, gdb.Create(&db.User{ID: 2, TelegramID: 1002, Username: "maria"}).Error)
	require.NoError(t, gdb.Create(&db.Profile{
		ID: 1, UserID: 1, Nickname: "alex", Age: 28,
		Gender: db.GenderMale, Interests: "chess", City: "Moscow", Completeness: 100,
	}).Error)
	require.NoError(t, gdb.Create(&db.Profile{
		ID: 2, UserID: 2, Nickname: "maria", Age: 26,
		Gender: db.GenderFemale, Interests: "art", City: "Moscow", Completeness: 90,
	}).Error)

	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		require.NoError(t, gdb.Create(&db.Photo{
			UserID:     1,
			ObjectKey:  fmt.Sprintf("user1/photo%d.jpg", i),
			UploadedAt: base.Add(time.Duration(i) * time.Hour),
		}).Error)
	}
	require.NoError(t, gdb.Create(&db.Photo{UserID: 2, ObjectKey: "user2/photo0.jpg"}).Error)

	match := &db.Match{Profile1ID: 1, Profile2ID: 2}
	require.NoError(t, gdb.Create(match).Error)
	return match
}

func decodeCards(t *testing.T, raw [][]byte) map[int64]messaging.ProfileCard {
	t.Helper()
	out := map[int64]messaging.ProfileCard{}
	for _, data := range raw {
		var card messaging.ProfileCard
		require.NoError(t, json.Unmarshal(data, &card))
		out[card.UserInfo.ToUserID] = card
	}
	return out
}

//
// Tests
//

func TestDispatchMatchCrossNotifies(t *testing.T) {
	ctx := context.Background()
	appCtx, _ := setupAppCtx(t)
	match := seedMatchedPair(t, appCtx.DB)

	pub := newFakePublisher()
	dispatcher := notify.NewDispatcher(appCtx, pub)

	require.NoError(t, dispatcher.DispatchMatch(ctx, match))

	cards := decodeCards(t, pub.messages[messaging.SubjectMatchNotification])
	require.Len(t, cards, 2)

	// user 1 hears about maria, user 2 hears about alex
	toAlex := cards[1001]
	assert.Equal(t, "maria", toAlex.UserInfo.Nickname)
	assert.Equal(t, 26, toAlex.UserInfo.Age)
	assert.Equal(t, "art", toAlex.UserInfo.Interests)
	assert.Equal(t, []string{"user2/photo0.jpg"}, toAlex.ObjectKeys)

	// photo keys are capped at three, newest first
	toMaria := cards[1002]
	assert.Equal(t, "alex", toMaria.UserInfo.Nickname)
	assert.Equal(t, []string{
		"user1/photo3.jpg", "user1/photo2.jpg", "user1/photo1.jpg",
	}, toMaria.ObjectKeys)
}

func TestDispatchMatchReentersPool(t *testing.T) {
	ctx := context.Background()
	appCtx, mr := setupAppCtx(t)
	match := seedMatchedPair(t, appCtx.DB)

	require.NoError(t, mr.Set(appCtx.RedisCache.KeyForSearchCooldown(1001), "1"))
	require.NoError(t, mr.Set(appCtx.RedisCache.KeyForSearchCooldown(1002), "1"))

	pub := newFakePublisher()
	dispatcher := notify.NewDispatcher(appCtx, pub)

	require.NoError(t, dispatcher.DispatchMatch(ctx, match))

	// cooldowns cleared before the re-enter signals go out
	assert.False(t, mr.Exists(appCtx.RedisCache.KeyForSearchCooldown(1001)))
	assert.False(t, mr.Exists(appCtx.RedisCache.KeyForSearchCooldown(1002)))

	reenter := pub.messages[messaging.SubjectMatchRequest]
	require.Len(t, reenter, 2)

	seen := map[int64]bool{}
	for _, data := range reenter {
		var req messaging.MatchRequest
		require.NoError(t, json.Unmarshal(data, &req))
		seen[req.UserID] = true
	}
	assert.True(t, seen[1001])
	assert.True(t, seen[1002])
}

func TestDispatchMatchMissingProfile(t *testing.T) {
	ctx := context.Background()
	appCtx, _ := setupAppCtx(t)

	pub := newFakePublisher()
	dispatcher := notify.NewDispatcher(appCtx, pub)

	err := dispatcher.DispatchMatch(ctx, &db.Match{ID: 7, Profile1ID: 1, Profile2ID: 2})
	assert.Error(t, err)
	assert.Empty(t, pub.messages)
}

func TestPublishCandidate(t *testing.T) {
	ctx := context.Background()
	appCtx, _ := setupAppCtx(t)
	seedMatchedPair(t, appCtx.DB)

	pub := newFakePublisher()
	dispatcher := notify.NewDispatcher(appCtx, pub)

	var requester db.User
	require.NoError(t, appCtx.DB.First(&requester, 1).Error)
	var candidate db.Profile
	require.NoError(t, appCtx.DB.First(&candidate, 2).Error)

	require.NoError(t, dispatcher.PublishCandidate(ctx, &requester, &candidate))

	cards := decodeCards(t, pub.messages[messaging.SubjectMatchCandidate])
	require.Len(t, cards, 1)
	card := cards[1001]
	assert.Equal(t, "maria", card.UserInfo.Nickname)
	assert.Equal(t, "Moscow", card.UserInfo.City)
	assert.Equal(t, []string{"user2/photo0.jpg"}, card.ObjectKeys)
}
