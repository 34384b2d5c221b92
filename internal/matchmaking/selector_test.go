package matchmaking_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
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
	"github.com/Zalthoryn/DatingBot/internal/matchmaking"
	"github.com/Zalthoryn/DatingBot/internal/repository"
)

//
// Test helpers
//

// setupAppCtx spins up an in-memory SQLite DB, applies migrations, starts a
// miniredis, and wires both into an AppContext. Each test gets its own
// isolated DB + Redis.
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
	sqlDB.SetMaxOpenConns(1)
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

// seedPool inserts users+profiles+ratings in one call. Rows share the index
// space: user i ↔ profile i ↔ telegram id 1000+i.
func seedPool(t *testing.T, gdb *gorm.DB, rows []poolRow) {
	t.Helper()
	for _, r := range rows {
		require.NoError(t, gdb.Create(&db.User{ID: r.id, TelegramID: int64(1000 + r.id)}).Error)
		require.NoError(t, gdb.Create(&db.Profile{
			ID: r.id, UserID: r.id, Nickname: fmt.Sprintf("nick%d", r.id),
			Age: 25, Gender: r.gender, Interests: "music", City: r.city,
			Completeness: 90,
		}).Error)
		require.NoError(t, gdb.Create(&db.Rating{ProfileID: r.id, CombinedRating: r.rating}).Error)
	}
}

type poolRow struct {
	id     uint64
	gender string
	city   string
	rating int
}

//
// Tests
//

func TestSelectorPrefersSameCity(t *testing.T) {
	ctx := context.Background()
	appCtx, _ := setupAppCtx(t)
	seedPool(t, appCtx.DB, []poolRow{
		{1, db.GenderMale, "Moscow", 4},
		{2, db.GenderFemale, "Moscow", 3},
		{3, db.GenderFemale, "Berlin", 9}, // higher rated but wrong city
	})
	selector := matchmaking.NewSelector(appCtx)

	requester, err := repository.NewProfileRepository(appCtx.DB).GetProfileByID(ctx, 1)
	require.NoError(t, err)

	candidate, err := selector.FindCandidate(ctx, requester)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, uint64(2), candidate.ID)
}

func TestSelectorCrossCityFallback(t *testing.T) {
	ctx := context.Background()
	appCtx, _ := setupAppCtx(t)
	seedPool(t, appCtx.DB, []poolRow{
		{1, db.GenderMale, "Moscow", 4},
		{2, db.GenderFemale, "Berlin", 3},
		{3, db.GenderFemale, "Rome", 9},
	})
	selector := matchmaking.NewSelector(appCtx)

	requester, err := repository.NewProfileRepository(appCtx.DB).GetProfileByID(ctx, 1)
	require.NoError(t, err)

	// nobody in Moscow → best-rated other-city profile
	candidate, err := selector.FindCandidate(ctx, requester)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, uint64(3), candidate.ID)
}

func TestSelectorNoCandidate(t *testing.T) {
	ctx := context.Background()
	appCtx, _ := setupAppCtx(t)
	seedPool(t, appCtx.DB, []poolRow{
		{1, db.GenderMale, "Moscow", 4},
		{2, db.GenderMale, "Moscow", 9}, // same gender, never eligible
	})
	selector := matchmaking.NewSelector(appCtx)

	requester, err := repository.NewProfileRepository(appCtx.DB).GetProfileByID(ctx, 1)
	require.NoError(t, err)

	candidate, err := selector.FindCandidate(ctx, requester)
	require.NoError(t, err)
	assert.Nil(t, candidate)
}

func TestSelectorServesFromCache(t *testing.T) {
	ctx := context.Background()
	appCtx, _ := setupAppCtx(t)
	seedPool(t, appCtx.DB, []poolRow{
		{1, db.GenderMale, "Moscow", 4},
		{2, db.GenderFemale, "Moscow", 3},
		{3, db.GenderFemale, "Moscow", 9},
	})
	selector := matchmaking.NewSelector(appCtx)
	requester, err := repository.NewProfileRepository(appCtx.DB).GetProfileByID(ctx, 1)
	require.NoError(t, err)

	// cached pool lists an entry the requester already skipped, their own
	// profile, and a valid candidate; only the valid one may come back
	_, err = repository.NewInteractionRepository(appCtx.DB).
		RecordInteraction(ctx, 1, 3, db.ActionSkip)
	require.NoError(t, err)

	pool := []repository.ProfileSummary{
		{ProfileID: 3, Gender: db.GenderFemale, City: "Moscow", CombinedRating: 9},
		{ProfileID: 1, Gender: db.GenderMale, City: "Moscow", CombinedRating: 4},
		{ProfileID: 2, Gender: db.GenderFemale, City: "Moscow", CombinedRating: 3},
	}
	data, err := json.Marshal(pool)
	require.NoError(t, err)
	require.NoError(t, appCtx.RedisCache.Set(ctx, appCtx.RedisCache.KeyForTopProfiles(), data, time.Hour))

	candidate, err := selector.FindCandidate(ctx, requester)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, uint64(2), candidate.ID)
}

func TestSelectorRefreshesCacheOnMiss(t *testing.T) {
	ctx := context.Background()
	appCtx, mr := setupAppCtx(t)
	seedPool(t, appCtx.DB, []poolRow{
		{1, db.GenderMale, "Moscow", 4},
		{2, db.GenderFemale, "Moscow", 3},
	})
	selector := matchmaking.NewSelector(appCtx)
	requester, err := repository.NewProfileRepository(appCtx.DB).GetProfileByID(ctx, 1)
	require.NoError(t, err)

	require.False(t, mr.Exists(appCtx.RedisCache.KeyForTopProfiles()))

	candidate, err := selector.FindCandidate(ctx, requester)
	require.NoError(t, err)
	require.NotNil(t, candidate)

	// the miss warmed the pool for the next request
	assert.True(t, mr.Exists(appCtx.RedisCache.KeyForTopProfiles()))
}

func TestSelectorDropsCorruptCache(t *testing.T) {
	ctx := context.Background()
	appCtx, mr := setupAppCtx(t)
	seedPool(t, appCtx.DB, []poolRow{
		{1, db.GenderMale, "Moscow", 4},
		{2, db.GenderFemale, "Moscow", 3},
	})
	selector := matchmaking.NewSelector(appCtx)
	requester, err := repository.NewProfileRepository(appCtx.DB).GetProfileByID(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, mr.Set(appCtx.RedisCache.KeyForTopProfiles(), "not json"))

	// corrupt cache degrades to the authoritative query
	candidate, err := selector.FindCandidate(ctx, requester)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, uint64(2), candidate.ID)

	assert.False(t, mr.Exists(appCtx.RedisCache.KeyForTopProfiles()))
}
