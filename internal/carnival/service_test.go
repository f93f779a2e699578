package carnival

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/SlpAus/little-learners-backend/internal/ledger"
	"github.com/SlpAus/little-learners-backend/internal/platform/health"
	"github.com/SlpAus/little-learners-backend/internal/testutil"
	"github.com/SlpAus/little-learners-backend/internal/user"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	svc    *Service
	ledger *ledger.Service
	db     *gorm.DB
	mr     *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	db := testutil.NewDB(t, &ColorSpin{}, &ColorWheelStats{}, &ledger.CoinBalance{}, &user.User{})
	mr, rdb := testutil.NewRedis(t)
	wheel, err := NewWheel(DefaultSegments)
	require.NoError(t, err)
	l := ledger.NewService(db)
	health.SetInitialRunID("test")
	return &fixture{svc: NewService(db, rdb, l, wheel), ledger: l, db: db, mr: mr}
}

func (f *fixture) spin(t *testing.T, userID uint, color string) *SpinOutcome {
	t.Helper()
	out, err := f.svc.RecordSpin(context.Background(), userID, SpinResult{Color: color, SpinAngle: 10, Rotations: 4, Duration: 3}, nil)
	require.NoError(t, err)
	return out
}

func (f *fixture) addUser(t *testing.T, id uint, name string) {
	t.Helper()
	require.NoError(t, f.db.Create(&user.User{ID: id, Username: name, Email: name + "@x.io", Phone: fmt.Sprintf("90000000%02d", id), PasswordHash: "x"}).Error)
}

func TestRecordSpin_CreditsAndUpdatesStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out := f.spin(t, 1, "Red")
	assert.Equal(t, 5, out.Coins)
	assert.Equal(t, int64(5), out.TotalCoins)
	assert.Equal(t, 1, out.Stats.TotalSpins)
	assert.Equal(t, "Red", out.Stats.FavoriteColor)

	f.spin(t, 1, "Gold")
	out = f.spin(t, 1, "Gold")
	assert.Equal(t, 3, out.Stats.TotalSpins)
	assert.Equal(t, int64(19), out.Stats.TotalCoinsEarned)
	assert.Equal(t, "Gold", out.Stats.FavoriteColor)
	require.NotNil(t, out.Stats.LastSpinAt)

	bal, err := f.ledger.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(19), bal)

	var count int64
	require.NoError(t, f.db.Model(&ColorWheelStats{}).Where("user_id = ?", 1).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRecordSpin_FavoriteTieBreaksByName(t *testing.T) {
	f := newFixture(t)
	f.spin(t, 1, "Teal")
	out := f.spin(t, 1, "Blue")
	assert.Equal(t, "Blue", out.Stats.FavoriteColor)
}

func TestRecordSpin_PayloadStoredVerbatim(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payload := json.RawMessage(`{"frames":[1,2,3],"easing":"ease-out"}`)

	_, err := f.svc.RecordSpin(ctx, 1, SpinResult{Color: "Blue"}, payload)
	require.NoError(t, err)
	f.spin(t, 1, "Green")

	history, err := f.svc.History(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "Green", history[0].ColorName)
	assert.JSONEq(t, string(payload), string(history[1].SpinData))
	assert.Contains(t, string(history[0].SpinData), `"rotations":4`)
}

func TestRecordSpin_UnknownColor(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.RecordSpin(context.Background(), 1, SpinResult{Color: "Ultraviolet"}, nil)
	assert.ErrorIs(t, err, ErrUnknownColor)
}

func TestRecordSpin_ServerDecidesPayout(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.RecordSpin(context.Background(), 1, SpinResult{Color: "Orange", Coins: 500}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Coins)
	assert.Equal(t, int64(2), out.TotalCoins)
}

func TestStats_NoSpins(t *testing.T) {
	f := newFixture(t)
	stats, err := f.svc.Stats(context.Background(), 42)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalSpins)
	assert.Empty(t, stats.FavoriteColor)
}

func seedLeaderboard(t *testing.T, f *fixture) {
	f.addUser(t, 1, "ana")
	f.addUser(t, 2, "ben")
	f.addUser(t, 3, "cai")
	f.spin(t, 1, "Orange") // 2
	f.spin(t, 2, "Gold")   // 7
	f.spin(t, 2, "Purple") // 14
	f.spin(t, 3, "Red")    // 5
	f.spin(t, 3, "Green")  // 8
}

func TestLeaderboard_SortedAndBounded(t *testing.T) {
	f := newFixture(t)
	seedLeaderboard(t, f)
	ctx := context.Background()

	entries, err := f.svc.Leaderboard(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, LeaderboardEntry{Rank: 1, UserID: 2, Username: "ben", TotalCoins: 14}, entries[0])
	assert.Equal(t, LeaderboardEntry{Rank: 2, UserID: 3, Username: "cai", TotalCoins: 8}, entries[1])

	entries, err = f.svc.Leaderboard(ctx, 5)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(entries), 5)
	for i := 1; i < len(entries); i++ {
		assert.GreaterOrEqual(t, entries[i-1].TotalCoins, entries[i].TotalCoins)
	}
}

func TestLeaderboard_DatabaseFallbackMatchesRedis(t *testing.T) {
	f := newFixture(t)
	seedLeaderboard(t, f)
	ctx := context.Background()

	fromRedis, err := f.svc.Leaderboard(ctx, 10)
	require.NoError(t, err)

	health.MarkDegraded()
	defer health.SetInitialRunID("test")
	fromDB, err := f.svc.Leaderboard(ctx, 10)
	require.NoError(t, err)

	assert.Equal(t, fromRedis, fromDB)
}

func TestWarmupCache_RebuildsAfterRedisLoss(t *testing.T) {
	f := newFixture(t)
	seedLeaderboard(t, f)
	ctx := context.Background()

	f.mr.FlushAll()
	require.NoError(t, f.svc.WarmupCache(ctx))

	score, err := f.mr.ZScore(LeaderboardKey, "2")
	require.NoError(t, err)
	assert.Equal(t, 14.0, score)

	entries, err := f.svc.Leaderboard(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 10, ClampLimit(0, 10))
	assert.Equal(t, 10, ClampLimit(-4, 0))
	assert.Equal(t, 100, ClampLimit(1000, 10))
	assert.Equal(t, 5, ClampLimit(5, 10))
}

func TestRecordSpin_ConcurrentFavoritePostgres(t *testing.T) {
	db := testutil.NewPostgresDB(t, &ColorSpin{}, &ColorWheelStats{}, &ledger.CoinBalance{})
	_, rdb := testutil.NewRedis(t)
	wheel, err := NewWheel(DefaultSegments)
	require.NoError(t, err)
	health.SetInitialRunID("test")
	svc := NewService(db, rdb, ledger.NewService(db), wheel)

	colors := []string{"Red", "Blue", "Red", "Blue", "Red", "Red"}
	var wg sync.WaitGroup
	errs := make([]error, len(colors))
	for i, c := range colors {
		wg.Add(1)
		go func(i int, c string) {
			defer wg.Done()
			_, errs[i] = svc.RecordSpin(context.Background(), 1, SpinResult{Color: c}, nil)
		}(i, c)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	stats, err := svc.Stats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, len(colors), stats.TotalSpins)
	assert.Equal(t, int64(4*5+2*4), stats.TotalCoinsEarned)
	assert.Equal(t, "Red", stats.FavoriteColor)
}
