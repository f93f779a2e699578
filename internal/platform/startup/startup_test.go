package startup

import (
	"context"
	"testing"

	"github.com/SlpAus/little-learners-backend/internal/carnival"
	"github.com/SlpAus/little-learners-backend/internal/ledger"
	"github.com/SlpAus/little-learners-backend/internal/progress"
	"github.com/SlpAus/little-learners-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeApplication_CreatesTables(t *testing.T) {
	db := testutil.NewDB(t)
	require.NoError(t, InitializeApplication(db))
	// 重复执行是安全的
	require.NoError(t, InitializeApplication(db))

	for _, table := range []string{"users", "coin_balances", "game_states", "quiz_results", "shape_results", "math_results", "color_spins", "color_wheel_stats"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestRebuildCache(t *testing.T) {
	db := testutil.NewDB(t)
	require.NoError(t, InitializeApplication(db))
	mr, rdb := testutil.NewRedis(t)

	wheel, err := carnival.NewWheel(carnival.DefaultSegments)
	require.NoError(t, err)
	svc := carnival.NewService(db, rdb, ledger.NewService(db), wheel)
	require.NoError(t, db.Create(&carnival.ColorSpin{UserID: 4, ColorName: "Blue", CoinsEarned: 4}).Error)

	require.NoError(t, mr.Set(progress.CacheKey(4), "{}"))

	require.NoError(t, RebuildCache(rdb, svc)(context.Background()))
	assert.False(t, mr.Exists(progress.CacheKey(4)))
	score, err := mr.ZScore(carnival.LeaderboardKey, "4")
	require.NoError(t, err)
	assert.Equal(t, 4.0, score)
}
