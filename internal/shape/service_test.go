package shape

import (
	"context"
	"testing"

	"github.com/SlpAus/little-learners-backend/internal/gamestate"
	"github.com/SlpAus/little-learners-backend/internal/ledger"
	"github.com/SlpAus/little-learners-backend/internal/platform/config"
	"github.com/SlpAus/little-learners-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const houseTasks = `
tasks:
  - id: house
    name: House
    required_shapes: [square, triangle]
    target_shapes:
      - {type: square, position: "50% 60%"}
      - {type: triangle, position: "50% 30%"}
  - id: ball
    name: Ball
    required_shapes: [circle]
`

func newTestService(t *testing.T, cfg config.ShapeConfig) (*Service, *ledger.Service, *gorm.DB) {
	db := testutil.NewDB(t, &ShapeResult{}, &ledger.CoinBalance{}, &gamestate.GameState{})
	cat, err := LoadCatalogue([]byte(houseTasks))
	require.NoError(t, err)
	l := ledger.NewService(db)
	return NewService(db, l, cat, cfg), l, db
}

func defaultCfg() config.ShapeConfig {
	return config.ShapeConfig{CoinsPerSuccess: 10, MinShapes: 1, PositionTolerance: 15}
}

func TestValidate_SuccessAwardsTenCoins(t *testing.T) {
	s, l, db := newTestService(t, defaultCfg())
	ctx := context.Background()

	res, err := s.Validate(ctx, 1, "house", []Submitted{
		{Type: "square"}, {Type: "triangle"}, {Type: "circle"},
	})
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, int64(10), res.Award)
	assert.Equal(t, int64(10), res.Coins)

	var rows []ShapeResult
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, 100, rows[0].SimilarityScore)
	assert.Equal(t, 10, rows[0].CoinsAwarded)

	completed, err := s.Completed(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"house"}, completed)

	bal, _ := l.GetBalance(ctx, 1)
	assert.Equal(t, int64(10), bal)
}

func TestValidate_FailureIsRecordedWithoutCoins(t *testing.T) {
	s, l, db := newTestService(t, defaultCfg())
	ctx := context.Background()

	res, err := s.Validate(ctx, 1, "house", []Submitted{{Type: "square"}})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Zero(t, res.Award)

	var rows []ShapeResult
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].SimilarityScore)
	assert.Equal(t, 0, rows[0].CoinsAwarded)

	bal, _ := l.GetBalance(ctx, 1)
	assert.Zero(t, bal)
	completed, _ := s.Completed(ctx, 1)
	assert.Empty(t, completed)
}

func TestValidate_ValidationErrorsWriteNothing(t *testing.T) {
	s, _, db := newTestService(t, defaultCfg())
	ctx := context.Background()

	_, err := s.Validate(ctx, 1, "castle", []Submitted{{Type: "square"}})
	assert.ErrorIs(t, err, ErrTaskNotFound)

	_, err = s.Validate(ctx, 1, "house", nil)
	assert.ErrorIs(t, err, ErrNotEnoughShapes)

	_, err = s.Validate(ctx, 1, "", []Submitted{{Type: "square"}})
	assert.ErrorIs(t, err, ErrTaskNotFound, "no current task yet")

	var count int64
	require.NoError(t, db.Model(&ShapeResult{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestValidate_EnforcePositions(t *testing.T) {
	cfg := defaultCfg()
	cfg.EnforcePositions = true
	s, _, _ := newTestService(t, cfg)
	ctx := context.Background()

	res, err := s.Validate(ctx, 1, "house", []Submitted{
		{Type: "square", Position: "10% 90%"},
		{Type: "triangle", Position: "50% 30%"},
	})
	require.NoError(t, err)
	assert.False(t, res.Valid)

	res, err = s.Validate(ctx, 1, "house", []Submitted{
		{Type: "square", Position: "52% 58%"},
		{Type: "triangle", Position: "49% 33%"},
	})
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestNextTask_SkipsCompletedAndResets(t *testing.T) {
	s, _, _ := newTestService(t, defaultCfg())
	ctx := context.Background()

	_, err := s.Validate(ctx, 1, "house", []Submitted{{Type: "square"}, {Type: "triangle"}})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		task, err := s.NextTask(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "ball", task.ID)
	}

	// 当前任务可以省略 task_id
	res, err := s.Validate(ctx, 1, "", []Submitted{{Type: "circle"}})
	require.NoError(t, err)
	assert.True(t, res.Valid)

	// 全部完成后重新开始
	task, err := s.NextTask(ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, []string{"house", "ball"}, task.ID)
	completed, err := s.Completed(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, completed)
}
