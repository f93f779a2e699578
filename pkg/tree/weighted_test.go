package tree

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWeighted_Validation(t *testing.T) {
	_, err := NewWeighted(nil)
	assert.Error(t, err)
	_, err = NewWeighted([]float64{1, 0, 2})
	assert.Error(t, err)
	_, err = NewWeighted([]float64{1, -3})
	assert.Error(t, err)
}

func TestWeighted_FindBoundaries(t *testing.T) {
	w, err := NewWeighted([]float64{5, 4, 3})
	require.NoError(t, err)
	assert.Equal(t, 12.0, w.Total())

	cases := []struct {
		value float64
		want  int
	}{
		{0.0001, 0},
		{5, 0},
		{5.0001, 1},
		{9, 1},
		{9.5, 2},
		{12, 2},
	}
	for _, c := range cases {
		got, err := w.Find(c.value)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "value %v", c.value)
	}

	_, err = w.Find(0)
	assert.Error(t, err)
	_, err = w.Find(12.5)
	assert.Error(t, err)
}

func TestWeighted_DrawNeverHitsPadding(t *testing.T) {
	// 3个权重会补齐到4个叶子
	w, err := NewWeighted([]float64{1, 1, 1})
	require.NoError(t, err)
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 5000; i++ {
		idx := w.Draw(rng)
		assert.True(t, idx >= 0 && idx < 3)
	}
}

func TestWeighted_DrawFollowsWeights(t *testing.T) {
	w, err := NewWeighted([]float64{1, 9})
	require.NoError(t, err)
	rng := rand.New(rand.NewPCG(42, 7))

	counts := make([]int, 2)
	const n = 20000
	for i := 0; i < n; i++ {
		counts[w.Draw(rng)]++
	}
	assert.InDelta(t, 0.9, float64(counts[1])/n, 0.02)
}

func TestWeighted_Weight(t *testing.T) {
	w, err := NewWeighted([]float64{2, 7})
	require.NoError(t, err)
	v, err := w.Weight(1)
	require.NoError(t, err)
	assert.Equal(t, 7.0, v)
	_, err = w.Weight(2)
	assert.Error(t, err)
}
