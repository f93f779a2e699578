package carnival

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWheel_Validation(t *testing.T) {
	_, err := NewWheel(nil)
	assert.Error(t, err)
	_, err = NewWheel([]Segment{{Name: "Red", Coins: 1, Weight: 1}})
	assert.Error(t, err)
	_, err = NewWheel([]Segment{{Name: "Red", Coins: 8, Weight: 1}})
	assert.Error(t, err)
	_, err = NewWheel([]Segment{{Name: "Red", Coins: 3, Weight: 1}, {Name: "Red", Coins: 4, Weight: 1}})
	assert.Error(t, err)
	_, err = NewWheel([]Segment{{Name: "Red", Coins: 3, Weight: 0}})
	assert.Error(t, err)
}

func TestDefaultWheel_TwelveSegments(t *testing.T) {
	w, err := NewWheel(DefaultSegments)
	require.NoError(t, err)
	assert.Len(t, w.Segments(), 12)
	for i := range w.Segments() {
		assert.InDelta(t, 1.0/12, w.Probability(i), 1e-9)
	}
}

func TestSpin_CosmeticRanges(t *testing.T) {
	w, err := NewWheel(DefaultSegments)
	require.NoError(t, err)
	rng := rand.New(rand.NewPCG(11, 12))

	for i := 0; i < 2000; i++ {
		r := w.Spin(rng)
		assert.GreaterOrEqual(t, r.SpinAngle, 0.0)
		assert.Less(t, r.SpinAngle, 360.0)
		assert.GreaterOrEqual(t, r.Rotations, 3)
		assert.LessOrEqual(t, r.Rotations, 6)
		assert.GreaterOrEqual(t, r.Duration, 2.5)
		assert.Less(t, r.Duration, 4.0)

		seg, ok := w.Lookup(r.Color)
		require.True(t, ok)
		assert.Equal(t, seg.Coins, r.Coins)
		assert.Equal(t, seg.Code, r.Code)
	}
}

func TestSpin_DistributionMatchesWeights(t *testing.T) {
	w, err := NewWheel(DefaultSegments)
	require.NoError(t, err)
	rng := rand.New(rand.NewPCG(2024, 1))

	const n = 1000
	counts := map[string]int{}
	var payout int
	for i := 0; i < n; i++ {
		r := w.Spin(rng)
		counts[r.Color]++
		payout += r.Coins
	}

	expectedMean := 0.0
	for i, s := range w.Segments() {
		p := w.Probability(i)
		expectedMean += p * float64(s.Coins)
		// 约4个标准差的容差
		assert.InDelta(t, p*n, float64(counts[s.Name]), 36, "segment %s", s.Name)
	}
	assert.InDelta(t, expectedMean, float64(payout)/n, 0.25)
}

func TestSpin_SkewedWeights(t *testing.T) {
	w, err := NewWheel([]Segment{
		{Name: "Rare", Coins: 7, Weight: 1},
		{Name: "Common", Coins: 2, Weight: 9},
	})
	require.NoError(t, err)
	rng := rand.New(rand.NewPCG(5, 5))

	common := 0
	const n = 5000
	for i := 0; i < n; i++ {
		if w.Spin(rng).Color == "Common" {
			common++
		}
	}
	assert.InDelta(t, 0.9, float64(common)/n, 0.03)
}
