package selector

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixed(v float64) Source { return SourceFunc(func() float64 { return v }) }

func TestPick_Empty(t *testing.T) {
	_, err := Pick(nil, fixed(0.5))
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestPick_InvalidWeight(t *testing.T) {
	for _, w := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err := Pick([]Candidate{{ID: 1, Weight: 1}, {ID: 2, Weight: w}}, fixed(0.1))
		assert.ErrorIs(t, err, ErrInvalidWeight, "weight %v", w)
	}
}

func TestPick_ZeroTotal(t *testing.T) {
	_, err := Pick([]Candidate{{ID: 1, Weight: 0}, {ID: 2, Weight: 0}}, fixed(0.1))
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestPick_Boundaries(t *testing.T) {
	cands := []Candidate{{ID: 10, Weight: 1}, {ID: 20, Weight: 2}, {ID: 30, Weight: 1}}

	cases := []struct {
		r    float64
		want uint
	}{
		{0, 10},
		{0.2499, 10},
		{0.25, 20},
		{0.7499, 20},
		{0.75, 30},
		{0.9999, 30},
	}
	for _, tc := range cases {
		got, err := Pick(cands, fixed(tc.r))
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "r=%v", tc.r)
	}
}

func TestPick_WeightsNeedNotSumToOne(t *testing.T) {
	cands := []Candidate{{ID: 1, Weight: 50}, {ID: 2, Weight: 150}}
	got, err := Pick(cands, fixed(0.3))
	require.NoError(t, err)
	assert.Equal(t, uint(2), got)
}

func TestPick_ZeroWeightNeverChosen(t *testing.T) {
	cands := []Candidate{{ID: 1, Weight: 0}, {ID: 2, Weight: 1}, {ID: 3, Weight: 0}}
	for _, r := range []float64{0, 0.5, 0.999} {
		got, err := Pick(cands, fixed(r))
		require.NoError(t, err)
		assert.Equal(t, uint(2), got)
	}
}

func TestPick_FallbackToLast(t *testing.T) {
	// 源返回 1.0（越界）模拟浮点累积误差导致未命中
	cands := []Candidate{{ID: 1, Weight: 0.1}, {ID: 2, Weight: 0.2}, {ID: 3, Weight: 0.3}}
	got, err := Pick(cands, fixed(1.0))
	require.NoError(t, err)
	assert.Equal(t, uint(3), got)
}

func TestPick_Distribution(t *testing.T) {
	cands := []Candidate{{ID: 1, Weight: 1}, {ID: 2, Weight: 3}, {ID: 3, Weight: 6}}
	const trials = 200000
	counts := map[uint]int{}
	src := DefaultSource()
	for i := 0; i < trials; i++ {
		id, err := Pick(cands, src)
		require.NoError(t, err)
		counts[id]++
	}

	// 每项允许 5 个标准差的偏差
	for _, c := range cands {
		p := c.Weight / 10
		sigma := math.Sqrt(p * (1 - p) / trials)
		got := float64(counts[c.ID]) / trials
		assert.InDelta(t, p, got, 5*sigma, "prize %d", c.ID)
	}
}
