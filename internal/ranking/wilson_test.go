package ranking

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScoreNoRatings(t *testing.T) {
	require.Zero(t, Score(0, 0))
}

func TestScoreKnownValues(t *testing.T) {
	tests := []struct {
		name     string
		positive int
		total    int
		want     float64
	}{
		{name: "single favorable rating", positive: 1, total: 1, want: 0.2065},
		{name: "four of five favorable", positive: 4, total: 5, want: 0.3755},
		{name: "forty of fifty favorable", positive: 40, total: 50, want: 0.6696},
		{name: "all unfavorable", positive: 0, total: 10, want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.InDelta(t, tc.want, Score(tc.positive, tc.total), 0.0005)
		})
	}
}

func TestScoreRange(t *testing.T) {
	for total := 0; total <= 40; total++ {
		for positive := 0; positive <= total; positive++ {
			got := Score(positive, total)
			require.GreaterOrEqual(t, got, 0.0, "Score(%d, %d)", positive, total)
			require.LessOrEqual(t, got, 1.0, "Score(%d, %d)", positive, total)
		}
	}
}

func TestScoreMonotonicInPositive(t *testing.T) {
	const total = 25
	prev := Score(0, total)
	for positive := 1; positive <= total; positive++ {
		got := Score(positive, total)
		require.GreaterOrEqual(t, got, prev, "Score(%d, %d) decreased", positive, total)
		prev = got
	}
}

func TestScoreRewardsVolume(t *testing.T) {
	// Same favorable ratio, larger sample: the lower bound must rise.
	prev := Score(4, 5)
	for scale := 2; scale <= 20; scale++ {
		got := Score(4*scale, 5*scale)
		require.Greater(t, got, prev, "Score(%d, %d) did not reward volume", 4*scale, 5*scale)
		prev = got
	}
}
