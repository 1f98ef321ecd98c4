package generic_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/foodtruck-engine/generic"
)

// =============================================================================
// CATEGORICAL VALIDATION
// =============================================================================

func TestNewCategorical_Valid(t *testing.T) {
	c, err := generic.NewCategorical([]int{100, 200, 300, 400}, []generic.Probability{0.3, 0.4, 0.2, 0.1})
	require.NoError(t, err)

	assert.Equal(t, 4, c.Len())
	assert.Equal(t, []float64{0.3, 0.4, 0.2, 0.1}, c.Floats())
	assert.Equal(t, 400, c.Max(func(a, b int) bool { return a < b }))
}

func TestNewCategorical_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []int
		weights  []generic.Probability
	}{
		{"empty", nil, nil},
		{"length mismatch", []int{1, 2}, []generic.Probability{1}},
		{"duplicate outcome", []int{1, 1}, []generic.Probability{0.5, 0.5}},
		{"negative weight", []int{1, 2}, []generic.Probability{1.5, -0.5}},
		{"sum below one", []int{1, 2}, []generic.Probability{0.5, 0.4}},
		{"sum above one", []int{1, 2}, []generic.Probability{0.7, 0.4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := generic.NewCategorical(tt.outcomes, tt.weights)
			require.Error(t, err)
			assert.ErrorIs(t, err, generic.ErrInvalidDistribution)
			assert.True(t, generic.IsClientError(err))

			var distErr *generic.DistributionError
			assert.ErrorAs(t, err, &distErr)
		})
	}
}

func TestNewCategorical_CopiesInputs(t *testing.T) {
	outcomes := []int{1, 2}
	weights := []generic.Probability{0.5, 0.5}
	c, err := generic.NewCategorical(outcomes, weights)
	require.NoError(t, err)

	outcomes[0] = 99
	weights[0] = 0
	assert.Equal(t, 1, c.Outcomes[0])
	assert.Equal(t, generic.Probability(0.5), c.Weights[0])
}

// =============================================================================
// SAMPLERS
// =============================================================================

func TestRandSampler_SameSeedSameDraws(t *testing.T) {
	weights := []float64{0.3, 0.4, 0.2, 0.1}
	a := generic.NewSampler(42)
	b := generic.NewSampler(42)

	for i := 0; i < 200; i++ {
		assert.Equal(t, a.Choose(weights), b.Choose(weights), "draw %d", i)
	}
}

func TestRandSampler_DifferentSeedsDiverge(t *testing.T) {
	weights := []float64{0.25, 0.25, 0.25, 0.25}
	a := generic.NewSampler(1)
	b := generic.NewSampler(2)

	same := 0
	for i := 0; i < 200; i++ {
		if a.Choose(weights) == b.Choose(weights) {
			same++
		}
	}
	assert.Less(t, same, 200)
}

func TestRandSampler_SkipsZeroWeights(t *testing.T) {
	s := generic.NewSampler(7)
	for i := 0; i < 1000; i++ {
		assert.Equal(t, 1, s.Choose([]float64{0, 1, 0}))
	}
}

func TestRandSampler_FrequenciesMatchWeights(t *testing.T) {
	weights := []float64{0.3, 0.4, 0.2, 0.1}
	s := generic.NewSampler(2024)

	const n = 100000
	counts := make([]int, len(weights))
	for i := 0; i < n; i++ {
		counts[s.Choose(weights)]++
	}

	for i, w := range weights {
		freq := float64(counts[i]) / n
		assert.InDelta(t, w, freq, 0.01, "outcome %d", i)
	}
}

func TestFixedSampler(t *testing.T) {
	c, err := generic.NewCategorical([]string{"lo", "hi"}, []generic.Probability{0.9, 0.1})
	require.NoError(t, err)

	assert.Equal(t, "hi", c.Sample(generic.FixedSampler(1)))
	assert.Equal(t, "lo", c.Sample(generic.FixedSampler(0)))
}

func TestApproxEqual(t *testing.T) {
	assert.True(t, generic.ApproxEqual(1, 1+1e-12, generic.Tolerance))
	assert.False(t, generic.ApproxEqual(1, 1.001, generic.Tolerance))
	assert.False(t, generic.ApproxEqual(1, math.NaN(), generic.Tolerance))
}
