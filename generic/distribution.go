package generic

import (
	"math/rand/v2"
	"sync"
)

// =============================================================================
// SAMPLER - Injectable categorical draw
// =============================================================================

// Sampler draws one index from a categorical distribution given its weights.
// Weights are assumed to sum to one.
type Sampler interface {
	Choose(weights []float64) int
}

// RandSampler is a seeded Sampler backed by a PCG source.
// The same seed always yields the same sequence of draws.
type RandSampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampler returns a deterministic sampler for the given seed.
func NewSampler(seed uint64) *RandSampler {
	return &RandSampler{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Choose walks the cumulative weights until it passes a uniform draw.
// Rounding slack at the top end falls onto the last outcome with positive weight.
func (s *RandSampler) Choose(weights []float64) int {
	s.mu.Lock()
	v := s.rng.Float64()
	s.mu.Unlock()

	last := -1
	cumulative := 0.0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		cumulative += w
		last = i
		if v < cumulative {
			return i
		}
	}
	return last
}

// FixedSampler always returns the same index. Useful for pinning demand in tests.
type FixedSampler int

func (f FixedSampler) Choose([]float64) int { return int(f) }

// =============================================================================
// CATEGORICAL - Finite distribution over comparable outcomes
// =============================================================================

// Categorical pairs outcomes with their probabilities, index by index.
type Categorical[T comparable] struct {
	Outcomes []T
	Weights  []Probability
}

// NewCategorical validates and returns a distribution.
func NewCategorical[T comparable](outcomes []T, weights []Probability) (Categorical[T], error) {
	c := Categorical[T]{
		Outcomes: append([]T(nil), outcomes...),
		Weights:  append([]Probability(nil), weights...),
	}
	return c, c.Validate()
}

// Validate checks lengths, signs, uniqueness and that weights sum to one.
func (c Categorical[T]) Validate() error {
	if len(c.Outcomes) == 0 {
		return &DistributionError{Reason: "no outcomes"}
	}
	if len(c.Outcomes) != len(c.Weights) {
		return &DistributionError{Reason: "outcomes and weights differ in length"}
	}
	seen := make(map[T]bool, len(c.Outcomes))
	sum := 0.0
	for i, o := range c.Outcomes {
		if seen[o] {
			return &DistributionError{Reason: "duplicate outcome"}
		}
		seen[o] = true
		if c.Weights[i] < 0 {
			return &DistributionError{Reason: "negative weight"}
		}
		sum += float64(c.Weights[i])
	}
	if !ApproxEqual(sum, 1, Tolerance) {
		return &DistributionError{Reason: "weights do not sum to 1", Sum: sum}
	}
	return nil
}

// Len returns the number of outcomes.
func (c Categorical[T]) Len() int { return len(c.Outcomes) }

// Floats returns the weights as plain floats for a Sampler.
func (c Categorical[T]) Floats() []float64 {
	out := make([]float64, len(c.Weights))
	for i, w := range c.Weights {
		out[i] = float64(w)
	}
	return out
}

// Sample draws one outcome using s.
func (c Categorical[T]) Sample(s Sampler) T {
	return c.Outcomes[s.Choose(c.Floats())]
}

// Max returns the outcome that compares greatest under less.
func (c Categorical[T]) Max(less func(a, b T) bool) T {
	best := c.Outcomes[0]
	for _, o := range c.Outcomes[1:] {
		if less(best, o) {
			best = o
		}
	}
	return best
}
