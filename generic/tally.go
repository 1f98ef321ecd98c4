package generic

import (
	"math"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TALLY - Empirical (next state, reward) frequencies from sampled steps
// =============================================================================

// Tally counts sampled outcomes so they can be compared against a Kernel.
type Tally[S comparable] struct {
	counts    map[TransitionKey[S]]int
	order     []Transition[S]
	n         int
	rewardSum decimal.Decimal
}

func NewTally[S comparable]() *Tally[S] {
	return &Tally[S]{counts: make(map[TransitionKey[S]]int)}
}

// Observe records one sampled outcome.
func (t *Tally[S]) Observe(next S, reward decimal.Decimal) {
	key := KeyOf(next, reward)
	if _, ok := t.counts[key]; !ok {
		t.order = append(t.order, Transition[S]{Next: next, Reward: reward})
	}
	t.counts[key]++
	t.n++
	t.rewardSum = t.rewardSum.Add(reward)
}

// N returns the number of observations.
func (t *Tally[S]) N() int { return t.n }

// Frequency returns the observed share of (next, reward).
func (t *Tally[S]) Frequency(next S, reward decimal.Decimal) Probability {
	if t.n == 0 {
		return 0
	}
	return Probability(float64(t.counts[KeyOf(next, reward)]) / float64(t.n))
}

// Transitions returns observed outcomes with their frequencies, first-seen order.
func (t *Tally[S]) Transitions() []Transition[S] {
	out := make([]Transition[S], len(t.order))
	for i, o := range t.order {
		out[i] = Transition[S]{Next: o.Next, Reward: o.Reward, Probability: t.Frequency(o.Next, o.Reward)}
	}
	return out
}

// MeanReward is the sample average of observed rewards.
func (t *Tally[S]) MeanReward() float64 {
	if t.n == 0 {
		return 0
	}
	return t.rewardSum.InexactFloat64() / float64(t.n)
}

// MaxDeviation returns the largest absolute gap between the observed
// frequency and the kernel probability over every key either side has seen.
func (t *Tally[S]) MaxDeviation(k *Kernel[S]) float64 {
	worst := 0.0
	for _, b := range k.Transitions() {
		d := math.Abs(float64(t.Frequency(b.Next, b.Reward) - b.Probability))
		worst = math.Max(worst, d)
	}
	for _, o := range t.order {
		if k.Probability(o.Next, o.Reward) == 0 {
			worst = math.Max(worst, float64(t.Frequency(o.Next, o.Reward)))
		}
	}
	return worst
}
