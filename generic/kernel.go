package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// KERNEL - Exact (next state, reward) distribution for one (state, action)
// =============================================================================

// Transition is one branch of a kernel.
type Transition[S comparable] struct {
	Next        S
	Reward      decimal.Decimal
	Probability Probability
}

// TransitionKey identifies a kernel branch. Rewards are keyed by their
// canonical decimal string so 250 and 250.0 collapse to one branch.
type TransitionKey[S comparable] struct {
	Next   S
	Reward string
}

// Kernel maps (next state, reward) to probability. Branches that land on the
// same key are merged by summing their probabilities, so a Kernel is a
// distribution over outcomes, not over the raw random draws behind them.
type Kernel[S comparable] struct {
	branches []Transition[S]
	index    map[TransitionKey[S]]int
}

func NewKernel[S comparable]() *Kernel[S] {
	return &Kernel[S]{index: make(map[TransitionKey[S]]int)}
}

// KeyOf returns the merge key for (next, reward).
func KeyOf[S comparable](next S, reward decimal.Decimal) TransitionKey[S] {
	return TransitionKey[S]{Next: next, Reward: reward.String()}
}

// Add merges p into the branch for (next, reward).
func (k *Kernel[S]) Add(next S, reward decimal.Decimal, p Probability) {
	key := KeyOf(next, reward)
	if i, ok := k.index[key]; ok {
		k.branches[i].Probability += p
		return
	}
	k.index[key] = len(k.branches)
	k.branches = append(k.branches, Transition[S]{Next: next, Reward: reward, Probability: p})
}

// Transitions returns the branches in first-seen order.
func (k *Kernel[S]) Transitions() []Transition[S] {
	out := make([]Transition[S], len(k.branches))
	copy(out, k.branches)
	return out
}

// Probability returns the mass on (next, reward), zero if absent.
func (k *Kernel[S]) Probability(next S, reward decimal.Decimal) Probability {
	if i, ok := k.index[KeyOf(next, reward)]; ok {
		return k.branches[i].Probability
	}
	return 0
}

// Map returns the kernel as a plain mapping.
func (k *Kernel[S]) Map() map[TransitionKey[S]]Probability {
	out := make(map[TransitionKey[S]]Probability, len(k.branches))
	for _, b := range k.branches {
		out[KeyOf(b.Next, b.Reward)] = b.Probability
	}
	return out
}

func (k *Kernel[S]) Len() int { return len(k.branches) }

// Total sums all branch probabilities. Should be 1 within Tolerance.
func (k *Kernel[S]) Total() float64 {
	sum := 0.0
	for _, b := range k.branches {
		sum += float64(b.Probability)
	}
	return sum
}

// ExpectedReward returns sum(p * reward).
func (k *Kernel[S]) ExpectedReward() float64 {
	sum := 0.0
	for _, b := range k.branches {
		sum += float64(b.Probability) * b.Reward.InexactFloat64()
	}
	return sum
}
