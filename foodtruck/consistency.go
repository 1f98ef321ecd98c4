package foodtruck

import (
	"fmt"

	"github.com/warp/foodtruck-engine/generic"
)

// SampleTransitions repositions a cursor at s and takes one sampled step with
// a, n times, tallying the (next state, reward) pairs it lands on. With a
// large n the tally approaches EnumerateTransitions(s, a).
func (e *Environment) SampleTransitions(s State, a Action, n int, sampler generic.Sampler) (*generic.Tally[State], error) {
	if n <= 0 {
		return nil, fmt.Errorf("sample count must be positive, got %d", n)
	}
	c := e.NewCursor(sampler)
	tally := generic.NewTally[State]()
	for i := 0; i < n; i++ {
		if err := c.ResetTo(s); err != nil {
			return nil, err
		}
		res, err := c.Step(a)
		if err != nil {
			return nil, err
		}
		tally.Observe(res.State, res.Reward)
	}
	return tally, nil
}

// ConsistencyReport compares sampled and exact transitions for one pair.
type ConsistencyReport struct {
	State          State
	Action         Action
	Samples        int
	Kernel         *generic.Kernel[State]
	Tally          *generic.Tally[State]
	ExpectedReward float64
	MeanReward     float64
	MaxDeviation   float64
}

// CheckConsistency enumerates the kernel for (s, a), samples it n times and
// reports how far apart the two are.
func (e *Environment) CheckConsistency(s State, a Action, n int, sampler generic.Sampler) (ConsistencyReport, error) {
	k, err := e.EnumerateTransitions(s, a)
	if err != nil {
		return ConsistencyReport{}, err
	}
	tally, err := e.SampleTransitions(s, a, n, sampler)
	if err != nil {
		return ConsistencyReport{}, err
	}
	return ConsistencyReport{
		State:          s,
		Action:         a,
		Samples:        n,
		Kernel:         k,
		Tally:          tally,
		ExpectedReward: k.ExpectedReward(),
		MeanReward:     tally.MeanReward(),
		MaxDeviation:   tally.MaxDeviation(k),
	}, nil
}
