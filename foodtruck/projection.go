/*
projection.go - Exact expected return of a fixed policy

PURPOSE:
  Pushes the state distribution of an episode forward one period at a time
  through the exact kernel, following a fixed Policy. The result answers
  "what return should rollouts of this policy average to?" without sampling,
  and gives the occupancy of every state along the way.

KEY INSIGHT:
  The horizon is the calendar, so the projection always terminates after
  Calendar().Len()-1 periods. No discounting: the return is the plain sum
  of expected per-period rewards.

EXAMPLE:
  proj, _ := env.Project(foodtruck.ConstantPolicy{Quantity: 200})
  fmt.Println(proj.ExpectedReturn)

SEE ALSO:
  - policies.go: Rollout (the sampled counterpart)
  - environment.go: EnumerateTransitions
*/
package foodtruck

import (
	"fmt"
	"sort"
)

// StateMass is the probability of being in State at the start of a period.
type StateMass struct {
	State       State
	Probability float64
}

// PeriodProjection is the state distribution and expected reward of one period.
type PeriodProjection struct {
	Day            Day
	Occupancy      []StateMass
	ExpectedReward float64
}

// Projection is the exact forward view of one policy over a full episode.
type Projection struct {
	Policy         string
	Periods        []PeriodProjection
	ExpectedReturn float64
}

// Project computes the exact occupancy and expected return of p from the
// initial state. The last period is terminal and carries no reward.
func (e *Environment) Project(p Policy) (Projection, error) {
	proj := Projection{Policy: p.Name()}
	dist := map[State]float64{e.InitialState(): 1}

	for day := Day(0); int(day) < e.calendar.Len(); day++ {
		period := PeriodProjection{Day: day, Occupancy: e.sortedMass(dist)}
		if e.calendar.IsTerminal(int(day)) {
			proj.Periods = append(proj.Periods, period)
			break
		}

		next := make(map[State]float64)
		for _, sm := range period.Occupancy {
			a := p.Order(sm.State)
			k, err := e.EnumerateTransitions(sm.State, a)
			if err != nil {
				return proj, fmt.Errorf("%s orders %d in %s: %w", p.Name(), a, e.StateKey(sm.State), err)
			}
			for _, b := range k.Transitions() {
				mass := sm.Probability * float64(b.Probability)
				next[b.Next] += mass
				period.ExpectedReward += mass * b.Reward.InexactFloat64()
			}
		}

		proj.Periods = append(proj.Periods, period)
		proj.ExpectedReturn += period.ExpectedReward
		dist = next
	}
	return proj, nil
}

// sortedMass orders a distribution by state index, dropping zero mass.
func (e *Environment) sortedMass(dist map[State]float64) []StateMass {
	out := make([]StateMass, 0, len(dist))
	for s, p := range dist {
		if p > 0 {
			out = append(out, StateMass{State: s, Probability: p})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := e.StateIndex(out[i].State)
		b, _ := e.StateIndex(out[j].State)
		return a < b
	})
	return out
}
