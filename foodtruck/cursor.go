package foodtruck

import (
	"github.com/warp/foodtruck-engine/generic"
)

// Cursor is the mutable simulation position of one episode.
//
// A Cursor belongs to exactly one episode in progress and is not safe for
// concurrent use. Parallel rollouts take one cursor each; they may share the
// Environment.
type Cursor struct {
	env     *Environment
	sampler generic.Sampler
	state   State
	ready   bool
	steps   int
}

// NewCursor returns an unpositioned cursor that draws demand from s.
// Step fails with ErrUninitializedCursor until Reset is called.
func (e *Environment) NewCursor(s generic.Sampler) *Cursor {
	return &Cursor{env: e, sampler: s}
}

// Reset starts a new episode on a fresh cursor.
func (e *Environment) Reset(s generic.Sampler) (*Cursor, State) {
	c := e.NewCursor(s)
	return c, c.Reset()
}

// Reset moves the cursor to the initial state and discards prior progress.
func (c *Cursor) Reset() State {
	c.state = c.env.InitialState()
	c.ready = true
	c.steps = 0
	return c.state
}

// ResetTo positions the cursor at any state of the state space.
func (c *Cursor) ResetTo(s State) error {
	if _, ok := c.env.StateIndex(s); !ok {
		return c.env.invalidState(s, "not in state space")
	}
	c.state = s
	c.ready = true
	c.steps = 0
	return nil
}

// State returns the current state; ok is false before the first Reset.
func (c *Cursor) State() (State, bool) {
	return c.state, c.ready
}

// Steps counts steps taken since the last reset.
func (c *Cursor) Steps() int { return c.steps }

// Done reports whether the episode has reached the terminal period.
func (c *Cursor) Done() bool {
	return c.ready && c.env.IsTerminal(c.state)
}

// Environment returns the environment this cursor walks.
func (c *Cursor) Environment() *Environment { return c.env }

// Step samples demand, applies action and advances the cursor.
// On error the cursor is left where it was.
func (c *Cursor) Step(a Action) (StepResult, error) {
	if c == nil || c.env == nil || !c.ready {
		return StepResult{}, generic.ErrUninitializedCursor
	}
	if c.env.IsTerminal(c.state) {
		return StepResult{}, c.env.invalidState(c.state, "episode already terminal")
	}
	if _, ok := c.env.ActionIndex(a); !ok {
		return StepResult{}, &InvalidActionError{Action: a}
	}

	demand := c.env.demand.Sample(c.sampler)
	o, err := c.env.ComputeOutcome(c.state, a, demand)
	if err != nil {
		return StepResult{}, err
	}

	c.state = o.Next()
	c.steps++
	return StepResult{
		State:  c.state,
		Reward: o.Reward,
		Done:   c.env.IsTerminal(c.state),
		Info:   Info{Demand: demand, Sales: o.Sales},
	}, nil
}

// restore rewinds the cursor; used when a journal write fails after a step.
func (c *Cursor) restore(s State, steps int) {
	c.state = s
	c.steps = steps
}
