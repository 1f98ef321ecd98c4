package foodtruck

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// POLICIES - Fixed ordering rules used to drive rollouts
// =============================================================================

// Policy chooses an order quantity for a state.
// Learned policies live with the solver; these are fixed baselines.
type Policy interface {
	Name() string
	Order(s State) Action
}

// PolicyFunc adapts a plain function.
type PolicyFunc func(State) Action

func (f PolicyFunc) Name() string         { return "func" }
func (f PolicyFunc) Order(s State) Action { return f(s) }

// ConstantPolicy orders the same quantity every period.
type ConstantPolicy struct {
	Quantity Action
}

func (p ConstantPolicy) Name() string       { return fmt.Sprintf("constant-%d", p.Quantity) }
func (p ConstantPolicy) Order(State) Action { return p.Quantity }

// OrderUpToPolicy restocks toward Target using the largest declared order that
// does not overshoot it. When every declared order overshoots, it places the
// smallest one.
type OrderUpToPolicy struct {
	Target  Units
	Actions []Action
}

// NewOrderUpTo builds an order-up-to policy over env's action space.
func NewOrderUpTo(env *Environment, target Units) OrderUpToPolicy {
	return OrderUpToPolicy{Target: target, Actions: env.ActionSpace()}
}

func (p OrderUpToPolicy) Name() string { return fmt.Sprintf("order-up-to-%d", p.Target) }

func (p OrderUpToPolicy) Order(s State) Action {
	gap := p.Target - s.Inventory
	best, found := Action(0), false
	for _, a := range p.Actions {
		if Units(a) <= gap && (!found || a > best) {
			best, found = a, true
		}
	}
	if found {
		return best
	}
	for _, a := range p.Actions {
		if !found || a < best {
			best, found = a, true
		}
	}
	return best
}

// =============================================================================
// ROLLOUT - One sampled episode under a fixed policy
// =============================================================================

// RolloutStep is one transition of a rollout.
type RolloutStep struct {
	From   State
	Action Action
	Result StepResult
}

// Episode is a finished rollout.
type Episode struct {
	Policy string
	Steps  []RolloutStep
	Return decimal.Decimal
}

// Rollout resets c and follows p until the terminal period.
// Cancellation is checked between steps.
func Rollout(ctx context.Context, c *Cursor, p Policy) (Episode, error) {
	ep := Episode{Policy: p.Name(), Return: decimal.Zero}
	state := c.Reset()
	for !c.Done() {
		if err := ctx.Err(); err != nil {
			return ep, err
		}
		a := p.Order(state)
		res, err := c.Step(a)
		if err != nil {
			return ep, fmt.Errorf("step %d from %s: %w", len(ep.Steps), c.Environment().StateKey(state), err)
		}
		ep.Steps = append(ep.Steps, RolloutStep{From: state, Action: a, Result: res})
		ep.Return = ep.Return.Add(res.Reward)
		state = res.State
	}
	return ep, nil
}
