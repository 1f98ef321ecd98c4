/*
environment.go - The food-truck inventory MDP

PURPOSE:
  Owns the static problem definition (prices, demand, calendar, capacity),
  derives the state and action spaces, and exposes the transition law in
  the two forms solvers need:

    EnumerateTransitions  exact (next state, reward) -> probability kernel,
                          for dynamic-programming solvers
    Cursor.Reset/Step     sampled stepping, for simulation-based solvers

  Both go through ComputeOutcome, so they cannot disagree.

TRANSITION (fixed order of operations):
  next_day           = successor(day)
  starting_inventory = min(capacity, inventory + action)
  cost               = unit_cost * action          (charged on the full order)
  sales              = min(starting_inventory, demand)
  revenue            = net_revenue * sales
  next_inventory     = starting_inventory - sales  (unmet demand is lost)
  reward             = revenue - cost

STATE SPACE:
  {(first day, 0)} plus every later day crossed with every carried inventory
  level. With the default config that is 1 + 5*4 = 21 states. Capacity (400)
  is a reachable starting inventory but never a carried one, because every
  period realises at least 100 units of demand.

ACTION SPACE:
  {0} plus the demand outcomes unless configured. The default includes 400
  even though no state carries 400; capacity clipping makes ordering 400 on
  top of stock legal.

CONCURRENCY:
  An Environment is immutable after New and safe to share. Cursors are not.

SEE ALSO:
  - cursor.go: Sampling interface
  - presets.go: JSON definitions parsed by the factory package
*/
package foodtruck

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/foodtruck-engine/generic"
)

// =============================================================================
// CONFIG
// =============================================================================

// Config is the static definition of an environment.
// DefaultConfig returns the canonical food truck; the factory package builds
// Configs from JSON.
type Config struct {
	DemandOutcomes []Units
	DemandWeights  []generic.Probability
	UnitCost       decimal.Decimal
	NetRevenue     decimal.Decimal
	Days           []string
	// Actions defaults to {0} plus the demand outcomes when empty.
	Actions []Action
}

// DefaultConfig is the canonical problem: demand 100..400 with weights
// 0.3/0.4/0.2/0.1, unit cost 4, net revenue 7, Mon..Fri plus Weekend.
func DefaultConfig() Config {
	return Config{
		DemandOutcomes: []Units{100, 200, 300, 400},
		DemandWeights:  []generic.Probability{0.3, 0.4, 0.2, 0.1},
		UnitCost:       decimal.NewFromInt(4),
		NetRevenue:     decimal.NewFromInt(7),
		Days:           append([]string(nil), DefaultDays...),
		Actions:        []Action{0, 100, 200, 300, 400},
	}
}

// =============================================================================
// ENVIRONMENT
// =============================================================================

type Environment struct {
	calendar   generic.Calendar
	demand     generic.Categorical[Units]
	unitCost   decimal.Decimal
	netRevenue decimal.Decimal
	capacity   Units

	actions     []Action
	actionIndex map[Action]int
	levels      []Units
	states      []State
	stateIndex  map[State]int
}

// Default returns the canonical environment.
func Default() *Environment {
	env, err := New(DefaultConfig())
	if err != nil {
		panic(fmt.Sprintf("foodtruck: default config rejected: %v", err))
	}
	return env
}

// New validates cfg and derives the state and action spaces.
func New(cfg Config) (*Environment, error) {
	for i, o := range cfg.DemandOutcomes {
		if o < 0 {
			return nil, &generic.ConfigError{Field: "demand", Reason: fmt.Sprintf("negative outcome at %d", i)}
		}
	}
	demand, err := generic.NewCategorical(cfg.DemandOutcomes, cfg.DemandWeights)
	if err != nil {
		return nil, fmt.Errorf("demand: %w", err)
	}
	if cfg.UnitCost.IsNegative() {
		return nil, &generic.ConfigError{Field: "unit_cost", Reason: "must not be negative"}
	}
	if cfg.NetRevenue.IsNegative() {
		return nil, &generic.ConfigError{Field: "net_revenue", Reason: "must not be negative"}
	}
	calendar, err := generic.NewCalendar(cfg.Days...)
	if err != nil {
		return nil, err
	}

	env := &Environment{
		calendar:   calendar,
		demand:     demand,
		unitCost:   cfg.UnitCost,
		netRevenue: cfg.NetRevenue,
		capacity:   demand.Max(func(a, b Units) bool { return a < b }),
	}

	actions := cfg.Actions
	if len(actions) == 0 {
		actions = append(actions, 0)
		for _, o := range cfg.DemandOutcomes {
			if o != 0 {
				actions = append(actions, Action(o))
			}
		}
	}
	env.actions = append([]Action(nil), actions...)
	sort.Slice(env.actions, func(i, j int) bool { return env.actions[i] < env.actions[j] })
	env.actionIndex = make(map[Action]int, len(env.actions))
	for i, a := range env.actions {
		if a < 0 {
			return nil, &generic.ConfigError{Field: "actions", Reason: fmt.Sprintf("negative order %d", a)}
		}
		if _, dup := env.actionIndex[a]; dup {
			return nil, &generic.ConfigError{Field: "actions", Reason: fmt.Sprintf("duplicate order %d", a)}
		}
		env.actionIndex[a] = i
	}

	env.levels = env.carriedLevels()
	env.states = append(env.states, State{Day: 0, Inventory: 0})
	for d := 1; d < calendar.Len(); d++ {
		for _, lvl := range env.levels {
			env.states = append(env.states, State{Day: Day(d), Inventory: lvl})
		}
	}
	env.stateIndex = make(map[State]int, len(env.states))
	for i, s := range env.states {
		env.stateIndex[s] = i
	}

	return env, nil
}

// carriedLevels is the fixpoint of inventory values that can be carried into
// a period, starting from an empty truck.
func (e *Environment) carriedLevels() []Units {
	seen := map[Units]bool{0: true}
	frontier := []Units{0}
	for len(frontier) > 0 {
		var next []Units
		for _, inv := range frontier {
			for _, a := range e.actions {
				start := min(e.capacity, inv+Units(a))
				for _, d := range e.demand.Outcomes {
					carried := start - min(start, d)
					if !seen[carried] {
						seen[carried] = true
						next = append(next, carried)
					}
				}
			}
		}
		frontier = next
	}

	levels := make([]Units, 0, len(seen))
	for lvl := range seen {
		levels = append(levels, lvl)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })
	return levels
}

// =============================================================================
// STATIC DEFINITION
// =============================================================================

// ActionSpace returns the declared order quantities, ascending.
func (e *Environment) ActionSpace() []Action {
	return append([]Action(nil), e.actions...)
}

// StateSpace returns every legal state: the first day with empty inventory,
// then each later day crossed with each carried inventory level.
func (e *Environment) StateSpace() []State {
	return append([]State(nil), e.states...)
}

// InventoryLevels returns the inventory values a non-initial state may carry.
func (e *Environment) InventoryLevels() []Units {
	return append([]Units(nil), e.levels...)
}

// StateIndex returns the dense index of s in StateSpace.
func (e *Environment) StateIndex(s State) (int, bool) {
	i, ok := e.stateIndex[s]
	return i, ok
}

// ActionIndex returns the dense index of a in ActionSpace.
func (e *Environment) ActionIndex(a Action) (int, bool) {
	i, ok := e.actionIndex[a]
	return i, ok
}

func (e *Environment) Calendar() generic.Calendar        { return e.calendar }
func (e *Environment) Demand() generic.Categorical[Units] { return e.demand }
func (e *Environment) Capacity() Units                    { return e.capacity }
func (e *Environment) UnitCost() decimal.Decimal          { return e.unitCost }
func (e *Environment) NetRevenue() decimal.Decimal        { return e.netRevenue }

// InitialState is where every episode starts.
func (e *Environment) InitialState() State {
	return State{Day: 0, Inventory: 0}
}

// IsTerminal reports whether s is in the terminal period.
func (e *Environment) IsTerminal(s State) bool {
	return e.calendar.IsTerminal(int(s.Day))
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// ComputeOutcome applies (action, demand) to state. Demand is not checked
// against the declared outcomes.
func (e *Environment) ComputeOutcome(s State, a Action, demand Units) (Outcome, error) {
	if _, ok := e.stateIndex[s]; !ok {
		return Outcome{}, e.invalidState(s, "not in state space")
	}
	if _, ok := e.actionIndex[a]; !ok {
		return Outcome{}, &InvalidActionError{Action: a}
	}
	next, err := e.calendar.Successor(int(s.Day))
	if err != nil {
		return Outcome{}, e.invalidState(s, "terminal period has no successor")
	}

	var o Outcome
	o.NextDay = Day(next)
	o.StartingInventory = min(e.capacity, s.Inventory+Units(a))
	o.Cost = e.unitCost.Mul(decimal.NewFromInt(int64(a)))
	o.Sales = min(o.StartingInventory, demand)
	o.Revenue = e.netRevenue.Mul(decimal.NewFromInt(int64(o.Sales)))
	o.NextInventory = o.StartingInventory - o.Sales
	o.Reward = o.Revenue.Sub(o.Cost)
	return o, nil
}

// EnumerateTransitions returns the exact kernel for (s, a). Demand outcomes
// that clip to the same sales collapse onto one (next state, reward) branch.
func (e *Environment) EnumerateTransitions(s State, a Action) (*generic.Kernel[State], error) {
	k := generic.NewKernel[State]()
	for i, d := range e.demand.Outcomes {
		o, err := e.ComputeOutcome(s, a, d)
		if err != nil {
			return nil, err
		}
		k.Add(o.Next(), o.Reward, e.demand.Weights[i])
	}
	return k, nil
}

// =============================================================================
// NAMING - String forms used by the journal and the API
// =============================================================================

// DayName returns the calendar name of d.
func (e *Environment) DayName(d Day) string {
	return e.calendar.Name(int(d))
}

// ParseDay looks a calendar name up.
func (e *Environment) ParseDay(name string) (Day, error) {
	i, ok := e.calendar.Lookup(name)
	if !ok {
		return 0, fmt.Errorf("%w: unknown day %q", generic.ErrInvalidState, name)
	}
	return Day(i), nil
}

// StateKey renders s as "<day>:<inventory>".
func (e *Environment) StateKey(s State) string {
	return fmt.Sprintf("%s:%d", e.DayName(s.Day), s.Inventory)
}
