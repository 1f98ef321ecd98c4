// Package foodtruck implements the food-truck inventory MDP: a vendor restocks
// a perishable good once per period over a fixed weekly calendar, faces
// independent categorical demand each period, and earns net revenue on what
// it sells minus the cost of what it ordered.
package foodtruck

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DAY - Ordinal period of the weekly calendar
// =============================================================================

// Day is the ordinal of a period in the environment's calendar.
type Day int

// Periods of the default calendar. Weekend is terminal.
const (
	Mon Day = iota
	Tue
	Wed
	Thu
	Fri
	Weekend
)

// DefaultDays are the period names of the default calendar, in order.
var DefaultDays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Weekend"}

// String names d on the default calendar. Environments with their own
// calendar name days through Environment.DayName.
func (d Day) String() string {
	if d >= 0 && int(d) < len(DefaultDays) {
		return DefaultDays[d]
	}
	return fmt.Sprintf("Day(%d)", int(d))
}

// =============================================================================
// QUANTITIES
// =============================================================================

// Units counts goods: inventory, demand, sales.
type Units int

// Action is an order quantity placed at the start of a period.
type Action Units

// =============================================================================
// STATE
// =============================================================================

// State is the period and the inventory carried into it, before restocking.
type State struct {
	Day       Day
	Inventory Units
}

func (s State) String() string {
	return fmt.Sprintf("(%s, %d)", s.Day, s.Inventory)
}

// =============================================================================
// OUTCOME - Deterministic result of (state, action, demand)
// =============================================================================

// Outcome records every intermediate quantity of one transition.
type Outcome struct {
	NextDay           Day
	StartingInventory Units // min(capacity, inventory + action)
	Cost              decimal.Decimal
	Sales             Units // min(starting inventory, demand)
	Revenue           decimal.Decimal
	NextInventory     Units
	Reward            decimal.Decimal
}

// Next is the state the outcome lands in.
func (o Outcome) Next() State {
	return State{Day: o.NextDay, Inventory: o.NextInventory}
}

// =============================================================================
// STEP RESULT - What a cursor returns from Step
// =============================================================================

// Info carries step diagnostics.
type Info struct {
	Demand Units
	Sales  Units
}

// StepResult is the observation returned by Cursor.Step.
type StepResult struct {
	State  State
	Reward decimal.Decimal
	Done   bool
	Info   Info
}
