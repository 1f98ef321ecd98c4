/*
Package generic provides the domain-agnostic finite-MDP engine.

PURPOSE:
  This package contains the building blocks every finite Markov decision
  process in this repository is assembled from. The food-truck environment
  (package foodtruck) supplies the domain: days, inventory, prices. This
  package supplies the machinery: categorical demand, sampling, exact
  transition kernels, empirical tallies, the calendar, and the append-only
  episode journal.

KEY CONCEPTS IN THIS FILE (types.go):
  - Probability: a weight in [0, 1]
  - Money: decimal.Decimal is used for every reward, cost and price
  - StepRecord: an immutable journal entry for one sampled step
  - EpisodeID / StepID: type-safe identifiers

DESIGN PRINCIPLES:
  1. Exactness: money is decimal.Decimal, never float64
  2. Injectable randomness: sampling goes through the Sampler interface
  3. Immutability: journal entries are appended, never modified
  4. Type Safety: strong typing for IDs prevents mixing episode/step IDs

USAGE:
  k := generic.NewKernel[MyState]()
  k.Add(next, decimal.NewFromInt(250), 0.3)

SEE ALSO:
  - distribution.go: Categorical distributions and the Sampler
  - kernel.go: Exact (next state, reward) distributions
  - tally.go: Empirical counterparts of kernels
  - ledger.go: Episode journal
*/
package generic

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PROBABILITY
// =============================================================================

// Probability is a weight of a categorical outcome.
type Probability float64

// Tolerance is the slack allowed when checking that probabilities sum to one.
const Tolerance = 1e-9

// ApproxEqual reports whether a and b differ by less than tol.
func ApproxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}


// =============================================================================
// IDENTIFIERS
// =============================================================================

type EpisodeID string
type EnvironmentID string
type StepID string

// =============================================================================
// STEP RECORD - One sampled transition in the episode journal
// =============================================================================

// StepRecord is the journal entry for one call to Step.
// States are stored in their string form so the journal stays independent of
// any particular environment's state type.
type StepRecord struct {
	ID             StepID
	EpisodeID      EpisodeID
	Index          int
	State          string
	Action         int64
	Next           string
	Reward         decimal.Decimal
	Done           bool
	IdempotencyKey string
	Metadata       map[string]string
	CreatedAt      time.Time
}

// EpisodeSummary is a computed view of an episode's journal.
type EpisodeSummary struct {
	EpisodeID EpisodeID
	Steps     int
	Return    decimal.Decimal
	Done      bool
}
