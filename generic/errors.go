/*
errors.go - Centralized error types for the generic engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages wrap these sentinels with additional context.

ERROR CATEGORIES:
  1. Precondition errors - InvalidState, InvalidAction, UninitializedCursor.
     These are caller bugs. They are surfaced immediately and never retried.
  2. Definition errors - malformed distributions or configs
  3. Journal/store errors - duplicates and missing records

USAGE:
  Domain packages wrap generic errors:

    if errors.Is(err, generic.ErrInvalidState) {
        // terminal or unknown state
    }

SEE ALSO:
  - foodtruck/errors.go: InvalidStateError, InvalidActionError
  - ledger.go: Uses the journal errors
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidState is returned when a successor or outcome is requested for
	// a terminal state, or for a state outside the declared state space.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidAction is returned for an action outside the action space.
	ErrInvalidAction = errors.New("invalid action")

	// ErrUninitializedCursor is returned when Step is called before Reset.
	ErrUninitializedCursor = errors.New("cursor not initialized: call Reset first")

	// ErrInvalidDistribution is returned when outcomes and weights don't form
	// a probability distribution.
	ErrInvalidDistribution = errors.New("invalid distribution")

	// ErrInvalidConfig is returned when an environment definition is malformed.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrDuplicateIdempotencyKey is returned when a journal entry with the same
	// idempotency key already exists.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrEpisodeNotFound is returned when a referenced episode doesn't exist.
	ErrEpisodeNotFound = errors.New("episode not found")

	// ErrEnvironmentNotFound is returned when a referenced environment doesn't exist.
	ErrEnvironmentNotFound = errors.New("environment not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DistributionError describes why a categorical distribution was rejected.
type DistributionError struct {
	Reason string
	Sum    float64
}

func (e *DistributionError) Error() string {
	if e.Sum != 0 {
		return fmt.Sprintf("invalid distribution: %s (sum %v)", e.Reason, e.Sum)
	}
	return "invalid distribution: " + e.Reason
}

func (e *DistributionError) Unwrap() error {
	return ErrInvalidDistribution
}

// ConfigError names the offending config field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrInvalidAction) ||
		errors.Is(err, ErrInvalidDistribution) ||
		errors.Is(err, ErrInvalidConfig)
}

// IsConflict returns true if the error reflects the state of an episode
// rather than the input itself.
func IsConflict(err error) bool {
	return errors.Is(err, ErrUninitializedCursor) ||
		errors.Is(err, ErrDuplicateIdempotencyKey)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEpisodeNotFound) ||
		errors.Is(err, ErrEnvironmentNotFound)
}
