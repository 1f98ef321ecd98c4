/*
store.go - Persistence interface for the episode journal

PURPOSE:
  Defines the interface between episode recording and the database.
  The Store keeps append-only semantics: a sampled step, once journaled,
  is never rewritten. Implementations can use SQLite or memory.

APPEND-ONLY CONTRACT:
  - Append(): Single step write
  - AppendBatch(): Atomic multi-step write (a whole rollout)
  - NO Update() or Delete() methods exist

IDEMPOTENCY:
  Every write carries an idempotency key ("<episode>:<index>"). If the key
  already exists, the write is rejected. A client retrying a step request
  therefore cannot journal the same step twice.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - generic/store/memory.go: In-memory for testing

SEE ALSO:
  - ledger.go: Higher-level interface using Store
*/
package generic

import (
	"context"
	"strconv"
)

// Store handles persistence of step records.
// Store is APPEND-ONLY.
type Store interface {
	// Append persists a step. Returns ErrDuplicateIdempotencyKey if the key exists.
	Append(ctx context.Context, rec StepRecord) error

	// AppendBatch persists several steps atomically.
	AppendBatch(ctx context.Context, recs []StepRecord) error

	// Load returns all steps of an episode ordered by Index.
	Load(ctx context.Context, episodeID EpisodeID) ([]StepRecord, error)

	// Exists checks if an idempotency key already exists.
	Exists(ctx context.Context, idempotencyKey string) (bool, error)
}

// StepKey is the idempotency key of step index in episode id.
func StepKey(id EpisodeID, index int) string {
	return string(id) + ":" + strconv.Itoa(index)
}
