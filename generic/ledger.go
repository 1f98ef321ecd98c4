/*
ledger.go - Append-only episode journal

PURPOSE:
  The Ledger is the record of what actually happened in sampled episodes.
  Every step taken through a recording cursor lands here. Episode return
  is always computed by replaying steps; there is no separate "return"
  field that can drift.

INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete.
  2. ORDERED: Steps replay in Index order
  3. IDEMPOTENT: Same idempotency key = same step (no duplicates)

SEE ALSO:
  - store.go: Low-level persistence interface
  - foodtruck/recorder.go: Domain wrapper that journals cursor steps
*/
package generic

import (
	"context"

	"github.com/shopspring/decimal"
)

// Ledger is the source of truth for sampled episodes.
type Ledger interface {
	// Append adds a step. Fails if the idempotency key exists.
	Append(ctx context.Context, rec StepRecord) error

	// AppendBatch adds several steps atomically (a finished rollout).
	AppendBatch(ctx context.Context, recs []StepRecord) error

	// Steps returns the steps of an episode in order.
	Steps(ctx context.Context, episodeID EpisodeID) ([]StepRecord, error)

	// Summary replays an episode into its step count, return and done flag.
	Summary(ctx context.Context, episodeID EpisodeID) (EpisodeSummary, error)
}

// =============================================================================
// DEFAULT LEDGER - Implementation using Store
// =============================================================================

type DefaultLedger struct {
	Store Store
}

func NewLedger(store Store) *DefaultLedger {
	return &DefaultLedger{Store: store}
}

func (l *DefaultLedger) Append(ctx context.Context, rec StepRecord) error {
	if rec.IdempotencyKey != "" {
		exists, err := l.Store.Exists(ctx, rec.IdempotencyKey)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateIdempotencyKey
		}
	}
	return l.Store.Append(ctx, rec)
}

func (l *DefaultLedger) AppendBatch(ctx context.Context, recs []StepRecord) error {
	for _, rec := range recs {
		if rec.IdempotencyKey != "" {
			exists, err := l.Store.Exists(ctx, rec.IdempotencyKey)
			if err != nil {
				return err
			}
			if exists {
				return ErrDuplicateIdempotencyKey
			}
		}
	}
	return l.Store.AppendBatch(ctx, recs)
}

func (l *DefaultLedger) Steps(ctx context.Context, episodeID EpisodeID) ([]StepRecord, error) {
	return l.Store.Load(ctx, episodeID)
}

func (l *DefaultLedger) Summary(ctx context.Context, episodeID EpisodeID) (EpisodeSummary, error) {
	recs, err := l.Store.Load(ctx, episodeID)
	if err != nil {
		return EpisodeSummary{}, err
	}

	summary := EpisodeSummary{EpisodeID: episodeID, Return: decimal.Zero}
	for _, rec := range recs {
		summary.Steps++
		summary.Return = summary.Return.Add(rec.Reward)
		summary.Done = rec.Done
	}
	return summary, nil
}
