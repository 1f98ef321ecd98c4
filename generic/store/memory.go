// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/foodtruck-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	steps       map[generic.EpisodeID][]generic.StepRecord
	idempotency map[string]bool
}

func NewMemory() *Memory {
	return &Memory{
		steps:       make(map[generic.EpisodeID][]generic.StepRecord),
		idempotency: make(map[string]bool),
	}
}

// Append adds a single step. Append-only.
func (m *Memory) Append(_ context.Context, rec generic.StepRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.IdempotencyKey != "" && m.idempotency[rec.IdempotencyKey] {
		return generic.ErrDuplicateIdempotencyKey
	}
	m.appendLocked(rec)
	return nil
}

// AppendBatch adds multiple steps atomically.
func (m *Memory) AppendBatch(_ context.Context, recs []generic.StepRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check all idempotency keys first, including within the batch
	seen := make(map[string]bool, len(recs))
	for _, rec := range recs {
		if rec.IdempotencyKey == "" {
			continue
		}
		if m.idempotency[rec.IdempotencyKey] || seen[rec.IdempotencyKey] {
			return generic.ErrDuplicateIdempotencyKey
		}
		seen[rec.IdempotencyKey] = true
	}

	for _, rec := range recs {
		m.appendLocked(rec)
	}
	return nil
}

func (m *Memory) appendLocked(rec generic.StepRecord) {
	recs := m.steps[rec.EpisodeID]

	// Keep steps sorted by Index via binary-search insertion
	i := sort.Search(len(recs), func(i int) bool {
		return recs[i].Index > rec.Index
	})
	recs = append(recs, generic.StepRecord{})
	copy(recs[i+1:], recs[i:])
	recs[i] = rec
	m.steps[rec.EpisodeID] = recs

	if rec.IdempotencyKey != "" {
		m.idempotency[rec.IdempotencyKey] = true
	}
}

func (m *Memory) Load(_ context.Context, episodeID generic.EpisodeID) ([]generic.StepRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]generic.StepRecord, len(m.steps[episodeID]))
	copy(result, m.steps[episodeID])
	return result, nil
}

func (m *Memory) Exists(_ context.Context, idempotencyKey string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.idempotency[idempotencyKey], nil
}
