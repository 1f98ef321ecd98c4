package generic_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/foodtruck-engine/generic"
	"github.com/warp/foodtruck-engine/generic/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestLedger() generic.Ledger {
	return generic.NewLedger(store.NewMemory())
}

func step(ep generic.EpisodeID, index int, reward int64, done bool) generic.StepRecord {
	key := generic.StepKey(ep, index)
	return generic.StepRecord{
		ID:             generic.StepID(key),
		EpisodeID:      ep,
		Index:          index,
		State:          "Mon:0",
		Action:         200,
		Next:           "Tue:0",
		Reward:         money(reward),
		Done:           done,
		IdempotencyKey: key,
	}
}

// =============================================================================
// APPEND / IDEMPOTENCY
// =============================================================================

func TestStepKey(t *testing.T) {
	assert.Equal(t, "ep-1:0", generic.StepKey("ep-1", 0))
	assert.Equal(t, "ep-1:12", generic.StepKey("ep-1", 12))
}

func TestLedger_AppendAndReplay(t *testing.T) {
	ledger := newTestLedger()
	ctx := context.Background()

	require.NoError(t, ledger.Append(ctx, step("ep", 0, 600, false)))
	require.NoError(t, ledger.Append(ctx, step("ep", 1, -200, false)))

	steps, err := ledger.Steps(ctx, "ep")
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, 0, steps[0].Index)
	assert.Equal(t, 1, steps[1].Index)

	summary, err := ledger.Summary(ctx, "ep")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Steps)
	assert.True(t, summary.Return.Equal(money(400)))
	assert.False(t, summary.Done)
}

func TestLedger_DuplicateStepRejected(t *testing.T) {
	// GIVEN: Step 0 of an episode is journaled
	ledger := newTestLedger()
	ctx := context.Background()
	require.NoError(t, ledger.Append(ctx, step("ep", 0, 600, false)))

	// WHEN: A retry journals step 0 again
	err := ledger.Append(ctx, step("ep", 0, 600, false))

	// THEN: It is rejected and the journal is unchanged
	assert.ErrorIs(t, err, generic.ErrDuplicateIdempotencyKey)
	assert.True(t, generic.IsConflict(err))

	steps, err := ledger.Steps(ctx, "ep")
	require.NoError(t, err)
	assert.Len(t, steps, 1)
}

func TestLedger_BatchIsAtomic(t *testing.T) {
	ledger := newTestLedger()
	ctx := context.Background()
	require.NoError(t, ledger.Append(ctx, step("ep", 1, 0, false)))

	// Batch collides on index 1, so nothing from it is kept
	err := ledger.AppendBatch(ctx, []generic.StepRecord{
		step("ep", 0, 100, false),
		step("ep", 1, 100, false),
	})
	assert.ErrorIs(t, err, generic.ErrDuplicateIdempotencyKey)

	steps, err := ledger.Steps(ctx, "ep")
	require.NoError(t, err)
	assert.Len(t, steps, 1)
}

func TestMemoryStore_DuplicateWithinBatch(t *testing.T) {
	m := store.NewMemory()
	err := m.AppendBatch(context.Background(), []generic.StepRecord{
		step("ep", 0, 1, false),
		step("ep", 0, 1, false),
	})
	assert.ErrorIs(t, err, generic.ErrDuplicateIdempotencyKey)

	exists, err := m.Exists(context.Background(), generic.StepKey("ep", 0))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryStore_KeepsIndexOrder(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Append(ctx, step("ep", 2, 0, true)))
	require.NoError(t, m.Append(ctx, step("ep", 0, 0, false)))
	require.NoError(t, m.Append(ctx, step("ep", 1, 0, false)))

	steps, err := m.Load(ctx, "ep")
	require.NoError(t, err)
	require.Len(t, steps, 3)
	for i, s := range steps {
		assert.Equal(t, i, s.Index)
	}
}

func TestLedger_SummaryOfFinishedEpisode(t *testing.T) {
	ledger := newTestLedger()
	ctx := context.Background()
	require.NoError(t, ledger.AppendBatch(ctx, []generic.StepRecord{
		step("ep", 0, 600, false),
		step("ep", 1, 600, false),
		step("ep", 2, -900, true),
	}))

	summary, err := ledger.Summary(ctx, "ep")
	require.NoError(t, err)
	assert.Equal(t, generic.EpisodeID("ep"), summary.EpisodeID)
	assert.Equal(t, 3, summary.Steps)
	assert.True(t, summary.Return.Equal(money(300)))
	assert.True(t, summary.Done)
}

func TestLedger_UnknownEpisodeIsEmpty(t *testing.T) {
	ledger := newTestLedger()
	summary, err := ledger.Summary(context.Background(), "missing")
	require.NoError(t, err)
	assert.Zero(t, summary.Steps)
	assert.True(t, summary.Return.IsZero())
}
