package sqlite_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/foodtruck-engine/generic"
	"github.com/warp/foodtruck-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedEpisode(t *testing.T, store *sqlite.Store, envID, epID string) {
	ctx := context.Background()
	require.NoError(t, store.SaveEnvironment(ctx, sqlite.EnvironmentRecord{
		ID: envID, Name: "Food truck", ConfigJSON: `{"id": "` + envID + `"}`,
	}))
	require.NoError(t, store.SaveEpisode(ctx, sqlite.EpisodeRecord{
		ID: epID, EnvironmentID: envID, Seed: 42,
	}))
}

func stepRec(ep generic.EpisodeID, index int, reward string, done bool) generic.StepRecord {
	key := generic.StepKey(ep, index)
	return generic.StepRecord{
		ID:             generic.StepID(key),
		EpisodeID:      ep,
		Index:          index,
		State:          "Mon:0",
		Action:         200,
		Next:           "Tue:0",
		Reward:         decimal.RequireFromString(reward),
		Done:           done,
		IdempotencyKey: key,
		Metadata:       map[string]string{"demand": "200", "sales": "200"},
	}
}

// =============================================================================
// STEP JOURNAL
// =============================================================================

func TestStore_AppendAndLoad(t *testing.T) {
	store := newTestStore(t)
	seedEpisode(t, store, "ft", "ep-1")
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, stepRec("ep-1", 1, "-100", false)))
	require.NoError(t, store.Append(ctx, stepRec("ep-1", 0, "600.5", false)))

	steps, err := store.Load(ctx, "ep-1")
	require.NoError(t, err)
	require.Len(t, steps, 2)

	assert.Equal(t, 0, steps[0].Index)
	assert.True(t, steps[0].Reward.Equal(decimal.RequireFromString("600.5")))
	assert.Equal(t, "Mon:0", steps[0].State)
	assert.Equal(t, "Tue:0", steps[0].Next)
	assert.Equal(t, int64(200), steps[0].Action)
	assert.Equal(t, "200", steps[0].Metadata["demand"])
	assert.False(t, steps[0].CreatedAt.IsZero())
	assert.Equal(t, 1, steps[1].Index)

	exists, err := store.Exists(ctx, "ep-1:0")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.Exists(ctx, "ep-1:9")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_DuplicateStepRejected(t *testing.T) {
	store := newTestStore(t)
	seedEpisode(t, store, "ft", "ep-1")
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, stepRec("ep-1", 0, "1", false)))
	err := store.Append(ctx, stepRec("ep-1", 0, "1", false))
	assert.ErrorIs(t, err, generic.ErrDuplicateIdempotencyKey)
}

func TestStore_StepForUnknownEpisode(t *testing.T) {
	store := newTestStore(t)
	err := store.Append(context.Background(), stepRec("ghost", 0, "1", false))
	assert.ErrorIs(t, err, generic.ErrEpisodeNotFound)
}

func TestStore_AppendBatchIsAtomic(t *testing.T) {
	store := newTestStore(t)
	seedEpisode(t, store, "ft", "ep-1")
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, stepRec("ep-1", 2, "1", false)))

	err := store.AppendBatch(ctx, []generic.StepRecord{
		stepRec("ep-1", 0, "1", false),
		stepRec("ep-1", 1, "1", false),
		stepRec("ep-1", 2, "1", true),
	})
	assert.ErrorIs(t, err, generic.ErrDuplicateIdempotencyKey)

	steps, err := store.Load(ctx, "ep-1")
	require.NoError(t, err)
	assert.Len(t, steps, 1, "failed batch must leave no partial rows")
}

func TestStore_AppendBatchDuplicateInsideBatch(t *testing.T) {
	store := newTestStore(t)
	seedEpisode(t, store, "ft", "ep-1")

	err := store.AppendBatch(context.Background(), []generic.StepRecord{
		stepRec("ep-1", 0, "1", false),
		stepRec("ep-1", 0, "1", false),
	})
	assert.ErrorIs(t, err, generic.ErrDuplicateIdempotencyKey)
}

func TestStore_WorksUnderLedger(t *testing.T) {
	store := newTestStore(t)
	seedEpisode(t, store, "ft", "ep-1")
	ledger := generic.NewLedger(store)
	ctx := context.Background()

	require.NoError(t, ledger.AppendBatch(ctx, []generic.StepRecord{
		stepRec("ep-1", 0, "600", false),
		stepRec("ep-1", 1, "-900", true),
	}))

	summary, err := ledger.Summary(ctx, "ep-1")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Steps)
	assert.True(t, summary.Return.Equal(decimal.NewFromInt(-300)))
	assert.True(t, summary.Done)
}

// =============================================================================
// ENVIRONMENTS & EPISODES
// =============================================================================

func TestStore_EnvironmentVersioning(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := sqlite.EnvironmentRecord{ID: "ft", Name: "Food truck", ConfigJSON: `{"id":"ft"}`}
	require.NoError(t, store.SaveEnvironment(ctx, rec))

	got, err := store.GetEnvironment(ctx, "ft")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Version)
	assert.Equal(t, "Food truck", got.Name)

	rec.Name = "Food truck v2"
	require.NoError(t, store.SaveEnvironment(ctx, rec))

	got, err = store.GetEnvironment(ctx, "ft")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, "Food truck v2", got.Name)

	missing, err := store.GetEnvironment(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_ListEnvironmentsByName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveEnvironment(ctx, sqlite.EnvironmentRecord{ID: "b", Name: "Zeta", ConfigJSON: "{}"}))
	require.NoError(t, store.SaveEnvironment(ctx, sqlite.EnvironmentRecord{ID: "a", Name: "Alpha", ConfigJSON: "{}"}))

	envs, err := store.ListEnvironments(ctx)
	require.NoError(t, err)
	require.Len(t, envs, 2)
	assert.Equal(t, "Alpha", envs[0].Name)
	assert.Equal(t, "Zeta", envs[1].Name)
}

func TestStore_Episodes(t *testing.T) {
	store := newTestStore(t)
	seedEpisode(t, store, "ft", "ep-1")
	ctx := context.Background()

	require.NoError(t, store.SaveEpisode(ctx, sqlite.EpisodeRecord{
		ID: "ep-2", EnvironmentID: "ft", Seed: 1<<63 + 5, Policy: "constant-200",
	}))

	ep, err := store.GetEpisode(ctx, "ep-2")
	require.NoError(t, err)
	require.NotNil(t, ep)
	assert.Equal(t, uint64(1<<63+5), ep.Seed)
	assert.Equal(t, "constant-200", ep.Policy)

	eps, err := store.ListEpisodes(ctx, "ft")
	require.NoError(t, err)
	assert.Len(t, eps, 2)

	missing, err := store.GetEpisode(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = store.SaveEpisode(ctx, sqlite.EpisodeRecord{ID: "ep-3", EnvironmentID: "ghost"})
	assert.ErrorIs(t, err, generic.ErrEnvironmentNotFound)

	err = store.SaveEpisode(ctx, sqlite.EpisodeRecord{ID: "ep-2", EnvironmentID: "ft"})
	assert.ErrorIs(t, err, generic.ErrDuplicateIdempotencyKey)
}

func TestStore_Reset(t *testing.T) {
	store := newTestStore(t)
	seedEpisode(t, store, "ft", "ep-1")
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, stepRec("ep-1", 0, "1", false)))

	require.NoError(t, store.Reset(ctx))

	envs, err := store.ListEnvironments(ctx)
	require.NoError(t, err)
	assert.Empty(t, envs)
	steps, err := store.Load(ctx, "ep-1")
	require.NoError(t, err)
	assert.Empty(t, steps)
}
