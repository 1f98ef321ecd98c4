package sqlite

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/foodtruck-engine/generic"
)

// Corrupt rows must surface as errors rather than replay as zero rewards.
func TestLoad_CorruptRows(t *testing.T) {
	tests := []struct {
		name   string
		update string
		errMsg string
	}{
		{"unparseable reward", "UPDATE steps SET reward = 'lots'", "reward"},
		{"malformed metadata", "UPDATE steps SET metadata_json = '{not json'", "metadata"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := New(":memory:")
			require.NoError(t, err)
			defer store.Close()
			ctx := context.Background()

			require.NoError(t, store.SaveEnvironment(ctx, EnvironmentRecord{ID: "ft", Name: "ft", ConfigJSON: "{}"}))
			require.NoError(t, store.SaveEpisode(ctx, EpisodeRecord{ID: "ep-1", EnvironmentID: "ft", Seed: 1}))
			require.NoError(t, store.Append(ctx, generic.StepRecord{
				ID:             "ep-1:0",
				EpisodeID:      "ep-1",
				State:          "Mon:0",
				Action:         200,
				Next:           "Tue:0",
				Reward:         decimal.NewFromInt(600),
				IdempotencyKey: "ep-1:0",
				Metadata:       map[string]string{"demand": "200"},
			}))

			_, err = store.db.ExecContext(ctx, tt.update)
			require.NoError(t, err)

			_, err = store.Load(ctx, "ep-1")
			assert.ErrorContains(t, err, tt.errMsg)

			_, err = generic.NewLedger(store).Summary(ctx, "ep-1")
			assert.Error(t, err)
		})
	}
}
