package foodtruck

import (
	"context"
	"strconv"
	"time"

	"github.com/warp/foodtruck-engine/generic"
)

// Recorder journals every step of one episode into a ledger.
// The step and its journal entry succeed or fail together: if the ledger
// rejects the entry the cursor is rewound. The sampler is not: the demand
// drawn for the rejected step is consumed, so a retry draws the next value
// of the seed's sequence and the episode no longer replays from its seed.
type Recorder struct {
	ID     generic.EpisodeID
	Cursor *Cursor
	Ledger generic.Ledger
}

// NewRecorder resets cursor and starts journaling under id.
func NewRecorder(id generic.EpisodeID, cursor *Cursor, ledger generic.Ledger) (*Recorder, State) {
	r := &Recorder{ID: id, Cursor: cursor, Ledger: ledger}
	return r, cursor.Reset()
}

// Step advances the cursor and appends the step to the ledger.
func (r *Recorder) Step(ctx context.Context, a Action) (StepResult, error) {
	from, _ := r.Cursor.State()
	index := r.Cursor.Steps()

	res, err := r.Cursor.Step(a)
	if err != nil {
		return StepResult{}, err
	}

	rec := r.Cursor.Environment().Record(r.ID, index, from, a, res)
	if err := r.Ledger.Append(ctx, rec); err != nil {
		r.Cursor.restore(from, index)
		return StepResult{}, err
	}
	return res, nil
}

// RecordRollout journals a finished rollout atomically.
func (r *Recorder) RecordRollout(ctx context.Context, ep Episode) error {
	env := r.Cursor.Environment()
	recs := make([]generic.StepRecord, len(ep.Steps))
	for i, st := range ep.Steps {
		recs[i] = env.Record(r.ID, i, st.From, st.Action, st.Result)
	}
	return r.Ledger.AppendBatch(ctx, recs)
}

// Record converts a step into its journal entry.
func (e *Environment) Record(id generic.EpisodeID, index int, from State, a Action, res StepResult) generic.StepRecord {
	key := generic.StepKey(id, index)
	return generic.StepRecord{
		ID:             generic.StepID(key),
		EpisodeID:      id,
		Index:          index,
		State:          e.StateKey(from),
		Action:         int64(a),
		Next:           e.StateKey(res.State),
		Reward:         res.Reward,
		Done:           res.Done,
		IdempotencyKey: key,
		Metadata: map[string]string{
			"demand": strconv.Itoa(int(res.Info.Demand)),
			"sales":  strconv.Itoa(int(res.Info.Sales)),
		},
		CreatedAt: time.Now().UTC(),
	}
}
