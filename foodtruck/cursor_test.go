package foodtruck_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/foodtruck-engine/foodtruck"
	"github.com/warp/foodtruck-engine/generic"
)

// =============================================================================
// RESET
// =============================================================================

func TestReset_AlwaysMondayEmpty(t *testing.T) {
	env := foodtruck.Default()
	c, s := env.Reset(generic.NewSampler(1))
	assert.Equal(t, st(foodtruck.Mon, 0), s)

	// Walk a bit, then reset again
	_, err := c.Step(300)
	require.NoError(t, err)
	_, err = c.Step(100)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.Equal(t, st(foodtruck.Mon, 0), c.Reset())
		assert.Equal(t, 0, c.Steps())
		assert.False(t, c.Done())
	}
}

func TestStep_BeforeReset(t *testing.T) {
	env := foodtruck.Default()
	c := env.NewCursor(generic.NewSampler(1))

	_, ok := c.State()
	assert.False(t, ok)

	_, err := c.Step(100)
	assert.ErrorIs(t, err, generic.ErrUninitializedCursor)
	assert.True(t, generic.IsConflict(err))

	var nilCursor *foodtruck.Cursor
	_, err = nilCursor.Step(100)
	assert.ErrorIs(t, err, generic.ErrUninitializedCursor)
}

// =============================================================================
// STEP
// =============================================================================

func TestStep_UsesSampledDemand(t *testing.T) {
	// GIVEN: Demand pinned to the second outcome (200)
	env := foodtruck.Default()
	c, _ := env.Reset(generic.FixedSampler(1))

	// WHEN: Ordering 300 on an empty Monday
	res, err := c.Step(300)
	require.NoError(t, err)

	// THEN: 200 sold, 100 carried, reward 7*200 - 4*300
	assert.Equal(t, st(foodtruck.Tue, 100), res.State)
	assertMoney(t, 200, res.Reward, "reward")
	assert.False(t, res.Done)
	assert.Equal(t, foodtruck.Units(200), res.Info.Demand)
	assert.Equal(t, foodtruck.Units(200), res.Info.Sales)

	s, ok := c.State()
	assert.True(t, ok)
	assert.Equal(t, res.State, s)
	assert.Equal(t, 1, c.Steps())
}

func TestStep_EpisodeEndsAtWeekend(t *testing.T) {
	env := foodtruck.Default()
	c, _ := env.Reset(generic.NewSampler(99))

	var res foodtruck.StepResult
	var err error
	for i := 0; i < 5; i++ {
		require.False(t, c.Done())
		res, err = c.Step(200)
		require.NoError(t, err)
		assert.Equal(t, i == 4, res.Done, "step %d", i)
	}
	assert.Equal(t, foodtruck.Weekend, res.State.Day)
	assert.True(t, c.Done())
}

func TestStep_AfterTerminalLeavesCursorAlone(t *testing.T) {
	env := foodtruck.Default()
	c, _ := env.Reset(generic.FixedSampler(0))
	for !c.Done() {
		_, err := c.Step(100)
		require.NoError(t, err)
	}
	before, _ := c.State()

	_, err := c.Step(100)
	assert.ErrorIs(t, err, generic.ErrInvalidState)

	after, _ := c.State()
	assert.Equal(t, before, after)
	assert.Equal(t, 5, c.Steps())
}

func TestStep_InvalidActionLeavesCursorAlone(t *testing.T) {
	env := foodtruck.Default()
	c, start := env.Reset(generic.NewSampler(1))

	_, err := c.Step(150)
	assert.ErrorIs(t, err, generic.ErrInvalidAction)

	s, _ := c.State()
	assert.Equal(t, start, s)
	assert.Equal(t, 0, c.Steps())
}

func TestStep_SameSeedSameEpisode(t *testing.T) {
	env := foodtruck.Default()
	run := func() []foodtruck.StepResult {
		c, _ := env.Reset(generic.NewSampler(7))
		var out []foodtruck.StepResult
		for !c.Done() {
			res, err := c.Step(200)
			require.NoError(t, err)
			out = append(out, res)
		}
		return out
	}
	assert.Equal(t, run(), run())
}

func TestCursors_AreIndependent(t *testing.T) {
	env := foodtruck.Default()
	a, _ := env.Reset(generic.FixedSampler(0))
	b, _ := env.Reset(generic.FixedSampler(3))

	_, err := a.Step(200)
	require.NoError(t, err)

	sb, _ := b.State()
	assert.Equal(t, st(foodtruck.Mon, 0), sb)
}

func TestResetTo(t *testing.T) {
	env := foodtruck.Default()
	c := env.NewCursor(generic.FixedSampler(3))

	require.NoError(t, c.ResetTo(st(foodtruck.Tue, 300)))
	res, err := c.Step(0)
	require.NoError(t, err)
	assert.Equal(t, st(foodtruck.Wed, 0), res.State)
	assertMoney(t, 2100, res.Reward, "reward")

	err = c.ResetTo(st(foodtruck.Tue, 50))
	assert.ErrorIs(t, err, generic.ErrInvalidState)
}

// =============================================================================
// CONSISTENCY - Sampled frequencies converge to the exact kernel
// =============================================================================

func TestConsistency_MonteCarloMatchesKernel(t *testing.T) {
	if testing.Short() {
		t.Skip("100k samples")
	}
	env := foodtruck.Default()

	rep, err := env.CheckConsistency(st(foodtruck.Mon, 0), 200, 100000, generic.NewSampler(1))
	require.NoError(t, err)

	assert.InDelta(t, 390.0, rep.ExpectedReward, 1e-9)
	assert.Less(t, math.Abs(rep.MeanReward-rep.ExpectedReward), 0.01*rep.ExpectedReward,
		"mean %.3f vs expected %.3f", rep.MeanReward, rep.ExpectedReward)
	assert.Less(t, rep.MaxDeviation, 0.01)
	assert.Equal(t, 100000, rep.Tally.N())
}

func TestConsistency_EveryPairConverges(t *testing.T) {
	if testing.Short() {
		t.Skip("samples every pair")
	}
	env := foodtruck.Default()
	sampler := generic.NewSampler(2)

	for _, s := range env.StateSpace() {
		if env.IsTerminal(s) {
			continue
		}
		for _, a := range env.ActionSpace() {
			rep, err := env.CheckConsistency(s, a, 20000, sampler)
			require.NoError(t, err)
			assert.Less(t, rep.MaxDeviation, 0.02, "%s / %d", s, a)
		}
	}
}

func TestSampleTransitions_Errors(t *testing.T) {
	env := foodtruck.Default()

	_, err := env.SampleTransitions(st(foodtruck.Mon, 0), 200, 0, generic.NewSampler(1))
	assert.Error(t, err)

	_, err = env.SampleTransitions(st(foodtruck.Weekend, 0), 200, 10, generic.NewSampler(1))
	assert.ErrorIs(t, err, generic.ErrInvalidState)
}
