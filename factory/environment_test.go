package factory_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/foodtruck-engine/factory"
	"github.com/warp/foodtruck-engine/foodtruck"
	"github.com/warp/foodtruck-engine/generic"
)

func TestParseEnvironment_Presets(t *testing.T) {
	f := factory.NewEnvironmentFactory()

	tests := []struct {
		name       string
		json       string
		wantStates int
		wantCap    foodtruck.Units
	}{
		{"default", foodtruck.DefaultJSON("ft", "Food truck"), 21, 400},
		{"high margin", foodtruck.HighMarginJSON("hm", "High margin"), 21, 400},
		{"short week", foodtruck.ShortWeekJSON("sw", "Short week"), 13, 400},
		{"volatile", foodtruck.VolatileDemandJSON("vol", "Volatile"), 0, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, env, err := f.ParseEnvironment(tt.json)
			require.NoError(t, err)
			assert.NotEmpty(t, def.ID)
			assert.Equal(t, tt.wantCap, env.Capacity())
			if tt.wantStates > 0 {
				assert.Len(t, env.StateSpace(), tt.wantStates)
			}
		})
	}
}

func TestParseEnvironment_DefaultMatchesBuiltIn(t *testing.T) {
	_, env, err := factory.NewEnvironmentFactory().ParseEnvironment(foodtruck.DefaultJSON("ft", "Food truck"))
	require.NoError(t, err)

	builtin := foodtruck.Default()
	assert.Equal(t, builtin.StateSpace(), env.StateSpace())
	assert.Equal(t, builtin.ActionSpace(), env.ActionSpace())

	a, err := env.EnumerateTransitions(foodtruck.State{Day: foodtruck.Wed, Inventory: 100}, 300)
	require.NoError(t, err)
	b, err := builtin.EnumerateTransitions(foodtruck.State{Day: foodtruck.Wed, Inventory: 100}, 300)
	require.NoError(t, err)
	assert.Equal(t, b.Map(), a.Map())
}

func TestParseEnvironment_HighMarginPrices(t *testing.T) {
	_, env, err := factory.NewEnvironmentFactory().ParseEnvironment(foodtruck.HighMarginJSON("hm", "High margin"))
	require.NoError(t, err)

	assert.True(t, env.UnitCost().Equal(decimal.NewFromInt(3)))
	assert.True(t, env.NetRevenue().Equal(decimal.RequireFromString("9.5")))
}

func TestFromJSON_Defaults(t *testing.T) {
	f := factory.NewEnvironmentFactory()

	def, err := f.ParseDefinition(`{"id": "bare"}`)
	require.NoError(t, err)

	assert.Equal(t, generic.EnvironmentID("bare"), def.ID)
	assert.Equal(t, "bare", def.Name)
	assert.Equal(t, foodtruck.DefaultConfig(), def.Config)
}

func TestFromJSON_CustomDemandDerivesActions(t *testing.T) {
	def, err := factory.NewEnvironmentFactory().ParseDefinition(`{
		"id": "small",
		"demand": [{"units": 50, "probability": 0.5}, {"units": 150, "probability": 0.5}]
	}`)
	require.NoError(t, err)
	assert.Empty(t, def.Config.Actions)

	env, err := foodtruck.New(def.Config)
	require.NoError(t, err)
	assert.Equal(t, []foodtruck.Action{0, 50, 150}, env.ActionSpace())
}

func TestParseDefinition_Errors(t *testing.T) {
	f := factory.NewEnvironmentFactory()

	_, err := f.ParseDefinition(`{"name": "no id"}`)
	assert.ErrorIs(t, err, generic.ErrInvalidConfig)

	_, err = f.ParseDefinition(`{not json`)
	assert.Error(t, err)

	_, _, err = f.ParseEnvironment(`{"id": "bad", "demand": [{"units": 100, "probability": 0.5}]}`)
	assert.ErrorIs(t, err, generic.ErrInvalidDistribution)

	_, _, err = f.ParseEnvironment(`{"id": "bad", "days": ["Weekend"]}`)
	assert.ErrorIs(t, err, generic.ErrInvalidConfig)
}

func TestMarshal_RoundTrip(t *testing.T) {
	f := factory.NewEnvironmentFactory()
	def, err := f.ParseDefinition(foodtruck.VolatileDemandJSON("vol", "Volatile"))
	require.NoError(t, err)

	out, err := f.Marshal(def)
	require.NoError(t, err)

	var ej factory.EnvironmentJSON
	require.NoError(t, json.Unmarshal([]byte(out), &ej))
	assert.Equal(t, "vol", ej.ID)
	assert.Len(t, ej.Demand, 5)

	again, err := f.ParseDefinition(out)
	require.NoError(t, err)
	assert.Equal(t, def.Config.DemandOutcomes, again.Config.DemandOutcomes)
	assert.True(t, def.Config.UnitCost.Equal(again.Config.UnitCost))
}
