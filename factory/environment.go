/*
Package factory provides JSON to Go environment conversion.

PURPOSE:
  Converts JSON environment definitions into foodtruck.Config and
  foodtruck.Environment values. This is the configurable construction path:
  demand, prices, calendar and order sizes can change without code changes,
  and definitions can be stored in the database as plain JSON.

JSON SCHEMA:
  {
    "id": "food-truck",
    "name": "Food truck",
    "demand": [
      {"units": 100, "probability": 0.3},
      {"units": 200, "probability": 0.4}
    ],
    "unit_cost": 4,
    "net_revenue": "7.25",
    "days": ["Mon", "Tue", "Wed", "Thu", "Fri", "Weekend"],
    "actions": [0, 100, 200]
  }

DEFAULTS:
  Every field except id is optional. Omitted fields take the value from
  foodtruck.DefaultConfig(), except actions: when omitted they are derived
  from the (possibly custom) demand as {0} plus each outcome.
  Prices accept JSON numbers or strings and are parsed as decimals.

SEE ALSO:
  - foodtruck/presets.go: Ready-made definitions
  - foodtruck/environment.go: Validation and space derivation
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/foodtruck-engine/foodtruck"
	"github.com/warp/foodtruck-engine/generic"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// EnvironmentJSON is the JSON representation of an environment.
type EnvironmentJSON struct {
	ID         string           `json:"id"`
	Name       string           `json:"name,omitempty"`
	Demand     []DemandJSON     `json:"demand,omitempty"`
	UnitCost   *decimal.Decimal `json:"unit_cost,omitempty"`
	NetRevenue *decimal.Decimal `json:"net_revenue,omitempty"`
	Days       []string         `json:"days,omitempty"`
	Actions    []int            `json:"actions,omitempty"`
}

// DemandJSON is one demand outcome.
type DemandJSON struct {
	Units       int     `json:"units"`
	Probability float64 `json:"probability"`
}

// Definition is a parsed environment with its identity.
type Definition struct {
	ID     generic.EnvironmentID
	Name   string
	Config foodtruck.Config
}

// =============================================================================
// ENVIRONMENT FACTORY
// =============================================================================

// EnvironmentFactory converts JSON definitions to environments.
type EnvironmentFactory struct{}

func NewEnvironmentFactory() *EnvironmentFactory {
	return &EnvironmentFactory{}
}

// ParseDefinition parses JSON into a Definition without building the environment.
func (f *EnvironmentFactory) ParseDefinition(jsonStr string) (Definition, error) {
	var ej EnvironmentJSON
	if err := json.Unmarshal([]byte(jsonStr), &ej); err != nil {
		return Definition{}, fmt.Errorf("failed to parse environment JSON: %w", err)
	}
	return f.FromJSON(ej)
}

// ParseEnvironment parses JSON and builds the environment.
func (f *EnvironmentFactory) ParseEnvironment(jsonStr string) (Definition, *foodtruck.Environment, error) {
	def, err := f.ParseDefinition(jsonStr)
	if err != nil {
		return Definition{}, nil, err
	}
	env, err := foodtruck.New(def.Config)
	if err != nil {
		return Definition{}, nil, fmt.Errorf("environment %s: %w", def.ID, err)
	}
	return def, env, nil
}

// FromJSON fills defaults and converts to a Definition.
func (f *EnvironmentFactory) FromJSON(ej EnvironmentJSON) (Definition, error) {
	if ej.ID == "" {
		return Definition{}, &generic.ConfigError{Field: "id", Reason: "required"}
	}

	cfg := foodtruck.DefaultConfig()
	def := Definition{ID: generic.EnvironmentID(ej.ID), Name: ej.Name}
	if def.Name == "" {
		def.Name = ej.ID
	}

	if len(ej.Demand) > 0 {
		cfg.DemandOutcomes = make([]foodtruck.Units, len(ej.Demand))
		cfg.DemandWeights = make([]generic.Probability, len(ej.Demand))
		for i, d := range ej.Demand {
			cfg.DemandOutcomes[i] = foodtruck.Units(d.Units)
			cfg.DemandWeights[i] = generic.Probability(d.Probability)
		}
		// Derived from the custom demand unless given explicitly below
		cfg.Actions = nil
	}
	if ej.UnitCost != nil {
		cfg.UnitCost = *ej.UnitCost
	}
	if ej.NetRevenue != nil {
		cfg.NetRevenue = *ej.NetRevenue
	}
	if len(ej.Days) > 0 {
		cfg.Days = append([]string(nil), ej.Days...)
	}
	if len(ej.Actions) > 0 {
		cfg.Actions = make([]foodtruck.Action, len(ej.Actions))
		for i, a := range ej.Actions {
			cfg.Actions[i] = foodtruck.Action(a)
		}
	}

	def.Config = cfg
	return def, nil
}

// ToJSON converts a Definition back to its JSON form.
func (f *EnvironmentFactory) ToJSON(def Definition) EnvironmentJSON {
	cost, revenue := def.Config.UnitCost, def.Config.NetRevenue
	ej := EnvironmentJSON{
		ID:         string(def.ID),
		Name:       def.Name,
		UnitCost:   &cost,
		NetRevenue: &revenue,
		Days:       append([]string(nil), def.Config.Days...),
	}
	for i, o := range def.Config.DemandOutcomes {
		ej.Demand = append(ej.Demand, DemandJSON{Units: int(o), Probability: float64(def.Config.DemandWeights[i])})
	}
	for _, a := range def.Config.Actions {
		ej.Actions = append(ej.Actions, int(a))
	}
	return ej
}

// Marshal renders a Definition as indented JSON.
func (f *EnvironmentFactory) Marshal(def Definition) (string, error) {
	b, err := json.MarshalIndent(f.ToJSON(def), "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
