/*
presets.go - Ready-made environment definitions

PURPOSE:
  JSON definitions of common food-truck variants. They are parsed by the
  factory package, stored by the API, and listed as presets.

AVAILABLE PRESETS:
  DefaultJSON:         The canonical problem (demand 100..400, cost 4, revenue 7)
  HighMarginJSON:      Same demand, fatter margin (cost 3, revenue 9)
  VolatileDemandJSON:  Wider demand spread with a chance of a dead day
  ShortWeekJSON:       Mon..Wed plus Weekend

EXAMPLE:
  env, err := factory.NewEnvironmentFactory().ParseEnvironment(foodtruck.DefaultJSON("ft", "Food truck"))

SEE ALSO:
  - factory/environment.go: JSON to Config conversion
*/
package foodtruck

import "fmt"

// DefaultJSON returns the canonical definition.
func DefaultJSON(id, name string) string {
	return fmt.Sprintf(`{
  "id": %q,
  "name": %q,
  "demand": [
    {"units": 100, "probability": 0.3},
    {"units": 200, "probability": 0.4},
    {"units": 300, "probability": 0.2},
    {"units": 400, "probability": 0.1}
  ],
  "unit_cost": 4,
  "net_revenue": 7,
  "days": ["Mon", "Tue", "Wed", "Thu", "Fri", "Weekend"],
  "actions": [0, 100, 200, 300, 400]
}`, id, name)
}

// HighMarginJSON keeps the default demand with cheaper stock and better prices.
func HighMarginJSON(id, name string) string {
	return fmt.Sprintf(`{
  "id": %q,
  "name": %q,
  "demand": [
    {"units": 100, "probability": 0.3},
    {"units": 200, "probability": 0.4},
    {"units": 300, "probability": 0.2},
    {"units": 400, "probability": 0.1}
  ],
  "unit_cost": "3",
  "net_revenue": "9.5"
}`, id, name)
}

// VolatileDemandJSON adds a zero-demand day and a heavy tail.
func VolatileDemandJSON(id, name string) string {
	return fmt.Sprintf(`{
  "id": %q,
  "name": %q,
  "demand": [
    {"units": 0, "probability": 0.1},
    {"units": 100, "probability": 0.2},
    {"units": 200, "probability": 0.3},
    {"units": 300, "probability": 0.2},
    {"units": 500, "probability": 0.2}
  ],
  "unit_cost": 4,
  "net_revenue": 7
}`, id, name)
}

// ShortWeekJSON trades Thursday and Friday for a three-day week.
func ShortWeekJSON(id, name string) string {
	return fmt.Sprintf(`{
  "id": %q,
  "name": %q,
  "days": ["Mon", "Tue", "Wed", "Weekend"]
}`, id, name)
}
