/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal model from the external contract: days travel by name,
  money travels as decimal strings, probabilities as numbers.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/environment.go: EnvironmentJSON (request body of POST /environments)
*/
package api

import (
	"github.com/warp/foodtruck-engine/foodtruck"
)

// =============================================================================
// ENVIRONMENTS
// =============================================================================

// EnvironmentDTO describes a stored environment and its derived spaces.
type EnvironmentDTO struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Version    int         `json:"version"`
	Days       []string    `json:"days"`
	Demand     []DemandDTO `json:"demand"`
	UnitCost   string      `json:"unit_cost"`
	NetRevenue string      `json:"net_revenue"`
	Capacity   int         `json:"capacity"`
	Actions    []int       `json:"actions"`
	NumStates  int         `json:"num_states"`
	CreatedAt  string      `json:"created_at,omitempty"`
}

type DemandDTO struct {
	Units       int     `json:"units"`
	Probability float64 `json:"probability"`
}

// StateDTO is a state with its day by name.
type StateDTO struct {
	Day       string `json:"day"`
	Inventory int    `json:"inventory"`
	Terminal  bool   `json:"terminal"`
}

// SpacesDTO is what a solver needs to size its tables.
type SpacesDTO struct {
	States          []StateDTO `json:"states"`
	Actions         []int      `json:"actions"`
	InventoryLevels []int      `json:"inventory_levels"`
	TerminalDay     string     `json:"terminal_day"`
}

// =============================================================================
// TRANSITIONS
// =============================================================================

type TransitionDTO struct {
	Next        StateDTO `json:"next"`
	Reward      string   `json:"reward"`
	Probability float64  `json:"probability"`
}

// KernelDTO is the exact transition distribution of one (state, action).
type KernelDTO struct {
	State          StateDTO        `json:"state"`
	Action         int             `json:"action"`
	Transitions    []TransitionDTO `json:"transitions"`
	Total          float64         `json:"total"`
	ExpectedReward float64         `json:"expected_reward"`
}

// =============================================================================
// EPISODES
// =============================================================================

// CreateEpisodeRequest starts an episode. Seed is random when omitted.
type CreateEpisodeRequest struct {
	Seed *uint64 `json:"seed,omitempty"`
}

// StepRequest is the body of POST /episodes/{id}/step.
type StepRequest struct {
	Action *int `json:"action"`
}

// StepResultDTO mirrors foodtruck.StepResult.
type StepResultDTO struct {
	State  StateDTO `json:"state"`
	Reward string   `json:"reward"`
	Done   bool     `json:"done"`
	Demand int      `json:"demand"`
	Sales  int      `json:"sales"`
}

// StepDTO is one journaled step.
type StepDTO struct {
	Index  int    `json:"index"`
	State  string `json:"state"`
	Action int64  `json:"action"`
	Next   string `json:"next"`
	Reward string `json:"reward"`
	Done   bool   `json:"done"`
	Demand string `json:"demand,omitempty"`
	Sales  string `json:"sales,omitempty"`
}

// EpisodeDTO is an episode header plus its journal.
type EpisodeDTO struct {
	ID            string    `json:"id"`
	EnvironmentID string    `json:"environment_id"`
	Seed          uint64    `json:"seed"`
	Policy        string    `json:"policy,omitempty"`
	Live          bool      `json:"live"`
	State         *StateDTO `json:"state,omitempty"`
	Done          bool      `json:"done"`
	Return        string    `json:"return"`
	Steps         []StepDTO `json:"steps"`

	// ExpectedReturn is the exact mean return of Policy, set on rollouts.
	ExpectedReturn *float64 `json:"expected_return,omitempty"`
}

// EpisodeSummaryDTO is one row of an environment's episode list.
type EpisodeSummaryDTO struct {
	ID        string `json:"id"`
	Seed      uint64 `json:"seed"`
	Policy    string `json:"policy,omitempty"`
	Live      bool   `json:"live"`
	Steps     int    `json:"steps"`
	Done      bool   `json:"done"`
	Return    string `json:"return"`
	CreatedAt string `json:"created_at,omitempty"`
}

// RolloutRequest runs a whole episode under a fixed policy.
//
//	policy: "constant" (orders Quantity every day) or
//	        "order-up-to" (restocks toward Quantity)
type RolloutRequest struct {
	Policy   string  `json:"policy"`
	Quantity int     `json:"quantity"`
	Seed     *uint64 `json:"seed,omitempty"`
}

// =============================================================================
// PRESETS
// =============================================================================

type PresetDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadPresetRequest struct {
	PresetID string `json:"preset_id"`
}

// =============================================================================
// ERRORS
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toStateDTO(env *foodtruck.Environment, s foodtruck.State) StateDTO {
	return StateDTO{Day: env.DayName(s.Day), Inventory: int(s.Inventory), Terminal: env.IsTerminal(s)}
}
