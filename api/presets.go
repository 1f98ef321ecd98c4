/*
presets.go - Ready-made environments for demos and solver smoke tests

PURPOSE:
  Stores one of the preset definitions from the foodtruck package so a
  client can start sampling without writing JSON first.

AVAILABLE PRESETS:
  default:          Demand 100..400, cost 4, revenue 7, Mon..Weekend
  high-margin:      Same demand, cost 3, revenue 9.5
  volatile-demand:  Zero-demand days and a 500 unit tail
  short-week:       Mon, Tue, Wed, Weekend

USAGE VIA API:
  POST /api/presets/load
  {"preset_id": "default"}

NOTE:
  Loading a preset resets the database and drops all live episodes.

SEE ALSO:
  - foodtruck/presets.go: JSON definitions
  - handlers.go: Environment handlers
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/warp/foodtruck-engine/foodtruck"
	"github.com/warp/foodtruck-engine/generic"
)

// =============================================================================
// PRESET DEFINITIONS
// =============================================================================

var presets = []PresetDTO{
	{
		ID:          "default",
		Name:        "Food Truck",
		Description: "Demand 100/200/300/400 at 0.3/0.4/0.2/0.1, unit cost 4, net revenue 7",
	},
	{
		ID:          "high-margin",
		Name:        "High Margin",
		Description: "Default demand with unit cost 3 and net revenue 9.5",
	},
	{
		ID:          "volatile-demand",
		Name:        "Volatile Demand",
		Description: "Demand 0..500 with a 10% chance of a dead day",
	},
	{
		ID:          "short-week",
		Name:        "Short Week",
		Description: "Mon, Tue, Wed, then the terminal Weekend",
	},
}

var presetJSON = map[string]func(id, name string) string{
	"default":         foodtruck.DefaultJSON,
	"high-margin":     foodtruck.HighMarginJSON,
	"volatile-demand": foodtruck.VolatileDemandJSON,
	"short-week":      foodtruck.ShortWeekJSON,
}

// ListPresets returns available presets.
func (h *Handler) ListPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, presets)
}

// LoadPreset resets the database and stores the chosen preset under its own id.
func (h *Handler) LoadPreset(w http.ResponseWriter, r *http.Request) {
	var req LoadPresetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if _, ok := presetJSON[req.PresetID]; !ok {
		writeError(w, http.StatusBadRequest, "Unknown preset", nil)
		return
	}

	ctx := r.Context()
	if err := h.resetAll(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	if err := h.loadPreset(ctx, req.PresetID); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load preset: %v", err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "preset": req.PresetID})
}

// resetAll clears the database and every in-memory cache.
func (h *Handler) resetAll(ctx context.Context) error {
	if err := h.Store.Reset(ctx); err != nil {
		return err
	}
	h.mu.Lock()
	h.envs = make(map[generic.EnvironmentID]*foodtruck.Environment)
	h.episodes = make(map[generic.EpisodeID]*liveEpisode)
	h.mu.Unlock()
	return nil
}

func (h *Handler) loadPreset(ctx context.Context, id string) error {
	build, ok := presetJSON[id]
	if !ok {
		return fmt.Errorf("unknown preset %q", id)
	}
	name := id
	for _, p := range presets {
		if p.ID == id {
			name = p.Name
		}
	}

	def, err := h.Factory.ParseDefinition(build(id, name))
	if err != nil {
		return err
	}
	_, err = h.saveDefinition(ctx, def)
	return err
}

// SeedPreset stores a preset without resetting anything when no environment
// exists yet. It is a no-op on a populated database.
func (h *Handler) SeedPreset(ctx context.Context, id string) error {
	existing, err := h.Store.ListEnvironments(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	return h.loadPreset(ctx, id)
}
