/*
handlers.go - HTTP API handlers for the food-truck MDP engine

PURPOSE:
  Exposes the environment to out-of-process solvers. Handles HTTP
  request/response and JSON serialization, and delegates to the foodtruck
  package for everything that touches the transition law.

ENDPOINTS:
  Environments:
    GET    /api/environments                    List stored environments
    POST   /api/environments                    Create from JSON definition
    GET    /api/environments/{id}               Environment details
    GET    /api/environments/{id}/spaces        State and action spaces
    GET    /api/environments/{id}/transitions   Exact kernel (?day=&inventory=&action=)
    GET    /api/environments/{id}/transitions/chart  Exact vs sampled (HTML)

  Episodes:
    GET    /api/environments/{id}/episodes      Episodes of an environment
    POST   /api/environments/{id}/episodes      Reset: start a live episode
    POST   /api/environments/{id}/rollouts      Run a fixed policy to the end
    GET    /api/episodes/{id}                   Header + journal
    POST   /api/episodes/{id}/step              Step a live episode

  Presets:
    GET    /api/presets                         List presets
    POST   /api/presets/load                    Store a preset environment

ARCHITECTURE:
  Handler holds all dependencies:
  - Store: SQLite persistence
  - Ledger: step journal on top of Store
  - Factory: JSON to environment conversion
  - Cached environments and live episode cursors

  Every live episode owns its own cursor and mutex, so concurrent
  episodes never share simulation state.

ERROR HANDLING:
  - 400: InvalidState, InvalidAction, malformed input
  - 404: Unknown environment or episode
  - 409: Step on a finished/expired episode, duplicate journal entry
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - presets.go: Preset loaders
  - reaper.go: Idle episode eviction
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/foodtruck-engine/factory"
	"github.com/warp/foodtruck-engine/foodtruck"
	"github.com/warp/foodtruck-engine/generic"
	"github.com/warp/foodtruck-engine/report"
	"github.com/warp/foodtruck-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Ledger  generic.Ledger
	Factory *factory.EnvironmentFactory

	mu       sync.RWMutex
	envs     map[generic.EnvironmentID]*foodtruck.Environment
	episodes map[generic.EpisodeID]*liveEpisode

	seq atomic.Uint64
	now func() time.Time
}

// liveEpisode is an episode whose cursor is still in memory.
type liveEpisode struct {
	mu       sync.Mutex
	envID    generic.EnvironmentID
	seed     uint64
	recorder *foodtruck.Recorder
	lastUsed time.Time
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:    store,
		Ledger:   generic.NewLedger(store),
		Factory:  factory.NewEnvironmentFactory(),
		envs:     make(map[generic.EnvironmentID]*foodtruck.Environment),
		episodes: make(map[generic.EpisodeID]*liveEpisode),
		now:      time.Now,
	}
}

// LoadEnvironments warms the environment cache from the database.
func (h *Handler) LoadEnvironments(ctx context.Context) error {
	records, err := h.Store.ListEnvironments(ctx)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range records {
		_, env, err := h.Factory.ParseEnvironment(r.ConfigJSON)
		if err != nil {
			continue // Skip invalid definitions
		}
		h.envs[generic.EnvironmentID(r.ID)] = env
	}
	return nil
}

// environment returns a cached environment, loading it from the store on a miss.
func (h *Handler) environment(ctx context.Context, id generic.EnvironmentID) (*foodtruck.Environment, error) {
	h.mu.RLock()
	env, ok := h.envs[id]
	h.mu.RUnlock()
	if ok {
		return env, nil
	}

	rec, err := h.Store.GetEnvironment(ctx, string(id))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", generic.ErrEnvironmentNotFound, id)
	}
	_, env, err = h.Factory.ParseEnvironment(rec.ConfigJSON)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.envs[id] = env
	h.mu.Unlock()
	return env, nil
}

// saveDefinition validates and stores a definition, replacing any cached copy.
func (h *Handler) saveDefinition(ctx context.Context, def factory.Definition) (*foodtruck.Environment, error) {
	env, err := foodtruck.New(def.Config)
	if err != nil {
		return nil, err
	}
	configJSON, err := h.Factory.Marshal(def)
	if err != nil {
		return nil, err
	}
	if err := h.Store.SaveEnvironment(ctx, sqlite.EnvironmentRecord{
		ID:         string(def.ID),
		Name:       def.Name,
		ConfigJSON: configJSON,
	}); err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.envs[def.ID] = env
	h.mu.Unlock()
	return env, nil
}

func (h *Handler) newEpisodeID() generic.EpisodeID {
	return generic.EpisodeID(fmt.Sprintf("ep-%d-%d", h.now().UnixNano(), h.seq.Add(1)))
}

func (h *Handler) seedFrom(seed *uint64) uint64 {
	if seed != nil {
		return *seed
	}
	return uint64(h.now().UnixNano())
}

// =============================================================================
// ENVIRONMENT HANDLERS
// =============================================================================

// ListEnvironments returns all stored environments.
func (h *Handler) ListEnvironments(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListEnvironments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list environments", err)
		return
	}

	dtos := make([]EnvironmentDTO, 0, len(records))
	for _, rec := range records {
		env, err := h.environment(r.Context(), generic.EnvironmentID(rec.ID))
		if err != nil {
			continue
		}
		dtos = append(dtos, toEnvironmentDTO(rec, env))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEnvironment stores a JSON definition.
func (h *Handler) CreateEnvironment(w http.ResponseWriter, r *http.Request) {
	var ej factory.EnvironmentJSON
	if err := json.NewDecoder(r.Body).Decode(&ej); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	def, err := h.Factory.FromJSON(ej)
	if err != nil {
		writeDomainError(w, "Invalid environment", err)
		return
	}
	if _, err := h.saveDefinition(r.Context(), def); err != nil {
		writeDomainError(w, "Failed to create environment", err)
		return
	}

	h.writeEnvironment(w, r, def.ID, http.StatusCreated)
}

// GetEnvironment returns a single environment.
func (h *Handler) GetEnvironment(w http.ResponseWriter, r *http.Request) {
	h.writeEnvironment(w, r, generic.EnvironmentID(chi.URLParam(r, "id")), http.StatusOK)
}

func (h *Handler) writeEnvironment(w http.ResponseWriter, r *http.Request, id generic.EnvironmentID, status int) {
	rec, err := h.Store.GetEnvironment(r.Context(), string(id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get environment", err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "Environment not found", nil)
		return
	}
	env, err := h.environment(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to load environment", err)
		return
	}
	writeJSON(w, status, toEnvironmentDTO(*rec, env))
}

// GetSpaces returns the declared state and action spaces.
func (h *Handler) GetSpaces(w http.ResponseWriter, r *http.Request) {
	env, err := h.environment(r.Context(), generic.EnvironmentID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to load environment", err)
		return
	}

	dto := SpacesDTO{TerminalDay: env.Calendar().Name(env.Calendar().Terminal())}
	for _, s := range env.StateSpace() {
		dto.States = append(dto.States, toStateDTO(env, s))
	}
	for _, a := range env.ActionSpace() {
		dto.Actions = append(dto.Actions, int(a))
	}
	for _, lvl := range env.InventoryLevels() {
		dto.InventoryLevels = append(dto.InventoryLevels, int(lvl))
	}
	writeJSON(w, http.StatusOK, dto)
}

// GetTransitions returns the exact kernel for ?day=&inventory=&action=.
func (h *Handler) GetTransitions(w http.ResponseWriter, r *http.Request) {
	env, err := h.environment(r.Context(), generic.EnvironmentID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to load environment", err)
		return
	}
	state, action, err := parseStateAction(env, r)
	if err != nil {
		writeDomainError(w, "Invalid query", err)
		return
	}

	k, err := env.EnumerateTransitions(state, action)
	if err != nil {
		writeDomainError(w, "Cannot enumerate transitions", err)
		return
	}

	dto := KernelDTO{
		State:          toStateDTO(env, state),
		Action:         int(action),
		Total:          k.Total(),
		ExpectedReward: k.ExpectedReward(),
	}
	for _, t := range k.Transitions() {
		dto.Transitions = append(dto.Transitions, TransitionDTO{
			Next:        toStateDTO(env, t.Next),
			Reward:      t.Reward.String(),
			Probability: float64(t.Probability),
		})
	}
	writeJSON(w, http.StatusOK, dto)
}

// GetTransitionChart renders the kernel next to sampled frequencies as HTML.
// Query: day, inventory, action, samples (default 10000), seed (default 1).
func (h *Handler) GetTransitionChart(w http.ResponseWriter, r *http.Request) {
	env, err := h.environment(r.Context(), generic.EnvironmentID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to load environment", err)
		return
	}
	state, action, err := parseStateAction(env, r)
	if err != nil {
		writeDomainError(w, "Invalid query", err)
		return
	}
	samples, err := queryInt(r, "samples", 10000)
	if err != nil || samples <= 0 || samples > 1_000_000 {
		writeError(w, http.StatusBadRequest, "samples must be between 1 and 1000000", err)
		return
	}
	seed, err := queryInt(r, "seed", 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid seed", err)
		return
	}

	rep, err := env.CheckConsistency(state, action, samples, generic.NewSampler(uint64(seed)))
	if err != nil {
		writeDomainError(w, "Cannot sample transitions", err)
		return
	}

	title := fmt.Sprintf("%s, order %d", env.StateKey(state), action)
	table := report.FromKernel(title, rep.Kernel, rep.Tally, env.StateKey)
	table.Sort()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.Chart(w, table); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render chart", err)
	}
}

// =============================================================================
// EPISODE HANDLERS
// =============================================================================

// CreateEpisode resets a fresh cursor and returns the initial state.
func (h *Handler) CreateEpisode(w http.ResponseWriter, r *http.Request) {
	envID := generic.EnvironmentID(chi.URLParam(r, "id"))
	env, err := h.environment(r.Context(), envID)
	if err != nil {
		writeDomainError(w, "Failed to load environment", err)
		return
	}

	var req CreateEpisodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id := h.newEpisodeID()
	seed := h.seedFrom(req.Seed)
	if err := h.Store.SaveEpisode(r.Context(), sqlite.EpisodeRecord{
		ID:            string(id),
		EnvironmentID: string(envID),
		Seed:          seed,
	}); err != nil {
		writeDomainError(w, "Failed to create episode", err)
		return
	}

	recorder, state := foodtruck.NewRecorder(id, env.NewCursor(generic.NewSampler(seed)), h.Ledger)
	h.mu.Lock()
	h.episodes[id] = &liveEpisode{envID: envID, seed: seed, recorder: recorder, lastUsed: h.now()}
	h.mu.Unlock()

	stateDTO := toStateDTO(env, state)
	writeJSON(w, http.StatusCreated, EpisodeDTO{
		ID:            string(id),
		EnvironmentID: string(envID),
		Seed:          seed,
		Live:          true,
		State:         &stateDTO,
		Return:        "0",
		Steps:         []StepDTO{},
	})
}

// StepEpisode takes one sampled step in a live episode.
func (h *Handler) StepEpisode(w http.ResponseWriter, r *http.Request) {
	id := generic.EpisodeID(chi.URLParam(r, "id"))

	var req StepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Action == nil {
		writeError(w, http.StatusBadRequest, "action is required", nil)
		return
	}

	h.mu.RLock()
	live, ok := h.episodes[id]
	h.mu.RUnlock()
	if !ok {
		rec, err := h.Store.GetEpisode(r.Context(), string(id))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to get episode", err)
			return
		}
		if rec == nil {
			writeError(w, http.StatusNotFound, "Episode not found", nil)
			return
		}
		writeError(w, http.StatusConflict, "Episode is no longer live", nil)
		return
	}

	live.mu.Lock()
	defer live.mu.Unlock()
	live.lastUsed = h.now()

	cursor := live.recorder.Cursor
	if cursor.Done() {
		writeError(w, http.StatusConflict, "Episode already finished", nil)
		return
	}

	res, err := live.recorder.Step(r.Context(), foodtruck.Action(*req.Action))
	if err != nil {
		writeDomainError(w, "Step failed", err)
		return
	}

	env := cursor.Environment()
	writeJSON(w, http.StatusOK, StepResultDTO{
		State:  toStateDTO(env, res.State),
		Reward: res.Reward.String(),
		Done:   res.Done,
		Demand: int(res.Info.Demand),
		Sales:  int(res.Info.Sales),
	})
}

// ListEpisodes returns the episodes of an environment, oldest first, each
// with its replayed return.
func (h *Handler) ListEpisodes(w http.ResponseWriter, r *http.Request) {
	envID := chi.URLParam(r, "id")
	ctx := r.Context()

	if _, err := h.environment(ctx, generic.EnvironmentID(envID)); err != nil {
		writeDomainError(w, "Failed to load environment", err)
		return
	}
	records, err := h.Store.ListEpisodes(ctx, envID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list episodes", err)
		return
	}

	h.mu.RLock()
	live := make(map[generic.EpisodeID]bool, len(h.episodes))
	for id := range h.episodes {
		live[id] = true
	}
	h.mu.RUnlock()

	dtos := make([]EpisodeSummaryDTO, 0, len(records))
	for _, rec := range records {
		summary, err := h.Ledger.Summary(ctx, generic.EpisodeID(rec.ID))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to summarize episode", err)
			return
		}
		dto := EpisodeSummaryDTO{
			ID:     rec.ID,
			Seed:   rec.Seed,
			Policy: rec.Policy,
			Live:   live[generic.EpisodeID(rec.ID)],
			Steps:  summary.Steps,
			Done:   summary.Done,
			Return: summary.Return.String(),
		}
		if !rec.CreatedAt.IsZero() {
			dto.CreatedAt = rec.CreatedAt.Format(time.RFC3339)
		}
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEpisode returns an episode header with its journal.
func (h *Handler) GetEpisode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	rec, err := h.Store.GetEpisode(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get episode", err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "Episode not found", nil)
		return
	}

	steps, err := h.Ledger.Steps(ctx, generic.EpisodeID(id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load steps", err)
		return
	}
	summary, err := h.Ledger.Summary(ctx, generic.EpisodeID(id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to summarize episode", err)
		return
	}

	dto := EpisodeDTO{
		ID:            rec.ID,
		EnvironmentID: rec.EnvironmentID,
		Seed:          rec.Seed,
		Policy:        rec.Policy,
		Done:          summary.Done,
		Return:        summary.Return.String(),
		Steps:         toStepDTOs(steps),
	}

	h.mu.RLock()
	live, ok := h.episodes[generic.EpisodeID(id)]
	h.mu.RUnlock()
	if ok {
		live.mu.Lock()
		if state, ready := live.recorder.Cursor.State(); ready {
			s := toStateDTO(live.recorder.Cursor.Environment(), state)
			dto.State = &s
		}
		live.mu.Unlock()
		dto.Live = true
	}

	writeJSON(w, http.StatusOK, dto)
}

// Rollout runs a fixed policy from reset to the terminal period and journals it.
func (h *Handler) Rollout(w http.ResponseWriter, r *http.Request) {
	envID := generic.EnvironmentID(chi.URLParam(r, "id"))
	ctx := r.Context()

	env, err := h.environment(ctx, envID)
	if err != nil {
		writeDomainError(w, "Failed to load environment", err)
		return
	}

	var req RolloutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var policy foodtruck.Policy
	switch req.Policy {
	case "", "constant":
		policy = foodtruck.ConstantPolicy{Quantity: foodtruck.Action(req.Quantity)}
	case "order-up-to":
		policy = foodtruck.NewOrderUpTo(env, foodtruck.Units(req.Quantity))
	default:
		writeError(w, http.StatusBadRequest, "Unknown policy (use constant or order-up-to)", nil)
		return
	}

	id := h.newEpisodeID()
	seed := h.seedFrom(req.Seed)
	cursor := env.NewCursor(generic.NewSampler(seed))

	ep, err := foodtruck.Rollout(ctx, cursor, policy)
	if err != nil {
		writeDomainError(w, "Rollout failed", err)
		return
	}

	if err := h.Store.SaveEpisode(ctx, sqlite.EpisodeRecord{
		ID:            string(id),
		EnvironmentID: string(envID),
		Seed:          seed,
		Policy:        policy.Name(),
	}); err != nil {
		writeDomainError(w, "Failed to save episode", err)
		return
	}
	recorder := &foodtruck.Recorder{ID: id, Cursor: cursor, Ledger: h.Ledger}
	if err := recorder.RecordRollout(ctx, ep); err != nil {
		writeDomainError(w, "Failed to journal rollout", err)
		return
	}

	steps, err := h.Ledger.Steps(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load steps", err)
		return
	}
	proj, err := env.Project(policy)
	if err != nil {
		writeDomainError(w, "Failed to project policy", err)
		return
	}
	final := toStateDTO(env, ep.Steps[len(ep.Steps)-1].Result.State)
	writeJSON(w, http.StatusCreated, EpisodeDTO{
		ID:             string(id),
		EnvironmentID:  string(envID),
		Seed:           seed,
		Policy:         policy.Name(),
		State:          &final,
		Done:           true,
		Return:         ep.Return.String(),
		ExpectedReturn: &proj.ExpectedReturn,
		Steps:          toStepDTOs(steps),
	})
}

// EvictIdle drops live episodes not touched since before. Their journals stay.
func (h *Handler) EvictIdle(before time.Time) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	evicted := 0
	for id, live := range h.episodes {
		live.mu.Lock()
		idle := live.lastUsed.Before(before)
		live.mu.Unlock()
		if idle {
			delete(h.episodes, id)
			evicted++
		}
	}
	return evicted
}

// LiveEpisodes counts episodes whose cursors are in memory.
func (h *Handler) LiveEpisodes() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.episodes)
}

// =============================================================================
// HELPERS
// =============================================================================

func parseStateAction(env *foodtruck.Environment, r *http.Request) (foodtruck.State, foodtruck.Action, error) {
	q := r.URL.Query()
	day, err := env.ParseDay(q.Get("day"))
	if err != nil {
		return foodtruck.State{}, 0, err
	}
	inventory, err := strconv.Atoi(q.Get("inventory"))
	if err != nil {
		return foodtruck.State{}, 0, fmt.Errorf("%w: inventory must be an integer", generic.ErrInvalidState)
	}
	action, err := strconv.Atoi(q.Get("action"))
	if err != nil {
		return foodtruck.State{}, 0, fmt.Errorf("%w: action must be an integer", generic.ErrInvalidAction)
	}
	return foodtruck.State{Day: day, Inventory: foodtruck.Units(inventory)}, foodtruck.Action(action), nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func toEnvironmentDTO(rec sqlite.EnvironmentRecord, env *foodtruck.Environment) EnvironmentDTO {
	dto := EnvironmentDTO{
		ID:         rec.ID,
		Name:       rec.Name,
		Version:    rec.Version,
		Days:       env.Calendar().Names(),
		UnitCost:   env.UnitCost().String(),
		NetRevenue: env.NetRevenue().String(),
		Capacity:   int(env.Capacity()),
		NumStates:  len(env.StateSpace()),
	}
	if !rec.CreatedAt.IsZero() {
		dto.CreatedAt = rec.CreatedAt.Format(time.RFC3339)
	}
	demand := env.Demand()
	for i, o := range demand.Outcomes {
		dto.Demand = append(dto.Demand, DemandDTO{Units: int(o), Probability: float64(demand.Weights[i])})
	}
	for _, a := range env.ActionSpace() {
		dto.Actions = append(dto.Actions, int(a))
	}
	return dto
}

func toStepDTOs(recs []generic.StepRecord) []StepDTO {
	out := make([]StepDTO, 0, len(recs))
	for _, rec := range recs {
		out = append(out, StepDTO{
			Index:  rec.Index,
			State:  rec.State,
			Action: rec.Action,
			Next:   rec.Next,
			Reward: rec.Reward.String(),
			Done:   rec.Done,
			Demand: rec.Metadata["demand"],
			Sales:  rec.Metadata["sales"],
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError picks the status from the error's category.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case generic.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
