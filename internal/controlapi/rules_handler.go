package controlapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/packline/packline/internal/logger"
	"github.com/packline/packline/internal/ruleengine"
	"github.com/packline/packline/internal/store"
)

// handleCreateRule processes the POST /api/v1/rules request.
//
// Responsibilities:
// 1. Decodes the JSON payload into the CreateRuleRequest DTO.
// 2. Sanitizes the input and converts it to the domain model.
// 3. Validates the rule with the engine's own validator, so a rule that
//    would be skipped at resolution time can never be saved.
// 4. Persists the rule using the Repository layer.
// 5. Handles specific persistence errors (e.g., conflicts).
// 6. Returns the created resource with a 201 Created status.
func (a *API) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	// 1. Decode Request
	var req CreateRuleRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("invalid json payload", slog.String("error", err.Error()))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{
			Code:    "ERR_INVALID_JSON",
			Message: "Invalid JSON payload: " + err.Error(),
		})
		return
	}

	// 2. Sanitize & Map to Domain Model
	req.Sanitize()
	rule := req.ToRule()

	// 3. Validate
	// The engine's validator returns every problem at once, so the admin UI
	// can show the full list instead of one error per round trip.
	if problems := ruleengine.ValidateRule(rule); len(problems) > 0 {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, ErrorResponse{
			Code:     "ERR_VALIDATION",
			Message:  "Rule failed validation",
			Problems: problems,
		})
		return
	}

	// 4. Call Repository (Persistence)
	if err := a.rules.CreateRule(r.Context(), &rule); err != nil {
		// Business Error: Conflict (Duplicate ID)
		if errors.Is(err, store.ErrDuplicateRule) {
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, ErrorResponse{
				Code:    "ERR_CONFLICT",
				Message: "A rule with this id already exists",
			})
			return
		}

		// System Error: Internal Server Error
		log.Error("failed to create rule in db", "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{
			Code:    "ERR_INTERNAL",
			Message: "Failed to create rule in database",
		})
		return
	}

	// 5. Async Notification
	a.notifyCacheAsync(log, rule.RuleType)

	// 6. Return Success
	log.Info("rule created successfully",
		slog.String("rule_id", rule.ID),
		slog.String("rule_type", string(rule.RuleType)))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, rule)
}

// handleListRules processes the GET /api/v1/rules request.
// The optional ?type= query parameter narrows the result to one catalog;
// without it both catalogs are returned in stable catalog order.
func (a *API) handleListRules(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var (
		rules []ruleengine.Rule
		err   error
	)

	if t := r.URL.Query().Get("type"); t != "" {
		ruleType := ruleengine.RuleType(t)
		if !ruleType.Known() {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{
				Code:    "ERR_INVALID_QUERY_PARAM",
				Message: "Parameter 'type' must be 'packaging' or 'box'",
			})
			return
		}
		rules, err = a.rules.ListCatalog(r.Context(), ruleType)
	} else {
		rules, err = a.rules.ListAllRules(r.Context())
	}

	if err != nil {
		log.Error("failed to list rules from db", slog.String("error", err.Error()))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{
			Code:    "ERR_INTERNAL",
			Message: "Failed to list rules",
		})
		return
	}

	// An empty catalog serializes as [] rather than null.
	if rules == nil {
		rules = []ruleengine.Rule{}
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, rules)
}

// handleGetRule processes the GET /api/v1/rules/{id} request.
func (a *API) handleGetRule(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	id := chi.URLParam(r, "id")

	rule, err := a.rules.GetRule(r.Context(), id)
	if err != nil {
		a.renderLookupError(w, r, log, id, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, rule)
}

// handleUpdateRule processes the PATCH /api/v1/rules/{id} request.
//
// The update is read-modify-write: we load the current rule, overlay only
// the fields present in the payload, and re-validate the merged result.
// This keeps partial updates from ever producing a rule the engine would
// refuse to evaluate.
func (a *API) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	id := chi.URLParam(r, "id")

	// 1. Decode Request
	var req UpdateRuleRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("invalid json payload", slog.String("error", err.Error()))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{
			Code:    "ERR_INVALID_JSON",
			Message: "Invalid JSON payload: " + err.Error(),
		})
		return
	}

	// 2. Load current state
	rule, err := a.rules.GetRule(r.Context(), id)
	if err != nil {
		a.renderLookupError(w, r, log, id, err)
		return
	}

	// 3. Overlay & Validate
	req.Apply(rule)

	if problems := ruleengine.ValidateRule(*rule); len(problems) > 0 {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, ErrorResponse{
			Code:     "ERR_VALIDATION",
			Message:  "Rule failed validation",
			Problems: problems,
		})
		return
	}

	// 4. Persist
	if err := a.rules.UpdateRule(r.Context(), rule); err != nil {
		a.renderLookupError(w, r, log, id, err)
		return
	}

	// 5. Async Notification
	a.notifyCacheAsync(log, rule.RuleType)

	log.Info("rule updated successfully", slog.String("rule_id", rule.ID))
	render.Status(r, http.StatusOK)
	render.JSON(w, r, rule)
}

// handleDeleteRule processes the DELETE /api/v1/rules/{id} request.
func (a *API) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	id := chi.URLParam(r, "id")

	// Fetch first so we know which catalog to invalidate afterwards.
	rule, err := a.rules.GetRule(r.Context(), id)
	if err != nil {
		a.renderLookupError(w, r, log, id, err)
		return
	}

	if err := a.rules.DeleteRule(r.Context(), id); err != nil {
		a.renderLookupError(w, r, log, id, err)
		return
	}

	a.notifyCacheAsync(log, rule.RuleType)

	log.Info("rule deleted successfully", slog.String("rule_id", id))
	render.NoContent(w, r)
}

// handleToggleRule processes the POST /api/v1/rules/{id}/toggle request.
// Toggling is its own endpoint (rather than a PATCH of enabled) because it
// is the single most common admin action and must never require the client
// to know the current state.
func (a *API) handleToggleRule(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	id := chi.URLParam(r, "id")

	rule, err := a.rules.ToggleEnabled(r.Context(), id)
	if err != nil {
		a.renderLookupError(w, r, log, id, err)
		return
	}

	a.notifyCacheAsync(log, rule.RuleType)

	log.Info("rule toggled",
		slog.String("rule_id", rule.ID),
		slog.Bool("enabled", rule.Enabled))
	render.Status(r, http.StatusOK)
	render.JSON(w, r, rule)
}

// handleMoveRule processes the POST /api/v1/rules/{id}/move request.
// "up" lowers the priority number so the rule is evaluated earlier;
// "down" raises it. Priority collisions are fine: the engine breaks ties
// by catalog order.
func (a *API) handleMoveRule(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req MoveRuleRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("invalid json payload", slog.String("error", err.Error()))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{
			Code:    "ERR_INVALID_JSON",
			Message: "Invalid JSON payload: " + err.Error(),
		})
		return
	}

	var delta int
	switch req.Direction {
	case "up":
		delta = -1
	case "down":
		delta = 1
	default:
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{
			Code:    "ERR_INVALID_INPUT",
			Message: "Direction must be 'up' or 'down'",
		})
		return
	}

	rule, err := a.rules.MoveRule(r.Context(), id, delta)
	if err != nil {
		a.renderLookupError(w, r, log, id, err)
		return
	}

	a.notifyCacheAsync(log, rule.RuleType)

	log.Info("rule moved",
		slog.String("rule_id", rule.ID),
		slog.String("direction", req.Direction),
		slog.Int("priority", rule.Priority))
	render.Status(r, http.StatusOK)
	render.JSON(w, r, rule)
}

// handleResetCatalog processes the POST /api/v1/rules/reset request.
// It transactionally replaces the named catalog with the built-in factory
// defaults, then returns the restored catalog.
func (a *API) handleResetCatalog(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req ResetCatalogRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("invalid json payload", slog.String("error", err.Error()))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{
			Code:    "ERR_INVALID_JSON",
			Message: "Invalid JSON payload: " + err.Error(),
		})
		return
	}

	if !req.RuleType.Known() {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{
			Code:    "ERR_INVALID_INPUT",
			Message: "Field 'rule_type' must be 'packaging' or 'box'",
		})
		return
	}

	defaults := ruleengine.DefaultCatalog(req.RuleType)
	if err := a.rules.ResetCatalog(r.Context(), req.RuleType, defaults); err != nil {
		log.Error("failed to reset catalog",
			slog.String("rule_type", string(req.RuleType)),
			slog.String("error", err.Error()))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{
			Code:    "ERR_INTERNAL",
			Message: "Failed to reset catalog",
		})
		return
	}

	a.notifyCacheAsync(log, req.RuleType)

	rules, err := a.rules.ListCatalog(r.Context(), req.RuleType)
	if err != nil {
		log.Error("failed to list catalog after reset", slog.String("error", err.Error()))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{
			Code:    "ERR_INTERNAL",
			Message: "Catalog was reset but could not be read back",
		})
		return
	}

	log.Info("catalog reset to defaults",
		slog.String("rule_type", string(req.RuleType)),
		slog.Int("rules", len(rules)))
	render.Status(r, http.StatusOK)
	render.JSON(w, r, rules)
}

// --- Private Helpers ---

// renderLookupError translates repository errors from single-rule operations
// into the appropriate HTTP response.
func (a *API) renderLookupError(w http.ResponseWriter, r *http.Request, log *slog.Logger, id string, err error) {
	if errors.Is(err, store.ErrRuleNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, ErrorResponse{
			Code:    "ERR_NOT_FOUND",
			Message: "Rule not found",
		})
		return
	}

	log.Error("rule operation failed",
		slog.String("rule_id", id),
		slog.String("error", err.Error()))
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, ErrorResponse{
		Code:    "ERR_INTERNAL",
		Message: "Rule operation failed",
	})
}

// notifyCacheAsync publishes a catalog invalidation asynchronously so the
// classify plane drops its local snapshot. Failing to publish only delays
// propagation until the next syncer cycle, so the request is never failed
// on account of it.
func (a *API) notifyCacheAsync(log *slog.Logger, ruleType ruleengine.RuleType) {
	go func(t ruleengine.RuleType) {
		// Create a context disconnected from the HTTP request.
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		const maxRetries = 3
		baseDelay := 100 * time.Millisecond

		for i := 0; i <= maxRetries; i++ {
			err := a.cache.PublishInvalidation(ctx, t)
			if err == nil {
				return
			}

			if i == maxRetries {
				log.Error("CRITICAL: failed to publish invalidation after retries",
					slog.String("rule_type", string(t)),
					slog.String("error", err.Error()))
				return
			}

			// Simple exponential backoff
			log.Warn("failed to publish invalidation, retrying...",
				slog.String("rule_type", string(t)),
				slog.Int("attempt", i+1),
				slog.String("error", err.Error()))

			time.Sleep(baseDelay * time.Duration(1<<i))
		}
	}(ruleType)
}
