package classifyapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/packline/packline/internal/logger"
	"github.com/packline/packline/internal/observability"
	"github.com/packline/packline/internal/orders"
	"github.com/packline/packline/internal/ruleengine"
)

// handleClassify processes the POST /api/v1/classify request.
//
// Responsibilities:
// 1. Decodes the order attributes.
// 2. Resolves the order against both catalogs (packaging, then box).
// 3. Returns the per-category verdicts. A no-match is a 200 with
//    matched=false, never an error: fail-open is the contract here.
func (a *API) handleClassify(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req ClassifyRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("invalid json payload", slog.String("error", err.Error()))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{
			Code:    "ERR_INVALID_JSON",
			Message: "Invalid JSON payload: " + err.Error(),
		})
		return
	}

	order := req.normalize()

	resp := ClassifyResponse{
		Packaging: a.resolveCategory(r, order, ruleengine.RuleTypePackaging),
		Box:       a.resolveCategory(r, order, ruleengine.RuleTypeBox),
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

// resolveCategory runs one order through one catalog, recording latency and
// outcome metrics.
func (a *API) resolveCategory(r *http.Request, order ruleengine.Order, ruleType ruleengine.RuleType) CategoryResult {
	start := time.Now()

	catalog := a.loadCatalog(r.Context(), ruleType)
	classification := a.engine.Resolve(order, catalog, ruleType)

	observability.ClassifyDuration.
		WithLabelValues(string(ruleType)).
		Observe(time.Since(start).Seconds())

	if classification == nil {
		observability.ClassificationsTotal.
			WithLabelValues(string(ruleType), "no_match").
			Inc()
		return CategoryResult{Matched: false}
	}

	observability.ClassificationsTotal.
		WithLabelValues(string(ruleType), "matched").
		Inc()
	return CategoryResult{
		Matched:     true,
		ResultValue: classification.ResultValue,
		Color:       classification.Color,
	}
}

// handleImport processes the POST /api/v1/classify/import request.
//
// The body is a raw CSV export from the sales platform. Lines are grouped by
// order number and every line is classified against both catalogs, producing
// a ready-to-print pick list in one round trip.
func (a *API) handleImport(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	body := http.MaxBytesReader(w, r.Body, a.maxImportBytes)
	defer body.Close()

	records, err := orders.ReadRecords(body, orders.DefaultMapping())
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			render.Status(r, http.StatusRequestEntityTooLarge)
			render.JSON(w, r, ErrorResponse{
				Code:    "ERR_IMPORT_TOO_LARGE",
				Message: "CSV upload exceeds the configured size limit",
			})
			return
		}

		log.Warn("rejected csv import", slog.String("error", err.Error()))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{
			Code:    "ERR_INVALID_CSV",
			Message: "Could not parse CSV: " + err.Error(),
		})
		return
	}

	groups := orders.GroupByOrderNumber(records)

	resp := ImportResponse{
		Orders: len(groups),
		Lines:  len(records),
		Groups: make([]PickGroup, len(groups)),
	}
	for i, g := range groups {
		pg := PickGroup{
			OrderNumber: g.OrderNumber,
			Lines:       make([]PickLine, len(g.Records)),
		}
		for j, rec := range g.Records {
			pg.Lines[j] = PickLine{
				Title:     rec.Title,
				Order:     rec.Order,
				Packaging: a.resolveCategory(r, rec.Order, ruleengine.RuleTypePackaging),
				Box:       a.resolveCategory(r, rec.Order, ruleengine.RuleTypeBox),
			}
		}
		resp.Groups[i] = pg
	}

	log.Info("csv import classified",
		slog.Int("lines", resp.Lines),
		slog.Int("orders", resp.Orders))
	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}
