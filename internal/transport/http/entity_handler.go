package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "brewsignal/internal/errors"
	"brewsignal/internal/exporter"
	"brewsignal/internal/middleware"
	"brewsignal/internal/services"
	"brewsignal/pkg/contracts/domain"
)

// Report formats for POST /api/entities/rank
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// EvaluateRequest is the body of POST /api/entities/evaluate
type EvaluateRequest struct {
	Bundle      domain.EntityBundle `json:"bundle"`
	Overrides   map[string]float64  `json:"overrides,omitempty" validate:"dive,min=0,max=1"`
	IncludePlan bool                `json:"include_plan"`
}

// RankRequest is the body of POST /api/entities/rank
type RankRequest struct {
	Bundles []domain.EntityBundle `json:"bundles" validate:"dive"`
}

// RankResponse is the JSON ranking
type RankResponse struct {
	Count   int                `json:"count"`
	Entries []domain.RankEntry `json:"entries"`
}

// LaunchPlanRequest is the body of POST /api/entities/launch-plan
type LaunchPlanRequest struct {
	Bundle    domain.EntityBundle `json:"bundle"`
	Overrides map[string]float64  `json:"overrides,omitempty" validate:"dive,min=0,max=1"`
}

// EntityHandler serves the evaluation endpoints
type EntityHandler struct {
	service      EvaluationService
	validator    *middleware.Validator
	errorHandler *apierrors.ErrorHandler
	timeFormat   string
	logger       *slog.Logger
}

// NewEntityHandler creates the entity handler
func NewEntityHandler(service EvaluationService, validator *middleware.Validator, errorHandler *apierrors.ErrorHandler, timeFormat string, logger *slog.Logger) *EntityHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if timeFormat == "" {
		timeFormat = time.DateOnly
	}
	return &EntityHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		timeFormat:   timeFormat,
		logger:       logger.With(slog.String("component", "entity_handler")),
	}
}

// Routes returns the entity routes
func (h *EntityHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.NotFound(h.errorHandler.NotFound)
	r.MethodNotAllowed(h.errorHandler.MethodNotAllowed)
	r.Use(middleware.ContentTypeJSON(h.errorHandler))

	r.Post("/evaluate", h.Evaluate)
	r.Post("/rank", h.Rank)
	r.Post("/launch-plan", h.LaunchPlan)
	return r
}

// Evaluate handles POST /api/entities/evaluate
func (h *EntityHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if !h.validator.DecodeJSON(w, r, &req) {
		return
	}

	eval, err := h.service.Evaluate(r.Context(), req.Bundle, services.EvaluateOptions{
		Overrides:   req.Overrides,
		IncludePlan: req.IncludePlan,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, eval)
}

// Rank handles POST /api/entities/rank
func (h *EntityHandler) Rank(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = FormatJSON
	}
	if format != FormatJSON && format != FormatCSV && format != FormatXLSX {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest,
			apierrors.CodeInvalidRequest,
			"format must be one of json, csv, xlsx",
			map[string]interface{}{"format": format},
		))
		return
	}

	var req RankRequest
	if !h.validator.DecodeJSON(w, r, &req) {
		return
	}

	entries, err := h.service.Rank(r.Context(), req.Bundles)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	switch format {
	case FormatCSV:
		h.writeCSV(w, r, entries)
	case FormatXLSX:
		h.writeXLSX(w, r, entries)
	default:
		render.JSON(w, r, RankResponse{Count: len(entries), Entries: entries})
	}
}

// LaunchPlan handles POST /api/entities/launch-plan
func (h *EntityHandler) LaunchPlan(w http.ResponseWriter, r *http.Request) {
	var req LaunchPlanRequest
	if !h.validator.DecodeJSON(w, r, &req) {
		return
	}

	plan, err := h.service.LaunchPlan(r.Context(), req.Bundle, req.Overrides)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, plan)
}

func (h *EntityHandler) writeCSV(w http.ResponseWriter, r *http.Request, entries []domain.RankEntry) {
	table := exporter.RankingTable(entries, h.timeFormat)
	w.Header().Set("Content-Type", contentTypeCSV)
	w.Header().Set("Content-Disposition", `attachment; filename="ranking.csv"`)
	if err := exporter.EncodeCSV(w, exporter.WriteOptions{Headers: table.Headers, Records: table.Records}); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to stream ranking CSV",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())))
	}
}

func (h *EntityHandler) writeXLSX(w http.ResponseWriter, r *http.Request, entries []domain.RankEntry) {
	sheets := []exporter.Sheet{{Name: "Ranking", Table: exporter.RankingTable(entries, h.timeFormat)}}
	w.Header().Set("Content-Type", contentTypeXLSX)
	w.Header().Set("Content-Disposition", `attachment; filename="ranking.xlsx"`)
	if err := exporter.EncodeXLSX(w, sheets); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to stream ranking workbook",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())))
	}
}
