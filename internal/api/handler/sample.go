package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/skycollect/skycollect/internal/api/models"
	"github.com/skycollect/skycollect/internal/api/response"
	"github.com/skycollect/skycollect/internal/indicator"
	"github.com/skycollect/skycollect/internal/sample"
	"github.com/skycollect/skycollect/internal/strategy"
	"github.com/skycollect/skycollect/internal/timeutil"
)

// SampleHandler handles collected data endpoints.
type SampleHandler struct {
	strategies *strategy.Service
	samples    sample.Repository
}

// NewSampleHandler creates a new SampleHandler.
func NewSampleHandler(strategies *strategy.Service, samples sample.Repository) *SampleHandler {
	return &SampleHandler{strategies: strategies, samples: samples}
}

// GetStrategyData handles GET /v1/strategies/{strategyId}/data - collected
// samples grouped by collect time, newest first. Supports optional
// indicators, from and to query filters.
func (h *SampleHandler) GetStrategyData(w http.ResponseWriter, r *http.Request) {
	strategyID := chi.URLParam(r, "strategyId")
	if strategyID == "" {
		response.BadRequest(w, r, "strategyId is required", nil)
		return
	}

	if _, err := h.strategies.Get(r.Context(), strategyID); err != nil {
		if errors.Is(err, strategy.ErrStrategyNotFound) {
			response.NotFound(w, r, "strategy not found")
			return
		}
		response.InternalError(w, r, "failed to load strategy")
		return
	}

	var indicators []string
	if raw := r.URL.Query().Get("indicators"); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if _, ok := indicator.Resolve(name); !ok {
				response.BadRequest(w, r, "unknown indicator "+name, nil)
				return
			}
			indicators = append(indicators, name)
		}
	}

	var from, to time.Time
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, ok := timeutil.ParseFlexible(raw)
		if !ok {
			response.BadRequest(w, r, "from is not a recognized timestamp", nil)
			return
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, ok := timeutil.ParseFlexible(raw)
		if !ok {
			response.BadRequest(w, r, "to is not a recognized timestamp", nil)
			return
		}
		to = parsed
	}

	samples, err := h.samples.QueryByStrategyIndicatorRange(r.Context(), strategyID, indicators, from, to)
	if err != nil {
		response.InternalError(w, r, "failed to query samples")
		return
	}

	response.JSON(w, r, http.StatusOK, toStrategyData(strategyID, sample.GroupRows(samples)))
}

// ListIndicators handles GET /v1/indicators - the catalog of collectable
// indicators.
func (h *SampleHandler) ListIndicators(w http.ResponseWriter, r *http.Request) {
	descriptors := indicator.All()
	out := models.IndicatorList{
		Items: make([]models.Indicator, 0, len(descriptors)),
	}
	for _, desc := range descriptors {
		out.Items = append(out.Items, models.Indicator{
			Name:        desc.Name,
			Description: desc.Description,
			API:         desc.API.String(),
			Unit:        desc.Unit,
		})
	}
	response.JSON(w, r, http.StatusOK, out)
}

func toStrategyData(strategyID string, rows []sample.Row) models.StrategyData {
	out := models.StrategyData{
		StrategyID: strategyID,
		Rows:       make([]models.SampleRow, 0, len(rows)),
	}
	for _, row := range rows {
		out.Rows = append(out.Rows, models.SampleRow{
			CollectTime: models.Timestamp(row.CollectTime),
			CityName:    row.CityName,
			Latitude:    row.Latitude,
			Longitude:   row.Longitude,
			Values:      row.Values,
			Units:       row.Units,
		})
	}
	return out
}
