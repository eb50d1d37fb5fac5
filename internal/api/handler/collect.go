package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/skycollect/skycollect/internal/api/response"
	"github.com/skycollect/skycollect/internal/collector"
	"github.com/skycollect/skycollect/internal/sample"
	"github.com/skycollect/skycollect/internal/strategy"
)

type collectFunc func(ctx context.Context, s *strategy.Strategy) ([]sample.Row, error)

// CollectHandler handles manual collection triggers.
type CollectHandler struct {
	strategies *strategy.Service
	dispatcher *collector.Dispatcher
}

// NewCollectHandler creates a new CollectHandler.
func NewCollectHandler(strategies *strategy.Service, dispatcher *collector.Dispatcher) *CollectHandler {
	return &CollectHandler{strategies: strategies, dispatcher: dispatcher}
}

// TriggerRealtime handles POST /v1/strategies/{strategyId}/collect/realtime.
// It collects one realtime observation and returns the collected rows.
func (h *CollectHandler) TriggerRealtime(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, h.dispatcher.CollectRealtime)
}

// TriggerForecast handles POST /v1/strategies/{strategyId}/collect/forecast.
// It collects the hourly forecast over the strategy window and returns the
// collected rows.
func (h *CollectHandler) TriggerForecast(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, h.dispatcher.CollectForecast)
}

func (h *CollectHandler) trigger(w http.ResponseWriter, r *http.Request, collect collectFunc) {
	strategyID := chi.URLParam(r, "strategyId")
	if strategyID == "" {
		response.BadRequest(w, r, "strategyId is required", nil)
		return
	}

	strat, err := h.strategies.Get(r.Context(), strategyID)
	if err != nil {
		if errors.Is(err, strategy.ErrStrategyNotFound) {
			response.NotFound(w, r, "strategy not found")
			return
		}
		response.InternalError(w, r, "failed to load strategy")
		return
	}

	rows, err := collect(r.Context(), strat)
	if err != nil {
		response.ServiceUnavailable(w, r, "collection failed")
		return
	}

	response.JSON(w, r, http.StatusOK, toStrategyData(strategyID, rows))
}
