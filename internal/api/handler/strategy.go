// Package handler provides HTTP handlers for the SkyCollect API.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/skycollect/skycollect/internal/api/models"
	"github.com/skycollect/skycollect/internal/api/response"
	"github.com/skycollect/skycollect/internal/strategy"
)

// Pagination defaults for strategy listing.
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// StrategyHandler handles strategy lifecycle endpoints.
type StrategyHandler struct {
	service *strategy.Service
}

// NewStrategyHandler creates a new StrategyHandler.
func NewStrategyHandler(service *strategy.Service) *StrategyHandler {
	return &StrategyHandler{service: service}
}

// CreateStrategy handles POST /v1/strategies - register a collection strategy.
func (h *StrategyHandler) CreateStrategy(w http.ResponseWriter, r *http.Request) {
	var input models.StrategyCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	strat, err := h.service.Create(r.Context(), toCreateInput(&input))
	if err != nil {
		writeStrategyError(w, r, err)
		return
	}

	location := fmt.Sprintf("/v1/strategies/%s", strat.ID)
	response.Created(w, r, location, toStrategyModel(strat))
}

// ImportStrategies handles POST /v1/strategies/import - bulk register strategies.
func (h *StrategyHandler) ImportStrategies(w http.ResponseWriter, r *http.Request) {
	var input models.StrategyImportRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if len(input.Strategies) == 0 {
		response.BadRequest(w, r, "strategies is required", nil)
		return
	}

	inputs := make([]*strategy.CreateInput, 0, len(input.Strategies))
	for i := range input.Strategies {
		inputs = append(inputs, toCreateInput(&input.Strategies[i]))
	}

	result, err := h.service.Import(r.Context(), inputs)
	if err != nil {
		writeStrategyError(w, r, err)
		return
	}

	out := models.StrategyImportResult{
		Created: result.Created,
		Skipped: result.Skipped,
	}
	for _, f := range result.Failed {
		out.Failed = append(out.Failed, models.StrategyImportError{
			Index:  f.Index,
			Name:   f.Name,
			Reason: f.Reason,
		})
	}
	response.JSON(w, r, http.StatusOK, out)
}

// ListStrategies handles GET /v1/strategies - paged, filtered listing.
func (h *StrategyHandler) ListStrategies(w http.ResponseWriter, r *http.Request) {
	filter := strategy.ListFilter{
		Name:     r.URL.Query().Get("name"),
		CityName: r.URL.Query().Get("cityName"),
	}

	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := parseStatus(raw)
		if !ok {
			response.BadRequest(w, r, "unknown status "+raw, nil)
			return
		}
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("priority"); raw != "" {
		priority, ok := parsePriority(models.StrategyPriority(raw))
		if !ok {
			response.BadRequest(w, r, "unknown priority "+raw, nil)
			return
		}
		filter.Priority = &priority
	}

	page, err := h.service.PagedList(r.Context(), filter, parsePageRequest(r))
	if err != nil {
		response.InternalError(w, r, "failed to list strategies")
		return
	}

	out := models.PagedStrategies{
		Items: make([]models.Strategy, 0, len(page.Items)),
		Meta: models.PageMeta{
			Page:  page.Page,
			Size:  page.Size,
			Total: page.Total,
		},
	}
	for _, strat := range page.Items {
		out.Items = append(out.Items, toStrategyModel(strat))
	}
	response.JSON(w, r, http.StatusOK, out)
}

// GetStrategy handles GET /v1/strategies/{strategyId}.
func (h *StrategyHandler) GetStrategy(w http.ResponseWriter, r *http.Request) {
	strategyID := chi.URLParam(r, "strategyId")
	if strategyID == "" {
		response.BadRequest(w, r, "strategyId is required", nil)
		return
	}

	strat, err := h.service.Get(r.Context(), strategyID)
	if err != nil {
		writeStrategyError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toStrategyModel(strat))
}

// UpdateStrategy handles PUT /v1/strategies/{strategyId}.
func (h *StrategyHandler) UpdateStrategy(w http.ResponseWriter, r *http.Request) {
	strategyID := chi.URLParam(r, "strategyId")
	if strategyID == "" {
		response.BadRequest(w, r, "strategyId is required", nil)
		return
	}

	var input models.StrategyUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	update := &strategy.UpdateInput{
		Name:         input.Name,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		CityName:     input.CityName,
		Indicators:   input.Indicators,
		CollectStart: input.CollectStart,
		CollectEnd:   input.CollectEnd,
		Remark:       input.Remark,
	}
	if input.Priority != nil {
		priority, ok := parsePriority(*input.Priority)
		if !ok {
			response.BadRequest(w, r, "unknown priority "+string(*input.Priority), nil)
			return
		}
		update.Priority = &priority
	}

	strat, err := h.service.Update(r.Context(), strategyID, update)
	if err != nil {
		writeStrategyError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toStrategyModel(strat))
}

// CancelStrategy handles POST /v1/strategies/{strategyId}/cancel.
func (h *StrategyHandler) CancelStrategy(w http.ResponseWriter, r *http.Request) {
	strategyID := chi.URLParam(r, "strategyId")
	if strategyID == "" {
		response.BadRequest(w, r, "strategyId is required", nil)
		return
	}

	strat, err := h.service.Cancel(r.Context(), strategyID)
	if err != nil {
		writeStrategyError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toStrategyModel(strat))
}

// DeleteStrategy handles DELETE /v1/strategies/{strategyId} - soft delete.
func (h *StrategyHandler) DeleteStrategy(w http.ResponseWriter, r *http.Request) {
	strategyID := chi.URLParam(r, "strategyId")
	if strategyID == "" {
		response.BadRequest(w, r, "strategyId is required", nil)
		return
	}

	if err := h.service.Delete(r.Context(), strategyID); err != nil {
		writeStrategyError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

// writeStrategyError maps strategy service errors to problem responses.
func writeStrategyError(w http.ResponseWriter, r *http.Request, err error) {
	if ve, ok := strategy.IsValidation(err); ok {
		fieldErrors := make([]models.FieldError, 0, len(ve.Errors))
		for _, fe := range ve.Errors {
			fieldErrors = append(fieldErrors, models.FieldError{
				Field:   fe.Field,
				Message: fe.Message,
			})
		}
		response.BadRequest(w, r, "validation failed", fieldErrors)
		return
	}

	switch {
	case errors.Is(err, strategy.ErrStrategyNotFound):
		response.NotFound(w, r, "strategy not found")
	case errors.Is(err, strategy.ErrNameTaken):
		response.Conflict(w, r, "strategy name already in use")
	default:
		response.InternalError(w, r, "strategy operation failed")
	}
}

func toCreateInput(req *models.StrategyCreateRequest) *strategy.CreateInput {
	input := &strategy.CreateInput{
		Name:         req.Name,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		CityName:     req.CityName,
		Indicators:   req.Indicators,
		CollectStart: req.CollectStart,
		CollectEnd:   req.CollectEnd,
		Remark:       req.Remark,
	}
	if req.Priority != nil {
		if priority, ok := parsePriority(*req.Priority); ok {
			input.Priority = &priority
		}
	}
	return input
}

func toStrategyModel(s *strategy.Strategy) models.Strategy {
	return models.Strategy{
		ID:           s.ID,
		Name:         s.Name,
		Latitude:     s.Latitude,
		Longitude:    s.Longitude,
		CityName:     s.CityName,
		Indicators:   s.Indicators,
		CollectStart: s.CollectStart,
		CollectEnd:   s.CollectEnd,
		Status:       strings.ToUpper(s.Status.String()),
		Priority:     toPriorityModel(s.Priority),
		Remark:       s.Remark,
		CreatedAt:    models.Timestamp(s.CreatedAt),
		UpdatedAt:    models.Timestamp(s.UpdatedAt),
	}
}

func toPriorityModel(p strategy.Priority) models.StrategyPriority {
	if p == strategy.PriorityUrgent {
		return models.PriorityUrgent
	}
	return models.PriorityNormal
}

func parsePriority(p models.StrategyPriority) (strategy.Priority, bool) {
	switch models.StrategyPriority(strings.ToUpper(string(p))) {
	case models.PriorityUrgent:
		return strategy.PriorityUrgent, true
	case models.PriorityNormal:
		return strategy.PriorityNormal, true
	default:
		return strategy.PriorityNormal, false
	}
}

func parseStatus(raw string) (strategy.Status, bool) {
	switch strings.ToUpper(raw) {
	case "PENDING":
		return strategy.StatusPending, true
	case "COLLECTING":
		return strategy.StatusCollecting, true
	case "SUCCESS":
		return strategy.StatusSuccess, true
	case "CANCELLED":
		return strategy.StatusCancelled, true
	default:
		return strategy.StatusPending, false
	}
}

func parsePageRequest(r *http.Request) strategy.PageRequest {
	page := strategy.PageRequest{Page: 1, Size: defaultPageSize}
	if raw := r.URL.Query().Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page.Page = n
		}
	}
	if raw := r.URL.Query().Get("size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			if n > maxPageSize {
				n = maxPageSize
			}
			page.Size = n
		}
	}
	return page
}
