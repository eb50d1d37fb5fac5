package strategy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/skycollect/skycollect/internal/indicator"
	"github.com/skycollect/skycollect/internal/sample"
	"github.com/skycollect/skycollect/internal/timeutil"
)

// Validation constants.
const (
	MaxNameLength   = 100
	MaxRemarkLength = 500
)

// Collector triggers forecast collection for a strategy. Implemented by
// the collection dispatcher.
type Collector interface {
	CollectForecast(ctx context.Context, s *Strategy) ([]sample.Row, error)
}

// CreateInput is the input for creating a strategy.
type CreateInput struct {
	Name         string
	Latitude     *float64
	Longitude    *float64
	CityName     string
	Indicators   []string
	CollectStart string
	CollectEnd   string
	Priority     *Priority
	Remark       string
}

// UpdateInput is the input for updating a strategy. Nil fields are left
// unchanged.
type UpdateInput struct {
	Name         *string
	Latitude     *float64
	Longitude    *float64
	CityName     *string
	Indicators   []string
	CollectStart *string
	CollectEnd   *string
	Priority     *Priority
	Remark       *string
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Created int
	Skipped int
	Failed  []ImportFailure
}

// ImportFailure records one rejected import row.
type ImportFailure struct {
	Index  int
	Name   string
	Reason string
}

// ServiceConfig holds configuration for the strategy service.
type ServiceConfig struct {
	Repo      Repository
	Collector Collector
	Logger    zerolog.Logger
	// Now is the time source, defaults to time.Now. Tests override it.
	Now func() time.Time
}

// Service owns strategy lifecycle operations. Every status change goes
// through the transition table in fsm.go so the four entry points
// (create, update, expiry, cancel/delete) stay consistent.
type Service struct {
	repo      Repository
	collector Collector
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService creates a new strategy service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:      cfg.Repo,
		collector: cfg.Collector,
		logger:    cfg.Logger.With().Str("component", "strategy_service").Logger(),
		now:       now,
	}
}

// Get retrieves a strategy by ID.
func (s *Service) Get(ctx context.Context, id string) (*Strategy, error) {
	return s.repo.Get(ctx, id)
}

// List retrieves every non-deleted strategy.
func (s *Service) List(ctx context.Context) ([]*Strategy, error) {
	return s.repo.List(ctx)
}

// PagedList retrieves a filtered page of strategies.
func (s *Service) PagedList(ctx context.Context, filter ListFilter, page PageRequest) (*Page, error) {
	return s.repo.PagedList(ctx, filter, page)
}

// Create registers a new strategy. When collectEnd already falls inside
// the collection horizon the strategy starts in COLLECTING and one
// forecast collection is attempted immediately; collection failure does
// not fail the create.
func (s *Service) Create(ctx context.Context, input *CreateInput) (*Strategy, error) {
	if fieldErrors := validateCreateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	count, err := s.repo.CountByName(ctx, input.Name)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrNameTaken
	}

	strat := s.fromCreateInput(input)

	if err := s.repo.Create(ctx, strat); err != nil {
		return nil, err
	}

	if strat.Status == StatusCollecting {
		s.triggerForecast(ctx, strat)
	}

	return strat, nil
}

// Import bulk-creates strategies. Rows with a name already in use are
// skipped, invalid rows are reported, valid rows are inserted in one
// batch. Collection is triggered afterwards for every row that started
// in COLLECTING.
func (s *Service) Import(ctx context.Context, inputs []*CreateInput) (*ImportResult, error) {
	result := &ImportResult{}
	seen := make(map[string]bool, len(inputs))

	var batch []*Strategy
	for i, input := range inputs {
		if fieldErrors := validateCreateInput(input); len(fieldErrors) > 0 {
			result.Failed = append(result.Failed, ImportFailure{
				Index:  i,
				Name:   input.Name,
				Reason: fieldErrors[0].Field + " " + fieldErrors[0].Message,
			})
			continue
		}

		if seen[input.Name] {
			result.Skipped++
			continue
		}
		count, err := s.repo.CountByName(ctx, input.Name)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			result.Skipped++
			continue
		}

		seen[input.Name] = true
		batch = append(batch, s.fromCreateInput(input))
	}

	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		return nil, err
	}
	result.Created = len(batch)

	for _, strat := range batch {
		if strat.Status == StatusCollecting {
			s.triggerForecast(ctx, strat)
		}
	}

	return result, nil
}

// Update modifies an existing strategy. A collectEnd change is run
// through the state machine: moving inside the horizon revives PENDING
// and CANCELLED strategies, moving outside it parks COLLECTING ones.
// SUCCESS is never overridden.
func (s *Service) Update(ctx context.Context, id string, input *UpdateInput) (*Strategy, error) {
	strat, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if fieldErrors := validateUpdateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	endChanged := input.CollectEnd != nil && *input.CollectEnd != strat.CollectEnd

	if input.Name != nil && *input.Name != strat.Name {
		count, err := s.repo.CountByName(ctx, *input.Name)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrNameTaken
		}
		strat.Name = *input.Name
	}
	if input.Latitude != nil {
		strat.Latitude = input.Latitude
	}
	if input.Longitude != nil {
		strat.Longitude = input.Longitude
	}
	if input.CityName != nil {
		strat.CityName = *input.CityName
	}
	if input.Indicators != nil {
		strat.Indicators = input.Indicators
	}
	if input.CollectStart != nil {
		strat.CollectStart = *input.CollectStart
	}
	if input.CollectEnd != nil {
		strat.CollectEnd = *input.CollectEnd
	}
	if input.Priority != nil {
		strat.Priority = *input.Priority
	}
	if input.Remark != nil {
		strat.Remark = *input.Remark
	}

	var collect bool
	if endChanged {
		event := EventEndBeyondHorizon
		if strat.EndsWithin(s.now(), CollectionHorizon) {
			event = EventEndWithinHorizon
		}
		if t, changed := Apply(strat.Status, event); changed {
			s.logTransition(strat, event, t.Next)
			strat.Status = t.Next
			collect = t.Collect
		}
	}

	strat.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, strat); err != nil {
		return nil, err
	}

	if collect {
		s.triggerForecast(ctx, strat)
	}

	return strat, nil
}

// Cancel withdraws a strategy. Collected samples stay untouched.
func (s *Service) Cancel(ctx context.Context, id string) (*Strategy, error) {
	return s.applyEvent(ctx, id, EventCancel)
}

// Delete soft-deletes a strategy and forces its status to CANCELLED.
func (s *Service) Delete(ctx context.Context, id string) error {
	strat, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if t, changed := Apply(strat.Status, EventDelete); changed {
		s.logTransition(strat, EventDelete, t.Next)
		strat.Status = t.Next
	}
	strat.Deleted = true
	strat.UpdatedAt = s.now()

	return s.repo.Update(ctx, strat)
}

// ExpireIfDue transitions a strategy whose window has elapsed to SUCCESS.
// It returns true when the strategy is expired (whether it was flipped
// just now or already terminal), meaning the caller must not collect.
func (s *Service) ExpireIfDue(ctx context.Context, strat *Strategy) (bool, error) {
	if strat.Status.Terminal() {
		return true, nil
	}
	if !strat.Expired(s.now()) {
		return false, nil
	}

	t, changed := Apply(strat.Status, EventExpired)
	if changed {
		s.logTransition(strat, EventExpired, t.Next)
		strat.Status = t.Next
		strat.UpdatedAt = s.now()
		if err := s.repo.Update(ctx, strat); err != nil {
			return true, err
		}
	}
	return true, nil
}

func (s *Service) applyEvent(ctx context.Context, id string, event Event) (*Strategy, error) {
	strat, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	t, changed := Apply(strat.Status, event)
	if !changed {
		return strat, nil
	}

	s.logTransition(strat, event, t.Next)
	strat.Status = t.Next
	strat.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, strat); err != nil {
		return nil, err
	}

	if t.Collect {
		s.triggerForecast(ctx, strat)
	}

	return strat, nil
}

func (s *Service) fromCreateInput(input *CreateInput) *Strategy {
	now := s.now()

	priority := PriorityNormal
	if input.Priority != nil {
		priority = *input.Priority
	}

	strat := &Strategy{
		ID:           NewID(),
		Name:         input.Name,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		CityName:     input.CityName,
		Indicators:   input.Indicators,
		CollectStart: input.CollectStart,
		CollectEnd:   input.CollectEnd,
		Priority:     priority,
		Remark:       input.Remark,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	strat.Status = InitialStatus(strat.EndsWithin(now, CollectionHorizon))
	return strat
}

func (s *Service) triggerForecast(ctx context.Context, strat *Strategy) {
	if s.collector == nil {
		return
	}
	if _, err := s.collector.CollectForecast(ctx, strat); err != nil {
		s.logger.Error().Err(err).
			Str("strategy_id", strat.ID).
			Msg("forecast collection after status change failed")
	}
}

func (s *Service) logTransition(strat *Strategy, event Event, next Status) {
	s.logger.Info().
		Str("strategy_id", strat.ID).
		Str("event", event.String()).
		Str("from", strat.Status.String()).
		Str("to", next.String()).
		Msg("strategy status transition")
}

func validateCreateInput(input *CreateInput) []FieldError {
	var errs []FieldError

	if input.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "is required"})
	} else if len(input.Name) > MaxNameLength {
		errs = append(errs, FieldError{Field: "name", Message: fmt.Sprintf("must be at most %d characters", MaxNameLength)})
	}

	if len(input.Indicators) == 0 {
		errs = append(errs, FieldError{Field: "indicators", Message: "is required"})
	} else {
		for _, name := range input.Indicators {
			if _, ok := indicator.Resolve(name); !ok {
				errs = append(errs, FieldError{Field: "indicators", Message: "unknown indicator " + name})
			}
		}
	}

	errs = append(errs, validateCoordinates(input.Latitude, input.Longitude)...)
	errs = append(errs, validateWindow(input.CollectStart, input.CollectEnd)...)

	if len(input.Remark) > MaxRemarkLength {
		errs = append(errs, FieldError{Field: "remark", Message: fmt.Sprintf("must be at most %d characters", MaxRemarkLength)})
	}

	return errs
}

func validateUpdateInput(input *UpdateInput) []FieldError {
	var errs []FieldError

	if input.Name != nil {
		if *input.Name == "" {
			errs = append(errs, FieldError{Field: "name", Message: "cannot be empty"})
		} else if len(*input.Name) > MaxNameLength {
			errs = append(errs, FieldError{Field: "name", Message: fmt.Sprintf("must be at most %d characters", MaxNameLength)})
		}
	}

	if input.Indicators != nil {
		if len(input.Indicators) == 0 {
			errs = append(errs, FieldError{Field: "indicators", Message: "cannot be empty"})
		} else {
			for _, name := range input.Indicators {
				if _, ok := indicator.Resolve(name); !ok {
					errs = append(errs, FieldError{Field: "indicators", Message: "unknown indicator " + name})
				}
			}
		}
	}

	errs = append(errs, validateCoordinates(input.Latitude, input.Longitude)...)

	if input.Remark != nil && len(*input.Remark) > MaxRemarkLength {
		errs = append(errs, FieldError{Field: "remark", Message: fmt.Sprintf("must be at most %d characters", MaxRemarkLength)})
	}

	return errs
}

func validateCoordinates(lat, lon *float64) []FieldError {
	var errs []FieldError
	if lat != nil && (*lat < -90 || *lat > 90) {
		errs = append(errs, FieldError{Field: "latitude", Message: "must be between -90 and 90"})
	}
	if lon != nil && (*lon < -180 || *lon > 180) {
		errs = append(errs, FieldError{Field: "longitude", Message: "must be between -180 and 180"})
	}
	return errs
}

// validateWindow rejects bounds that are present but unparseable. Either
// bound may be absent, scheduling treats a missing end as far future.
func validateWindow(start, end string) []FieldError {
	var errs []FieldError
	if start != "" {
		if _, ok := timeutil.ParseFlexible(start); !ok {
			errs = append(errs, FieldError{Field: "collectStart", Message: "is not a recognized timestamp"})
		}
	}
	if end != "" {
		if _, ok := timeutil.ParseFlexible(end); !ok {
			errs = append(errs, FieldError{Field: "collectEnd", Message: "is not a recognized timestamp"})
		}
	}
	return errs
}

// FieldError ties a validation message to the offending field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError carries all field errors of a rejected input.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}
