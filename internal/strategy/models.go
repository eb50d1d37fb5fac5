// Package strategy provides weather collection strategy management and
// the lifecycle state machine that drives collection.
package strategy

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/skycollect/skycollect/internal/timeutil"
)

// Service errors.
var (
	ErrStrategyNotFound = errors.New("strategy not found")
	ErrNameRequired     = errors.New("strategy name is required")
	ErrNameTaken        = errors.New("strategy name already in use")
	ErrNoIndicators     = errors.New("strategy has no indicators")
)

// Status is a strategy's collection lifecycle state. The numeric values
// are part of the stored representation; 3 is intentionally unused.
type Status int

const (
	// StatusPending marks a strategy registered but not yet inside the
	// near-term collection horizon.
	StatusPending Status = 0
	// StatusCollecting marks a strategy actively being collected.
	StatusCollecting Status = 1
	// StatusSuccess marks a strategy whose window has elapsed.
	StatusSuccess Status = 2
	// StatusCancelled marks a manually withdrawn strategy.
	StatusCancelled Status = 4
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusCollecting:
		return "collecting"
	case StatusSuccess:
		return "success"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether automatic collection is over for this state.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusCancelled
}

// Priority partitions strategies across the two forecast sweep cadences.
type Priority int

const (
	// PriorityUrgent strategies are swept every 6 hours.
	PriorityUrgent Priority = 0
	// PriorityNormal strategies are swept every 12 hours. Default.
	PriorityNormal Priority = 1
)

func (p Priority) String() string {
	if p == PriorityUrgent {
		return "urgent"
	}
	return "normal"
}

// CollectionHorizon is how close collectEnd must be before a strategy
// starts collecting.
const CollectionHorizon = 7 * 24 * time.Hour

// Strategy is a registered collection request for one location and a set
// of indicators over a time window. The window bounds are kept in their
// textual form and parsed on demand, unparseable values simply disable
// window-dependent behavior.
type Strategy struct {
	ID           string
	Name         string
	Latitude     *float64
	Longitude    *float64
	CityName     string
	Indicators   []string
	CollectStart string
	CollectEnd   string
	Status       Status
	Priority     Priority
	Remark       string
	Deleted      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewID generates a unique strategy ID.
func NewID() string {
	return "str_" + uuid.New().String()[:22]
}

// HasCoordinates reports whether the strategy carries an explicit
// location.
func (s *Strategy) HasCoordinates() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// Window parses the collection window. ok is false when either bound is
// absent or unparseable.
func (s *Strategy) Window() (start, end time.Time, ok bool) {
	start, okStart := timeutil.ParseFlexible(s.CollectStart)
	end, okEnd := timeutil.ParseFlexible(s.CollectEnd)
	if !okStart || !okEnd {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// EndsWithin reports whether collectEnd falls inside the given horizon
// from now. An absent or unparseable end never qualifies.
func (s *Strategy) EndsWithin(now time.Time, horizon time.Duration) bool {
	end, ok := timeutil.ParseFlexible(s.CollectEnd)
	if !ok {
		return false
	}
	return !end.After(now.Add(horizon))
}

// Expired reports whether collectEnd is in the past. An absent or
// unparseable end is treated as far future.
func (s *Strategy) Expired(now time.Time) bool {
	end, ok := timeutil.ParseFlexible(s.CollectEnd)
	if !ok {
		return false
	}
	return end.Before(now)
}
