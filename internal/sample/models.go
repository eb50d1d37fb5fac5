// Package sample provides storage for collected indicator data points.
package sample

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository errors.
var (
	ErrSampleNotFound = errors.New("sample not found")
)

// Sample is one collected indicator value for a strategy at a point in
// time. Values are kept as strings the way the provider reports them,
// units come from the indicator catalog.
type Sample struct {
	ID             string
	StrategyID     string
	CityName       string
	Latitude       float64
	Longitude      float64
	CollectTime    time.Time
	IndicatorName  string
	IndicatorValue string
	IndicatorUnit  string
	CreatedAt      time.Time
}

// NewID generates a unique sample ID.
func NewID() string {
	return "smp_" + uuid.New().String()[:22]
}
