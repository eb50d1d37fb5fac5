package models

// StrategyPriority represents the sweep cadence class of a strategy.
type StrategyPriority string

const (
	PriorityUrgent StrategyPriority = "URGENT"
	PriorityNormal StrategyPriority = "NORMAL"
)

// Strategy represents a collection strategy.
type Strategy struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Latitude     *float64         `json:"latitude,omitempty"`
	Longitude    *float64         `json:"longitude,omitempty"`
	CityName     string           `json:"cityName,omitempty"`
	Indicators   []string         `json:"indicators"`
	CollectStart string           `json:"collectStart,omitempty"`
	CollectEnd   string           `json:"collectEnd,omitempty"`
	Status       string           `json:"status"`
	Priority     StrategyPriority `json:"priority"`
	Remark       string           `json:"remark,omitempty"`
	CreatedAt    Timestamp        `json:"createdAt"`
	UpdatedAt    Timestamp        `json:"updatedAt"`
}

// StrategyCreateRequest is the request body for creating a strategy.
type StrategyCreateRequest struct {
	Name         string            `json:"name" validate:"required,min=1,max=100"`
	Latitude     *float64          `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude    *float64          `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	CityName     string            `json:"cityName,omitempty"`
	Indicators   []string          `json:"indicators" validate:"required,min=1"`
	CollectStart string            `json:"collectStart,omitempty"`
	CollectEnd   string            `json:"collectEnd,omitempty"`
	Priority     *StrategyPriority `json:"priority,omitempty"`
	Remark       string            `json:"remark,omitempty" validate:"omitempty,max=500"`
}

// StrategyUpdateRequest is the request body for updating a strategy.
// Absent fields are left unchanged.
type StrategyUpdateRequest struct {
	Name         *string           `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Latitude     *float64          `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude    *float64          `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	CityName     *string           `json:"cityName,omitempty"`
	Indicators   []string          `json:"indicators,omitempty" validate:"omitempty,min=1"`
	CollectStart *string           `json:"collectStart,omitempty"`
	CollectEnd   *string           `json:"collectEnd,omitempty"`
	Priority     *StrategyPriority `json:"priority,omitempty"`
	Remark       *string           `json:"remark,omitempty" validate:"omitempty,max=500"`
}

// StrategyImportRequest is the request body for bulk importing strategies.
type StrategyImportRequest struct {
	Strategies []StrategyCreateRequest `json:"strategies" validate:"required,min=1"`
}

// StrategyImportResult summarizes a bulk import.
type StrategyImportResult struct {
	Created int                   `json:"created"`
	Skipped int                   `json:"skipped"`
	Failed  []StrategyImportError `json:"failed,omitempty"`
}

// StrategyImportError records one rejected import row.
type StrategyImportError struct {
	Index  int    `json:"index"`
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason"`
}

// PagedStrategies represents a paginated list of strategies.
type PagedStrategies struct {
	Items []Strategy `json:"items"`
	Meta  PageMeta   `json:"meta"`
}
