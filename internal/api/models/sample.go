package models

// SampleRow is one collected timestamp for a strategy, with one value per
// indicator.
type SampleRow struct {
	CollectTime Timestamp         `json:"collectTime"`
	CityName    string            `json:"cityName,omitempty"`
	Latitude    float64           `json:"latitude"`
	Longitude   float64           `json:"longitude"`
	Values      map[string]string `json:"values"`
	Units       map[string]string `json:"units,omitempty"`
}

// StrategyData represents the collected data of a strategy, grouped by
// collect time, newest first.
type StrategyData struct {
	StrategyID string      `json:"strategyId"`
	Rows       []SampleRow `json:"rows"`
}

// Indicator describes one collectable indicator.
type Indicator struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	API         string `json:"api"`
	Unit        string `json:"unit,omitempty"`
}

// IndicatorList is the catalog of collectable indicators.
type IndicatorList struct {
	Items []Indicator `json:"items"`
}
