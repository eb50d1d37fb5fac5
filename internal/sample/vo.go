package sample

import (
	"sort"
	"time"
)

// Row is a pivot of one strategy's samples at a single collect time, with
// one entry per indicator. Consumers get one row per timestamp instead of
// one record per indicator value.
type Row struct {
	StrategyID  string
	CityName    string
	Latitude    float64
	Longitude   float64
	CollectTime time.Time
	// Values maps indicator name to its collected value.
	Values map[string]string
	// Units maps indicator name to its unit, empty for unitless
	// indicators.
	Units map[string]string
}

// GroupRows pivots samples into per-timestamp rows, newest first.
func GroupRows(samples []*Sample) []Row {
	byTime := make(map[time.Time]*Row)
	for _, s := range samples {
		key := s.CollectTime
		row, ok := byTime[key]
		if !ok {
			row = &Row{
				StrategyID:  s.StrategyID,
				CityName:    s.CityName,
				Latitude:    s.Latitude,
				Longitude:   s.Longitude,
				CollectTime: s.CollectTime,
				Values:      make(map[string]string),
				Units:       make(map[string]string),
			}
			byTime[key] = row
		}
		row.Values[s.IndicatorName] = s.IndicatorValue
		if s.IndicatorUnit != "" {
			row.Units[s.IndicatorName] = s.IndicatorUnit
		}
	}

	rows := make([]Row, 0, len(byTime))
	for _, row := range byTime {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].CollectTime.After(rows[j].CollectTime)
	})
	return rows
}
