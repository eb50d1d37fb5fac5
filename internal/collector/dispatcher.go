// Package collector turns a strategy into persisted samples. The
// dispatcher resolves the strategy's location, groups its indicators by
// upstream endpoint so each endpoint is called at most once per pass,
// extracts the requested values, and writes them through the
// deduplication guard.
package collector

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/skycollect/skycollect/internal/indicator"
	"github.com/skycollect/skycollect/internal/provider/qweather"
	"github.com/skycollect/skycollect/internal/sample"
	"github.com/skycollect/skycollect/internal/strategy"
	"github.com/skycollect/skycollect/internal/timeutil"
)

// Provider is the upstream weather API surface the dispatcher depends on.
// Implemented by the qweather client.
type Provider interface {
	RealtimeWeather(ctx context.Context, lon, lat float64) (*qweather.RealtimeWeatherResponse, error)
	HourlyForecast(ctx context.Context, lon, lat float64, horizon string) (*qweather.HourlyForecastResponse, error)
	CurrentAirQuality(ctx context.Context, lat, lon float64) (*qweather.AirQualityResponse, error)
	HourlyAirQuality(ctx context.Context, lat, lon float64) (*qweather.HourlyAirQualityResponse, error)
	CityLookup(ctx context.Context, location string) ([]qweather.Location, error)
}

// DispatcherConfig holds configuration for the dispatcher.
type DispatcherConfig struct {
	Provider Provider
	Samples  sample.Repository
	Logger   zerolog.Logger
	// Now is the time source, defaults to time.Now. Tests override it.
	Now func() time.Time
}

// Dispatcher performs collection passes for strategies.
type Dispatcher struct {
	provider Provider
	samples  sample.Repository
	logger   zerolog.Logger
	now      func() time.Time
	locks    *KeyLocks
}

// NewDispatcher creates a new dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Dispatcher{
		provider: cfg.Provider,
		samples:  cfg.Samples,
		logger:   cfg.Logger.With().Str("component", "dispatcher").Logger(),
		now:      now,
		locks:    NewKeyLocks(),
	}
}

// CollectRealtime takes one snapshot of every requested indicator. Each
// upstream endpoint is called at most once. Input problems (no usable
// location, no resolvable indicators) yield an empty result with a
// warning, per-endpoint upstream failures skip that endpoint's
// indicators and the rest proceed.
func (d *Dispatcher) CollectRealtime(ctx context.Context, strat *strategy.Strategy) ([]sample.Row, error) {
	unlock := d.locks.Lock(strat.ID)
	defer unlock()

	logger := d.logger.With().Str("strategy_id", strat.ID).Logger()

	lat, lon, ok := d.resolveLocation(ctx, strat, logger)
	if !ok {
		return nil, nil
	}

	groups := d.groupIndicators(strat, logger)
	if len(groups) == 0 {
		return nil, nil
	}

	collectTime := d.now().In(timeutil.LocalZone).Truncate(time.Second)
	var samples []*sample.Sample

	if descriptors, ok := groups[indicator.APIRealtimeWeather]; ok {
		resp, err := d.provider.RealtimeWeather(ctx, lon, lat)
		if err != nil {
			logger.Error().Err(err).Msg("realtime weather fetch failed")
		} else {
			for _, desc := range descriptors {
				if value, ok := desc.FromNow(resp.Now); ok {
					samples = append(samples, d.newSample(strat, lat, lon, collectTime, desc, value))
				}
			}
		}
	}

	if descriptors, ok := groups[indicator.APIRealtimeAirQuality]; ok {
		resp, err := d.provider.CurrentAirQuality(ctx, lat, lon)
		if err != nil {
			logger.Error().Err(err).Msg("current air quality fetch failed")
		} else {
			for _, desc := range descriptors {
				if value, ok := desc.FromPollutants(resp.Pollutants); ok {
					samples = append(samples, d.newSample(strat, lat, lon, collectTime, desc, value))
				}
			}
		}
	}

	d.persist(ctx, strat, collectTime, collectTime, samples, logger)
	return sample.GroupRows(samples), nil
}

// CollectForecast fetches forecast points covering the strategy's window.
// The weather forecast horizon is the smallest provider bucket covering
// the window, the air quality forecast is fixed at 24 hours. Returned
// points outside [start, end] are discarded. Before insert, prior samples
// for the same strategy, window and indicator set are removed so a
// repeated pull does not stack duplicates.
func (d *Dispatcher) CollectForecast(ctx context.Context, strat *strategy.Strategy) ([]sample.Row, error) {
	unlock := d.locks.Lock(strat.ID)
	defer unlock()

	logger := d.logger.With().Str("strategy_id", strat.ID).Logger()

	start, end, ok := strat.Window()
	if !ok {
		logger.Warn().
			Str("collect_start", strat.CollectStart).
			Str("collect_end", strat.CollectEnd).
			Msg("forecast collection skipped, window missing or unparseable")
		return nil, nil
	}
	if !end.After(start) {
		logger.Warn().Msg("forecast collection skipped, window end not after start")
		return nil, nil
	}

	lat, lon, ok := d.resolveLocation(ctx, strat, logger)
	if !ok {
		return nil, nil
	}

	groups := d.groupIndicators(strat, logger)
	if len(groups) == 0 {
		return nil, nil
	}

	_, bucket := timeutil.ForecastHorizon(start, end)
	var samples []*sample.Sample

	if descriptors, ok := groups[indicator.APIRealtimeWeather]; ok {
		resp, err := d.provider.HourlyForecast(ctx, lon, lat, string(bucket))
		if err != nil {
			logger.Error().Err(err).Str("bucket", string(bucket)).Msg("forecast weather fetch failed")
		} else {
			for _, hour := range resp.Hourly {
				pointTime, ok := timeutil.ParseProviderTime(hour.FxTime)
				if !ok || pointTime.Before(start) || pointTime.After(end) {
					continue
				}
				for _, desc := range descriptors {
					if value, ok := desc.FromHourly(hour); ok {
						samples = append(samples, d.newSample(strat, lat, lon, pointTime, desc, value))
					}
				}
			}
		}
	}

	if descriptors, ok := groups[indicator.APIRealtimeAirQuality]; ok {
		resp, err := d.provider.HourlyAirQuality(ctx, lat, lon)
		if err != nil {
			logger.Error().Err(err).Msg("forecast air quality fetch failed")
		} else {
			for _, hour := range resp.Hours {
				pointTime, ok := timeutil.ParseProviderTime(hour.ForecastTime)
				if !ok || pointTime.Before(start) || pointTime.After(end) {
					continue
				}
				for _, desc := range descriptors {
					if value, ok := desc.FromPollutants(hour.Pollutants); ok {
						samples = append(samples, d.newSample(strat, lat, lon, pointTime, desc, value))
					}
				}
			}
		}
	}

	d.persist(ctx, strat, start, end, samples, logger)
	return sample.GroupRows(samples), nil
}

// resolveLocation returns the strategy's coordinates, geocoding the city
// name when no explicit coordinates are set.
func (d *Dispatcher) resolveLocation(ctx context.Context, strat *strategy.Strategy, logger zerolog.Logger) (lat, lon float64, ok bool) {
	if strat.HasCoordinates() {
		return *strat.Latitude, *strat.Longitude, true
	}

	if strat.CityName == "" {
		logger.Warn().Msg("collection skipped, no coordinates and no city name")
		return 0, 0, false
	}

	locations, err := d.provider.CityLookup(ctx, strat.CityName)
	if err != nil {
		logger.Error().Err(err).Str("city", strat.CityName).Msg("geocoding failed")
		return 0, 0, false
	}

	lat, errLat := strconv.ParseFloat(locations[0].Lat, 64)
	lon, errLon := strconv.ParseFloat(locations[0].Lon, 64)
	if errLat != nil || errLon != nil {
		logger.Error().Str("city", strat.CityName).Msg("geocoding returned unparseable coordinates")
		return 0, 0, false
	}
	return lat, lon, true
}

func (d *Dispatcher) groupIndicators(strat *strategy.Strategy, logger zerolog.Logger) map[indicator.API][]indicator.Descriptor {
	groups, unknown := indicator.GroupByAPI(strat.Indicators)
	if len(unknown) > 0 {
		logger.Warn().Strs("indicators", unknown).Msg("unknown indicators skipped")
	}
	if len(groups) == 0 {
		logger.Warn().Msg("collection skipped, no resolvable indicators")
	}
	return groups
}

func (d *Dispatcher) newSample(strat *strategy.Strategy, lat, lon float64, collectTime time.Time, desc indicator.Descriptor, value string) *sample.Sample {
	return &sample.Sample{
		ID:             sample.NewID(),
		StrategyID:     strat.ID,
		CityName:       strat.CityName,
		Latitude:       lat,
		Longitude:      lon,
		CollectTime:    collectTime,
		IndicatorName:  desc.Name,
		IndicatorValue: value,
		IndicatorUnit:  desc.Unit,
		CreatedAt:      d.now(),
	}
}

// persist removes prior samples for the collected indicator set inside
// the window, then bulk-inserts the fresh batch. A delete failure is
// logged and the insert still runs, trading possible duplicates for not
// losing fresh data.
func (d *Dispatcher) persist(ctx context.Context, strat *strategy.Strategy, from, to time.Time, samples []*sample.Sample, logger zerolog.Logger) {
	if len(samples) == 0 {
		return
	}

	names := make([]string, 0, len(samples))
	seen := make(map[string]bool)
	for _, s := range samples {
		if !seen[s.IndicatorName] {
			seen[s.IndicatorName] = true
			names = append(names, s.IndicatorName)
		}
	}

	removed, err := d.samples.DeleteByStrategyTimeRangeAndIndicators(ctx, strat.ID, from, to, names)
	if err != nil {
		logger.Error().Err(err).Msg("stale sample cleanup failed, inserting anyway")
	} else if removed > 0 {
		logger.Debug().Int64("removed", removed).Msg("stale samples removed before insert")
	}

	if err := d.samples.CreateBatch(ctx, samples); err != nil {
		logger.Error().Err(err).Int("samples", len(samples)).Msg("sample batch insert failed")
		return
	}

	logger.Info().
		Int("samples", len(samples)).
		Time("from", from).
		Time("to", to).
		Msg("samples collected")
}

// Ensure Dispatcher satisfies the lifecycle manager's collector contract.
var _ strategy.Collector = (*Dispatcher)(nil)
