package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycollect/skycollect/internal/provider/qweather"
	"github.com/skycollect/skycollect/internal/sample"
	"github.com/skycollect/skycollect/internal/strategy"
	"github.com/skycollect/skycollect/internal/timeutil"
)

type fakeProvider struct {
	weatherCalls     int
	airCalls         int
	forecastCalls    int
	airForecastCalls int
	geoCalls         int
	lastHorizon      string

	weatherErr error
	airErr     error

	now        qweather.Now
	pollutants []qweather.Pollutant
	hourly     []qweather.Hourly
	hours      []qweather.AirQualityHour
	locations  []qweather.Location
}

func (p *fakeProvider) RealtimeWeather(_ context.Context, _, _ float64) (*qweather.RealtimeWeatherResponse, error) {
	p.weatherCalls++
	if p.weatherErr != nil {
		return nil, p.weatherErr
	}
	return &qweather.RealtimeWeatherResponse{Code: "200", Now: p.now}, nil
}

func (p *fakeProvider) HourlyForecast(_ context.Context, _, _ float64, horizon string) (*qweather.HourlyForecastResponse, error) {
	p.forecastCalls++
	p.lastHorizon = horizon
	if p.weatherErr != nil {
		return nil, p.weatherErr
	}
	return &qweather.HourlyForecastResponse{Code: "200", Hourly: p.hourly}, nil
}

func (p *fakeProvider) CurrentAirQuality(_ context.Context, _, _ float64) (*qweather.AirQualityResponse, error) {
	p.airCalls++
	if p.airErr != nil {
		return nil, p.airErr
	}
	return &qweather.AirQualityResponse{Pollutants: p.pollutants}, nil
}

func (p *fakeProvider) HourlyAirQuality(_ context.Context, _, _ float64) (*qweather.HourlyAirQualityResponse, error) {
	p.airForecastCalls++
	if p.airErr != nil {
		return nil, p.airErr
	}
	return &qweather.HourlyAirQualityResponse{Hours: p.hours}, nil
}

func (p *fakeProvider) CityLookup(_ context.Context, _ string) ([]qweather.Location, error) {
	p.geoCalls++
	if len(p.locations) == 0 {
		return nil, qweather.ErrLocationNotFound
	}
	return p.locations, nil
}

var testNow = time.Date(2026, 1, 5, 12, 0, 0, 0, timeutil.LocalZone)

func newTestDispatcher(provider *fakeProvider) (*Dispatcher, *sample.InMemoryRepository) {
	repo := sample.NewInMemoryRepository()
	d := NewDispatcher(DispatcherConfig{
		Provider: provider,
		Samples:  repo,
		Logger:   zerolog.Nop(),
		Now:      func() time.Time { return testNow },
	})
	return d, repo
}

func testStrategy(indicators ...string) *strategy.Strategy {
	lat, lon := 39.92, 116.41
	return &strategy.Strategy{
		ID:         "str_test",
		Name:       "test",
		Latitude:   &lat,
		Longitude:  &lon,
		CityName:   "Beijing",
		Indicators: indicators,
		Status:     strategy.StatusCollecting,
	}
}

func TestCollectRealtimeOneCallPerEndpoint(t *testing.T) {
	provider := &fakeProvider{
		now: qweather.Now{Temp: "21", Humidity: "48"},
		pollutants: []qweather.Pollutant{
			{Code: "pm2p5", Concentration: qweather.Concentration{Value: 12.5}},
		},
	}
	d, repo := newTestDispatcher(provider)

	rows, err := d.CollectRealtime(context.Background(), testStrategy("Temperature", "PM2p5"))
	require.NoError(t, err)

	assert.Equal(t, 1, provider.weatherCalls)
	assert.Equal(t, 1, provider.airCalls)
	assert.Equal(t, 0, provider.forecastCalls)

	require.Len(t, rows, 1)
	assert.Equal(t, "21", rows[0].Values["Temperature"])
	assert.Equal(t, "12.5", rows[0].Values["PM2p5"])

	stored, err := repo.QueryByStrategy(context.Background(), "str_test")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestCollectRealtimeWeatherOnlySkipsAirQualityCall(t *testing.T) {
	provider := &fakeProvider{now: qweather.Now{Temp: "21", WindDir: "NE"}}
	d, _ := newTestDispatcher(provider)

	rows, err := d.CollectRealtime(context.Background(), testStrategy("Temperature", "Wind_direction"))
	require.NoError(t, err)

	assert.Equal(t, 1, provider.weatherCalls)
	assert.Equal(t, 0, provider.airCalls)
	require.Len(t, rows, 1)
	assert.Len(t, rows[0].Values, 2)
}

func TestCollectRealtimeFailedEndpointDoesNotBlockOthers(t *testing.T) {
	provider := &fakeProvider{
		weatherErr: errors.New("boom"),
		pollutants: []qweather.Pollutant{
			{Code: "o3", Concentration: qweather.Concentration{Value: 80}},
		},
	}
	d, repo := newTestDispatcher(provider)

	rows, err := d.CollectRealtime(context.Background(), testStrategy("Temperature", "O3"))
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "80", rows[0].Values["O3"])
	_, hasTemp := rows[0].Values["Temperature"]
	assert.False(t, hasTemp)

	stored, err := repo.QueryByStrategy(context.Background(), "str_test")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestCollectRealtimeGeocodesWhenCoordinatesMissing(t *testing.T) {
	provider := &fakeProvider{
		now:       qweather.Now{Temp: "21"},
		locations: []qweather.Location{{ID: "101010100", Lat: "39.90499", Lon: "116.40529"}},
	}
	d, repo := newTestDispatcher(provider)

	strat := testStrategy("Temperature")
	strat.Latitude = nil
	strat.Longitude = nil

	rows, err := d.CollectRealtime(context.Background(), strat)
	require.NoError(t, err)

	assert.Equal(t, 1, provider.geoCalls)
	require.Len(t, rows, 1)

	stored, err := repo.QueryByStrategy(context.Background(), "str_test")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.InDelta(t, 39.90499, stored[0].Latitude, 0.0001)
}

func TestCollectRealtimeNoLocationYieldsEmpty(t *testing.T) {
	provider := &fakeProvider{}
	d, _ := newTestDispatcher(provider)

	strat := testStrategy("Temperature")
	strat.Latitude = nil
	strat.Longitude = nil
	strat.CityName = ""

	rows, err := d.CollectRealtime(context.Background(), strat)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Zero(t, provider.weatherCalls)
}

func TestCollectRealtimeUnknownIndicatorsYieldEmpty(t *testing.T) {
	provider := &fakeProvider{}
	d, _ := newTestDispatcher(provider)

	rows, err := d.CollectRealtime(context.Background(), testStrategy("Sunshine"))
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Zero(t, provider.weatherCalls)
}

func forecastStrategy(indicators ...string) *strategy.Strategy {
	strat := testStrategy(indicators...)
	strat.CollectStart = "2026-01-05 00:00:00"
	strat.CollectEnd = "2026-01-07 02:00:00" // 50 hours
	return strat
}

func TestCollectForecastPicksCoveringBucketAndFiltersWindow(t *testing.T) {
	provider := &fakeProvider{
		hourly: []qweather.Hourly{
			{FxTime: "2026-01-04T23:00+08:00", Temp: "10"}, // before window
			{FxTime: "2026-01-05T06:00+08:00", Temp: "11"},
			{FxTime: "2026-01-06T06:00+08:00", Temp: "12"},
			{FxTime: "2026-01-07T03:00+08:00", Temp: "13"}, // after window
			{FxTime: "not-a-time", Temp: "14"},
		},
	}
	d, repo := newTestDispatcher(provider)

	rows, err := d.CollectForecast(context.Background(), forecastStrategy("Temperature"))
	require.NoError(t, err)

	assert.Equal(t, "72h", provider.lastHorizon)
	assert.Equal(t, 1, provider.forecastCalls)
	assert.Equal(t, 0, provider.airForecastCalls)

	require.Len(t, rows, 2)
	// Newest first.
	assert.Equal(t, "12", rows[0].Values["Temperature"])
	assert.Equal(t, "11", rows[1].Values["Temperature"])

	stored, err := repo.QueryByStrategy(context.Background(), "str_test")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestCollectForecastIsIdempotent(t *testing.T) {
	provider := &fakeProvider{
		hourly: []qweather.Hourly{
			{FxTime: "2026-01-05T06:00+08:00", Temp: "11"},
			{FxTime: "2026-01-05T07:00+08:00", Temp: "12"},
		},
		hours: []qweather.AirQualityHour{
			{
				ForecastTime: "2026-01-05T06:00+08:00",
				Pollutants: []qweather.Pollutant{
					{Code: "pm10", Concentration: qweather.Concentration{Value: 33}},
				},
			},
		},
	}
	d, repo := newTestDispatcher(provider)

	strat := forecastStrategy("Temperature", "PM10")

	_, err := d.CollectForecast(context.Background(), strat)
	require.NoError(t, err)
	_, err = d.CollectForecast(context.Background(), strat)
	require.NoError(t, err)

	stored, err := repo.QueryByStrategy(context.Background(), "str_test")
	require.NoError(t, err)
	assert.Len(t, stored, 3)
}

func TestCollectForecastMissingWindowYieldsEmpty(t *testing.T) {
	provider := &fakeProvider{}
	d, _ := newTestDispatcher(provider)

	strat := testStrategy("Temperature")
	strat.CollectStart = ""
	strat.CollectEnd = ""

	rows, err := d.CollectForecast(context.Background(), strat)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Zero(t, provider.forecastCalls)
}

func TestCollectForecastSkipsFieldsAbsentFromForecasts(t *testing.T) {
	provider := &fakeProvider{
		hourly: []qweather.Hourly{
			{FxTime: "2026-01-05T06:00+08:00", Temp: "11"},
		},
	}
	d, _ := newTestDispatcher(provider)

	// Visibility is observation-only, only Temperature lands.
	rows, err := d.CollectForecast(context.Background(), forecastStrategy("Temperature", "Visibility"))
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Len(t, rows[0].Values, 1)
	assert.Equal(t, "11", rows[0].Values["Temperature"])
}

func TestCollectRealtimeRepeatedPassSameSecondDoesNotDuplicate(t *testing.T) {
	provider := &fakeProvider{now: qweather.Now{Temp: "21"}}
	d, repo := newTestDispatcher(provider)

	strat := testStrategy("Temperature")

	_, err := d.CollectRealtime(context.Background(), strat)
	require.NoError(t, err)
	_, err = d.CollectRealtime(context.Background(), strat)
	require.NoError(t, err)

	stored, err := repo.QueryByStrategy(context.Background(), "str_test")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}
