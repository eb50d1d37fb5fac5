// Package indicator defines the catalog of collectible weather and air
// quality indicators and maps each one onto the provider endpoint and
// response field it is read from.
package indicator

import (
	"strconv"
	"strings"

	"github.com/skycollect/skycollect/internal/provider/qweather"
)

// API identifies the provider endpoint family an indicator is read from.
type API int

const (
	// APIRealtimeWeather covers indicators read from the weather
	// observation and hourly forecast endpoints.
	APIRealtimeWeather API = iota
	// APIRealtimeAirQuality covers pollutant indicators read from the
	// air quality endpoints.
	APIRealtimeAirQuality
)

func (a API) String() string {
	switch a {
	case APIRealtimeWeather:
		return "realtime_weather"
	case APIRealtimeAirQuality:
		return "realtime_air_quality"
	default:
		return "unknown"
	}
}

// Descriptor describes one collectible indicator.
type Descriptor struct {
	// Name is the canonical identifier strategies reference.
	Name string
	// Description is a human readable label.
	Description string
	// API is the endpoint family the value comes from.
	API API
	// Unit is the measurement unit, empty for unitless indicators.
	Unit string
	// PollutantCode is the provider pollutant code for air quality
	// indicators, empty otherwise.
	PollutantCode string

	fromNow    func(qweather.Now) string
	fromHourly func(qweather.Hourly) string
}

// FromNow extracts the indicator's value from a realtime observation.
// ok is false when the indicator is not observable on this endpoint or
// the provider omitted the field.
func (d Descriptor) FromNow(now qweather.Now) (string, bool) {
	if d.fromNow == nil {
		return "", false
	}
	v := d.fromNow(now)
	return v, v != ""
}

// FromHourly extracts the indicator's value from a forecast hour. Some
// observation fields, visibility and apparent temperature among them, are
// absent from forecasts and yield ok=false.
func (d Descriptor) FromHourly(h qweather.Hourly) (string, bool) {
	if d.fromHourly == nil {
		return "", false
	}
	v := d.fromHourly(h)
	return v, v != ""
}

// FromPollutants extracts the indicator's concentration from a pollutant
// list.
func (d Descriptor) FromPollutants(pollutants []qweather.Pollutant) (string, bool) {
	if d.PollutantCode == "" {
		return "", false
	}
	for _, p := range pollutants {
		if p.Code == d.PollutantCode {
			return strconv.FormatFloat(p.Concentration.Value, 'f', -1, 64), true
		}
	}
	return "", false
}

var catalog = []Descriptor{
	{
		Name:        "Temperature",
		Description: "Air temperature",
		API:         APIRealtimeWeather,
		Unit:        "℃",
		fromNow:     func(n qweather.Now) string { return n.Temp },
		fromHourly:  func(h qweather.Hourly) string { return h.Temp },
	},
	{
		Name:        "Perceived_temperature",
		Description: "Apparent temperature",
		API:         APIRealtimeWeather,
		Unit:        "℃",
		fromNow:     func(n qweather.Now) string { return n.FeelsLike },
	},
	{
		Name:        "Wind_speed",
		Description: "Wind speed",
		API:         APIRealtimeWeather,
		Unit:        "km/h",
		fromNow:     func(n qweather.Now) string { return n.WindSpeed },
		fromHourly:  func(h qweather.Hourly) string { return h.WindSpeed },
	},
	{
		Name:        "Wind_direction",
		Description: "Wind direction",
		API:         APIRealtimeWeather,
		fromNow:     func(n qweather.Now) string { return n.WindDir },
		fromHourly:  func(h qweather.Hourly) string { return h.WindDir },
	},
	{
		Name:        "Relative_humidity",
		Description: "Relative humidity",
		API:         APIRealtimeWeather,
		Unit:        "%",
		fromNow:     func(n qweather.Now) string { return n.Humidity },
		fromHourly:  func(h qweather.Hourly) string { return h.Humidity },
	},
	{
		Name:        "Atmospheric_pressure",
		Description: "Atmospheric pressure",
		API:         APIRealtimeWeather,
		Unit:        "hPa",
		fromNow:     func(n qweather.Now) string { return n.Pressure },
		fromHourly:  func(h qweather.Hourly) string { return h.Pressure },
	},
	{
		Name:        "Precipitation",
		Description: "Precipitation",
		API:         APIRealtimeWeather,
		Unit:        "mm",
		fromNow:     func(n qweather.Now) string { return n.Precip },
		fromHourly:  func(h qweather.Hourly) string { return h.Precip },
	},
	{
		Name:        "Visibility",
		Description: "Visibility",
		API:         APIRealtimeWeather,
		Unit:        "km",
		fromNow:     func(n qweather.Now) string { return n.Vis },
	},
	{
		Name:        "Dew_point_temperature",
		Description: "Dew point temperature",
		API:         APIRealtimeWeather,
		Unit:        "℃",
		fromNow:     func(n qweather.Now) string { return n.Dew },
		fromHourly:  func(h qweather.Hourly) string { return h.Dew },
	},
	{
		Name:        "Cloud_cover",
		Description: "Cloud cover",
		API:         APIRealtimeWeather,
		Unit:        "%",
		fromNow:     func(n qweather.Now) string { return n.Cloud },
		fromHourly:  func(h qweather.Hourly) string { return h.Cloud },
	},
	{
		Name:          "PM2p5",
		Description:   "Fine particulate matter (PM2.5)",
		API:           APIRealtimeAirQuality,
		Unit:          "μg/m³",
		PollutantCode: "pm2p5",
	},
	{
		Name:          "PM10",
		Description:   "Inhalable particulate matter (PM10)",
		API:           APIRealtimeAirQuality,
		Unit:          "μg/m³",
		PollutantCode: "pm10",
	},
	{
		Name:          "CO",
		Description:   "Carbon monoxide",
		API:           APIRealtimeAirQuality,
		Unit:          "μg/m³",
		PollutantCode: "co",
	},
	{
		Name:          "SO2",
		Description:   "Sulphur dioxide",
		API:           APIRealtimeAirQuality,
		Unit:          "μg/m³",
		PollutantCode: "so2",
	},
	{
		Name:          "O3",
		Description:   "Ozone",
		API:           APIRealtimeAirQuality,
		Unit:          "μg/m³",
		PollutantCode: "o3",
	},
	{
		Name:          "NO2",
		Description:   "Nitrogen dioxide",
		API:           APIRealtimeAirQuality,
		Unit:          "μg/m³",
		PollutantCode: "no2",
	},
}

var byLowerName = func() map[string]Descriptor {
	m := make(map[string]Descriptor, len(catalog))
	for _, d := range catalog {
		m[strings.ToLower(d.Name)] = d
	}
	return m
}()

// All returns every catalog entry in declaration order.
func All() []Descriptor {
	out := make([]Descriptor, len(catalog))
	copy(out, catalog)
	return out
}

// Resolve looks an indicator up by name. Matching is case insensitive.
func Resolve(name string) (Descriptor, bool) {
	if name == "" {
		return Descriptor{}, false
	}
	d, ok := byLowerName[strings.ToLower(name)]
	return d, ok
}

// GroupByAPI resolves a list of indicator names and groups the matches by
// endpoint family. Unresolvable names are returned separately so callers
// can log and skip them.
func GroupByAPI(names []string) (map[API][]Descriptor, []string) {
	groups := make(map[API][]Descriptor)
	var unknown []string
	for _, name := range names {
		d, ok := Resolve(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		groups[d.API] = append(groups[d.API], d)
	}
	return groups, unknown
}

// Names returns the canonical names of every catalog entry.
func Names() []string {
	out := make([]string, len(catalog))
	for i, d := range catalog {
		out[i] = d.Name
	}
	return out
}
