package qweather

// RealtimeWeatherResponse is the payload returned by the realtime weather
// endpoint. Numeric values arrive as strings and are converted downstream.
type RealtimeWeatherResponse struct {
	Code       string `json:"code"`
	UpdateTime string `json:"updateTime"`
	FxLink     string `json:"fxLink"`
	Now        Now    `json:"now"`
	Refer      Refer  `json:"refer"`
}

// Now holds the current observation block of a realtime weather response.
type Now struct {
	ObsTime   string `json:"obsTime"`
	Temp      string `json:"temp"`
	FeelsLike string `json:"feelsLike"`
	Icon      string `json:"icon"`
	Text      string `json:"text"`
	Wind360   string `json:"wind360"`
	WindDir   string `json:"windDir"`
	WindScale string `json:"windScale"`
	WindSpeed string `json:"windSpeed"`
	Humidity  string `json:"humidity"`
	Precip    string `json:"precip"`
	Pressure  string `json:"pressure"`
	Vis       string `json:"vis"`
	Cloud     string `json:"cloud"`
	Dew       string `json:"dew"`
}

// HourlyForecastResponse is the payload returned by the hourly forecast
// weather endpoint for the 24h, 72h and 168h horizons.
type HourlyForecastResponse struct {
	Code       string   `json:"code"`
	UpdateTime string   `json:"updateTime"`
	FxLink     string   `json:"fxLink"`
	Hourly     []Hourly `json:"hourly"`
	Refer      Refer    `json:"refer"`
}

// Hourly is a single forecast hour of a hourly forecast response.
type Hourly struct {
	FxTime    string `json:"fxTime"`
	Temp      string `json:"temp"`
	Icon      string `json:"icon"`
	Text      string `json:"text"`
	Wind360   string `json:"wind360"`
	WindDir   string `json:"windDir"`
	WindScale string `json:"windScale"`
	WindSpeed string `json:"windSpeed"`
	Humidity  string `json:"humidity"`
	Pop       string `json:"pop"`
	Precip    string `json:"precip"`
	Pressure  string `json:"pressure"`
	Cloud     string `json:"cloud"`
	Dew       string `json:"dew"`
}

// AirQualityResponse is the payload returned by the current air quality
// endpoint.
type AirQualityResponse struct {
	Metadata   Metadata    `json:"metadata"`
	Indexes    []Index     `json:"indexes"`
	Pollutants []Pollutant `json:"pollutants"`
	Stations   []Station   `json:"stations"`
}

// HourlyAirQualityResponse is the payload returned by the hourly air
// quality forecast endpoint.
type HourlyAirQualityResponse struct {
	Metadata Metadata         `json:"metadata"`
	Hours    []AirQualityHour `json:"hours"`
}

// AirQualityHour is a single forecast hour of a hourly air quality response.
type AirQualityHour struct {
	ForecastTime string      `json:"forecastTime"`
	Indexes      []Index     `json:"indexes"`
	Pollutants   []Pollutant `json:"pollutants"`
}

// Index is an air quality index entry such as the local AQI.
type Index struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	AQI        float64 `json:"aqi"`
	AQIDisplay string  `json:"aqiDisplay"`
	Level      string  `json:"level"`
	Category   string  `json:"category"`
}

// Pollutant is a measured or forecast pollutant concentration.
type Pollutant struct {
	Code          string        `json:"code"`
	Name          string        `json:"name"`
	FullName      string        `json:"fullName"`
	Concentration Concentration `json:"concentration"`
	SubIndexes    []SubIndex    `json:"subIndexes"`
}

// Concentration is the value and unit of a pollutant measurement.
type Concentration struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// SubIndex is a per-index breakdown of a pollutant's contribution.
type SubIndex struct {
	Code       string  `json:"code"`
	AQI        float64 `json:"aqi"`
	AQIDisplay string  `json:"aqiDisplay"`
}

// Station identifies a monitoring station contributing to a measurement.
type Station struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Metadata carries the provider's response tag.
type Metadata struct {
	Tag string `json:"tag"`
}

// CityLookupResponse is the payload returned by the geo city lookup
// endpoint.
type CityLookupResponse struct {
	Code     string     `json:"code"`
	Location []Location `json:"location"`
	Refer    Refer      `json:"refer"`
}

// Location is a single candidate city returned by a lookup.
type Location struct {
	Name      string `json:"name"`
	ID        string `json:"id"`
	Lat       string `json:"lat"`
	Lon       string `json:"lon"`
	Adm2      string `json:"adm2"`
	Adm1      string `json:"adm1"`
	Country   string `json:"country"`
	TZ        string `json:"tz"`
	UTCOffset string `json:"utcOffset"`
	IsDst     string `json:"isDst"`
	Type      string `json:"type"`
	Rank      string `json:"rank"`
	FxLink    string `json:"fxLink"`
}

// Refer lists the provider's data sources and licenses.
type Refer struct {
	Sources []string `json:"sources"`
	License []string `json:"license"`
}
