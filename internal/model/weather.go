package model

// Location identifies where a snapshot was taken. LocalTime uses the
// provider format "YYYY-MM-DD HH:MM".
type Location struct {
	Name      string `json:"name"`
	Country   string `json:"country"`
	LocalTime string `json:"local_time"`
}

// CurrentConditions are the readings shown on the detail layout.
// ConditionIconURL is scheme-less, exactly as the provider returns it.
type CurrentConditions struct {
	TemperatureCelsius float64 `json:"temperature_celsius"`
	HumidityPercent    int     `json:"humidity_percent"`
	WindSpeedKph       float64 `json:"wind_speed_kph"`
	UVIndex            float64 `json:"uv_index"`
	PrecipitationMm    float64 `json:"precipitation_mm"`
	ConditionText      string  `json:"condition_text"`
	ConditionIconURL   string  `json:"condition_icon_url"`
}

// WeatherSnapshot is the result of one successful lookup. It is never
// modified after construction; a new search replaces it wholesale.
type WeatherSnapshot struct {
	Location Location          `json:"location"`
	Current  CurrentConditions `json:"current"`
}
