package model

// WeatherAPIResponse is the body of a WeatherAPI.com current.json call.
// Fields the screen depends on are pointers so that an absent field can be
// told apart from a zero reading.
type WeatherAPIResponse struct {
	Location *WeatherAPILocation `json:"location" validate:"required"`
	Current  *WeatherAPICurrent  `json:"current" validate:"required"`
}

type WeatherAPILocation struct {
	Name      *string `json:"name" validate:"required"`
	Region    string  `json:"region"`
	Country   *string `json:"country" validate:"required"`
	TzID      string  `json:"tz_id"`
	LocalTime *string `json:"localtime" validate:"required"`
}

type WeatherAPICurrent struct {
	TempC     *float64             `json:"temp_c" validate:"required"`
	Humidity  *int                 `json:"humidity" validate:"required"`
	WindKph   *float64             `json:"wind_kph" validate:"required"`
	UV        *float64             `json:"uv" validate:"required"`
	PrecipMm  *float64             `json:"precip_mm" validate:"required"`
	Condition *WeatherAPICondition `json:"condition" validate:"required"`
}

type WeatherAPICondition struct {
	Text *string `json:"text" validate:"required"`
	Icon *string `json:"icon" validate:"required"`
	Code int     `json:"code"`
}

// WeatherAPIError is the body WeatherAPI.com returns alongside a non-2xx status.
type WeatherAPIError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ToSnapshot maps a validated payload onto the domain model. Callers must
// validate first; ToSnapshot dereferences every required field.
func (r *WeatherAPIResponse) ToSnapshot() *WeatherSnapshot {
	return &WeatherSnapshot{
		Location: Location{
			Name:      *r.Location.Name,
			Country:   *r.Location.Country,
			LocalTime: *r.Location.LocalTime,
		},
		Current: CurrentConditions{
			TemperatureCelsius: *r.Current.TempC,
			HumidityPercent:    *r.Current.Humidity,
			WindSpeedKph:       *r.Current.WindKph,
			UVIndex:            *r.Current.UV,
			PrecipitationMm:    *r.Current.PrecipMm,
			ConditionText:      *r.Current.Condition.Text,
			ConditionIconURL:   *r.Current.Condition.Icon,
		},
	}
}
