// Package view turns a view state into what the screen shows. Everything
// here is a pure function of its input.
package view

import (
	"math"
	"strconv"
	"strings"

	"github.com/fakhrymubarak/weather-screen/internal/model"
	"github.com/fakhrymubarak/weather-screen/internal/viewstate"
)

// Mode is the display mode of the content area below the search bar.
type Mode int

const (
	ModeBlank Mode = iota
	ModeProgress
	ModeDetails
	ModeError
)

func (m Mode) String() string {
	switch m {
	case ModeProgress:
		return "progress"
	case ModeDetails:
		return "details"
	case ModeError:
		return "error"
	default:
		return "blank"
	}
}

// Select picks the display mode for s.
func Select(s viewstate.State) Mode {
	switch s.(type) {
	case viewstate.Loading:
		return ModeProgress
	case viewstate.Success:
		return ModeDetails
	case viewstate.Error:
		return ModeError
	default:
		return ModeBlank
	}
}

// Tile is one key/value cell of the detail card.
type Tile struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// TileRow holds the two tiles shown side by side.
type TileRow struct {
	Left  Tile `json:"left"`
	Right Tile `json:"right"`
}

// Details are the display strings of the detail layout.
type Details struct {
	Name        string    `json:"name"`
	Country     string    `json:"country"`
	Temperature string    `json:"temperature"`
	IconURL     string    `json:"icon_url"`
	Condition   string    `json:"condition"`
	LocalDate   string    `json:"local_date"`
	LocalTime   string    `json:"local_time"`
	Rows        []TileRow `json:"rows"`
}

// NewDetails derives the display strings from a snapshot.
func NewDetails(s model.WeatherSnapshot) Details {
	date, clock := SplitLocalTime(s.Location.LocalTime)
	c := s.Current
	return Details{
		Name:        s.Location.Name,
		Country:     s.Location.Country,
		Temperature: FormatNumber(c.TemperatureCelsius) + " °C",
		IconURL:     IconURL(c.ConditionIconURL),
		Condition:   c.ConditionText,
		LocalDate:   date,
		LocalTime:   clock,
		Rows: []TileRow{
			{
				Left:  Tile{Key: "Humidity", Value: strconv.Itoa(c.HumidityPercent)},
				Right: Tile{Key: "Wind Speed", Value: FormatNumber(c.WindSpeedKph) + " km/h"},
			},
			{
				Left:  Tile{Key: "UV", Value: FormatNumber(c.UVIndex)},
				Right: Tile{Key: "Precipitation", Value: FormatNumber(c.PrecipitationMm) + " mm"},
			},
			{
				Left:  Tile{Key: "Local Time", Value: clock},
				Right: Tile{Key: "Local Date", Value: date},
			},
		},
	}
}

// IconURL turns the provider's scheme-less 64x64 icon path into an https
// URL for the 128x128 variant. Only the first "64x64" is replaced.
func IconURL(raw string) string {
	return strings.Replace("https:"+raw, "64x64", "128x128", 1)
}

// SplitLocalTime splits "YYYY-MM-DD HH:MM" on the first space. Without a
// space the whole input is the date and the time is empty.
func SplitLocalTime(localTime string) (date, clock string) {
	date, clock, _ = strings.Cut(localTime, " ")
	return date, clock
}

// FormatNumber prints v in its shortest exact form and always keeps one
// fractional digit, so 21.5 is "21.5" and 20 is "20.0".
func FormatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if math.IsNaN(v) || math.IsInf(v, 0) || strings.Contains(s, ".") {
		return s
	}
	return s + ".0"
}
