// Package viewstate holds the single value that decides what the weather
// screen shows, and the controller that moves it between states.
package viewstate

import "github.com/fakhrymubarak/weather-screen/internal/model"

// State is one of Idle, Loading, Success or Error. The set is closed: only
// this package can add variants.
type State interface {
	isState()
}

// Idle is the state before the first search.
type Idle struct{}

// Loading is set synchronously when a search starts.
type Loading struct {
	Query string
}

// Success carries the snapshot of the completed search.
type Success struct {
	Snapshot model.WeatherSnapshot
}

// Error carries a message meant for the user, not a raw transport error.
type Error struct {
	Message string
}

func (Idle) isState()    {}
func (Loading) isState() {}
func (Success) isState() {}
func (Error) isState()   {}

// IsTerminal reports whether s ends a search.
func IsTerminal(s State) bool {
	switch s.(type) {
	case Success, Error:
		return true
	default:
		return false
	}
}

// Name is the lowercase tag of s, as used in JSON documents.
func Name(s State) string {
	switch s.(type) {
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "idle"
	}
}
