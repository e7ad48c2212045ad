package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fakhrymubarak/weather-screen/internal/config"
	"github.com/fakhrymubarak/weather-screen/internal/middleware"
	"github.com/fakhrymubarak/weather-screen/internal/model"
	"github.com/fakhrymubarak/weather-screen/internal/view"
	"github.com/fakhrymubarak/weather-screen/internal/viewstate"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	sessionCookie = "weather_screen"
	locationParam = "location"
)

type ScreenHandler struct {
	Screens      *Screens
	log          *zap.SugaredLogger
	pingInterval time.Duration
	writeTimeout time.Duration

	renderPage    func(w io.Writer, s viewstate.State, query string) error
	renderContent func(s viewstate.State) (string, error)
}

func NewScreenHandler(screens *Screens) *ScreenHandler {
	return &ScreenHandler{
		Screens:      screens,
		log:          config.GetLogger().Named("screen_handler"),
		pingInterval: 30 * time.Second,
		writeTimeout: 10 * time.Second,

		renderPage:    view.RenderPage,
		renderContent: view.ContentHTML,
	}
}

// Routes mounts the screen endpoints. Searches go through the rate limiter.
func (h *ScreenHandler) Routes(r chi.Router, limiter *middleware.RateLimiter) {
	r.Get("/", h.HandlePage)
	r.With(limiter.Middleware).Post("/search", h.HandleSearch)
	r.Get("/state", h.HandleState)
	r.Get("/content", h.HandleContent)
	r.Get("/ws", h.HandleWebSocket)
}

func (h *ScreenHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Errorw("could not encode json", "error", err)
	}
}

func (h *ScreenHandler) writeError(w http.ResponseWriter, statusCode int, errMsg string) {
	h.writeJSONResponse(w, statusCode, model.Response{
		Error:   &errMsg,
		Message: "Error",
	})
}

// screenFor returns the caller's screen, issuing a session cookie when the
// request has none (or an unusable one).
func (h *ScreenHandler) screenFor(w http.ResponseWriter, r *http.Request) *Screen {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return h.Screens.Get(c.Value)
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return h.Screens.Get(id)
}

// HandlePage renders the whole screen for the caller's current state.
func (h *ScreenHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	screen := h.screenFor(w, r)

	var buf bytes.Buffer
	if err := h.renderPage(&buf, screen.State(), screen.LastQuery()); err != nil {
		h.log.Errorw("Failed to render page", "error", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

// HandleContent renders only the area below the search bar.
func (h *ScreenHandler) HandleContent(w http.ResponseWriter, r *http.Request) {
	screen := h.screenFor(w, r)

	html, err := h.renderContent(screen.State())
	if err != nil {
		h.log.Errorw("Failed to render content", "error", err)
		http.Error(w, "Failed to render content", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(html))
}

// HandleSearch starts a lookup for the submitted location. The value is passed
// on exactly as typed; browsers are sent back to the page, JSON clients get
// the Loading document.
func (h *ScreenHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.writeError(w, http.StatusBadRequest, "Malformed search form")
		return
	}
	screen := h.screenFor(w, r)
	screen.Search(r.FormValue(locationParam))

	if wantsJSON(r) {
		h.writeJSONResponse(w, http.StatusAccepted, model.Response{
			Data:    view.NewStateDocument(screen.Current()),
			Message: "Accepted",
		})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleState returns the caller's current state as JSON.
func (h *ScreenHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	screen := h.screenFor(w, r)
	h.writeJSONResponse(w, http.StatusOK, model.Response{
		Data:    view.NewStateDocument(screen.Current()),
		Message: "Success",
	})
}

// HandleHealth reports liveness and the number of open screens.
func (h *ScreenHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, model.Response{
		Data: map[string]interface{}{
			"status":  "ok",
			"screens": h.Screens.Len(),
		},
		Message: "Success",
	})
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// stateMessage is what the WebSocket pushes for every transition.
type stateMessage struct {
	Type    string             `json:"type"`
	Payload view.StateDocument `json:"payload"`
	HTML    string             `json:"html"`
}

func newStateMessage(u viewstate.Update) (stateMessage, error) {
	html, err := view.ContentHTML(u.State)
	if err != nil {
		return stateMessage{}, err
	}
	return stateMessage{Type: "state", Payload: view.NewStateDocument(u), HTML: html}, nil
}
