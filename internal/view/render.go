package view

import (
	"bytes"
	"embed"
	"html/template"
	"io"

	"github.com/fakhrymubarak/weather-screen/internal/model"
	"github.com/fakhrymubarak/weather-screen/internal/viewstate"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Content is the template model of the area below the search bar.
type Content struct {
	Mode    string
	Details *Details
	Message string
}

type page struct {
	Query   string
	Content Content
}

// NewContent builds the template model for s.
func NewContent(s viewstate.State) Content {
	c := Content{Mode: Select(s).String()}
	switch st := s.(type) {
	case viewstate.Success:
		d := NewDetails(st.Snapshot)
		c.Details = &d
	case viewstate.Error:
		c.Message = st.Message
	}
	return c
}

// RenderPage writes the whole screen: search bar with query prefilled and the
// content area for s.
func RenderPage(w io.Writer, s viewstate.State, query string) error {
	return execute(w, "page", page{Query: query, Content: NewContent(s)})
}

// RenderContent writes only the content area for s.
func RenderContent(w io.Writer, s viewstate.State) error {
	return execute(w, "content", NewContent(s))
}

// ContentHTML is RenderContent into a string.
func ContentHTML(s viewstate.State) (string, error) {
	var buf bytes.Buffer
	if err := RenderContent(&buf, s); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Rendering into a buffer first keeps a failed template from leaving half a
// page on the wire.
func execute(w io.Writer, name string, data interface{}) error {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

// StateDocument is the JSON form of a view state.
type StateDocument struct {
	Status   string                 `json:"status"`
	Seq      uint64                 `json:"seq"`
	Query    string                 `json:"query,omitempty"`
	Weather  *Details               `json:"weather,omitempty"`
	Snapshot *model.WeatherSnapshot `json:"snapshot,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

// NewStateDocument describes u for JSON consumers.
func NewStateDocument(u viewstate.Update) StateDocument {
	doc := StateDocument{Status: viewstate.Name(u.State), Seq: u.Seq}
	switch st := u.State.(type) {
	case viewstate.Loading:
		doc.Query = st.Query
	case viewstate.Success:
		d := NewDetails(st.Snapshot)
		snap := st.Snapshot
		doc.Weather = &d
		doc.Snapshot = &snap
	case viewstate.Error:
		doc.Error = st.Message
	}
	return doc
}
