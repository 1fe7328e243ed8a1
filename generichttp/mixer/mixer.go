// Package mixer exposes the typed controls of a card over HTTP.
//
// Controls are addressed by slug, "DCO Freq (Hz)" is /controls/dco-freq-hz.
// Values travel as {"int": v}; enumerated controls take the item index and
// boolean controls 0 or 1.
package mixer

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/nasa-jpl/seraph/clock"
	"github.com/nasa-jpl/seraph/generichttp"
	"github.com/nasa-jpl/seraph/server"
	"github.com/nasa-jpl/seraph/seraph"
)

// Mixer is a set of named integer controls, *seraph.Card satisfies it
type Mixer interface {
	Controls() []seraph.Info
	Control(name string) (seraph.Info, error)
	GetControl(name string) (int, error)
	SetControl(name string, v int) error
}

// StatusFor maps a control error to an HTTP status
func StatusFor(err error) int {
	switch {
	case errors.Is(err, seraph.ErrNoControl):
		return http.StatusNotFound
	case errors.Is(err, seraph.ErrReadOnly):
		return http.StatusMethodNotAllowed
	case errors.Is(err, clock.ErrOutOfRange):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// List returns every control's description
func List(m Mixer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		server.ReplyJSON(w, m.Controls())
	}
}

// Info returns one control's description
func Info(m Mixer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := m.Control(chi.URLParam(r, "name"))
		if err != nil {
			http.Error(w, err.Error(), StatusFor(err))
			return
		}
		server.ReplyJSON(w, info)
	}
}

// Get returns a control's value as {"int": v}
func Get(m Mixer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := m.GetControl(chi.URLParam(r, "name"))
		if err != nil {
			http.Error(w, err.Error(), StatusFor(err))
			return
		}
		server.ReplyJSON(w, server.IntT{Int: v})
	}
}

// Set parses {"int": v} and writes it to a control
func Set(m Mixer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		i := server.IntT{}
		err := json.NewDecoder(r.Body).Decode(&i)
		defer r.Body.Close()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := m.SetControl(chi.URLParam(r, "name"), i.Int); err != nil {
			http.Error(w, err.Error(), StatusFor(err))
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// HTTPMixer wraps a Mixer in an HTTP route table
type HTTPMixer struct {
	// Mixer is the underlying control set
	Mixer Mixer

	// RouteTable maps URLs to functions
	RouteTable generichttp.RouteTable
}

// NewHTTPMixer returns a new HTTP wrapper around a control set
func NewHTTPMixer(m Mixer) HTTPMixer {
	return HTTPMixer{
		Mixer: m,
		RouteTable: generichttp.RouteTable{
			generichttp.MethodPath{Method: http.MethodGet, Path: "/controls"}:             List(m),
			generichttp.MethodPath{Method: http.MethodGet, Path: "/controls/{name}"}:      Get(m),
			generichttp.MethodPath{Method: http.MethodPost, Path: "/controls/{name}"}:     Set(m),
			generichttp.MethodPath{Method: http.MethodGet, Path: "/controls/{name}/info"}: Info(m),
		},
	}
}

// RT satisfies the generichttp.HTTPer interface
func (h HTTPMixer) RT() generichttp.RouteTable {
	return h.RouteTable
}
