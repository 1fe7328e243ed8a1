package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nasa-jpl/seraph/generichttp"
	"github.com/nasa-jpl/seraph/generichttp/mixer"
	"github.com/nasa-jpl/seraph/generichttp/pcm"
	"github.com/nasa-jpl/seraph/monitor"
	"github.com/nasa-jpl/seraph/seraph"
	"github.com/nasa-jpl/seraph/server"
	"github.com/nasa-jpl/seraph/server/middleware/locker"
)

// HTTPCard joins the mixer and stream routes of a card with its
// status and state
type HTTPCard struct {
	Card *seraph.Card

	RouteTable generichttp.RouteTable
}

// NewHTTPCard returns the full route table for a card
func NewHTTPCard(c *seraph.Card) HTTPCard {
	h := HTTPCard{Card: c, RouteTable: generichttp.RouteTable{}}
	for _, other := range []generichttp.HTTPer{mixer.NewHTTPMixer(c), pcm.NewHTTPStreamer(c)} {
		for k, v := range other.RT() {
			h.RouteTable[k] = v
		}
	}
	rt := h.RouteTable
	rt[generichttp.MethodPath{Method: http.MethodGet, Path: "/status"}] = Status(c)
	rt[generichttp.MethodPath{Method: http.MethodGet, Path: "/state"}] = func(w http.ResponseWriter, r *http.Request) {
		server.ReplyJSON(w, c.State())
	}
	rt[generichttp.MethodPath{Method: http.MethodGet, Path: "/model"}] = generichttp.GetString(func() (string, error) {
		return c.Descriptor().Name, nil
	})
	return h
}

// RT satisfies generichttp.HTTPer
func (h HTTPCard) RT() generichttp.RouteTable {
	return h.RouteTable
}

// Status replies with the human readable status report of the card
func Status(c *seraph.Card) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := c.Status(&buf); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
	}
}

// BuildMux serves the card under c.Root, its metrics at /metrics
// and a list of every route at /endpoints
func BuildMux(c Config, card *seraph.Card) (chi.Router, error) {
	root := chi.NewRouter()
	root.Use(middleware.Logger)
	supergraph := map[string][]string{}

	interval, err := time.ParseDuration(c.MeasureInterval)
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), monitor.New(card, interval))
	root.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	httper := NewHTTPCard(card)
	lock := locker.New()
	locker.Inject(httper, lock)

	stem := generichttp.SubMuxSanitize(c.Root)
	supergraph[stem] = httper.RT().Endpoints()

	r := chi.NewRouter()
	r.Use(lock.Check)
	httper.RT().Bind(r)
	root.Mount(stem, r)

	root.Get("/endpoints", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		err := json.NewEncoder(w).Encode(supergraph)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	return root, nil
}
