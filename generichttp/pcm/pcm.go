// Package pcm exposes the stream lifecycle of a card over HTTP
package pcm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/nasa-jpl/seraph/generichttp"
	"github.com/nasa-jpl/seraph/seraph"
	"github.com/nasa-jpl/seraph/server"
	"github.com/nasa-jpl/seraph/stream"
	"github.com/nasa-jpl/seraph/wavdump"
)

// Streamer drives the streams of a card, *seraph.Card satisfies it
type Streamer interface {
	Open(dir stream.Direction) error
	Configure(dir stream.Direction, p stream.Params) (stream.Layout, error)
	Prepare(dir stream.Direction) error
	Close(dir stream.Direction) error
	Start() error
	Stop() error
	Pointer() uint32
	ChannelOffset(dir stream.Direction, ch uint32) (first, step uint64, err error)
	Snapshot(dir stream.Direction) (stream.Params, stream.Layout, []byte, error)
	Ports(dir stream.Direction) []string
}

// Offset is the position of a channel in the DMA region, in bits
type Offset struct {
	First uint64 `json:"first"`
	Step  uint64 `json:"step"`
}

var errBadRequest = errors.New("bad request")

// StatusFor maps a stream error to an HTTP status
func StatusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, stream.ErrState):
		return http.StatusConflict
	case errors.Is(err, seraph.ErrUnsupported), errors.Is(err, seraph.ErrRateTooHigh):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func direction(r *http.Request) (stream.Direction, error) {
	dir, err := stream.ParseDirection(chi.URLParam(r, "dir"))
	if err != nil {
		return 0, fmt.Errorf("%v: %w", err, errBadRequest)
	}
	return dir, nil
}

// dirAction wraps a per direction operation without a result
func dirAction(fcn func(stream.Direction) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dir, err := direction(r)
		if err == nil {
			err = fcn(dir)
		}
		if err != nil {
			http.Error(w, err.Error(), StatusFor(err))
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func action(fcn func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fcn(); err != nil {
			http.Error(w, err.Error(), StatusFor(err))
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// Configure parses stream.Params and replies with the resulting layout
func Configure(s Streamer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dir, err := direction(r)
		if err != nil {
			http.Error(w, err.Error(), StatusFor(err))
			return
		}
		p := stream.Params{}
		err = json.NewDecoder(r.Body).Decode(&p)
		defer r.Body.Close()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		l, err := s.Configure(dir, p)
		if err != nil {
			http.Error(w, err.Error(), StatusFor(err))
			return
		}
		server.ReplyJSON(w, l)
	}
}

// ChannelOffset replies with the Offset of /stream/{dir}/channel/{ch}
func ChannelOffset(s Streamer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dir, err := direction(r)
		if err != nil {
			http.Error(w, err.Error(), StatusFor(err))
			return
		}
		ch, err := strconv.ParseUint(chi.URLParam(r, "ch"), 10, 32)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		first, step, err := s.ChannelOffset(dir, uint32(ch))
		if err != nil {
			http.Error(w, err.Error(), StatusFor(err))
			return
		}
		server.ReplyJSON(w, Offset{First: first, Step: step})
	}
}

// Ports replies with the port names of a direction
func Ports(s Streamer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dir, err := direction(r)
		if err != nil {
			http.Error(w, err.Error(), StatusFor(err))
			return
		}
		server.ReplyJSON(w, s.Ports(dir))
	}
}

// CaptureWAV replies with the current capture period as a WAV file
func CaptureWAV(s Streamer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, l, region, err := s.Snapshot(stream.Capture)
		if err != nil {
			http.Error(w, err.Error(), StatusFor(err))
			return
		}
		dir, err := os.MkdirTemp("", "seraph")
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer os.RemoveAll(dir)

		const fn = "capture.wav"
		f, err := os.Create(filepath.Join(dir, fn))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		err = wavdump.Write(f, stream.Capture, p, l, region)
		f.Close()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "audio/wav")
		server.ReplyWithFile(w, r, fn, dir)
	}
}

// HTTPStreamer wraps a Streamer in an HTTP route table
type HTTPStreamer struct {
	// Streamer is the underlying card
	Streamer Streamer

	// RouteTable maps URLs to functions
	RouteTable generichttp.RouteTable
}

// NewHTTPStreamer returns a new HTTP wrapper around a card's streams
func NewHTTPStreamer(s Streamer) HTTPStreamer {
	rt := generichttp.RouteTable{
		generichttp.MethodPath{Method: http.MethodPost, Path: "/stream/{dir}/open"}:               dirAction(s.Open),
		generichttp.MethodPath{Method: http.MethodPost, Path: "/stream/{dir}/configure"}:          Configure(s),
		generichttp.MethodPath{Method: http.MethodPost, Path: "/stream/{dir}/prepare"}:            dirAction(s.Prepare),
		generichttp.MethodPath{Method: http.MethodPost, Path: "/stream/{dir}/close"}:              dirAction(s.Close),
		generichttp.MethodPath{Method: http.MethodPost, Path: "/stream/start"}:                    action(s.Start),
		generichttp.MethodPath{Method: http.MethodPost, Path: "/stream/stop"}:                     action(s.Stop),
		generichttp.MethodPath{Method: http.MethodGet, Path: "/stream/{dir}/channel/{ch}/offset"}: ChannelOffset(s),
		generichttp.MethodPath{Method: http.MethodGet, Path: "/stream/{dir}/ports"}:               Ports(s),
		generichttp.MethodPath{Method: http.MethodGet, Path: "/stream/capture.wav"}:               CaptureWAV(s),
	}
	rt[generichttp.MethodPath{Method: http.MethodGet, Path: "/stream/pointer"}] = generichttp.GetInt(func() (int, error) {
		return int(s.Pointer()), nil
	})
	return HTTPStreamer{Streamer: s, RouteTable: rt}
}

// RT satisfies the generichttp.HTTPer interface
func (h HTTPStreamer) RT() generichttp.RouteTable {
	return h.RouteTable
}
