package generichttp_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"

	"github.com/nasa-jpl/seraph/generichttp"
)

func TestEndpointsSorted(t *testing.T) {
	rt := generichttp.RouteTable{
		generichttp.MethodPath{Method: http.MethodPost, Path: "/b"}: nil,
		generichttp.MethodPath{Method: http.MethodGet, Path: "/a"}:  nil,
	}
	assert.Equal(t, []string{"GET /a", "POST /b"}, rt.Endpoints())
}

func TestSubMuxSanitize(t *testing.T) {
	assert.Equal(t, "/seraph", generichttp.SubMuxSanitize("seraph/"))
	assert.Equal(t, "/a/b", generichttp.SubMuxSanitize("/a/b"))
}

func TestIntHandler(t *testing.T) {
	v := 7
	rt := generichttp.RouteTable{
		generichttp.MethodPath{Method: http.MethodGet, Path: "/v"}: generichttp.GetInt(func() (int, error) {
			if v < 0 {
				return 0, errors.New("negative")
			}
			return v, nil
		}),
	}
	r := chi.NewRouter()
	rt.Bind(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v", nil))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"int": 7}`, w.Body.String())

	v = -1
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestStringHandler(t *testing.T) {
	w := httptest.NewRecorder()
	generichttp.GetString(func() (string, error) { return "Seraph 8", nil })(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.JSONEq(t, `{"str": "Seraph 8"}`, w.Body.String())
}
