package pcm_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nasa-jpl/seraph/dma"
	"github.com/nasa-jpl/seraph/generichttp/pcm"
	"github.com/nasa-jpl/seraph/mmio"
	"github.com/nasa-jpl/seraph/seraph"
	"github.com/nasa-jpl/seraph/server"
	"github.com/nasa-jpl/seraph/stream"
)

func setup(t *testing.T) (*seraph.Card, http.Handler) {
	t.Helper()
	regs := mmio.NewMock()
	seraph.Simulate(regs, 48000)
	v, err := seraph.NewVariant(seraph.Seraph8)
	require.NoError(t, err)
	c, err := seraph.New(regs, &dma.Heap{}, v, seraph.WithSleep(func(time.Duration) {}))
	require.NoError(t, err)
	r := chi.NewRouter()
	pcm.NewHTTPStreamer(c).RT().Bind(r)
	return c, r
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

const params = `{"rate": 96000, "channels": 8, "periodFrames": 2048, "format": "S32_LE"}`

func TestLifecycle(t *testing.T) {
	c, h := setup(t)
	require.Equal(t, http.StatusOK, do(h, http.MethodPost, "/stream/playback/open", "").Code)

	w := do(h, http.MethodPost, "/stream/playback/configure", params)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var l stream.Layout
	require.NoError(t, json.NewDecoder(w.Body).Decode(&l))
	assert.Equal(t, uint32(65536), l.PeriodBytes)
	assert.Equal(t, uint32(128), l.Blocks)

	require.Equal(t, http.StatusOK, do(h, http.MethodPost, "/stream/playback/prepare", "").Code)
	require.Equal(t, http.StatusOK, do(h, http.MethodPost, "/stream/start", "").Code)
	assert.Equal(t, stream.Running, c.State().Streams["playback"].State)

	w = do(h, http.MethodGet, "/stream/pointer", "")
	require.Equal(t, http.StatusOK, w.Code)
	var i server.IntT
	require.NoError(t, json.NewDecoder(w.Body).Decode(&i))
	assert.Greater(t, i.Int, 0)

	require.Equal(t, http.StatusOK, do(h, http.MethodPost, "/stream/stop", "").Code)
	require.Equal(t, http.StatusOK, do(h, http.MethodPost, "/stream/playback/close", "").Code)
	assert.Equal(t, stream.Closed, c.State().Streams["playback"].State)
}

func TestErrorStatus(t *testing.T) {
	_, h := setup(t)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPost, "/stream/sideways/open", "").Code)
	assert.Equal(t, http.StatusConflict, do(h, http.MethodPost, "/stream/capture/prepare", "").Code)
	assert.Equal(t, http.StatusConflict, do(h, http.MethodPost, "/stream/stop", "").Code)

	require.Equal(t, http.StatusOK, do(h, http.MethodPost, "/stream/capture/open", "").Code)
	bad := `{"rate": 48000, "channels": 8, "periodFrames": 2048, "format": "FLOAT_LE"}`
	assert.Equal(t, http.StatusUnprocessableEntity, do(h, http.MethodPost, "/stream/capture/configure", bad).Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPost, "/stream/capture/configure", `{"format": "S99"}`).Code)
}

func TestChannelOffset(t *testing.T) {
	_, h := setup(t)
	require.Equal(t, http.StatusOK, do(h, http.MethodPost, "/stream/playback/open", "").Code)
	require.Equal(t, http.StatusOK, do(h, http.MethodPost, "/stream/playback/configure", params).Code)

	w := do(h, http.MethodGet, "/stream/playback/channel/1/offset", "")
	require.Equal(t, http.StatusOK, w.Code)
	var o pcm.Offset
	require.NoError(t, json.NewDecoder(w.Body).Decode(&o))
	assert.Equal(t, pcm.Offset{First: 2162688, Step: 32}, o)

	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/stream/playback/channel/x/offset", "").Code)
}

func TestPorts(t *testing.T) {
	_, h := setup(t)
	w := do(h, http.MethodGet, "/stream/capture/ports", "")
	require.Equal(t, http.StatusOK, w.Code)
	var ports []string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&ports))
	assert.Len(t, ports, 8)
}

func TestCaptureWAV(t *testing.T) {
	_, h := setup(t)
	assert.Equal(t, http.StatusConflict, do(h, http.MethodGet, "/stream/capture.wav", "").Code)

	require.Equal(t, http.StatusOK, do(h, http.MethodPost, "/stream/capture/open", "").Code)
	p := `{"rate": 48000, "channels": 2, "periodFrames": 64, "format": "S32_LE"}`
	require.Equal(t, http.StatusOK, do(h, http.MethodPost, "/stream/capture/configure", p).Code)
	w := do(h, http.MethodGet, "/stream/capture.wav", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "audio/wav", w.Header().Get("Content-Type"))
	assert.Equal(t, "RIFF", w.Body.String()[:4])
}
