package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simulated() Config {
	c := defaults
	c.Simulate = true
	return c
}

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	c := simulated()
	hw, err := openHardware(c)
	require.NoError(t, err)
	mux, err := BuildMux(c, hw.card)
	require.NoError(t, err)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		hw.Close()
	})
	return srv
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func TestOpenSimulated(t *testing.T) {
	hw, err := openHardware(simulated())
	require.NoError(t, err)
	defer hw.Close()
	assert.Equal(t, "Seraph 8", hw.card.Descriptor().Name)
	assert.Nil(t, hw.bar)
}

func TestOpenUnknownModel(t *testing.T) {
	c := simulated()
	c.SimulateModel = "Seraph 99"
	_, err := openHardware(c)
	assert.Error(t, err)
}

func TestModelAndStatus(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/seraph/model")
	require.NoError(t, err)
	defer resp.Body.Close()
	var s struct {
		Str string `json:"str"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&s))
	assert.Equal(t, "Seraph 8", s.Str)

	resp2, err := http.Get(srv.URL + "/seraph/status")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.Contains(t, resp2.Header.Get("Content-Type"), "text/plain")
}

func TestStateIsJSON(t *testing.T) {
	srv := testServer(t)
	resp, err := http.Get(srv.URL + "/seraph/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var m map[string]interface{}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
}

func TestEndpoints(t *testing.T) {
	srv := testServer(t)
	resp, err := http.Get(srv.URL + "/endpoints")
	require.NoError(t, err)
	defer resp.Body.Close()
	graph := map[string][]string{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&graph))
	routes := graph["/seraph"]
	assert.Contains(t, routes, "GET /controls")
	assert.Contains(t, routes, "GET /status")
	assert.Contains(t, routes, "POST /lock")
	assert.Contains(t, routes, "POST /stream/start")
}

func TestMetrics(t *testing.T) {
	srv := testServer(t)
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "seraph_speed_mode")
}

func TestLockBlocksWrites(t *testing.T) {
	srv := testServer(t)
	ctl := srv.URL + "/seraph/controls/dco-detune-cent"

	assert.Equal(t, http.StatusOK, post(t, ctl, `{"int": 10}`).StatusCode)
	assert.Equal(t, http.StatusOK, post(t, srv.URL+"/seraph/lock", `{"bool": true}`).StatusCode)
	assert.Equal(t, http.StatusLocked, post(t, ctl, `{"int": 20}`).StatusCode)

	resp, err := http.Get(ctl)
	require.NoError(t, err)
	defer resp.Body.Close()
	var v struct {
		Int int `json:"int"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	assert.Equal(t, 10, v.Int)

	assert.Equal(t, http.StatusOK, post(t, srv.URL+"/seraph/lock", `{"bool": false}`).StatusCode)
	assert.Equal(t, http.StatusOK, post(t, ctl, `{"int": 20}`).StatusCode)
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "0000:03:00.0")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, content := range map[string]string{
		"vendor":   "0x1382\n",
		"device":   "0x4980\n",
		"resource": "0x00000000fa000000 0x00000000fa000fff 0x0000000000040200\n",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	var buf bytes.Buffer
	require.NoError(t, scan(&buf, root))
	assert.Equal(t, "0000:03:00.0 [1382:4980]\tSeraph 8\n", buf.String())

	assert.Error(t, scan(&buf, t.TempDir()))
}

func TestLocalURL(t *testing.T) {
	c := defaults
	assert.Equal(t, "http://localhost:8000/seraph/status", localURL(c, "/status"))
	c.Addr = "10.0.0.2:9000"
	c.Root = "card0/"
	assert.Equal(t, "http://10.0.0.2:9000/card0/status", localURL(c, "/status"))
}

func TestStatusCommand(t *testing.T) {
	srv := testServer(t)
	c := defaults
	c.Addr = strings.TrimPrefix(srv.URL, "http://")
	var buf bytes.Buffer
	require.NoError(t, status(&buf, c))
	assert.NotEmpty(t, buf.String())
}

func TestAnnounceDisabled(t *testing.T) {
	zc, err := announce(defaults)
	assert.NoError(t, err)
	assert.Nil(t, zc)
}
