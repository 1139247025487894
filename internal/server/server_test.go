package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/zeusync/magfield/internal/config"
	"github.com/zeusync/magfield/internal/core/field"
	"github.com/zeusync/magfield/internal/core/geometry"
	"github.com/zeusync/magfield/internal/scene"
)

func newTestServer(t *testing.T) (*Server, *scene.Scene, string) {
	t.Helper()
	sc, err := scene.New(scene.DefaultOptions(), nil, nil)
	require.NoError(t, err)
	_, err = sc.AddConductor(geometry.P(0, 0), 100, &field.Color{R: 255})
	require.NoError(t, err)

	srv := NewServer(DefaultServerConfig(), sc, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Close()
	})
	return srv, sc, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, req map[string]any) Response {
	t.Helper()
	require.NoError(t, conn.WriteJSON(req))
	return read(t, conn)
}

func read(t *testing.T, conn *websocket.Conn) Response {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var resp Response
	require.NoError(t, conn.ReadJSON(&resp))
	return resp
}

func TestListConductors(t *testing.T) {
	_, _, url := newTestServer(t)
	conn := dial(t, url)

	resp := roundTrip(t, conn, map[string]any{"action": "list"})
	assert.Equal(t, TypeConductors, resp.Type)
	require.Len(t, resp.Conductors, 1)
	assert.Equal(t, 100.0, resp.Conductors[0].Amperage)
	assert.Equal(t, field.Color{R: 255}, resp.Conductors[0].Color)
}

func TestMutationsAreBroadcast(t *testing.T) {
	_, sc, url := newTestServer(t)
	alice := dial(t, url)
	bob := dial(t, url)

	// make sure both sessions are registered before mutating
	roundTrip(t, alice, map[string]any{"action": "list"})
	roundTrip(t, bob, map[string]any{"action": "list"})

	require.NoError(t, alice.WriteJSON(map[string]any{
		"action": "add_conductor", "x": 0.5, "y": 0.5, "amperage": -20, "color": "#00ff00",
	}))

	for _, conn := range []*websocket.Conn{alice, bob} {
		resp := read(t, conn)
		assert.Equal(t, TypeConductors, resp.Type)
		assert.Equal(t, scene.EventConductorAdded, resp.Event)
		require.NotNil(t, resp.Conductor)
		assert.Equal(t, -20.0, resp.Conductor.Amperage)
		assert.Len(t, resp.Conductors, 2)
	}
	assert.Len(t, sc.Conductors(), 2)

	require.NoError(t, bob.WriteJSON(map[string]any{"action": "update_conductor", "id": 2, "amperage": 5}))
	resp := read(t, alice)
	assert.Equal(t, scene.EventConductorUpdated, resp.Event)
	assert.Equal(t, 5.0, resp.Conductor.Amperage)
	assert.Equal(t, field.Color{G: 255}, resp.Conductor.Color)
}

func TestAddConductorKeepsBlack(t *testing.T) {
	_, sc, url := newTestServer(t)
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"action": "add_conductor", "x": 0, "y": 0.5, "amperage": 5, "color": "#000000",
	}))
	resp := read(t, conn)
	require.NotNil(t, resp.Conductor)
	assert.Equal(t, field.Color{}, resp.Conductor.Color)

	stored, ok := sc.Conductor(resp.Conductor.ID)
	require.True(t, ok)
	assert.Equal(t, "#000000", stored.Color.Hex())
}

func TestRemoveLastConductorIsRefused(t *testing.T) {
	_, _, url := newTestServer(t)
	conn := dial(t, url)

	resp := roundTrip(t, conn, map[string]any{"action": "remove_conductor", "id": 1})
	assert.Equal(t, TypeError, resp.Type)
	assert.Equal(t, scene.ErrLastConductor.Error(), resp.Error)
}

func TestSessionsHaveIndependentCameras(t *testing.T) {
	_, _, url := newTestServer(t)
	alice := dial(t, url)
	bob := dial(t, url)

	resp := roundTrip(t, alice, map[string]any{"action": "move_camera", "direction": "up"})
	require.Equal(t, TypeCamera, resp.Type)
	assert.InDelta(t, 0.1, resp.Camera.Center.Y, 1e-12)

	resp = roundTrip(t, alice, map[string]any{"action": "zoom", "value": 2})
	assert.Equal(t, 2.0, resp.Camera.Zoom)

	resp = roundTrip(t, bob, map[string]any{"action": "zoom", "step": "in"})
	assert.Equal(t, 1.1, resp.Camera.Zoom)
	assert.Equal(t, geometry.Origin, resp.Camera.Center)
}

func TestFrameAndProbe(t *testing.T) {
	_, _, url := newTestServer(t)
	conn := dial(t, url)

	resp := roundTrip(t, conn, map[string]any{"action": "resize", "width": 400, "height": 400})
	require.Equal(t, TypeCamera, resp.Type)

	resp = roundTrip(t, conn, map[string]any{"action": "frame"})
	require.Equal(t, TypeFrame, resp.Type)
	assert.Equal(t, 40, resp.Frame.Width)
	assert.Equal(t, 40, resp.Frame.Height)
	assert.Len(t, resp.Frame.Cells, 1600)
	assert.Equal(t, -1.0, resp.Frame.Cells[0].X)
	assert.Equal(t, 1.0, resp.Frame.Cells[0].Y)

	// the grid passes through the conductor at the origin
	singular := 0
	for _, c := range resp.Frame.Cells {
		if c.Singular {
			singular++
		}
	}
	assert.Equal(t, 1, singular)

	// screen (400, 200) is world (1, 0)
	resp = roundTrip(t, conn, map[string]any{"action": "probe", "x": 400, "y": 200})
	require.Equal(t, TypeProbe, resp.Type)
	assert.Equal(t, "2.000e-5", resp.Probe.Magnitude)
	assert.InDelta(t, 2e-5, resp.Probe.DY, 1e-18)
	require.Len(t, resp.Probe.Contributions, 1)
}

func TestInvalidRequests(t *testing.T) {
	_, _, url := newTestServer(t)
	conn := dial(t, url)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	resp := read(t, conn)
	assert.Equal(t, TypeError, resp.Type)

	for _, req := range []map[string]any{
		{"action": "teleport"},
		{"action": "add_conductor", "x": 1},
		{"action": "add_conductor", "x": 1, "y": 1, "amperage": 1, "color": "blue"},
		{"action": "move_camera", "direction": "sideways"},
		{"action": "zoom"},
		{"action": "resize", "width": 0, "height": 10},
		{"action": "probe"},
	} {
		resp = roundTrip(t, conn, req)
		assert.Equal(t, TypeError, resp.Type, "request %v", req)
		assert.NotEmpty(t, resp.Error)
	}
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var stats Stats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, 1, stats.ConductorCount)
}

func TestMaxSessions(t *testing.T) {
	sc, err := scene.New(scene.DefaultOptions(), nil, nil)
	require.NoError(t, err)
	cfg := DefaultServerConfig()
	cfg.MaxSessions = 1
	srv := NewServer(cfg, sc, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	dial(t, url)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestStartStopLifecycle(t *testing.T) {
	sc, err := scene.New(scene.DefaultOptions(), nil, nil)
	require.NoError(t, err)
	cfg := DefaultServerConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	srv := NewServer(cfg, sc, nil)

	ctx := context.Background()
	require.NoError(t, srv.Start(ctx))
	assert.ErrorIs(t, srv.Start(ctx), ErrServerAlreadyRunning)
	assert.True(t, srv.GetStats().Running)

	conn := dial(t, "ws://"+srv.Addr().String()+"/ws")
	roundTrip(t, conn, map[string]any{"action": "list"})

	require.NoError(t, srv.Stop(ctx))
	assert.ErrorIs(t, srv.Stop(ctx), ErrServerNotRunning)

	require.NoError(t, srv.Close())
	assert.ErrorIs(t, srv.Start(ctx), ErrServerClosed)
}

func TestRunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	sc, err := scene.New(scene.DefaultOptions(), nil, nil)
	require.NoError(t, err)
	cfg := DefaultServerConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	srv := NewServer(cfg, sc, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	require.Eventually(t, func() bool { return srv.GetStats().Running }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, srv.GetStats().Running)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _, url := newTestServer(t)
	conn := dial(t, url)
	roundTrip(t, conn, map[string]any{"action": "list"})
	roundTrip(t, conn, map[string]any{"action": "frame"})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `magfield_requests_total{action="list",status="ok"} 1`)
	assert.Contains(t, body, "magfield_frame_duration_seconds_count 1")
	assert.Contains(t, body, "magfield_conductors 1")
	assert.Contains(t, body, "magfield_sessions 1")
}

func TestMetricsDisabled(t *testing.T) {
	sc, err := scene.New(scene.DefaultOptions(), nil, nil)
	require.NoError(t, err)
	cfg := DefaultServerConfig()
	cfg.EnableMetrics = false
	srv := NewServer(cfg, sc, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	sc, err := scene.New(scene.DefaultOptions(), nil, nil)
	require.NoError(t, err)
	_, err = sc.AddConductor(geometry.P(0, 0), 100, &field.Color{R: 255})
	require.NoError(t, err)

	cfg := DefaultServerConfig()
	cfg.RequestRate = 0.001
	cfg.RequestBurst = 2
	srv := NewServer(cfg, sc, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	defer srv.Close()
	conn := dial(t, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws")

	for range 2 {
		assert.Equal(t, TypeConductors, roundTrip(t, conn, map[string]any{"action": "list"}).Type)
	}
	resp := roundTrip(t, conn, map[string]any{"action": "list"})
	assert.Equal(t, TypeError, resp.Type)
	assert.Contains(t, resp.Error, ErrRateLimited.Error())
}

func TestConfigFrom(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Addr = ":9090"
	cfg.Server.RequestRate = 0
	cfg.Server.Metrics = false
	cfg.Display.Width, cfg.Display.Height = 1024, 768

	c := ConfigFrom(cfg)
	assert.Equal(t, ":9090", c.ListenAddr)
	assert.Zero(t, c.RequestRate)
	assert.False(t, c.EnableMetrics)
	assert.Equal(t, 1024.0, c.Viewport.Width)
	assert.Equal(t, 768.0, c.Viewport.Height)
	assert.Equal(t, cfg.Server.MaxMessageSize, c.MaxMessageSize)
}

func TestStoppedServerRefusesSessions(t *testing.T) {
	sc, err := scene.New(scene.DefaultOptions(), nil, nil)
	require.NoError(t, err)
	cfg := DefaultServerConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	srv := NewServer(cfg, sc, nil)
	defer srv.Close()

	ctx := context.Background()
	require.NoError(t, srv.Start(ctx))
	require.NoError(t, srv.Stop(ctx))

	// the handler can outlive the listener when embedded elsewhere
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Zero(t, srv.GetStats().SessionCount)

	// a restart admits sessions again
	require.NoError(t, srv.Start(ctx))
	conn := dial(t, "ws://"+srv.Addr().String()+"/ws")
	assert.Equal(t, TypeConductors, roundTrip(t, conn, map[string]any{"action": "list"}).Type)
	require.NoError(t, srv.Stop(ctx))
}

func TestDefaultListenAddrMatchesConfig(t *testing.T) {
	assert.Equal(t, config.Default().Server.Addr, DefaultServerConfig().ListenAddr)
}
