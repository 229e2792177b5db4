package stream

import (
	"context"
	"encoding/json"
	"math"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/stablefluids/config"
	"github.com/pthm-cable/stablefluids/fluid"
)

func testConfig() config.ServerConfig {
	return config.ServerConfig{Addr: "127.0.0.1:0", FrameIntervalMS: 50, MaxPending: 4}
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestQuantize(t *testing.T) {
	tests := []struct {
		d    float32
		want byte
	}{
		{-1, 0},
		{0, 0},
		{0.5, 128},
		{1, 255},
		{40, 255},
	}
	for _, tt := range tests {
		if got := quantize(tt.d); got != tt.want {
			t.Errorf("quantize(%v) = %d, want %d", tt.d, got, tt.want)
		}
	}
}

func TestSplatApply(t *testing.T) {
	sim := fluid.New(10)
	got := Splat{X: 0.55, Y: 1, Density: 20, VX: 1, VY: 2}.Apply(sim)
	if got != 20 {
		t.Fatalf("Apply = %v, want 20", got)
	}
	if sim.Density.Cur.At(6, 10) != 20 {
		t.Errorf("density at (6,10) = %v, want 20", sim.Density.Cur.At(6, 10))
	}
	if sim.U.Cur.At(6, 10) != 1 || sim.V.Cur.At(6, 10) != 2 {
		t.Error("velocity not injected")
	}

	if got := (Splat{X: -0.1, Y: 0.5, Density: 5}).Apply(sim); got != 0 {
		t.Errorf("off-grid splat injected %v", got)
	}
}

func TestSplatApplyIgnoresOverflow(t *testing.T) {
	var s Splat
	if err := json.Unmarshal([]byte(`{"type":"splat","x":0.5,"y":0.5,"density":1e300,"vx":1e300}`), &s); err != nil {
		t.Fatal(err)
	}

	sim := fluid.New(16)
	if got := s.Apply(sim); got != 0 {
		t.Errorf("Apply = %v, want 0 for a splat that overflows float32", got)
	}
	sim.Step(0.016, 1e-4, 1e-4)

	for _, grid := range []*fluid.Grid{sim.Density.Cur, sim.U.Cur, sim.V.Cur} {
		for _, v := range grid.Cells {
			if v != 0 {
				t.Fatalf("field changed by rejected splat: %v", v)
			}
		}
	}
}

func TestSplatClamp(t *testing.T) {
	tests := []struct {
		name   string
		in     Splat
		want   Splat
		wantOK bool
	}{
		{"within limits", Splat{X: 0.5, Y: 0.5, Density: 10, VX: 1, VY: -1}, Splat{X: 0.5, Y: 0.5, Density: 10, VX: 1, VY: -1}, true},
		{"huge values", Splat{X: 0.5, Y: 0.5, Density: 1e300, VX: 1e300, VY: -1e300}, Splat{X: 0.5, Y: 0.5, Density: 50, VX: 2, VY: -2}, true},
		{"negative density", Splat{X: 0.5, Y: 0.5, Density: -5}, Splat{X: 0.5, Y: 0.5}, true},
		{"nan position", Splat{X: math.NaN(), Y: 0.5, Density: 1}, Splat{}, false},
		{"infinite velocity", Splat{X: 0.5, Y: 0.5, VX: math.Inf(1)}, Splat{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.in.Clamp(50, 2)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Clamp = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestHubClampsRemoteSplats(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSplatDensity = 50
	cfg.MaxSplatVelocity = 2
	hub := NewHub(cfg)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	for _, msg := range []string{
		`{"type":"splat","x":0.5,"y":0.5,"density":1e300,"vx":1e300,"vy":-1e300}`,
		`{"type":"splat","x":0.25,"y":0.25,"density":3}`,
	} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			t.Fatalf("WriteMessage: %v", err)
		}
	}
	waitFor(t, "queued splats", func() bool { return hub.Pending() == 2 })

	sim := fluid.New(8)
	applied, injected := hub.Drain(sim)
	if applied != 2 || injected != 53 {
		t.Errorf("Drain = (%d, %v), want (2, 53)", applied, injected)
	}
	if got := sim.U.Cur.At(5, 5); got != 2 {
		t.Errorf("u at (5,5) = %v, want clamped 2", got)
	}
	if got := sim.V.Cur.At(5, 5); got != -2 {
		t.Errorf("v at (5,5) = %v, want clamped -2", got)
	}

	for i := 0; i < 5; i++ {
		sim.Step(0.016, 1e-4, 1e-4)
	}
	for _, v := range sim.Density.Cur.Cells {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("density not finite after clamped splats: %v", v)
		}
	}
}

func TestBroadcastDoesNotBlockOnStalledClient(t *testing.T) {
	hub := NewHub(testConfig())
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	dial(t, srv) // never reads
	waitFor(t, "client registration", func() bool { return hub.Clients() == 1 })

	const n = 256
	density := make([]float32, n*n)
	for i := range density {
		density[i] = float32(i%7) / 7
	}

	start := time.Now()
	for tick := int32(1); tick <= 400; tick++ {
		hub.Broadcast(tick, n, density)
	}
	if elapsed := time.Since(start); elapsed > writeWait {
		t.Errorf("400 broadcasts to a stalled client took %v, want under %v", elapsed, writeWait)
	}
	waitFor(t, "dropped frames", func() bool { return hub.DroppedFrames() > 0 })

	reader := dial(t, srv)
	reader.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame Frame
	if err := reader.ReadJSON(&frame); err != nil {
		t.Fatalf("ReadJSON on healthy client: %v", err)
	}
	if frame.Tick != 400 {
		t.Errorf("healthy client first frame tick = %d, want latest 400", frame.Tick)
	}
}

func TestHubBroadcastsFrames(t *testing.T) {
	hub := NewHub(testConfig())
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	waitFor(t, "client registration", func() bool { return hub.Clients() == 1 })

	hub.Broadcast(7, 2, []float32{0, 0.5, 1, 3})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame Frame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if frame.Type != "frame" || frame.Tick != 7 || frame.N != 2 {
		t.Errorf("frame header = %+v", frame)
	}
	want := []byte{0, 128, 255, 255}
	if string(frame.Density) != string(want) {
		t.Errorf("density = %v, want %v", frame.Density, want)
	}
}

func TestHubSendsLatestFrameOnConnect(t *testing.T) {
	hub := NewHub(testConfig())
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	hub.Broadcast(3, 1, []float32{1})
	conn := dial(t, srv)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame Frame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if frame.Tick != 3 {
		t.Errorf("initial frame tick = %d, want 3", frame.Tick)
	}
}

func TestHubQueuesSplats(t *testing.T) {
	hub := NewHub(testConfig())
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	for _, s := range []Splat{
		{Type: "splat", X: 0.5, Y: 0.5, Density: 10},
		{Type: "noise", X: 0.5, Y: 0.5, Density: 99},
		{X: 0.1, Y: 0.1, Density: 5},
	} {
		if err := conn.WriteJSON(s); err != nil {
			t.Fatalf("WriteJSON: %v", err)
		}
	}
	waitFor(t, "queued splats", func() bool { return hub.Pending() == 2 })

	sim := fluid.New(8)
	applied, injected := hub.Drain(sim)
	if applied != 2 || injected != 15 {
		t.Errorf("Drain = (%d, %v), want (2, 15)", applied, injected)
	}
	if sim.Density.Cur.Sum() != 15 {
		t.Errorf("mass = %v, want 15", sim.Density.Cur.Sum())
	}
	if applied, _ := hub.Drain(sim); applied != 0 {
		t.Errorf("second Drain applied %d", applied)
	}
}

func TestHubDropsWhenQueueFull(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPending = 1
	hub := NewHub(cfg)
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	for i := 0; i < 3; i++ {
		if err := conn.WriteJSON(Splat{X: 0.5, Y: 0.5, Density: 1}); err != nil {
			t.Fatal(err)
		}
	}
	waitFor(t, "client registration", func() bool { return hub.Clients() == 1 })
	waitFor(t, "queued splat", func() bool { return hub.Pending() == 1 })
	time.Sleep(20 * time.Millisecond)

	if got := hub.Pending(); got != 1 {
		t.Errorf("Pending = %d, want queue capped at 1", got)
	}
}

func TestMaybeBroadcastRateLimit(t *testing.T) {
	hub := NewHub(testConfig())
	sim := fluid.New(4)
	now := time.Now()

	if !hub.MaybeBroadcast(now, 1, sim, nil) {
		t.Fatal("first broadcast suppressed")
	}
	if hub.MaybeBroadcast(now.Add(10*time.Millisecond), 2, sim, nil) {
		t.Error("broadcast inside frame interval")
	}
	if !hub.MaybeBroadcast(now.Add(60*time.Millisecond), 3, sim, nil) {
		t.Error("broadcast suppressed after frame interval")
	}
}

func TestRunShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	hub := NewHub(testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx, addr) }()

	var conn *websocket.Conn
	waitFor(t, "server start", func() bool {
		c, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
		if err != nil {
			return false
		}
		conn = c
		return true
	})
	defer conn.Close()
	waitFor(t, "client registration", func() bool { return hub.Clients() == 1 })

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected connection to be closed")
	}
}
