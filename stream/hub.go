// Package stream serves density frames to websocket clients and collects
// splats they send back.
package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/stablefluids/config"
	"github.com/pthm-cable/stablefluids/fluid"
)

// Frame is one quantized density snapshot. Density holds N×N bytes in
// grid row order, bottom row first; JSON carries it as base64.
type Frame struct {
	Type    string `json:"type"`
	Tick    int32  `json:"tick"`
	N       int    `json:"n"`
	Density []byte `json:"density"`
}

// Splat is a source sent by a client. X and Y are fractions of the grid
// with y pointing up.
type Splat struct {
	Type    string  `json:"type"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Density float64 `json:"density"`
	VX      float64 `json:"vx"`
	VY      float64 `json:"vy"`
}

// Apply injects the splat into sim and returns the density added. Splats
// whose values do not fit a finite float32 are ignored.
func (s Splat) Apply(sim *fluid.Simulation) float32 {
	density, vx, vy := float32(s.Density), float32(s.VX), float32(s.VY)
	if !finite32(density) || !finite32(vx) || !finite32(vy) {
		return 0
	}
	x := cellFor(s.X, sim.N)
	y := cellFor(s.Y, sim.N)
	if !sim.AddDensity(x, y, density) {
		return 0
	}
	sim.AddVelocity(x, y, vx, vy)
	return density
}

// Clamp limits density to [0, maxDensity] and each velocity component to
// [-maxVelocity, maxVelocity]. It reports false for splats carrying NaN or
// infinite values, which must be dropped.
func (s Splat) Clamp(maxDensity, maxVelocity float64) (Splat, bool) {
	for _, v := range []float64{s.X, s.Y, s.Density, s.VX, s.VY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return s, false
		}
	}
	s.Density = math.Min(math.Max(s.Density, 0), maxDensity)
	s.VX = math.Min(math.Max(s.VX, -maxVelocity), maxVelocity)
	s.VY = math.Min(math.Max(s.VY, -maxVelocity), maxVelocity)
	return s, true
}

func finite32(v float32) bool {
	return !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
}

// cellFor maps [0,1] into 1..n. Values outside map into the ghost ring.
func cellFor(frac float64, n int) int {
	if !(frac >= 0 && frac <= 1) {
		return 0
	}
	c := int(frac*float64(n)) + 1
	if c > n {
		c = n
	}
	return c
}

const (
	// writeWait bounds how long one frame write may take before the
	// client is disconnected.
	writeWait = time.Second

	defaultClientBuffer     = 4
	defaultMaxSplatDensity  = 1000
	defaultMaxSplatVelocity = 100
)

// client is one connection. Frames are handed to its writer goroutine
// through send; a full buffer drops the frame.
type client struct {
	conn *websocket.Conn
	send chan *Frame
}

// Hub tracks connected clients. Broadcast and Drain are called from the
// simulation goroutine and never block on the network.
type Hub struct {
	upgrader      websocket.Upgrader
	frameInterval time.Duration
	clientBuffer  int
	maxDensity    float64
	maxVelocity   float64
	splats        chan Splat

	clientsMu sync.RWMutex
	clients   map[*client]struct{}
	latest    *Frame

	lastBroadcast time.Time
	quant         []byte
	dropped       atomic.Int64
}

// NewHub creates a hub using the server settings.
func NewHub(cfg config.ServerConfig) *Hub {
	pending := cfg.MaxPending
	if pending < 1 {
		pending = 1
	}
	buffer := cfg.ClientBuffer
	if buffer < 1 {
		buffer = defaultClientBuffer
	}
	maxDensity := cfg.MaxSplatDensity
	if maxDensity <= 0 {
		maxDensity = defaultMaxSplatDensity
	}
	maxVelocity := cfg.MaxSplatVelocity
	if maxVelocity <= 0 {
		maxVelocity = defaultMaxSplatVelocity
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		frameInterval: time.Duration(cfg.FrameIntervalMS) * time.Millisecond,
		clientBuffer:  buffer,
		maxDensity:    maxDensity,
		maxVelocity:   maxVelocity,
		splats:        make(chan Splat, pending),
		clients:       make(map[*client]struct{}),
	}
}

// Handler returns the HTTP handler serving the websocket at /ws.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWebSocket)
	return mux
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Pending returns the number of queued splats.
func (h *Hub) Pending() int {
	return len(h.splats)
}

// DroppedFrames returns how many frames were skipped for slow clients.
func (h *Hub) DroppedFrames() int64 {
	return h.dropped.Load()
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	c := &client{conn: conn, send: make(chan *Frame, h.clientBuffer)}
	h.clientsMu.Lock()
	h.clients[c] = struct{}{}
	if h.latest != nil {
		c.send <- h.latest
	}
	h.clientsMu.Unlock()
	slog.Info("stream client connected", "remote", r.RemoteAddr, "clients", h.Clients())

	go h.writeFrames(c)

	defer func() {
		h.clientsMu.Lock()
		delete(h.clients, c)
		close(c.send)
		h.clientsMu.Unlock()
		slog.Info("stream client disconnected", "remote", r.RemoteAddr, "clients", h.Clients())
	}()

	for {
		var msg Splat
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("websocket read ended", "remote", r.RemoteAddr, "error", err)
			}
			return
		}
		if msg.Type != "" && msg.Type != "splat" {
			continue
		}
		msg, ok := msg.Clamp(h.maxDensity, h.maxVelocity)
		if !ok {
			slog.Warn("rejecting non-finite splat", "remote", r.RemoteAddr)
			continue
		}
		select {
		case h.splats <- msg:
		default:
			slog.Warn("splat queue full, dropping", "remote", r.RemoteAddr)
		}
	}
}

// writeFrames is the only writer of c.conn's data frames. It exits when
// send is closed or a write fails; closing the connection also ends the
// read loop, which unregisters the client.
func (h *Hub) writeFrames(c *client) {
	for frame := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(frame); err != nil {
			slog.Debug("stream write failed", "remote", c.conn.RemoteAddr().String(), "error", err)
			c.conn.Close()
			for range c.send {
			}
			return
		}
	}
}

// Drain applies every queued splat to sim without blocking and returns how
// many were applied and the density they added.
func (h *Hub) Drain(sim *fluid.Simulation) (int, float32) {
	var applied int
	var injected float32
	for {
		select {
		case s := <-h.splats:
			injected += s.Apply(sim)
			applied++
		default:
			return applied, injected
		}
	}
}

// MaybeBroadcast sends a frame if the frame interval has elapsed since the
// last one. It reports whether a frame was sent.
func (h *Hub) MaybeBroadcast(now time.Time, tick int32, sim *fluid.Simulation, scratch []float32) bool {
	if now.Sub(h.lastBroadcast) < h.frameInterval {
		return false
	}
	h.lastBroadcast = now
	h.Broadcast(tick, sim.N, sim.DensityInterior(scratch))
	return true
}

// Broadcast quantizes an N×N density readout and queues it for every
// client. Clients whose queue is full miss this frame.
func (h *Hub) Broadcast(tick int32, n int, density []float32) {
	if cap(h.quant) < len(density) {
		h.quant = make([]byte, len(density))
	}
	h.quant = h.quant[:len(density)]
	for i, d := range density {
		h.quant[i] = quantize(d)
	}

	frame := &Frame{
		Type:    "frame",
		Tick:    tick,
		N:       n,
		Density: append([]byte(nil), h.quant...),
	}

	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	h.latest = frame
	for c := range h.clients {
		select {
		case c.send <- frame:
		default:
			h.dropped.Add(1)
		}
	}
}

func quantize(d float32) byte {
	if d <= 0 || d != d {
		return 0
	}
	if d >= 1 {
		return 255
	}
	return byte(d*255 + 0.5)
}

// Run serves the hub on addr until ctx is cancelled.
func (h *Hub) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("stream server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("stream server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	// Hijacked websocket connections are not closed by Shutdown.
	h.closeAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("stream server shutdown: %w", err)
	}
	slog.Info("stream server stopped")
	return nil
}

func (h *Hub) closeAll() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	deadline := time.Now().Add(writeWait)
	for c := range h.clients {
		c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"), deadline)
		c.conn.Close()
	}
}
