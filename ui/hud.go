package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title     string
	Tick      int32
	Steps     int
	FPS       int32
	TickTime  time.Duration
	Mass      float32
	Viscosity float32
	Diffusion float32
	Emitters  int
	Clients   int
	Paused    bool
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Tick: %d | Steps: %dx | FPS: %d | Step: %s", data.Tick, data.Steps, data.FPS, data.TickTime.Round(time.Microsecond)),
		10, 35, 16, rl.LightGray,
	)

	rl.DrawText(
		fmt.Sprintf("Mass: %.1f | Visc: %.4f | Diff: %.4f", data.Mass, data.Viscosity, data.Diffusion),
		10, 55, 16, rl.LightGray,
	)

	rl.DrawText(
		fmt.Sprintf("Emitters: %d | Clients: %d", data.Emitters, data.Clients),
		10, 75, 16, rl.LightGray,
	)

	statusText := "Running"
	if data.Paused {
		statusText = "PAUSED"
	}
	rl.DrawText(statusText, 10, 95, 16, rl.Yellow)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanelData holds per-phase timing for display.
type PerfPanelData struct {
	PhaseAvg map[string]time.Duration
	Total    time.Duration
	Order    []string
}

// PerfPanel renders the phase timing panel.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel with phases in data.Order.
func (p *PerfPanel) Draw(data PerfPanelData) {
	x := p.x
	y := p.y

	p.renderer.DrawPanel(x-6, y-6, 250, int32(44+14*len(data.Order)))

	rl.DrawText("Step Phases", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Total: %s", data.Total.Round(time.Microsecond)), x, y, 14, rl.Yellow)
	y += 16

	for _, name := range data.Order {
		avg := data.PhaseAvg[name]
		pct := float64(0)
		if data.Total > 0 {
			pct = float64(avg) / float64(data.Total) * 100
		}

		color := rl.LightGray
		if pct > 40 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-16s %8s %5.1f%%", name, avg.Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
