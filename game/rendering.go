package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/stablefluids/palette"
	"github.com/pthm-cable/stablefluids/telemetry"
	"github.com/pthm-cable/stablefluids/ui"
)

const controlsLegend = "[Drag] Inject  [Space] Pause  [C] Clear  [</>] Steps  [Tab] Panel  [P] Perf  [F11] Fullscreen"

// Draw renders the density field and the UI.
func (g *Game) Draw() {
	g.perfCollector.RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	w := g.drag.Mapper.Width
	h := g.drag.Mapper.Height

	g.density.Update(g.sim)
	g.density.Draw(w, h)

	g.hud.Draw(ui.HUDData{
		Title:     g.cfg.Screen.Title,
		Tick:      g.tick,
		Steps:     g.stepsPerUpdate,
		FPS:       rl.GetFPS(),
		TickTime:  g.perfCollector.LastTick(),
		Mass:      g.sim.Density.Cur.Sum(),
		Viscosity: g.viscosity,
		Diffusion: g.diffusion,
		Emitters:  g.emitters.Count(),
		Clients:   g.clients(),
		Paused:    g.paused,
	})
	g.hud.DrawControls(int32(h), controlsLegend)

	if g.showPerf {
		stats := g.perfCollector.Stats()
		g.perf.Draw(ui.PerfPanelData{
			PhaseAvg: stats.PhaseAvg,
			Total:    stats.AvgTickDuration,
			Order:    telemetry.Phases,
		})
	}

	g.drawControls()

	rl.EndDrawing()
}

// drawControls runs the parameter panel and applies its edits.
func (g *Game) drawControls() {
	state := ui.ControlsState{
		Viscosity:  g.viscosity,
		Diffusion:  g.diffusion,
		Tint:       g.palette.Tint(),
		HuePalette: g.palette.Mode() == palette.ModeHue,
		Paused:     g.paused,
	}

	actions := g.controls.Draw(&state)

	g.SetParameters(state.Viscosity, state.Diffusion)
	g.palette.SetTint(state.Tint[0], state.Tint[1], state.Tint[2])

	if actions.Clear {
		g.Reset()
	}
	if actions.TogglePause {
		g.paused = !g.paused
	}
	if actions.TogglePalette {
		if state.HuePalette {
			g.palette.SetMode(palette.ModeTint)
		} else {
			g.palette.SetMode(palette.ModeHue)
		}
	}
}

func (g *Game) clients() int {
	if g.hub == nil {
		return 0
	}
	return g.hub.Clients()
}
