package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/stablefluids/input"
)

// Update handles input and runs StepsPerUpdate ticks at the frame dt.
func (g *Game) Update() {
	if g.headless {
		g.UpdateHeadless()
		return
	}

	g.handleInput()
	g.samplePointer()

	if g.paused {
		// Keep the drag origin current so resuming does not inject a jump.
		g.drag.Apply(g.sim, input.Pointer{X: g.pointer.X, Y: g.pointer.Y})
		g.hasPointer = false
		return
	}

	dt := g.cfg.StepDT(rl.GetFrameTime())
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.step(dt)
	}
}

// handleInput processes keyboard input.
func (g *Game) handleInput() {
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}

	if rl.IsKeyPressed(rl.KeyC) {
		g.Reset()
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.stepsPerUpdate > 1 {
		g.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerUpdate < maxStepsPerUpdate {
		g.stepsPerUpdate++
	}

	if rl.IsKeyPressed(rl.KeyTab) {
		g.controls.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyP) {
		g.showPerf = !g.showPerf
	}
}

// samplePointer records the mouse state for the next step. Presses over
// the controls panel belong to the widgets.
func (g *Game) samplePointer() {
	pos := rl.GetMousePosition()
	g.pointer = input.Pointer{
		X:        pos.X,
		Y:        pos.Y,
		Down:     rl.IsMouseButtonDown(rl.MouseButtonLeft),
		Captured: g.controls.Contains(pos.X, pos.Y),
	}
	g.hasPointer = true
}

// handleResize keeps pointer mapping and panel placement in step with the window.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.drag.Mapper.Width && h == g.drag.Mapper.Height {
		return
	}
	g.drag.Mapper.Width = w
	g.drag.Mapper.Height = h
	g.controls.SetPosition(int32(w)-g.controls.Width()-10, 10)
}
