package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/stablefluids/config"
)

// ControlsState is the set of values the panel edits in place.
type ControlsState struct {
	Viscosity  float32
	Diffusion  float32
	Tint       [3]float32
	HuePalette bool
	Paused     bool
}

// ControlsActions reports buttons pressed during a frame.
type ControlsActions struct {
	Clear         bool
	TogglePause   bool
	TogglePalette bool
}

// ControlsPanel renders the parameter sliders and action buttons.
type ControlsPanel struct {
	renderer *Renderer
	ranges   config.ControlsConfig
	x, y     int32
	width    int32
	visible  bool
}

// NewControlsPanel creates a visible panel at (x, y).
func NewControlsPanel(x, y int32, ranges config.ControlsConfig) *ControlsPanel {
	width := int32(ranges.PanelWidth)
	if width <= 0 {
		width = 260
	}
	return &ControlsPanel{
		renderer: NewRenderer(),
		ranges:   ranges,
		x:        x,
		y:        y,
		width:    width,
		visible:  true,
	}
}

// SetPosition moves the panel.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x = x
	c.y = y
}

// Width returns the panel width.
func (c *ControlsPanel) Width() int32 {
	return c.width
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// sliderRows is the number of slider rows: viscosity, diffusion, R, G, B.
const sliderRows = 5

// height returns the panel height for its fixed content.
func (c *ControlsPanel) height() int32 {
	t := c.renderer.Theme
	title := t.LineHeight + 4
	sliders := sliderRows * (t.LineHeight + t.SliderHeight + 4)
	swatch := t.LineHeight
	buttons := 2 * (t.ButtonHeight + 6)
	return t.Padding*2 + title + sliders + swatch + buttons
}

// Contains reports whether window point (x, y) lies over the visible panel.
// Pointer input there belongs to the widgets, not the fluid.
func (c *ControlsPanel) Contains(x, y float32) bool {
	if !c.visible {
		return false
	}
	return x >= float32(c.x) && x < float32(c.x+c.width) &&
		y >= float32(c.y) && y < float32(c.y+c.height())
}

// Draw renders the panel, updating state from the widgets.
func (c *ControlsPanel) Draw(state *ControlsState) ControlsActions {
	var actions ControlsActions
	if !c.visible {
		return actions
	}

	r := c.renderer
	t := r.Theme
	r.DrawPanel(c.x, c.y, c.width, c.height())

	x := float32(c.x + t.Padding)
	y := c.y + t.Padding
	inner := float32(c.width - t.Padding*2)

	rl.DrawText("Controls", int32(x), y, 16, rl.White)
	y += t.LineHeight + 4

	slider := func(label string, value *float32, lo, hi float32, format string) {
		rl.DrawText(label, int32(x), y, t.FontSize, t.LabelColor)
		valueText := fmt.Sprintf(format, *value)
		rl.DrawText(valueText, int32(x+inner)-rl.MeasureText(valueText, t.FontSize), y, t.FontSize, t.ValueColor)
		y += t.LineHeight
		*value = gui.SliderBar(
			rl.Rectangle{X: x, Y: float32(y), Width: inner, Height: float32(t.SliderHeight)},
			"", "",
			*value, lo, hi,
		)
		y += t.SliderHeight + 4
	}

	slider("Kinematic viscosity", &state.Viscosity, float32(c.ranges.ViscosityMin), float32(c.ranges.ViscosityMax), "%.4f")
	slider("Diffusivity", &state.Diffusion, float32(c.ranges.DiffusionMin), float32(c.ranges.DiffusionMax), "%.4f")
	slider("Tint red", &state.Tint[0], 0, 1, "%.2f")
	slider("Tint green", &state.Tint[1], 0, 1, "%.2f")
	slider("Tint blue", &state.Tint[2], 0, 1, "%.2f")

	y = r.DrawColorSwatch(int32(x), y, "Fluid colour", rl.Color{
		R: uint8(state.Tint[0] * 255),
		G: uint8(state.Tint[1] * 255),
		B: uint8(state.Tint[2] * 255),
		A: 255,
	})

	half := (inner - 8) / 2
	bh := float32(t.ButtonHeight)
	if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: half, Height: bh}, "Clear") {
		actions.Clear = true
	}
	if gui.Button(rl.Rectangle{X: x + half + 8, Y: float32(y), Width: half, Height: bh}, toggleText(state.Paused, "Resume", "Pause")) {
		actions.TogglePause = true
	}
	y += t.ButtonHeight + 6
	if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: inner, Height: bh}, toggleText(state.HuePalette, "Tint palette", "Hue palette")) {
		actions.TogglePalette = true
	}

	return actions
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}
