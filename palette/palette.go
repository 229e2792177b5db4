// Package palette maps density values to display colours.
package palette

import (
	"fmt"
	"image/color"
	"math"

	"github.com/crazy3lf/colorconv"

	"github.com/pthm-cable/stablefluids/config"
)

// Mode selects how density is coloured.
type Mode uint8

const (
	ModeTint Mode = iota // density times a flat RGB tint
	ModeHue              // hue ramp, brightness from density
)

// ParseMode converts a config name to a Mode.
func ParseMode(name string) (Mode, error) {
	switch name {
	case "tint", "":
		return ModeTint, nil
	case "hue":
		return ModeHue, nil
	default:
		return 0, fmt.Errorf("unknown palette %q", name)
	}
}

// Palette shades density values. Density saturates at 1.
type Palette struct {
	mode  Mode
	tint  [3]float32
	table []color.RGBA
}

// New builds a palette from display settings.
func New(cfg config.DisplayConfig) (*Palette, error) {
	mode, err := ParseMode(cfg.Palette)
	if err != nil {
		return nil, err
	}
	size := cfg.PaletteSize
	if size < 2 {
		size = 256
	}

	p := &Palette{mode: mode}
	p.SetTint(float32(cfg.Tint[0]), float32(cfg.Tint[1]), float32(cfg.Tint[2]))

	p.table = make([]color.RGBA, size)
	for i := range p.table {
		frac := float64(i) / float64(size-1)
		hue := math.Mod(frac*360*cfg.HueCycles, 360)
		r, g, b, err := colorconv.HSVToRGB(hue, 1, 1)
		if err != nil {
			return nil, fmt.Errorf("building hue table: %w", err)
		}
		p.table[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return p, nil
}

// Mode returns the active colouring mode.
func (p *Palette) Mode() Mode {
	return p.mode
}

// SetMode switches the colouring mode.
func (p *Palette) SetMode(m Mode) {
	p.mode = m
}

// Tint returns the current RGB multipliers.
func (p *Palette) Tint() [3]float32 {
	return p.tint
}

// SetTint sets the RGB multipliers, each clamped to [0,1].
func (p *Palette) SetTint(r, g, b float32) {
	p.tint = [3]float32{clamp01(r), clamp01(g), clamp01(b)}
}

// Shade returns the display colour for one density value.
func (p *Palette) Shade(d float32) color.RGBA {
	v := clamp01(d)
	base := [3]float32{1, 1, 1}
	if p.mode == ModeHue {
		c := p.table[int(v*float32(len(p.table)-1))]
		base = [3]float32{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255}
	}
	return color.RGBA{
		R: toByte(v * base[0] * p.tint[0]),
		G: toByte(v * base[1] * p.tint[1]),
		B: toByte(v * base[2] * p.tint[2]),
		A: 255,
	}
}

// Fill shades an n×n density readout into dst. density is row-major with
// row 0 at the bottom of the grid; dst is image order, row 0 at the top.
func (p *Palette) Fill(dst []color.RGBA, density []float32, n int) {
	for row := 0; row < n; row++ {
		src := density[n*(n-1-row) : n*(n-row)]
		out := dst[n*row : n*(row+1)]
		for i, d := range src {
			out[i] = p.Shade(d)
		}
	}
}

func clamp01(v float32) float32 {
	if v < 0 || v != v {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func toByte(v float32) uint8 {
	return uint8(v*255 + 0.5)
}
