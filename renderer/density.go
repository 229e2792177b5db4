// Package renderer draws the density field with raylib.
package renderer

import (
	"image"
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/stablefluids/fluid"
	"github.com/pthm-cable/stablefluids/palette"
)

// DensityTexture uploads the density field into an N×N texture each frame
// and stretches it over the window.
type DensityTexture struct {
	n           int
	palette     *palette.Palette
	texture     rl.Texture2D
	pixels      []color.RGBA
	readout     []float32
	initialized bool
}

// NewDensityTexture creates a renderer for an n×n field. Init must run
// after the raylib window exists.
func NewDensityTexture(n int, p *palette.Palette) *DensityTexture {
	return &DensityTexture{
		n:       n,
		palette: p,
		pixels:  make([]color.RGBA, n*n),
	}
}

// Init allocates the GPU texture.
func (d *DensityTexture) Init() {
	if d.initialized {
		return
	}
	img := rl.GenImageColor(d.n, d.n, rl.Black)
	d.texture = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	rl.SetTextureFilter(d.texture, rl.FilterBilinear)
	d.initialized = true
}

// Update shades the current density of sim and uploads it.
func (d *DensityTexture) Update(sim *fluid.Simulation) {
	if !d.initialized {
		d.Init()
	}
	d.readout = sim.DensityInterior(d.readout)
	d.palette.Fill(d.pixels, d.readout, d.n)
	rl.UpdateTexture(d.texture, d.pixels)
}

// Draw stretches the texture over a width×height area at the origin.
func (d *DensityTexture) Draw(width, height float32) {
	rl.DrawTexturePro(
		d.texture,
		rl.Rectangle{X: 0, Y: 0, Width: float32(d.n), Height: float32(d.n)},
		rl.Rectangle{X: 0, Y: 0, Width: width, Height: height},
		rl.Vector2{X: 0, Y: 0},
		0,
		rl.White,
	)
}

// Unload frees resources.
func (d *DensityTexture) Unload() {
	if d.initialized {
		rl.UnloadTexture(d.texture)
		d.initialized = false
	}
}

// DensityImage shades the density of sim into an image, top row first.
// It needs no window.
func DensityImage(sim *fluid.Simulation, p *palette.Palette) *image.RGBA {
	n := sim.N
	pixels := make([]color.RGBA, n*n)
	p.Fill(pixels, sim.DensityInterior(nil), n)

	img := image.NewRGBA(image.Rect(0, 0, n, n))
	for i, c := range pixels {
		img.Pix[4*i+0] = c.R
		img.Pix[4*i+1] = c.G
		img.Pix[4*i+2] = c.B
		img.Pix[4*i+3] = c.A
	}
	return img
}
