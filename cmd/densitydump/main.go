// Density dump tool - runs the solver headless and writes the density field to a PNG.
//
// Usage: go run ./cmd/densitydump -config jets.yaml -ticks 300 -out density.png
package main

import (
	"flag"
	"fmt"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/stablefluids/config"
	"github.com/pthm-cable/stablefluids/game"
	"github.com/pthm-cable/stablefluids/palette"
	"github.com/pthm-cable/stablefluids/renderer"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	ticks := flag.Int("ticks", 300, "Solver steps before dumping")
	outPath := flag.String("out", "density.png", "Output PNG path")
	scale := flag.Int("scale", 4, "Pixels per grid cell")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	g, err := game.NewGameWithOptions(game.Options{
		Config:         cfg,
		Headless:       true,
		StepsPerUpdate: 1,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create simulation: %v\n", err)
		os.Exit(1)
	}
	defer g.Unload()

	for int(g.Tick()) < *ticks {
		g.UpdateHeadless()
	}

	pal, err := palette.New(cfg.Display)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build palette: %v\n", err)
		os.Exit(1)
	}

	img := rl.NewImageFromImage(renderer.DensityImage(g.Sim(), pal))
	if *scale > 1 {
		size := int32(g.Sim().N * *scale)
		rl.ImageResizeNN(img, size, size)
	}

	success := rl.ExportImage(*img, *outPath)
	rl.UnloadImage(img)

	if success {
		fmt.Printf("Density written to: %s (%d ticks, %dx%d cells)\n", *outPath, g.Tick(), g.Sim().N, g.Sim().N)
	} else {
		fmt.Fprintf(os.Stderr, "Failed to export image\n")
		os.Exit(1)
	}
}
