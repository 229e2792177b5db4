package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/stablefluids/config"
	"github.com/pthm-cable/stablefluids/fluid"
	"github.com/pthm-cable/stablefluids/game"
	"github.com/pthm-cable/stablefluids/stream"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "Noise seed (0 = use config)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster headless runs)")
	serve := flag.Bool("serve", false, "Stream density frames over websocket")
	addr := flag.String("addr", "", "Stream server address (empty = use config)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if cfg.Solver.Iterations != fluid.DefaultIterations {
		slog.Warn("solver iterations overridden",
			"iterations", cfg.Solver.Iterations,
			"default", fluid.DefaultIterations,
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var hub *stream.Hub
	serverDone := make(chan struct{})
	if *serve {
		listen := cfg.Server.Addr
		if *addr != "" {
			listen = *addr
		}
		hub = stream.NewHub(cfg.Server)
		go func() {
			defer close(serverDone)
			if err := hub.Run(ctx, listen); err != nil {
				slog.Error("stream server failed", "error", err)
			}
		}()
	} else {
		close(serverDone)
	}

	opts := game.Options{
		Seed:           *seed,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		OutputDir:      *outputDir,
		Headless:       *headless,
		StepsPerUpdate: *stepsPerUpdate,
		Hub:            hub,
	}

	if *headless {
		runHeadless(ctx, opts, *maxTicks)
	} else {
		runWindow(ctx, cfg, opts, *maxTicks)
	}

	stop()
	select {
	case <-serverDone:
	case <-time.After(3 * time.Second):
		slog.Warn("stream server did not stop in time")
	}
}

func runHeadless(ctx context.Context, opts game.Options, maxTicks int) {
	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		slog.Error("failed to create game", "error", err)
		os.Exit(1)
	}
	defer g.Unload()

	slog.Info("starting headless simulation",
		"n", g.Sim().N,
		"emitters", g.Emitters(),
		"max_ticks", maxTicks,
		"steps_per_update", opts.StepsPerUpdate,
	)

	for ctx.Err() == nil {
		g.UpdateHeadless()

		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			return
		}
	}
	slog.Info("interrupted", "tick", g.Tick())
}

func runWindow(ctx context.Context, cfg *config.Config, opts game.Options, maxTicks int) {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), cfg.Screen.Title)
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		slog.Error("failed to create game", "error", err)
		return
	}
	defer g.Unload()

	for !rl.WindowShouldClose() && ctx.Err() == nil {
		g.Update()
		g.Draw()

		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			break
		}
	}
}
