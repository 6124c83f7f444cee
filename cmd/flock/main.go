package main

import (
	"context"
	"flag"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/simulation"
)

func main() {
	configFile := flag.String("config", "configs/config.json", "configuration file, .json or .toml")
	schemaFile := flag.String("schema", "", "JSON schema for the configuration, empty for the built-in one")
	flag.Parse()

	cfg, err := simulation.LoadConfig(*configFile, *schemaFile)
	if err != nil {
		golog.New(golog.ErrorLevel, os.Stderr).Fatalf("Failed to load config: %v", err)
	}
	level, _ := simulation.ParseLogLevel(cfg.LogLevel)
	logger := golog.New(level, os.Stdout)

	ctx := context.Background()
	system, err := actor.NewActorSystem("FlockWorld",
		actor.WithLogger(logger),
		actor.WithActorInitMaxRetries(1))
	if err != nil {
		logger.Fatalf("Failed to create actor system: %v", err)
	}
	if err := system.Start(ctx); err != nil {
		logger.Fatalf("Failed to start actor system: %v", err)
	}
	defer func() { _ = system.Stop(ctx) }()

	game, err := simulation.NewGame(ctx, cfg, system)
	if err != nil {
		logger.Fatalf("Failed to create game: %v", err)
	}

	ebiten.SetWindowSize(cfg.WorldWidth, cfg.WorldHeight)
	ebiten.SetWindowTitle("Flock")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(game); err != nil {
		logger.Errorf("Game stopped: %v", err)
	}
}
