// Command headless runs the flock without a window and logs its stats.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/simulation"
)

func main() {
	configFile := flag.String("config", "configs/config.json", "configuration file, .json or .toml")
	schemaFile := flag.String("schema", "", "JSON schema for the configuration, empty for the built-in one")
	ticks := flag.Int("ticks", 600, "number of ticks to run")
	step := flag.Duration("dt", time.Second/60, "simulated time per tick")
	every := flag.Int("report", 60, "log stats every n ticks, 0 for the final report only")
	flag.Parse()

	cfg, err := simulation.LoadConfig(*configFile, *schemaFile)
	if err != nil {
		golog.New(golog.ErrorLevel, os.Stderr).Fatalf("Failed to load config: %v", err)
	}
	level, _ := simulation.ParseLogLevel(cfg.LogLevel)
	logger := golog.New(level, os.Stdout)

	ctx := context.Background()
	system, err := actor.NewActorSystem("FlockHeadless", actor.WithLogger(logger))
	if err != nil {
		logger.Fatalf("Failed to create actor system: %v", err)
	}
	if err := system.Start(ctx); err != nil {
		logger.Fatalf("Failed to start actor system: %v", err)
	}
	defer func() { _ = system.Stop(ctx) }()

	world, err := system.Spawn(ctx, "world", simulation.NewWorldActor(nil, cfg))
	if err != nil {
		logger.Fatalf("Failed to spawn world: %v", err)
	}

	start := time.Now()
	for i := 1; i <= *ticks; i++ {
		if err := actor.Tell(ctx, world, durationpb.New(*step)); err != nil {
			logger.Fatalf("Tick %d: %v", i, err)
		}
		if *every > 0 && i%*every == 0 {
			report(ctx, logger, world)
		}
	}
	st := report(ctx, logger, world)
	logger.Infof("Run %s: %d ticks of %d agents in %s", st.RunID, st.Tick, st.Population, time.Since(start))
}

func report(ctx context.Context, logger golog.Logger, world *actor.PID) simulation.Stats {
	resp, err := actor.Ask(ctx, world, &emptypb.Empty{}, 10*time.Second)
	if err != nil {
		logger.Fatalf("Stats request failed: %v", err)
	}
	reply, ok := resp.(*structpb.Struct)
	if !ok {
		logger.Fatalf("Unexpected stats reply %T", resp)
	}
	st := simulation.StatsFromProto(reply)
	logger.Infof("tick %d | centroid (%.1f, %.1f) | mean distance %.1f | outside %d",
		st.Tick, st.Centroid.X, st.Centroid.Y, st.MeanDistance, st.Outside)
	return st
}
