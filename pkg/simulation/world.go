package simulation

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/flock"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
)

// Messages understood by WorldActor:
//
//	*durationpb.Duration    advance the flock by the elapsed time
//	*emptypb.Empty          reply with the current stats as a *structpb.Struct
//	*structpb.Struct        update the flock settings (see SettingsUpdate)
//	*wrapperspb.UInt64Value respawn the population with the given seed, 0 means clock based

// WorldSnapshot is the read-only view pushed to the renderer after each tick.
type WorldSnapshot struct {
	RunID    string
	Tick     uint64
	Agents   []flock.Agent
	Forces   []flock.Forces // empty unless force recording is on
	Settings flock.Settings
	Stats    Stats
}

// WorldActor owns the flock. Every mutation goes through its mailbox so the
// tick runs on a single goroutine.
type WorldActor struct {
	cfg        *Config
	runID      string
	flock      *flock.Flock
	forces     flock.ForceLog
	record     bool
	snapshotCh chan<- *WorldSnapshot

	// --- Benchmark Stats ---
	ticksSinceLog int
	recovered     int
	stalled       int
	lastLogTime   time.Time
}

// NewWorldActor creates the world logic unit. snapshotCh may be nil when
// nobody renders the flock.
func NewWorldActor(snapshotCh chan<- *WorldSnapshot, cfg *Config) *WorldActor {
	return &WorldActor{
		cfg:         cfg,
		record:      cfg.DisplayForces,
		snapshotCh:  snapshotCh,
		lastLogTime: time.Now(),
	}
}

func (w *WorldActor) PreStart(ctx *actor.Context) error {
	if err := w.cfg.Validate(); err != nil {
		return fmt.Errorf("world: %w", err)
	}
	return w.respawn(ctx.ActorSystem().Logger(), w.cfg.Seed)
}

func (w *WorldActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *goaktpb.PostStart:
		ctx.Logger().Infof("World %s started with %d agents", w.runID, w.flock.Len())

	case *durationpb.Duration:
		w.step(msg.AsDuration())
		w.logBenchmarks(ctx)
		w.pushSnapshot()

	case *emptypb.Empty:
		reply, err := w.stats().Proto()
		if err != nil {
			ctx.Logger().Warnf("World %s: cannot encode stats: %v", w.runID, err)
			return
		}
		ctx.Response(reply)

	case *structpb.Struct:
		if err := w.applySettings(msg); err != nil {
			ctx.Logger().Warnf("World %s: settings update rejected: %v", w.runID, err)
			return
		}
		ctx.Logger().Debugf("World %s: settings now %+v", w.runID, w.flock.Settings())

	case *wrapperspb.UInt64Value:
		if err := w.respawn(ctx.Logger(), msg.GetValue()); err != nil {
			ctx.Logger().Warnf("World %s: respawn failed: %v", w.runID, err)
			return
		}
		w.pushSnapshot()

	default:
		ctx.Unhandled()
	}
}

func (w *WorldActor) PostStop(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Infof("World %s stopped after %d ticks", w.runID, w.flock.Ticks())
	return nil
}

// respawn replaces the population and starts a new run, keeping the current
// settings when a flock already exists.
func (w *WorldActor) respawn(logger log.Logger, seed uint64) error {
	settings, err := w.cfg.Settings()
	if err != nil {
		return err
	}
	if w.flock != nil {
		settings = w.flock.Settings()
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	agents, err := flock.Spawn(rng, w.cfg.PopulationCount, w.cfg.SpawnRadius, w.cfg.AgentSpeed)
	if err != nil {
		return err
	}
	f, err := flock.New(settings, agents, flock.WithLogger(logger))
	if err != nil {
		return err
	}
	w.flock = f
	w.runID = uuid.NewString()
	w.setRecording(w.record)
	logger.Infof("World %s: spawned %d agents (seed %d)", w.runID, f.Len(), seed)
	return nil
}

func (w *WorldActor) setRecording(on bool) {
	w.record = on
	if on {
		w.flock.SetObserver(&w.forces)
		return
	}
	w.flock.SetObserver(nil)
	w.forces.Reset()
}

func (w *WorldActor) step(elapsed time.Duration) {
	w.forces.Reset()
	r := w.flock.Tick(elapsed.Seconds())
	w.ticksSinceLog++
	w.recovered += r.Recovered
	w.stalled += r.Stalled
}

func (w *WorldActor) logBenchmarks(ctx *actor.ReceiveContext) {
	if time.Since(w.lastLogTime) >= time.Second {
		ctx.Logger().Infof("📊 TICK RATE: %d/sec | Agents: %d | Recovered: %d | Stalled: %d",
			w.ticksSinceLog, w.flock.Len(), w.recovered, w.stalled)
		w.ticksSinceLog = 0
		w.recovered = 0
		w.stalled = 0
		w.lastLogTime = time.Now()
	}
}

func (w *WorldActor) pushSnapshot() {
	if w.snapshotCh == nil {
		return
	}
	select {
	case w.snapshotCh <- w.buildSnapshot():
	default:
		// UI busy, skip frame
	}
}

func (w *WorldActor) buildSnapshot() *WorldSnapshot {
	snap := &WorldSnapshot{
		RunID:    w.runID,
		Tick:     w.flock.Ticks(),
		Agents:   w.flock.CopyAgents(nil),
		Settings: w.flock.Settings(),
		Stats:    w.stats(),
	}
	if w.record {
		snap.Forces = append([]flock.Forces(nil), w.forces.Forces...)
	}
	return snap
}

func (w *WorldActor) stats() Stats {
	return ComputeStats(w.runID, w.flock.Ticks(), w.flock.Agents(), w.flock.Settings().MapRadius)
}

func (w *WorldActor) applySettings(msg *structpb.Struct) error {
	s, record, err := ApplySettingsUpdate(w.flock.Settings(), w.record, msg)
	if err != nil {
		return err
	}
	if err := w.flock.SetSettings(s); err != nil {
		return err
	}
	if record != w.record {
		w.setRecording(record)
	}
	return nil
}

// Stats summarizes a flock at one tick.
type Stats struct {
	RunID        string
	Tick         uint64
	Population   int
	Centroid     geometry.Vector3D
	MeanDistance float64 // mean planar distance to the map origin
	Outside      int     // agents beyond the map radius
}

// ComputeStats walks agents once.
func ComputeStats(runID string, tick uint64, agents []flock.Agent, mapRadius float64) Stats {
	st := Stats{RunID: runID, Tick: tick, Population: len(agents)}
	if len(agents) == 0 {
		return st
	}
	var sum geometry.Vector3D
	var dist float64
	for _, a := range agents {
		p := a.Position.Flat()
		sum = sum.Add(p)
		d := p.Len()
		dist += d
		if d > mapRadius {
			st.Outside++
		}
	}
	n := float64(len(agents))
	st.Centroid = sum.Mul(1 / n)
	st.MeanDistance = dist / n
	return st
}

// Proto encodes the stats as the reply of a stats request.
func (s Stats) Proto() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"run_id":        s.RunID,
		"tick":          float64(s.Tick),
		"population":    s.Population,
		"centroid_x":    s.Centroid.X,
		"centroid_y":    s.Centroid.Y,
		"mean_distance": s.MeanDistance,
		"outside":       s.Outside,
	})
}

// StatsFromProto decodes a stats reply. Unknown fields are ignored.
func StatsFromProto(m *structpb.Struct) Stats {
	f := m.GetFields()
	return Stats{
		RunID:        f["run_id"].GetStringValue(),
		Tick:         uint64(f["tick"].GetNumberValue()),
		Population:   int(f["population"].GetNumberValue()),
		Centroid:     geometry.NewVector(f["centroid_x"].GetNumberValue(), f["centroid_y"].GetNumberValue(), 0),
		MeanDistance: f["mean_distance"].GetNumberValue(),
		Outside:      int(f["outside"].GetNumberValue()),
	}
}

// SettingsUpdate encodes a settings change for WorldActor.
func SettingsUpdate(s flock.Settings, recordForces bool) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"neighbor_radius": s.NeighborRadius,
		"map_radius":      s.MapRadius,
		"return_bias":     s.ReturnBias,
		"alignment_scope": s.Alignment.String(),
		"display_forces":  recordForces,
	})
}

// ApplySettingsUpdate overlays the fields present in msg on s. Absent fields
// keep their value; fields of the wrong kind are rejected.
func ApplySettingsUpdate(s flock.Settings, recordForces bool, msg *structpb.Struct) (flock.Settings, bool, error) {
	for key, v := range msg.GetFields() {
		switch key {
		case "neighbor_radius", "map_radius", "return_bias":
			n, ok := v.GetKind().(*structpb.Value_NumberValue)
			if !ok {
				return s, recordForces, fmt.Errorf("%w: %s must be a number", flock.ErrInvalidSettings, key)
			}
			switch key {
			case "neighbor_radius":
				s.NeighborRadius = n.NumberValue
			case "map_radius":
				s.MapRadius = n.NumberValue
			default:
				s.ReturnBias = n.NumberValue
			}
		case "alignment_scope":
			str, ok := v.GetKind().(*structpb.Value_StringValue)
			if !ok {
				return s, recordForces, fmt.Errorf("%w: %s must be a string", flock.ErrInvalidSettings, key)
			}
			scope, err := flock.ParseAlignmentScope(str.StringValue)
			if err != nil {
				return s, recordForces, err
			}
			s.Alignment = scope
		case "display_forces":
			b, ok := v.GetKind().(*structpb.Value_BoolValue)
			if !ok {
				return s, recordForces, fmt.Errorf("%w: %s must be a bool", flock.ErrInvalidSettings, key)
			}
			recordForces = b.BoolValue
		default:
			return s, recordForces, fmt.Errorf("%w: unknown setting %q", flock.ErrInvalidSettings, key)
		}
	}
	return s, recordForces, s.Validate()
}
