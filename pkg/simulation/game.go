package simulation

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/tochemey/goakt/v3/actor"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/flock"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/ui"
)

const (
	forceLength = 50.0
	// longest step fed to the flock, so a stalled window does not teleport agents
	maxFrameTime = 100 * time.Millisecond
)

var (
	whiteImage = ebiten.NewImage(3, 3)

	agentColor      = color.RGBA{R: 100, G: 200, B: 255, A: 255}
	boundaryColor   = color.RGBA{R: 120, G: 120, B: 130, A: 255}
	radiusColor     = color.RGBA{R: 90, G: 90, B: 90, A: 60}
	separationColor = color.RGBA{R: 230, G: 60, B: 60, A: 255}
	alignmentColor  = color.RGBA{R: 60, G: 220, B: 90, A: 255}
	cohesionColor   = color.RGBA{R: 245, G: 245, B: 220, A: 255}
)

type Game struct {
	ctx        context.Context
	System     actor.ActorSystem
	worldPID   *actor.PID
	snapshotCh chan *WorldSnapshot
	lastState  *WorldSnapshot

	// UI Controls
	panel                *ui.UIPanel
	widgetNeighborRadius *ui.Slider
	widgetMapRadius      *ui.Slider
	widgetAlignNeighbors *ui.Checkbox
	widgetDisplayRadius  *ui.Checkbox
	widgetDisplayForces  *ui.Checkbox
	widgetPause          *ui.Checkbox
	respawnRequested     bool

	cfg      *Config
	lastTick time.Time

	// reused every frame
	vertices []ebiten.Vertex
	indices  []uint16

	// Timing instrumentation
	lastUpdateDuration time.Duration
	lastDrawDuration   time.Duration
	updateAvg          float64 // Rolling average in ms
	drawAvg            float64 // Rolling average in ms
}

// NewGame spawns the world actor on system and builds the control panel.
func NewGame(ctx context.Context, cfg *Config, system actor.ActorSystem) (*Game, error) {
	snapshotCh := make(chan *WorldSnapshot, 4)

	worldPID, err := system.Spawn(ctx, "world", NewWorldActor(snapshotCh, cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to spawn world: %w", err)
	}

	g := &Game{
		ctx:        ctx,
		System:     system,
		worldPID:   worldPID,
		snapshotCh: snapshotCh,
		lastState:  &WorldSnapshot{},
		cfg:        cfg,
	}

	panel := ui.NewUIPanel(10, 10, 240, math.Min(330, float64(cfg.WorldHeight)-20))
	panel.AddSection("Steering")
	g.widgetNeighborRadius = panel.AddSlider("Neighbor Radius", 5, 300, cfg.NeighborRadius)
	g.widgetMapRadius = panel.AddSlider("Map Radius", 100, 3000, cfg.MapRadius)
	g.widgetAlignNeighbors = panel.AddCheckbox("Align With Neighbors Only", cfg.AlignmentScope == flock.AlignNeighbors.String())
	panel.EndSection()

	panel.AddSection("Debug")
	g.widgetDisplayRadius = panel.AddCheckbox("Show Neighbor Radius", cfg.DisplayNeighborRadius)
	g.widgetDisplayForces = panel.AddCheckbox("Show Forces", cfg.DisplayForces)
	g.widgetPause = panel.AddCheckbox("Pause", false)
	panel.AddButton("Respawn", func() { g.respawnRequested = true })
	panel.EndSection()
	g.panel = panel

	return g, nil
}

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		g.lastUpdateDuration = time.Since(start)
		// Rolling average (exponential moving average)
		g.updateAvg = g.updateAvg*0.95 + float64(g.lastUpdateDuration.Microseconds())/1000.0*0.05
	}()

	g.panel.Update()

	select {
	case snap := <-g.snapshotCh:
		g.lastState = snap
	default:
		// keep the previous state
	}

	if err := g.sendSettings(); err != nil {
		return err
	}
	if g.respawnRequested {
		g.respawnRequested = false
		if err := actor.Tell(g.ctx, g.worldPID, wrapperspb.UInt64(0)); err != nil {
			return err
		}
	}

	now := time.Now()
	elapsed := now.Sub(g.lastTick)
	if g.lastTick.IsZero() {
		elapsed = time.Second / time.Duration(ebiten.TPS())
	}
	g.lastTick = now
	if g.widgetPause.Value {
		return nil
	}
	return actor.Tell(g.ctx, g.worldPID, durationpb.New(min(elapsed, maxFrameTime)))
}

// sendSettings forwards the panel values when one of them moved.
func (g *Game) sendSettings() error {
	changed := g.widgetNeighborRadius.Changed()
	changed = g.widgetMapRadius.Changed() || changed
	changed = g.widgetAlignNeighbors.Changed() || changed
	changed = g.widgetDisplayForces.Changed() || changed
	if !changed {
		return nil
	}
	scope := flock.AlignGlobal
	if g.widgetAlignNeighbors.Value {
		scope = flock.AlignNeighbors
	}
	s := g.lastState.Settings
	if s.ReturnBias == 0 {
		s.ReturnBias = g.cfg.ReturnBias
	}
	s.NeighborRadius = g.widgetNeighborRadius.Value
	s.MapRadius = g.widgetMapRadius.Value
	s.Alignment = scope
	msg, err := SettingsUpdate(s, g.widgetDisplayForces.Value)
	if err != nil {
		return err
	}
	return actor.Tell(g.ctx, g.worldPID, msg)
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		g.lastDrawDuration = time.Since(start)
		g.drawAvg = g.drawAvg*0.95 + float64(g.lastDrawDuration.Microseconds())/1000.0*0.05
	}()

	cam := newCamera(g.cfg.WorldWidth, g.cfg.WorldHeight, g.widgetMapRadius.Value)
	st := g.lastState

	// 1. Map boundary
	ox, oy := cam.toScreen(geometry.Zero)
	vector.StrokeCircle(screen, ox, oy, cam.length(st.Settings.MapRadius), 2, boundaryColor, true)

	// 2. Neighbor radius of every agent
	if g.widgetDisplayRadius.Value {
		r := cam.length(st.Settings.NeighborRadius)
		for _, a := range st.Agents {
			x, y := cam.toScreen(a.Position)
			vector.StrokeCircle(screen, x, y, r, 1, radiusColor, true)
		}
	}

	// 3. Agents, one batch
	g.drawAgents(screen, cam, st.Agents)

	// 4. Steering forces
	if g.widgetDisplayForces.Value {
		for _, f := range st.Forces {
			drawForce(screen, cam, f.Position, f.Separation, separationColor)
			drawForce(screen, cam, f.Position, f.Alignment, alignmentColor)
			drawForce(screen, cam, f.Position, f.Cohesion, cohesionColor)
		}
	}

	g.panel.Draw(screen)

	msg := fmt.Sprintf("FPS: %.2f\nTPS: %.2f\n\nUpdate: %.2fms\nDraw:   %.2fms\n\nTick: %d\nAgents: %d\nOutside: %d\nCentroid: %.1f\nMean dist: %.1f",
		ebiten.ActualFPS(),
		ebiten.ActualTPS(),
		g.updateAvg,
		g.drawAvg,
		st.Tick,
		st.Stats.Population,
		st.Stats.Outside,
		st.Stats.Centroid.Len(),
		st.Stats.MeanDistance)
	ebitenutil.DebugPrintAt(screen, msg, g.cfg.WorldWidth-150, 10)
}

// drawAgents draws every agent as a triangle pointing along its heading.
func (g *Game) drawAgents(screen *ebiten.Image, cam camera, agents []flock.Agent) {
	g.vertices = g.vertices[:0]
	g.indices = g.indices[:0]
	size := g.cfg.AgentSize * cam.scale
	for _, a := range agents {
		if len(g.vertices)+3 > math.MaxUint16 {
			screen.DrawTriangles(g.vertices, g.indices, whiteImage, &ebiten.DrawTrianglesOptions{})
			g.vertices = g.vertices[:0]
			g.indices = g.indices[:0]
		}
		x, y := cam.toScreen(a.Position)
		// screen y grows downward
		angle := -a.Heading.Angle()
		tip := [2]float64{math.Cos(angle) * size / 2, math.Sin(angle) * size / 2}
		right := [2]float64{math.Cos(angle+2.5) * size / 3, math.Sin(angle+2.5) * size / 3}
		left := [2]float64{math.Cos(angle-2.5) * size / 3, math.Sin(angle-2.5) * size / 3}

		base := uint16(len(g.vertices))
		for _, p := range [3][2]float64{tip, right, left} {
			g.vertices = append(g.vertices, ebiten.Vertex{
				DstX: x + float32(p[0]),
				DstY: y + float32(p[1]),
				SrcX: 1, SrcY: 1,
				ColorR: float32(agentColor.R) / 255,
				ColorG: float32(agentColor.G) / 255,
				ColorB: float32(agentColor.B) / 255,
				ColorA: 1,
			})
		}
		g.indices = append(g.indices, base, base+1, base+2)
	}
	if len(g.indices) > 0 {
		screen.DrawTriangles(g.vertices, g.indices, whiteImage, &ebiten.DrawTrianglesOptions{})
	}
}

func drawForce(screen *ebiten.Image, cam camera, from, force geometry.Vector3D, clr color.Color) {
	dir, ok := force.Flat().TryNormalize()
	if !ok {
		return
	}
	x0, y0 := cam.toScreen(from)
	x1, y1 := cam.toScreen(from.Add(dir.Mul(forceLength)))
	vector.StrokeLine(screen, x0, y0, x1, y1, 1, clr, true)
}

func (g *Game) Layout(w, h int) (int, int) { return g.cfg.WorldWidth, g.cfg.WorldHeight }

// camera maps world coordinates, origin centered and y up, to screen pixels.
type camera struct {
	cx, cy float64
	scale  float64
}

func newCamera(width, height int, mapRadius float64) camera {
	fit := math.Min(float64(width), float64(height)) / 2
	scale := 1.0
	if mapRadius > 0 {
		scale = fit / (mapRadius * 1.1)
	}
	return camera{cx: float64(width) / 2, cy: float64(height) / 2, scale: scale}
}

func (c camera) toScreen(p geometry.Vector3D) (float32, float32) {
	return float32(c.cx + p.X*c.scale), float32(c.cy - p.Y*c.scale)
}

func (c camera) length(d float64) float32 { return float32(d * c.scale) }

func init() {
	whiteImage.Fill(color.White)
}
