// Package flock is the per-tick flocking core: neighbor search, the three
// steering forces, the heading update with boundary containment and the
// motion integrator.
//
// A tick runs in two phases that never interleave. The heading phase reads a
// Snapshot taken before any agent changes, so the visit order cannot bias the
// result. The motion phase then moves every agent along its new heading.
// Nothing here blocks, allocates per agent, or touches global state: time,
// randomness and logging are all passed in.
package flock

import (
	"fmt"
	"math"

	"github.com/tochemey/goakt/v3/log"
)

// TickReport summarizes the guards that fired during one tick.
type TickReport struct {
	Recovered int // agents that kept their previous heading
	Stalled   int // agents that did not move because their heading had no direction
}

// Tick runs one heading pass then one motion pass over agents.
// snap is overwritten. obs may be nil.
func Tick(agents []Agent, dt float64, s Settings, snap *Snapshot, obs Observer) TickReport {
	var p headingPass
	return tick(&p, agents, dt, s, snap, obs)
}

func tick(p *headingPass, agents []Agent, dt float64, s Settings, snap *Snapshot, obs Observer) TickReport {
	snap.Capture(agents)
	recovered := p.run(agents, snap, s, obs, nil)
	stalled := Integrate(agents, dt)
	return TickReport{Recovered: recovered, Stalled: stalled}
}

// Flock is an arena of agents with stable indices and the buffers needed to
// tick them. It is not safe for concurrent use; the host drives it from a
// single goroutine.
type Flock struct {
	settings Settings
	agents   []Agent
	snap     Snapshot
	pass     headingPass
	observer Observer
	logger   log.Logger
	ticks    uint64
}

// Option configures a Flock.
type Option func(*Flock)

// WithLogger sets the logger used to report guard recoveries.
func WithLogger(l log.Logger) Option {
	return func(f *Flock) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithObserver installs a debug observer.
func WithObserver(o Observer) Option {
	return func(f *Flock) { f.observer = o }
}

// New wraps agents in a Flock. The slice is used in place, not copied.
func New(s Settings, agents []Agent, opts ...Option) (*Flock, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	f := &Flock{
		settings: s,
		agents:   agents,
		logger:   log.DiscardLogger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Tick advances the flock by dt seconds.
func (f *Flock) Tick(dt float64) TickReport {
	if math.IsNaN(dt) || dt < 0 {
		f.logger.Warnf("flock: tick %d got elapsed time %v, using 0", f.ticks, dt)
		dt = 0
	}
	r := tick(&f.pass, f.agents, dt, f.settings, &f.snap, f.observer)
	if r.Recovered > 0 {
		f.logger.Debugf("flock: tick %d, %d agents kept their previous heading", f.ticks, r.Recovered)
	}
	if r.Stalled > 0 {
		f.logger.Debugf("flock: tick %d, %d agents had no direction and did not move", f.ticks, r.Stalled)
	}
	f.ticks++
	return r
}

// Agents returns the arena itself. It stays valid until the next Tick;
// callers must not append to it.
func (f *Flock) Agents() []Agent { return f.agents }

// CopyAgents appends a copy of every agent to dst[:0].
func (f *Flock) CopyAgents(dst []Agent) []Agent {
	return append(dst[:0], f.agents...)
}

// Len is the population, fixed for the lifetime of the flock.
func (f *Flock) Len() int { return len(f.agents) }

// Ticks is the number of completed ticks.
func (f *Flock) Ticks() uint64 { return f.ticks }

// Settings returns the rules used by the next tick.
func (f *Flock) Settings() Settings { return f.settings }

// SetSettings replaces the rules from the next tick on.
func (f *Flock) SetSettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("flock: settings rejected: %w", err)
	}
	f.settings = s
	return nil
}

// SetObserver replaces the debug observer; nil disables it.
func (f *Flock) SetObserver(o Observer) { f.observer = o }
