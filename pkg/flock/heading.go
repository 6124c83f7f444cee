package flock

import "github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"

// Snapshot freezes every position and heading before a heading pass so that
// each agent reads the same state whatever the iteration order.
type Snapshot struct {
	Positions []geometry.Vector3D
	Headings  []geometry.Vector3D
}

// Capture copies the agents' positions and headings, reusing the buffers.
func (s *Snapshot) Capture(agents []Agent) {
	s.Positions = s.Positions[:0]
	s.Headings = s.Headings[:0]
	for i := range agents {
		s.Positions = append(s.Positions, agents[i].Position)
		s.Headings = append(s.Headings, agents[i].Heading)
	}
}

// Len is the number of captured agents.
func (s *Snapshot) Len() int { return len(s.Positions) }

// headingPass holds the scratch buffers of one heading update so a Flock
// can reuse them between ticks.
type headingPass struct {
	neighbors NeighborSet
	offsets   []geometry.Vector3D
	headings  []geometry.Vector3D
}

// UpdateHeadings computes the new heading of every agent from snap, which must
// have been captured from agents before the call. It returns how many agents
// kept their previous heading because the new one had no direction.
// obs may be nil.
func UpdateHeadings(agents []Agent, snap *Snapshot, s Settings, obs Observer) int {
	var p headingPass
	return p.run(agents, snap, s, obs, nil)
}

// run visits agents in the given order, or index order when order is nil.
// Each result depends only on snap, so the order never changes the outcome.
func (p *headingPass) run(agents []Agent, snap *Snapshot, s Settings, obs Observer, order []int) int {
	recovered := 0
	visit := func(i int) {
		heading, forces, ok := p.compute(i, snap, s)
		if !ok {
			recovered++
			heading = snap.Headings[i]
			forces.Heading = heading
		}
		agents[i].Heading = heading
		if obs != nil {
			obs.ObserveForces(forces)
		}
	}

	if order == nil {
		for i := range agents {
			visit(i)
		}
	} else {
		for _, i := range order {
			visit(i)
		}
	}
	return recovered
}

// compute returns the heading of agent i for this tick.
// ok is false when the result is zero or not finite.
func (p *headingPass) compute(i int, snap *Snapshot, s Settings) (geometry.Vector3D, Forces, bool) {
	pos := snap.Positions[i]
	heading := snap.Headings[i]
	forces := Forces{
		Agent:          i,
		Position:       pos,
		NeighborRadius: s.NeighborRadius,
	}

	p.neighbors = FindNeighbors(snap.Positions, pos, s.NeighborRadius, p.neighbors)
	forces.Neighbors = len(p.neighbors)

	if len(p.neighbors) > 0 {
		p.offsets = p.neighbors.Offsets(p.offsets)

		forces.Separation = Separation(p.offsets, s.NeighborRadius)
		forces.Alignment = Alignment(p.alignmentInput(snap, s.Alignment))
		forces.Cohesion = Cohesion(p.offsets, s.NeighborRadius)

		heading = forces.Separation.Add(forces.Alignment).Add(forces.Cohesion)
	}

	// boundary containment wins over flocking
	flat := pos.Flat()
	if flat.Len() > s.MapRadius {
		heading = flat.Normalize().Neg().Mul(s.ReturnBias)
		forces.Contained = true
	}

	forces.Heading = heading
	if heading.IsZero() || !heading.IsFinite() {
		return heading, forces, false
	}
	return heading, forces, true
}

func (p *headingPass) alignmentInput(snap *Snapshot, scope AlignmentScope) []geometry.Vector3D {
	if scope == AlignGlobal {
		return snap.Headings
	}
	p.headings = p.headings[:0]
	for _, n := range p.neighbors {
		p.headings = append(p.headings, snap.Headings[n.Index])
	}
	return p.headings
}
