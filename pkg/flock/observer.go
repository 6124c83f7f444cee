package flock

import "github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"

// Forces is the debug record of one agent's heading update.
// It is a copy: changing it never reaches the simulation.
type Forces struct {
	Agent          int
	Position       geometry.Vector3D
	Separation     geometry.Vector3D
	Alignment      geometry.Vector3D
	Cohesion       geometry.Vector3D
	Heading        geometry.Vector3D // heading stored after the update
	NeighborRadius float64
	Neighbors      int
	Contained      bool // boundary return overrode flocking
}

// Observer receives one Forces record per agent per tick, after the agent's
// heading has been computed.
type Observer interface {
	ObserveForces(f Forces)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(Forces)

// ObserveForces calls fn(f).
func (fn ObserverFunc) ObserveForces(f Forces) { fn(f) }

// ForceLog collects the records of the last tick, reusing its buffer.
type ForceLog struct {
	Forces []Forces
}

// Reset empties the log and keeps its capacity.
func (l *ForceLog) Reset() { l.Forces = l.Forces[:0] }

// ObserveForces appends f.
func (l *ForceLog) ObserveForces(f Forces) { l.Forces = append(l.Forces, f) }
