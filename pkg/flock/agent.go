package flock

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
)

// ErrInvalidSpawn is returned by Spawn for a negative radius or a non-positive speed.
var ErrInvalidSpawn = errors.New("flock: invalid spawn parameters")

// Agent is one boid.
// Heading is the raw steering sum of the last update: its direction is the
// travel direction, its length is intermediate state and is never normalized
// on storage.
type Agent struct {
	Position geometry.Vector3D `json:"position"`
	Heading  geometry.Vector3D `json:"heading"`
	Speed    float64           `json:"speed"`
}

// Velocity is the planar velocity the integrator would apply,
// or the zero vector when the heading carries no direction.
func (a Agent) Velocity() geometry.Vector3D {
	dir, ok := a.Heading.Flat().TryNormalize()
	if !ok {
		return geometry.Zero
	}
	return dir.Mul(a.Speed)
}

// Spawn scatters count agents uniformly inside the disk of radius spawnRadius
// centered on the origin. Each agent gets a random unit heading and the given speed.
// The caller owns rng; the same seed always yields the same flock.
func Spawn(rng *rand.Rand, count int, spawnRadius, speed float64) ([]Agent, error) {
	if spawnRadius < 0 || math.IsNaN(spawnRadius) || math.IsInf(spawnRadius, 0) {
		return nil, fmt.Errorf("%w: spawn radius %v", ErrInvalidSpawn, spawnRadius)
	}
	if !positive(speed) {
		return nil, fmt.Errorf("%w: speed %v", ErrInvalidSpawn, speed)
	}
	if count <= 0 {
		return []Agent{}, nil
	}

	agents := make([]Agent, count)
	for i := range agents {
		// sqrt keeps the density uniform over the disk area
		r := spawnRadius * math.Sqrt(rng.Float64())
		agents[i] = Agent{
			Position: geometry.NewVectorPolar(r, 2*math.Pi*rng.Float64()),
			Heading:  geometry.NewVectorPolar(1, 2*math.Pi*rng.Float64()),
			Speed:    speed,
		}
	}
	return agents, nil
}
