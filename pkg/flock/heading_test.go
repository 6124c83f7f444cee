package flock

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
)

func updateOnce(t *testing.T, agents []Agent, s Settings) int {
	t.Helper()
	var snap Snapshot
	snap.Capture(agents)
	return UpdateHeadings(agents, &snap, s, nil)
}

func TestUpdateHeadings_SumsTheThreeForces(t *testing.T) {
	agents := []Agent{
		{Position: geometry.Vector3D{}, Heading: geometry.Vector3D{X: 2}},
		{Position: geometry.Vector3D{X: 0, Y: 10}, Heading: geometry.Vector3D{Y: 3}},
	}
	s := DefaultSettings()

	recovered := updateOnce(t, agents, s)

	require.Zero(t, recovered)
	// agent 0: sep (0,-10) + align (1,0)+(0,1) + coh (0,10)
	assert.True(t, agents[0].Heading.Eq(geometry.Vector3D{X: 1, Y: 1}), "got %v", agents[0].Heading)
	// agent 1: sep (0,10) + align (1,1) + coh (0,-10)
	assert.True(t, agents[1].Heading.Eq(geometry.Vector3D{X: 1, Y: 1}), "got %v", agents[1].Heading)
}

func TestUpdateHeadings_NoNeighborsKeepsHeading(t *testing.T) {
	agents := []Agent{
		{Position: geometry.Vector3D{}, Heading: geometry.Vector3D{X: 7, Y: -1}},
		{Position: geometry.Vector3D{X: 500}, Heading: geometry.Vector3D{Y: 1}},
	}

	updateOnce(t, agents, DefaultSettings())

	assert.Equal(t, geometry.Vector3D{X: 7, Y: -1}, agents[0].Heading)
	assert.Equal(t, geometry.Vector3D{Y: 1}, agents[1].Heading)
}

func TestUpdateHeadings_BoundaryOverridesFlocking(t *testing.T) {
	s := DefaultSettings()
	agents := []Agent{
		{Position: geometry.Vector3D{X: 1200, Y: 0}, Heading: geometry.Vector3D{X: 1}},
		{Position: geometry.Vector3D{X: 1210, Y: 5}, Heading: geometry.Vector3D{Y: 1}},
		{Position: geometry.Vector3D{X: -600, Y: 900}, Heading: geometry.Vector3D{X: -1}},
		{Position: geometry.Vector3D{X: 10, Y: 10}, Heading: geometry.Vector3D{X: 1}},
	}
	want := make([]geometry.Vector3D, len(agents))
	for i, a := range agents {
		want[i] = a.Position.Normalize().Neg()
	}

	updateOnce(t, agents, s)

	for i := 0; i < 3; i++ {
		assert.Truef(t, agents[i].Heading.Eq(want[i]), "agent %d heading %v; want %v", i, agents[i].Heading, want[i])
	}
	assert.Equal(t, geometry.Vector3D{X: 1}, agents[3].Heading, "lone agent inside the map is untouched")
}

func TestUpdateHeadings_ReturnBiasScalesBoundaryHeading(t *testing.T) {
	s := DefaultSettings()
	s.ReturnBias = 4
	agents := []Agent{{Position: geometry.Vector3D{Y: -2000}, Heading: geometry.Vector3D{X: 1}}}

	updateOnce(t, agents, s)

	assert.True(t, agents[0].Heading.Eq(geometry.Vector3D{Y: 4}), "got %v", agents[0].Heading)
}

func TestUpdateHeadings_DegenerateSumKeepsPreviousHeading(t *testing.T) {
	// separation and cohesion cancel, opposite headings cancel in alignment
	agents := []Agent{
		{Position: geometry.Vector3D{}, Heading: geometry.Vector3D{X: 1}},
		{Position: geometry.Vector3D{X: 10}, Heading: geometry.Vector3D{X: -1}},
	}

	recovered := updateOnce(t, agents, DefaultSettings())

	assert.Equal(t, 2, recovered)
	assert.Equal(t, geometry.Vector3D{X: 1}, agents[0].Heading)
	assert.Equal(t, geometry.Vector3D{X: -1}, agents[1].Heading)
}

func TestUpdateHeadings_AlignmentScope(t *testing.T) {
	newAgents := func() []Agent {
		return []Agent{
			{Position: geometry.Vector3D{}, Heading: geometry.Vector3D{X: 1}},
			{Position: geometry.Vector3D{X: 10}, Heading: geometry.Vector3D{Y: 1}},
			{Position: geometry.Vector3D{X: 500}, Heading: geometry.Vector3D{Y: -1}},
		}
	}

	t.Run("global", func(t *testing.T) {
		agents := newAgents()
		updateOnce(t, agents, DefaultSettings())
		assert.True(t, agents[0].Heading.Eq(geometry.Vector3D{X: 1}), "got %v", agents[0].Heading)
	})

	t.Run("neighbors", func(t *testing.T) {
		agents := newAgents()
		s := DefaultSettings()
		s.Alignment = AlignNeighbors
		updateOnce(t, agents, s)
		assert.True(t, agents[0].Heading.Eq(geometry.Vector3D{Y: 1}), "got %v", agents[0].Heading)
	})
}

func TestUpdateHeadings_OrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	base, err := Spawn(rng, 300, 150, 1)
	require.NoError(t, err)
	// push a few agents past the boundary as well
	for i := 0; i < 10; i++ {
		base[i].Position = base[i].Position.Mul(20)
	}
	s := DefaultSettings()
	s.NeighborRadius = 40

	var snap Snapshot
	snap.Capture(base)

	run := func(order []int) []Agent {
		agents := append([]Agent(nil), base...)
		var p headingPass
		p.run(agents, &snap, s, nil, order)
		return agents
	}

	want := run(nil)

	reversed := make([]int, len(base))
	for i := range reversed {
		reversed[i] = len(base) - 1 - i
	}
	assert.Equal(t, want, run(reversed))

	for k := 0; k < 5; k++ {
		assert.Equal(t, want, run(rng.Perm(len(base))))
	}
}

func TestUpdateHeadings_ObserverSeesEveryAgent(t *testing.T) {
	agents := []Agent{
		{Position: geometry.Vector3D{}, Heading: geometry.Vector3D{X: 1}},
		{Position: geometry.Vector3D{X: 5}, Heading: geometry.Vector3D{Y: 1}},
		{Position: geometry.Vector3D{X: 5000}, Heading: geometry.Vector3D{Y: 1}},
	}
	var log ForceLog
	var snap Snapshot
	snap.Capture(agents)

	UpdateHeadings(agents, &snap, DefaultSettings(), &log)

	require.Len(t, log.Forces, 3)
	assert.Equal(t, 1, log.Forces[0].Neighbors)
	assert.Equal(t, 100.0, log.Forces[0].NeighborRadius)
	assert.Equal(t, agents[0].Heading, log.Forces[0].Heading)
	assert.True(t, log.Forces[0].Separation.Eq(geometry.Vector3D{X: -5}))
	assert.True(t, log.Forces[0].Cohesion.Eq(geometry.Vector3D{X: 5}))
	assert.True(t, log.Forces[2].Contained)
	assert.Zero(t, log.Forces[2].Neighbors)

	// editing the record must not reach the agents
	log.Forces[1].Heading = geometry.Vector3D{X: 99}
	assert.NotEqual(t, geometry.Vector3D{X: 99}, agents[1].Heading)
}
