package flock

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"
)

func TestSpawn(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 42))

	agents, err := Spawn(rng, 500, 100, 3)

	require.NoError(t, err)
	require.Len(t, agents, 500)
	for i, a := range agents {
		assert.LessOrEqualf(t, a.Position.Len(), 100.0, "agent %d spawned outside the disk", i)
		assert.Zero(t, a.Position.Z)
		assert.InDelta(t, 1.0, a.Heading.Len(), 1e-9)
		assert.Equal(t, 3.0, a.Speed)
	}
}

func TestSpawn_SameSeedSameFlock(t *testing.T) {
	a, err := Spawn(rand.New(rand.NewPCG(1, 2)), 50, 80, 1)
	require.NoError(t, err)
	b, err := Spawn(rand.New(rand.NewPCG(1, 2)), 50, 80, 1)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSpawn_Invalid(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	tests := []struct {
		name   string
		radius float64
		speed  float64
	}{
		{"negative radius", -1, 1},
		{"NaN radius", math.NaN(), 1},
		{"zero speed", 10, 0},
		{"negative speed", 10, -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Spawn(rng, 10, tt.radius, tt.speed)
			assert.ErrorIs(t, err, ErrInvalidSpawn)
		})
	}

	agents, err := Spawn(rng, 0, 10, 1)
	require.NoError(t, err)
	assert.Empty(t, agents)
}

func TestSettings_Validate(t *testing.T) {
	assert.NoError(t, DefaultSettings().Validate())

	broken := []func(*Settings){
		func(s *Settings) { s.NeighborRadius = 0 },
		func(s *Settings) { s.MapRadius = -1 },
		func(s *Settings) { s.ReturnBias = math.Inf(1) },
		func(s *Settings) { s.Alignment = AlignmentScope(9) },
	}
	for i, mutate := range broken {
		s := DefaultSettings()
		mutate(&s)
		assert.ErrorIsf(t, s.Validate(), ErrInvalidSettings, "case %d", i)
	}
}

func TestParseAlignmentScope(t *testing.T) {
	tests := []struct {
		in      string
		want    AlignmentScope
		wantErr bool
	}{
		{"", AlignGlobal, false},
		{"global", AlignGlobal, false},
		{"Neighbors", AlignNeighbors, false},
		{"local", AlignGlobal, true},
	}
	for _, tt := range tests {
		got, err := ParseAlignmentScope(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidSettings)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, got, mustParse(t, got.String()))
	}
}

func mustParse(t *testing.T, s string) AlignmentScope {
	t.Helper()
	scope, err := ParseAlignmentScope(s)
	require.NoError(t, err)
	return scope
}

func TestNew_RejectsInvalidSettings(t *testing.T) {
	s := DefaultSettings()
	s.NeighborRadius = -5
	_, err := New(s, nil)
	assert.True(t, errors.Is(err, ErrInvalidSettings))
}

func TestFlock_PopulationIsConstant(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	agents, err := Spawn(rng, 200, 100, 50)
	require.NoError(t, err)
	f, err := New(DefaultSettings(), agents)
	require.NoError(t, err)

	for i := 0; i < 200; i++ {
		f.Tick(1.0 / 60)
		require.Equal(t, 200, f.Len())
	}
	assert.Equal(t, uint64(200), f.Ticks())
	for i, a := range f.Agents() {
		assert.Truef(t, a.Position.IsFinite(), "agent %d position %v", i, a.Position)
		assert.Truef(t, a.Heading.IsFinite(), "agent %d heading %v", i, a.Heading)
	}
}

func TestFlock_EscapedAgentsTurnHome(t *testing.T) {
	agents := []Agent{
		{Position: geometry.Vector3D{X: 1500}, Heading: geometry.Vector3D{X: 1}, Speed: 100},
	}
	f, err := New(DefaultSettings(), agents)
	require.NoError(t, err)

	f.Tick(1)

	a := f.Agents()[0]
	assert.True(t, a.Heading.Eq(geometry.Vector3D{X: -1}), "heading %v", a.Heading)
	assert.True(t, a.Position.Eq(geometry.Vector3D{X: 1400}), "position %v", a.Position)
}

func TestFlock_NegativeElapsedIsZero(t *testing.T) {
	agents := []Agent{{Position: geometry.Vector3D{X: 3}, Heading: geometry.Vector3D{Y: 1}, Speed: 10}}
	f, err := New(DefaultSettings(), agents)
	require.NoError(t, err)

	f.Tick(-2)

	assert.Equal(t, geometry.Vector3D{X: 3}, f.Agents()[0].Position)
}

func TestFlock_ObserverAndSettings(t *testing.T) {
	agents, err := Spawn(rand.New(rand.NewPCG(9, 9)), 20, 30, 1)
	require.NoError(t, err)
	calls := 0
	f, err := New(DefaultSettings(), agents, WithObserver(ObserverFunc(func(Forces) { calls++ })))
	require.NoError(t, err)

	f.Tick(0.1)
	assert.Equal(t, 20, calls)

	bad := f.Settings()
	bad.MapRadius = 0
	assert.ErrorIs(t, f.SetSettings(bad), ErrInvalidSettings)

	good := f.Settings()
	good.Alignment = AlignNeighbors
	require.NoError(t, f.SetSettings(good))
	assert.Equal(t, AlignNeighbors, f.Settings().Alignment)

	f.SetObserver(nil)
	f.Tick(0.1)
	assert.Equal(t, 20, calls)

	copied := f.CopyAgents(nil)
	copied[0].Speed = 99
	assert.NotEqual(t, 99.0, f.Agents()[0].Speed)
}

func TestTick_MatchesFlock(t *testing.T) {
	base, err := Spawn(rand.New(rand.NewPCG(5, 6)), 100, 60, 2)
	require.NoError(t, err)

	loose := append([]Agent(nil), base...)
	var snap Snapshot
	for i := 0; i < 10; i++ {
		Tick(loose, 0.05, DefaultSettings(), &snap, nil)
	}

	f, err := New(DefaultSettings(), append([]Agent(nil), base...))
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		f.Tick(0.05)
	}

	assert.Equal(t, loose, f.Agents())
}

func BenchmarkFlock_Tick(b *testing.B) {
	agents, err := Spawn(rand.New(rand.NewPCG(1, 1)), 2000, 100, 100)
	require.NoError(b, err)
	f, err := New(DefaultSettings(), agents)
	require.NoError(b, err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f.Tick(1.0 / 60)
	}
}
