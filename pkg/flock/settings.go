package flock

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidSettings is wrapped by every Settings.Validate failure.
var ErrInvalidSettings = errors.New("flock: invalid settings")

// AlignmentScope selects which headings feed the alignment force.
type AlignmentScope int

const (
	// AlignGlobal sums the headings of every agent in the flock.
	// This is the historical behavior and the default.
	AlignGlobal AlignmentScope = iota
	// AlignNeighbors sums only the headings of the agents found by the
	// neighbor search, like separation and cohesion.
	AlignNeighbors
)

func (s AlignmentScope) String() string {
	switch s {
	case AlignGlobal:
		return "global"
	case AlignNeighbors:
		return "neighbors"
	default:
		return fmt.Sprintf("AlignmentScope(%d)", int(s))
	}
}

// ParseAlignmentScope accepts "global" or "neighbors" (case insensitive).
// The empty string maps to AlignGlobal.
func ParseAlignmentScope(s string) (AlignmentScope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "global":
		return AlignGlobal, nil
	case "neighbors", "neighbours":
		return AlignNeighbors, nil
	default:
		return AlignGlobal, fmt.Errorf("%w: unknown alignment scope %q", ErrInvalidSettings, s)
	}
}

// Settings controls the steering rules of one tick.
// It is passed explicitly so rules can change between ticks.
type Settings struct {
	NeighborRadius float64 // flock-mates closer than this are neighbors
	MapRadius      float64 // beyond this distance from the origin agents turn home
	ReturnBias     float64 // length of the heading that points an escaped agent home

	Alignment AlignmentScope
}

// DefaultSettings returns the classic radii: 100 for neighbors, 1000 for the map.
func DefaultSettings() Settings {
	return Settings{
		NeighborRadius: 100,
		MapRadius:      1000,
		ReturnBias:     1,
		Alignment:      AlignGlobal,
	}
}

// Validate reports the first unusable value.
func (s Settings) Validate() error {
	switch {
	case !positive(s.NeighborRadius):
		return fmt.Errorf("%w: neighbor radius must be > 0, got %v", ErrInvalidSettings, s.NeighborRadius)
	case !positive(s.MapRadius):
		return fmt.Errorf("%w: map radius must be > 0, got %v", ErrInvalidSettings, s.MapRadius)
	case !positive(s.ReturnBias):
		return fmt.Errorf("%w: return bias must be > 0, got %v", ErrInvalidSettings, s.ReturnBias)
	case s.Alignment != AlignGlobal && s.Alignment != AlignNeighbors:
		return fmt.Errorf("%w: %v", ErrInvalidSettings, s.Alignment)
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
