package flock

import "github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"

// Neighbor is one flock-mate seen from a query position.
type Neighbor struct {
	Index  int               // index of the flock-mate in the snapshot
	Offset geometry.Vector3D // flock-mate position minus query position, planar
}

// NeighborSet is the result of one neighbor query.
type NeighborSet []Neighbor

// Offsets appends the relative vectors of ns to dst[:0] and returns it.
func (ns NeighborSet) Offsets(dst []geometry.Vector3D) []geometry.Vector3D {
	dst = dst[:0]
	for _, n := range ns {
		dst = append(dst, n.Offset)
	}
	return dst
}

// FindNeighbors scans every position and keeps those whose planar distance to
// at is strictly between 0 and radius. Results are appended to dst[:0] in
// snapshot order.
//
// The self filter is the zero-distance test, not an index test: two agents on
// the exact same point do not see each other.
//
// The scan is O(N) per query. A grid or kd-tree can replace it behind the
// same signature.
func FindNeighbors(positions []geometry.Vector3D, at geometry.Vector3D, radius float64, dst NeighborSet) NeighborSet {
	dst = dst[:0]
	at = at.Flat()
	for i, p := range positions {
		offset := p.Flat().Sub(at)
		d := offset.Len()
		if d < radius && d > 0 {
			dst = append(dst, Neighbor{Index: i, Offset: offset})
		}
	}
	return dst
}
