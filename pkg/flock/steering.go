package flock

import "github.com/lao-tseu-is-alive/go-flock-simulation/pkg/geometry"

// Separation points away from the neighbors: the negative sum of every offset
// still shorter than radius. Each neighbor pushes with the same weight
// whatever its distance. An empty set gives the zero vector.
func Separation(offsets []geometry.Vector3D, radius float64) geometry.Vector3D {
	var sep geometry.Vector3D
	for _, o := range offsets {
		// offsets are relative, so the check is against the agent itself
		if o.Len() < radius {
			sep = sep.Sub(o)
		}
	}
	return sep
}

// Alignment sums the unit direction of every heading.
// Zero-length or non-finite headings have no direction and are skipped.
func Alignment(headings []geometry.Vector3D) geometry.Vector3D {
	var align geometry.Vector3D
	for _, h := range headings {
		if dir, ok := h.Flat().TryNormalize(); ok {
			align = align.Add(dir)
		}
	}
	return align
}

// Cohesion points toward the local centroid: the sum of the offsets shorter
// than radius divided by the size of the whole set.
// An empty set gives the zero vector.
func Cohesion(offsets []geometry.Vector3D, radius float64) geometry.Vector3D {
	var sum geometry.Vector3D
	for _, o := range offsets {
		if o.Len() < radius {
			sum = sum.Add(o)
		}
	}
	c, err := sum.Div(float64(len(offsets)))
	if err != nil {
		return geometry.Zero
	}
	return c
}
