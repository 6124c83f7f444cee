package flock

import "math"

// Integrate advances every agent by Speed * unit(Heading) * dt.
// Agents whose heading has no direction stay where they are; their count is
// returned. A zero, negative or NaN dt moves nobody.
func Integrate(agents []Agent, dt float64) int {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return 0
	}

	stalled := 0
	for i := range agents {
		a := &agents[i]
		dir, ok := a.Heading.Flat().TryNormalize()
		if !ok {
			stalled++
			continue
		}
		a.Position = a.Position.Add(dir.Mul(a.Speed * dt))
	}
	return stalled
}
