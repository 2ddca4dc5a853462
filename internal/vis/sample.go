package vis

import (
	"github.com/propcraft/server/internal/geo"
	"github.com/propcraft/server/internal/world"
)

// SamplePoints returns the aim points on the target's bounding box, in a
// deterministic order: center first, then corners, then face midpoints.
// The count scales with object size around the configured base so that a
// large wall segment gets more rays than a small prop, never fewer than 4
// and never more than the 15 distinct points available.
func SamplePoints(target *world.Object, base int) []geo.Vec3 {
	box := target.Bounds()

	n := base
	extent := box.MaxExtent()
	switch {
	case extent < 0.5:
		n = base / 2
	case extent > 3.0:
		n = base + 4
	}
	if n < 4 {
		n = 4
	}
	if n > 15 {
		n = 15
	}

	points := make([]geo.Vec3, 0, n)
	points = append(points, box.Center())
	for _, p := range box.Corners() {
		if len(points) == n {
			return points
		}
		points = append(points, p)
	}
	for _, p := range box.FaceCenters() {
		if len(points) == n {
			return points
		}
		points = append(points, p)
	}
	return points
}
