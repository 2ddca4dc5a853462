package geo

// SegmentHitsBox reports whether the segment from a to b intersects the box,
// and the parametric distance t in [0,1] of the entry point. Standard slab
// method; division by zero yields ±Inf which the min/max comparisons handle.
func SegmentHitsBox(a, b Vec3, box AABB) (float64, bool) {
	d := b.Sub(a)

	tmin := 0.0
	tmax := 1.0

	for axis := 0; axis < 3; axis++ {
		var origin, dir, lo, hi float64
		switch axis {
		case 0:
			origin, dir, lo, hi = a.X, d.X, box.Min.X, box.Max.X
		case 1:
			origin, dir, lo, hi = a.Y, d.Y, box.Min.Y, box.Max.Y
		case 2:
			origin, dir, lo, hi = a.Z, d.Z, box.Min.Z, box.Max.Z
		}
		if dir == 0 {
			if origin < lo || origin > hi {
				return 0, false
			}
			continue
		}
		inv := 1.0 / dir
		t1 := (lo - origin) * inv
		t2 := (hi - origin) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return 0, false
		}
	}
	return tmin, true
}
