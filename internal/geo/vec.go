package geo

import "math"

// Vec3 is a point or direction in world space. Y is up.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) Len() float64 {
	return math.Sqrt(v.Dot(v))
}

// Dist returns the Euclidean distance between two points.
func Dist(a, b Vec3) float64 {
	return a.Sub(b).Len()
}

// Quantize rounds each component to the nearest multiple of step.
// Used to key visibility cache entries so small observer movements
// do not churn the cache.
func (v Vec3) Quantize(step float64) Vec3 {
	if step <= 0 {
		return v
	}
	return Vec3{
		X: math.Round(v.X/step) * step,
		Y: math.Round(v.Y/step) * step,
		Z: math.Round(v.Z/step) * step,
	}
}
