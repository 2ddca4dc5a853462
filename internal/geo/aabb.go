package geo

import "math"

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max Vec3
}

// BoxAt builds an AABB centered at pos with the given half extents.
func BoxAt(pos, half Vec3) AABB {
	return AABB{
		Min: pos.Sub(half),
		Max: pos.Add(half),
	}
}

func (b AABB) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the edge lengths of the box.
func (b AABB) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// MaxExtent returns the longest edge length, used to scale sample counts.
func (b AABB) MaxExtent() float64 {
	s := b.Size()
	return math.Max(s.X, math.Max(s.Y, s.Z))
}

func (b AABB) Contains(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Corners returns the 8 corner points of the box.
func (b AABB) Corners() [8]Vec3 {
	return [8]Vec3{
		{b.Min.X, b.Min.Y, b.Min.Z},
		{b.Max.X, b.Min.Y, b.Min.Z},
		{b.Min.X, b.Max.Y, b.Min.Z},
		{b.Max.X, b.Max.Y, b.Min.Z},
		{b.Min.X, b.Min.Y, b.Max.Z},
		{b.Max.X, b.Min.Y, b.Max.Z},
		{b.Min.X, b.Max.Y, b.Max.Z},
		{b.Max.X, b.Max.Y, b.Max.Z},
	}
}

// FaceCenters returns the midpoints of the 6 faces.
func (b AABB) FaceCenters() [6]Vec3 {
	c := b.Center()
	return [6]Vec3{
		{b.Min.X, c.Y, c.Z},
		{b.Max.X, c.Y, c.Z},
		{c.X, b.Min.Y, c.Z},
		{c.X, b.Max.Y, c.Z},
		{c.X, c.Y, b.Min.Z},
		{c.X, c.Y, b.Max.Z},
	}
}
