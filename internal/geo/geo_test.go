package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDist(t *testing.T) {
	assert.Equal(t, 5.0, Dist(Vec3{0, 0, 0}, Vec3{3, 4, 0}))
	assert.Equal(t, 0.0, Dist(Vec3{1, 2, 3}, Vec3{1, 2, 3}))
}

func TestQuantize(t *testing.T) {
	v := Vec3{1.4, 2.6, -0.5}
	q := v.Quantize(1.0)
	assert.Equal(t, Vec3{1, 3, 0}, q)

	// step <= 0 is a no-op
	assert.Equal(t, v, v.Quantize(0))
}

func TestBoxAt(t *testing.T) {
	b := BoxAt(Vec3{10, 5, 10}, Vec3{1, 2, 1})
	assert.Equal(t, Vec3{9, 3, 9}, b.Min)
	assert.Equal(t, Vec3{11, 7, 11}, b.Max)
	assert.Equal(t, Vec3{10, 5, 10}, b.Center())
	assert.Equal(t, 4.0, b.MaxExtent())
}

func TestSegmentHitsBox(t *testing.T) {
	box := AABB{Min: Vec3{4, 0, -1}, Max: Vec3{6, 2, 1}}

	// straight through the box
	tEntry, hit := SegmentHitsBox(Vec3{0, 1, 0}, Vec3{10, 1, 0}, box)
	require.True(t, hit)
	assert.InDelta(t, 0.4, tEntry, 1e-9)

	// stops short of the box
	_, hit = SegmentHitsBox(Vec3{0, 1, 0}, Vec3{3, 1, 0}, box)
	assert.False(t, hit)

	// parallel miss on the Z axis
	_, hit = SegmentHitsBox(Vec3{0, 1, 5}, Vec3{10, 1, 5}, box)
	assert.False(t, hit)

	// axis-parallel segment with zero direction components
	_, hit = SegmentHitsBox(Vec3{5, -2, 0}, Vec3{5, 4, 0}, box)
	assert.True(t, hit)

	// segment starting inside the box hits at t=0
	tEntry, hit = SegmentHitsBox(Vec3{5, 1, 0}, Vec3{10, 1, 0}, box)
	require.True(t, hit)
	assert.Equal(t, 0.0, tEntry)
}
