package vis

import (
	"errors"
	"testing"
	"time"

	"github.com/propcraft/server/internal/data"
	"github.com/propcraft/server/internal/geo"
	"github.com/propcraft/server/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeCaster answers a fixed number of rays as clear, the rest blocked,
// and counts every cast it receives.
type fakeCaster struct {
	clearBudget int
	casts       int
	err         error
}

func (f *fakeCaster) CastClear(_, _ geo.Vec3, _ world.CastOptions) (bool, error) {
	f.casts++
	if f.err != nil {
		return false, f.err
	}
	if f.clearBudget > 0 {
		f.clearBudget--
		return true, nil
	}
	return false, nil
}

func testTarget(t *testing.T) *world.Object {
	t.Helper()
	tpl := &data.Template{
		ID:          "crate",
		BaseValue:   100,
		HalfExtents: data.Vec{X: 0.5, Y: 0.5, Z: 0.5},
		Solid:       true,
	}
	return &world.Object{
		Kind:       world.KindPlaced,
		Instance:   world.NewInstanceID(1, 0),
		TemplateID: "crate",
		Pos:        geo.Vec3{X: 5, Y: 0.5, Z: 0},
		Template:   tpl,
	}
}

func testConfig() Config {
	return Config{
		RaysPerObject:    8,
		MinClearFraction: 0.3,
		MaxDistance:      10,
		CacheTTL:         500 * time.Millisecond,
	}
}

func TestCheckThreshold(t *testing.T) {
	eye := geo.Vec3{Y: 1.6}
	target := testTarget(t)

	// 8 rays at 0.3 threshold: 3 clear passes, 2 clear fails.
	caster := &fakeCaster{clearBudget: 3}
	c := NewChecker(testConfig(), caster, zap.NewNop())
	v := c.Check(1, eye, target)
	assert.True(t, v.Visible)
	assert.InDelta(t, 0.375, v.ClearFraction, 1e-9)
	assert.Equal(t, 8, caster.casts)

	caster = &fakeCaster{clearBudget: 2}
	c = NewChecker(testConfig(), caster, zap.NewNop())
	v = c.Check(1, eye, target)
	assert.False(t, v.Visible)
	assert.InDelta(t, 0.25, v.ClearFraction, 1e-9)
}

func TestCheckOutOfRangeSkipsRays(t *testing.T) {
	caster := &fakeCaster{clearBudget: 100}
	c := NewChecker(testConfig(), caster, zap.NewNop())

	far := testTarget(t)
	far.Pos = geo.Vec3{X: 50}
	v := c.Check(1, geo.Vec3{Y: 1.6}, far)
	assert.False(t, v.Visible)
	assert.Zero(t, v.ClearFraction)
	assert.Zero(t, caster.casts)
}

func TestCheckFailClosedOnRayError(t *testing.T) {
	caster := &fakeCaster{err: errors.New("cast backend down")}
	c := NewChecker(testConfig(), caster, zap.NewNop())

	v := c.Check(1, geo.Vec3{Y: 1.6}, testTarget(t))
	assert.False(t, v.Visible)
	assert.Zero(t, v.ClearFraction)
	assert.Equal(t, 8, caster.casts)
}

func TestCheckCache(t *testing.T) {
	caster := &fakeCaster{clearBudget: 100}
	c := NewChecker(testConfig(), caster, zap.NewNop())
	base := time.Now()
	c.now = func() time.Time { return base }

	eye := geo.Vec3{Y: 1.6}
	target := testTarget(t)

	first := c.Check(1, eye, target)
	require.True(t, first.Visible)
	require.Equal(t, 8, caster.casts)

	// Sub-step movement within the TTL serves the cached verdict.
	nudged := geo.Vec3{X: 0.2, Y: 1.6}
	second := c.Check(1, nudged, target)
	assert.Equal(t, first, second)
	assert.Equal(t, 8, caster.casts)

	// A different observer never shares entries.
	c.Check(2, eye, target)
	assert.Equal(t, 16, caster.casts)

	// TTL expiry forces a recompute.
	c.now = func() time.Time { return base.Add(time.Second) }
	c.Check(1, eye, target)
	assert.Equal(t, 24, caster.casts)
}

func TestPrune(t *testing.T) {
	caster := &fakeCaster{clearBudget: 100}
	c := NewChecker(testConfig(), caster, zap.NewNop())
	base := time.Now()
	c.now = func() time.Time { return base }

	c.Check(1, geo.Vec3{Y: 1.6}, testTarget(t))
	require.Equal(t, 1, c.CacheLen())

	c.now = func() time.Time { return base.Add(time.Second) }
	c.Prune()
	assert.Zero(t, c.CacheLen())
}

func TestSamplePointsScaling(t *testing.T) {
	small := testTarget(t)
	small.Template = &data.Template{ID: "coin", HalfExtents: data.Vec{X: 0.1, Y: 0.1, Z: 0.1}}
	assert.Len(t, SamplePoints(small, 8), 4)

	medium := testTarget(t)
	assert.Len(t, SamplePoints(medium, 8), 8)

	large := testTarget(t)
	large.Template = &data.Template{ID: "wall", HalfExtents: data.Vec{X: 4, Y: 2, Z: 0.2}}
	assert.Len(t, SamplePoints(large, 8), 12)

	// Order is deterministic: center leads.
	pts := SamplePoints(medium, 8)
	assert.Equal(t, medium.Bounds().Center(), pts[0])
}
