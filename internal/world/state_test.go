package world

import (
	"testing"

	"github.com/propcraft/server/internal/data"
	"github.com/propcraft/server/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *data.CatalogTable {
	return data.NewCatalogTable(
		&data.Template{ID: "crate", Name: "Crate", BaseValue: 100,
			HalfExtents: data.Vec{X: 0.5, Y: 0.5, Z: 0.5}, Solid: true},
		&data.Template{ID: "glass_panel", Name: "Glass Panel", BaseValue: 40,
			HalfExtents: data.Vec{X: 1, Y: 1, Z: 0.1}, Solid: true, Transparent: true},
		&data.Template{ID: "banner", Name: "Banner", BaseValue: 10,
			HalfExtents: data.Vec{X: 0.5, Y: 1, Z: 0.1}, Solid: false, Decorative: true},
	)
}

func TestInstancePoolGenerations(t *testing.T) {
	p := NewInstancePool()

	a := p.Create()
	require.True(t, p.Alive(a))
	assert.False(t, a.IsZero(), "index 0 is reserved")

	p.Destroy(a)
	assert.False(t, p.Alive(a), "destroyed ID must go stale")

	b := p.Create()
	assert.True(t, p.Alive(b))
	assert.Equal(t, a.Index(), b.Index(), "slot is reused")
	assert.NotEqual(t, a, b, "generation differs")
	assert.False(t, p.Alive(a), "stale reference stays dead after reuse")

	// double destroy with a stale ID is a no-op
	p.Destroy(a)
	assert.True(t, p.Alive(b))
}

func TestInstancePoolOutOfOrderRestore(t *testing.T) {
	p := NewInstancePool()

	// Restoring index 5 first opens a gap; 3 arrives later and must be
	// pulled back off the free list, or Create would hand it out again.
	p.Restore(NewInstanceID(5, 0))
	p.Restore(NewInstanceID(3, 0))

	for i := 0; i < 8; i++ {
		id := p.Create()
		assert.NotEqual(t, uint32(3), id.Index(), "index 3 is a live restore")
		assert.NotEqual(t, uint32(5), id.Index(), "index 5 is a live restore")
	}
	assert.True(t, p.Alive(NewInstanceID(3, 0)))
	assert.True(t, p.Alive(NewInstanceID(5, 0)))
}

func TestRestoreOutOfOrderThenClone(t *testing.T) {
	s := NewState(testCatalog())
	hi := NewInstanceID(5, 0)
	lo := NewInstanceID(3, 0)
	require.NoError(t, s.Restore(hi, "crate", "alice", geo.Vec3{X: 1}, 0, 100))
	require.NoError(t, s.Restore(lo, "crate", "alice", geo.Vec3{X: 2}, 0, 100))

	for i := 0; i < 6; i++ {
		o, err := s.PlaceClone("crate", "bob", geo.Vec3{X: float64(10 + i)}, 0)
		require.NoError(t, err)
		require.NotEqual(t, hi, o.Instance)
		require.NotEqual(t, lo, o.Instance)
	}

	// the restored placements are untouched
	got, ok := s.GetPlaced(lo)
	require.True(t, ok)
	assert.Equal(t, "alice", got.OwnerID)
	assert.Equal(t, geo.Vec3{X: 2}, got.Pos)
	assert.Len(t, s.AllPlaced(), 8)
}

func TestPlaceCloneAndLookup(t *testing.T) {
	s := NewState(testCatalog())

	o, err := s.PlaceClone("crate", "alice", geo.Vec3{X: 5, Z: 5}, 0)
	require.NoError(t, err)
	assert.Equal(t, KindPlaced, o.Kind)
	assert.False(t, o.Instance.IsZero())
	assert.Equal(t, int64(100), o.BaseValue)
	assert.Equal(t, "alice", o.OwnerID)

	got, ok := s.GetPlaced(o.Instance)
	require.True(t, ok)
	assert.Equal(t, o.Pos, got.Pos)

	_, err = s.PlaceClone("no_such_template", "alice", geo.Vec3{}, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnumerateNearby(t *testing.T) {
	s := NewState(testCatalog())

	near, err := s.PlaceClone("crate", "alice", geo.Vec3{X: 3, Z: 0}, 0)
	require.NoError(t, err)
	_, err = s.PlaceClone("crate", "alice", geo.Vec3{X: 30, Z: 0}, 0)
	require.NoError(t, err)

	got, err := s.EnumerateNearby(geo.Vec3{}, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, near.Instance, got[0].Instance)
}

func TestEnumerateNearbySkipsPreviews(t *testing.T) {
	s := NewState(testCatalog())
	o, err := s.PlaceClone("crate", "alice", geo.Vec3{X: 2}, 0)
	require.NoError(t, err)
	s.placed[o.Instance].Preview = true

	got, err := s.EnumerateNearby(geo.Vec3{}, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMoveRotateRemove(t *testing.T) {
	s := NewState(testCatalog())
	o, err := s.PlaceClone("crate", "alice", geo.Vec3{X: 2}, 0)
	require.NoError(t, err)

	require.NoError(t, s.MovePlaced(o.Instance, geo.Vec3{X: 40}))
	got, ok := s.GetPlaced(o.Instance)
	require.True(t, ok)
	assert.Equal(t, 40.0, got.Pos.X)

	// the grid followed the move
	near, err := s.EnumerateNearby(geo.Vec3{X: 40}, 5)
	require.NoError(t, err)
	assert.Len(t, near, 1)

	require.NoError(t, s.RotatePlaced(o.Instance, 90))

	require.NoError(t, s.RemovePlaced(o.Instance))
	_, ok = s.GetPlaced(o.Instance)
	assert.False(t, ok)
	assert.ErrorIs(t, s.MovePlaced(o.Instance, geo.Vec3{}), ErrNotFound)
	assert.ErrorIs(t, s.RemovePlaced(o.Instance), ErrNotFound)
}

func TestDrainDirty(t *testing.T) {
	s := NewState(testCatalog())
	a, err := s.PlaceClone("crate", "alice", geo.Vec3{X: 1}, 0)
	require.NoError(t, err)
	b, err := s.PlaceClone("crate", "alice", geo.Vec3{X: 2}, 0)
	require.NoError(t, err)

	dirty, removed := s.DrainDirty()
	assert.Len(t, dirty, 2)
	assert.Empty(t, removed)

	// no changes since last drain
	dirty, removed = s.DrainDirty()
	assert.Empty(t, dirty)
	assert.Empty(t, removed)

	require.NoError(t, s.MovePlaced(a.Instance, geo.Vec3{X: 9}))
	require.NoError(t, s.RemovePlaced(b.Instance))
	dirty, removed = s.DrainDirty()
	require.Len(t, dirty, 1)
	assert.Equal(t, a.Instance, dirty[0].Instance)
	assert.Equal(t, []InstanceID{b.Instance}, removed)
}

func TestRestoreRoundTrip(t *testing.T) {
	s := NewState(testCatalog())
	o, err := s.PlaceClone("crate", "alice", geo.Vec3{X: 1}, 45)
	require.NoError(t, err)

	s2 := NewState(testCatalog())
	require.NoError(t, s2.Restore(o.Instance, o.TemplateID, o.OwnerID, o.Pos, o.Yaw, o.BaseValue))
	got, ok := s2.GetPlaced(o.Instance)
	require.True(t, ok)
	assert.Equal(t, o.OwnerID, got.OwnerID)
	assert.Equal(t, 45.0, got.Yaw)

	// new placements after a restore must not collide with restored IDs
	n, err := s2.PlaceClone("crate", "bob", geo.Vec3{X: 2}, 0)
	require.NoError(t, err)
	assert.NotEqual(t, o.Instance, n.Instance)
}

func TestCastClearBlockingClassification(t *testing.T) {
	s := NewState(testCatalog())
	from := geo.Vec3{Y: 1}
	to := geo.Vec3{X: 10, Y: 1}

	clear, err := s.CastClear(from, to, CastOptions{})
	require.NoError(t, err)
	assert.True(t, clear, "empty world is clear")

	blocker, err := s.PlaceClone("crate", "alice", geo.Vec3{X: 5, Y: 1}, 0)
	require.NoError(t, err)

	clear, err = s.CastClear(from, to, CastOptions{})
	require.NoError(t, err)
	assert.False(t, clear, "solid crate blocks")

	// the target itself never blocks rays to its own samples
	clear, err = s.CastClear(from, to, CastOptions{ExcludeKey: blocker.Key()})
	require.NoError(t, err)
	assert.True(t, clear)

	require.NoError(t, s.RemovePlaced(blocker.Instance))

	// glass blocks only when configured to
	glass, err := s.PlaceClone("glass_panel", "alice", geo.Vec3{X: 5, Y: 1}, 0)
	require.NoError(t, err)
	clear, _ = s.CastClear(from, to, CastOptions{})
	assert.True(t, clear, "transparent surface passes by default")
	clear, _ = s.CastClear(from, to, CastOptions{TransparentBlocks: true})
	assert.False(t, clear, "transparent surface blocks when configured")
	require.NoError(t, s.RemovePlaced(glass.Instance))

	// decorative surfaces never block
	_, err = s.PlaceClone("banner", "alice", geo.Vec3{X: 5, Y: 1}, 0)
	require.NoError(t, err)
	clear, _ = s.CastClear(from, to, CastOptions{TransparentBlocks: true})
	assert.True(t, clear)
}

func TestCastClearPreviewGhostNeverBlocks(t *testing.T) {
	s := NewState(testCatalog())
	o, err := s.PlaceClone("crate", "alice", geo.Vec3{X: 5, Y: 1}, 0)
	require.NoError(t, err)
	s.placed[o.Instance].Preview = true

	clear, err := s.CastClear(geo.Vec3{Y: 1}, geo.Vec3{X: 10, Y: 1}, CastOptions{})
	require.NoError(t, err)
	assert.True(t, clear)
}

func TestCastClearWallsAlwaysBlock(t *testing.T) {
	s := NewState(testCatalog())
	err := s.LoadStructures(&data.StructureTable{
		Walls: []data.Wall{{
			Min: data.Vec{X: 4, Y: 0, Z: -5},
			Max: data.Vec{X: 4.2, Y: 3, Z: 5},
		}},
	})
	require.NoError(t, err)

	clear, err := s.CastClear(geo.Vec3{Y: 1}, geo.Vec3{X: 10, Y: 1}, CastOptions{})
	require.NoError(t, err)
	assert.False(t, clear)
}
