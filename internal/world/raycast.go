package world

import "github.com/propcraft/server/internal/geo"

// CastOptions select which surfaces count as blocking for one ray.
type CastOptions struct {
	// ExcludeKey is the target's own key: an object never occludes rays to
	// its own sample points.
	ExcludeKey string
	// TransparentBlocks makes glass surfaces blocking.
	TransparentBlocks bool
}

// CastClear reports whether the segment from 'from' to 'to' reaches its end
// without first hitting a blocking surface. Static walls always block;
// objects block per Object.BlocksSight. Observer avatars are not part of the
// object set and therefore never block.
//
// The error return exists for the vis.Raycaster contract; the in-process
// implementation cannot fail.
func (s *State) CastClear(from, to geo.Vec3, opts CastOptions) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, wall := range s.walls {
		if _, hit := geo.SegmentHitsBox(from, to, wall); hit {
			return false, nil
		}
	}

	// Scan the cells around the segment. The search circle centered on the
	// midpoint with half the segment length plus a pad covers every cell an
	// oversized object could occlude from.
	mid := from.Add(to).Scale(0.5)
	radius := geo.Dist(from, to)/2 + gridCellSize

	blocked := false
	s.grid.EachWithin(mid, radius, func(o *Object) {
		if blocked || o.Key() == opts.ExcludeKey {
			return
		}
		if !o.BlocksSight(opts.TransparentBlocks) {
			return
		}
		if _, hit := geo.SegmentHitsBox(from, to, o.Bounds()); hit {
			blocked = true
		}
	})
	return !blocked, nil
}
