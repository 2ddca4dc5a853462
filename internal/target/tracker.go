package target

import (
	"sort"

	"github.com/propcraft/server/internal/geo"
	"github.com/propcraft/server/internal/vis"
	"github.com/propcraft/server/internal/world"
	"go.uber.org/zap"
)

// Source supplies targeting candidates. Implemented by world.State.
type Source interface {
	EnumerateNearby(pos geo.Vec3, radius float64) ([]world.Object, error)
	Resolve(key string) (world.Object, bool)
}

// Visibility answers occlusion queries. Implemented by vis.Checker.
type Visibility interface {
	Check(observerID uint64, eye geo.Vec3, target *world.Object) vis.Verdict
}

// LossReason explains why a target was dropped.
type LossReason string

const (
	LossOutOfRange LossReason = "out_of_range"
	LossOccluded   LossReason = "occluded"
	LossDestroyed  LossReason = "destroyed"
	LossSuperseded LossReason = "superseded" // replaced by a closer target
)

// ChangeKind is the outcome of one tracker update.
type ChangeKind int

const (
	ChangeNone ChangeKind = iota
	ChangeAcquired
	ChangeLost
)

// Change reports a target transition. Acquired changes carry the new target
// snapshot; when a switch supersedes an earlier target, PrevKey names it.
type Change struct {
	Kind    ChangeKind
	Target  world.Object
	PrevKey string
	Reason  LossReason
}

// Config tunes acquisition and retention.
type Config struct {
	MaxDistance  float64 // acquisition radius
	RetainFactor float64 // retention radius as a multiple of MaxDistance
	SwitchMargin float64 // required relative distance gain to switch
}

// Tracker follows one observer's current target across ticks with
// hysteresis, so a participant walking along a shelf does not see the
// prompt flicker between neighbours. Game loop only.
type Tracker struct {
	cfg    Config
	source Source
	visib  Visibility
	log    *zap.Logger

	currentKey  string
	currentDist float64
}

func NewTracker(cfg Config, source Source, visib Visibility, log *zap.Logger) *Tracker {
	return &Tracker{cfg: cfg, source: source, visib: visib, log: log}
}

// CurrentKey returns the key of the held target, or "" when idle.
func (t *Tracker) CurrentKey() string {
	return t.currentKey
}

// Update runs one targeting tick for the observer and returns the resulting
// transition. At most one transition happens per tick; after a loss, any new
// acquisition waits for the next tick.
func (t *Tracker) Update(obs *world.Observer) Change {
	retainRadius := t.cfg.MaxDistance * t.cfg.RetainFactor
	candidates, err := t.source.EnumerateNearby(obs.Pos, retainRadius)
	if err != nil {
		// Transient enumeration failure. Keep the held target untouched
		// rather than dropping it and re-prompting next tick.
		t.log.Warn("candidate enumeration failed",
			zap.Uint64("observer", obs.SessionID),
			zap.Error(err),
		)
		return Change{Kind: ChangeNone}
	}
	eye := obs.Eye()

	if t.currentKey != "" {
		if change, held := t.checkHeld(obs, eye, retainRadius); !held {
			return change
		}
	}

	best, bestDist, ok := t.bestCandidate(obs, eye, candidates)
	if !ok {
		return Change{Kind: ChangeNone}
	}

	if t.currentKey == "" {
		t.currentKey = best.Key()
		t.currentDist = bestDist
		return Change{Kind: ChangeAcquired, Target: best}
	}

	if best.Key() == t.currentKey {
		t.currentDist = bestDist
		return Change{Kind: ChangeNone}
	}

	// Only switch when the challenger is a clear win over the held target.
	if bestDist <= t.currentDist*(1.0-t.cfg.SwitchMargin) {
		prev := t.currentKey
		t.currentKey = best.Key()
		t.currentDist = bestDist
		return Change{Kind: ChangeAcquired, Target: best, PrevKey: prev}
	}
	return Change{Kind: ChangeNone}
}

// checkHeld revalidates the current target. It returns held=false with the
// loss transition when the target must be dropped; otherwise it refreshes
// the stored distance.
func (t *Tracker) checkHeld(obs *world.Observer, eye geo.Vec3, retainRadius float64) (Change, bool) {
	cur, alive := t.source.Resolve(t.currentKey)
	if !alive {
		return t.lose(LossDestroyed), false
	}
	dist := geo.Dist(obs.Pos, cur.Pos)
	if dist > retainRadius {
		return t.lose(LossOutOfRange), false
	}
	if !t.visib.Check(obs.SessionID, eye, &cur).Visible {
		return t.lose(LossOccluded), false
	}
	t.currentDist = dist
	return Change{}, true
}

func (t *Tracker) lose(reason LossReason) Change {
	prev := t.currentKey
	t.currentKey = ""
	t.currentDist = 0
	return Change{Kind: ChangeLost, PrevKey: prev, Reason: reason}
}

// Reset drops tracker state without emitting a transition, for disconnects.
func (t *Tracker) Reset() {
	t.currentKey = ""
	t.currentDist = 0
}

// bestCandidate picks the nearest visible candidate inside the acquisition
// radius. Equidistant candidates resolve by template ID, then key, so the
// choice is stable across ticks.
func (t *Tracker) bestCandidate(obs *world.Observer, eye geo.Vec3, candidates []world.Object) (world.Object, float64, bool) {
	type scored struct {
		obj  world.Object
		dist float64
	}
	var visible []scored
	for i := range candidates {
		d := geo.Dist(obs.Pos, candidates[i].Pos)
		if d > t.cfg.MaxDistance {
			continue
		}
		if !t.visib.Check(obs.SessionID, eye, &candidates[i]).Visible {
			continue
		}
		visible = append(visible, scored{obj: candidates[i], dist: d})
	}
	if len(visible) == 0 {
		return world.Object{}, 0, false
	}
	sort.Slice(visible, func(i, j int) bool {
		if visible[i].dist != visible[j].dist {
			return visible[i].dist < visible[j].dist
		}
		if visible[i].obj.TemplateID != visible[j].obj.TemplateID {
			return visible[i].obj.TemplateID < visible[j].obj.TemplateID
		}
		return visible[i].obj.Key() < visible[j].obj.Key()
	})
	return visible[0].obj, visible[0].dist, true
}
