package vis

import (
	"time"

	"github.com/propcraft/server/internal/geo"
	"github.com/propcraft/server/internal/world"
	"go.uber.org/zap"
)

// Raycaster casts a sight ray through the world. Implemented by world.State;
// tests substitute fakes with scripted outcomes.
type Raycaster interface {
	CastClear(from, to geo.Vec3, opts world.CastOptions) (bool, error)
}

// Config tunes the occlusion test. All values come from the visibility and
// interaction sections of the server config.
type Config struct {
	RaysPerObject     int     // base sample count, scaled by object size
	MinClearFraction  float64 // fraction of clear rays required
	MaxDistance       float64 // straight-line interaction limit
	CacheTTL          time.Duration
	QuantizeStep      float64 // observer position rounding for cache keys
	TransparentBlocks bool
}

// Verdict is the cached outcome of one occlusion test.
type Verdict struct {
	ObserverID    uint64
	TargetKey     string
	ClearFraction float64
	Visible       bool
	ComputedAt    time.Time
}

type cacheKey struct {
	observerID uint64
	targetKey  string
	qpos       geo.Vec3
}

// Checker decides whether an observer has line of sight to a candidate.
// Game-loop use only; the cache is not locked.
type Checker struct {
	cfg   Config
	rays  Raycaster
	cache map[cacheKey]Verdict
	log   *zap.Logger
	now   func() time.Time
}

func NewChecker(cfg Config, rays Raycaster, log *zap.Logger) *Checker {
	if cfg.QuantizeStep <= 0 {
		cfg.QuantizeStep = 1.0
	}
	return &Checker{
		cfg:   cfg,
		rays:  rays,
		cache: make(map[cacheKey]Verdict),
		log:   log,
		now:   time.Now,
	}
}

// Check runs the multi-ray occlusion test from the observer's eye to the
// target, or returns the cached verdict when the observer has not moved
// beyond the quantization step within the TTL window.
func (c *Checker) Check(observerID uint64, eye geo.Vec3, target *world.Object) Verdict {
	key := cacheKey{
		observerID: observerID,
		targetKey:  target.Key(),
		qpos:       eye.Quantize(c.cfg.QuantizeStep),
	}
	now := c.now()
	if v, ok := c.cache[key]; ok {
		if now.Sub(v.ComputedAt) < c.cfg.CacheTTL {
			return v
		}
		delete(c.cache, key) // expired, recompute
	}

	v := c.compute(observerID, eye, target, now)
	c.cache[key] = v
	return v
}

func (c *Checker) compute(observerID uint64, eye geo.Vec3, target *world.Object, now time.Time) Verdict {
	v := Verdict{
		ObserverID: observerID,
		TargetKey:  target.Key(),
		ComputedAt: now,
	}

	// Out-of-range targets are never visible; skip the ray budget entirely.
	if geo.Dist(eye, target.Pos) > c.cfg.MaxDistance {
		return v
	}

	points := SamplePoints(target, c.cfg.RaysPerObject)
	opts := world.CastOptions{
		ExcludeKey:        target.Key(),
		TransparentBlocks: c.cfg.TransparentBlocks,
	}

	clear := 0
	for _, p := range points {
		ok, err := c.rays.CastClear(eye, p, opts)
		if err != nil {
			// Fail closed: a missing prompt is safer than a prompt for an
			// unreachable object. Count the ray as blocked.
			c.log.Warn("sight ray failed",
				zap.Uint64("observer", observerID),
				zap.String("target", target.Key()),
				zap.Error(err),
			)
			continue
		}
		if ok {
			clear++
		}
	}

	v.ClearFraction = float64(clear) / float64(len(points))
	v.Visible = v.ClearFraction >= c.cfg.MinClearFraction
	return v
}

// Prune drops expired cache entries. Called periodically by the cleanup
// system; correctness does not depend on it (lookups check the TTL).
func (c *Checker) Prune() {
	now := c.now()
	for k, v := range c.cache {
		if now.Sub(v.ComputedAt) >= c.cfg.CacheTTL {
			delete(c.cache, k)
		}
	}
}

// CacheLen reports the live entry count, for cleanup heuristics and tests.
func (c *Checker) CacheLen() int {
	return len(c.cache)
}
