package world

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/propcraft/server/internal/data"
	"github.com/propcraft/server/internal/geo"
)

// ErrNotFound is returned by placement lookups and mutations when the
// instance is gone (destroyed, recalled, or never existed).
var ErrNotFound = errors.New("placement not found")

// State is the authoritative world. The object set is read by the game-loop
// targeting pipeline and mutated by concurrent action-request goroutines, so
// it is guarded by mu. The observer set is owned by the game loop exclusively
// and needs no locking.
type State struct {
	mu       sync.RWMutex
	catalog  *data.CatalogTable
	pool     *InstancePool
	placed   map[InstanceID]*Object
	exhibits map[string]*Object // template ID → catalog exhibit
	grid     *Grid
	walls    []geo.AABB
	removed  []InstanceID // pending delete-side persistence

	observers map[uint64]*Observer // game loop only
}

func NewState(catalog *data.CatalogTable) *State {
	return &State{
		catalog:   catalog,
		pool:      NewInstancePool(),
		placed:    make(map[InstanceID]*Object),
		exhibits:  make(map[string]*Object),
		grid:      NewGrid(),
		observers: make(map[uint64]*Observer),
	}
}

// LoadStructures installs static walls and catalog exhibits at boot.
func (s *State) LoadStructures(table *data.StructureTable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range table.Walls {
		s.walls = append(s.walls, w.Box())
	}
	for _, e := range table.Exhibits {
		tpl := s.catalog.Get(e.Template)
		if tpl == nil {
			return fmt.Errorf("exhibit references unknown template %s", e.Template)
		}
		o := &Object{
			Kind:       KindCatalog,
			TemplateID: tpl.ID,
			Pos:        e.Position.Vec(),
			Yaw:        e.Yaw,
			BaseValue:  tpl.BaseValue,
			Template:   tpl,
		}
		s.exhibits[tpl.ID] = o
		s.grid.Add(o)
	}
	return nil
}

// --- Observer methods (game loop only) ---

func (s *State) AddObserver(ob *Observer) {
	s.observers[ob.SessionID] = ob
}

func (s *State) RemoveObserver(sessionID uint64) *Observer {
	ob := s.observers[sessionID]
	delete(s.observers, sessionID)
	return ob
}

func (s *State) GetObserver(sessionID uint64) *Observer {
	return s.observers[sessionID]
}

func (s *State) UpdateObserver(sessionID uint64, pos, facing geo.Vec3) {
	ob := s.observers[sessionID]
	if ob == nil {
		return
	}
	ob.Pos = pos
	ob.Facing = facing
}

func (s *State) ObserverCount() int {
	return len(s.observers)
}

func (s *State) EachObserver(fn func(*Observer)) {
	for _, ob := range s.observers {
		fn(ob)
	}
}

// --- Object queries ---

// EnumerateNearby returns snapshot copies of interactable objects within
// radius of pos. Preview ghosts are not interactable and are skipped. The
// copies stay coherent even if a concurrent action mutates the originals
// right after the call; staleness is bounded by one tick.
func (s *State) EnumerateNearby(pos geo.Vec3, radius float64) ([]Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []Object
	s.grid.EachWithin(pos, radius, func(o *Object) {
		if o.Preview {
			return
		}
		if geo.Dist(pos, o.Pos) <= radius {
			result = append(result, *o)
		}
	})
	return result, nil
}

// GetPlaced returns a snapshot of a live placement.
func (s *State) GetPlaced(id InstanceID) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.placed[id]
	if !ok {
		return Object{}, false
	}
	return *o, true
}

// GetExhibit returns a snapshot of a catalog exhibit.
func (s *State) GetExhibit(templateID string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.exhibits[templateID]
	if !ok {
		return Object{}, false
	}
	return *o, true
}

// Resolve looks up an object by its target key, covering both placed
// instances and catalog exhibits.
func (s *State) Resolve(key string) (Object, bool) {
	kind, rest, ok := ParseKey(key)
	if !ok {
		return Object{}, false
	}
	if kind == KindCatalog {
		return s.GetExhibit(rest)
	}
	n, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return Object{}, false
	}
	return s.GetPlaced(InstanceID(n))
}

func (s *State) PlacedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.placed)
}

// --- Object mutations (safe for concurrent callers) ---

// PlaceClone creates a new placement from a template at the given position
// and returns a snapshot of it. The base value is copied from the template
// at placement time.
func (s *State) PlaceClone(templateID, ownerID string, pos geo.Vec3, yaw float64) (Object, error) {
	tpl := s.catalog.Get(templateID)
	if tpl == nil {
		return Object{}, fmt.Errorf("unknown template %s: %w", templateID, ErrNotFound)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o := &Object{
		Kind:       KindPlaced,
		Instance:   s.pool.Create(),
		TemplateID: tpl.ID,
		OwnerID:    ownerID,
		Pos:        pos,
		Yaw:        yaw,
		BaseValue:  tpl.BaseValue,
		Template:   tpl,
		dirty:      true,
	}
	s.placed[o.Instance] = o
	s.grid.Add(o)
	return *o, nil
}

// MovePlaced relocates a live placement.
func (s *State) MovePlaced(id InstanceID, pos geo.Vec3) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.placed[id]
	if !ok {
		return ErrNotFound
	}
	oldPos := o.Pos
	o.Pos = pos
	o.dirty = true
	s.grid.Move(o, oldPos)
	return nil
}

// RotatePlaced sets a live placement's yaw.
func (s *State) RotatePlaced(id InstanceID, yaw float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.placed[id]
	if !ok {
		return ErrNotFound
	}
	o.Yaw = yaw
	o.dirty = true
	return nil
}

// RemovePlaced deletes a live placement (Destroy or Recall). The instance
// generation is bumped so stale references fail Alive checks.
func (s *State) RemovePlaced(id InstanceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.placed[id]
	if !ok {
		return ErrNotFound
	}
	s.grid.Remove(o)
	delete(s.placed, id)
	s.pool.Destroy(id)
	s.removed = append(s.removed, id)
	return nil
}

// Restore re-creates a persisted placement at boot with its original ID.
func (s *State) Restore(id InstanceID, templateID, ownerID string, pos geo.Vec3, yaw float64, baseValue int64) error {
	tpl := s.catalog.Get(templateID)
	if tpl == nil {
		return fmt.Errorf("restore %d: unknown template %s", uint64(id), templateID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pool.Restore(id)
	o := &Object{
		Kind:       KindPlaced,
		Instance:   id,
		TemplateID: templateID,
		OwnerID:    ownerID,
		Pos:        pos,
		Yaw:        yaw,
		BaseValue:  baseValue,
		Template:   tpl,
	}
	s.placed[id] = o
	s.grid.Add(o)
	return nil
}

// DrainDirty returns snapshots of placements modified since the last drain
// and the IDs removed since then, clearing both. Called by the persistence
// system each save interval.
func (s *State) DrainDirty() ([]Object, []InstanceID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var dirty []Object
	for _, o := range s.placed {
		if o.dirty {
			dirty = append(dirty, *o)
			o.dirty = false
		}
	}
	removed := s.removed
	s.removed = nil
	return dirty, removed
}

// RequeueDirty puts a drained batch back after a failed save, so the next
// flush retries it. Placements removed since the drain are already on the
// removal list and are skipped.
func (s *State) RequeueDirty(dirty []Object, removed []InstanceID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range dirty {
		if live, ok := s.placed[o.Instance]; ok {
			live.dirty = true
		}
	}
	s.removed = append(removed, s.removed...)
}

// AllExhibits returns snapshots of every catalog exhibit.
func (s *State) AllExhibits() []Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Object, 0, len(s.exhibits))
	for _, o := range s.exhibits {
		out = append(out, *o)
	}
	return out
}

// AllPlaced returns snapshots of every live placement (shutdown save).
func (s *State) AllPlaced() []Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Object, 0, len(s.placed))
	for _, o := range s.placed {
		out = append(out, *o)
	}
	return out
}
