package world

// InstanceID identifies one placed object. It encodes a 32-bit index in the
// lower bits and a 32-bit generation in the upper bits; the generation
// increments on destroy, so references held across a Destroy/Recall go stale
// instead of silently pointing at a reused slot.
type InstanceID uint64

func NewInstanceID(index uint32, generation uint32) InstanceID {
	return InstanceID(uint64(generation)<<32 | uint64(index))
}

func (id InstanceID) Index() uint32      { return uint32(id) }
func (id InstanceID) Generation() uint32 { return uint32(id >> 32) }
func (id InstanceID) IsZero() bool       { return id == 0 }

// InstancePool allocates instance IDs with generational indices and a free
// list. Index 0 is reserved so the zero InstanceID never refers to a live
// placement (catalog objects carry the zero ID).
type InstancePool struct {
	generations []uint32
	freeList    []uint32
	nextIndex   uint32
}

func NewInstancePool() *InstancePool {
	p := &InstancePool{
		generations: make([]uint32, 1, 1024),
		freeList:    make([]uint32, 0, 256),
		nextIndex:   1,
	}
	return p
}

func (p *InstancePool) Create() InstanceID {
	if len(p.freeList) > 0 {
		idx := p.freeList[len(p.freeList)-1]
		p.freeList = p.freeList[:len(p.freeList)-1]
		return NewInstanceID(idx, p.generations[idx])
	}
	idx := p.nextIndex
	p.nextIndex++
	if int(idx) >= len(p.generations) {
		p.generations = append(p.generations, 0)
	}
	return NewInstanceID(idx, p.generations[idx])
}

func (p *InstancePool) Alive(id InstanceID) bool {
	idx := id.Index()
	if idx == 0 || idx >= p.nextIndex {
		return false
	}
	return p.generations[idx] == id.Generation()
}

func (p *InstancePool) Destroy(id InstanceID) {
	idx := id.Index()
	if idx == 0 || idx >= p.nextIndex {
		return
	}
	if p.generations[idx] != id.Generation() {
		return // already destroyed (stale reference)
	}
	p.generations[idx]++
	p.freeList = append(p.freeList, idx)
}

// Restore marks an externally assigned ID as live, used when loading
// persisted placements at boot. The pool index space is advanced past the
// restored index and its generation pinned. Restores may arrive in any
// order: a gap slot freed by an earlier restore is reclaimed here so
// Create can never hand out an index a restored placement occupies.
func (p *InstancePool) Restore(id InstanceID) {
	idx := id.Index()
	if idx == 0 {
		return
	}
	for p.nextIndex <= idx {
		if int(p.nextIndex) >= len(p.generations) {
			p.generations = append(p.generations, 0)
		}
		// unreferenced gap slots stay allocatable via the free list
		if p.nextIndex != idx {
			p.freeList = append(p.freeList, p.nextIndex)
		}
		p.nextIndex++
	}
	for i, f := range p.freeList {
		if f == idx {
			p.freeList = append(p.freeList[:i], p.freeList[i+1:]...)
			break
		}
	}
	if int(idx) >= len(p.generations) {
		p.generations = append(p.generations, 0)
	}
	p.generations[idx] = id.Generation()
}
