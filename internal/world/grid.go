package world

import "github.com/propcraft/server/internal/geo"

// Grid is a cell-based spatial index over objects, on the XZ plane. Cell size
// is chosen so a search radius up to ~2x the default interaction distance is
// covered by a small neighbourhood of cells. Callers hold the State lock.
const gridCellSize = 8.0

type gridKey struct {
	cx, cz int32
}

func toGridCoord(v float64) int32 {
	c := int32(v / gridCellSize)
	if v < 0 && v != float64(c)*gridCellSize {
		c--
	}
	return c
}

type Grid struct {
	cells map[gridKey]map[string]*Object // cell → object key → object
}

func NewGrid() *Grid {
	return &Grid{cells: make(map[gridKey]map[string]*Object)}
}

func gridKeyAt(pos geo.Vec3) gridKey {
	return gridKey{cx: toGridCoord(pos.X), cz: toGridCoord(pos.Z)}
}

func (g *Grid) Add(o *Object) {
	k := gridKeyAt(o.Pos)
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[string]*Object, 4)
		g.cells[k] = cell
	}
	cell[o.Key()] = o
}

func (g *Grid) Remove(o *Object) {
	k := gridKeyAt(o.Pos)
	cell := g.cells[k]
	if cell != nil {
		delete(cell, o.Key())
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
}

// Move re-indexes an object after a position change. oldPos is the position
// the object was indexed under.
func (g *Grid) Move(o *Object, oldPos geo.Vec3) {
	oldK := gridKeyAt(oldPos)
	newK := gridKeyAt(o.Pos)
	if oldK == newK {
		return
	}
	cell := g.cells[oldK]
	if cell != nil {
		delete(cell, o.Key())
		if len(cell) == 0 {
			delete(g.cells, oldK)
		}
	}
	g.Add(o)
}

// EachWithin calls fn for every object whose cell overlaps the square of the
// given radius around pos. Callers do fine-grained distance filtering.
func (g *Grid) EachWithin(pos geo.Vec3, radius float64, fn func(*Object)) {
	minX := toGridCoord(pos.X - radius)
	maxX := toGridCoord(pos.X + radius)
	minZ := toGridCoord(pos.Z - radius)
	maxZ := toGridCoord(pos.Z + radius)
	for cx := minX; cx <= maxX; cx++ {
		for cz := minZ; cz <= maxZ; cz++ {
			for _, o := range g.cells[gridKey{cx: cx, cz: cz}] {
				fn(o)
			}
		}
	}
}
