package data

import (
	"fmt"
	"os"

	"github.com/propcraft/server/internal/geo"
	"gopkg.in/yaml.v3"
)

// Wall is a static solid slab of world geometry (building shells, floors).
// Walls always block sight rays.
type Wall struct {
	Min Vec `yaml:"min"`
	Max Vec `yaml:"max"`
}

func (w Wall) Box() geo.AABB {
	return geo.AABB{Min: w.Min.Vec(), Max: w.Max.Vec()}
}

// Exhibit is a catalog object standing in the world for browsing: it can be
// targeted, examined, and cloned but has no placed instance behind it.
type Exhibit struct {
	Template string  `yaml:"template"`
	Position Vec     `yaml:"position"`
	Yaw      float64 `yaml:"yaw"`
}

// StructureTable holds the static world layout loaded at boot.
type StructureTable struct {
	Walls    []Wall
	Exhibits []Exhibit
}

type structuresFile struct {
	Walls    []Wall    `yaml:"walls"`
	Exhibits []Exhibit `yaml:"exhibits"`
}

func LoadStructures(path string, catalog *CatalogTable) (*StructureTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read structures %s: %w", path, err)
	}
	var file structuresFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse structures %s: %w", path, err)
	}

	for i, w := range file.Walls {
		box := w.Box()
		if box.Min.X > box.Max.X || box.Min.Y > box.Max.Y || box.Min.Z > box.Max.Z {
			return nil, fmt.Errorf("structures %s: wall %d has inverted bounds", path, i)
		}
	}
	for _, e := range file.Exhibits {
		if catalog.Get(e.Template) == nil {
			return nil, fmt.Errorf("structures %s: exhibit references unknown template %s", path, e.Template)
		}
	}

	return &StructureTable{Walls: file.Walls, Exhibits: file.Exhibits}, nil
}

func (s *StructureTable) WallCount() int    { return len(s.Walls) }
func (s *StructureTable) ExhibitCount() int { return len(s.Exhibits) }
