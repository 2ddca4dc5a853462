package data

import (
	"fmt"
	"os"

	"github.com/propcraft/server/internal/geo"
	"gopkg.in/yaml.v3"
)

// Template describes one catalog object type. Catalog entries are immutable
// for the lifetime of the session; placed instances copy their base value at
// placement time.
type Template struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	BaseValue   int64  `yaml:"base_value"` // currency smallest units
	HalfExtents Vec    `yaml:"half_extents"`
	Solid       bool   `yaml:"solid"`       // opaque surface, blocks sight rays
	Transparent bool   `yaml:"transparent"` // glass; blocking is a config decision
	Decorative  bool   `yaml:"decorative"`  // never blocks sight rays
}

// Vec is a YAML-friendly vector.
type Vec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

func (v Vec) Vec() geo.Vec3 { return geo.Vec3{X: v.X, Y: v.Y, Z: v.Z} }

// Half returns the half extents as a vector, defaulting degenerate axes to a
// minimal thickness so sample points and ray tests stay well-formed.
func (t *Template) Half() geo.Vec3 {
	h := t.HalfExtents.Vec()
	const min = 0.05
	if h.X < min {
		h.X = min
	}
	if h.Y < min {
		h.Y = min
	}
	if h.Z < min {
		h.Z = min
	}
	return h
}

// CatalogTable holds all object templates, keyed by template ID.
type CatalogTable struct {
	byID map[string]*Template
}

type catalogFile struct {
	Templates []*Template `yaml:"templates"`
}

func LoadCatalog(path string) (*CatalogTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	table := &CatalogTable{byID: make(map[string]*Template, len(file.Templates))}
	for _, t := range file.Templates {
		if t.ID == "" {
			return nil, fmt.Errorf("catalog %s: template with empty id", path)
		}
		if t.BaseValue < 0 {
			return nil, fmt.Errorf("catalog %s: template %s has negative base value", path, t.ID)
		}
		if _, dup := table.byID[t.ID]; dup {
			return nil, fmt.Errorf("catalog %s: duplicate template id %s", path, t.ID)
		}
		table.byID[t.ID] = t
	}
	return table, nil
}

// NewCatalogTable builds a table from in-memory templates (tests).
func NewCatalogTable(templates ...*Template) *CatalogTable {
	table := &CatalogTable{byID: make(map[string]*Template, len(templates))}
	for _, t := range templates {
		table.byID[t.ID] = t
	}
	return table
}

func (c *CatalogTable) Get(id string) *Template {
	return c.byID[id]
}

func (c *CatalogTable) Count() int {
	return len(c.byID)
}
