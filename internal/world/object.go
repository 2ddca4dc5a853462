package world

import (
	"fmt"

	"github.com/propcraft/server/internal/data"
	"github.com/propcraft/server/internal/geo"
)

// Kind distinguishes browsable catalog exhibits from player placements.
type Kind int

const (
	KindCatalog Kind = iota // immutable exhibit, zero InstanceID
	KindPlaced              // created by Clone, mutated by Move/Rotate, removed by Recall/Destroy
)

func (k Kind) String() string {
	switch k {
	case KindCatalog:
		return "catalog"
	case KindPlaced:
		return "placed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Object is one interactable thing in the world. Placed objects have a
// non-zero Instance; catalog exhibits have Instance zero.
type Object struct {
	Kind       Kind
	Instance   InstanceID
	TemplateID string
	OwnerID    string // participant who placed it; empty for catalog
	Pos        geo.Vec3
	Yaw        float64
	BaseValue  int64 // copied from the template at placement time
	Preview    bool  // placement ghost: not targetable, never blocks sight

	Template *data.Template

	dirty bool // pending persistence
}

// Key returns the stable lookup key: the instance for placed objects, the
// template ID for catalog exhibits.
func (o *Object) Key() string {
	if o.Kind == KindPlaced {
		return fmt.Sprintf("i:%d", uint64(o.Instance))
	}
	return "c:" + o.TemplateID
}

// ParseKey splits a target key back into its kind and payload. The payload
// is the decimal instance for placed keys and the template ID for catalog
// keys.
func ParseKey(key string) (Kind, string, bool) {
	if len(key) < 3 || key[1] != ':' {
		return 0, "", false
	}
	switch key[0] {
	case 'i':
		return KindPlaced, key[2:], true
	case 'c':
		return KindCatalog, key[2:], true
	}
	return 0, "", false
}

// Bounds returns the object's AABB at its current position.
func (o *Object) Bounds() geo.AABB {
	return geo.BoxAt(o.Pos, o.Template.Half())
}

// BlocksSight reports whether this object occludes a ray, under the given
// transparent-surface policy. Preview ghosts and decorative surfaces never
// block; glass blocks only when configured to.
func (o *Object) BlocksSight(transparentBlocks bool) bool {
	if o.Preview || o.Template.Decorative || !o.Template.Solid {
		return false
	}
	if o.Template.Transparent && !transparentBlocks {
		return false
	}
	return true
}

// Observer is a connected participant's in-world presence. Avatars are not
// part of the object set, so they never occlude sight rays.
type Observer struct {
	SessionID     uint64
	ParticipantID string
	Pos           geo.Vec3 // feet position
	Facing        geo.Vec3
	Admin         bool
}

// EyeHeight is the offset from an observer's feet to the ray origin.
const EyeHeight = 1.6

func (ob *Observer) Eye() geo.Vec3 {
	return geo.Vec3{X: ob.Pos.X, Y: ob.Pos.Y + EyeHeight, Z: ob.Pos.Z}
}
