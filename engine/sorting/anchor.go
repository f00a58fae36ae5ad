package sorting

import "github.com/1siamBot/lullaby/engine/geom"

// Volume is a spatial volume attached to a scene node.
type Volume interface {
	// IsAnchor reports whether the volume serves as an occlusion anchor.
	IsAnchor() bool
	// WorldCenter is the volume center in world space.
	WorldCenter() geom.Vec3
}

// Node is a scene node able to enumerate its own volumes and its children.
type Node interface {
	Volumes() []Volume
	Children() []Node
}

// ResolveAnchor returns the first anchor volume on root itself, then on its
// descendants depth-first in child order. It returns nil if none is found.
func ResolveAnchor(root Node) Volume {
	for _, v := range root.Volumes() {
		if v != nil && v.IsAnchor() {
			return v
		}
	}
	for _, c := range root.Children() {
		if c == nil {
			continue
		}
		if v := ResolveAnchor(c); v != nil {
			return v
		}
	}
	return nil
}
