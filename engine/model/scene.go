package model

import (
	"github.com/google/uuid"
)

// Scene is the render-ready result of loading one glTF document.
//
// The Scene exclusively owns every backend handle reachable from its meshes and
// materials. Nodes form a flat table; hierarchy is expressed through ids only.
type Scene struct {
	// ID identifies this load of the document.
	ID uuid.UUID

	// Name is the default scene's name, or the document's base name when unnamed.
	Name string

	// URI is the location the document was loaded from.
	URI string

	// Dependencies are the resolved locations of the external buffers and images the
	// document references, in document order without duplicates.
	Dependencies []string

	// Meshes are indexed by glTF mesh index.
	Meshes []*Mesh

	// Nodes are indexed by node id.
	Nodes []*Node

	// RootNode is the first root of the default scene, -1 when there is none.
	RootNode int

	// RootNodes are all roots of the default scene.
	RootNodes []int

	// Animations maps clip name to clip.
	Animations map[string]*Animation

	// AnimationOrder lists clip names in document order.
	AnimationOrder []string

	Skins     []*Skin
	Materials []*Material
}

// Node returns the node with the given id.
//
// Parameters:
//   - id: the node id
//
// Returns:
//   - *Node: the node, or nil when id is out of range
//   - bool: whether the node exists
func (s *Scene) Node(id int) (*Node, bool) {
	if id < 0 || id >= len(s.Nodes) {
		return nil, false
	}
	return s.Nodes[id], true
}

// Animation returns the clip with the given name, or nil.
func (s *Scene) Animation(name string) *Animation {
	return s.Animations[name]
}

// Traverse walks the node hierarchy depth-first from each root in RootNodes.
// The visit function receives the node and its depth; returning false skips the node's children.
// Each node is visited at most once even if the document references it from several parents.
//
// Parameters:
//   - visit: called for every reachable node
func (s *Scene) Traverse(visit func(node *Node, depth int) bool) {
	seen := make([]bool, len(s.Nodes))

	var walk func(id, depth int)
	walk = func(id, depth int) {
		n, ok := s.Node(id)
		if !ok || seen[id] {
			return
		}
		seen[id] = true
		if !visit(n, depth) {
			return
		}
		for _, child := range n.Children {
			walk(child, depth+1)
		}
	}

	for _, root := range s.RootNodes {
		walk(root, 0)
	}
}

// LiveHandles counts the backend buffer and texture handles still held by the scene.
//
// Returns:
//   - int: buffers plus textures not yet released
func (s *Scene) LiveHandles() int {
	count := 0

	var countMesh func(m *Mesh)
	countMesh = func(m *Mesh) {
		if m == nil {
			return
		}
		for _, slot := range m.BufferSlots() {
			if *slot != nil {
				count++
			}
		}
		for _, sub := range m.SubMeshes {
			countMesh(sub)
		}
	}

	for _, m := range s.Meshes {
		countMesh(m)
	}
	for _, mat := range s.Materials {
		if mat == nil {
			continue
		}
		for _, slot := range mat.TextureSlots() {
			if *slot != nil {
				count++
			}
		}
	}
	return count
}
