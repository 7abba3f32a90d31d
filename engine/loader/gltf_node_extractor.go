package loader

import (
	"github.com/Carmen-Shannon/oxy-gltf/engine/model"

	"github.com/go-gl/mathgl/mgl32"
)

// gltfNodeExtractorImpl is the implementation of the gltfNodeExtractor interface.
type gltfNodeExtractorImpl struct {
	doc *gltfDocument
}

// gltfNodeExtractor builds the flat node table and resolves the default scene's roots.
type gltfNodeExtractor interface {
	// ExtractAllNodes builds one model.Node per document node, in document order.
	// Parent ids are derived from the children lists.
	//
	// Returns:
	//   - []*model.Node: the node table, indexed by node id
	//   - error: error if an index is out of range or the hierarchy is not a forest
	ExtractAllNodes() ([]*model.Node, error)

	// ExtractRoots resolves the root nodes of the default scene. Documents without
	// scenes use every parentless node.
	//
	// Parameters:
	//   - nodes: the table returned by ExtractAllNodes
	//
	// Returns:
	//   - []int: the root node ids
	//   - string: the default scene's name, empty when unnamed
	//   - error: error if the scene references an invalid node
	ExtractRoots(nodes []*model.Node) ([]int, string, error)
}

var _ gltfNodeExtractor = &gltfNodeExtractorImpl{}

// newGLTFNodeExtractor creates a new node extractor.
//
// Parameters:
//   - doc: the parsed document
//
// Returns:
//   - gltfNodeExtractor: the node extractor
func newGLTFNodeExtractor(doc *gltfDocument) gltfNodeExtractor {
	return &gltfNodeExtractorImpl{doc: doc}
}

func (e *gltfNodeExtractorImpl) ExtractAllNodes() ([]*model.Node, error) {
	nodes := make([]*model.Node, len(e.doc.Nodes))

	for i := range e.doc.Nodes {
		src := &e.doc.Nodes[i]

		n := &model.Node{
			ID:                i,
			Name:              src.Name,
			Parent:            -1,
			AnimatedTransform: mgl32.Ident4(),
		}
		n.LocalTransform, n.Translation, n.Rotation, n.Scale = gltfNodeTransform(src)

		if src.Mesh != nil {
			if *src.Mesh < 0 || *src.Mesh >= len(e.doc.Meshes) {
				return nil, malformed("node %d: mesh index %d out of range [0,%d)", i, *src.Mesh, len(e.doc.Meshes))
			}
			mesh := *src.Mesh
			n.Mesh = &mesh
		}
		if src.Skin != nil {
			if *src.Skin < 0 || *src.Skin >= len(e.doc.Skins) {
				return nil, malformed("node %d: skin index %d out of range [0,%d)", i, *src.Skin, len(e.doc.Skins))
			}
			skin := *src.Skin
			n.Skin = &skin
		}

		for _, c := range src.Children {
			if !e.doc.validNode(c) {
				return nil, malformed("node %d: child index %d out of range [0,%d)", i, c, len(e.doc.Nodes))
			}
		}
		n.Children = append([]int(nil), src.Children...)

		nodes[i] = n
	}

	for _, n := range nodes {
		for _, c := range n.Children {
			if c == n.ID {
				return nil, malformed("node %d lists itself as a child", n.ID)
			}
			if nodes[c].Parent != -1 {
				return nil, malformed("node %d has more than one parent (%d and %d)", c, nodes[c].Parent, n.ID)
			}
			nodes[c].Parent = n.ID
		}
	}

	if err := gltfCheckForest(nodes); err != nil {
		return nil, err
	}

	return nodes, nil
}

func (e *gltfNodeExtractorImpl) ExtractRoots(nodes []*model.Node) ([]int, string, error) {
	if len(e.doc.Scenes) == 0 {
		var roots []int
		for _, n := range nodes {
			if n.Parent == -1 {
				roots = append(roots, n.ID)
			}
		}
		return roots, "", nil
	}

	sceneIndex := 0
	if e.doc.Scene != nil {
		sceneIndex = *e.doc.Scene
	}
	if sceneIndex < 0 || sceneIndex >= len(e.doc.Scenes) {
		return nil, "", malformed("scene index %d out of range [0,%d)", sceneIndex, len(e.doc.Scenes))
	}

	scene := &e.doc.Scenes[sceneIndex]
	for _, id := range scene.Nodes {
		if id < 0 || id >= len(nodes) {
			return nil, "", malformed("scene %d: node index %d out of range [0,%d)", sceneIndex, id, len(nodes))
		}
		if nodes[id].Parent != -1 {
			return nil, "", malformed("scene %d: root node %d has parent %d", sceneIndex, id, nodes[id].Parent)
		}
	}

	return append([]int(nil), scene.Nodes...), scene.Name, nil
}

// gltfCheckForest rejects hierarchies in which some node cannot be reached from a root,
// which with single parents only happens inside a cycle.
func gltfCheckForest(nodes []*model.Node) error {
	visited := 0
	stack := make([]int, 0, len(nodes))
	for _, n := range nodes {
		if n.Parent == -1 {
			stack = append(stack, n.ID)
		}
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visited++
		stack = append(stack, nodes[id].Children...)
	}
	if visited != len(nodes) {
		return malformed("node hierarchy contains a cycle")
	}
	return nil
}

// gltfNodeTransform composes a node's local transform. An explicit matrix takes
// precedence over TRS; the returned TRS is then decomposed from it.
//
// Parameters:
//   - node: the glTF node
//
// Returns:
//   - mgl32.Mat4: the local transform
//   - mgl32.Vec3: translation
//   - mgl32.Quat: rotation
//   - mgl32.Vec3: scale
func gltfNodeTransform(node *gltfNode) (mgl32.Mat4, mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	if node.Matrix != nil {
		m := mgl32.Mat4(*node.Matrix)
		t, r, s := gltfDecompose(m)
		return m, t, r, s
	}

	t := mgl32.Vec3{0, 0, 0}
	r := mgl32.QuatIdent()
	s := mgl32.Vec3{1, 1, 1}

	if node.Translation != nil {
		t = mgl32.Vec3(*node.Translation)
	}
	if node.Rotation != nil {
		q := node.Rotation
		r = mgl32.Quat{W: q[3], V: mgl32.Vec3{q[0], q[1], q[2]}}
	}
	if node.Scale != nil {
		s = mgl32.Vec3(*node.Scale)
	}

	m := mgl32.Translate3D(t[0], t[1], t[2]).
		Mul4(r.Mat4()).
		Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
	return m, t, r, s
}

// gltfDecompose splits an affine matrix into translation, rotation and scale.
// Shear is discarded. A negative determinant is folded into the X scale.
func gltfDecompose(m mgl32.Mat4) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	t := m.Col(3).Vec3()
	sx := m.Col(0).Vec3().Len()
	sy := m.Col(1).Vec3().Len()
	sz := m.Col(2).Vec3().Len()
	if m.Det() < 0 {
		sx = -sx
	}
	s := mgl32.Vec3{sx, sy, sz}

	if sx == 0 || sy == 0 || sz == 0 {
		return t, mgl32.QuatIdent(), s
	}

	rot := mgl32.Mat4FromCols(
		m.Col(0).Mul(1/sx),
		m.Col(1).Mul(1/sy),
		m.Col(2).Mul(1/sz),
		mgl32.Vec4{0, 0, 0, 1},
	)
	return t, mgl32.Mat4ToQuat(rot).Normalize(), s
}
