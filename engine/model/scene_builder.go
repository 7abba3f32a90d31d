package model

import (
	"github.com/google/uuid"
)

// SceneBuilderOption is a functional option for configuring a Scene via NewScene.
type SceneBuilderOption func(*Scene)

// NewScene creates a new Scene with a fresh ID and the options applied.
//
// Parameters:
//   - options: a variadic list of SceneBuilderOption functions
//
// Returns:
//   - *Scene: the assembled scene
func NewScene(options ...SceneBuilderOption) *Scene {
	s := &Scene{
		ID:         uuid.New(),
		RootNode:   -1,
		Animations: make(map[string]*Animation),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// WithName is an option builder that sets the scene name.
//
// Parameters:
//   - name: the scene name
//
// Returns:
//   - SceneBuilderOption: a function that applies the name option to a scene
func WithName(name string) SceneBuilderOption {
	return func(s *Scene) {
		s.Name = name
	}
}

// WithURI is an option builder that records the document location.
//
// Parameters:
//   - uri: the document URI
//
// Returns:
//   - SceneBuilderOption: a function that applies the URI option to a scene
func WithURI(uri string) SceneBuilderOption {
	return func(s *Scene) {
		s.URI = uri
	}
}

// WithDependencies is an option builder that records the external files the document references.
func WithDependencies(uris []string) SceneBuilderOption {
	return func(s *Scene) {
		s.Dependencies = uris
	}
}

// WithMeshes is an option builder that sets the mesh list.
//
// Parameters:
//   - meshes: meshes indexed by glTF mesh index
//
// Returns:
//   - SceneBuilderOption: a function that applies the meshes option to a scene
func WithMeshes(meshes []*Mesh) SceneBuilderOption {
	return func(s *Scene) {
		s.Meshes = meshes
	}
}

// WithNodes is an option builder that sets the flat node table.
//
// Parameters:
//   - nodes: nodes indexed by id
//
// Returns:
//   - SceneBuilderOption: a function that applies the nodes option to a scene
func WithNodes(nodes []*Node) SceneBuilderOption {
	return func(s *Scene) {
		s.Nodes = nodes
	}
}

// WithRootNodes is an option builder that sets the scene roots. The first root becomes RootNode.
//
// Parameters:
//   - roots: root node ids
//
// Returns:
//   - SceneBuilderOption: a function that applies the roots option to a scene
func WithRootNodes(roots []int) SceneBuilderOption {
	return func(s *Scene) {
		s.RootNodes = roots
		s.RootNode = -1
		if len(roots) > 0 {
			s.RootNode = roots[0]
		}
	}
}

// WithAnimations is an option builder that registers clips by name, keeping their order.
// A later clip with a duplicate name replaces the earlier one in the map.
//
// Parameters:
//   - animations: the clips in document order
//
// Returns:
//   - SceneBuilderOption: a function that applies the animations option to a scene
func WithAnimations(animations []*Animation) SceneBuilderOption {
	return func(s *Scene) {
		for _, a := range animations {
			if _, exists := s.Animations[a.Name]; !exists {
				s.AnimationOrder = append(s.AnimationOrder, a.Name)
			}
			s.Animations[a.Name] = a
		}
	}
}

// WithSkins is an option builder that sets the skin list.
//
// Parameters:
//   - skins: skins indexed by glTF skin index
//
// Returns:
//   - SceneBuilderOption: a function that applies the skins option to a scene
func WithSkins(skins []*Skin) SceneBuilderOption {
	return func(s *Scene) {
		s.Skins = skins
	}
}

// WithMaterials is an option builder that sets the material list.
//
// Parameters:
//   - materials: materials indexed by glTF material index
//
// Returns:
//   - SceneBuilderOption: a function that applies the materials option to a scene
func WithMaterials(materials []*Material) SceneBuilderOption {
	return func(s *Scene) {
		s.Materials = materials
	}
}
