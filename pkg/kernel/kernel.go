// Package kernel defines the triangle mesh produced by tessellation and
// the interface of the geometry backends that consume it. The exporter
// abstraction allows swapping backends without changing the rest of the
// system.
package kernel

// Exporter measures and writes meshes.
// Implementations (sdfx) convert the mesh to their own representation.
type Exporter interface {
	// Bounds returns the axis-aligned bounding box of the mesh vertices.
	Bounds(m *Mesh) (min, max [3]float64)

	// WriteSTL writes the mesh triangles to path as STL.
	WriteSTL(path string, m *Mesh) error
}
