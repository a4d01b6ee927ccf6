// Package sdfx implements the kernel.Exporter interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"fmt"

	"github.com/chazu/limitsurf/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Exporter = (*SdfxExporter)(nil)

// SdfxExporter implements kernel.Exporter using sdfx.
type SdfxExporter struct{}

// New returns a new SdfxExporter.
func New() *SdfxExporter {
	return &SdfxExporter{}
}

func toVec(p [3]float32) v3.Vec {
	return v3.Vec{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])}
}

// BoundingBox returns the sdfx box enclosing every vertex of m. An empty
// mesh yields the zero box.
func BoundingBox(m *kernel.Mesh) sdf.Box3 {
	if m.IsEmpty() {
		return sdf.Box3{}
	}
	first := toVec(m.Position(0))
	bb := sdf.Box3{Min: first, Max: first}
	for i := 1; i < m.VertexCount(); i++ {
		p := toVec(m.Position(i))
		bb.Min = bb.Min.Min(p)
		bb.Max = bb.Max.Max(p)
	}
	return bb
}

// Bounds returns the axis-aligned bounding box of the mesh vertices.
func (e *SdfxExporter) Bounds(m *kernel.Mesh) (min, max [3]float64) {
	bb := BoundingBox(m)
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// Triangles converts the indexed mesh to sdfx triangles. Triangles with
// out-of-range indices cause a panic.
func Triangles(m *kernel.Mesh) []*sdf.Triangle3 {
	n := m.VertexCount()
	tris := make([]*sdf.Triangle3, 0, m.TriangleCount())
	for i := range m.TriangleCount() {
		for j := 0; j < 3; j++ {
			if idx := int(m.Indices[3*i+j]); idx >= n {
				panic(fmt.Sprintf("sdfx: triangle %d references vertex %d of %d", i, idx, n))
			}
		}
		a, b, c := m.Triangle(i)
		tris = append(tris, &sdf.Triangle3{toVec(a), toVec(b), toVec(c)})
	}
	return tris
}

// FromTriangles converts sdfx triangles to an unindexed mesh with face
// normals.
func FromTriangles(triangles []*sdf.Triangle3) *kernel.Mesh {
	numVerts := len(triangles) * 3

	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}
}

// Facet returns a flat-shaded copy of m: every triangle gets its own three
// vertices carrying the face normal.
func Facet(m *kernel.Mesh) *kernel.Mesh {
	out := FromTriangles(Triangles(m))
	out.PartName = m.PartName
	return out
}

// WriteSTL writes the mesh to path as a binary STL file.
func (e *SdfxExporter) WriteSTL(path string, m *kernel.Mesh) error {
	if m.TriangleCount() == 0 {
		return fmt.Errorf("sdfx: mesh %q has no triangles", m.PartName)
	}
	if err := render.SaveSTL(path, Triangles(m)); err != nil {
		return fmt.Errorf("sdfx: writing %s: %w", path, err)
	}
	return nil
}
