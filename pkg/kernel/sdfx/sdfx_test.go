package sdfx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/limitsurf/pkg/kernel"
)

// quad is a unit square in the z = 1 plane split into two triangles.
func quad() *kernel.Mesh {
	return &kernel.Mesh{
		Vertices: []float32{0, 0, 1, 1, 0, 1, 1, 1, 1, 0, 1, 1},
		Normals:  []float32{0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1},
		Indices:  []uint32{0, 1, 2, 0, 2, 3},
		PartName: "quad",
	}
}

func TestBounds(t *testing.T) {
	tests := []struct {
		name     string
		mesh     *kernel.Mesh
		min, max [3]float64
	}{
		{"quad", quad(), [3]float64{0, 0, 1}, [3]float64{1, 1, 1}},
		{"empty", &kernel.Mesh{}, [3]float64{}, [3]float64{}},
		{
			"spread",
			&kernel.Mesh{Vertices: []float32{-2, 5, 0, 3, -1, 4, 0, 0, -7}},
			[3]float64{-2, -1, -7},
			[3]float64{3, 5, 4},
		},
	}
	e := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			min, max := e.Bounds(tt.mesh)
			if min != tt.min || max != tt.max {
				t.Errorf("Bounds = %v, %v, want %v, %v", min, max, tt.min, tt.max)
			}
		})
	}
}

func TestTrianglesRoundTrip(t *testing.T) {
	m := quad()
	tris := Triangles(m)
	if len(tris) != 2 {
		t.Fatalf("len(Triangles) = %d, want 2", len(tris))
	}

	back := FromTriangles(tris)
	if back.TriangleCount() != 2 || back.VertexCount() != 6 {
		t.Fatalf("round trip has %d triangles, %d vertices", back.TriangleCount(), back.VertexCount())
	}
	for i := range 2 {
		a0, b0, c0 := m.Triangle(i)
		a1, b1, c1 := back.Triangle(i)
		if a0 != a1 || b0 != b1 || c0 != c1 {
			t.Errorf("triangle %d: %v %v %v, want %v %v %v", i, a1, b1, c1, a0, b0, c0)
		}
	}
	// Face normals of counter-clockwise triangles in z = 1 point up.
	for i := range back.VertexCount() {
		if nz := back.Normals[3*i+2]; nz < 0.999 {
			t.Errorf("normal %d z = %v, want 1", i, nz)
		}
	}
}

func TestFacet(t *testing.T) {
	m := quad()
	m.PartName = "limit"
	flat := Facet(m)
	if flat.PartName != "limit" {
		t.Errorf("PartName = %q, want %q", flat.PartName, "limit")
	}
	if flat.TriangleCount() != m.TriangleCount() {
		t.Errorf("TriangleCount = %d, want %d", flat.TriangleCount(), m.TriangleCount())
	}
	if flat.VertexCount() != 3*m.TriangleCount() {
		t.Errorf("VertexCount = %d, want %d", flat.VertexCount(), 3*m.TriangleCount())
	}
	if m.VertexCount() != 4 {
		t.Errorf("Facet modified the input: %d vertices", m.VertexCount())
	}
}

func TestTrianglesBadIndexPanics(t *testing.T) {
	m := quad()
	m.Indices[4] = 9
	defer func() {
		if recover() == nil {
			t.Error("expected panic for out-of-range index")
		}
	}()
	Triangles(m)
}

func TestWriteSTL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.stl")
	if err := New().WriteSTL(path, quad()); err != nil {
		t.Fatalf("WriteSTL: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	// Binary STL: 80-byte header and a triangle count.
	if info.Size() <= 84 {
		t.Errorf("STL file is %d bytes, want more than a header", info.Size())
	}
}

func TestWriteSTLEmptyMesh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.stl")
	if err := New().WriteSTL(path, &kernel.Mesh{}); err == nil {
		t.Error("WriteSTL accepted an empty mesh")
	}
}
