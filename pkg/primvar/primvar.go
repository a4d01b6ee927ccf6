// Package primvar provides concrete primitive-variable types for patch
// evaluation: a 3-component float32 vertex used as source data, and the
// accumulators that receive interpolated positions and tangents.
package primvar

import (
	"github.com/chazu/limitsurf/pkg/patch"
	"github.com/ungerik/go3d/vec3"
)

// Vertex is a single-precision 3D point.
type Vertex struct {
	P vec3.T
}

// V returns a Vertex with the given coordinates.
func V(x, y, z float32) Vertex {
	return Vertex{P: vec3.T{x, y, z}}
}

// Clear resets the vertex to the origin.
func (v *Vertex) Clear() {
	v.P = vec3.T{}
}

// AddWithWeight adds w*src to the vertex. It lets a Vertex receive stencil
// updates.
func (v *Vertex) AddWithWeight(src Vertex, w float32) {
	p := src.P.Scaled(w)
	v.P.Add(&p)
}

// Vertices is a source buffer of control vertices.
type Vertices []Vertex

// At returns vertex i.
func (vs Vertices) At(i patch.Index) Vertex { return vs[i] }

// Len returns the number of vertices.
func (vs Vertices) Len() int { return len(vs) }

// LimitFrame receives a limit position and its two parametric tangents.
type LimitFrame struct {
	P  vec3.T // position
	Du vec3.T // derivative along s
	Dv vec3.T // derivative along t
}

// Clear resets the frame.
func (f *LimitFrame) Clear() {
	*f = LimitFrame{}
}

// AddWithWeight accumulates src into the position and both tangents.
func (f *LimitFrame) AddWithWeight(src Vertex, w, ds, dt float32) {
	p, du, dv := src.P.Scaled(w), src.P.Scaled(ds), src.P.Scaled(dt)
	f.P.Add(&p)
	f.Du.Add(&du)
	f.Dv.Add(&dv)
}

// Position returns the position as a Vertex.
func (f *LimitFrame) Position() Vertex {
	return Vertex{P: f.P}
}

// Normal returns the unit normal Du x Dv, or the zero vector when the
// tangents are degenerate.
func (f *LimitFrame) Normal() vec3.T {
	n := vec3.Cross(&f.Du, &f.Dv)
	return *n.Normalize()
}
