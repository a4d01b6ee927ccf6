package stencil

import "github.com/chazu/limitsurf/pkg/patch"

// Source gives indexed access to source control vertex data.
type Source[V any] interface {
	At(i patch.Index) V
}

// PointAccumulator is a destination that can be reset and receive weighted
// contributions of source values.
type PointAccumulator[V any] interface {
	Clear()
	AddWithWeight(src V, w float32)
}

// UpdateValues applies every stencil of t to src, writing stencil i into
// dst[i]. It panics if dst holds fewer entries than the table has stencils.
func UpdateValues[V any, D PointAccumulator[V]](t *Table, src Source[V], dst []D) {
	if len(dst) < t.NumStencils() {
		panic("stencil: destination shorter than stencil table")
	}
	for i := range t.sizes {
		s := t.Stencil(patch.Index(i))
		d := dst[i]
		d.Clear()
		for j, idx := range s.Indices {
			d.AddWithWeight(src.At(idx), s.Weights[j])
		}
	}
}
