package tables

import (
	"fmt"

	"github.com/chazu/limitsurf/pkg/patch"
	"github.com/chazu/limitsurf/pkg/stencil"
)

// Source gives indexed access to the control vertex data of a mesh.
type Source[V any] interface {
	At(i patch.Index) V
}

// Slice adapts a plain slice to Source.
type Slice[V any] []V

// At returns element i.
func (s Slice[V]) At(i patch.Index) V { return s[i] }

// Accumulator receives an interpolated value and its two tangents. Clear
// resets it; AddWithWeight adds src scaled by w to the value, by ds to the
// s tangent and by dt to the t tangent.
type Accumulator[V any] interface {
	Clear()
	AddWithWeight(src V, w, ds, dt float32)
}

// Interpolate evaluates the bilinear patch identified by h at (s,t), given
// in coarse face normalized space. The tables must be uniform and the patch
// a quad; any other kind panics.
func Interpolate[V any](tbl *Tables, h Handle, s, t float32, src Source[V], dst Accumulator[V]) {
	if tbl.IsFeatureAdaptive() {
		panic("tables: Interpolate called on feature-adaptive tables")
	}
	if typ := tbl.PatchDescriptor(h).Type; typ != patch.Quads {
		panic(fmt.Sprintf("tables: cannot interpolate a %s patch", typ))
	}
	cvs := tbl.PatchVertices(h)
	s, t = tbl.params[h.PatchIndex].Bits.Normalize(s, t)

	dst.Clear()
	InterpolateBilinear(cvs, s, t, src, dst)
}

// Limit evaluates the limit surface of the patch identified by h at (s,t),
// given in coarse face normalized space. The tables must be feature
// adaptive.
//
// Single-crease patches are not evaluated: dst is cleared and receives no
// contribution. Legacy Gregory and Gregory-boundary patches, and any
// non-adaptive kind, cannot be evaluated and panic.
func Limit[V any](tbl *Tables, h Handle, s, t float32, src Source[V], dst Accumulator[V]) {
	if !tbl.IsFeatureAdaptive() {
		panic("tables: Limit called on uniform tables")
	}
	bits := tbl.params[h.PatchIndex].Bits
	s, t = bits.Normalize(s, t)

	typ := tbl.PatchDescriptor(h).Type

	dst.Clear()

	var q, qd1, qd2 [16]float32

	switch {
	case typ >= patch.Regular && typ <= patch.Corner:
		basisWeights(basisBSpline, bits, s, t, &q, &qd1, &qd2)

		cvs := tbl.PatchVertices(h)
		switch typ {
		case patch.Regular:
			InterpolateRegular(cvs, &q, &qd1, &qd2, src, dst)
		case patch.SingleCrease:
			// Crease-aware weights are not implemented; see
			// SingleCreaseSharpness for the stored crease.
		case patch.Boundary:
			InterpolateBoundary(cvs, &q, &qd1, &qd2, src, dst)
		case patch.Corner:
			InterpolateCorner(cvs, &q, &qd1, &qd2, src, dst)
		}
	case typ == patch.GregoryBasis:
		if tbl.endCapStencils == nil {
			panic("tables: gregory-basis patch without end-cap stencils")
		}
		basisWeights(basisBezier, bits, s, t, &q, &qd1, &qd2)
		InterpolateGregory(tbl.endCapStencils, tbl.EndCapStencilIndex(h), s, t, &q, &qd1, &qd2, src, dst)
	default:
		panic(fmt.Sprintf("tables: cannot evaluate the limit of a %s patch", typ))
	}
}

// InterpolateBilinear blends the 4 corners of a quad at (s,t). Corners are
// ordered (0,0), (1,0), (1,1), (0,1).
func InterpolateBilinear[V any](cvs []patch.Index, s, t float32, src Source[V], dst Accumulator[V]) {
	os := 1 - s
	ot := 1 - t
	q := [4]float32{os * ot, s * ot, s * t, os * t}
	dq1 := [4]float32{t - 1, ot, t, -t}
	dq2 := [4]float32{s - 1, -s, s, os}

	for k := 0; k < 4; k++ {
		dst.AddWithWeight(src.At(cvs[k]), q[k], dq1[k], dq2[k])
	}
}

// InterpolateRegular accumulates the 16 control vertices of a regular
// patch with the given basis weights.
//
//	v0 -- v1 -- v2 -- v3
//	 |.....|.....|.....|
//	v4 -- v5 -- v6 -- v7
//	 |.....|.....|.....|
//	v8 -- v9 -- v10-- v11
//	 |.....|.....|.....|
//	v12-- v13-- v14-- v15
func InterpolateRegular[V any](cvs []patch.Index, q, qd1, qd2 *[16]float32, src Source[V], dst Accumulator[V]) {
	for k := 0; k < 16; k++ {
		dst.AddWithWeight(src.At(cvs[k]), q[k], qd1[k], qd2[k])
	}
}

// InterpolateBoundary accumulates the 12 control vertices of a boundary
// patch. The missing row M is mirrored across the boundary row:
// M[k] = 2*v[k] - v[k+4].
//
//	M0 -- M1 -- M2 -- M3
//	 |     |     |     |
//	v0 -- v1 -- v2 -- v3
//	 |.....|.....|.....|
//	v4 -- v5 -- v6 -- v7
//	 |.....|.....|.....|
//	v8 -- v9 -- v10-- v11
func InterpolateBoundary[V any](cvs []patch.Index, q, qd1, qd2 *[16]float32, src Source[V], dst Accumulator[V]) {
	for k := 0; k < 4; k++ {
		dst.AddWithWeight(src.At(cvs[k]), 2*q[k], 2*qd1[k], 2*qd2[k])
		dst.AddWithWeight(src.At(cvs[k+4]), -1*q[k], -1*qd1[k], -1*qd2[k])
	}
	for k := 0; k < 12; k++ {
		dst.AddWithWeight(src.At(cvs[k]), q[k+4], qd1[k+4], qd2[k+4])
	}
}

// InterpolateCorner accumulates the 9 control vertices of a corner patch.
// The missing row and column are mirrored; the missing corner M3 is the
// mirror of the two mirrored edges: M3 = -2*v1 + 4*v2 + v4 - 2*v5.
//
//	M0 -- M1 -- M2 -- M3
//	 |     |     |     |
//	v0 -- v1 -- v2 -- M4
//	 |.....|.....|     |
//	v3 -- v4 -- v5 -- M5
//	 |.....|.....|     |
//	v6 -- v7 -- v8 -- M6
func InterpolateCorner[V any](cvs []patch.Index, q, qd1, qd2 *[16]float32, src Source[V], dst Accumulator[V]) {
	for k := 0; k < 3; k++ { // M0 - M2
		dst.AddWithWeight(src.At(cvs[k]), 2*q[k], 2*qd1[k], 2*qd2[k])
		dst.AddWithWeight(src.At(cvs[k+3]), -1*q[k], -1*qd1[k], -1*qd2[k])
	}
	for k := 0; k < 3; k++ { // M4 - M6
		idx := (k+1)*4 + 3
		dst.AddWithWeight(src.At(cvs[k*3+2]), 2*q[idx], 2*qd1[idx], 2*qd2[idx])
		dst.AddWithWeight(src.At(cvs[k*3+1]), -1*q[idx], -1*qd1[idx], -1*qd2[idx])
	}
	// M3
	dst.AddWithWeight(src.At(cvs[1]), -2*q[3], -2*qd1[3], -2*qd2[3])
	dst.AddWithWeight(src.At(cvs[2]), 4*q[3], 4*qd1[3], 4*qd2[3])
	dst.AddWithWeight(src.At(cvs[4]), 1*q[3], 1*qd1[3], 1*qd2[3])
	dst.AddWithWeight(src.At(cvs[5]), -2*q[3], -2*qd1[3], -2*qd2[3])
	for y := 0; y < 3; y++ { // v0 - v8
		for x := 0; x < 3; x++ {
			idx := y*4 + x + 4
			dst.AddWithWeight(src.At(cvs[y*3+x]), q[idx], qd1[idx], qd2[idx])
		}
	}
}

// gregoryPermute maps each of the 16 tensor slots to one of the 20
// Gregory-basis control points. -1 marks the 4 interior slots, which blend
// the two face points listed in gregoryFacePairs.
//
//	P3         e3-      e2+         P2
//	   O--------O--------O--------O
//	   |        |        |        |
//	   |        | f3-    | f2+    |
//	   |        O        O        |
//	e3+ O------O            O------O e2-
//	   |     f3+          f2-     |
//	   |                          |
//	   |      f0-         f1+     |
//	e0- O------O            O------O e1+
//	   |        O        O        |
//	   |        | f0+    | f1-    |
//	   |        |        |        |
//	   O--------O--------O--------O
//	P0         e0+      e1-         P1
var gregoryPermute = [16]int{0, 1, 7, 5, 2, -1, -1, 6, 16, -1, -1, 12, 15, 17, 11, 10}

var gregoryFacePairs = [4][2]int{{3, 4}, {9, 8}, {19, 18}, {13, 14}}

// pinDenominator replaces a vanishing split-ratio denominator by 1. Both
// terms of the ratio are then zero, and so is the ratio.
func pinDenominator(d float32) float32 {
	if d == 0 {
		return 1
	}
	return d
}

// gregoryBlendWeights returns, for each interior slot, the weights of its
// two face points at (s,t).
func gregoryBlendWeights(s, t float32) [4][2]float32 {
	ss := 1 - s
	tt := 1 - t
	d11 := pinDenominator(s + t)
	d12 := pinDenominator(ss + t)
	d21 := pinDenominator(s + tt)
	d22 := pinDenominator(ss + tt)
	return [4][2]float32{
		{s / d11, t / d11},
		{ss / d12, t / d12},
		{s / d21, tt / d21},
		{ss / d22, tt / d22},
	}
}

// InterpolateGregory accumulates a Gregory-basis patch whose 20 control
// points are given by the stencils starting at stencilIndex. Each control
// point expands into the source vertices of its stencil.
func InterpolateGregory[V any](basis *stencil.Table, stencilIndex patch.Index, s, t float32,
	q, qd1, qd2 *[16]float32, src Source[V], dst Accumulator[V]) {

	weights := gregoryBlendWeights(s, t)

	fcount := 0
	for i := 0; i < 16; i++ {
		index := gregoryPermute[i]
		if index == -1 {
			pair := gregoryFacePairs[fcount]
			w := weights[fcount]
			addStencil(basis.Stencil(stencilIndex+patch.Index(pair[0])), q[i]*w[0], qd1[i]*w[0], qd2[i]*w[0], src, dst)
			addStencil(basis.Stencil(stencilIndex+patch.Index(pair[1])), q[i]*w[1], qd1[i]*w[1], qd2[i]*w[1], src, dst)
			fcount++
			continue
		}
		addStencil(basis.Stencil(stencilIndex+patch.Index(index)), q[i], qd1[i], qd2[i], src, dst)
	}
}

func addStencil[V any](st stencil.Stencil, w, ds, dt float32, src Source[V], dst Accumulator[V]) {
	for j, idx := range st.Indices {
		sw := st.Weights[j]
		dst.AddWithWeight(src.At(idx), w*sw, ds*sw, dt*sw)
	}
}
