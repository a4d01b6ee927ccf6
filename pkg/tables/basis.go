package tables

import "github.com/chazu/limitsurf/pkg/patch"

// tensorBasis selects the 1-D cubic basis of a tensor-product patch.
type tensorBasis int

const (
	basisBezier  tensorBasis = iota // Bernstein polynomials (control points)
	basisBSpline                    // uniform cubic B-spline
)

// bezierWeights evaluates the cubic Bernstein polynomials and their
// derivatives at t.
func bezierWeights(t float32, w, dw *[4]float32) {
	it := 1 - t
	w[0] = it * it * it
	w[1] = 3 * t * it * it
	w[2] = 3 * t * t * it
	w[3] = t * t * t

	dw[0] = -3 * it * it
	dw[1] = 3 * it * (it - 2*t)
	dw[2] = 3 * t * (2*it - t)
	dw[3] = 3 * t * t
}

// bsplineWeights evaluates the uniform cubic B-spline basis and its
// derivatives at t.
func bsplineWeights(t float32, w, dw *[4]float32) {
	t2 := t * t
	t3 := t2 * t
	it := 1 - t

	w[0] = it * it * it / 6
	w[1] = (4 - 6*t2 + 3*t3) / 6
	w[2] = (1 + 3*t + 3*t2 - 3*t3) / 6
	w[3] = t3 / 6

	dw[0] = -0.5 * it * it
	dw[1] = 1.5*t2 - 2*t
	dw[2] = -1.5*t2 + t + 0.5
	dw[3] = 0.5 * t2
}

// basisWeights computes the 16 tensor-product weights of a bicubic patch
// and their s and t derivatives at the local coordinates (s,t). Weight
// 4*i+j belongs to the control point in row i, column j.
//
// (s,t) is first rotated into the patch frame described by bits; the
// derivative weights are rotated back and scaled by the patch's param
// fraction so that tangents are expressed in coarse face parameters.
func basisWeights(basis tensorBasis, bits patch.BitField, s, t float32, q, qd1, qd2 *[16]float32) {
	rs, rt := bits.Rotate(s, t)

	var sw, tw, dsw, dtw [4]float32
	switch basis {
	case basisBezier:
		bezierWeights(rs, &sw, &dsw)
		bezierWeights(rt, &tw, &dtw)
	case basisBSpline:
		bsplineWeights(rs, &sw, &dsw)
		bsplineWeights(rt, &tw, &dtw)
	default:
		panic("tables: unknown tensor basis")
	}

	scale := 1 / bits.ParamFraction()
	rot := bits.Rotation()
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			k := 4*i + j
			q[k] = sw[j] * tw[i]
			ds := dsw[j] * tw[i]
			dt := sw[j] * dtw[i]
			switch rot {
			case 1:
				ds, dt = -dt, ds
			case 2:
				ds, dt = -ds, -dt
			case 3:
				ds, dt = dt, -ds
			}
			qd1[k] = ds * scale
			qd2[k] = dt * scale
		}
	}
}
