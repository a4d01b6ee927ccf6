package tables

import (
	"testing"

	"github.com/chazu/limitsurf/pkg/patch"
	"github.com/chazu/limitsurf/pkg/primvar"
	"github.com/chewxy/math32"
)

const tolerance = 1e-5

func approx(a, b float32) bool {
	return math32.Abs(a-b) <= tolerance*(1+math32.Abs(b))
}

func approxVec(a, b [3]float32) bool {
	return approx(a[0], b[0]) && approx(a[1], b[1]) && approx(a[2], b[2])
}

// scalarFrame accumulates scalar data; with a source of ones it sums the
// weights it receives.
type scalarFrame struct {
	v, ds, dt float32
}

func (f *scalarFrame) Clear() { *f = scalarFrame{} }

func (f *scalarFrame) AddWithWeight(src float32, w, ds, dt float32) {
	f.v += w * src
	f.ds += ds * src
	f.dt += dt * src
}

func seq(n int) []patch.Index {
	idx := make([]patch.Index, n)
	for i := range idx {
		idx[i] = patch.Index(i)
	}
	return idx
}

func rootParams(n int) []patch.Param {
	params := make([]patch.Param, n)
	for i := range params {
		params[i] = patch.NewParam(patch.Index(i), patch.NewBitField(0, 0, 0, 0, false, 0))
	}
	return params
}

// buildTables appends arrays in order and finalizes.
func buildTables(t *testing.T, arrays ...ArrayData) *Tables {
	t.Helper()
	b := NewBuilder(4)
	if err := b.Reserve(len(arrays)); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	for _, a := range arrays {
		if err := b.AppendArray(a); err != nil {
			t.Fatalf("AppendArray(%s): %v", a.Desc, err)
		}
	}
	tbl, err := b.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return tbl
}

// singlePatch returns an ArrayData holding one patch of typ over cvs.
func singlePatch(typ patch.Type, cvs []patch.Index, bits patch.BitField) ArrayData {
	return ArrayData{
		Desc:       patch.NewDescriptor(typ),
		NumPatches: 1,
		Vertices:   cvs,
		Params:     []patch.Param{patch.NewParam(0, bits)},
	}
}

// grid returns a 4x4 grid of points with x = column, y = row and a bumpy z.
func grid() primvar.Vertices {
	zs := [16]float32{0.3, -0.2, 0.7, 0.1, 0.5, 0.9, -0.4, 0.2, -0.1, 0.6, 0.8, -0.3, 0.4, 0.0, 0.2, 0.5}
	pts := make(primvar.Vertices, 16)
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			pts[r*4+c] = primvar.V(float32(c), float32(r), zs[r*4+c])
		}
	}
	return pts
}

func mirror(a, b primvar.Vertex) primvar.Vertex {
	return primvar.V(2*a.P[0]-b.P[0], 2*a.P[1]-b.P[1], 2*a.P[2]-b.P[2])
}

var samplePoints = [][2]float32{
	{0, 0}, {1, 0}, {0, 1}, {1, 1},
	{0.5, 0.5}, {0.25, 0.75}, {0.9, 0.1}, {0.33, 0.41},
}
