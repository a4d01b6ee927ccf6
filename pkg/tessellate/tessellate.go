// Package tessellate samples the limit surface described by patch tables
// and produces a triangle mesh. Each patch contributes a regular grid of
// samples; patches are evaluated concurrently.
package tessellate

import (
	"errors"
	"fmt"

	"github.com/chazu/limitsurf/pkg/kernel"
	"github.com/chazu/limitsurf/pkg/parallel"
	"github.com/chazu/limitsurf/pkg/patch"
	"github.com/chazu/limitsurf/pkg/primvar"
	"github.com/chazu/limitsurf/pkg/tables"
)

var (
	// ErrNoTables is returned when Tessellate is called without tables.
	ErrNoTables = errors.New("tessellate: no patch tables")

	// ErrSourceTooSmall is returned when a patch references a control
	// vertex the source buffer does not hold.
	ErrSourceTooSmall = errors.New("tessellate: source buffer too small")
)

// sized is implemented by sources that know their length, such as
// primvar.Vertices. Such sources are range checked before evaluation.
type sized interface {
	Len() int
}

// evaluable reports whether patches of typ can be sampled by the tables
// holding them.
func evaluable(typ patch.Type, adaptive bool) bool {
	if !adaptive {
		return typ == patch.Quads
	}
	switch typ {
	case patch.Regular, patch.Boundary, patch.Corner, patch.GregoryBasis:
		return true
	default:
		return false
	}
}

// Tessellate samples every evaluable patch of t over src and returns the
// resulting mesh. Feature-adaptive tables are sampled on the limit
// surface; uniform tables are sampled bilinearly. Patches that have no
// limit evaluator (single-crease, legacy Gregory) are skipped with a
// warning.
//
// The tables and src are only read, so several Tessellate calls may share
// them.
func Tessellate(t *tables.Tables, src tables.Source[primvar.Vertex], opts ...Option) (*kernel.Mesh, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger
	if log == nil {
		log = Logger()
	}

	if t == nil {
		return nil, ErrNoTables
	}
	if o.tessFactor < 1 {
		return nil, fmt.Errorf("tessellate: tess factor %d, must be at least 1", o.tessFactor)
	}

	adaptive := t.IsFeatureAdaptive()

	var handles []tables.Handle
	for a, pa := range t.PatchArrays() {
		if pa.NumPatches == 0 {
			continue
		}
		if !evaluable(pa.Desc.Type, adaptive) {
			log.Warn("tessellate: skipping patches without an evaluator",
				"array", a, "type", pa.Desc.Type.String(), "patches", pa.NumPatches)
			continue
		}
		for p := range pa.NumPatches {
			handles = append(handles, t.HandleAt(a, p))
		}
	}

	if s, ok := src.(sized); ok {
		if err := checkSource(t, handles, s.Len()); err != nil {
			return nil, err
		}
	}

	n := o.tessFactor
	vertsPerPatch := (n + 1) * (n + 1)
	trisPerPatch := 2 * n * n

	mesh := &kernel.Mesh{
		Vertices: make([]float32, 3*vertsPerPatch*len(handles)),
		Normals:  make([]float32, 3*vertsPerPatch*len(handles)),
		Indices:  make([]uint32, 3*trisPerPatch*len(handles)),
		PartName: o.name,
	}

	pool := parallel.NewPool(o.workers)
	defer pool.Close()

	pool.ForEach(len(handles), func(k int) {
		s := sampler{
			tbl:      t,
			src:      src,
			adaptive: adaptive,
			n:        n,
		}
		vbase := k * vertsPerPatch
		s.samplePatch(handles[k],
			mesh.Vertices[3*vbase:3*(vbase+vertsPerPatch)],
			mesh.Normals[3*vbase:3*(vbase+vertsPerPatch)])
		s.triangulate(uint32(vbase), mesh.Indices[3*k*trisPerPatch:3*(k+1)*trisPerPatch])
	})

	log.Debug("tessellate: sampled patches",
		"patches", len(handles), "vertices", mesh.VertexCount(), "triangles", mesh.TriangleCount(),
		"adaptive", adaptive, "workers", pool.Workers())
	return mesh, nil
}

// checkSource verifies that every control vertex reachable from handles
// lies inside a source of size n.
func checkSource(t *tables.Tables, handles []tables.Handle, n int) error {
	for _, h := range handles {
		if t.PatchDescriptor(h).Type == patch.GregoryBasis {
			continue
		}
		for _, cv := range t.PatchVertices(h) {
			if int(cv) >= n {
				return fmt.Errorf("%w: patch %d references vertex %d of %d", ErrSourceTooSmall, h.PatchIndex, cv, n)
			}
		}
	}
	if st := t.EndCapStencils(); st != nil {
		for _, idx := range st.Indices() {
			if int(idx) >= n {
				return fmt.Errorf("%w: end-cap stencil references vertex %d of %d", ErrSourceTooSmall, idx, n)
			}
		}
	}
	return nil
}

// sampler evaluates the patches assigned to one work item. It owns its
// accumulator, so samplers on different goroutines share nothing mutable.
type sampler struct {
	tbl      *tables.Tables
	src      tables.Source[primvar.Vertex]
	adaptive bool
	n        int
	frame    primvar.LimitFrame
}

// samplePatch writes the (n+1)² positions and normals of the patch
// identified by h, row by row along t.
func (s *sampler) samplePatch(h tables.Handle, positions, normals []float32) {
	bits := s.tbl.PatchParam(h).Bits
	step := 1 / float32(s.n)

	i := 0
	for row := 0; row <= s.n; row++ {
		for col := 0; col <= s.n; col++ {
			fs, ft := bits.Denormalize(float32(col)*step, float32(row)*step)
			if s.adaptive {
				tables.Limit[primvar.Vertex](s.tbl, h, fs, ft, s.src, &s.frame)
			} else {
				tables.Interpolate[primvar.Vertex](s.tbl, h, fs, ft, s.src, &s.frame)
			}
			nrm := s.frame.Normal()
			copy(positions[3*i:3*i+3], s.frame.P[:])
			copy(normals[3*i:3*i+3], nrm[:])
			i++
		}
	}
}

// triangulate writes two counter-clockwise triangles per grid cell. base
// is the mesh index of the patch's first sample.
func (s *sampler) triangulate(base uint32, indices []uint32) {
	stride := uint32(s.n + 1)
	i := 0
	for row := uint32(0); row < uint32(s.n); row++ {
		for col := uint32(0); col < uint32(s.n); col++ {
			v00 := base + row*stride + col
			v10 := v00 + 1
			v01 := v00 + stride
			v11 := v01 + 1
			copy(indices[i:i+6], []uint32{v00, v10, v11, v00, v11, v01})
			i += 6
		}
	}
}
