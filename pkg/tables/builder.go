package tables

import (
	"errors"
	"fmt"

	"github.com/chazu/limitsurf/pkg/patch"
	"github.com/chazu/limitsurf/pkg/stencil"
	"github.com/samber/lo"
)

var (
	// ErrFinalized is returned by Builder methods called after Finalize.
	ErrFinalized = errors.New("tables: builder already finalized")

	// ErrLengthMismatch is returned when an appended run does not match the
	// patch count of its array.
	ErrLengthMismatch = errors.New("tables: length mismatch")

	// ErrArrayOrder is returned when patch arrays are appended out of
	// ascending descriptor order.
	ErrArrayOrder = errors.New("tables: patch arrays out of order")
)

// ArrayData describes one patch array handed to Builder.AppendArray.
type ArrayData struct {
	Desc       patch.Descriptor
	NumPatches int
	Vertices   []patch.Index // NumPatches * Desc.NumControlVertices() entries
	Params     []patch.Param // one per patch

	// QuadOffsets holds 4 entries per patch for Gregory and
	// GregoryBoundary arrays and must be empty otherwise.
	QuadOffsets []uint32

	// Sharpness optionally holds one crease sharpness per patch. Values
	// <= 0 mark patches without a crease.
	Sharpness []float32
}

// Builder assembles a Tables. Arrays are appended in ascending descriptor
// order; Finalize validates the result and freezes the builder.
type Builder struct {
	t         *Tables
	finalized bool
}

// NewBuilder returns a Builder for a mesh whose highest vertex valence is
// maxValence.
func NewBuilder(maxValence int) *Builder {
	return &Builder{t: &Tables{maxValence: maxValence}}
}

// Reserve preallocates room for numArrays patch arrays.
func (b *Builder) Reserve(numArrays int) error {
	if b.finalized {
		return ErrFinalized
	}
	if cap(b.t.arrays)-len(b.t.arrays) < numArrays {
		arrays := make([]PatchArray, len(b.t.arrays), len(b.t.arrays)+numArrays)
		copy(arrays, b.t.arrays)
		b.t.arrays = arrays
	}
	return nil
}

// AppendArray appends a patch array and its runs to the tables.
func (b *Builder) AppendArray(a ArrayData) error {
	if b.finalized {
		return ErrFinalized
	}
	ncvs := a.Desc.NumControlVertices()
	if ncvs <= 0 {
		return fmt.Errorf("tables: cannot store patches of kind %s", a.Desc)
	}
	if a.NumPatches < 0 {
		return fmt.Errorf("%w: negative patch count %d", ErrLengthMismatch, a.NumPatches)
	}
	if len(a.Vertices) != a.NumPatches*ncvs {
		return fmt.Errorf("%w: %s array of %d patches needs %d vertices, got %d",
			ErrLengthMismatch, a.Desc, a.NumPatches, a.NumPatches*ncvs, len(a.Vertices))
	}
	if len(a.Params) != a.NumPatches {
		return fmt.Errorf("%w: %s array of %d patches got %d params",
			ErrLengthMismatch, a.Desc, a.NumPatches, len(a.Params))
	}
	wantQuadOffsets := 0
	if a.Desc.UsesQuadOffsets() {
		wantQuadOffsets = a.NumPatches * 4
	}
	if len(a.QuadOffsets) != wantQuadOffsets {
		return fmt.Errorf("%w: %s array of %d patches needs %d quad offsets, got %d",
			ErrLengthMismatch, a.Desc, a.NumPatches, wantQuadOffsets, len(a.QuadOffsets))
	}
	if len(a.Sharpness) != 0 && len(a.Sharpness) != a.NumPatches {
		return fmt.Errorf("%w: %s array of %d patches got %d sharpness values",
			ErrLengthMismatch, a.Desc, a.NumPatches, len(a.Sharpness))
	}
	if n := len(b.t.arrays); n > 0 && a.Desc.Less(b.t.arrays[n-1].Desc) {
		return fmt.Errorf("%w: %s appended after %s", ErrArrayOrder, a.Desc, b.t.arrays[n-1].Desc)
	}

	t := b.t
	pa := PatchArray{
		Desc:            a.Desc,
		NumPatches:      a.NumPatches,
		VertIndex:       patch.Index(len(t.patchVerts)),
		PatchIndex:      patch.Index(len(t.params)),
		QuadOffsetIndex: patch.Index(len(t.quadOffsets)),
	}
	t.arrays = append(t.arrays, pa)
	t.patchVerts = append(t.patchVerts, a.Vertices...)
	t.params = append(t.params, a.Params...)
	t.quadOffsets = append(t.quadOffsets, a.QuadOffsets...)
	b.appendSharpness(a.NumPatches, a.Sharpness)
	return nil
}

// appendSharpness records one sharpness index per patch. The index table is
// created lazily on the first crease, backfilled with InvalidIndex for the
// patches appended before it.
func (b *Builder) appendSharpness(numPatches int, sharpness []float32) {
	t := b.t
	hasCrease := lo.SomeBy(sharpness, func(s float32) bool { return s > 0 })
	if !hasCrease && len(t.sharpnessIndices) == 0 {
		return
	}
	for len(t.sharpnessIndices) < len(t.params)-numPatches {
		t.sharpnessIndices = append(t.sharpnessIndices, patch.InvalidIndex)
	}
	for i := 0; i < numPatches; i++ {
		if i >= len(sharpness) || sharpness[i] <= 0 {
			t.sharpnessIndices = append(t.sharpnessIndices, patch.InvalidIndex)
			continue
		}
		idx := lo.IndexOf(t.sharpnessValues, sharpness[i])
		if idx < 0 {
			idx = len(t.sharpnessValues)
			t.sharpnessValues = append(t.sharpnessValues, sharpness[i])
		}
		t.sharpnessIndices = append(t.sharpnessIndices, patch.Index(idx))
	}
}

// SetNumPtexFaces records the number of ptex faces of the mesh.
func (b *Builder) SetNumPtexFaces(n int) error {
	if b.finalized {
		return ErrFinalized
	}
	b.t.numPtexFaces = n
	return nil
}

// SetVertexValences stores the legacy Gregory vertex valence table.
func (b *Builder) SetVertexValences(valences []patch.Index) error {
	if b.finalized {
		return ErrFinalized
	}
	b.t.vertexValences = append([]patch.Index(nil), valences...)
	return nil
}

// SetEndCapStencils hands ownership of the Gregory-basis stencil table to
// the tables.
func (b *Builder) SetEndCapStencils(st *stencil.Table) error {
	if b.finalized {
		return ErrFinalized
	}
	b.t.endCapStencils = st
	return nil
}

// AddFVarChannel appends a face-varying channel holding
// FVarVerticesPerPatch indices per patch, in patch array order.
func (b *Builder) AddFVarChannel(indices []patch.Index) error {
	if b.finalized {
		return ErrFinalized
	}
	if b.t.fvar == nil {
		b.t.fvar = &FVarTables{}
	}
	b.t.fvar.channels = append(b.t.fvar.channels, append([]patch.Index(nil), indices...))
	return nil
}

// Finalize validates the tables and returns them. The builder cannot be
// used afterwards.
func (b *Builder) Finalize() (*Tables, error) {
	if b.finalized {
		return nil, ErrFinalized
	}
	t := b.t
	if len(t.sharpnessIndices) > 0 {
		for len(t.sharpnessIndices) < len(t.params) {
			t.sharpnessIndices = append(t.sharpnessIndices, patch.InvalidIndex)
		}
	}
	var errs []error
	for _, v := range Validate(t) {
		if v.Severity == SeverityError {
			errs = append(errs, v)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("tables: invalid tables: %w", errors.Join(errs...))
	}
	b.finalized = true
	b.t = nil
	return t, nil
}
