package tables

import (
	"fmt"

	"github.com/chazu/limitsurf/pkg/patch"
	"github.com/chazu/limitsurf/pkg/stencil"
	"github.com/samber/lo"
)

// PatchArray is a contiguous run of patches sharing one descriptor.
type PatchArray struct {
	Desc            patch.Descriptor
	NumPatches      int
	VertIndex       patch.Index // first control vertex in the control-vertex table
	PatchIndex      patch.Index // first patch in the param and sharpness tables
	QuadOffsetIndex patch.Index // first entry in the quad-offsets table
}

// Tables contains the topology and parametric information of every patch
// generated by refinement.
type Tables struct {
	maxValence   int
	numPtexFaces int

	arrays     []PatchArray
	patchVerts []patch.Index
	params     []patch.Param

	endCapStencils *stencil.Table
	quadOffsets    []uint32
	vertexValences []patch.Index

	fvar *FVarTables

	sharpnessIndices []patch.Index
	sharpnessValues  []float32
}

// Clone returns an independent deep copy of t, including its stencil and
// face-varying tables.
func (t *Tables) Clone() *Tables {
	return &Tables{
		maxValence:       t.maxValence,
		numPtexFaces:     t.numPtexFaces,
		arrays:           append([]PatchArray(nil), t.arrays...),
		patchVerts:       append([]patch.Index(nil), t.patchVerts...),
		params:           append([]patch.Param(nil), t.params...),
		endCapStencils:   t.endCapStencils.Clone(),
		quadOffsets:      append([]uint32(nil), t.quadOffsets...),
		vertexValences:   append([]patch.Index(nil), t.vertexValences...),
		fvar:             t.fvar.clone(),
		sharpnessIndices: append([]patch.Index(nil), t.sharpnessIndices...),
		sharpnessValues:  append([]float32(nil), t.sharpnessValues...),
	}
}

// IsFeatureAdaptive reports whether any patch array holds a
// feature-adaptive kind. Uniformly refined tables hold only quads (or
// other uniform kinds) and are evaluated with Interpolate.
func (t *Tables) IsFeatureAdaptive() bool {
	return lo.SomeBy(t.arrays, func(pa PatchArray) bool {
		return pa.Desc.IsAdaptive()
	})
}

// NumControlVerticesTotal returns the size of the control-vertex table.
func (t *Tables) NumControlVerticesTotal() int {
	return len(t.patchVerts)
}

// NumPatchesTotal returns the number of patches in all arrays.
func (t *Tables) NumPatchesTotal() int {
	return lo.SumBy(t.arrays, func(pa PatchArray) int {
		return pa.NumPatches
	})
}

// MaxValence returns the highest vertex valence found in the mesh.
func (t *Tables) MaxValence() int { return t.maxValence }

// NumPtexFaces returns the number of ptex faces of the mesh.
func (t *Tables) NumPtexFaces() int { return t.numPtexFaces }

// ---------------------------------------------------------------------------
// Direct table access
// ---------------------------------------------------------------------------

// ControlVertices returns the control-vertex table.
func (t *Tables) ControlVertices() []patch.Index { return t.patchVerts }

// ParamTable returns the per-patch parameters, in patch array order.
func (t *Tables) ParamTable() []patch.Param { return t.params }

// SharpnessIndices returns the per-patch sharpness index table, or nil.
func (t *Tables) SharpnessIndices() []patch.Index { return t.sharpnessIndices }

// SharpnessValues returns the deduplicated sharpness values, or nil.
func (t *Tables) SharpnessValues() []float32 { return t.sharpnessValues }

// QuadOffsets returns the legacy Gregory quad-offsets table.
func (t *Tables) QuadOffsets() []uint32 { return t.quadOffsets }

// VertexValences returns the legacy Gregory vertex valence table.
func (t *Tables) VertexValences() []patch.Index { return t.vertexValences }

// EndCapStencils returns the stencils driving Gregory-basis patches, or nil.
func (t *Tables) EndCapStencils() *stencil.Table { return t.endCapStencils }

// FVar returns the face-varying patch tables, or nil.
func (t *Tables) FVar() *FVarTables { return t.fvar }

// ---------------------------------------------------------------------------
// Arrays of patches
// ---------------------------------------------------------------------------

// NumPatchArrays returns the number of patch arrays.
func (t *Tables) NumPatchArrays() int { return len(t.arrays) }

// PatchArrays returns the patch array records.
func (t *Tables) PatchArrays() []PatchArray { return t.arrays }

func (t *Tables) patchArray(array int) *PatchArray {
	if array < 0 || array >= len(t.arrays) {
		panic(fmt.Sprintf("tables: patch array %d out of range [0,%d)", array, len(t.arrays)))
	}
	return &t.arrays[array]
}

// NumPatches returns the number of patches in array.
func (t *Tables) NumPatches(array int) int {
	return t.patchArray(array).NumPatches
}

// NumControlVertices returns the number of control vertex indices of array.
func (t *Tables) NumControlVertices(array int) int {
	pa := t.patchArray(array)
	return pa.NumPatches * pa.Desc.NumControlVertices()
}

// PatchArrayDescriptor returns the descriptor shared by the patches of array.
func (t *Tables) PatchArrayDescriptor(array int) patch.Descriptor {
	return t.patchArray(array).Desc
}

// PatchArrayVertices returns the control vertex indices of every patch of
// array.
func (t *Tables) PatchArrayVertices(array int) []patch.Index {
	pa := t.patchArray(array)
	start := int(pa.VertIndex)
	end := start + pa.NumPatches*pa.Desc.NumControlVertices()
	return t.patchVerts[start:end:end]
}

// PatchParams returns the params of every patch of array.
func (t *Tables) PatchParams(array int) []patch.Param {
	pa := t.patchArray(array)
	start := int(pa.PatchIndex)
	end := start + pa.NumPatches
	return t.params[start:end:end]
}

// FindPatchArray returns the index of the first array holding patches of
// desc, or patch.InvalidIndex.
func (t *Tables) FindPatchArray(desc patch.Descriptor) patch.Index {
	for i, pa := range t.arrays {
		if pa.Desc == desc {
			return patch.Index(i)
		}
	}
	return patch.InvalidIndex
}

// ---------------------------------------------------------------------------
// Individual patches
// ---------------------------------------------------------------------------

// PatchDescriptor returns the descriptor of the patch identified by h.
func (t *Tables) PatchDescriptor(h Handle) patch.Descriptor {
	return t.patchArray(int(h.ArrayIndex)).Desc
}

// PatchVertices returns the control vertex indices of the patch identified
// by h.
func (t *Tables) PatchVertices(h Handle) []patch.Index {
	pa := t.patchArray(int(h.ArrayIndex))
	start := int(pa.VertIndex + h.VertIndex)
	end := start + pa.Desc.NumControlVertices()
	return t.patchVerts[start:end:end]
}

// PatchParam returns the param of the patch identified by h.
func (t *Tables) PatchParam(h Handle) patch.Param {
	return t.params[h.PatchIndex]
}

// PatchVerticesAt returns the control vertex indices of patch p of array.
func (t *Tables) PatchVerticesAt(array, p int) []patch.Index {
	return t.PatchVertices(t.HandleAt(array, p))
}

// PatchParamAt returns the param of patch p of array.
func (t *Tables) PatchParamAt(array, p int) patch.Param {
	return t.params[t.HandleAt(array, p).PatchIndex]
}

// PatchQuadOffsets returns the 4 quad offsets of the legacy Gregory patch
// identified by h.
func (t *Tables) PatchQuadOffsets(h Handle) []uint32 {
	pa := t.patchArray(int(h.ArrayIndex))
	start := int(pa.QuadOffsetIndex + h.VertIndex)
	return t.quadOffsets[start : start+4 : start+4]
}

// EndCapStencilIndex returns the index of the first of the 20 stencils of
// the Gregory-basis patch identified by h.
func (t *Tables) EndCapStencilIndex(h Handle) patch.Index {
	return h.VertIndex
}
