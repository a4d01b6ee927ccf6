// Package stencil holds precomputed stencil tables. A stencil expresses one
// derived control point as a weighted combination of source control
// vertices. The patch tables consume a stencil table to evaluate
// Gregory-basis end-cap patches; the weights themselves are computed by the
// refinement factory, not here.
package stencil

import (
	"errors"
	"fmt"

	"github.com/chazu/limitsurf/pkg/patch"
)

// ErrMismatch is returned when index and weight runs disagree in length.
var ErrMismatch = errors.New("stencil: indices and weights length mismatch")

// Stencil is a read-only view of one stencil in a Table.
type Stencil struct {
	Indices []patch.Index
	Weights []float32
}

// Size returns the number of source vertices contributing to the stencil.
func (s Stencil) Size() int {
	return len(s.Indices)
}

// Table is a flat, immutable set of stencils.
type Table struct {
	numControlVertices int
	sizes              []int
	offsets            []patch.Index
	indices            []patch.Index
	weights            []float32
}

// NewTable builds a Table from flat runs. sizes[i] is the number of entries
// of stencil i; indices and weights hold all stencils back to back.
func NewTable(numControlVertices int, sizes []int, indices []patch.Index, weights []float32) (*Table, error) {
	if len(indices) != len(weights) {
		return nil, fmt.Errorf("%w: %d indices, %d weights", ErrMismatch, len(indices), len(weights))
	}
	offsets := make([]patch.Index, len(sizes))
	total := 0
	for i, n := range sizes {
		if n < 0 {
			return nil, fmt.Errorf("stencil: stencil %d has negative size %d", i, n)
		}
		offsets[i] = patch.Index(total)
		total += n
	}
	if total != len(indices) {
		return nil, fmt.Errorf("%w: sizes sum to %d, have %d entries", ErrMismatch, total, len(indices))
	}
	for i, idx := range indices {
		if idx < 0 || (numControlVertices > 0 && int(idx) >= numControlVertices) {
			return nil, fmt.Errorf("stencil: entry %d references vertex %d outside [0,%d)", i, idx, numControlVertices)
		}
	}
	return &Table{
		numControlVertices: numControlVertices,
		sizes:              append([]int(nil), sizes...),
		offsets:            offsets,
		indices:            append([]patch.Index(nil), indices...),
		weights:            append([]float32(nil), weights...),
	}, nil
}

// NumStencils returns the number of stencils in the table.
func (t *Table) NumStencils() int {
	return len(t.sizes)
}

// NumControlVertices returns the number of source control vertices the
// stencils index into (0 when unknown).
func (t *Table) NumControlVertices() int {
	return t.numControlVertices
}

// Stencil returns stencil i. Out-of-range indices panic.
func (t *Table) Stencil(i patch.Index) Stencil {
	off := t.offsets[i]
	n := patch.Index(t.sizes[i])
	return Stencil{
		Indices: t.indices[off : off+n : off+n],
		Weights: t.weights[off : off+n : off+n],
	}
}

// Sizes returns the per-stencil entry counts.
func (t *Table) Sizes() []int { return t.sizes }

// Offsets returns the offset of each stencil into Indices and Weights.
func (t *Table) Offsets() []patch.Index { return t.offsets }

// Indices returns the flat source-vertex index table.
func (t *Table) Indices() []patch.Index { return t.indices }

// Weights returns the flat weight table.
func (t *Table) Weights() []float32 { return t.weights }

// Clone returns an independent deep copy of t.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	return &Table{
		numControlVertices: t.numControlVertices,
		sizes:              append([]int(nil), t.sizes...),
		offsets:            append([]patch.Index(nil), t.offsets...),
		indices:            append([]patch.Index(nil), t.indices...),
		weights:            append([]float32(nil), t.weights...),
	}
}

// Builder accumulates stencils before producing a Table.
type Builder struct {
	numControlVertices int
	sizes              []int
	indices            []patch.Index
	weights            []float32
}

// NewBuilder returns a Builder for stencils over numControlVertices source
// vertices. Pass 0 to skip the range check.
func NewBuilder(numControlVertices int) *Builder {
	return &Builder{numControlVertices: numControlVertices}
}

// Add appends one stencil.
func (b *Builder) Add(indices []patch.Index, weights []float32) error {
	if len(indices) != len(weights) {
		return fmt.Errorf("%w: %d indices, %d weights", ErrMismatch, len(indices), len(weights))
	}
	b.sizes = append(b.sizes, len(indices))
	b.indices = append(b.indices, indices...)
	b.weights = append(b.weights, weights...)
	return nil
}

// Len returns the number of stencils added so far.
func (b *Builder) Len() int { return len(b.sizes) }

// Build returns the Table.
func (b *Builder) Build() (*Table, error) {
	return NewTable(b.numControlVertices, b.sizes, b.indices, b.weights)
}
