package engine

import (
	"fmt"
	"slices"

	"github.com/chazu/limitsurf/pkg/patch"
	"github.com/chazu/limitsurf/pkg/primvar"
	"github.com/chazu/limitsurf/pkg/stencil"
	"github.com/chazu/limitsurf/pkg/tables"
	"github.com/samber/lo"
)

// defaultMaxValence is used when the source does not call max-valence.
const defaultMaxValence = 4

// description accumulates what the builtins declare. It is turned into
// tables once the script has run.
type description struct {
	maxValence int
	ptexFaces  int
	arrays     []tables.ArrayData
	stencils   []stencil.Stencil
	fvar       [][]patch.Index
	valences   []patch.Index
	points     primvar.Vertices

	// nextFace is the ptex face given to patches declared without params.
	nextFace int
}

func newDescription() *description {
	return &description{maxValence: defaultMaxValence}
}

// build assembles and validates the tables. Arrays may be declared in any
// order; they are stored by ascending patch type, keeping declaration order
// among arrays of the same type.
func (d *description) build() (*Result, error) {
	arrays := slices.Clone(d.arrays)
	slices.SortStableFunc(arrays, func(a, b tables.ArrayData) int {
		return int(a.Desc.Type) - int(b.Desc.Type)
	})

	b := tables.NewBuilder(d.maxValence)
	if err := b.Reserve(len(arrays)); err != nil {
		return nil, err
	}
	for _, a := range arrays {
		if err := b.AppendArray(a); err != nil {
			return nil, fmt.Errorf("patch-array %s: %w", a.Desc, err)
		}
	}
	if d.ptexFaces > 0 {
		if err := b.SetNumPtexFaces(d.ptexFaces); err != nil {
			return nil, err
		}
	}
	if len(d.valences) > 0 {
		if err := b.SetVertexValences(d.valences); err != nil {
			return nil, err
		}
	}
	if len(d.stencils) > 0 {
		sb := stencil.NewBuilder(len(d.points))
		for i, s := range d.stencils {
			if err := sb.Add(s.Indices, s.Weights); err != nil {
				return nil, fmt.Errorf("stencil %d: %w", i, err)
			}
		}
		st, err := sb.Build()
		if err != nil {
			return nil, fmt.Errorf("stencils: %w", err)
		}
		if err := b.SetEndCapStencils(st); err != nil {
			return nil, err
		}
	}
	for _, ch := range d.fvar {
		if err := b.AddFVarChannel(ch); err != nil {
			return nil, err
		}
	}

	tbl, err := b.Finalize()
	if err != nil {
		return nil, err
	}

	warnings := lo.Filter(tables.Validate(tbl), func(v tables.ValidationError, _ int) bool {
		return v.Severity == tables.SeverityWarning
	})
	return &Result{Tables: tbl, Points: d.points, Warnings: warnings}, nil
}
