package tables

import (
	"fmt"
	"iter"

	"github.com/chazu/limitsurf/pkg/patch"
)

// Handle locates a patch inside a Tables. It is a plain value: copying it
// is free and it owns nothing. A handle is only meaningful for the Tables
// it was obtained from.
type Handle struct {
	ArrayIndex patch.Index // patch array holding the patch
	PatchIndex patch.Index // absolute index of the patch
	VertIndex  patch.Index // offset of the patch's first cv within its array
}

// HandleAt returns the handle of patch p of array.
func (t *Tables) HandleAt(array, p int) Handle {
	pa := t.patchArray(array)
	if p < 0 || p >= pa.NumPatches {
		panic(fmt.Sprintf("tables: patch %d out of range [0,%d) in array %d", p, pa.NumPatches, array))
	}
	return Handle{
		ArrayIndex: patch.Index(array),
		PatchIndex: pa.PatchIndex + patch.Index(p),
		VertIndex:  patch.Index(p * pa.Desc.NumControlVertices()),
	}
}

// Handles iterates over every patch in storage order.
func (t *Tables) Handles() iter.Seq[Handle] {
	return func(yield func(Handle) bool) {
		for a := range t.arrays {
			for p := 0; p < t.arrays[a].NumPatches; p++ {
				if !yield(t.HandleAt(a, p)) {
					return
				}
			}
		}
	}
}
