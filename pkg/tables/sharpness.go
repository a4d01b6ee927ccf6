package tables

import "github.com/chazu/limitsurf/pkg/patch"

// SingleCreaseSharpness returns the crease sharpness of the patch
// identified by h, or 0 if the patch is not a single-crease patch.
func (t *Tables) SingleCreaseSharpness(h Handle) float32 {
	return t.sharpnessOf(h.PatchIndex)
}

// SingleCreaseSharpnessAt returns the crease sharpness of patch p of array,
// or 0 if the patch is not a single-crease patch.
func (t *Tables) SingleCreaseSharpnessAt(array, p int) float32 {
	return t.sharpnessOf(t.HandleAt(array, p).PatchIndex)
}

func (t *Tables) sharpnessOf(patchIndex patch.Index) float32 {
	if len(t.sharpnessIndices) == 0 {
		return 0
	}
	idx := t.sharpnessIndices[patchIndex]
	if idx == patch.InvalidIndex {
		return 0
	}
	return t.sharpnessValues[idx]
}
