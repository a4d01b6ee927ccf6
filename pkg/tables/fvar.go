package tables

import (
	"fmt"

	"github.com/chazu/limitsurf/pkg/patch"
)

// FVarVerticesPerPatch is the number of face-varying indices stored per
// patch. Face-varying data is bilinear: bicubic face-varying limit
// evaluation is not implemented.
const FVarVerticesPerPatch = 4

// FVarTables holds the face-varying patch vertex indices of each primvar
// channel. Patch ordering matches the patch arrays of the owning Tables.
type FVarTables struct {
	channels [][]patch.Index
}

// NumChannels returns the number of face-varying channels.
func (f *FVarTables) NumChannels() int {
	if f == nil {
		return 0
	}
	return len(f.channels)
}

// PatchVertices returns the face-varying indices of every patch of channel.
func (f *FVarTables) PatchVertices(channel int) []patch.Index {
	if channel < 0 || channel >= f.NumChannels() {
		panic(fmt.Sprintf("tables: face-varying channel %d out of range [0,%d)", channel, f.NumChannels()))
	}
	return f.channels[channel]
}

// PatchVerticesFor returns the face-varying indices of the patch identified
// by h in channel.
func (f *FVarTables) PatchVerticesFor(channel int, h Handle) []patch.Index {
	verts := f.PatchVertices(channel)
	start := int(h.PatchIndex) * FVarVerticesPerPatch
	end := start + FVarVerticesPerPatch
	return verts[start:end:end]
}

func (f *FVarTables) clone() *FVarTables {
	if f == nil {
		return nil
	}
	c := &FVarTables{channels: make([][]patch.Index, len(f.channels))}
	for i, ch := range f.channels {
		c.channels[i] = append([]patch.Index(nil), ch...)
	}
	return c
}
