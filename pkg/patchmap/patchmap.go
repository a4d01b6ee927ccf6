// Package patchmap locates the patch covering a point of a ptex face.
//
// Each ptex face owns a quadtree whose leaves are the patches generated
// for that face. A patch at depth d with sub-face offset (u,v) sits d
// levels below the root; at each level the quadrant is picked by one bit
// of u and one bit of v, most significant first.
package patchmap

import (
	"github.com/chazu/limitsurf/pkg/patch"
	"github.com/chazu/limitsurf/pkg/tables"
)

// quadrant layout, for s to the right and t upwards:
//
//	2 | 3
//	--+--
//	0 | 1
const (
	quadS = 1 << iota
	quadT
)

// child is a slot of a quadtree node. A set leaf holds an index into
// Map.handles; a set inner slot holds an index into Map.nodes.
type child struct {
	set   bool
	leaf  bool
	index int
}

type node struct {
	children [4]child
}

// Map finds patches by (face, s, t). It is read-only after New and safe
// for concurrent use.
type Map struct {
	roots   []child
	nodes   []node
	handles []tables.Handle
}

// New builds the quadtrees of every ptex face referenced by t.
//
// Patches whose slot is already taken by a shallower patch are ignored:
// only the first patch reaching a quadrant is found by Find.
func New(t *tables.Tables) *Map {
	m := &Map{}

	numFaces := t.NumPtexFaces()
	for _, p := range t.ParamTable() {
		if int(p.FaceIndex) >= numFaces {
			numFaces = int(p.FaceIndex) + 1
		}
	}
	m.roots = make([]child, numFaces)

	for h := range t.Handles() {
		m.insert(h, t.PatchParam(h))
	}
	return m
}

// depthOf returns the number of quadtree levels between the ptex face
// root and the patch.
func depthOf(bits patch.BitField) int {
	d := bits.Depth()
	if bits.NonQuadRoot() && d > 0 {
		d--
	}
	return d
}

func (m *Map) insert(h tables.Handle, p patch.Param) {
	if p.FaceIndex < 0 {
		return
	}
	root := &m.roots[p.FaceIndex]
	leaf := len(m.handles)
	depth := depthOf(p.Bits)

	if depth == 0 {
		if root.set {
			return
		}
		m.handles = append(m.handles, h)
		*root = child{set: true, leaf: true, index: leaf}
		return
	}

	if !root.set {
		*root = child{set: true, index: m.newNode()}
	} else if root.leaf {
		return
	}

	u, v := p.Bits.U(), p.Bits.V()
	current := root.index
	for level := depth - 1; level >= 0; level-- {
		q := 0
		if (u>>level)&1 != 0 {
			q |= quadS
		}
		if (v>>level)&1 != 0 {
			q |= quadT
		}

		slot := m.nodes[current].children[q]
		if level == 0 {
			if slot.set {
				return
			}
			m.handles = append(m.handles, h)
			m.nodes[current].children[q] = child{set: true, leaf: true, index: leaf}
			return
		}
		switch {
		case !slot.set:
			next := m.newNode()
			m.nodes[current].children[q] = child{set: true, index: next}
			current = next
		case slot.leaf:
			return
		default:
			current = slot.index
		}
	}
}

func (m *Map) newNode() int {
	m.nodes = append(m.nodes, node{})
	return len(m.nodes) - 1
}

// Find returns the handle of the patch of face containing (s,t), given in
// the normalized space of the ptex face. The boolean is false if the face
// is unknown, (s,t) lies outside [0,1]², or no patch covers the point.
func (m *Map) Find(face int, s, t float32) (tables.Handle, bool) {
	if face < 0 || face >= len(m.roots) {
		return tables.Handle{}, false
	}
	if s < 0 || s > 1 || t < 0 || t > 1 {
		return tables.Handle{}, false
	}

	c := m.roots[face]
	for depth := 0; ; depth++ {
		if !c.set {
			return tables.Handle{}, false
		}
		if c.leaf {
			return m.handles[c.index], true
		}
		if depth > patch.MaxDepth {
			return tables.Handle{}, false
		}

		q := 0
		if s >= 0.5 {
			q |= quadS
			s = 2*s - 1
		} else {
			s *= 2
		}
		if t >= 0.5 {
			q |= quadT
			t = 2*t - 1
		} else {
			t *= 2
		}
		c = m.nodes[c.index].children[q]
	}
}

// NumFaces returns the number of ptex faces the map covers.
func (m *Map) NumFaces() int { return len(m.roots) }
