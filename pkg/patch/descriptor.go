package patch

import "fmt"

// Index addresses a vertex, patch, array or stencil.
type Index int32

// InvalidIndex marks an absent entry (e.g. a patch that carries no crease).
const InvalidIndex Index = -1

// Type enumerates the patch kinds. The order is significant: patch arrays
// are stored in ascending Type order, and Regular..GregoryBasis are the
// feature-adaptive kinds.
type Type int

const (
	NonPatch        Type = iota // undefined
	Points                      // points (1 cv)
	Lines                       // lines (2 cvs)
	Quads                       // bilinear quads (4 cvs)
	Triangles                   // bilinear triangles (3 cvs)
	Loop                        // Loop patch (12 cvs)
	Regular                     // bicubic B-spline interior (16 cvs)
	SingleCrease                // regular patch with one sharp edge (16 cvs)
	Boundary                    // bicubic boundary (12 cvs)
	Corner                      // bicubic corner (9 cvs)
	Gregory                     // legacy Gregory (4 cvs + quad offsets)
	GregoryBoundary             // legacy Gregory boundary (4 cvs + quad offsets)
	GregoryBasis                // stencil-driven Gregory basis (20 cvs)
)

var typeNames = [...]string{
	NonPatch:        "non-patch",
	Points:          "points",
	Lines:           "lines",
	Quads:           "quads",
	Triangles:       "triangles",
	Loop:            "loop",
	Regular:         "regular",
	SingleCrease:    "single-crease",
	Boundary:        "boundary",
	Corner:          "corner",
	Gregory:         "gregory",
	GregoryBoundary: "gregory-boundary",
	GregoryBasis:    "gregory-basis",
}

func (t Type) String() string {
	if t >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType returns the Type whose String form is name.
func ParseType(name string) (Type, error) {
	for i, n := range typeNames {
		if n == name {
			return Type(i), nil
		}
	}
	return NonPatch, fmt.Errorf("unknown patch type %q", name)
}

// Descriptor identifies the kind shared by every patch of a patch array.
type Descriptor struct {
	Type Type
}

// NewDescriptor returns a descriptor for t.
func NewDescriptor(t Type) Descriptor {
	return Descriptor{Type: t}
}

// NumControlVertices returns the number of control vertex indices each
// patch of this kind owns in the control-vertex table.
func (d Descriptor) NumControlVertices() int {
	return NumControlVertices(d.Type)
}

// NumControlVertices returns the control vertex count for patch kind t.
func NumControlVertices(t Type) int {
	switch t {
	case Points:
		return 1
	case Lines:
		return 2
	case Quads:
		return 4
	case Triangles:
		return 3
	case Loop:
		return 12
	case Regular, SingleCrease:
		return 16
	case Boundary:
		return 12
	case Corner:
		return 9
	case Gregory, GregoryBoundary:
		return 4
	case GregoryBasis:
		return 20
	default:
		return -1
	}
}

// IsAdaptive reports whether the descriptor is one of the feature-adaptive
// kinds produced by adaptive refinement.
func (d Descriptor) IsAdaptive() bool {
	return d.Type >= Regular && d.Type <= GregoryBasis
}

// UsesQuadOffsets reports whether patches of this kind carry 4 quad-offset
// entries each (legacy Gregory evaluation).
func (d Descriptor) UsesQuadOffsets() bool {
	return d.Type == Gregory || d.Type == GregoryBoundary
}

// Less orders descriptors the way patch arrays are stored.
func (d Descriptor) Less(o Descriptor) bool {
	return d.Type < o.Type
}

func (d Descriptor) String() string {
	return d.Type.String()
}
