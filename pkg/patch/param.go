package patch

import "fmt"

// BitField packs the sub-face transform of a patch:
//
//	bits  0-3   depth (subdivision level of the patch)
//	bit   4     non-quad root (the coarse face was not a quad)
//	bits  5-6   rotation (number of quarter turns)
//	bits  7-16  v offset of the sub-patch, in units of the param fraction
//	bits 17-26  u offset of the sub-patch, in units of the param fraction
//	bits 27-30  transition mask
type BitField uint32

const (
	depthBits      = 4
	rotationShift  = 5
	vShift         = 7
	uShift         = 17
	transitionShft = 27
	offsetMask     = 0x3ff

	// MaxDepth is the deepest level the depth field can encode.
	MaxDepth = 1<<depthBits - 1
)

// NewBitField packs a sub-face transform. It panics if a field does not fit.
func NewBitField(u, v int, rotation, depth int, nonQuad bool, transition int) BitField {
	if u < 0 || u > offsetMask || v < 0 || v > offsetMask {
		panic(fmt.Sprintf("patch: sub-face offset (%d,%d) out of range", u, v))
	}
	if rotation < 0 || rotation > 3 {
		panic(fmt.Sprintf("patch: rotation %d out of range", rotation))
	}
	if depth < 0 || depth > MaxDepth {
		panic(fmt.Sprintf("patch: depth %d out of range", depth))
	}
	if transition < 0 || transition > 0xf {
		panic(fmt.Sprintf("patch: transition mask %#x out of range", transition))
	}
	var nq uint32
	if nonQuad {
		nq = 1
	}
	return BitField(uint32(transition)<<transitionShft |
		uint32(u)<<uShift |
		uint32(v)<<vShift |
		uint32(rotation)<<rotationShift |
		nq<<depthBits |
		uint32(depth))
}

// U returns the sub-patch u offset.
func (b BitField) U() int { return int(uint32(b)>>uShift) & offsetMask }

// V returns the sub-patch v offset.
func (b BitField) V() int { return int(uint32(b)>>vShift) & offsetMask }

// Rotation returns the number of quarter turns applied to the patch.
func (b BitField) Rotation() int { return int(uint32(b)>>rotationShift) & 0x3 }

// NonQuadRoot reports whether the patch descends from a non-quad face.
func (b BitField) NonQuadRoot() bool { return (uint32(b)>>depthBits)&0x1 != 0 }

// Depth returns the subdivision level of the patch.
func (b BitField) Depth() int { return int(uint32(b) & MaxDepth) }

// Transition returns the transition mask.
func (b BitField) Transition() int { return int(uint32(b)>>transitionShft) & 0xf }

// ParamFraction returns the fraction of the coarse face covered by the
// patch along each parametric direction. Non-quad faces are split into
// quads at the first level, so their sub-patches start one level lower.
func (b BitField) ParamFraction() float32 {
	d := b.Depth()
	if b.NonQuadRoot() && d > 0 {
		d--
	}
	return 1.0 / float32(int(1)<<d)
}

// Normalize maps (s,t), given in coarse face normalized space, into the
// local [0,1]² domain of the sub-patch.
func (b BitField) Normalize(s, t float32) (float32, float32) {
	frac := b.ParamFraction()
	ps := float32(b.U()) * frac
	pt := float32(b.V()) * frac
	return (s - ps) / frac, (t - pt) / frac
}

// Denormalize is the inverse of Normalize.
func (b BitField) Denormalize(s, t float32) (float32, float32) {
	frac := b.ParamFraction()
	return s*frac + float32(b.U())*frac, t*frac + float32(b.V())*frac
}

// Rotate maps local (s,t) into the frame of the rotated patch.
func (b BitField) Rotate(s, t float32) (float32, float32) {
	switch b.Rotation() {
	case 1:
		return t, 1 - s
	case 2:
		return 1 - s, 1 - t
	case 3:
		return 1 - t, s
	default:
		return s, t
	}
}

// Param is the per-patch parameterization: the ptex face the patch belongs
// to and its sub-face transform.
type Param struct {
	FaceIndex Index
	Bits      BitField
}

// NewParam returns a Param for the given face and transform.
func NewParam(face Index, bits BitField) Param {
	return Param{FaceIndex: face, Bits: bits}
}
