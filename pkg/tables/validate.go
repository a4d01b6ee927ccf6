package tables

import (
	"fmt"

	"github.com/chazu/limitsurf/pkg/patch"
)

// ValidationSeverity indicates whether a validation finding makes the
// tables unusable or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // tables cannot be evaluated
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Array    patch.Index        // offending patch array, or InvalidIndex
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.Array == patch.InvalidIndex {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] array %d: %s", e.Severity, e.Array, e.Message)
}

// Validate checks the structural invariants of t and returns every finding.
// An empty result means the tables are consistent. Validate never mutates t.
func Validate(t *Tables) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateArrayOrder(t)...)
	errs = append(errs, validateRanges(t)...)
	errs = append(errs, validateControlVertices(t)...)
	errs = append(errs, validateSharpness(t)...)
	errs = append(errs, validateFVar(t)...)
	errs = append(errs, validateEndCaps(t)...)
	errs = append(errs, validateParams(t)...)
	return errs
}

func tableError(format string, args ...any) ValidationError {
	return ValidationError{Array: patch.InvalidIndex, Message: fmt.Sprintf(format, args...), Severity: SeverityError}
}

func arrayError(array int, format string, args ...any) ValidationError {
	return ValidationError{Array: patch.Index(array), Message: fmt.Sprintf(format, args...), Severity: SeverityError}
}

func arrayWarning(array int, format string, args ...any) ValidationError {
	return ValidationError{Array: patch.Index(array), Message: fmt.Sprintf(format, args...), Severity: SeverityWarning}
}

// validateArrayOrder checks that arrays are sorted by descriptor and flags
// descriptors that appear in more than one array.
func validateArrayOrder(t *Tables) []ValidationError {
	var errs []ValidationError
	seen := make(map[patch.Descriptor]int)
	for i, pa := range t.arrays {
		if i > 0 && pa.Desc.Less(t.arrays[i-1].Desc) {
			errs = append(errs, arrayError(i, "descriptor %s follows %s", pa.Desc, t.arrays[i-1].Desc))
		}
		if first, ok := seen[pa.Desc]; ok {
			errs = append(errs, arrayWarning(i, "descriptor %s already stored in array %d", pa.Desc, first))
			continue
		}
		seen[pa.Desc] = i
	}
	return errs
}

// validateRanges checks that the per-array sub-ranges tile the
// control-vertex, param and quad-offset tables exactly.
func validateRanges(t *Tables) []ValidationError {
	var errs []ValidationError
	var verts, patches, quads int
	for i, pa := range t.arrays {
		if int(pa.VertIndex) != verts {
			errs = append(errs, arrayError(i, "vertex range starts at %d, expected %d", pa.VertIndex, verts))
		}
		if int(pa.PatchIndex) != patches {
			errs = append(errs, arrayError(i, "patch range starts at %d, expected %d", pa.PatchIndex, patches))
		}
		if int(pa.QuadOffsetIndex) != quads {
			errs = append(errs, arrayError(i, "quad-offset range starts at %d, expected %d", pa.QuadOffsetIndex, quads))
		}
		verts += pa.NumPatches * pa.Desc.NumControlVertices()
		patches += pa.NumPatches
		if pa.Desc.UsesQuadOffsets() {
			quads += pa.NumPatches * 4
		}
	}
	if verts != len(t.patchVerts) {
		errs = append(errs, tableError("arrays cover %d control vertices, table holds %d", verts, len(t.patchVerts)))
	}
	if patches != len(t.params) {
		errs = append(errs, tableError("arrays hold %d patches, param table holds %d", patches, len(t.params)))
	}
	if quads != len(t.quadOffsets) {
		errs = append(errs, tableError("arrays need %d quad offsets, table holds %d", quads, len(t.quadOffsets)))
	}
	return errs
}

func validateControlVertices(t *Tables) []ValidationError {
	for i, v := range t.patchVerts {
		if v < 0 {
			return []ValidationError{tableError("control vertex %d has negative index %d", i, v)}
		}
	}
	return nil
}

// validateSharpness checks that the sharpness index table, when present,
// has one entry per patch and only references existing values.
func validateSharpness(t *Tables) []ValidationError {
	if len(t.sharpnessIndices) == 0 {
		return nil
	}
	var errs []ValidationError
	if len(t.sharpnessIndices) != len(t.params) {
		errs = append(errs, tableError("sharpness index table holds %d entries for %d patches",
			len(t.sharpnessIndices), len(t.params)))
	}
	for p, idx := range t.sharpnessIndices {
		if idx == patch.InvalidIndex {
			continue
		}
		if idx < 0 || int(idx) >= len(t.sharpnessValues) {
			errs = append(errs, tableError("patch %d sharpness index %d outside [0,%d)", p, idx, len(t.sharpnessValues)))
		}
	}
	return errs
}

func validateFVar(t *Tables) []ValidationError {
	var errs []ValidationError
	want := len(t.params) * FVarVerticesPerPatch
	for c := 0; c < t.fvar.NumChannels(); c++ {
		if n := len(t.fvar.channels[c]); n != want {
			errs = append(errs, tableError("face-varying channel %d holds %d indices, expected %d", c, n, want))
		}
	}
	return errs
}

// validateEndCaps checks that every Gregory-basis patch has its 20 stencils.
func validateEndCaps(t *Tables) []ValidationError {
	var errs []ValidationError
	for i, pa := range t.arrays {
		if pa.Desc.Type != patch.GregoryBasis || pa.NumPatches == 0 {
			continue
		}
		need := pa.NumPatches * pa.Desc.NumControlVertices()
		switch {
		case t.endCapStencils == nil:
			errs = append(errs, arrayError(i, "gregory-basis patches without an end-cap stencil table"))
		case t.endCapStencils.NumStencils() < need:
			errs = append(errs, arrayError(i, "gregory-basis patches need %d stencils, table holds %d",
				need, t.endCapStencils.NumStencils()))
		}
	}
	return errs
}

func validateParams(t *Tables) []ValidationError {
	if t.numPtexFaces <= 0 {
		return nil
	}
	var errs []ValidationError
	for p, param := range t.params {
		if param.FaceIndex < 0 || int(param.FaceIndex) >= t.numPtexFaces {
			errs = append(errs, ValidationError{
				Array:    patch.InvalidIndex,
				Message:  fmt.Sprintf("patch %d references ptex face %d outside [0,%d)", p, param.FaceIndex, t.numPtexFaces),
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}
