package engine

import (
	"fmt"
	"strings"
	"testing"

	"github.com/chazu/limitsurf/pkg/patch"
	"github.com/chazu/limitsurf/pkg/tables"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(param :face 3)`,
			expect: `(param "__kw_face" 3)`,
		},
		{
			name:   "keyword value",
			input:  `(patch-array :type :regular)`,
			expect: `(patch_array "__kw_type" "__kw_regular")`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative number preserved",
			input:  `[0.5 -1 2e-3]`,
			expect: `[0.5 -1 2e-3]`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:gregory-basis`,
			expect: `"__kw_gregory-basis"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Source helpers
// ---------------------------------------------------------------------------

// gridPoints returns a (points ...) form for a 4x4 grid, x = column,
// y = row.
func gridPoints() string {
	var sb strings.Builder
	sb.WriteString("(points [")
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			fmt.Fprintf(&sb, " %d %d 0", c, r)
		}
	}
	sb.WriteString("])\n")
	return sb.String()
}

func indexList(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprint(i)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func mustEvaluate(t *testing.T, source string) *Result {
	t.Helper()
	res, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if res == nil || res.Tables == nil {
		t.Fatal("expected non-nil tables")
	}
	return res
}

// ---------------------------------------------------------------------------
// Builtin tests
// ---------------------------------------------------------------------------

func TestRegularPatch(t *testing.T) {
	res := mustEvaluate(t, gridPoints()+"(patch-array :type :regular :verts "+indexList(16)+")")

	if len(res.Points) != 16 {
		t.Fatalf("expected 16 points, got %d", len(res.Points))
	}
	if res.Points[7].P != [3]float32{3, 1, 0} {
		t.Errorf("point 7 = %v, want [3 1 0]", res.Points[7].P)
	}
	tbl := res.Tables
	if tbl.NumPatchArrays() != 1 || tbl.NumPatches(0) != 1 {
		t.Fatalf("expected 1 array of 1 patch, got %d arrays", tbl.NumPatchArrays())
	}
	if got := tbl.PatchArrayDescriptor(0).Type; got != patch.Regular {
		t.Errorf("expected regular patches, got %s", got)
	}
	if !tbl.IsFeatureAdaptive() {
		t.Error("expected feature adaptive tables")
	}
}

func TestParams(t *testing.T) {
	source := `
(def p (param :face 2 :u 1 :v 0 :depth 1 :rot 3 :nonquad true :transition 5))
(patch-array :type :quads :verts [0 1 2 3] :params (list p))
`
	res := mustEvaluate(t, source)
	param := res.Tables.PatchParamAt(0, 0)
	if param.FaceIndex != 2 {
		t.Errorf("expected face 2, got %d", param.FaceIndex)
	}
	b := param.Bits
	if b.U() != 1 || b.V() != 0 || b.Depth() != 1 || b.Rotation() != 3 || !b.NonQuadRoot() || b.Transition() != 5 {
		t.Errorf("unexpected bits: u=%d v=%d depth=%d rot=%d nonquad=%v transition=%d",
			b.U(), b.V(), b.Depth(), b.Rotation(), b.NonQuadRoot(), b.Transition())
	}
}

func TestDefaultParamsUseNextFace(t *testing.T) {
	source := `
(patch-array :type :quads :verts [0 1 2 3 4 5 6 7])
(patch-array :type :quads :verts [0 1 2 3])
`
	res := mustEvaluate(t, source)
	var faces []patch.Index
	for _, p := range res.Tables.ParamTable() {
		faces = append(faces, p.FaceIndex)
	}
	if fmt.Sprint(faces) != "[0 1 2]" {
		t.Errorf("expected faces [0 1 2], got %v", faces)
	}
	if res.Tables.IsFeatureAdaptive() {
		t.Error("quad tables should not be feature adaptive")
	}
}

func TestArraysSortedByType(t *testing.T) {
	source := `
(patch-array :type :boundary :verts ` + indexList(12) + `)
(patch-array :type :regular :verts ` + indexList(16) + `)
`
	res := mustEvaluate(t, source)
	tbl := res.Tables
	if tbl.FindPatchArray(patch.NewDescriptor(patch.Regular)) != 0 {
		t.Error("expected regular array first")
	}
	if tbl.FindPatchArray(patch.NewDescriptor(patch.Boundary)) != 1 {
		t.Error("expected boundary array second")
	}
}

func TestSharpnessAndQuadOffsets(t *testing.T) {
	source := `
(patch-array :type :single-crease :verts ` + indexList(32) + ` :sharpness [1.5 0])
(patch-array :type :gregory :verts [0 1 2 3] :quad-offsets [4 5 6 7])
(vertex-valence [4 0 1 2 3])
(max-valence 6)
`
	res := mustEvaluate(t, source)
	tbl := res.Tables
	if got := tbl.SingleCreaseSharpnessAt(0, 0); got != 1.5 {
		t.Errorf("expected sharpness 1.5, got %v", got)
	}
	if got := tbl.SingleCreaseSharpnessAt(0, 1); got != 0 {
		t.Errorf("expected no crease on patch 1, got %v", got)
	}
	if got := tbl.PatchQuadOffsets(tbl.HandleAt(1, 0)); fmt.Sprint(got) != "[4 5 6 7]" {
		t.Errorf("expected quad offsets [4 5 6 7], got %v", got)
	}
	if len(tbl.VertexValences()) != 5 {
		t.Errorf("expected 5 valence entries, got %d", len(tbl.VertexValences()))
	}
	if tbl.MaxValence() != 6 {
		t.Errorf("expected max valence 6, got %d", tbl.MaxValence())
	}
}

func TestGregoryBasisStencils(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(gridPoints())
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&sb, "(stencil :indices [%d] :weights [1.0])\n", i%16)
	}
	sb.WriteString("(patch-array :type :gregory-basis :verts " + indexList(20) + ")\n")

	res := mustEvaluate(t, sb.String())
	st := res.Tables.EndCapStencils()
	if st == nil || st.NumStencils() != 20 {
		t.Fatalf("expected 20 end-cap stencils, got %v", st)
	}
	if st.NumControlVertices() != 16 {
		t.Errorf("expected stencils over 16 points, got %d", st.NumControlVertices())
	}
}

func TestFVarChannel(t *testing.T) {
	source := `
(patch-array :type :quads :verts [0 1 2 3 4 5 6 7])
(fvar-channel [0 1 2 3 4 5 6 7])
`
	res := mustEvaluate(t, source)
	fv := res.Tables.FVar()
	if fv.NumChannels() != 1 {
		t.Fatalf("expected 1 fvar channel, got %d", fv.NumChannels())
	}
	if got := fv.PatchVerticesFor(0, res.Tables.HandleAt(0, 1)); fmt.Sprint(got) != "[4 5 6 7]" {
		t.Errorf("expected [4 5 6 7], got %v", got)
	}
}

func TestPtexFaceWarning(t *testing.T) {
	source := `
(ptex-faces 1)
(patch-array :type :quads :verts [0 1 2 3] :params (list (param :face 3)))
`
	res := mustEvaluate(t, source)
	if res.Tables.NumPtexFaces() != 1 {
		t.Errorf("expected 1 ptex face, got %d", res.Tables.NumPtexFaces())
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Severity != tables.SeverityWarning {
		t.Fatalf("expected one warning, got %v", res.Warnings)
	}
	if !strings.Contains(res.Warnings[0].Message, "ptex face 3") {
		t.Errorf("unexpected warning: %s", res.Warnings[0].Message)
	}
}

func TestVariablesAndArithmetic(t *testing.T) {
	source := `
(def n 4)
(max-valence (+ n 1))
(patch-array :type :quads :verts [0 1 2 3])
`
	res := mustEvaluate(t, source)
	if res.Tables.MaxValence() != 5 {
		t.Errorf("expected max valence 5, got %d", res.Tables.MaxValence())
	}
}

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantMsg string
	}{
		{"missing type", `(patch-array :verts [0 1 2 3])`, "requires :type"},
		{"unknown type", `(patch-array :type :hexagon :verts [0 1 2 3])`, "unknown patch type"},
		{"uneven verts", `(patch-array :type :quads :verts [0 1 2])`, "not a multiple of 4"},
		{"negative vertex", `(patch-array :type :quads :verts [0 1 2 -3])`, "out of range"},
		{"bad param", `(param :rot 7)`, "rotation 7 out of range"},
		{"param count", `(patch-array :type :quads :verts [0 1 2 3] :params (list))`, "params"},
		{"stencil mismatch", `(stencil :indices [0 1] :weights [1.0])`, "2 indices but 1 weights"},
		{"points length", `(points [0 1])`, "not a multiple of 3"},
		{"fractional index", `(fvar-channel [0.5])`, "expected integer"},
		{"gregory basis without stencils", `(patch-array :type :gregory-basis :verts ` + indexList(20) + `)`, "end-cap stencil"},
		{"stencil out of range", `(points [0 0 0]) (stencil :indices [3] :weights [1.0])`, "stencil"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, evalErrs, err := NewEngine().Evaluate(tt.source)
			if err != nil {
				t.Fatalf("expected non-fatal error, got fatal: %v", err)
			}
			if res != nil {
				t.Fatal("expected nil result on error")
			}
			if len(evalErrs) == 0 {
				t.Fatal("expected eval errors")
			}
			if !strings.Contains(evalErrs[0].Message, tt.wantMsg) {
				t.Errorf("expected error mentioning %q, got %q", tt.wantMsg, evalErrs[0].Message)
			}
		})
	}
}
