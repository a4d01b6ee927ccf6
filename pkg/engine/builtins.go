package engine

import (
	"fmt"

	"github.com/chazu/limitsurf/pkg/patch"
	"github.com/chazu/limitsurf/pkg/primvar"
	"github.com/chazu/limitsurf/pkg/stencil"
	"github.com/chazu/limitsurf/pkg/tables"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites table-description source before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: patch-array -> patch_array
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpParam wraps a patch.Param so it can be returned from `param` and
// consumed by `patch-array`.
type sexpParam struct {
	param patch.Param
}

func (p *sexpParam) SexpString(ps *zygo.PrintState) string {
	b := p.param.Bits
	return fmt.Sprintf("(param :face %d :u %d :v %d :depth %d :rot %d)",
		p.param.FaceIndex, b.U(), b.V(), b.Depth(), b.Rotation())
}
func (p *sexpParam) Type() *zygo.RegisteredType { return nil }

// sexpPatchArray is returned by `patch-array` for display in the REPL.
type sexpPatchArray struct {
	desc       patch.Descriptor
	numPatches int
}

func (a *sexpPatchArray) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(patch-array :type :%s :patches %d)", a.desc, a.numPatches)
}
func (a *sexpPatchArray) Type() *zygo.RegisteredType { return nil }

// toParams extracts a list of sexpParam values.
func toParams(s zygo.Sexp) ([]patch.Param, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]patch.Param, len(items))
	for i, item := range items {
		p, ok := item.(*sexpParam)
		if !ok {
			return nil, fmt.Errorf("entry %d: expected param, got %T (%s)", i, item, item.SexpString(nil))
		}
		out[i] = p.param
	}
	return out, nil
}

// newBitField packs a sub-face transform, reporting out-of-range fields as
// an error instead of a panic.
func newBitField(u, v, rot, depth int, nonQuad bool, transition int) (bits patch.BitField, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return patch.NewBitField(u, v, rot, depth, nonQuad, transition), nil
}

func intResult(n int) zygo.Sexp {
	return &zygo.SexpInt{Val: int64(n)}
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the table-description builtins into a zygomys
// environment. The builtins record into d, which is assembled into tables
// once the script has run.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, d *description) {

	// -----------------------------------------------------------------------
	// (param :face 0 :u 1 :v 0 :depth 1 :rot 0 :nonquad false :transition 0)
	// -----------------------------------------------------------------------
	env.AddFunction("param", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		ints := map[string]int{"face": 0, "u": 0, "v": 0, "depth": 0, "rot": 0, "transition": 0}
		for key := range ints {
			v, ok := pa.kw[key]
			if !ok {
				continue
			}
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("param: %s: %w", key, err)
			}
			ints[key] = n
		}
		nonQuad := false
		if v, ok := pa.kw["nonquad"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("param: nonquad: %w", err)
			}
			nonQuad = b
		}
		if ints["face"] < 0 {
			return zygo.SexpNull, fmt.Errorf("param: face: negative index %d", ints["face"])
		}

		bits, err := newBitField(ints["u"], ints["v"], ints["rot"], ints["depth"], nonQuad, ints["transition"])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("param: %w", err)
		}
		return &sexpParam{param: patch.NewParam(patch.Index(ints["face"]), bits)}, nil
	})

	// -----------------------------------------------------------------------
	// (patch-array :type :regular :verts [...] :params [...]
	//              :quad-offsets [...] :sharpness [...])
	//
	// The patch count is derived from the vertex list. Without :params each
	// patch gets the next free ptex face at depth 0.
	// -----------------------------------------------------------------------
	env.AddFunction("patch_array", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)

		v, ok := pa.kw["type"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("patch-array requires :type")
		}
		typ, err := toPatchType(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("patch-array: type: %w", err)
		}
		desc := patch.NewDescriptor(typ)
		ncvs := desc.NumControlVertices()
		if ncvs <= 0 {
			return zygo.SexpNull, fmt.Errorf("patch-array: cannot store patches of type %s", typ)
		}

		data := tables.ArrayData{Desc: desc}

		v, ok = pa.kw["verts"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("patch-array requires :verts")
		}
		if data.Vertices, err = toIndices(v); err != nil {
			return zygo.SexpNull, fmt.Errorf("patch-array: verts: %w", err)
		}
		if len(data.Vertices)%ncvs != 0 {
			return zygo.SexpNull, fmt.Errorf("patch-array: %d verts is not a multiple of %d for %s patches",
				len(data.Vertices), ncvs, typ)
		}
		data.NumPatches = len(data.Vertices) / ncvs

		if v, ok := pa.kw["params"]; ok {
			if data.Params, err = toParams(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("patch-array: params: %w", err)
			}
		} else {
			data.Params = make([]patch.Param, data.NumPatches)
			for i := range data.Params {
				data.Params[i] = patch.NewParam(patch.Index(d.nextFace), 0)
				d.nextFace++
			}
		}
		if v, ok := pa.kw["quad-offsets"]; ok {
			if data.QuadOffsets, err = toUint32s(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("patch-array: quad-offsets: %w", err)
			}
		}
		if v, ok := pa.kw["sharpness"]; ok {
			if data.Sharpness, err = toFloats(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("patch-array: sharpness: %w", err)
			}
		}

		d.arrays = append(d.arrays, data)
		return &sexpPatchArray{desc: desc, numPatches: data.NumPatches}, nil
	})

	// -----------------------------------------------------------------------
	// (stencil :indices [0 1] :weights [0.5 0.5])  => stencil index
	// -----------------------------------------------------------------------
	env.AddFunction("stencil", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var st stencil.Stencil
		var err error

		if v, ok := pa.kw["indices"]; ok {
			if st.Indices, err = toIndices(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("stencil: indices: %w", err)
			}
		}
		if v, ok := pa.kw["weights"]; ok {
			if st.Weights, err = toFloats(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("stencil: weights: %w", err)
			}
		}
		if len(st.Indices) != len(st.Weights) {
			return zygo.SexpNull, fmt.Errorf("stencil: %d indices but %d weights", len(st.Indices), len(st.Weights))
		}

		d.stencils = append(d.stencils, st)
		return intResult(len(d.stencils) - 1), nil
	})

	// -----------------------------------------------------------------------
	// (fvar-channel [...])  => channel index
	// -----------------------------------------------------------------------
	env.AddFunction("fvar_channel", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("fvar-channel requires one list argument, got %d", len(args))
		}
		idx, err := toIndices(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fvar-channel: %w", err)
		}
		d.fvar = append(d.fvar, idx)
		return intResult(len(d.fvar) - 1), nil
	})

	// -----------------------------------------------------------------------
	// (vertex-valence [...])
	// -----------------------------------------------------------------------
	env.AddFunction("vertex_valence", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("vertex-valence requires one list argument, got %d", len(args))
		}
		idx, err := toIndices(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vertex-valence: %w", err)
		}
		d.valences = append(d.valences, idx...)
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (max-valence 6) and (ptex-faces 12)
	// -----------------------------------------------------------------------
	intSetter := func(builtin string, set func(int)) zygo.ZlispUserFunction {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 1 {
				return zygo.SexpNull, fmt.Errorf("%s requires one argument, got %d", builtin, len(args))
			}
			n, err := toInt(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", builtin, err)
			}
			if n < 0 {
				return zygo.SexpNull, fmt.Errorf("%s: negative value %d", builtin, n)
			}
			set(n)
			return intResult(n), nil
		}
	}
	env.AddFunction("max_valence", intSetter("max-valence", func(n int) { d.maxValence = n }))
	env.AddFunction("ptex_faces", intSetter("ptex-faces", func(n int) { d.ptexFaces = n }))

	// -----------------------------------------------------------------------
	// (points [x0 y0 z0 x1 y1 z1 ...])  => total point count
	// -----------------------------------------------------------------------
	env.AddFunction("points", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("points requires one list argument, got %d", len(args))
		}
		coords, err := toFloats(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("points: %w", err)
		}
		if len(coords)%3 != 0 {
			return zygo.SexpNull, fmt.Errorf("points: %d coordinates is not a multiple of 3", len(coords))
		}
		for i := 0; i < len(coords); i += 3 {
			d.points = append(d.points, primvar.V(coords[i], coords[i+1], coords[i+2]))
		}
		return intResult(len(d.points)), nil
	})
}
