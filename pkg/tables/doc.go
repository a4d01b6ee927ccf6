// Package tables stores the patches produced by adaptive refinement and
// evaluates them.
//
// Patches are grouped into arrays of a single kind (see patch.Descriptor),
// sorted by ascending kind, and share flat control-vertex, parameter,
// sharpness and quad-offset tables. A Handle locates one patch inside those
// tables without owning anything.
//
// A Tables is built once through a Builder and is read-only afterwards:
// any number of goroutines may evaluate it concurrently with Limit or
// Interpolate, as long as each call owns its destination accumulator.
//
// Precondition violations (out-of-range indices, evaluating a uniform table
// adaptively or the reverse, unsupported patch kinds) are programmer errors
// and panic. Single-crease patches are stored and their sharpness can be
// queried, but their limit surface is not evaluated: Limit leaves the
// destination cleared for them.
package tables
