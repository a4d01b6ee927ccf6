// Package patch defines the descriptor and parameter types that identify a
// patch's topological kind and its position inside a coarse ptex face.
// These types are produced by the refinement factory and consumed, read-only,
// by the patch tables and the limit evaluator.
package patch
