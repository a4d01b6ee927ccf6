// Command limitsurf evaluates a patch table description, samples the limit
// surface of every patch and writes the result as an STL file.
//
// Usage:
//
//	limitsurf -in desc.zy -out mesh.stl [-tess 8] [-workers 0] [-flat] [-v]
//	limitsurf -in desc.zy -at 0,0.5,0.5
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/chazu/limitsurf/pkg/engine"
	"github.com/chazu/limitsurf/pkg/kernel"
	"github.com/chazu/limitsurf/pkg/kernel/sdfx"
	"github.com/chazu/limitsurf/pkg/patch"
	"github.com/chazu/limitsurf/pkg/patchmap"
	"github.com/chazu/limitsurf/pkg/primvar"
	"github.com/chazu/limitsurf/pkg/tables"
	"github.com/chazu/limitsurf/pkg/tessellate"
	"github.com/ungerik/go3d/vec3"
)

// errEval is returned when the description has parse or evaluation errors.
// The individual errors have already been printed.
var errEval = errors.New("description has errors")

type config struct {
	in      string
	out     string
	tess    int
	workers int
	verbose bool
	at      string
	flat    bool
}

func parseFlags(args []string, stderr io.Writer) (config, error) {
	var cfg config
	fs := flag.NewFlagSet("limitsurf", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.in, "in", "", "patch table description (zygomys source)")
	fs.StringVar(&cfg.out, "out", "", "STL output path; bounds only when empty")
	fs.IntVar(&cfg.tess, "tess", 8, "segments per patch edge")
	fs.IntVar(&cfg.workers, "workers", 0, "evaluation goroutines (0 = GOMAXPROCS)")
	fs.BoolVar(&cfg.verbose, "v", false, "debug logging")
	fs.BoolVar(&cfg.flat, "flat", false, "export flat-shaded triangles with face normals")
	fs.StringVar(&cfg.at, "at", "", "evaluate one point given as face,s,t instead of tessellating")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if cfg.in == "" {
		return cfg, errors.New("-in is required")
	}
	if cfg.tess < 1 {
		return cfg, fmt.Errorf("-tess must be positive, got %d", cfg.tess)
	}
	return cfg, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// run is the whole program minus process exit, so tests can drive it.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, exp kernel.Exporter) error {
	cfg, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	logger := newLogger(stderr, cfg.verbose)

	source, err := os.ReadFile(cfg.in)
	if err != nil {
		return fmt.Errorf("read description: %w", err)
	}

	// Step 1: Evaluate the description into patch tables.
	res, evalErrs, err := engine.NewEngine().EvaluateContext(ctx, string(source))
	if err != nil {
		return fmt.Errorf("evaluate %s: %w", cfg.in, err)
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			fmt.Fprintf(stderr, "%s: %s\n", cfg.in, e.Error())
		}
		return errEval
	}
	for _, w := range res.Warnings {
		logger.Warn("limitsurf: table warning", "finding", w.Error())
	}
	logger.Debug("limitsurf: tables built",
		"arrays", res.Tables.NumPatchArrays(),
		"patches", res.Tables.NumPatchesTotal(),
		"points", res.Points.Len())

	if cfg.at != "" {
		return probe(stdout, res, cfg.at)
	}

	// Step 2: Sample the limit surface.
	mesh, err := tessellate.Tessellate(res.Tables, res.Points,
		tessellate.WithTessFactor(cfg.tess),
		tessellate.WithWorkers(cfg.workers),
		tessellate.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("tessellate: %w", err)
	}
	if cfg.flat && !mesh.IsEmpty() {
		mesh = sdfx.Facet(mesh)
	}
	fmt.Fprintf(stdout, "vertices %d triangles %d\n", mesh.VertexCount(), mesh.TriangleCount())
	if mesh.IsEmpty() {
		return nil
	}

	// Step 3: Report bounds and export.
	lo, hi := exp.Bounds(mesh)
	fmt.Fprintf(stdout, "bounds [%g %g %g] [%g %g %g]\n", lo[0], lo[1], lo[2], hi[0], hi[1], hi[2])
	if cfg.out == "" {
		return nil
	}
	if err := exp.WriteSTL(cfg.out, mesh); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	logger.Info("limitsurf: wrote mesh", "path", cfg.out)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, sdfx.New())
	stop()
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "limitsurf:", err)
		}
		os.Exit(1)
	}
}

func parseProbe(at string) (face int, s, t float32, err error) {
	parts := strings.Split(at, ",")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("-at wants face,s,t, got %q", at)
	}
	if face, err = strconv.Atoi(strings.TrimSpace(parts[0])); err != nil {
		return 0, 0, 0, fmt.Errorf("-at face: %w", err)
	}
	var st [2]float64
	for i, part := range parts[1:] {
		if st[i], err = strconv.ParseFloat(strings.TrimSpace(part), 32); err != nil {
			return 0, 0, 0, fmt.Errorf("-at parameter: %w", err)
		}
	}
	return face, float32(st[0]), float32(st[1]), nil
}

// probe locates the patch covering (face, s, t) and prints the limit
// position, tangents and normal there.
func probe(w io.Writer, res *engine.Result, at string) error {
	face, s, t, err := parseProbe(at)
	if err != nil {
		return err
	}
	h, ok := patchmap.New(res.Tables).Find(face, s, t)
	if !ok {
		return fmt.Errorf("no patch covers face %d at (%g,%g)", face, s, t)
	}
	typ := res.Tables.PatchDescriptor(h).Type
	adaptive := res.Tables.IsFeatureAdaptive()
	if typ == patch.Gregory || typ == patch.GregoryBoundary || (!adaptive && typ != patch.Quads) {
		return fmt.Errorf("patch %d: cannot evaluate %s patches", h.PatchIndex, typ)
	}
	var frame primvar.LimitFrame
	if adaptive {
		tables.Limit(res.Tables, h, s, t, res.Points, &frame)
	} else {
		tables.Interpolate(res.Tables, h, s, t, res.Points, &frame)
	}
	fmt.Fprintf(w, "patch %d (%s)\n", h.PatchIndex, typ)
	n := frame.Normal()
	for _, row := range []struct {
		label string
		v     vec3.T
	}{{"P ", frame.P}, {"Du", frame.Du}, {"Dv", frame.Dv}, {"N ", n}} {
		fmt.Fprintf(w, "%s %v\n", row.label, [3]float32(row.v))
	}
	return nil
}
