/*
 * typegraph - a classpath/classfile scanner
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package scan wires the three scan phases — classpath order building,
// pipelined discovery+parsing, and single-threaded linking — into the
// one entry point a caller invokes per scan.
package scan

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"typegraph/src/classfile"
	"typegraph/src/classpath"
	"typegraph/src/errs"
	"typegraph/src/graph"
	"typegraph/src/loaderadapter"
	"typegraph/src/scanctx"
	"typegraph/src/scanner"
	"typegraph/src/workpool"
)

// ElementManifest is one ordered element's canonical path and the
// timestamps discovery recorded for it.
type ElementManifest struct {
	Path       string
	Timestamps map[string]time.Time
}

// Result is the finished output of Run.
type Result struct {
	Graph       *graph.Graph
	FileMatches []scanner.NamedMatch
	Elements    []ElementManifest
}

type parseUnit struct {
	resource          *scanner.Resource
	owningElementPath string
	loaders           []interface{}
}

// Run executes a full scan against sc's configuration and returns the
// linked type graph plus ancillary outputs. A cancelled ctx (or a
// tripped sc.Interrupter) returns errs.Cancelled once in-flight work
// unwinds.
func Run(ctx context.Context, sc *scanctx.Context) (*Result, error) {
	cfg := sc.Config
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	roots, err := resolveRoots(cfg, sc)
	if err != nil {
		return nil, err
	}

	builder := classpath.NewOrderBuilder(classpath.OrderBuilderConfig{
		Roots:               roots,
		BlacklistSystemJars: !cfg.IncludeSystemArchives,
		Workers:             workers,
		Logger:              sc.Logger,
	})
	elements, err := builder.Build(ctx)
	if err != nil {
		return nil, err
	}

	results, err := discover(ctx, sc, elements, workers)
	if err != nil {
		return nil, err
	}
	scanner.MaskAcrossElements(results)

	records, fileMatches, err := parseAll(ctx, sc, results, workers)
	if err != nil {
		return nil, err
	}

	g, err := graph.LinkAll(records)
	if err != nil {
		return nil, err
	}

	manifests := make([]ElementManifest, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		path, _ := r.Element.CanonicalPath()
		manifests = append(manifests, ElementManifest{Path: path, Timestamps: r.Timestamps})
	}

	return &Result{Graph: g, FileMatches: fileMatches, Elements: manifests}, nil
}

// resolveRoots honors "classpath override replaces discovery": an
// override short-circuits adapter resolution entirely. (The mutual
// exclusion with Loaders is enforced earlier by
// scanctx.ScanConfig.Validate.)
func resolveRoots(cfg scanctx.ScanConfig, sc *scanctx.Context) ([]classpath.Root, error) {
	if len(cfg.ClasspathOverride) > 0 {
		roots := make([]classpath.Root, len(cfg.ClasspathOverride))
		for i, p := range cfg.ClasspathOverride {
			roots[i] = classpath.Root{Path: p}
		}
		return roots, nil
	}
	registry := loaderadapter.NewRegistry(cfg.Adapters)
	return registry.Resolve(cfg.Loaders, sc.Logger), nil
}

// discover runs one discovery worker per element across a bounded pool,
// writing each result into its own slot so no ordering coordination is
// needed until the masking pass below.
func discover(ctx context.Context, sc *scanctx.Context, elements []*classpath.Element, workers int) ([]*scanner.ElementScanResult, error) {
	cfg := sc.Config
	whitelist := scanner.NewWhitelistMatcher(cfg.Whitelist, cfg.Blacklist, cfg.WhitelistArchiveNames)
	sn := scanner.New(scanner.Config{
		Whitelist:    whitelist,
		FileMatchers: cfg.FileMatchers,
		ScanDirs:     cfg.ScanDirs,
		ScanArchives: cfg.ScanArchives,
		Interrupter:  sc.Interrupter,
		Logger:       sc.Logger,
	})

	results := make([]*scanner.ElementScanResult, len(elements))
	indices := make([]int, len(elements))
	for i := range indices {
		indices[i] = i
	}

	pool := workpool.NewPool(workers, sc.Interrupter)
	err := workpool.Run(ctx, pool, indices, func(ctx context.Context, i int) error {
		res, err := sn.ScanElement(ctx, elements[i])
		if err != nil {
			if errs.IsCancellation(err) {
				return err
			}
			if errs.IsLocal(err) {
				sc.Logger.Warnf("skipping element %s: %v", elements[i].RelativePath, err)
				results[i] = &scanner.ElementScanResult{Element: elements[i]}
				return nil
			}
			return err
		}
		results[i] = res
		return nil
	})
	if err != nil {
		if errs.IsCancellation(err) {
			return nil, errs.Cancelled
		}
		return nil, err
	}
	if sc.Interrupter != nil && sc.Interrupter.Tripped() {
		return nil, errs.Cancelled // elements skipped after the trip have no result
	}
	return results, nil
}

// parseAll drains every discovered classfile resource through a bounded
// pool of recycled parsers, aggregating failures that are not local
// per-class format/resource errors with go-multierror.
func parseAll(ctx context.Context, sc *scanctx.Context, results []*scanner.ElementScanResult, workers int) ([]*graph.ClassInfoUnlinked, []scanner.NamedMatch, error) {
	cfg := sc.Config
	queue := workpool.NewQueue[parseUnit](256)

	var fileMatches []scanner.NamedMatch
	for _, r := range results {
		if r == nil {
			continue
		}
		fileMatches = append(fileMatches, r.FileMatches...)
		for _, res := range r.ClassfileMatches {
			path, _ := r.Element.CanonicalPath()
			queue.Add(parseUnit{
				resource:          res,
				owningElementPath: path,
				loaders:           loaderRefsToAny(r.Element.Loaders),
			})
		}
	}
	go queue.CloseWhenDrained(ctx)

	fileCfg := classfile.Config{
		IgnoreFieldVisibility:   cfg.IgnoreFieldVisibility,
		IgnoreMethodVisibility:  cfg.IgnoreMethodVisibility,
		EnableFieldTypeIndexing: cfg.EnableFieldTypeIndexing,
		EnableFieldAnnotations:  cfg.EnableFieldAnnotations,
		EnableMethodAnnotations: cfg.EnableMethodAnnotations,
		AnnotationVisibility:    cfg.AnnotationVisibility,
		FullFieldInfo:           cfg.EnableFieldAnnotations || cfg.StaticFinalFieldMatches != nil,
		FullMethodInfo:          cfg.EnableMethodAnnotations,
		StaticFinalFieldMatches: cfg.StaticFinalFieldMatches,
	}
	parsers := workpool.NewRecycler(
		func() *classfile.Parser {
			p := classfile.NewParser(fileCfg)
			p.SetInterrupter(sc.Interrupter)
			return p
		},
		func(p *classfile.Parser) { p.Reset() },
	)

	var mu sync.Mutex
	var records []*graph.ClassInfoUnlinked
	var failures *multierror.Error

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for unit := range queue.Chan() {
				err := parsers.Use(func(p *classfile.Parser) error {
					rc, err := unit.resource.Open()
					if err != nil {
						return &errs.ResourceError{Path: unit.resource.RelativePath, Err: err}
					}
					defer rc.Close()
					info, err := p.Parse(rc, unit.resource.RelativePath, unit.owningElementPath, unit.loaders)
					if err != nil {
						return err
					}
					mu.Lock()
					records = append(records, info)
					mu.Unlock()
					return nil
				})
				queue.Done()

				switch {
				case err == nil:
				case errs.IsCancellation(err):
					sc.Interrupter.Trip()
					return err
				case errs.IsLocal(err):
					sc.Logger.Warnf("skipping class %s: %v", unit.resource.RelativePath, err)
				default:
					mu.Lock()
					failures = multierror.Append(failures, err)
					mu.Unlock()
				}

				if gctx.Err() != nil {
					return errs.Cancelled
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errs.IsCancellation(err) {
		return nil, nil, err
	} else if err != nil {
		return nil, nil, errs.Cancelled
	}

	if err := failures.ErrorOrNil(); err != nil {
		return nil, nil, err
	}
	return records, fileMatches, nil
}

func loaderRefsToAny(refs []classpath.LoaderRef) []interface{} {
	out := make([]interface{}, len(refs))
	for i, r := range refs {
		out[i] = r
	}
	return out
}
