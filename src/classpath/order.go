/*
 * typegraph - a classpath/classfile scanner
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classpath

import (
	"archive/zip"
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"typegraph/src/errs"
	"typegraph/src/trace"
)

// Root is one user-supplied classpath root, paired with the class
// loader reference list it was contributed by.
type Root struct {
	Path    string
	Loaders []LoaderRef
}

// OrderBuilderConfig controls the Classpath Order Builder.
type OrderBuilderConfig struct {
	Roots                []Root
	BlacklistSystemJars  bool
	Workers              int
	Logger               *trace.Logger
}

// occurrence records the winning ordering key claimed for a canonical
// path, so concurrent claimants can compare-and-swap down to the
// earliest key without ever losing the true minimum.
type occurrence struct {
	key string
	elt *Element
}

// OrderBuilder runs the depth-first work-queue algorithm that expands
// manifest Class-Path references and produces the final ordered,
// deduplicated element list.
type OrderBuilder struct {
	cfg OrderBuilderConfig

	earliest sync.Map // canonical path -> *occurrence

	knownSystemDirs sync.Map // directory path -> bool

	remaining int64 // remaining work-unit counter, /

	validMu sync.Mutex
	valid   []*Element
}

// NewOrderBuilder constructs a builder for one scan; state is scoped to
// the single Build call
// singletons.
func NewOrderBuilder(cfg OrderBuilderConfig) *OrderBuilder {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &OrderBuilder{cfg: cfg}
}

type workUnit struct {
	parentPath string
	relPath    string
	loaders    []LoaderRef
	orderKey   string
}

// Build drains the work queue seeded from cfg.Roots (stamping each with
// a positional ordering key), following archive Class-Path manifest
// references depth-first, and returns the final list sorted by
// (ordering key, parent path, relative path).
func (b *OrderBuilder) Build(ctx context.Context) ([]*Element, error) {
	queue := make(chan workUnit, 256)

	atomic.AddInt64(&b.remaining, int64(len(b.cfg.Roots)))
	for i, r := range b.cfg.Roots {
		queue <- workUnit{
			parentPath: r.Path,
			loaders:    r.Loaders,
			orderKey:   zeroPad(i),
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Workers)

	for i := 0; i < b.cfg.Workers; i++ {
		worker := i
		g.Go(func() error {
			return b.drain(gctx, queue, worker)
		})
	}

	// Close the queue once the remaining-unit counter hits zero; a
	// dedicated watchdog goroutine polls this while workers wait on the
	// queue for more work or its closure.
	watchdogDone := make(chan struct{})
	go func() {
		defer close(watchdogDone)
		for atomic.LoadInt64(&b.remaining) > 0 {
			select {
			case <-ctx.Done():
				return
			default:
			}
		}
		close(queue)
	}()

	if err := g.Wait(); err != nil {
		return nil, err
	}
	<-watchdogDone

	if ctx.Err() != nil {
		return nil, errs.Cancelled
	}

	return b.sortedResult(), nil
}

func (b *OrderBuilder) drain(ctx context.Context, queue chan workUnit, workerIdx int) error {
	for {
		select {
		case <-ctx.Done():
			return errs.Cancelled
		case unit, ok := <-queue:
			if !ok {
				return nil
			}
			b.process(ctx, unit, queue)
			atomic.AddInt64(&b.remaining, -1)
		}
	}
}

func (b *OrderBuilder) process(ctx context.Context, unit workUnit, queue chan workUnit) {
	elt := NewElement(unit.parentPath, unit.relPath, unit.loaders, unit.orderKey)

	kind := elt.ResolveKind()
	if kind == KindNonexistent || kind == KindInvalid {
		if b.cfg.Logger != nil {
			b.cfg.Logger.Warnf("dropping classpath entry %s: kind=%v", elt.rawPath(), kind)
		}
		return
	}

	canon, err := elt.CanonicalPath()
	if err != nil {
		if b.cfg.Logger != nil {
			b.cfg.Logger.Warnf("dropping classpath entry %s: canonicalize failed: %v", elt.rawPath(), err)
		}
		return
	}

	if kind == KindArchive && b.cfg.BlacklistSystemJars && b.isSystemArchive(canon) {
		return
	}

	if !b.claim(canon, unit.orderKey, elt) {
		return // duplicate or already masked by an earlier occurrence
	}

	if kind == KindArchive {
		children := b.manifestClassPath(canon)
		for i, childRel := range children {
			atomic.AddInt64(&b.remaining, 1)
			select {
			case queue <- workUnit{
				parentPath: filepath.Dir(canon),
				relPath:    childRel,
				loaders:    unit.loaders,
				orderKey:   childKey(unit.orderKey, i),
			}:
			case <-ctx.Done():
				atomic.AddInt64(&b.remaining, -1)
				return
			}
		}
	}
}

// claim implements the earliest-occurrence compare-and-swap dedup: the
// element with the lexicographically smallest ordering key for a given
// canonical path wins; ties are duplicates.
func (b *OrderBuilder) claim(canonicalPath, orderKey string, elt *Element) bool {
	for {
		existingAny, loaded := b.earliest.LoadOrStore(canonicalPath, &occurrence{key: orderKey, elt: elt})
		if !loaded {
			b.addValid(elt)
			return true
		}
		existing := existingAny.(*occurrence)
		if orderKey == existing.key {
			return false // duplicate
		}
		if orderKey > existing.key {
			return false // already masked, a strictly earlier occurrence exists
		}
		// orderKey < existing.key: this occurrence is earlier; attempt
		// to replace it and retry the swap until it succeeds or another
		// racer wins with an even earlier key.
		if b.earliest.CompareAndSwap(canonicalPath, existingAny, &occurrence{key: orderKey, elt: elt}) {
			b.replaceValid(existing.elt, elt)
			return true
		}
	}
}

func (b *OrderBuilder) addValid(elt *Element) {
	b.validMu.Lock()
	defer b.validMu.Unlock()
	b.valid = append(b.valid, elt)
}

func (b *OrderBuilder) replaceValid(old, new *Element) {
	b.validMu.Lock()
	defer b.validMu.Unlock()
	for i, e := range b.valid {
		if e == old {
			b.valid[i] = new
			return
		}
	}
	b.valid = append(b.valid, new)
}

func (b *OrderBuilder) sortedResult() []*Element {
	b.validMu.Lock()
	defer b.validMu.Unlock()
	out := make([]*Element, len(b.valid))
	copy(out, b.valid)
	sort.Slice(out, func(i, j int) bool {
		a, c := out[i], out[j]
		if a.OrderKey != c.OrderKey {
			return a.OrderKey < c.OrderKey
		}
		if a.ParentPath != c.ParentPath {
			return a.ParentPath < c.ParentPath
		}
		return a.RelativePath < c.RelativePath
	})
	return out
}

// isSystemArchive heuristically flags platform archives: walk up to two
// parent directories looking for a neighboring rt.jar-style marker
// whose manifest self-identifies as a system archive, caching the
// containing directory in a shared "known system" set.
func (b *OrderBuilder) isSystemArchive(canonicalJarPath string) bool {
	dir := filepath.Dir(canonicalJarPath)
	for depth := 0; depth < 2; depth++ {
		if known, ok := b.knownSystemDirs.Load(dir); ok {
			return known.(bool)
		}
		marker := filepath.Join(dir, "rt.jar")
		if hasSystemManifestFlag(marker) {
			b.knownSystemDirs.Store(dir, true)
			return true
		}
		dir = filepath.Dir(dir)
	}
	return false
}

func hasSystemManifestFlag(jarPath string) bool {
	zr, err := zip.OpenReader(jarPath)
	if err != nil {
		return false
	}
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name != "META-INF/MANIFEST.MF" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return false
		}
		defer rc.Close()
		buf := make([]byte, f.UncompressedSize64)
		n, _ := rc.Read(buf)
		return strings.Contains(string(buf[:n]), "Implementation-Title: Java Runtime Environment") ||
			strings.Contains(string(buf[:n]), "Sealed: true")
	}
	return false
}

// manifestClassPath extracts the Class-Path manifest attribute from an
// archive, returning each reference resolved as a relative path against
// the archive's containing directory.
func (b *OrderBuilder) manifestClassPath(archivePath string) []string {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "META-INF/MANIFEST.MF" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil
		}
		defer rc.Close()
		buf := make([]byte, f.UncompressedSize64)
		n, _ := rc.Read(buf)
		return parseClassPathAttribute(string(buf[:n]))
	}
	return nil
}

func parseClassPathAttribute(manifest string) []string {
	lines := strings.Split(strings.ReplaceAll(manifest, "\r\n", "\n"), "\n")
	var value strings.Builder
	inAttr := false
	for _, line := range lines {
		if strings.HasPrefix(line, "Class-Path:") {
			inAttr = true
			value.WriteString(strings.TrimPrefix(line, "Class-Path:"))
			continue
		}
		if inAttr && strings.HasPrefix(line, " ") {
			value.WriteString(strings.TrimPrefix(line, " "))
			continue
		}
		inAttr = false
	}
	fields := strings.Fields(value.String())
	return fields
}

func zeroPad(n int) string {
	return fmt.Sprintf("%08d", n)
}

func childKey(parentKey string, childIdx int) string {
	return parentKey + "." + zeroPad(childIdx)
}
