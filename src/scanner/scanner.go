/*
 * typegraph - a classpath/classfile scanner
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package scanner

import (
	"archive/zip"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"typegraph/src/classpath"
	"typegraph/src/errs"
	"typegraph/src/pathres"
	"typegraph/src/trace"
	"typegraph/src/workpool"
)

// Resource is a file discovered inside a classpath element. Open lazily
// yields its bytes; for directory-backed resources this opens the
// filesystem path, for archive-backed resources it opens the archive
// entry.
type Resource struct {
	Element      *classpath.Element
	RelativePath string
	LastModified time.Time
	Open         func() (io.ReadCloser, error)
}

// NamedMatch pairs a FileMatcher's identity with one resource it
// accepted, so the caller can tell which matcher a hit came from.
type NamedMatch struct {
	MatcherName string
	Resource    *Resource
}

// ElementScanResult holds one element's scan output before the
// cross-element masking pass.
type ElementScanResult struct {
	Element          *classpath.Element
	ClassfileMatches []*Resource
	FileMatches      []NamedMatch
	Timestamps       map[string]time.Time
}

// Config controls one Recursive Scanner run.
type Config struct {
	Whitelist    *WhitelistMatcher
	FileMatchers map[string]FileMatcher
	ScanDirs     bool
	ScanArchives bool
	Interrupter  *workpool.Interrupter
	Logger       *trace.Logger
}

// Scanner walks classpath elements and classifies what it finds against
// a whitelist/blacklist and a set of user-supplied file matchers.
type Scanner struct {
	cfg Config
}

// New builds a Scanner for one scan run.
func New(cfg Config) *Scanner {
	if cfg.Whitelist == nil {
		cfg.Whitelist = NewWhitelistMatcher(nil, nil, nil)
	}
	return &Scanner{cfg: cfg}
}

// ScanElement walks one classpath element's directory tree or archive
// entry list, applying the whitelist matcher, symlink-cycle guard, and
// any configured user matchers.
func (s *Scanner) ScanElement(ctx context.Context, elt *classpath.Element) (*ElementScanResult, error) {
	kind := elt.ResolveKind()
	result := &ElementScanResult{Element: elt, Timestamps: map[string]time.Time{}}

	switch kind {
	case classpath.KindDirectory:
		if !s.cfg.ScanDirs {
			return result, nil
		}
		root, err := elt.CanonicalPath()
		if err != nil {
			return nil, &errs.ResourceError{Path: elt.RelativePath, Err: err}
		}
		seen := map[string]bool{}
		if err := s.walkDir(ctx, elt, root, "", seen, result); err != nil {
			return nil, err
		}
	case classpath.KindArchive:
		if !s.cfg.ScanArchives {
			return result, nil
		}
		path, err := elt.CanonicalPath()
		if err != nil {
			return nil, &errs.ResourceError{Path: elt.RelativePath, Err: err}
		}
		if !s.cfg.Whitelist.ArchiveInScope(filepath.Base(path)) {
			return result, nil
		}
		if err := s.walkArchive(ctx, elt, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *Scanner) interrupted() bool {
	return s.cfg.Interrupter != nil && s.cfg.Interrupter.Tripped()
}

// walkDir recursively walks a directory tree, stopping at symlink
// cycles (canonical-path revisit) and blacklisted/out-of-whitelist
// subtrees, and recording lastModified for whitelisted and
// ancestor-of-whitelisted directories.
func (s *Scanner) walkDir(ctx context.Context, elt *classpath.Element, absDir, relDir string, seen map[string]bool, result *ElementScanResult) error {
	if s.interrupted() || ctx.Err() != nil {
		return errs.Cancelled
	}

	canon, err := filepath.EvalSymlinks(absDir)
	if err != nil {
		return &errs.ResourceError{Path: relDir, Err: err}
	}
	if seen[canon] {
		return nil // symlink cycle
	}
	seen[canon] = true

	matchPath := relDir
	if matchPath != "" {
		matchPath += "/"
	}
	status := s.cfg.Whitelist.Match(matchPath)

	if status == WithinBlacklistedPath || status == NotWithinWhitelistedPath {
		return nil
	}

	info, statErr := os.Stat(absDir)
	if statErr == nil && (status == WithinWhitelistedPath || status == AncestorOfWhitelistedPath) {
		result.Timestamps[relDir] = info.ModTime()
	}

	entries, err := os.ReadDir(absDir)
	if err != nil {
		return &errs.ResourceError{Path: relDir, Err: err}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if s.interrupted() || ctx.Err() != nil {
			return errs.Cancelled
		}
		childRel := joinRel(relDir, entry.Name())
		childAbs := filepath.Join(absDir, entry.Name())

		isDir := entry.IsDir()
		if !isDir && entry.Type()&fs.ModeSymlink != 0 {
			if info, err := os.Stat(childAbs); err == nil && info.IsDir() {
				isDir = true // symlinked directory: walkDir's canonical-path check stops cycles
			}
		}
		if isDir {
			if err := s.walkDir(ctx, elt, childAbs, childRel, seen, result); err != nil {
				return err
			}
			continue
		}

		if status == AncestorOfWhitelistedPath {
			continue // descend only, never accept files here
		}
		s.classifyFile(elt, entry, childRel, childAbs, matchPath, status, result)
	}
	return nil
}

func (s *Scanner) classifyFile(elt *classpath.Element, entry fs.DirEntry, relPath, absPath, packageDir string, status WhitelistStatus, result *ElementScanResult) {
	info, err := entry.Info()
	var modTime time.Time
	if err == nil {
		modTime = info.ModTime()
	}

	accept := status == WithinWhitelistedPath
	if !accept && status == AtWhitelistedClassPackage && strings.HasSuffix(relPath, ".class") {
		accept = s.cfg.Whitelist.AcceptsClass(packageDir, classSimpleName(relPath))
	}
	if !accept {
		return
	}

	res := &Resource{
		Element:      elt,
		RelativePath: relPath,
		LastModified: modTime,
		Open: func() (io.ReadCloser, error) {
			return os.Open(absPath)
		},
	}

	if strings.HasSuffix(relPath, ".class") {
		result.ClassfileMatches = append(result.ClassfileMatches, res)
	}
	for name, matcher := range s.cfg.FileMatchers {
		if matcher(relPath) {
			result.FileMatches = append(result.FileMatches, NamedMatch{MatcherName: name, Resource: res})
		}
	}
}

func joinRel(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

// walkArchive iterates an archive's central directory in stored order,
// caching each entry's parent directory's whitelist-match status for
// reuse across sibling entries.
func (s *Scanner) walkArchive(ctx context.Context, elt *classpath.Element, result *ElementScanResult) error {
	path, err := elt.CanonicalPath()
	if err != nil {
		return &errs.ResourceError{Path: elt.RelativePath, Err: err}
	}
	zr, err := zip.OpenReader(path)
	if err != nil {
		return &errs.ResourceError{Path: path, Err: err}
	}
	defer zr.Close()

	parentStatus := map[string]WhitelistStatus{}

	for _, f := range zr.File {
		if s.interrupted() || ctx.Err() != nil {
			return errs.Cancelled
		}
		name := pathres.StripLeadingSlash(f.Name)
		if strings.HasSuffix(name, "/") {
			continue // directory entry; no per-directory timestamp needed for archives
		}

		parent := parentDir(name)
		status, ok := parentStatus[parent]
		if !ok {
			matchPath := parent
			if matchPath != "" {
				matchPath += "/"
			}
			status = s.cfg.Whitelist.Match(matchPath)
			parentStatus[parent] = status
		}

		if status == WithinBlacklistedPath || status == NotWithinWhitelistedPath || status == AncestorOfWhitelistedPath {
			continue
		}

		accept := status == WithinWhitelistedPath
		if !accept && status == AtWhitelistedClassPackage && strings.HasSuffix(name, ".class") {
			matchPath := parent
			if matchPath != "" {
				matchPath += "/"
			}
			accept = s.cfg.Whitelist.AcceptsClass(matchPath, classSimpleName(name))
		}
		if !accept {
			continue
		}

		entry := f
		res := &Resource{
			Element:      elt,
			RelativePath: name,
			LastModified: entry.Modified,
			Open: func() (io.ReadCloser, error) {
				return entry.Open()
			},
		}
		if strings.HasSuffix(name, ".class") {
			result.ClassfileMatches = append(result.ClassfileMatches, res)
		}
		for matcherName, matcher := range s.cfg.FileMatchers {
			if matcher(name) {
				result.FileMatches = append(result.FileMatches, NamedMatch{MatcherName: matcherName, Resource: res})
			}
		}
	}
	return nil
}

func parentDir(relPath string) string {
	idx := strings.LastIndex(relPath, "/")
	if idx < 0 {
		return ""
	}
	return relPath[:idx]
}

// classSimpleName extracts a class file's simple name from its
// ".class"-suffixed relative path, dropping any directory components.
func classSimpleName(relPath string) string {
	name := strings.TrimSuffix(relPath, ".class")
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}

// MaskAcrossElements implements the cross-element masking pass:
// iterating elements in their final classpath order, the first element
// to produce a given relative path keeps it; every later occurrence is
// dropped.
func MaskAcrossElements(results []*ElementScanResult) {
	owner := map[string]*ElementScanResult{}

	for _, r := range results {
		r.ClassfileMatches = filterSeen(r, r.ClassfileMatches, owner)
		var kept []NamedMatch
		for _, m := range r.FileMatches {
			key := m.Resource.RelativePath
			if o, ok := owner[key]; ok && o != r {
				continue
			}
			owner[key] = r
			kept = append(kept, m)
		}
		r.FileMatches = kept
	}
}

func filterSeen(r *ElementScanResult, resources []*Resource, owner map[string]*ElementScanResult) []*Resource {
	var kept []*Resource
	for _, res := range resources {
		if o, ok := owner[res.RelativePath]; ok && o != r {
			continue
		}
		owner[res.RelativePath] = r
		kept = append(kept, res)
	}
	return kept
}
