/*
 * typegraph - a classpath/classfile scanner
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package classpath implements the Element Descriptor and the
// Classpath Order Builder: a lazy, memoize-on-first-attempt descriptor
// whose every accessor (resolved path, stat results, canonical path) is
// resolved at most once and cached for the rest of the scan.
package classpath

import (
	"os"
	"path/filepath"
	"sync"

	"typegraph/src/pathres"
)

// Kind classifies a resolved classpath element.
type Kind int

const (
	KindUnknown Kind = iota
	KindDirectory
	KindArchive
	KindNonexistent
	KindInvalid
)

// LoaderRef is an opaque handle to a host-runtime class loader, passed
// through untouched. The core never inspects it; adapters (see
// src/loaderadapter) are the only collaborators that know its shape.
type LoaderRef interface{}

// Element is the Element Descriptor: a lazy wrapper around one
// classpath entry. Every accessor memoizes success or failure on first
// attempt and never retries within the lifetime of one scan.
type Element struct {
	ParentPath   string
	RelativePath string
	Loaders      []LoaderRef

	// OrderKey is the dotted, zero-padded ordering key assigned by the
	// Classpath Order Builder. It is part of Element's identity.
	OrderKey string

	once struct {
		resolved    sync.Once
		resolvedErr error
		resolvedAbs string

		canon    sync.Once
		canonErr error
		canonAbs string

		stat    sync.Once
		statErr error
		isDir   bool
		isFile  bool
		exists  bool
	}

	kind Kind
	mu   sync.Mutex
}

// NewElement builds an Element from a raw root or manifest-referenced
// path string plus the ordering key the Order Builder has assigned it.
func NewElement(parentPath, relativePath string, loaders []LoaderRef, orderKey string) *Element {
	return &Element{
		ParentPath:   parentPath,
		RelativePath: relativePath,
		Loaders:      loaders,
		OrderKey:     orderKey,
	}
}

// rawPath is the path string this element names, before resolution:
// relative paths are joined against the parent path the way a
// classloader joins a Class-Path manifest entry against its jar's
// containing directory.
func (e *Element) rawPath() string {
	if e.RelativePath == "" {
		return e.ParentPath
	}
	if filepath.IsAbs(e.RelativePath) {
		return e.RelativePath
	}
	return filepath.Join(e.ParentPath, e.RelativePath)
}

// ResolvedPath returns the absolute path string, or pathres.NotLocal if
// the raw path names an unsupported scheme. Memoized after first call.
func (e *Element) ResolvedPath() (string, error) {
	e.once.resolved.Do(func() {
		norm := pathres.Normalize(e.rawPath())
		if norm == pathres.NotLocal && e.rawPath() != "" {
			e.once.resolvedErr = &notLocalError{path: e.rawPath()}
			return
		}
		abs, err := filepath.Abs(norm)
		if err != nil {
			e.once.resolvedErr = err
			return
		}
		e.once.resolvedAbs = abs
	})
	return e.once.resolvedAbs, e.once.resolvedErr
}

type notLocalError struct{ path string }

func (n *notLocalError) Error() string { return "not a local path: " + n.path }

func (e *Element) statOnce() {
	e.once.stat.Do(func() {
		abs, err := e.ResolvedPath()
		if err != nil {
			e.once.statErr = err
			return
		}
		info, err := os.Stat(abs)
		if err != nil {
			e.once.statErr = err
			e.once.exists = false
			return
		}
		e.once.exists = true
		e.once.isDir = info.IsDir()
		e.once.isFile = !info.IsDir()
	})
}

// Exists reports whether the resolved path names something on disk.
func (e *Element) Exists() bool {
	e.statOnce()
	return e.once.exists
}

// IsFile reports whether the resolved path is a regular file.
func (e *Element) IsFile() bool {
	e.statOnce()
	return e.once.isFile
}

// IsDirectory reports whether the resolved path is a directory.
func (e *Element) IsDirectory() bool {
	e.statOnce()
	return e.once.isDir
}

// CanonicalPath resolves symlinks and returns the canonical absolute
// path. A failure here marks the element INVALID but never aborts the
// scan.
func (e *Element) CanonicalPath() (string, error) {
	e.once.canon.Do(func() {
		abs, err := e.ResolvedPath()
		if err != nil {
			e.once.canonErr = err
			e.setKind(KindInvalid)
			return
		}
		real, err := filepath.EvalSymlinks(abs)
		if err != nil {
			e.once.canonErr = err
			e.setKind(KindInvalid)
			return
		}
		e.once.canonAbs = real
	})
	return e.once.canonAbs, e.once.canonErr
}

func (e *Element) setKind(k Kind) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.kind = k
}

// ResolveKind classifies the element, resolving and stat'ing it if that has
// not happened yet. It never errors: failures are folded into
// KindNonexistent/KindInvalid.
func (e *Element) ResolveKind() Kind {
	if _, err := e.CanonicalPath(); err != nil {
		return KindInvalid
	}
	if !e.Exists() {
		return KindNonexistent
	}
	if e.IsDirectory() {
		return KindDirectory
	}
	if e.IsFile() {
		canon, _ := e.CanonicalPath()
		if pathres.IsArchiveSuffix(canon) {
			return KindArchive
		}
		return KindInvalid
	}
	return KindInvalid
}

// Identity returns the (orderKey, parentPath, relativePath) triple used
// for equality and hashing.
func (e *Element) Identity() [3]string {
	return [3]string{e.OrderKey, e.ParentPath, e.RelativePath}
}
