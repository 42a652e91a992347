/*
 * typegraph - a classpath/classfile scanner
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package scanner implements the Recursive Scanner: it walks each
// ordered classpath element (directory tree or archive entry list),
// classifies paths against whitelist/blacklist rules, and emits
// classfile and generic-file resource records. Glob matching is built
// on github.com/bmatcuk/doublestar/v4, generalized from a single
// include/exclude boolean into a five-way WhitelistStatus classifier.
package scanner

import (
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

// WhitelistStatus is the outcome of matching a relative path against
// the scan's whitelist/blacklist configuration.
type WhitelistStatus int

const (
	NotWithinWhitelistedPath WhitelistStatus = iota
	WithinWhitelistedPath
	AtWhitelistedClassPackage
	AncestorOfWhitelistedPath
	WithinBlacklistedPath
)

// FileMatcher is a user-supplied predicate over relative paths.
type FileMatcher func(relativePath string) bool

// WhitelistMatcher implements the whitelist matcher the scanner uses to
// prune directory/archive traversal, built from dotted package-style
// prefixes the way classpath scan configurations conventionally express
// them ("com.x", "com.x.internal"), plus individually whitelisted
// classes ("com.x.Foo") and whitelisted archive name globs.
type WhitelistMatcher struct {
	whitelistDirs    []string            // "com/x/"
	whitelistClasses map[string][]string // "com/x/" -> ["Foo", "Bar"]
	blacklistDirs    []string
	archivePatterns  []string // doublestar glob patterns over archive base names; empty means all archives are in scope
}

// NewWhitelistMatcher builds a matcher from dotted package/class
// prefixes and a set of archive base-name glob patterns. A whitelist
// entry whose last dotted segment starts with an uppercase letter is
// treated as a single whitelisted class at its package's
// AtWhitelistedClassPackage boundary; every other entry is a package
// prefix.
func NewWhitelistMatcher(whitelist, blacklist, archivePatterns []string) *WhitelistMatcher {
	m := &WhitelistMatcher{whitelistClasses: map[string][]string{}}
	for _, w := range whitelist {
		if pkg, cls, ok := splitClassEntry(w); ok {
			m.whitelistClasses[pkg] = append(m.whitelistClasses[pkg], cls)
			continue
		}
		m.whitelistDirs = append(m.whitelistDirs, dottedToDirPrefix(w))
	}
	for _, b := range blacklist {
		m.blacklistDirs = append(m.blacklistDirs, dottedToDirPrefix(b))
	}
	m.archivePatterns = archivePatterns
	return m
}

// splitClassEntry reports whether dotted names a single class rather
// than a package: its last segment must be non-empty and start with an
// uppercase ASCII letter. On success it returns the owning package's
// directory prefix and the class's simple name.
func splitClassEntry(dotted string) (pkgDir, simpleName string, ok bool) {
	idx := strings.LastIndex(dotted, ".")
	last := dotted
	if idx >= 0 {
		last = dotted[idx+1:]
	}
	if last == "" || last[0] < 'A' || last[0] > 'Z' {
		return "", "", false
	}
	if idx < 0 {
		return "", last, true
	}
	return dottedToDirPrefix(dotted[:idx]), last, true
}

func dottedToDirPrefix(dotted string) string {
	return strings.ReplaceAll(dotted, ".", "/") + "/"
}

// Match classifies relativePath (which must end in "/" for directory
// evaluation, or name a file otherwise).
func (m *WhitelistMatcher) Match(relativePath string) WhitelistStatus {
	for _, b := range m.blacklistDirs {
		if withinPrefix(relativePath, b) {
			return WithinBlacklistedPath
		}
	}

	if len(m.whitelistDirs) == 0 && len(m.whitelistClasses) == 0 {
		return WithinWhitelistedPath // no whitelist configured: everything is in scope
	}

	for _, w := range m.whitelistDirs {
		if withinPrefix(relativePath, w) {
			return WithinWhitelistedPath
		}
		if withinPrefix(w, relativePath) {
			return AncestorOfWhitelistedPath
		}
	}

	for pkg := range m.whitelistClasses {
		if relativePath == pkg {
			return AtWhitelistedClassPackage
		}
		if withinPrefix(pkg, relativePath) {
			return AncestorOfWhitelistedPath
		}
	}

	return NotWithinWhitelistedPath
}

// AcceptsClass reports whether simpleName was individually whitelisted
// within packageDir (the dotted-to-slash package directory, trailing
// "/" included, that Match classified as AtWhitelistedClassPackage).
func (m *WhitelistMatcher) AcceptsClass(packageDir, simpleName string) bool {
	for _, cls := range m.whitelistClasses[packageDir] {
		if cls == simpleName {
			return true
		}
	}
	return false
}

// ArchiveInScope reports whether an archive named baseName (no
// directory components) is in scope for scanning, matching baseName
// against every configured glob pattern. No patterns configured means
// every archive is in scope.
func (m *WhitelistMatcher) ArchiveInScope(baseName string) bool {
	if len(m.archivePatterns) == 0 {
		return true
	}
	for _, pattern := range m.archivePatterns {
		if MatchGlob(pattern, baseName) {
			return true
		}
	}
	return false
}

func withinPrefix(path, prefix string) bool {
	return strings.HasPrefix(path, prefix)
}

// MatchGlob reports whether relativePath matches a doublestar glob
// pattern, used for user file matchers and for whitelisted-archive-name
// filtering.
func MatchGlob(pattern, relativePath string) bool {
	ok, err := doublestar.Match(pattern, relativePath)
	return err == nil && ok
}
