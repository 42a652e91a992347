/*
 * typegraph - a classpath/classfile scanner
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package pathres implements the Path Resolver: pure,
// deterministic, allocation-light string functions over classpath and
// archive-entry paths. Nothing in this package performs I/O.
package pathres

import (
	"strings"
)

// NotLocal is returned by Normalize when the fragment names a scheme
// this module does not treat as a local filesystem path (e.g. "http://").
const NotLocal = ""

var archiveSuffixes = []string{".jar", ".zip", ".war", ".car"}

// Normalize reduces a raw classpath fragment to canonical form:
//   - strips a "file:" URL scheme prefix, if present
//   - for nested-archive notation "outer.jar!/inner/path", keeps only
//     the outer path (the part before "!")
//   - converts host path separators to forward slashes for the
//     *internal* relative-path portion
//
// Normalize is idempotent: Normalize(Normalize(x)) == Normalize(x).
// It returns NotLocal for schemes it does not recognize as local
// (e.g. "http://", "jrt:").
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	s := raw

	if idx := strings.Index(s, "!"); idx >= 0 {
		s = s[:idx]
	}

	switch {
	case strings.HasPrefix(s, "file:"):
		s = strings.TrimPrefix(s, "file:")
		s = strings.TrimPrefix(s, "//")
	case strings.Contains(s, "://"):
		scheme := s[:strings.Index(s, "://")]
		if scheme != "file" {
			return NotLocal
		}
	}

	s = toSlash(s)
	s = collapseSlashes(s)
	return s
}

// toSlash converts backslashes to forward slashes, preserving a leading
// Windows drive letter ("C:\foo" -> "C:/foo") rather than mangling it.
func toSlash(s string) string {
	return strings.ReplaceAll(s, `\`, "/")
}

// collapseSlashes removes doubled internal separators introduced by
// scheme-stripping, without touching a leading "//" (UNC-style root) or
// a drive-letter root.
func collapseSlashes(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	prevSlash := false
	for i, r := range s {
		if r == '/' {
			if prevSlash && i > 1 {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IsArchiveSuffix reports whether name ends in one of the recognized
// archive suffixes (.jar, .zip, .war, .car), case-insensitively.
func IsArchiveSuffix(name string) bool {
	lower := strings.ToLower(name)
	for _, suf := range archiveSuffixes {
		if strings.HasSuffix(lower, suf) {
			return true
		}
	}
	return false
}

// SplitPathSeparator splits a composite classpath string (e.g. the
// value of the CLASSPATH variable) on the host's path-list separator,
// taking care not to split on a colon that is part of a Windows drive
// letter ("C:\foo;D:\bar" splits as ["C:\foo", "D:\bar"] on the
// semicolon, never on the drive-letter colon).
func SplitPathSeparator(composite string, sep byte) []string {
	if composite == "" {
		return nil
	}
	if sep != ':' {
		parts := strings.Split(composite, string(sep))
		return nonEmpty(parts)
	}

	var parts []string
	start := 0
	for i := 0; i < len(composite); i++ {
		if composite[i] != ':' {
			continue
		}
		// A colon at i==1 with a single preceding letter is a Windows
		// drive letter ("C:"), not a separator, provided it is the
		// second character of the current segment.
		if i-start == 1 && isDriveLetter(composite[start]) {
			continue
		}
		parts = append(parts, composite[start:i])
		start = i + 1
	}
	parts = append(parts, composite[start:])
	return nonEmpty(parts)
}

func isDriveLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func nonEmpty(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// StripLeadingSlash removes exactly one leading "/" from an archive
// entry name, normalizing the handful of archive formats that emit
// entries that start with "/".
func StripLeadingSlash(entryName string) string {
	if strings.HasPrefix(entryName, "/") {
		return entryName[1:]
	}
	return entryName
}
