/*
 * typegraph - a classpath/classfile scanner
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package scanner

import "testing"

func TestWhitelistMatcher_ClassSpecificEntryReachesAtWhitelistedClassPackage(t *testing.T) {
	m := NewWhitelistMatcher([]string{"com.x.Foo"}, nil, nil)

	if status := m.Match("com/x/"); status != AtWhitelistedClassPackage {
		t.Fatalf("Match(%q) = %v, want AtWhitelistedClassPackage", "com/x/", status)
	}
	if !m.AcceptsClass("com/x/", "Foo") {
		t.Fatal("AcceptsClass(com/x/, Foo) = false, want true")
	}
	if m.AcceptsClass("com/x/", "Bar") {
		t.Fatal("AcceptsClass(com/x/, Bar) = true, want false for an unlisted class")
	}
}

func TestWhitelistMatcher_PackagePrefixEntryMatchesExactly(t *testing.T) {
	m := NewWhitelistMatcher([]string{"com.x"}, nil, nil)

	if status := m.Match("com/x/"); status != WithinWhitelistedPath {
		t.Fatalf("Match(%q) = %v, want WithinWhitelistedPath for a plain package prefix entry", "com/x/", status)
	}
}

func TestWhitelistMatcher_AncestorOfClassSpecificEntry(t *testing.T) {
	m := NewWhitelistMatcher([]string{"com.x.Foo"}, nil, nil)

	if status := m.Match("com/"); status != AncestorOfWhitelistedPath {
		t.Fatalf("Match(%q) = %v, want AncestorOfWhitelistedPath", "com/", status)
	}
}

func TestWhitelistMatcher_ArchiveInScope(t *testing.T) {
	m := NewWhitelistMatcher(nil, nil, []string{"app-*.jar"})

	if !m.ArchiveInScope("app-core.jar") {
		t.Fatal("ArchiveInScope(app-core.jar) = false, want true")
	}
	if m.ArchiveInScope("lib-core.jar") {
		t.Fatal("ArchiveInScope(lib-core.jar) = true, want false")
	}
}

func TestWhitelistMatcher_ArchiveInScopeDefaultsToEverything(t *testing.T) {
	m := NewWhitelistMatcher(nil, nil, nil)

	if !m.ArchiveInScope("anything.jar") {
		t.Fatal("ArchiveInScope with no patterns configured should accept every archive")
	}
}
