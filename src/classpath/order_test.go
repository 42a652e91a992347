/*
 * typegraph - a classpath/classfile scanner
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classpath

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeJarWithClassPath(t *testing.T, dir, name, classPathAttr string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	if classPathAttr != "" {
		w, err := zw.Create("META-INF/MANIFEST.MF")
		if err != nil {
			t.Fatal(err)
		}
		_, _ = w.Write([]byte("Manifest-Version: 1.0\nClass-Path: " + classPathAttr + "\n"))
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOrderBuilder_ManifestChildOrdersAfterParentBeforeLaterRoot(t *testing.T) {
	dir := t.TempDir()
	aJar := writeJarWithClassPath(t, dir, "a.jar", "c.jar")
	cJar := writeJarWithClassPath(t, dir, "c.jar", "")
	bJar := writeJarWithClassPath(t, dir, "b.jar", "")

	builder := NewOrderBuilder(OrderBuilderConfig{
		Roots: []Root{
			{Path: aJar},
			{Path: cJar},
			{Path: bJar},
		},
		Workers: 4,
	})

	result, err := builder.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(result) != 3 {
		t.Fatalf("expected 3 elements, got %d: %+v", len(result), result)
	}

	var names []string
	for _, e := range result {
		p, _ := e.CanonicalPath()
		names = append(names, filepath.Base(p))
	}

	want := []string{"a.jar", "c.jar", "b.jar"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("order mismatch: got %v want %v", names, want)
		}
	}
}

func TestOrderBuilder_DedupesByCanonicalPath(t *testing.T) {
	dir := t.TempDir()
	jar := writeJarWithClassPath(t, dir, "x.jar", "")

	builder := NewOrderBuilder(OrderBuilderConfig{
		Roots: []Root{
			{Path: jar},
			{Path: jar},
		},
		Workers: 2,
	})

	result, err := builder.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(result) != 1 {
		t.Fatalf("expected 1 deduped element, got %d", len(result))
	}
}

func TestParseClassPathAttribute(t *testing.T) {
	manifest := "Manifest-Version: 1.0\nClass-Path: a.jar b.jar c.jar\nCreated-By: test\n"
	got := parseClassPathAttribute(manifest)
	want := []string{"a.jar", "b.jar", "c.jar"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}
