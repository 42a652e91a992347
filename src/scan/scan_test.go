/*
 * typegraph - a classpath/classfile scanner
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"typegraph/src/scanctx"
)

// writeMinimalClassFile writes a syntactically minimal class file
// declaring thisName extending superName (both slash-separated internal
// names), with no fields, methods, or interfaces.
func writeMinimalClassFile(t *testing.T, path, thisName, superName string) {
	t.Helper()

	var buf []byte
	u2 := func(v uint16) { buf = append(buf, byte(v>>8), byte(v)) }
	u4 := func(v uint32) { buf = append(buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v)) }
	utf8 := func(s string) { buf = append(buf, 1); u2(uint16(len(s))); buf = append(buf, s...) }
	classRef := func(nameIdx uint16) { buf = append(buf, 7); u2(nameIdx) }

	u4(0xCAFEBABE)
	u2(0) // minor
	u2(52) // major

	u2(5) // constant_pool_count = count+1
	utf8(thisName)   // #1
	utf8(superName)  // #2
	classRef(1)      // #3 -> this
	classRef(2)      // #4 -> super

	u2(0x0021)                  // access_flags: ACC_PUBLIC | ACC_SUPER
	u2(3)                       // this_class
	u2(4)                       // super_class
	u2(0)                       // interfaces_count
	u2(0)                       // fields_count
	u2(0)                       // methods_count
	u2(0)                       // attributes_count

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRun_ClasspathOverrideProducesLinkedGraph(t *testing.T) {
	root := t.TempDir()
	writeMinimalClassFile(t, filepath.Join(root, "com", "example", "Foo.class"), "com/example/Foo", "java/lang/Object")
	writeMinimalClassFile(t, filepath.Join(root, "com", "example", "Bar.class"), "com/example/Bar", "com/example/Foo")

	sc, err := scanctx.New(scanctx.ScanConfig{
		ClasspathOverride: []string{root},
		ScanDirs:          true,
		Workers:           2,
	})
	if err != nil {
		t.Fatal(err)
	}

	result, err := Run(context.Background(), sc)
	if err != nil {
		t.Fatal(err)
	}

	foo := result.Graph.Lookup("com.example.Foo")
	if foo == nil {
		t.Fatal("graph has no node for com.example.Foo")
	}
	bar := result.Graph.Lookup("com.example.Bar")
	if bar == nil {
		t.Fatal("graph has no node for com.example.Bar")
	}
	if bar.Superclass != foo {
		t.Fatalf("Bar.Superclass = %v, want the Foo node", bar.Superclass)
	}
	if _, ok := foo.Subclasses["com.example.Bar"]; !ok {
		t.Fatal("Foo.Subclasses is missing the back-reference to Bar")
	}
	if len(result.Elements) != 1 {
		t.Fatalf("Elements = %+v, want exactly the one override root", result.Elements)
	}
}

func TestRun_EmptyDirectoryProducesEmptyGraph(t *testing.T) {
	root := t.TempDir()

	sc, err := scanctx.New(scanctx.ScanConfig{
		ClasspathOverride: []string{root},
		ScanDirs:          true,
		Workers:           1,
	})
	if err != nil {
		t.Fatal(err)
	}

	result, err := Run(context.Background(), sc)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Graph.All()) != 0 {
		t.Fatalf("All() = %+v, want an empty graph", result.Graph.All())
	}
}
