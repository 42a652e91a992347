/*
 * typegraph - a classpath/classfile scanner
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"typegraph/src/classpath"
)

func timeoutCh(t *testing.T) <-chan time.Time {
	t.Helper()
	return time.After(5 * time.Second)
}

func mustElement(t *testing.T, dir string) *classpath.Element {
	t.Helper()
	e := classpath.NewElement(dir, "", nil, "00000000")
	if kind := e.ResolveKind(); kind != classpath.KindDirectory {
		t.Fatalf("expected directory element, got kind=%v", kind)
	}
	return e
}

func TestScanner_WhitelistBlacklist(t *testing.T) {
	root := t.TempDir()
	mustMkClass(t, root, "com/x/Baz.class")
	mustMkClass(t, root, "com/x/internal/Bar.class")

	wl := NewWhitelistMatcher([]string{"com.x"}, []string{"com.x.internal"}, nil)
	s := New(Config{Whitelist: wl, ScanDirs: true})

	elt := mustElement(t, root)
	res, err := s.ScanElement(context.Background(), elt)
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, m := range res.ClassfileMatches {
		names = append(names, m.RelativePath)
	}
	if len(names) != 1 || names[0] != "com/x/Baz.class" {
		t.Fatalf("expected only com/x/Baz.class, got %v", names)
	}
}

func TestScanner_SymlinkCycle(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	mustMkClass(t, root, "sub/A.class")

	loopLink := filepath.Join(sub, "loop")
	if err := os.Symlink(root, loopLink); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	s := New(Config{Whitelist: NewWhitelistMatcher(nil, nil, nil), ScanDirs: true})
	elt := mustElement(t, root)

	done := make(chan error, 1)
	go func() {
		_, err := s.ScanElement(context.Background(), elt)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-timeoutCh(t):
		t.Fatal("scan did not terminate: likely infinite recursion through symlink cycle")
	}
}

func mustMkClass(t *testing.T, root, rel string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte{0xCA, 0xFE, 0xBA, 0xBE}, 0o644); err != nil {
		t.Fatal(err)
	}
}
