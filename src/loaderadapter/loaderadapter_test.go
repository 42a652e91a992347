/*
 * typegraph - a classpath/classfile scanner
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package loaderadapter

import (
	"errors"
	"testing"

	"typegraph/src/classpath"
)

type fakeAdapter struct {
	name       string
	recognizes func(classpath.LoaderRef) bool
	roots      []classpath.Root
	err        error
}

func (f *fakeAdapter) Name() string                              { return f.name }
func (f *fakeAdapter) Recognizes(l classpath.LoaderRef) bool      { return f.recognizes(l) }
func (f *fakeAdapter) Roots(classpath.LoaderRef) ([]classpath.Root, error) {
	return f.roots, f.err
}

func TestRegistry_ResolveUsesFirstRecognizingAdapter(t *testing.T) {
	app := &fakeAdapter{
		name:       "app",
		recognizes: func(l classpath.LoaderRef) bool { return l == "app" },
		roots:      []classpath.Root{{Path: "/opt/app/classes"}},
	}
	system := &fakeAdapter{
		name:       "system",
		recognizes: func(l classpath.LoaderRef) bool { return l == "system" },
		roots:      []classpath.Root{{Path: "/opt/java/jmods"}},
	}
	reg := NewRegistry([]Adapter{app, system})

	roots := reg.Resolve([]classpath.LoaderRef{"system", "app"}, nil)

	if len(roots) != 2 {
		t.Fatalf("Resolve() returned %d roots, want 2: %+v", len(roots), roots)
	}
	if roots[0].Path != "/opt/java/jmods" || roots[1].Path != "/opt/app/classes" {
		t.Fatalf("Resolve() = %+v, want jmods then app classes in loader order", roots)
	}
}

func TestRegistry_ResolveSkipsUnrecognizedLoader(t *testing.T) {
	reg := NewRegistry([]Adapter{
		&fakeAdapter{name: "app", recognizes: func(classpath.LoaderRef) bool { return false }},
	})

	roots := reg.Resolve([]classpath.LoaderRef{"mystery-loader"}, nil)
	if roots != nil {
		t.Fatalf("Resolve() = %+v, want nil for an unrecognized loader", roots)
	}
}

func TestRegistry_ResolveSkipsAdapterThatErrors(t *testing.T) {
	failing := &fakeAdapter{
		name:       "broken",
		recognizes: func(classpath.LoaderRef) bool { return true },
		err:        errors.New("boom"),
	}
	ok := &fakeAdapter{
		name:       "ok",
		recognizes: func(classpath.LoaderRef) bool { return true },
		roots:      []classpath.Root{{Path: "/opt/good"}},
	}
	reg := NewRegistry([]Adapter{failing})
	roots := reg.Resolve([]classpath.LoaderRef{"x"}, nil)
	if roots != nil {
		t.Fatalf("Resolve() = %+v, want nil when the sole adapter errors", roots)
	}

	reg2 := NewRegistry([]Adapter{ok})
	roots2 := reg2.Resolve([]classpath.LoaderRef{"x"}, nil)
	if len(roots2) != 1 || roots2[0].Path != "/opt/good" {
		t.Fatalf("Resolve() = %+v, want the one good root", roots2)
	}
}
