/*
 * typegraph - a classpath/classfile scanner
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package graph

import "testing"

func rec(name, super string, ifaces []string, isInterface, isAnnotation bool, classAnns ...string) *ClassInfoUnlinked {
	u := &ClassInfoUnlinked{
		ClassName:      name,
		SuperclassName: super,
		InterfaceNames: ifaces,
		IsInterface:    isInterface,
		IsAnnotation:   isAnnotation,
	}
	for _, a := range classAnns {
		u.ClassAnnotations = append(u.ClassAnnotations, AnnotationRecord{TypeName: a})
	}
	return u
}

func TestLink_BidirectionalSuperclass(t *testing.T) {
	g := NewGraph()
	if err := g.Link(rec("java.lang.Object", "", nil, false, false)); err != nil {
		t.Fatal(err)
	}
	if err := g.Link(rec("com.x.Base", "java.lang.Object", nil, false, false)); err != nil {
		t.Fatal(err)
	}
	if err := g.Link(rec("com.x.Derived", "com.x.Base", nil, false, false)); err != nil {
		t.Fatal(err)
	}

	base := g.Lookup("com.x.Base")
	derived := g.Lookup("com.x.Derived")
	if base.Superclass.Name != "java.lang.Object" {
		t.Fatalf("Base.Superclass = %v, want java.lang.Object", base.Superclass)
	}
	if _, ok := base.Subclasses["com.x.Derived"]; !ok {
		t.Fatal("Base.Subclasses missing Derived")
	}
	if derived.Superclass.Name != "com.x.Base" {
		t.Fatalf("Derived.Superclass = %v, want com.x.Base", derived.Superclass)
	}

	subs := g.SubclassesOf("java.lang.Object")
	if len(subs) != 2 || subs[0] != "com.x.Base" || subs[1] != "com.x.Derived" {
		t.Fatalf("SubclassesOf(Object) = %v, want [com.x.Base com.x.Derived]", subs)
	}
}

func TestLink_ExternalPlaceholderClearedOnRealRecord(t *testing.T) {
	g := NewGraph()
	if err := g.Link(rec("com.x.Derived", "com.x.Base", nil, false, false)); err != nil {
		t.Fatal(err)
	}
	base := g.Lookup("com.x.Base")
	if base == nil || !base.External {
		t.Fatalf("expected an External placeholder for com.x.Base, got %+v", base)
	}

	if err := g.Link(rec("com.x.Base", "java.lang.Object", nil, false, false)); err != nil {
		t.Fatal(err)
	}
	if base.External {
		t.Fatal("expected External to clear once a real record for com.x.Base was linked")
	}
	if base.Superclass.Name != "java.lang.Object" {
		t.Fatalf("Base.Superclass = %v, want java.lang.Object", base.Superclass)
	}
}

func TestLink_ImplementsAndImplementingClassesBackref(t *testing.T) {
	g := NewGraph()
	if err := g.Link(rec("com.x.Runnable", "", nil, true, false)); err != nil {
		t.Fatal(err)
	}
	if err := g.Link(rec("com.x.Task", "java.lang.Object", []string{"com.x.Runnable"}, false, false)); err != nil {
		t.Fatal(err)
	}

	runnable := g.Lookup("com.x.Runnable")
	task := g.Lookup("com.x.Task")
	if _, ok := task.Implements["com.x.Runnable"]; !ok {
		t.Fatal("Task.Implements missing Runnable")
	}
	if _, ok := runnable.ImplementingClasses["com.x.Task"]; !ok {
		t.Fatal("Runnable.ImplementingClasses missing Task")
	}

	impls := g.ClassesImplementing("com.x.Runnable")
	if len(impls) != 1 || impls[0] != "com.x.Task" {
		t.Fatalf("ClassesImplementing(Runnable) = %v, want [com.x.Task]", impls)
	}
}

func TestLinkMetaAnnotations_SelfCycleIncludesStart(t *testing.T) {
	g := NewGraph()
	// @Meta is itself annotated with @Meta: a self meta-annotation cycle.
	if err := g.Link(rec("com.x.Meta", "", nil, false, true, "com.x.Meta")); err != nil {
		t.Fatal(err)
	}
	g.LinkMetaAnnotations()

	result := g.AnnotationsWithMetaAnnotation("com.x.Meta")
	if len(result) != 1 || result[0] != "com.x.Meta" {
		t.Fatalf("AnnotationsWithMetaAnnotation(Meta) = %v, want [com.x.Meta]", result)
	}
}

func TestLinkAll_RejectsNilRecord(t *testing.T) {
	_, err := LinkAll([]*ClassInfoUnlinked{nil})
	if err == nil {
		t.Fatal("expected an error for a nil unlinked record")
	}
}

func TestClassesWithAnnotation_TransitiveViaMetaAnnotation(t *testing.T) {
	g := NewGraph()
	if err := g.Link(rec("com.x.Meta", "", nil, false, true)); err != nil {
		t.Fatal(err)
	}
	if err := g.Link(rec("com.x.Marker", "", nil, false, true, "com.x.Meta")); err != nil {
		t.Fatal(err)
	}
	if err := g.Link(rec("com.x.Widget", "java.lang.Object", nil, false, false, "com.x.Marker")); err != nil {
		t.Fatal(err)
	}
	g.LinkMetaAnnotations()

	classes := g.ClassesWithAnnotation("com.x.Meta")
	if len(classes) != 2 || classes[0] != "com.x.Marker" || classes[1] != "com.x.Widget" {
		t.Fatalf("ClassesWithAnnotation(Meta) = %v, want [com.x.Marker com.x.Widget] (Marker carries @Meta directly, Widget via @Marker)", classes)
	}

	onWidget := g.AnnotationsOnClass("com.x.Widget")
	if len(onWidget) != 2 || onWidget[0] != "com.x.Marker" || onWidget[1] != "com.x.Meta" {
		t.Fatalf("AnnotationsOnClass(Widget) = %v, want [com.x.Marker com.x.Meta]", onWidget)
	}
}
