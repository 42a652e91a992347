/*
 * typegraph - a classpath/classfile scanner
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package graph

import "sort"

// FieldRecord is a linked field: each of its annotation type names is
// recorded as a ClassesWithFieldAnnotation back-reference on that
// annotation's node (see Link).
type FieldRecord = FieldRecordUnlinked

// MethodRecord is a linked method.
type MethodRecord = MethodRecordUnlinked

// ClassInfo is the linked graph node. Edges are non-owning: they
// reference other nodes by pointer within the same scan-scoped graph,
// populated bidirectionally by the Linker.
type ClassInfo struct {
	Name     string
	Kind     Kind
	External bool // true for a placeholder created for a referenced-but-unparsed class

	Superclass   *ClassInfo
	Subclasses   map[string]*ClassInfo
	SuperInterfaces map[string]*ClassInfo
	SubInterfaces   map[string]*ClassInfo

	Implements           map[string]*ClassInfo
	ImplementingClasses  map[string]*ClassInfo // back-reference, direct implementors only (ClassesImplementing adds inherited ones)

	Annotations   map[string]*ClassInfo // @A on this class
	AnnotatedBy   map[string]*ClassInfo // back-ref: classes carrying @self

	MetaAnnotations map[string]*ClassInfo // annotations on this annotation
	MetaAnnotatedBy map[string]*ClassInfo

	ClassesWithMethodAnnotation map[string]*ClassInfo // on an annotation node: classes using it on a method, keyed by class name
	ClassesWithFieldAnnotation  map[string]*ClassInfo

	InnerClasses map[string]*ClassInfo
	OuterClasses map[string]*ClassInfo

	Fields  []FieldRecord
	Methods []MethodRecord

	ReferencedTypeNames map[string]bool

	Loaders []interface{}
}

func newClassInfo(name string) *ClassInfo {
	return &ClassInfo{
		Name:                        name,
		Subclasses:                  map[string]*ClassInfo{},
		SuperInterfaces:             map[string]*ClassInfo{},
		SubInterfaces:               map[string]*ClassInfo{},
		Implements:                  map[string]*ClassInfo{},
		ImplementingClasses:         map[string]*ClassInfo{},
		Annotations:                 map[string]*ClassInfo{},
		AnnotatedBy:                 map[string]*ClassInfo{},
		MetaAnnotations:             map[string]*ClassInfo{},
		MetaAnnotatedBy:             map[string]*ClassInfo{},
		ClassesWithMethodAnnotation: map[string]*ClassInfo{},
		ClassesWithFieldAnnotation:  map[string]*ClassInfo{},
		InnerClasses:                map[string]*ClassInfo{},
		OuterClasses:                map[string]*ClassInfo{},
		ReferencedTypeNames:         map[string]bool{},
	}
}

// sortedNames returns the keys of a name->ClassInfo map in alphabetical
// order, giving every query a consistent, deterministic result order.
func sortedNames(m map[string]*ClassInfo) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// sortedClassInfos returns the values of a name->ClassInfo map sorted
// alphabetically by name.
func sortedClassInfos(m map[string]*ClassInfo) []*ClassInfo {
	names := sortedNames(m)
	out := make([]*ClassInfo, len(names))
	for i, n := range names {
		out[i] = m[n]
	}
	return out
}
