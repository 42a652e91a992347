/*
 * typegraph - a classpath/classfile scanner
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package graph implements the shared data model and the Graph Linker:
// it merges the parser's unlinked per-class records into a name-keyed
// graph of bidirectionally-linked ClassInfo nodes, generalizing a
// single classloader's method-area map into a queryable,
// cross-referenced type graph.
package graph

// Kind classifies a linked ClassInfo node.
type Kind int

const (
	StandardClass Kind = iota
	Interface
	Annotation
)

// AnnotationValueTag identifies the shape of a decoded annotation
// element value.
type AnnotationValueTag int

const (
	ValConst AnnotationValueTag = iota // B C D F I J S Z
	ValString
	ValEnum
	ValClass
	ValAnnotation
	ValArray
)

// AnnotationValue is the recursive, tag-driven decode result for one
// annotation element value.
type AnnotationValue struct {
	Tag         AnnotationValueTag
	Const       interface{}       // numeric/boolean constant, or string for ValString
	EnumClass   string            // ValEnum: enum class descriptor
	EnumConst   string            // ValEnum: constant name
	ClassDesc   string            // ValClass: raw type descriptor
	Annotation  *AnnotationRecord // ValAnnotation
	Array       []AnnotationValue // ValArray
}

// AnnotationRecord is a decoded annotation: its type name plus
// name->value element pairs.
type AnnotationRecord struct {
	TypeName string
	Elements map[string]AnnotationValue
}

// ParamAnnotation holds the annotations attached to one method
// parameter.
type ParamAnnotation struct {
	Annotations []AnnotationRecord
}

// MethodParam is one MethodParameters entry; Name is nil for an
// anonymous parameter (name index zero).
type MethodParam struct {
	Name        *string
	AccessFlags int
}

// FieldRecordUnlinked is one field as decoded by the parser, before
// linking resolves its annotation type names into graph edges.
type FieldRecordUnlinked struct {
	Name        string
	Descriptor  string // overwritten by Signature, if present
	AccessFlags int
	ConstValue  interface{} // decoded ConstantValue, if field was static-final-matched
	Annotations []AnnotationRecord
}

// MethodRecordUnlinked is one method as decoded by the parser.
type MethodRecordUnlinked struct {
	Name             string
	Descriptor       string // overwritten by Signature, if present
	AccessFlags      int
	Annotations      []AnnotationRecord
	ParamAnnotations []ParamAnnotation
	Params           []MethodParam
	AnnotationDefault *AnnotationValue // only set for annotation-type interface methods
}

// ContainmentPair is an (inner, outer) class-name pair emitted from an
// InnerClasses or EnclosingMethod attribute.
type ContainmentPair struct {
	Inner string
	Outer string
}

// ClassInfoUnlinked is the parser's output record: produced once per
// successfully parsed class file, consumed once by the linker, then
// dropped.
type ClassInfoUnlinked struct {
	ClassName           string
	AccessFlags         int
	IsInterface         bool
	IsAnnotation        bool
	SuperclassName      string // "" for the bootstrap root class, which is rejected earlier
	InterfaceNames      []string
	Fields              []FieldRecordUnlinked
	Methods             []MethodRecordUnlinked
	ClassAnnotations    []AnnotationRecord
	Containment         []ContainmentPair
	EnclosingMethodName string // "EnclosingClass.methodName", "EnclosingClass.<clinit>" for a class initializer, "" if none
	ReferencedTypeNames []string
	OwningElementPath   string
	Loaders             []interface{}
}
