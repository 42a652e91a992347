/*
 * typegraph - a classpath/classfile scanner
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package graph

import (
	"typegraph/src/errs"
)

// Graph is the linked `name -> ClassInfo` map. It is single-threaded:
// linking runs as the third, barrier phase of the pipeline, so no
// internal locking is needed.
type Graph struct {
	nodes map[string]*ClassInfo
}

// NewGraph builds an empty Graph, scoped to one scan.
func NewGraph() *Graph {
	return &Graph{nodes: map[string]*ClassInfo{}}
}

// Lookup returns the node named name, or nil if no such node exists.
func (g *Graph) Lookup(name string) *ClassInfo {
	return g.nodes[name]
}

// All returns every node in the graph, sorted alphabetically by name.
func (g *Graph) All() []*ClassInfo {
	return sortedClassInfos(g.nodes)
}

func (g *Graph) getOrCreate(name string) *ClassInfo {
	if n, ok := g.nodes[name]; ok {
		return n
	}
	n := newClassInfo(name)
	n.External = true // cleared once a real unlinked record for this name is linked
	g.nodes[name] = n
	return n
}

// Link merges one unlinked record into the graph. A second record for
// a name already linked with a
// different Kind is discarded as a masked duplicate (the scanner's
// cross-element masking pass should have already prevented this; the
// linker tolerates it defensively rather than treating it as fatal).
func (g *Graph) Link(u *ClassInfoUnlinked) error {
	node := g.getOrCreate(u.ClassName)

	kind := StandardClass
	if u.IsAnnotation {
		kind = Annotation
	} else if u.IsInterface {
		kind = Interface
	}

	if !node.External && node.Kind != kind {
		return nil // masked duplicate: first write already populated this node
	}
	node.External = false
	node.Kind = kind
	node.Fields = append(node.Fields, u.Fields...)
	node.Methods = append(node.Methods, u.Methods...)
	node.Loaders = u.Loaders
	for _, n := range u.ReferencedTypeNames {
		node.ReferencedTypeNames[n] = true
	}

	if u.SuperclassName != "" {
		g.linkSuperclass(node, u.SuperclassName)
	}
	for _, iface := range u.InterfaceNames {
		g.linkInterface(node, iface, u.IsInterface)
	}
	for _, ann := range u.ClassAnnotations {
		g.linkClassAnnotation(node, ann.TypeName)
	}
	for _, f := range u.Fields {
		for _, ann := range f.Annotations {
			g.linkFieldAnnotation(node, ann.TypeName)
		}
	}
	for _, m := range u.Methods {
		for _, ann := range m.Annotations {
			g.linkMethodAnnotation(node, ann.TypeName)
		}
	}
	for _, pair := range u.Containment {
		g.linkContainment(pair.Inner, pair.Outer)
	}

	return nil
}

func (g *Graph) linkSuperclass(node *ClassInfo, superName string) {
	super := g.getOrCreate(superName)
	node.Superclass = super
	super.Subclasses[node.Name] = node
}

func (g *Graph) linkInterface(node *ClassInfo, ifaceName string, selfIsInterface bool) {
	iface := g.getOrCreate(ifaceName)
	if selfIsInterface {
		node.SuperInterfaces[ifaceName] = iface
		iface.SubInterfaces[node.Name] = node
		return
	}
	node.Implements[ifaceName] = iface
	iface.ImplementingClasses[node.Name] = node
}

func (g *Graph) linkClassAnnotation(node *ClassInfo, annName string) {
	ann := g.getOrCreate(annName)
	node.Annotations[annName] = ann
	ann.AnnotatedBy[node.Name] = node
}

func (g *Graph) linkFieldAnnotation(node *ClassInfo, annName string) {
	ann := g.getOrCreate(annName)
	ann.ClassesWithFieldAnnotation[node.Name] = node
}

func (g *Graph) linkMethodAnnotation(node *ClassInfo, annName string) {
	ann := g.getOrCreate(annName)
	ann.ClassesWithMethodAnnotation[node.Name] = node
}

func (g *Graph) linkContainment(innerName, outerName string) {
	inner := g.getOrCreate(innerName)
	outer := g.getOrCreate(outerName)
	inner.OuterClasses[outerName] = outer
	outer.InnerClasses[innerName] = inner
}

// LinkMetaAnnotations resolves meta-annotation edges: for every node
// that is itself an Annotation kind, its own ClassAnnotations edges
// (already populated by Link, since an annotation type can itself carry
// class-level annotations) are additionally recorded as meta-annotation
// edges. Tolerates self-referential cycles (an annotation annotated
// with itself) because edges are stored in idempotent maps.
func (g *Graph) LinkMetaAnnotations() {
	for _, node := range g.nodes {
		if node.Kind != Annotation {
			continue
		}
		for metaName, meta := range node.Annotations {
			node.MetaAnnotations[metaName] = meta
			meta.MetaAnnotatedBy[node.Name] = node
		}
	}
}

// LinkAll links every unlinked record, then resolves meta-annotation
// edges, returning the finished Graph.
func LinkAll(records []*ClassInfoUnlinked) (*Graph, error) {
	g := NewGraph()
	for _, r := range records {
		if r == nil {
			return nil, &errs.Invariant{Msg: "nil unlinked record reached the linker"}
		}
		if err := g.Link(r); err != nil {
			return nil, err
		}
	}
	g.LinkMetaAnnotations()
	return g, nil
}
