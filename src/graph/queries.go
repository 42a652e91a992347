/*
 * typegraph - a classpath/classfile scanner
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package graph

// SubclassesOf returns the transitive closure of name's subclasses,
// sorted alphabetically.
func (g *Graph) SubclassesOf(name string) []string {
	root := g.nodes[name]
	if root == nil {
		return nil
	}
	return sortedNames(closure(root, func(n *ClassInfo) map[string]*ClassInfo { return n.Subclasses }))
}

// SuperclassesOf returns every ancestor class of name, sorted
// alphabetically, walking the superclass chain to its root.
func (g *Graph) SuperclassesOf(name string) []string {
	root := g.nodes[name]
	if root == nil {
		return nil
	}
	seen := map[string]*ClassInfo{}
	for cur := root.Superclass; cur != nil; cur = cur.Superclass {
		if _, ok := seen[cur.Name]; ok {
			break
		}
		seen[cur.Name] = cur
	}
	return sortedNames(seen)
}

// ClassesImplementing returns every class implementing interface name,
// including subclasses of direct implementors.
func (g *Graph) ClassesImplementing(name string) []string {
	iface := g.nodes[name]
	if iface == nil {
		return nil
	}
	result := map[string]*ClassInfo{}
	for _, direct := range iface.ImplementingClasses {
		result[direct.Name] = direct
		for _, sub := range closure(direct, func(n *ClassInfo) map[string]*ClassInfo { return n.Subclasses }) {
			result[sub.Name] = sub
		}
	}
	for _, subIface := range closure(iface, func(n *ClassInfo) map[string]*ClassInfo { return n.SubInterfaces }) {
		for _, direct := range subIface.ImplementingClasses {
			result[direct.Name] = direct
			for _, sub := range closure(direct, func(n *ClassInfo) map[string]*ClassInfo { return n.Subclasses }) {
				result[sub.Name] = sub
			}
		}
	}
	return sortedNames(result)
}

// ClassesWithAnnotation returns every class directly or meta-annotated
// with annotation name.
func (g *Graph) ClassesWithAnnotation(name string) []string {
	ann := g.nodes[name]
	if ann == nil {
		return nil
	}
	result := map[string]*ClassInfo{}
	for _, c := range ann.AnnotatedBy {
		result[c.Name] = c
	}
	for _, metaUser := range closure(ann, func(n *ClassInfo) map[string]*ClassInfo { return n.MetaAnnotatedBy }) {
		for _, c := range metaUser.AnnotatedBy {
			result[c.Name] = c
		}
	}
	return sortedNames(result)
}

// AnnotationsOnClass returns every annotation directly or transitively
// (via meta-annotation) applied to class name.
func (g *Graph) AnnotationsOnClass(name string) []string {
	node := g.nodes[name]
	if node == nil {
		return nil
	}
	result := map[string]*ClassInfo{}
	frontier := make([]*ClassInfo, 0, len(node.Annotations))
	for _, a := range node.Annotations {
		result[a.Name] = a
		frontier = append(frontier, a)
	}
	for len(frontier) > 0 {
		var next []*ClassInfo
		for _, a := range frontier {
			for _, meta := range a.MetaAnnotations {
				if _, seen := result[meta.Name]; seen {
					continue
				}
				result[meta.Name] = meta
				next = append(next, meta)
			}
		}
		frontier = next
	}
	return sortedNames(result)
}

// AnnotationsWithMetaAnnotation returns every annotation type that
// carries meta-annotation name, directly or transitively — including
// name itself when it is self-meta-annotated.
func (g *Graph) AnnotationsWithMetaAnnotation(name string) []string {
	ann := g.nodes[name]
	if ann == nil {
		return nil
	}
	return sortedNames(closure(ann, func(n *ClassInfo) map[string]*ClassInfo { return n.MetaAnnotatedBy }))
}

// closure performs a cycle-tolerant BFS over edges(node), returning
// every node reached (not including the start node itself unless a
// cycle leads back to it).
func closure(start *ClassInfo, edges func(*ClassInfo) map[string]*ClassInfo) map[string]*ClassInfo {
	visited := map[string]*ClassInfo{}
	queue := []*ClassInfo{start}
	seenStart := map[string]bool{start.Name: true}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range edges(cur) {
			if seenStart[next.Name] {
				if next.Name != start.Name {
					continue
				}
				// start reachable via a cycle: record it explicitly.
				visited[next.Name] = next
				continue
			}
			seenStart[next.Name] = true
			visited[next.Name] = next
			queue = append(queue, next)
		}
	}
	return visited
}
