/*
 * typegraph - a classpath/classfile scanner
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package loaderadapter implements the class-loader adapter pattern: a
// small closed set of capability-checking functions standing in for
// duck-typed reflection over host-runtime loader objects. Registration
// is explicit at scan start, never global.
package loaderadapter

import (
	"typegraph/src/classpath"
	"typegraph/src/trace"
)

// Adapter recognizes one flavor of host-supplied class loader and, if
// it recognizes loader, enumerates the classpath roots it contributes.
// Recognizes must be cheap and side-effect free; Roots may do I/O.
type Adapter interface {
	Name() string
	Recognizes(loader classpath.LoaderRef) bool
	Roots(loader classpath.LoaderRef) ([]classpath.Root, error)
}

// Registry holds the adapters registered for one scan, tried in
// registration order.
type Registry struct {
	adapters []Adapter
}

// NewRegistry builds a Registry from the adapters supplied at scan
// start (the core ships no adapters of its own: recognizing a concrete
// host loader type is the caller's concern).
func NewRegistry(adapters []Adapter) *Registry {
	return &Registry{adapters: adapters}
}

// Resolve enumerates the classpath roots contributed by loaders,
// consulting the registered adapters in order and using the first one
// that recognizes each loader. A loader no adapter recognizes is
// skipped and logged; it never aborts the scan, the same local-and-
// logged treatment given to any other discovery problem that isn't a
// classpath entry itself.
func (r *Registry) Resolve(loaders []classpath.LoaderRef, logger *trace.Logger) []classpath.Root {
	var roots []classpath.Root
	for _, loader := range loaders {
		adapter := r.find(loader)
		if adapter == nil {
			if logger != nil {
				logger.Warnf("no registered adapter recognizes class loader %v", loader)
			}
			continue
		}
		contributed, err := adapter.Roots(loader)
		if err != nil {
			if logger != nil {
				logger.Warnf("adapter %s failed to enumerate roots for %v: %v", adapter.Name(), loader, err)
			}
			continue
		}
		roots = append(roots, contributed...)
	}
	return roots
}

func (r *Registry) find(loader classpath.LoaderRef) Adapter {
	for _, a := range r.adapters {
		if a.Recognizes(loader) {
			return a
		}
	}
	return nil
}
