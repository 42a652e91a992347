/*
 * typegraph - a classpath/classfile scanner
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package scanctx holds the scan-scoped configuration record and
// context object threaded explicitly through every component. The
// Context carries the scan's id, configuration, logger, and
// interruption flag; per-scan caches (such as the known-system-archive
// set) live on objects built fresh for each scan rather than in
// process globals, so two scans running concurrently in the same
// process never share state.
package scanctx

import (
	"github.com/google/uuid"

	"typegraph/src/classfile"
	"typegraph/src/classpath"
	"typegraph/src/errs"
	"typegraph/src/loaderadapter"
	"typegraph/src/scanner"
	"typegraph/src/trace"
	"typegraph/src/workpool"
)

// ScanConfig is the external input record. It is assembled by the
// caller (classpath discovery and option parsing are explicitly out of
// scope); Validate only checks internal consistency.
type ScanConfig struct {
	Whitelist []string // dotted package prefixes, or a dotted class name ("com.x.Foo") to whitelist one class
	Blacklist []string

	WhitelistArchiveNames []string // doublestar glob patterns over archive base names; empty means all archives are in scope

	ScanDirs     bool
	ScanArchives bool

	HonorParentLoaders bool // if false, parent loaders still contribute roots for masking but aren't treated as authoritative sources

	IgnoreFieldVisibility  bool
	IgnoreMethodVisibility bool

	EnableFieldTypeIndexing bool
	EnableFieldAnnotations  bool
	EnableMethodAnnotations bool

	AnnotationVisibility classfile.AnnotationVisibility

	IncludeSystemArchives bool

	// ClasspathOverride, if non-empty, replaces classpath discovery
	// entirely: no class-loader adapters are consulted.
	ClasspathOverride []string

	// StaticFinalFieldMatches restricts ConstantValue decoding, keyed by
	// dotted class name then field name.
	StaticFinalFieldMatches map[string]map[string]bool

	FileMatchers map[string]scanner.FileMatcher

	// Loaders is the sequence of host-supplied class-loader references;
	// Adapters is consulted to enumerate each one's contributed roots.
	Loaders  []classpath.LoaderRef
	Adapters []loaderadapter.Adapter

	Workers int
}

// Validate checks the configuration-error conditions: an empty
// whitelist entry, a classpath override combined with loader-based
// discovery (the two are mutually exclusive root sources), or a
// negative worker count.
func (c *ScanConfig) Validate() error {
	for _, w := range c.Whitelist {
		if w == "" {
			return &errs.ConfigError{Field: "Whitelist", Msg: "empty whitelist entry"}
		}
	}
	if len(c.ClasspathOverride) > 0 && len(c.Loaders) > 0 {
		return &errs.ConfigError{Field: "ClasspathOverride", Msg: "cannot combine a classpath override with class-loader discovery"}
	}
	if c.Workers < 0 {
		return &errs.ConfigError{Field: "Workers", Msg: "negative worker count"}
	}
	return nil
}

// Context bundles one scan's identity, logger, interruption flag, and
// configuration; every component that needs scan-scoped state takes a
// *Context rather than reaching for globals.
type Context struct {
	ID          string
	Config      ScanConfig
	Logger      *trace.Logger
	Interrupter *workpool.Interrupter
}

// New validates cfg and builds a Context stamped with a fresh
// correlation id for log correlation across the scan's goroutines.
func New(cfg ScanConfig) (*Context, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	id := uuid.New().String()
	return &Context{
		ID:          id,
		Config:      cfg,
		Logger:      trace.New(id),
		Interrupter: &workpool.Interrupter{},
	}, nil
}
