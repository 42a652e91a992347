/*
 * typegraph - a classpath/classfile scanner
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"io"
	"strings"

	"typegraph/src/graph"
	"typegraph/src/workpool"
)

const magicNumber = 0xCAFEBABE

const (
	accPublic    = 0x0001
	accInterface = 0x0200
	accAnnotation = 0x2000
)

// Parser decodes one class file into a graph.ClassInfoUnlinked. A
// Parser is single-threaded but reusable across many files via its
// pooled buffer: each Parse call starts from a clean buffer state while
// the Parser itself, and any Recycler holding it, stays long-lived.
type Parser struct {
	cfg         Config
	buf         *buffer
	interrupter *workpool.Interrupter
}

// NewParser builds a Parser for the given configuration.
func NewParser(cfg Config) *Parser {
	return &Parser{cfg: cfg, buf: newBuffer()}
}

// SetInterrupter attaches the shared cancellation flag this Parser
// checks on every buffer refill.
func (p *Parser) SetInterrupter(i *workpool.Interrupter) { p.interrupter = i }

// Reset restores the Parser to a clean, reusable state for the
// Recycler.
func (p *Parser) Reset() { p.buf.reset(nil) }

// Parse decodes one class file read from r, whose scanner-relative path
// was relativePath, into a ClassInfoUnlinked. A nil result with a
// *errs.FormatError means the caller should log and skip; a nil result
// with errs.Cancelled means the scan was cancelled mid-parse.
func (p *Parser) Parse(r io.Reader, relativePath, owningElementPath string, loaders []interface{}) (*graph.ClassInfoUnlinked, error) {
	p.buf.reset(r)
	if err := p.buf.fillInitial(); err != nil {
		return nil, err
	}

	magic, err := p.buf.u4(p.interrupter)
	if err != nil {
		return nil, err
	}
	if magic != magicNumber {
		return nil, formatErrorf(relativePath, "bad magic number 0x%08X", magic)
	}

	if _, err := p.buf.u2(p.interrupter); err != nil { // minor version, discarded
		return nil, err
	}
	if _, err := p.buf.u2(p.interrupter); err != nil { // major version, discarded
		return nil, err
	}

	cp, err := parseConstantPool(relativePath, p.buf, p.interrupter)
	if err != nil {
		return nil, err
	}

	accessFlagsU16, err := p.buf.u2(p.interrupter)
	if err != nil {
		return nil, err
	}
	accessFlags := int(accessFlagsU16)
	if accessFlags&accModule != 0 {
		return nil, formatErrorf(relativePath, "module class files are ignored")
	}

	thisClassIdx, err := p.buf.u2(p.interrupter)
	if err != nil {
		return nil, err
	}
	superClassIdx, err := p.buf.u2(p.interrupter)
	if err != nil {
		return nil, err
	}

	className, err := cp.className(int(thisClassIdx))
	if err != nil {
		return nil, err
	}

	if err := checkClassIdentity(relativePath, className); err != nil {
		return nil, err
	}

	if superClassIdx == 0 {
		return nil, formatErrorf(relativePath, "class %s has no superclass: it is the bootstrap root class and is not linkable", className)
	}
	superName, err := cp.className(int(superClassIdx))
	if err != nil {
		return nil, err
	}

	interfaceCount, err := p.buf.u2(p.interrupter)
	if err != nil {
		return nil, err
	}
	interfaceNames := make([]string, 0, interfaceCount)
	for i := 0; i < int(interfaceCount); i++ {
		idx, err := p.buf.u2(p.interrupter)
		if err != nil {
			return nil, err
		}
		name, err := cp.className(int(idx))
		if err != nil {
			return nil, err
		}
		interfaceNames = append(interfaceNames, name)
	}

	referenced := map[string]bool{}

	fields, err := p.readFields(cp, className, referenced)
	if err != nil {
		return nil, err
	}
	methods, err := p.readMethods(cp, referenced)
	if err != nil {
		return nil, err
	}

	classAttrCount, err := p.buf.u2(p.interrupter)
	if err != nil {
		return nil, err
	}
	classAttrs, err := p.readAttributes(cp, int(classAttrCount))
	if err != nil {
		return nil, err
	}

	var classAnnotations []graph.AnnotationRecord
	if raw, ok := classAttrs["RuntimeVisibleAnnotations"]; ok {
		anns, err := decodeAnnotations(cp, raw)
		if err != nil {
			return nil, err
		}
		classAnnotations = append(classAnnotations, anns...)
	}
	if p.cfg.AnnotationVisibility == RuntimeAndClass {
		if raw, ok := classAttrs["RuntimeInvisibleAnnotations"]; ok {
			anns, err := decodeAnnotations(cp, raw)
			if err != nil {
				return nil, err
			}
			classAnnotations = append(classAnnotations, anns...)
		}
	}

	var containment []graph.ContainmentPair
	var enclosingMethodName string

	if raw, ok := classAttrs["InnerClasses"]; ok {
		pairs, err := decodeInnerClasses(cp, raw)
		if err != nil {
			return nil, err
		}
		containment = append(containment, pairs...)
	}
	if raw, ok := classAttrs["EnclosingMethod"]; ok {
		pair, methodName, err := decodeEnclosingMethod(cp, raw, className)
		if err != nil {
			return nil, err
		}
		if pair != nil {
			containment = append(containment, *pair)
		}
		enclosingMethodName = methodName
	}

	result := &graph.ClassInfoUnlinked{
		ClassName:           className,
		AccessFlags:         accessFlags,
		IsInterface:         accessFlags&accInterface != 0,
		IsAnnotation:        accessFlags&accAnnotation != 0,
		SuperclassName:      superName,
		InterfaceNames:      interfaceNames,
		Fields:              fields,
		Methods:             methods,
		ClassAnnotations:    classAnnotations,
		Containment:         containment,
		EnclosingMethodName: enclosingMethodName,
		OwningElementPath:   owningElementPath,
		Loaders:             loaders,
	}

	referenced[superName] = true
	for _, n := range interfaceNames {
		referenced[n] = true
	}
	names := make([]string, 0, len(referenced))
	for n := range referenced {
		names = append(names, n)
	}
	result.ReferencedTypeNames = names

	return result, nil
}

// checkClassIdentity verifies the relative path ends in ".class" and
// its prefix (in internal slash form) matches the decoded class name
//.
func checkClassIdentity(relativePath, dottedClassName string) error {
	if !strings.HasSuffix(relativePath, ".class") {
		return formatErrorf(relativePath, "resource does not end in .class")
	}
	prefix := strings.TrimSuffix(relativePath, ".class")
	internalName := strings.ReplaceAll(dottedClassName, ".", "/")
	if prefix != internalName {
		return formatErrorf(relativePath, "path %s does not match class name %s", relativePath, dottedClassName)
	}
	return nil
}

func (p *Parser) readAttributes(cp *constantPool, count int) (map[string][]byte, error) {
	out := make(map[string][]byte, count)
	for i := 0; i < count; i++ {
		nameIdx, err := p.buf.u2(p.interrupter)
		if err != nil {
			return nil, err
		}
		length, err := p.buf.u4(p.interrupter)
		if err != nil {
			return nil, err
		}
		name, err := cp.utf8(int(nameIdx))
		if err != nil {
			return nil, err
		}
		raw, err := p.buf.bytes(int(length), p.interrupter)
		if err != nil {
			return nil, err
		}
		out[name] = raw
	}
	return out, nil
}

func decodeInnerClasses(cp *constantPool, raw []byte) ([]graph.ContainmentPair, error) {
	c := &rawCursor{data: raw}
	count := c.u2()
	var pairs []graph.ContainmentPair
	for i := 0; i < int(count); i++ {
		innerIdx := c.u2()
		outerIdx := c.u2()
		_ = c.u2() // inner_name_index, not needed for containment
		_ = c.u2() // inner_class_access_flags, not modeled on the containment edge
		if innerIdx == 0 || outerIdx == 0 {
			continue
		}
		inner, err := cp.className(int(innerIdx))
		if err != nil {
			return nil, err
		}
		outer, err := cp.className(int(outerIdx))
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, graph.ContainmentPair{Inner: inner, Outer: outer})
	}
	return pairs, nil
}

func decodeEnclosingMethod(cp *constantPool, raw []byte, className string) (*graph.ContainmentPair, string, error) {
	c := &rawCursor{data: raw}
	classIdx := c.u2()
	methodIdx := c.u2()

	enclosingClass, err := cp.className(int(classIdx))
	if err != nil {
		return nil, "", err
	}
	pair := &graph.ContainmentPair{Inner: className, Outer: enclosingClass}

	if methodIdx == 0 {
		return pair, enclosingClass + ".<clinit>", nil
	}
	if !cp.valid(int(methodIdx)) || cp.entries[methodIdx].tag != tagNameAndType {
		return pair, "", nil
	}
	nameIdx, _ := unpackNameAndType(cp.entries[methodIdx].ref1)
	methodName, err := cp.utf8(int(nameIdx))
	if err != nil {
		return nil, "", err
	}
	return pair, enclosingClass + "." + methodName, nil
}
