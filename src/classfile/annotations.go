/*
 * typegraph - a classpath/classfile scanner
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"strings"

	"typegraph/src/graph"
)

// rawCursor walks a pre-extracted attribute payload (already fully
// buffered by the streaming reader) independently of the main buffer's
// cursor, since RuntimeVisibleAnnotations and friends nest structures
// that are easiest to decode against a plain byte slice.
type rawCursor struct {
	data []byte
	pos  int
}

func (c *rawCursor) u1() byte {
	v := c.data[c.pos]
	c.pos++
	return v
}

func (c *rawCursor) u2() uint16 {
	v := uint16(c.data[c.pos])<<8 | uint16(c.data[c.pos+1])
	c.pos += 2
	return v
}

func (c *rawCursor) u4() uint32 {
	v := uint32(c.data[c.pos])<<24 | uint32(c.data[c.pos+1])<<16 |
		uint32(c.data[c.pos+2])<<8 | uint32(c.data[c.pos+3])
	c.pos += 4
	return v
}

// decodeAnnotations reads a RuntimeVisible/InvisibleAnnotations
// attribute body: u2 count, then that many annotation structures.
func decodeAnnotations(cp *constantPool, raw []byte) ([]graph.AnnotationRecord, error) {
	c := &rawCursor{data: raw}
	count := c.u2()
	out := make([]graph.AnnotationRecord, 0, count)
	for i := 0; i < int(count); i++ {
		ann, err := decodeAnnotation(cp, c)
		if err != nil {
			return nil, err
		}
		out = append(out, ann)
	}
	return out, nil
}

// decodeAnnotation reads one annotation structure: type_index u2,
// num_element_value_pairs u2, then that many (element_name_index u2,
// element_value) pairs.
func decodeAnnotation(cp *constantPool, c *rawCursor) (graph.AnnotationRecord, error) {
	typeDescIdx := c.u2()
	typeDesc, err := cp.utf8(int(typeDescIdx))
	if err != nil {
		return graph.AnnotationRecord{}, err
	}
	rec := graph.AnnotationRecord{
		TypeName: internalNameToDotted(internalTypeToDescriptor(typeDesc, true)),
		Elements: map[string]graph.AnnotationValue{},
	}
	numPairs := c.u2()
	for i := 0; i < int(numPairs); i++ {
		nameIdx := c.u2()
		name, err := cp.utf8(int(nameIdx))
		if err != nil {
			return graph.AnnotationRecord{}, err
		}
		val, err := decodeElementValue(cp, c)
		if err != nil {
			return graph.AnnotationRecord{}, err
		}
		rec.Elements[name] = val
	}
	return rec, nil
}

// decodeElementValue is the recursive, tag-driven decode of one
// annotation element value.
func decodeElementValue(cp *constantPool, c *rawCursor) (graph.AnnotationValue, error) {
	tag := c.u1()
	switch tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		idx := c.u2()
		v, err := constFromPool(cp, int(idx), tag)
		if err != nil {
			return graph.AnnotationValue{}, err
		}
		return graph.AnnotationValue{Tag: graph.ValConst, Const: v}, nil
	case 's':
		idx := c.u2()
		s, err := cp.utf8(int(idx))
		if err != nil {
			return graph.AnnotationValue{}, err
		}
		return graph.AnnotationValue{Tag: graph.ValString, Const: s}, nil
	case 'e':
		typeIdx := c.u2()
		constIdx := c.u2()
		typeDesc, err := cp.utf8(int(typeIdx))
		if err != nil {
			return graph.AnnotationValue{}, err
		}
		constName, err := cp.utf8(int(constIdx))
		if err != nil {
			return graph.AnnotationValue{}, err
		}
		return graph.AnnotationValue{Tag: graph.ValEnum, EnumClass: typeDesc, EnumConst: constName}, nil
	case 'c':
		idx := c.u2()
		desc, err := cp.utf8(int(idx))
		if err != nil {
			return graph.AnnotationValue{}, err
		}
		return graph.AnnotationValue{Tag: graph.ValClass, ClassDesc: desc}, nil
	case '@':
		nested, err := decodeAnnotation(cp, c)
		if err != nil {
			return graph.AnnotationValue{}, err
		}
		return graph.AnnotationValue{Tag: graph.ValAnnotation, Annotation: &nested}, nil
	case '[':
		count := c.u2()
		arr := make([]graph.AnnotationValue, 0, count)
		for i := 0; i < int(count); i++ {
			v, err := decodeElementValue(cp, c)
			if err != nil {
				return graph.AnnotationValue{}, err
			}
			arr = append(arr, v)
		}
		return graph.AnnotationValue{Tag: graph.ValArray, Array: arr}, nil
	default:
		return graph.AnnotationValue{}, formatErrorf("", "unknown annotation element value tag 0x%02x", tag)
	}
}

// constFromPool resolves a numeric/boolean constant-pool entry to its
// narrow Go type per the descriptor's first character.
func constFromPool(cp *constantPool, idx int, descChar byte) (interface{}, error) {
	if !cp.valid(idx) {
		return nil, formatErrorf("", "invalid constant pool index %d", idx)
	}
	entry := cp.entries[idx]
	switch entry.tag {
	case tagInteger:
		raw := cp.buf.data[entry.offset : entry.offset+4]
		v := int32(uint32(raw[0])<<24 | uint32(raw[1])<<16 | uint32(raw[2])<<8 | uint32(raw[3]))
		switch descChar {
		case 'B':
			return int8(v), nil
		case 'C':
			return uint16(v), nil
		case 'S':
			return int16(v), nil
		case 'Z':
			return v != 0, nil
		default:
			return v, nil
		}
	case tagFloat:
		raw := cp.buf.data[entry.offset : entry.offset+4]
		bits := uint32(raw[0])<<24 | uint32(raw[1])<<16 | uint32(raw[2])<<8 | uint32(raw[3])
		return float32FromBits(bits), nil
	case tagLong:
		raw := cp.buf.data[entry.offset : entry.offset+8]
		var v int64
		for _, b := range raw {
			v = v<<8 | int64(b)
		}
		return v, nil
	case tagDouble:
		raw := cp.buf.data[entry.offset : entry.offset+8]
		var bits uint64
		for _, b := range raw {
			bits = bits<<8 | uint64(b)
		}
		return float64FromBits(bits), nil
	case tagString:
		return cp.string(idx)
	default:
		return nil, formatErrorf("", "constant pool index %d is not a constant of the expected kind", idx)
	}
}

// mineSignatureClassNames extracts referenced class names from a
// generic type signature or descriptor by splitting on 'L', '<', ';'
// and stripping array prefixes and type-parameter delimiters.
func mineSignatureClassNames(sig string) []string {
	var names []string
	i := 0
	for i < len(sig) {
		for i < len(sig) && sig[i] == '[' {
			i++
		}
		if i >= len(sig) {
			break
		}
		if sig[i] != 'L' && sig[i] != 'T' {
			i++
			continue
		}
		isTypeVar := sig[i] == 'T'
		start := i + 1
		end := start
		for end < len(sig) && sig[end] != ';' && sig[end] != '<' {
			end++
		}
		name := sig[start:end]
		if name != "" && !isTypeVar {
			names = append(names, strings.ReplaceAll(name, "/", "."))
		}
		if end < len(sig) && sig[end] == ';' {
			end++
		}
		i = end
	}
	return names
}
