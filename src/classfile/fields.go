/*
 * typegraph - a classpath/classfile scanner
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"typegraph/src/graph"
)

func (p *Parser) readFields(cp *constantPool, className string, referenced map[string]bool) ([]graph.FieldRecordUnlinked, error) {
	count, err := p.buf.u2(p.interrupter)
	if err != nil {
		return nil, err
	}
	out := make([]graph.FieldRecordUnlinked, 0, count)
	for i := 0; i < int(count); i++ {
		rec, skip, err := p.readOneField(cp, className, referenced)
		if err != nil {
			return nil, err
		}
		if !skip {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (p *Parser) readOneField(cp *constantPool, className string, referenced map[string]bool) (graph.FieldRecordUnlinked, bool, error) {
	accessFlagsU16, err := p.buf.u2(p.interrupter)
	if err != nil {
		return graph.FieldRecordUnlinked{}, false, err
	}
	accessFlags := int(accessFlagsU16)

	nameIdx, err := p.buf.u2(p.interrupter)
	if err != nil {
		return graph.FieldRecordUnlinked{}, false, err
	}
	descIdx, err := p.buf.u2(p.interrupter)
	if err != nil {
		return graph.FieldRecordUnlinked{}, false, err
	}
	attrCount, err := p.buf.u2(p.interrupter)
	if err != nil {
		return graph.FieldRecordUnlinked{}, false, err
	}
	attrs, err := p.readAttributes(cp, int(attrCount))
	if err != nil {
		return graph.FieldRecordUnlinked{}, false, err
	}

	skip := !p.cfg.IgnoreFieldVisibility && !accessIsPublic(accessFlags)
	if skip {
		return graph.FieldRecordUnlinked{}, true, nil
	}

	name, err := cp.utf8(int(nameIdx))
	if err != nil {
		return graph.FieldRecordUnlinked{}, false, err
	}
	desc, err := cp.utf8(int(descIdx))
	if err != nil {
		return graph.FieldRecordUnlinked{}, false, err
	}

	rec := graph.FieldRecordUnlinked{Name: name, Descriptor: desc, AccessFlags: accessFlags}

	if raw, ok := attrs["Signature"]; ok {
		sigIdx := uint16(raw[0])<<8 | uint16(raw[1])
		sig, err := cp.utf8(int(sigIdx))
		if err != nil {
			return graph.FieldRecordUnlinked{}, false, err
		}
		rec.Descriptor = sig
	}

	if p.cfg.EnableFieldTypeIndexing {
		for _, n := range mineSignatureClassNames(rec.Descriptor) {
			referenced[n] = true
		}
	}

	if !p.cfg.FullFieldInfo {
		return rec, false, nil
	}

	if raw, ok := attrs["ConstantValue"]; ok && len(raw) >= 2 {
		if p.cfg.StaticFinalFieldMatches[className][name] {
			valueIdx := uint16(raw[0])<<8 | uint16(raw[1])
			v, err := constFromPool(cp, int(valueIdx), desc[0])
			if err == nil {
				rec.ConstValue = v
			}
		}
	}

	if p.cfg.EnableFieldAnnotations {
		if raw, ok := attrs["RuntimeVisibleAnnotations"]; ok {
			anns, err := decodeAnnotations(cp, raw)
			if err != nil {
				return graph.FieldRecordUnlinked{}, false, err
			}
			rec.Annotations = append(rec.Annotations, anns...)
		}
		if p.cfg.AnnotationVisibility == RuntimeAndClass {
			if raw, ok := attrs["RuntimeInvisibleAnnotations"]; ok {
				anns, err := decodeAnnotations(cp, raw)
				if err != nil {
					return graph.FieldRecordUnlinked{}, false, err
				}
				rec.Annotations = append(rec.Annotations, anns...)
			}
		}
	}

	return rec, false, nil
}
