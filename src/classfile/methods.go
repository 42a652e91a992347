/*
 * typegraph - a classpath/classfile scanner
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"typegraph/src/graph"
)

func (p *Parser) readMethods(cp *constantPool, referenced map[string]bool) ([]graph.MethodRecordUnlinked, error) {
	count, err := p.buf.u2(p.interrupter)
	if err != nil {
		return nil, err
	}
	out := make([]graph.MethodRecordUnlinked, 0, count)
	for i := 0; i < int(count); i++ {
		rec, skip, err := p.readOneMethod(cp, referenced)
		if err != nil {
			return nil, err
		}
		if !skip {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (p *Parser) readOneMethod(cp *constantPool, referenced map[string]bool) (graph.MethodRecordUnlinked, bool, error) {
	accessFlagsU16, err := p.buf.u2(p.interrupter)
	if err != nil {
		return graph.MethodRecordUnlinked{}, false, err
	}
	accessFlags := int(accessFlagsU16)

	nameIdx, err := p.buf.u2(p.interrupter)
	if err != nil {
		return graph.MethodRecordUnlinked{}, false, err
	}
	descIdx, err := p.buf.u2(p.interrupter)
	if err != nil {
		return graph.MethodRecordUnlinked{}, false, err
	}
	attrCount, err := p.buf.u2(p.interrupter)
	if err != nil {
		return graph.MethodRecordUnlinked{}, false, err
	}
	attrs, err := p.readAttributes(cp, int(attrCount))
	if err != nil {
		return graph.MethodRecordUnlinked{}, false, err
	}

	skip := !p.cfg.IgnoreMethodVisibility && !accessIsPublic(accessFlags)
	if skip {
		return graph.MethodRecordUnlinked{}, true, nil
	}

	name, err := cp.utf8(int(nameIdx))
	if err != nil {
		return graph.MethodRecordUnlinked{}, false, err
	}
	desc, err := cp.utf8(int(descIdx))
	if err != nil {
		return graph.MethodRecordUnlinked{}, false, err
	}

	rec := graph.MethodRecordUnlinked{Name: name, Descriptor: desc, AccessFlags: accessFlags}

	if raw, ok := attrs["Signature"]; ok && len(raw) >= 2 {
		sigIdx := uint16(raw[0])<<8 | uint16(raw[1])
		sig, err := cp.utf8(int(sigIdx))
		if err != nil {
			return graph.MethodRecordUnlinked{}, false, err
		}
		rec.Descriptor = sig
	}

	if p.cfg.EnableFieldTypeIndexing { // method descriptors feed the same referenced-type index as fields
		for _, n := range mineSignatureClassNames(rec.Descriptor) {
			referenced[n] = true
		}
	}

	if !p.cfg.FullMethodInfo {
		return rec, false, nil
	}

	if raw, ok := attrs["MethodParameters"]; ok {
		rec.Params = decodeMethodParameters(cp, raw)
	}

	if p.cfg.EnableMethodAnnotations {
		if raw, ok := attrs["RuntimeVisibleAnnotations"]; ok {
			anns, err := decodeAnnotations(cp, raw)
			if err != nil {
				return graph.MethodRecordUnlinked{}, false, err
			}
			rec.Annotations = append(rec.Annotations, anns...)
		}
		if p.cfg.AnnotationVisibility == RuntimeAndClass {
			if raw, ok := attrs["RuntimeInvisibleAnnotations"]; ok {
				anns, err := decodeAnnotations(cp, raw)
				if err != nil {
					return graph.MethodRecordUnlinked{}, false, err
				}
				rec.Annotations = append(rec.Annotations, anns...)
			}
		}

		if raw, ok := attrs["RuntimeVisibleParameterAnnotations"]; ok {
			params, err := decodeParameterAnnotations(cp, raw)
			if err != nil {
				return graph.MethodRecordUnlinked{}, false, err
			}
			rec.ParamAnnotations = mergeParamAnnotations(rec.ParamAnnotations, params)
		}
		if p.cfg.AnnotationVisibility == RuntimeAndClass {
			if raw, ok := attrs["RuntimeInvisibleParameterAnnotations"]; ok {
				params, err := decodeParameterAnnotations(cp, raw)
				if err != nil {
					return graph.MethodRecordUnlinked{}, false, err
				}
				rec.ParamAnnotations = mergeParamAnnotations(rec.ParamAnnotations, params)
			}
		}
	}

	if raw, ok := attrs["AnnotationDefault"]; ok {
		c := &rawCursor{data: raw}
		val, err := decodeElementValue(cp, c)
		if err != nil {
			return graph.MethodRecordUnlinked{}, false, err
		}
		rec.AnnotationDefault = &val
	}

	return rec, false, nil
}

// decodeMethodParameters reads a MethodParameters attribute: u1 count,
// then (name_index u2, access_flags u2) pairs. A zero name index
// denotes an anonymous parameter.
func decodeMethodParameters(cp *constantPool, raw []byte) []graph.MethodParam {
	c := &rawCursor{data: raw}
	count := c.u1()
	out := make([]graph.MethodParam, 0, count)
	for i := 0; i < int(count); i++ {
		nameIdx := c.u2()
		flags := c.u2()
		var namePtr *string
		if nameIdx != 0 {
			if name, err := cp.utf8(int(nameIdx)); err == nil {
				namePtr = &name
			}
		}
		out = append(out, graph.MethodParam{Name: namePtr, AccessFlags: int(flags)})
	}
	return out
}

// decodeParameterAnnotations reads a RuntimeVisible/Invisible
// ParameterAnnotations attribute: u1 parameter count, then per
// parameter a u2 annotation count and that many annotations.
func decodeParameterAnnotations(cp *constantPool, raw []byte) ([]graph.ParamAnnotation, error) {
	c := &rawCursor{data: raw}
	numParams := c.u1()
	out := make([]graph.ParamAnnotation, numParams)
	for i := 0; i < int(numParams); i++ {
		numAnns := c.u2()
		anns := make([]graph.AnnotationRecord, 0, numAnns)
		for j := 0; j < int(numAnns); j++ {
			ann, err := decodeAnnotation(cp, c)
			if err != nil {
				return nil, err
			}
			anns = append(anns, ann)
		}
		out[i] = graph.ParamAnnotation{Annotations: anns}
	}
	return out, nil
}

func mergeParamAnnotations(existing, additional []graph.ParamAnnotation) []graph.ParamAnnotation {
	if len(existing) == 0 {
		return additional
	}
	for i := range additional {
		if i < len(existing) {
			existing[i].Annotations = append(existing[i].Annotations, additional[i].Annotations...)
		} else {
			existing = append(existing, additional[i])
		}
	}
	return existing
}
