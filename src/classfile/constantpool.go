/*
 * typegraph - a classpath/classfile scanner
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"typegraph/src/workpool"
)

// Constant pool tags, the wire format.
const (
	tagUTF8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

// cpEntry is one constant-pool slot: its tag plus an indirection value
// whose meaning is tag-dependent (an absolute byte offset for inline
// numeric entries, or an index into another pool slot for reference
// entries), the same indirection every constant-pool lookup table
// ultimately needs.
type cpEntry struct {
	tag    byte
	offset int    // absolute byte offset of this entry's payload in the source buffer
	ref1   uint32 // tag-dependent: UTF-8 slot index for Class/String, packed name/desc for NameAndType
	ref2   uint32 // second index for two-index entries (Fieldref/Methodref/InterfaceMethodref/Dynamic/InvokeDynamic/MethodHandle)
}

// constantPool holds the decoded constant pool. UTF-8 bytes are kept
// raw and decoded lazily on first reference.
type constantPool struct {
	entries  []cpEntry // index 0 unused, matching the JVM's 1-based CP indexing
	buf      *buffer
	utf8Cache map[int]string
}

// parseConstantPool reads the declared entry count and then every
// entry, honoring the long/double "occupies two slots" quirk.
func parseConstantPool(path string, b *buffer, interrupter *workpool.Interrupter) (*constantPool, error) {
	count, err := b.u2(interrupter)
	if err != nil {
		return nil, err
	}
	cp := &constantPool{
		entries:   make([]cpEntry, count),
		buf:       b,
		utf8Cache: map[int]string{},
	}

	for i := 1; i < int(count); i++ {
		tag, err := b.u1(interrupter)
		if err != nil {
			return nil, err
		}
		offset := b.curr
		entry := cpEntry{tag: tag, offset: offset}

		switch tag {
		case tagUTF8:
			length, err := b.u2(interrupter)
			if err != nil {
				return nil, err
			}
			if err := b.skip(int(length), interrupter); err != nil {
				return nil, err
			}
		case tagInteger, tagFloat:
			if err := b.skip(4, interrupter); err != nil {
				return nil, err
			}
		case tagLong, tagDouble:
			if err := b.skip(8, interrupter); err != nil {
				return nil, err
			}
			cp.entries[i] = entry
			i++ // the following slot stays an unusable placeholder (tag 0)
			continue
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			idx, err := b.u2(interrupter)
			if err != nil {
				return nil, err
			}
			entry.ref1 = uint32(idx)
		case tagFieldref, tagMethodref, tagInterfaceMethodref, tagDynamic, tagInvokeDynamic:
			a, err := b.u2(interrupter)
			if err != nil {
				return nil, err
			}
			c, err := b.u2(interrupter)
			if err != nil {
				return nil, err
			}
			entry.ref1, entry.ref2 = uint32(a), uint32(c)
		case tagNameAndType:
			nameIdx, err := b.u2(interrupter)
			if err != nil {
				return nil, err
			}
			descIdx, err := b.u2(interrupter)
			if err != nil {
				return nil, err
			}
			entry.ref1 = packNameAndType(nameIdx, descIdx)
		case tagMethodHandle:
			refKind, err := b.u1(interrupter)
			if err != nil {
				return nil, err
			}
			refIdx, err := b.u2(interrupter)
			if err != nil {
				return nil, err
			}
			entry.ref1 = uint32(refKind)
			entry.ref2 = uint32(refIdx)
		default:
			return nil, formatErrorf(path, "unknown constant pool tag %d at index %d", tag, i)
		}

		cp.entries[i] = entry
	}
	return cp, nil
}

func packNameAndType(nameIdx, descIdx uint16) uint32 {
	return uint32(nameIdx)<<16 | uint32(descIdx)
}

func unpackNameAndType(packed uint32) (nameIdx, descIdx uint16) {
	return uint16(packed >> 16), uint16(packed & 0xFFFF)
}

func (cp *constantPool) valid(idx int) bool {
	return idx >= 1 && idx < len(cp.entries) && cp.entries[idx].tag != 0
}

// utf8 decodes (and caches) the modified-UTF-8 string at pool index idx.
func (cp *constantPool) utf8(idx int) (string, error) {
	if !cp.valid(idx) || cp.entries[idx].tag != tagUTF8 {
		return "", formatErrorf("", "constant pool index %d is not a UTF8 entry", idx)
	}
	if s, ok := cp.utf8Cache[idx]; ok {
		return s, nil
	}
	entry := cp.entries[idx]
	length := int(cp.buf.data[entry.offset])<<8 | int(cp.buf.data[entry.offset+1])
	raw := cp.buf.data[entry.offset+2 : entry.offset+2+length]
	s, err := decodeModifiedUTF8(raw)
	if err != nil {
		return "", formatErrorf("", "malformed modified UTF-8 at constant pool index %d: %v", idx, err)
	}
	cp.utf8Cache[idx] = s
	return s, nil
}

// className decodes a Class entry's referenced UTF-8, substituting '/'
// with '.' to turn the wire format's internal name into the dotted class
// name the graph uses.
func (cp *constantPool) className(idx int) (string, error) {
	if !cp.valid(idx) || cp.entries[idx].tag != tagClass {
		return "", formatErrorf("", "constant pool index %d is not a Class entry", idx)
	}
	raw, err := cp.utf8(int(cp.entries[idx].ref1))
	if err != nil {
		return "", err
	}
	return internalNameToDotted(raw), nil
}

// string decodes a String entry's referenced UTF-8 literal.
func (cp *constantPool) string(idx int) (string, error) {
	if !cp.valid(idx) || cp.entries[idx].tag != tagString {
		return "", formatErrorf("", "constant pool index %d is not a String entry", idx)
	}
	return cp.utf8(int(cp.entries[idx].ref1))
}

func internalNameToDotted(internal string) string {
	out := make([]byte, len(internal))
	for i := 0; i < len(internal); i++ {
		if internal[i] == '/' {
			out[i] = '.'
		} else {
			out[i] = internal[i]
		}
	}
	return string(out)
}

// internalTypeToDescriptor optionally strips a leading 'L' and trailing
// ';' from an internal type descriptor
func internalTypeToDescriptor(s string, stripObjectWrapper bool) string {
	if stripObjectWrapper && len(s) >= 2 && s[0] == 'L' && s[len(s)-1] == ';' {
		return s[1 : len(s)-1]
	}
	return s
}
