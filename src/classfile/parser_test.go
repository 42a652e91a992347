/*
 * typegraph - a classpath/classfile scanner
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"bytes"
	"errors"
	"testing"

	"typegraph/src/errs"
)

// classBuilder assembles a minimal synthetic class file byte-for-byte,
// used to drive Parser.Parse without a real javac-produced fixture.
type classBuilder struct {
	utf8 []string
}

func newClassBuilder() *classBuilder { return &classBuilder{} }

// addUtf8 appends a Utf8 constant and returns its 1-based pool index.
func (c *classBuilder) addUtf8(s string) uint16 {
	c.utf8 = append(c.utf8, s)
	return uint16(len(c.utf8))
}

// build writes the full class file: magic, versions, the Utf8 pool
// entries registered via addUtf8 followed by one Class entry per Utf8
// entry (in the same order), then the fixed this/super/0/0/0/0
// tail the empty-collections boundary scenario needs.
func (c *classBuilder) build(thisClassEntry, superClassEntry uint16, accessFlags uint16) []byte {
	var out bytes.Buffer
	out.Write(u32Bytes(magicNumber))
	out.Write(u16Bytes(0)) // minor
	out.Write(u16Bytes(52)) // major

	n := len(c.utf8)
	out.Write(u16Bytes(uint16(1 + 2*n))) // constant_pool_count: n Utf8 + n Class entries, 1-based
	for _, s := range c.utf8 {
		out.WriteByte(tagUTF8)
		out.Write(u16Bytes(uint16(len(s))))
		out.WriteString(s)
	}
	for i := 0; i < n; i++ {
		out.WriteByte(tagClass)
		out.Write(u16Bytes(uint16(i + 1)))
	}

	out.Write(u16Bytes(accessFlags))
	out.Write(u16Bytes(thisClassEntry))
	out.Write(u16Bytes(superClassEntry))
	out.Write(u16Bytes(0)) // interfaces_count
	out.Write(u16Bytes(0)) // fields_count
	out.Write(u16Bytes(0)) // methods_count
	out.Write(u16Bytes(0)) // attributes_count
	return out.Bytes()
}

func u16Bytes(v uint16) []byte { return []byte{byte(v >> 8), byte(v)} }
func u32Bytes(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func TestParser_MinimalClassFile(t *testing.T) {
	cb := newClassBuilder()
	nameIdx := cb.addUtf8("com/example/Foo")
	superNameIdx := cb.addUtf8("java/lang/Object")
	// Utf8 entries occupy pool slots 1..2; their Class entries follow at
	// slots 3 and 4 respectively (slot = n + position, 1-based).
	thisClassEntry := uint16(len(cb.utf8)) + nameIdx
	superClassEntry := uint16(len(cb.utf8)) + superNameIdx

	data := cb.build(thisClassEntry, superClassEntry, accPublic)

	p := NewParser(Config{})
	info, err := p.Parse(bytes.NewReader(data), "com/example/Foo.class", "/classes", nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if info.ClassName != "com.example.Foo" {
		t.Fatalf("ClassName = %q, want com.example.Foo", info.ClassName)
	}
	if info.SuperclassName != "java.lang.Object" {
		t.Fatalf("SuperclassName = %q, want java.lang.Object", info.SuperclassName)
	}
	if info.IsInterface || info.IsAnnotation {
		t.Fatalf("expected a plain class, got IsInterface=%v IsAnnotation=%v", info.IsInterface, info.IsAnnotation)
	}
	if len(info.Fields) != 0 || len(info.Methods) != 0 || len(info.InterfaceNames) != 0 {
		t.Fatalf("expected empty collections, got fields=%v methods=%v interfaces=%v", info.Fields, info.Methods, info.InterfaceNames)
	}
	if !containsName(info.ReferencedTypeNames, "java.lang.Object") {
		t.Fatalf("ReferencedTypeNames = %v, want it to include the superclass", info.ReferencedTypeNames)
	}
}

func TestParser_BadMagicIsFormatError(t *testing.T) {
	data := []byte{0xCA, 0xFE, 0xBA, 0xBD, 0, 0, 0, 52}
	p := NewParser(Config{})
	_, err := p.Parse(bytes.NewReader(data), "com/example/Bad.class", "/classes", nil)
	if err == nil {
		t.Fatal("expected an error for a bad magic number")
	}
	var fe *errs.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected a *errs.FormatError, got %T: %v", err, err)
	}
}

func containsName(names []string, want string) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}
