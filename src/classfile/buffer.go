/*
 * typegraph - a classpath/classfile scanner
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package classfile implements the Classfile Parser: a
// streaming decoder of the JVM class-file binary format, producing one
// ClassInfoUnlinked record per successfully parsed class.
package classfile

import (
	"io"

	"typegraph/src/workpool"
)

const (
	initialBufferSize = 16 * 1024
	refillChunkSize   = 4 * 1024
	maxBufferSize     = 2 << 30 // 2 GiB
)

// buffer is the growable byte buffer backing the parser: it never
// mmaps, always streams, and grows by doubling up to maxBufferSize.
// used is the high-water mark of bytes filled; curr is the read cursor.
type buffer struct {
	data []byte
	used int
	curr int
	r    io.Reader
}

func newBuffer() *buffer {
	return &buffer{data: make([]byte, 0, initialBufferSize)}
}

// reset prepares a pooled buffer for reuse against a new reader,
// amortizing the backing array allocation across many class files.
func (b *buffer) reset(r io.Reader) {
	b.data = b.data[:0]
	b.used = 0
	b.curr = 0
	b.r = r
}

// fillInitial performs the initial read attempt, filling the buffer up
// to its current capacity (at least initialBufferSize on a fresh
// buffer).
func (b *buffer) fillInitial() error {
	if cap(b.data) < initialBufferSize {
		grown := make([]byte, initialBufferSize)
		copy(grown, b.data[:b.used])
		b.data = grown[:b.used]
	}
	return b.fillTo(cap(b.data))
}

// ensure guarantees at least n unread bytes are available starting at
// curr, growing and refilling in refillChunkSize (or larger) steps as
// needed. interrupter, if non-nil, is polled before every refill.
func (b *buffer) ensure(n int, interrupter *workpool.Interrupter) error {
	for b.used-b.curr < n {
		if interrupter != nil && interrupter.Tripped() {
			return errCancelled
		}
		want := b.used + refillChunkSize
		if want-b.curr < n {
			want = b.curr + n
		}
		if want > maxBufferSize {
			return errTruncated
		}
		if cap(b.data) < want {
			newCap := cap(b.data)
			if newCap == 0 {
				newCap = initialBufferSize
			}
			for newCap < want {
				newCap *= 2
				if newCap > maxBufferSize {
					newCap = maxBufferSize
				}
			}
			grown := make([]byte, newCap)
			copy(grown, b.data[:b.used])
			b.data = grown[:b.used]
		}
		before := b.used
		if err := b.fillTo(want); err != nil {
			return err
		}
		if b.used == before {
			return errTruncated // reader is exhausted and we still don't have n bytes
		}
	}
	return nil
}

// fillTo reads from b.r until b.used reaches target or the reader is
// exhausted.
func (b *buffer) fillTo(target int) error {
	if target > cap(b.data) {
		target = cap(b.data)
	}
	b.data = b.data[:cap(b.data)]
	for b.used < target {
		n, err := b.r.Read(b.data[b.used:target])
		b.used += n
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if n == 0 {
			break
		}
	}
	b.data = b.data[:b.used]
	return nil
}

func (b *buffer) u1(interrupter *workpool.Interrupter) (byte, error) {
	if err := b.ensure(1, interrupter); err != nil {
		return 0, err
	}
	v := b.data[b.curr]
	b.curr++
	return v, nil
}

func (b *buffer) u2(interrupter *workpool.Interrupter) (uint16, error) {
	if err := b.ensure(2, interrupter); err != nil {
		return 0, err
	}
	v := uint16(b.data[b.curr])<<8 | uint16(b.data[b.curr+1])
	b.curr += 2
	return v, nil
}

func (b *buffer) u4(interrupter *workpool.Interrupter) (uint32, error) {
	if err := b.ensure(4, interrupter); err != nil {
		return 0, err
	}
	v := uint32(b.data[b.curr])<<24 | uint32(b.data[b.curr+1])<<16 |
		uint32(b.data[b.curr+2])<<8 | uint32(b.data[b.curr+3])
	b.curr += 4
	return v, nil
}

// bytes returns n raw bytes starting at curr, advancing curr.
func (b *buffer) bytes(n int, interrupter *workpool.Interrupter) ([]byte, error) {
	if err := b.ensure(n, interrupter); err != nil {
		return nil, err
	}
	v := b.data[b.curr : b.curr+n]
	b.curr += n
	return v, nil
}

func (b *buffer) skip(n int, interrupter *workpool.Interrupter) error {
	if err := b.ensure(n, interrupter); err != nil {
		return err
	}
	b.curr += n
	return nil
}
