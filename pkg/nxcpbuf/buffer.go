// Package nxcpbuf provides the low-level big-endian buffer used by the NXCP
// frame codec. Integers are written in network byte order; variable-length
// values carry a uint32 length prefix.
package nxcpbuf

import (
	"encoding/binary"
	"math"
)

// Buffer is a growable byte buffer for NXCP encoding.
type Buffer struct {
	data []byte
}

// NewBuffer returns a Buffer pre-allocated with the given capacity.
func NewBuffer(cap int) *Buffer {
	return &Buffer{data: make([]byte, 0, cap)}
}

// Bytes returns the accumulated encoded bytes.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the number of bytes written so far.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Reset clears the buffer for reuse.
func (b *Buffer) Reset() {
	b.data = b.data[:0]
}

// grow ensures room for n additional bytes, returning the write offset.
func (b *Buffer) grow(n int) int {
	off := len(b.data)
	need := off + n
	if need <= cap(b.data) {
		b.data = b.data[:need]
		return off
	}
	newCap := cap(b.data) * 2
	if newCap < need {
		newCap = need
	}
	tmp := make([]byte, need, newCap)
	copy(tmp, b.data)
	b.data = tmp
	return off
}

// WriteUint8 appends a single byte.
func (b *Buffer) WriteUint8(v uint8) {
	off := b.grow(1)
	b.data[off] = v
}

// WriteUint16 appends a 16-bit unsigned integer.
func (b *Buffer) WriteUint16(v uint16) {
	off := b.grow(2)
	binary.BigEndian.PutUint16(b.data[off:], v)
}

// WriteUint32 appends a 32-bit unsigned integer.
func (b *Buffer) WriteUint32(v uint32) {
	off := b.grow(4)
	binary.BigEndian.PutUint32(b.data[off:], v)
}

// WriteUint64 appends a 64-bit unsigned integer.
func (b *Buffer) WriteUint64(v uint64) {
	off := b.grow(8)
	binary.BigEndian.PutUint64(b.data[off:], v)
}

// WriteFloat64 appends a 64-bit IEEE 754 float.
func (b *Buffer) WriteFloat64(v float64) {
	b.WriteUint64(math.Float64bits(v))
}

// WriteString appends a length-prefixed UTF-8 string (uint32 length + bytes).
func (b *Buffer) WriteString(s string) {
	b.WriteUint32(uint32(len(s)))
	off := b.grow(len(s))
	copy(b.data[off:], s)
}

// WriteBytes appends a length-prefixed byte slice (uint32 length + bytes).
func (b *Buffer) WriteBytes(p []byte) {
	b.WriteUint32(uint32(len(p)))
	b.WriteRaw(p)
}

// WriteRaw appends p without a length prefix.
func (b *Buffer) WriteRaw(p []byte) {
	off := b.grow(len(p))
	copy(b.data[off:], p)
}

// Reserve appends n zero bytes and returns their offset, for headers that
// are patched once the body is known.
func (b *Buffer) Reserve(n int) int {
	off := b.grow(n)
	clear(b.data[off : off+n])
	return off
}

// PutUint16At overwrites two bytes at off.
func (b *Buffer) PutUint16At(off int, v uint16) {
	binary.BigEndian.PutUint16(b.data[off:], v)
}

// PutUint32At overwrites four bytes at off.
func (b *Buffer) PutUint32At(off int, v uint32) {
	binary.BigEndian.PutUint32(b.data[off:], v)
}
