/*
DESCRIPTION
  helpers_test.go provides a small bit-level stream builder shared by this
  package's tests, for constructing synthetic OBU payloads without a
  dependency on an external AV1 encoder.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/
package obu

import "github.com/ausocean/av1/bits"

// newTestReader is a thin alias for bits.NewReader, so test files in this
// package don't need to import the bits package themselves just to build a
// *bits.Reader over a synthetic stream.
func newTestReader(data []byte) *bits.Reader {
	return bits.NewReader(data)
}

// bitBuilder accumulates bits big-endian into bytes, mirroring the layout
// bits.Reader expects.
type bitBuilder struct {
	buf    []byte
	cur    byte
	nbits  uint
}

func (b *bitBuilder) writeBit(v uint32) {
	b.cur = (b.cur << 1) | byte(v&1)
	b.nbits++
	if b.nbits == 8 {
		b.buf = append(b.buf, b.cur)
		b.cur = 0
		b.nbits = 0
	}
}

func (b *bitBuilder) writeBits(v uint32, n int) {
	for i := n - 1; i >= 0; i-- {
		b.writeBit((v >> uint(i)) & 1)
	}
}

func (b *bitBuilder) writeUleb128(v uint64) {
	for {
		byt := v & 0x7f
		v >>= 7
		if v != 0 {
			b.writeBits(uint32(byt)|0x80, 8)
		} else {
			b.writeBits(uint32(byt), 8)
			break
		}
	}
}

// bytes flushes any partial byte (zero-padded) and returns the built stream.
func (b *bitBuilder) bytes() []byte {
	out := make([]byte, len(b.buf))
	copy(out, b.buf)
	if b.nbits > 0 {
		out = append(out, b.cur<<(8-b.nbits))
	}
	return out
}
