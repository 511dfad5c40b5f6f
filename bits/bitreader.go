/*
DESCRIPTION
  bitreader.go provides a bit reader for the AV1 OBU bitstream syntax: fixed
  width fields, signed fields, unsigned LEB128, the AV1 variable length code,
  the AV1 uniform (ns) code and the AV1 subexponential code, all per section
  4.10 of the AV1 specification.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package bits provides a bit reader for the AV1 OBU bitstream syntax.
package bits

import "github.com/pkg/errors"

// ErrShortRead is the sticky error a Reader carries once it has attempted to
// read past the end of its data, or has otherwise encountered malformed
// syntax (e.g. a LEB128 encoding that never terminates).
var ErrShortRead = errors.New("bits: short read")

// Reader reads big-endian bit fields from a byte slice. It carries a sticky
// error: once an invalid read occurs, every subsequent read returns zero
// without clearing the error, so a parser can perform a long run of field
// reads and check Err once at the end, mirroring h264dec's fieldReader.
type Reader struct {
	data []byte
	pos  int // bit position from the start of data.
	err  error
}

// NewReader returns a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Err returns the sticky error, if any read has failed.
func (r *Reader) Err() error { return r.err }

// fail sets the sticky error if not already set, and returns it.
func (r *Reader) fail() error {
	if r.err == nil {
		r.err = ErrShortRead
	}
	return r.err
}

// BitsRead returns the number of bits consumed so far.
func (r *Reader) BitsRead() int { return r.pos }

// BytesRead returns the number of whole bytes touched so far, rounding up.
func (r *Reader) BytesRead() int { return (r.pos + 7) / 8 }

// BitsRemaining returns the number of unread bits in the underlying data.
func (r *Reader) BitsRemaining() int {
	rem := len(r.data)*8 - r.pos
	if rem < 0 {
		return 0
	}
	return rem
}

// Bit reads a single bit, returning 0 or 1.
func (r *Reader) Bit() uint32 {
	if r.err != nil {
		return 0
	}
	byteIdx := r.pos >> 3
	if byteIdx >= len(r.data) {
		r.fail()
		return 0
	}
	shift := 7 - uint(r.pos&7)
	b := (r.data[byteIdx] >> shift) & 1
	r.pos++
	return uint32(b)
}

// Bits reads n (1 <= n <= 32) bits and returns them as an unsigned value in
// the least significant bits of the result.
func (r *Reader) Bits(n int) uint32 {
	if n < 1 || n > 32 {
		r.fail()
		return 0
	}
	if r.err != nil {
		return 0
	}
	if r.BitsRemaining() < n {
		r.fail()
		return 0
	}
	var v uint32
	for i := 0; i < n; i++ {
		v = (v << 1) | r.Bit()
	}
	return v
}

// SBits reads n bits and sign-extends from bit n-1, per AV1's su(n) syntax
// descriptor.
func (r *Reader) SBits(n int) int32 {
	v := r.Bits(n)
	if r.err != nil {
		return 0
	}
	if n <= 0 || n >= 32 {
		return int32(v)
	}
	signBit := uint32(1) << uint(n-1)
	if v&signBit != 0 {
		return int32(v) - int32(signBit<<1)
	}
	return int32(v)
}

// Uleb128 reads an unsigned LEB128 value per the AV1 spec's leb128()
// syntax descriptor: up to 8 bytes, little-endian base-128 groups, each with
// a continuation bit in the high position. Reading more than 8 bytes without
// termination is a malformed stream and sets the sticky error.
func (r *Reader) Uleb128() uint64 {
	if r.err != nil {
		return 0
	}
	var value uint64
	for i := 0; i < 8; i++ {
		b := r.Bits(8)
		if r.err != nil {
			return 0
		}
		value |= uint64(b&0x7f) << uint(i*7)
		if b&0x80 == 0 {
			return value
		}
	}
	r.fail()
	return 0
}

// Vlc reads the AV1 uvlc() variable length code: a run of leading zero bits
// terminated by a 1, followed by that many value bits, per AV1 spec 4.10.3.
// If the leading-zero run reaches 32 bits the code is reserved/malformed and
// Vlc returns math.MaxUint32 without necessarily setting the sticky error (a
// decoder may choose to treat this as a reserved value rather than an error;
// the AV1 spec footnote allows either); callers that must treat it as an
// error should check the returned value.
func (r *Reader) Vlc() uint32 {
	if r.err != nil {
		return 0
	}
	var leadingZeros int
	for {
		b := r.Bit()
		if r.err != nil {
			return 0
		}
		if b != 0 {
			break
		}
		leadingZeros++
		if leadingZeros >= 32 {
			return 0xFFFFFFFF
		}
	}
	if leadingZeros >= 32 {
		return 0xFFFFFFFF
	}
	value := r.Bits(leadingZeros)
	if r.err != nil {
		return 0
	}
	return value + (uint32(1)<<uint(leadingZeros)) - 1
}

// NS reads a value uniformly coded in the range [0, n) per the AV1 spec's
// ns(n) descriptor (4.10.7): floor(log2(n)) bits, plus one more if the
// decoded value would otherwise be ambiguous.
func (r *Reader) NS(n uint32) uint32 {
	if r.err != nil {
		return 0
	}
	if n <= 1 {
		return 0
	}
	w := floorLog2(n) + 1
	m := (uint32(1) << uint(w)) - n
	v := r.Bits(w - 1)
	if r.err != nil {
		return 0
	}
	if v < m {
		return v
	}
	extraBit := r.Bit()
	if r.err != nil {
		return 0
	}
	return (v << 1) - m + extraBit
}

// floorLog2 returns floor(log2(n)) for n >= 1.
func floorLog2(n uint32) int {
	s := 0
	for n != 0 {
		n >>= 1
		s++
	}
	return s - 1
}

// DecodeSubexp reads the AV1 decode_subexp(numSyms) process (spec 5.9.26),
// a subexponential code that favours small values while still being able to
// represent values up to numSyms-1.
func (r *Reader) DecodeSubexp(numSyms uint32) uint32 {
	if r.err != nil {
		return 0
	}
	const k = 3
	i := 0
	mk := uint32(0)
	for {
		b2 := k
		if i != 0 {
			b2 = k + i - 1
		}
		a := uint32(1) << uint(b2)
		if numSyms <= mk+3*a {
			v := r.NS(numSyms - mk)
			if r.err != nil {
				return 0
			}
			return v + mk
		}
		more := r.Bit()
		if r.err != nil {
			return 0
		}
		if more != 0 {
			i++
			mk += a
			continue
		}
		v := r.Bits(b2)
		if r.err != nil {
			return 0
		}
		return v + mk
	}
}

// inverseRecenter implements the AV1 spec's inverse_recenter(r, v) process
// (5.9.27), re-centring a subexponential code around a reference value.
func inverseRecenter(ref, v int32) int32 {
	if v > 2*ref {
		return v
	}
	if v&1 != 0 {
		return ref - ((v + 1) >> 1)
	}
	return ref + (v >> 1)
}

// BitsSubexp implements decode_unsigned_subexp_with_ref(mx, r) (spec
// 5.9.26), reading a subexponential code and recentring it around r, wrapped
// into [0, mx). This is the "bits_subexp(ref, k)" primitive used by global
// motion parsing: callers needing a signed value in
// [low, high) call BitsSubexp(high-low, ref-low) and add low back in.
func (r *Reader) BitsSubexp(mx uint32, ref int32) int32 {
	v := r.DecodeSubexp(mx)
	if r.err != nil {
		return 0
	}
	if (ref << 1) <= int32(mx) {
		return inverseRecenter(ref, int32(v))
	}
	return int32(mx) - 1 - inverseRecenter(int32(mx)-1-ref, int32(v))
}

// SignedBitsSubexp implements decode_signed_subexp_with_ref(low, high, r)
// (spec 5.9.26), returning a value in [low, high).
func (r *Reader) SignedBitsSubexp(low, high, ref int32) int32 {
	x := r.BitsSubexp(uint32(high-low), ref-low)
	if r.err != nil {
		return 0
	}
	return x + low
}

// ByteAlign discards up to 7 bits to realign the reader to a byte boundary,
// per the AV1 spec's byte_alignment() syntax structure.
func (r *Reader) ByteAlign() {
	if r.err != nil {
		return
	}
	for r.pos&7 != 0 {
		r.Bit()
	}
}

// TrailingBits asserts the AV1 spec's trailing_bits() syntax structure: a
// single trailing 1 bit, followed by zero bits up to the next byte boundary.
// If strict is true, it also asserts that no further non-zero bytes remain
// in the Reader's data, per spec section 4.A.
func (r *Reader) TrailingBits(strict bool) error {
	if r.err != nil {
		return r.err
	}
	one := r.Bit()
	if r.err != nil {
		return r.err
	}
	if one != 1 {
		return errors.New("bits: missing trailing one bit")
	}
	for r.pos&7 != 0 {
		b := r.Bit()
		if r.err != nil {
			return r.err
		}
		if b != 0 {
			return errors.New("bits: non-zero trailing padding bit")
		}
	}
	if !strict {
		return nil
	}
	for i := r.pos >> 3; i < len(r.data); i++ {
		if r.data[i] != 0 {
			return errors.New("bits: non-zero byte after trailing bits in strict mode")
		}
	}
	return nil
}
