/*
DESCRIPTION
  bitreader_test.go provides testing for the Reader in bitreader.go.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/
package bits

import "testing"

func TestBits(t *testing.T) {
	// 1000 1111, 1110 0011
	r := NewReader([]byte{0x8f, 0xe3})
	tests := []struct {
		n    int
		want uint32
	}{
		{4, 0x8},
		{2, 0x3},
		{4, 0xf},
		{6, 0x23},
	}
	for i, test := range tests {
		got := r.Bits(test.n)
		if r.Err() != nil {
			t.Fatalf("test %d: unexpected error: %v", i, r.Err())
		}
		if got != test.want {
			t.Errorf("test %d: got 0x%x, want 0x%x", i, got, test.want)
		}
	}
}

func TestBitsShortRead(t *testing.T) {
	r := NewReader([]byte{0xff})
	r.Bits(8)
	if r.Err() != nil {
		t.Fatalf("unexpected error after valid read: %v", r.Err())
	}
	got := r.Bits(1)
	if r.Err() == nil {
		t.Fatal("expected sticky error on short read, got nil")
	}
	if got != 0 {
		t.Errorf("got %d, want 0 after short read", got)
	}
	// Subsequent reads stay at zero without changing the error.
	err := r.Err()
	r.Bits(8)
	if r.Err() != err {
		t.Errorf("sticky error changed on further read: got %v, want %v", r.Err(), err)
	}
}

func TestSBits(t *testing.T) {
	tests := []struct {
		data []byte
		n    int
		want int32
	}{
		{[]byte{0b01000000}, 4, 4},  // 0100 -> sign bit 0, value 4.
		{[]byte{0b11000000}, 4, -4}, // 1100 -> sign bit 1, value -4.
		{[]byte{0b00000000}, 1, 0},
		{[]byte{0b10000000}, 1, -1},
	}
	for i, test := range tests {
		r := NewReader(test.data)
		got := r.SBits(test.n)
		if r.Err() != nil {
			t.Fatalf("test %d: unexpected error: %v", i, r.Err())
		}
		if got != test.want {
			t.Errorf("test %d: got %d, want %d", i, got, test.want)
		}
	}
}

func TestUleb128(t *testing.T) {
	tests := []struct {
		data []byte
		want uint64
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xe5, 0x8e, 0x26}, 624485},
	}
	for i, test := range tests {
		r := NewReader(test.data)
		got := r.Uleb128()
		if r.Err() != nil {
			t.Fatalf("test %d: unexpected error: %v", i, r.Err())
		}
		if got != test.want {
			t.Errorf("test %d: got %d, want %d", i, got, test.want)
		}
	}
}

func TestUleb128Overrun(t *testing.T) {
	r := NewReader([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80})
	r.Uleb128()
	if r.Err() == nil {
		t.Fatal("expected error for non-terminating leb128, got nil")
	}
}

func TestNS(t *testing.T) {
	// With n=9, w=4, m=16-9=7. Values < 7 use 3 bits, values >= 7 use 4.
	tests := []struct {
		data []byte
		n    uint32
		want uint32
	}{
		{[]byte{0b00000000}, 9, 0},
		{[]byte{0b11000000}, 9, 6}, // 110 -> 6, < m=7 so only 3 bits consumed.
		{[]byte{0b11100000}, 9, 7},
		{[]byte{0b11110000}, 9, 8},
	}
	for i, test := range tests {
		r := NewReader(test.data)
		got := r.NS(test.n)
		if r.Err() != nil {
			t.Fatalf("test %d: unexpected error: %v", i, r.Err())
		}
		if got != test.want {
			t.Errorf("test %d: got %d, want %d", i, got, test.want)
		}
	}
}

func TestTrailingBits(t *testing.T) {
	r := NewReader([]byte{0b10100000})
	r.Bits(2) // consume "10", leaving "100000" i.e. trailing-bits pattern.
	if err := r.TrailingBits(true); err != nil {
		t.Fatalf("unexpected trailing bits error: %v", err)
	}

	r2 := NewReader([]byte{0b00100000})
	r2.Bits(2) // consume "00", next bit is 1 (trailing one), rest zero.
	if err := r2.TrailingBits(true); err != nil {
		t.Fatalf("unexpected trailing bits error: %v", err)
	}

	r3 := NewReader([]byte{0b00000001})
	if err := r3.TrailingBits(false); err == nil {
		t.Fatal("expected error for missing trailing one bit, got nil")
	}
}

func TestBitsSubexpAllZeroInput(t *testing.T) {
	// decode_subexp/BitsSubexp are used symmetrically with an external
	// encoder in the real format; here we just check that small inputs
	// decode without consuming more bits than available and without error,
	// since this module has no encoder to round-trip against (encoding is a
	// non-goal).
	r := NewReader([]byte{0x00, 0x00, 0x00, 0x00})
	got := r.BitsSubexp(1<<12, 0)
	if r.Err() != nil {
		t.Fatalf("unexpected error: %v", r.Err())
	}
	if got != 0 {
		t.Errorf("got %d, want 0 for all-zero input", got)
	}
}
