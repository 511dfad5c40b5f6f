/*
DESCRIPTION
  demux_test.go tests obu_header()/obu_size framing, the shared nextOBU
  walk, ParseSequenceHeader's scan, and ParseOBUs' temporal-delimiter and
  malformed-framing handling.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/
package obu

import "testing"

// buildOBU assembles one OBU: obu_header() (always with has_size_field=1,
// no extension) followed by a uleb128 obu_size and the payload.
func buildOBU(t Type, payload []byte) []byte {
	b := &bitBuilder{}
	b.writeBit(0)          // obu_forbidden_bit
	b.writeBits(uint32(t), 4)
	b.writeBit(0)          // obu_extension_flag
	b.writeBit(1)          // obu_has_size_field
	b.writeBit(0)          // obu_reserved_1bit
	header := b.bytes()

	size := &bitBuilder{}
	size.writeUleb128(uint64(len(payload)))

	out := append([]byte{}, header...)
	out = append(out, size.bytes()...)
	out = append(out, payload...)
	return out
}

func TestParseOBUHeaderForbiddenBit(t *testing.T) {
	data := []byte{0b10000000} // forbidden bit set.
	if _, err := parseOBUHeader(data); err == nil {
		t.Fatal("expected error for forbidden bit set, got nil")
	}
}

func TestParseOBUHeaderExtension(t *testing.T) {
	b := &bitBuilder{}
	b.writeBit(0)
	b.writeBits(uint32(TypeFrame), 4)
	b.writeBit(1) // extension_flag
	b.writeBit(0) // has_size_field
	b.writeBit(0)
	b.writeBits(2, 3) // temporal_id
	b.writeBits(1, 2) // spatial_id
	b.writeBits(0, 3) // reserved
	data := b.bytes()

	hdr, err := parseOBUHeader(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hdr.Type != TypeFrame || hdr.TemporalID != 2 || hdr.SpatialID != 1 {
		t.Errorf("got %+v, want Type=FRAME TemporalID=2 SpatialID=1", hdr)
	}
	if hdr.HeaderBytes != 2 {
		t.Errorf("HeaderBytes = %d, want 2", hdr.HeaderBytes)
	}
}

func TestNextOBURoundTrip(t *testing.T) {
	payload := []byte{0xde, 0xad, 0xbe, 0xef}
	data := buildOBU(TypeMetadata, payload)

	hdr, got, consumed, err := nextOBU(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hdr.Type != TypeMetadata {
		t.Errorf("Type = %v, want METADATA", hdr.Type)
	}
	if string(got) != string(payload) {
		t.Errorf("payload = %v, want %v", got, payload)
	}
	if consumed != len(data) {
		t.Errorf("consumed = %d, want %d", consumed, len(data))
	}
}

func TestNextOBUOverrun(t *testing.T) {
	b := &bitBuilder{}
	b.writeBit(0)
	b.writeBits(uint32(TypeMetadata), 4)
	b.writeBit(0)
	b.writeBit(1)
	b.writeBit(0)
	header := b.bytes()
	size := &bitBuilder{}
	size.writeUleb128(100) // claims 100 bytes of payload, none present.
	data := append(header, size.bytes()...)

	if _, _, _, err := nextOBU(data); err == nil {
		t.Fatal("expected error for payload overrunning available data, got nil")
	}
}

// TestNextOBUMalformedLeb128 reproduces the malformed-leb128-length scenario:
// an obu_size field whose continuation bit never clears within the 8-byte
// limit must fail immediately rather than reading past the stream.
func TestNextOBUMalformedLeb128(t *testing.T) {
	b := &bitBuilder{}
	b.writeBit(0)
	b.writeBits(uint32(TypeMetadata), 4)
	b.writeBit(0)
	b.writeBit(1)
	b.writeBit(0)
	header := b.bytes()
	data := append(header, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80)

	if _, _, _, err := nextOBU(data); err == nil {
		t.Fatal("expected error for non-terminating obu_size leb128, got nil")
	}
}

func TestParseOBUsTemporalDelimiter(t *testing.T) {
	data := buildOBU(TypeTemporalDelimiter, nil)
	ctx := NewDecoderContext()
	ctx.CurrentFrame = &FrameHeader{}

	consumed, err := ParseOBUs(ctx, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if consumed != len(data) {
		t.Errorf("consumed = %d, want %d", consumed, len(data))
	}
	if !ctx.TookTemporalUnitBoundary() {
		t.Error("expected the temporal-unit-boundary latch to be set")
	}
	if ctx.CurrentFrame != nil {
		t.Error("temporal delimiter should reset the in-progress frame header")
	}
}

func TestParseOBUsTileGroupWithNoFrameInProgress(t *testing.T) {
	data := buildOBU(TypeTileGroup, []byte{0x00})
	ctx := NewDecoderContext()

	if _, err := ParseOBUs(ctx, data); err == nil {
		t.Fatal("expected error for tile_group_obu with no frame header in progress, got nil")
	}
}

// countingSubmitter is a FrameSubmitter stub that counts calls.
type countingSubmitter struct{ calls int }

func (s *countingSubmitter) SubmitFrame(ctx *DecoderContext) error {
	s.calls++
	return nil
}

// TestFinishFrameSubmitsUnconditionally reproduces testable property 4: once
// a frame's tile groups are complete, submit_frame is invoked regardless of
// the decode-frame-type output filter. Spec §4.F reserves that filter for
// the show_existing_frame emit path only.
func TestFinishFrameSubmitsUnconditionally(t *testing.T) {
	sub := &countingSubmitter{}
	ctx := NewDecoderContext()
	ctx.Submitter = sub
	ctx.FrameTypeFilt = FilterKeyOnly // would reject an INTER frame if applied here.

	hdr := &FrameHeader{FrameType: FrameInter, RefreshFrameFlags: 0}
	hdr.TileInfo.Cols, hdr.TileInfo.Rows = 1, 1

	if err := ctx.finishFrame(hdr, []TileGroupRecord{{Start: 0, End: 0}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.calls != 1 {
		t.Errorf("SubmitFrame calls = %d, want 1 (filter must not gate tile-complete submission)", sub.calls)
	}
	if ctx.Stats.FramesSubmitted != 1 {
		t.Errorf("FramesSubmitted = %d, want 1", ctx.Stats.FramesSubmitted)
	}
}

// TestEmitShowExistingFrameFilter verifies that the decode-frame-type
// filter gates the show_existing_frame emit path: a non-reference INTER
// frame referenced via show_existing_frame is dropped under FilterKeyOnly
// rather than submitted, while a KEY frame is emitted.
func TestEmitShowExistingFrameFilter(t *testing.T) {
	sub := &countingSubmitter{}
	ctx := NewDecoderContext()
	ctx.Submitter = sub
	ctx.FrameTypeFilt = FilterKeyOnly

	inter := &FrameHeader{ShowExistingFrame: true, ExistingFrameIdx: 2, FrameType: FrameInter}
	if err := ctx.emitShowExistingFrame(inter); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.calls != 0 {
		t.Errorf("SubmitFrame calls = %d, want 0 (INTER dropped under FilterKeyOnly)", sub.calls)
	}
	if ctx.Stats.FramesSkipped != 1 {
		t.Errorf("FramesSkipped = %d, want 1", ctx.Stats.FramesSkipped)
	}

	key := &FrameHeader{ShowExistingFrame: true, ExistingFrameIdx: 2, FrameType: FrameKey}
	if err := ctx.emitShowExistingFrame(key); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.calls != 1 {
		t.Errorf("SubmitFrame calls = %d, want 1 (KEY passes FilterKeyOnly)", sub.calls)
	}
}
