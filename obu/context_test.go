/*
DESCRIPTION
  context_test.go tests DecoderContext's sequence-header replacement
  idempotency and operating-point selection.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/
package obu

import "testing"

func TestReplaceSequenceHeaderFirstCallIsNewSequence(t *testing.T) {
	ctx := NewDecoderContext()
	seq := &SequenceHeader{Profile: 0, OperatingPoints: []OperatingPoint{{Idc: 0}}}
	if !ctx.ReplaceSequenceHeader(seq) {
		t.Error("first ReplaceSequenceHeader call should report a new sequence")
	}
}

// TestReplaceSequenceHeaderIdempotent reproduces testable property 2:
// replacing a sequence header with a structurally identical one (differing
// only in per-operating-point buffering fields) is idempotent and does not
// raise the new-sequence event a second time, nor drop reference slots.
func TestReplaceSequenceHeaderIdempotent(t *testing.T) {
	ctx := NewDecoderContext()
	seq1 := &SequenceHeader{
		Profile:         0,
		OperatingPoints: []OperatingPoint{{Idc: 0, SeqLevelIdx: 4, DecoderBufferDelay: 10}},
	}
	ctx.ReplaceSequenceHeader(seq1)
	ctx.RefSlots.Replace(0, nil, &FrameHeader{OrderHint: 1}, seq1, nil, nil, nil)

	seq2 := &SequenceHeader{
		Profile:         0,
		OperatingPoints: []OperatingPoint{{Idc: 0, SeqLevelIdx: 4, DecoderBufferDelay: 99}},
	}
	if ctx.ReplaceSequenceHeader(seq2) {
		t.Error("structurally identical sequence header should not report a new sequence")
	}
	if !ctx.RefSlots.Get(0).Populated() {
		t.Error("reference slots should survive an idempotent sequence header replacement")
	}
}

func TestReplaceSequenceHeaderDifferentDropsSlots(t *testing.T) {
	ctx := NewDecoderContext()
	seq1 := &SequenceHeader{Profile: 0, OperatingPoints: []OperatingPoint{{Idc: 0}}}
	ctx.ReplaceSequenceHeader(seq1)
	ctx.RefSlots.Replace(0, nil, &FrameHeader{OrderHint: 1}, seq1, nil, nil, nil)

	seq2 := &SequenceHeader{Profile: 2, OperatingPoints: []OperatingPoint{{Idc: 0}}}
	if !ctx.ReplaceSequenceHeader(seq2) {
		t.Error("structurally different sequence header should report a new sequence")
	}
	if ctx.RefSlots.Get(0).Populated() {
		t.Error("reference slots should be dropped on a new sequence")
	}
}

// TestFrameExceedsLimit covers spec §7's "range" error: a configured
// frame-size ceiling of zero means unlimited, and either dimension
// exceeding a nonzero ceiling trips the limit.
func TestFrameExceedsLimit(t *testing.T) {
	ctx := NewDecoderContext()
	hdr := &FrameHeader{UpscaledWidth: 1920, FrameHeight: 1080}

	if ctx.frameExceedsLimit(hdr) {
		t.Error("zero-valued limits should mean unlimited")
	}

	ctx.MaxFrameWidth = 1280
	if !ctx.frameExceedsLimit(hdr) {
		t.Error("expected frame wider than MaxFrameWidth to exceed the limit")
	}

	ctx.MaxFrameWidth = 0
	ctx.MaxFrameHeight = 720
	if !ctx.frameExceedsLimit(hdr) {
		t.Error("expected frame taller than MaxFrameHeight to exceed the limit")
	}

	ctx.MaxFrameWidth = 1920
	ctx.MaxFrameHeight = 1080
	if ctx.frameExceedsLimit(hdr) {
		t.Error("frame exactly at the ceiling should not exceed it")
	}
}

func TestSelectOperatingPoint(t *testing.T) {
	ctx := NewDecoderContext()
	if err := ctx.SelectOperatingPoint(0); err == nil {
		t.Error("expected error selecting an operating point before a sequence header is parsed")
	}

	ctx.Seq = &SequenceHeader{OperatingPoints: []OperatingPoint{{Idc: 0x0101}}}
	if err := ctx.SelectOperatingPoint(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ctx.MaxSpatialID != 0 {
		t.Errorf("MaxSpatialID = %d, want 0", ctx.MaxSpatialID)
	}

	if err := ctx.SelectOperatingPoint(1); err == nil {
		t.Error("expected error for out-of-range operating point index")
	}
}
