/*
DESCRIPTION
  framehdr_filmgrain_test.go tests film_grain_params(), in particular the
  4:2:0 scaling-point symmetry rule (spec §4.C item 12, testable property 8).

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/
package obu

import "testing"

func filmGrainTestSeq() *SequenceHeader {
	return &SequenceHeader{
		FilmGrainParamsPresent: true,
		SubsamplingX:           1,
		SubsamplingY:           1,
	}
}

// buildFilmGrainUpdate writes apply_grain=1, seed, update_grain (implicit
// true for a KEY frame), num_y_points=1 with one point (with no Y points a
// 4:2:0 stream would not read cb/cr point counts at all),
// chroma_scaling_from_luma=0, then the given cb/cr point counts (each
// followed by value/scaling byte pairs with strictly increasing values),
// then the remaining film_grain_params() fields.
func buildFilmGrainUpdate(numCb, numCr int) []byte {
	var b bitBuilder
	b.writeBit(1)      // apply_grain
	b.writeBits(0, 16) // seed
	// update_grain is implicit (FrameType != INTER in this test), not read.
	b.writeBits(1, 4)  // num_y_points = 1
	b.writeBits(10, 8) // point_y_value
	b.writeBits(0, 8)  // point_y_scaling
	b.writeBit(0)      // chroma_scaling_from_luma = 0

	b.writeBits(uint32(numCb), 4)
	for i := 0; i < numCb; i++ {
		b.writeBits(uint32(10+i*10), 8) // point_cb_value, strictly increasing
		b.writeBits(0, 8)               // point_cb_scaling
	}
	b.writeBits(uint32(numCr), 4)
	for i := 0; i < numCr; i++ {
		b.writeBits(uint32(10+i*10), 8)
		b.writeBits(0, 8)
	}

	b.writeBits(0, 2) // grain_scaling_minus_8
	b.writeBits(0, 2) // ar_coeff_lag = 0 -> no luma AR coefficients
	// With num_y_points > 0 each chroma plane with points reads one AR
	// coefficient.
	if numCb > 0 {
		b.writeBits(128, 8) // ar_coeffs_cb_plus_128[0]
	}
	if numCr > 0 {
		b.writeBits(128, 8) // ar_coeffs_cr_plus_128[0]
	}

	b.writeBits(0, 2) // ar_coeff_shift_minus_6
	b.writeBits(0, 2) // grain_scale_shift

	if numCb > 0 {
		b.writeBits(0, 8) // cb_mult
		b.writeBits(0, 8) // cb_luma_mult
		b.writeBits(0, 9) // cb_offset
	}
	if numCr > 0 {
		b.writeBits(0, 8)
		b.writeBits(0, 8)
		b.writeBits(0, 9)
	}

	b.writeBit(0) // overlap_flag
	b.writeBit(0) // clip_to_restricted_range
	return b.bytes()
}

func TestFilmGrainParamsSymmetric(t *testing.T) {
	seq := filmGrainTestSeq()
	ctx := NewDecoderContext()
	ctx.Seq = seq
	h := &FrameHeader{FrameType: FrameKey, ShowFrame: true}

	br := newTestReader(buildFilmGrainUpdate(2, 2))
	if err := parseFilmGrainParams(br, seq, ctx, h); err != nil {
		t.Fatalf("unexpected error for symmetric cb/cr point counts: %v", err)
	}
	if h.FilmGrain.NumCbPoints != 2 || h.FilmGrain.NumCrPoints != 2 {
		t.Errorf("NumCbPoints/NumCrPoints = %d/%d, want 2/2", h.FilmGrain.NumCbPoints, h.FilmGrain.NumCrPoints)
	}
}

func TestFilmGrainParamsAsymmetricFails(t *testing.T) {
	seq := filmGrainTestSeq()
	ctx := NewDecoderContext()
	ctx.Seq = seq
	h := &FrameHeader{FrameType: FrameKey, ShowFrame: true}

	br := newTestReader(buildFilmGrainUpdate(2, 0))
	if err := parseFilmGrainParams(br, seq, ctx, h); err == nil {
		t.Fatalf("expected an error for num_cb_points=2, num_cr_points=0")
	}
}

// TestFilmGrainParamsInherit covers the update_grain=false path: the entire
// descriptor is copied from the referenced slot, except seed.
func TestFilmGrainParamsInherit(t *testing.T) {
	seq := filmGrainTestSeq()
	ctx := NewDecoderContext()
	ctx.Seq = seq

	refHdr := &FrameHeader{}
	refHdr.FilmGrain = FilmGrainParams{ApplyGrain: true, Seed: 999, NumYPoints: 3}
	ctx.RefSlots.Replace(2, nil, refHdr, seq, nil, nil, nil)

	h := &FrameHeader{FrameType: FrameInter, ShowFrame: true}
	h.RefFrameIdx[1] = 2

	var b bitBuilder
	b.writeBit(1)      // apply_grain
	b.writeBits(42, 16) // seed
	b.writeBit(0)      // update_grain = false (FrameType == INTER, so read)
	b.writeBits(2, 3)  // film_grain_params_ref_idx = slot 2, named by RefFrameIdx[1]

	if err := parseFilmGrainParams(newTestReader(b.bytes()), seq, ctx, h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.FilmGrain.NumYPoints != 3 {
		t.Errorf("NumYPoints = %d, want 3 (inherited)", h.FilmGrain.NumYPoints)
	}
	if h.FilmGrain.Seed != 42 {
		t.Errorf("Seed = %d, want 42 (not inherited)", h.FilmGrain.Seed)
	}
}
