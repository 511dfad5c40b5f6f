/*
DESCRIPTION
  seqhdr_test.go tests sequence_header_obu() parsing: the reduced
  still-picture path and the strict-mode MC_IDENTITY color-config check.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/
package obu

import "testing"

// buildReducedStillPictureSeqHeader builds the minimal sequence header this
// package's reduced_still_picture_header path accepts: profile 0, a single
// operating point, small frame dimensions, default feature flags, 8-bit
// monochrome-false 4:2:0 color config with no explicit color description.
func buildReducedStillPictureSeqHeader() []byte {
	b := &bitBuilder{}
	b.writeBits(0, 3) // seq_profile
	b.writeBit(1)      // still_picture
	b.writeBit(1)      // reduced_still_picture_header
	b.writeBits(0, 5)  // seq_level_idx[0]

	b.writeBits(7, 4) // frame_width_bits_minus_1 = 7 (8 bits)
	b.writeBits(7, 4) // frame_height_bits_minus_1 = 7 (8 bits)
	b.writeBits(63, 8) // max_frame_width_minus_1
	b.writeBits(63, 8) // max_frame_height_minus_1

	b.writeBit(0) // use_128x128_superblock
	b.writeBit(0) // enable_filter_intra
	b.writeBit(0) // enable_intra_edge_filter

	b.writeBit(0) // enable_superres
	b.writeBit(0) // enable_cdef
	b.writeBit(0) // enable_restoration

	// color_config(): profile 0, high_bitdepth=0 -> 8-bit.
	b.writeBit(0) // high_bitdepth
	b.writeBit(0) // mono_chrome
	b.writeBit(0) // color_description_present_flag
	b.writeBit(0) // color_range (not I444/BT709/sRGB/identity shortcut)
	// profile 0: subsampling_x, subsampling_y = 1, 1 implicitly; chroma_sample_position read since both 1.
	b.writeBits(0, 2) // chroma_sample_position
	b.writeBit(0)      // separate_uv_delta_q

	b.writeBit(0) // film_grain_params_present
	b.writeBit(1) // trailing one bit
	return b.bytes()
}

func TestParseSequenceHeaderPayloadReducedStillPicture(t *testing.T) {
	data := buildReducedStillPictureSeqHeader()
	seq, err := ParseSequenceHeaderPayload(newTestReader(data), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seq.Profile != 0 || !seq.ReducedStillPictureHeader {
		t.Errorf("got Profile=%d ReducedStillPictureHeader=%v", seq.Profile, seq.ReducedStillPictureHeader)
	}
	if len(seq.OperatingPoints) != 1 {
		t.Fatalf("got %d operating points, want 1", len(seq.OperatingPoints))
	}
	if seq.BitDepth != 8 {
		t.Errorf("BitDepth = %d, want 8", seq.BitDepth)
	}
	if seq.Layout != ChromaI420 {
		t.Errorf("Layout = %v, want ChromaI420", seq.Layout)
	}
	if seq.MaxFrameWidthMinus1 != 63 || seq.MaxFrameHeightMinus1 != 63 {
		t.Errorf("got %dx%d, want 63x63", seq.MaxFrameWidthMinus1, seq.MaxFrameHeightMinus1)
	}
}

// TestParseSequenceHeaderPayloadStrictMCIdentity reproduces the strict-mode
// MC_IDENTITY scenario: matrix_coefficients signals MC_IDENTITY while the
// color primaries/transfer characteristics are not the BT.709/sRGB pair
// that implies I444, which strict mode must reject.
func TestParseSequenceHeaderPayloadStrictMCIdentity(t *testing.T) {
	b := &bitBuilder{}
	b.writeBits(0, 3) // seq_profile
	b.writeBit(1)
	b.writeBit(1)
	b.writeBits(0, 5)

	b.writeBits(7, 4)
	b.writeBits(7, 4)
	b.writeBits(63, 8)
	b.writeBits(63, 8)

	b.writeBit(0)
	b.writeBit(0)
	b.writeBit(0)
	b.writeBit(0)
	b.writeBit(0)
	b.writeBit(0)

	// color_config() with an explicit, non-BT709/sRGB description and
	// matrix_coefficients == MC_IDENTITY (0).
	b.writeBit(0) // high_bitdepth
	b.writeBit(0) // mono_chrome
	b.writeBit(1) // color_description_present_flag
	b.writeBits(2, 8) // color_primaries (not BT.709)
	b.writeBits(2, 8) // transfer_characteristics (not sRGB)
	b.writeBits(0, 8) // matrix_coefficients = MC_IDENTITY

	data := b.bytes()
	if _, err := ParseSequenceHeaderPayload(newTestReader(data), true); err == nil {
		t.Fatal("expected strict-mode MC_IDENTITY rejection, got nil")
	}
}
