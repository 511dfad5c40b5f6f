/*
DESCRIPTION
  framehdr_quant.go implements the quantization, segmentation, delta-q/lf,
  loop filter, CDEF, loop restoration, tx-mode and reference-mode syntax
  structures of uncompressed_header(), per spec §4.C items 2, 6, 7, 8.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package obu

import "github.com/ausocean/av1/bits"

func readDeltaQ(br *bits.Reader) int8 {
	if br.Bit() == 1 {
		return int8(br.SBits(7))
	}
	return 0
}

// parseQuantizationParams implements quantization_params(), AV1 spec 5.9.12.
func parseQuantizationParams(br *bits.Reader, seq *SequenceHeader, h *FrameHeader) error {
	q := &h.Quant
	q.BaseQIdx = uint8(br.Bits(8))
	q.DeltaQYDc = readDeltaQ(br)
	if seq.NumPlanes() > 1 {
		diffUVDelta := false
		if seq.SeparateUVDeltaQ {
			diffUVDelta = br.Bit() == 1
		}
		q.DeltaQUDc = readDeltaQ(br)
		q.DeltaQUAc = readDeltaQ(br)
		if diffUVDelta {
			q.DeltaQVDc = readDeltaQ(br)
			q.DeltaQVAc = readDeltaQ(br)
		} else {
			q.DeltaQVDc = q.DeltaQUDc
			q.DeltaQVAc = q.DeltaQUAc
		}
	}
	q.UsingQMatrix = br.Bit() == 1
	if q.UsingQMatrix {
		q.QMY = uint8(br.Bits(4))
		q.QMU = uint8(br.Bits(4))
		if !seq.SeparateUVDeltaQ {
			q.QMV = q.QMU
		} else {
			q.QMV = uint8(br.Bits(4))
		}
	}
	if br.Err() != nil {
		return wrapInvalidArg(br.Err(), "reading quantization_params")
	}
	return nil
}

// parseSegmentationParams implements segmentation_params(), AV1 spec 5.9.14,
// including the update_data=false inheritance path (spec §4.C item 6): when
// the frame does not update its own segmentation data, FeatureEnabled and
// FeatureData are deep-copied from the primary reference's slot, which must
// be populated.
func parseSegmentationParams(br *bits.Reader, ctx *DecoderContext, h *FrameHeader) error {
	s := &h.SegData
	s.Enabled = br.Bit() == 1
	if !s.Enabled {
		*s = Segmentation{}
		if br.Err() != nil {
			return wrapInvalidArg(br.Err(), "reading segmentation_params")
		}
		return nil
	}

	if h.PrimaryRefFrame == PrimaryRefNone {
		s.UpdateMap = true
		s.TemporalUpdate = false
		s.UpdateData = true
	} else {
		s.UpdateMap = br.Bit() == 1
		if s.UpdateMap {
			s.TemporalUpdate = br.Bit() == 1
		}
		s.UpdateData = br.Bit() == 1
	}

	if s.UpdateData {
		for i := 0; i < 8; i++ {
			for j := SegLvl(0); j < SegLvlMax; j++ {
				enabled := br.Bit() == 1
				s.FeatureEnabled[i][j] = enabled
				if !enabled {
					continue
				}
				bitsN := segFeatureBits[j]
				clippedMax := segFeatureMax[j]
				var v int16
				if bitsN > 0 {
					if segFeatureSigned[j] {
						limit := clippedMax
						raw := int(br.SBits(1 + bitsN))
						if raw < -limit {
							raw = -limit
						}
						if raw > limit {
							raw = limit
						}
						v = int16(raw)
					} else {
						raw := int(br.Bits(bitsN))
						if raw > clippedMax {
							raw = clippedMax
						}
						v = int16(raw)
					}
				}
				s.FeatureData[i][j] = v
			}
		}
	} else {
		if h.PrimaryRefFrame == PrimaryRefNone {
			return invalidArgf("segmentation_params: update_data=false with no primary reference")
		}
		slot := ctx.RefSlots.Get(int(h.RefFrameIdx[h.PrimaryRefFrame]))
		if !slot.Populated() {
			return invalidArgf("segmentation_params: primary reference slot %d is empty", h.RefFrameIdx[h.PrimaryRefFrame])
		}
		s.FeatureEnabled = slot.FrameHdr.SegData.FeatureEnabled
		s.FeatureData = slot.FrameHdr.SegData.FeatureData
	}

	if br.Err() != nil {
		return wrapInvalidArg(br.Err(), "reading segmentation_params")
	}

	s.LastActiveSegID = 0
	s.PreSkipSegID = false
	for i := 0; i < 8; i++ {
		for j := SegLvl(0); j < SegLvlMax; j++ {
			if s.FeatureEnabled[i][j] {
				s.LastActiveSegID = i
				if j >= SegLvlRefFrame {
					s.PreSkipSegID = true
				}
			}
		}
	}
	return nil
}

// parseDeltaQParams implements delta_q_params(), AV1 spec 5.9.17.
func parseDeltaQParams(br *bits.Reader, h *FrameHeader) error {
	h.DeltaQ.Res = 0
	h.DeltaQ.Present = false
	if h.Quant.BaseQIdx > 0 {
		h.DeltaQ.Present = br.Bit() == 1
	}
	if h.DeltaQ.Present {
		h.DeltaQ.Res = uint8(br.Bits(2))
	}
	if br.Err() != nil {
		return wrapInvalidArg(br.Err(), "reading delta_q_params")
	}
	return nil
}

// parseDeltaLFParams implements delta_lf_params(), AV1 spec 5.9.18.
func parseDeltaLFParams(br *bits.Reader, h *FrameHeader) error {
	h.DeltaLF = DeltaLFParams{}
	if !h.DeltaQ.Present {
		return nil
	}
	if !h.AllowIntrabc {
		h.DeltaLF.Present = br.Bit() == 1
	}
	if h.DeltaLF.Present {
		h.DeltaLF.Res = uint8(br.Bits(2))
		h.DeltaLF.Multi = br.Bit() == 1
	}
	if br.Err() != nil {
		return wrapInvalidArg(br.Err(), "reading delta_lf_params")
	}
	return nil
}

// deriveLosslessFlags implements the CodedLossless/AllLossless/LosslessArray
// derivation that follows segmentation_params() in uncompressed_header(),
// AV1 spec 5.9.1: a segment is lossless when its effective base_q_idx and
// all five delta-q terms are zero.
func deriveLosslessFlags(h *FrameHeader) {
	h.CodedLossless = true
	for i := 0; i < 8; i++ {
		qIdx := segQIdx(h, i)
		lossless := qIdx == 0 &&
			h.Quant.DeltaQYDc == 0 &&
			h.Quant.DeltaQUAc == 0 && h.Quant.DeltaQUDc == 0 &&
			h.Quant.DeltaQVAc == 0 && h.Quant.DeltaQVDc == 0
		h.LosslessArray[i] = lossless
		if !lossless {
			h.CodedLossless = false
		}
		if qIdx > 0 {
			// placeholder to keep gofmt-visible structure; SegQMLevel is
			// populated by the external pipeline once plane QM tables are
			// selected.
		}
	}
	h.AllLossless = h.CodedLossless && h.FrameWidth == h.UpscaledWidth
}

// segQIdx returns the effective base_q_idx for segment i, applying the
// SegLvlAltQ delta feature when enabled, clamped to [0,255].
func segQIdx(h *FrameHeader, seg int) int {
	q := int(h.Quant.BaseQIdx)
	if h.SegData.Enabled && h.SegData.FeatureEnabled[seg][SegLvlAltQ] {
		q += int(h.SegData.FeatureData[seg][SegLvlAltQ])
	}
	if q < 0 {
		return 0
	}
	if q > 255 {
		return 255
	}
	return q
}

// parseLoopFilterParams implements loop_filter_params(), AV1 spec 5.9.11.
func parseLoopFilterParams(br *bits.Reader, seq *SequenceHeader, h *FrameHeader) error {
	lf := &h.LF
	if h.CodedLossless || h.AllowIntrabc {
		lf.Level = [4]uint8{0, 0, 0, 0}
		lf.RefDeltas = defaultLoopFilterRefDeltas()
		lf.ModeDeltas = [2]int8{0, 0}
		return nil
	}

	lf.Level[0] = uint8(br.Bits(6))
	lf.Level[1] = uint8(br.Bits(6))
	if seq.NumPlanes() > 1 && (lf.Level[0] != 0 || lf.Level[1] != 0) {
		lf.Level[2] = uint8(br.Bits(6))
		lf.Level[3] = uint8(br.Bits(6))
	}
	lf.Sharpness = uint8(br.Bits(3))
	lf.DeltaEnabled = br.Bit() == 1

	if h.PrimaryRefFrame == PrimaryRefNone {
		lf.RefDeltas = defaultLoopFilterRefDeltas()
		lf.ModeDeltas = [2]int8{0, 0}
	}
	if lf.DeltaEnabled {
		if br.Bit() == 1 { // loop_filter_delta_update
			for i := 0; i < NumRefSlots; i++ {
				if br.Bit() == 1 {
					lf.RefDeltas[i] = int8(br.SBits(7))
				}
			}
			for i := 0; i < 2; i++ {
				if br.Bit() == 1 {
					lf.ModeDeltas[i] = int8(br.SBits(7))
				}
			}
		}
	}
	if br.Err() != nil {
		return wrapInvalidArg(br.Err(), "reading loop_filter_params")
	}
	return nil
}

func defaultLoopFilterRefDeltas() [NumRefSlots]int8 {
	return [NumRefSlots]int8{1, 0, 0, 0, -1, 0, -1, -1}
}

// parseCdefParams implements cdef_params(), AV1 spec 5.9.19.
func parseCdefParams(br *bits.Reader, seq *SequenceHeader, h *FrameHeader) error {
	c := &h.CDEFData
	if h.CodedLossless || h.AllowIntrabc || !seq.EnableCdef {
		c.BitsLog2 = 0
		c.YStrengths[0] = CdefStrength{}
		c.UVStrengths[0] = CdefStrength{}
		return nil
	}

	c.DampingMinus3 = uint8(br.Bits(2))
	c.BitsLog2 = uint8(br.Bits(2))
	n := 1 << c.BitsLog2
	for i := 0; i < n; i++ {
		c.YStrengths[i].Primary = uint8(br.Bits(4))
		c.YStrengths[i].Secondary = uint8(br.Bits(2))
		if c.YStrengths[i].Secondary == 3 {
			c.YStrengths[i].Secondary++
		}
		if seq.NumPlanes() > 1 {
			c.UVStrengths[i].Primary = uint8(br.Bits(4))
			c.UVStrengths[i].Secondary = uint8(br.Bits(2))
			if c.UVStrengths[i].Secondary == 3 {
				c.UVStrengths[i].Secondary++
			}
		}
	}
	if br.Err() != nil {
		return wrapInvalidArg(br.Err(), "reading cdef_params")
	}
	return nil
}

// parseLrParams implements lr_params(), AV1 spec 5.9.20.
func parseLrParams(br *bits.Reader, seq *SequenceHeader, h *FrameHeader) error {
	r := &h.LR
	if h.AllLossless || h.AllowIntrabc || !seq.EnableRestoration {
		r.Types = [3]RestorationType{RestoreNone, RestoreNone, RestoreNone}
		return nil
	}

	remapLrType := [4]RestorationType{RestoreNone, RestoreSwitchable, RestoreWiener, RestoreSgrproj}
	for i := 0; i < seq.NumPlanes(); i++ {
		r.Types[i] = remapLrType[br.Bits(2)]
		if r.Types[i] != RestoreNone {
			r.UsesLR = true
			if i > 0 {
				r.UsesChromaLR = true
			}
		}
	}
	if br.Err() != nil {
		return wrapInvalidArg(br.Err(), "reading lr_params")
	}
	if !r.UsesLR {
		return nil
	}

	if seq.Use128x128Superblock {
		r.UnitShift = uint8(br.Bits(1)) + 1
	} else {
		r.UnitShift = uint8(br.Bits(1))
		if r.UnitShift == 1 {
			r.UnitShift += uint8(br.Bits(1))
		}
	}
	r.UVShift = 0
	if seq.SubsamplingX == 1 && seq.SubsamplingY == 1 && r.UsesChromaLR {
		r.UVShift = uint8(br.Bits(1))
	}
	if br.Err() != nil {
		return wrapInvalidArg(br.Err(), "reading lr_params unit size")
	}
	return nil
}

// parseTxModeParams implements read_tx_mode(), AV1 spec 5.9.21.
func parseTxModeParams(br *bits.Reader, h *FrameHeader) error {
	if h.CodedLossless {
		h.Tx = TxModeOnly4x4
		return nil
	}
	if br.Bit() == 1 {
		h.Tx = TxModeSelect
	} else {
		h.Tx = TxModeLargest
	}
	if br.Err() != nil {
		return wrapInvalidArg(br.Err(), "reading tx_mode")
	}
	return nil
}

// parseFrameReferenceMode implements frame_reference_mode(), AV1 spec 5.9.23.
func parseFrameReferenceMode(br *bits.Reader, h *FrameHeader) error {
	if frameIsIntra(h.FrameType) {
		h.ReferenceSelect = false
		return nil
	}
	h.ReferenceSelect = br.Bit() == 1
	if br.Err() != nil {
		return wrapInvalidArg(br.Err(), "reading frame_reference_mode")
	}
	return nil
}
