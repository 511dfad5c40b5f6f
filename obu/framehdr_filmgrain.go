/*
DESCRIPTION
  framehdr_filmgrain.go implements film_grain_params(), AV1 spec 5.9.30,
  including the update/inherit choice and the monochrome/chroma-scaling-
  from-luma symmetry rules, per spec §4.C item 12.

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

// parseFilmGrainParams implements film_grain_params(), AV1 spec 5.9.30.
func parseFilmGrainParams(br *bits.Reader, seq *SequenceHeader, ctx *DecoderContext, h *FrameHeader) error {
	g := &h.FilmGrain
	*g = FilmGrainParams{}

	if !seq.FilmGrainParamsPresent || (!h.ShowFrame && !h.ShowableFrame) {
		return nil
	}

	g.ApplyGrain = br.Bit() == 1
	if !g.ApplyGrain {
		*g = FilmGrainParams{}
		if br.Err() != nil {
			return wrapInvalidArg(br.Err(), "reading apply_grain")
		}
		return nil
	}

	g.Seed = uint16(br.Bits(16))
	if h.FrameType == FrameInter {
		g.UpdateGrain = br.Bit() == 1
	} else {
		g.UpdateGrain = true
	}

	if !g.UpdateGrain {
		refIdx := uint8(br.Bits(3))
		g.RefIdx = int8(refIdx)
		seed := g.Seed
		isRef := false
		for _, idx := range h.RefFrameIdx {
			if idx == refIdx {
				isRef = true
			}
		}
		if !isRef {
			return invalidArgf("film_grain_params: ref_idx %d is not one of the frame's references", refIdx)
		}
		slot := ctx.RefSlots.Get(int(refIdx))
		if !slot.Populated() {
			return invalidArgf("film_grain_params: ref_idx %d slot empty", refIdx)
		}
		*g = slot.FrameHdr.FilmGrain
		g.Seed = seed
		g.UpdateGrain = false
		g.RefIdx = int8(refIdx)
		if br.Err() != nil {
			return wrapInvalidArg(br.Err(), "reading film_grain_params_ref_idx")
		}
		return nil
	}

	g.NumYPoints = uint8(br.Bits(4))
	if g.NumYPoints > 14 {
		return invalidArgf("film_grain_params: num_y_points=%d exceeds 14", g.NumYPoints)
	}
	for i := 0; i < int(g.NumYPoints); i++ {
		g.PointYValue[i] = uint8(br.Bits(8))
		g.PointYScaling[i] = uint8(br.Bits(8))
		if i > 0 && g.PointYValue[i] <= g.PointYValue[i-1] {
			return invalidArgf("film_grain_params: point_y_value not strictly increasing at %d", i)
		}
	}

	if seq.Monochrome {
		g.ChromaScalingFromLuma = false
	} else {
		g.ChromaScalingFromLuma = br.Bit() == 1
	}

	if seq.Monochrome || g.ChromaScalingFromLuma ||
		(seq.SubsamplingX == 1 && seq.SubsamplingY == 1 && g.NumYPoints == 0) {
		g.NumCbPoints = 0
		g.NumCrPoints = 0
	} else {
		g.NumCbPoints = uint8(br.Bits(4))
		if g.NumCbPoints > 10 {
			return invalidArgf("film_grain_params: num_cb_points=%d exceeds 10", g.NumCbPoints)
		}
		for i := 0; i < int(g.NumCbPoints); i++ {
			g.PointCbValue[i] = uint8(br.Bits(8))
			g.PointCbScaling[i] = uint8(br.Bits(8))
			if i > 0 && g.PointCbValue[i] <= g.PointCbValue[i-1] {
				return invalidArgf("film_grain_params: point_cb_value not strictly increasing at %d", i)
			}
		}
		g.NumCrPoints = uint8(br.Bits(4))
		if g.NumCrPoints > 10 {
			return invalidArgf("film_grain_params: num_cr_points=%d exceeds 10", g.NumCrPoints)
		}
		for i := 0; i < int(g.NumCrPoints); i++ {
			g.PointCrValue[i] = uint8(br.Bits(8))
			g.PointCrScaling[i] = uint8(br.Bits(8))
			if i > 0 && g.PointCrValue[i] <= g.PointCrValue[i-1] {
				return invalidArgf("film_grain_params: point_cr_value not strictly increasing at %d", i)
			}
		}
		// 4:2:0 symmetry (spec §4.C item 12, testable property 8):
		// num_cb_points and num_cr_points must both be zero or both
		// nonzero.
		if seq.SubsamplingX == 1 && seq.SubsamplingY == 1 &&
			(g.NumCbPoints == 0) != (g.NumCrPoints == 0) {
			return invalidArgf("film_grain_params: num_cb_points=%d and num_cr_points=%d break 4:2:0 symmetry", g.NumCbPoints, g.NumCrPoints)
		}
	}

	g.GrainScalingMinus8 = uint8(br.Bits(2))
	g.ARCoeffLag = uint8(br.Bits(2))
	numPosLuma := 2 * int(g.ARCoeffLag) * (int(g.ARCoeffLag) + 1)
	numPosChroma := numPosLuma
	if g.NumYPoints > 0 {
		numPosChroma = numPosLuma + 1
		for i := 0; i < numPosLuma; i++ {
			g.ARCoeffsYPlus128[i] = uint8(br.Bits(8))
		}
	}
	if g.ChromaScalingFromLuma || g.NumCbPoints > 0 {
		for i := 0; i < numPosChroma; i++ {
			g.ARCoeffsCbPlus128[i] = uint8(br.Bits(8))
		}
	}
	if g.ChromaScalingFromLuma || g.NumCrPoints > 0 {
		for i := 0; i < numPosChroma; i++ {
			g.ARCoeffsCrPlus128[i] = uint8(br.Bits(8))
		}
	}

	g.ARCoeffShiftMinus6 = uint8(br.Bits(2))
	g.GrainScaleShift = uint8(br.Bits(2))

	if g.NumCbPoints > 0 {
		g.CbMult = uint16(br.Bits(8))
		g.CbLumaMult = uint16(br.Bits(8))
		g.CbOffset = uint16(br.Bits(9))
	}
	if g.NumCrPoints > 0 {
		g.CrMult = uint16(br.Bits(8))
		g.CrLumaMult = uint16(br.Bits(8))
		g.CrOffset = uint16(br.Bits(9))
	}

	g.OverlapFlag = br.Bit() == 1
	g.ClipToRestrictedRange = br.Bit() == 1

	if br.Err() != nil {
		return wrapInvalidArg(br.Err(), "reading film_grain_params")
	}
	return nil
}
