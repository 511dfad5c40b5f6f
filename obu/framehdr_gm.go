/*
DESCRIPTION
  framehdr_gm.go implements global_motion_params() and its per-parameter
  subexponential decode, AV1 spec 5.9.24-5.9.27, per spec §4.C item 11.

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

const (
	warpedModelPrecBits = 16
	gmAbsAlphaBits       = 12
	gmAlphaPrecBits      = 15
	gmAbsTransOnlyBits   = 9
	gmTransOnlyPrecBits  = 3
	gmAbsTransBits       = 12
	gmTransPrecBits      = 6
)

// parseGlobalMotionParams implements global_motion_params(), AV1 spec 5.9.24.
// When PrimaryRefFrame is PrimaryRefNone, every model predicts from IDENTITY
// defaults (spec §4.C item 11); otherwise it predicts from the matching
// reference slot's own global motion parameters.
func parseGlobalMotionParams(br *bits.Reader, h *FrameHeader) error {
	for i := range h.GM {
		h.GM[i] = identityGlobalMotion()
	}
	if frameIsIntra(h.FrameType) {
		return nil
	}

	prev := h.prevGlobalMotion

	for i := 0; i < 7; i++ {
		ref := RefLast + RefFrame(i)
		typ := GMIdentity
		if br.Bit() == 1 { // is_global
			if br.Bit() == 1 { // is_rot_zoom
				typ = GMRotZoom
			} else if br.Bit() == 1 { // is_translation
				typ = GMTranslation
			} else {
				typ = GMAffine
			}
		}
		h.GM[ref].Type = typ
		if br.Err() != nil {
			return wrapInvalidArg(br.Err(), "reading global motion type flags")
		}
		if typ == GMIdentity {
			continue
		}

		refPrev := prev[ref]
		params := &h.GM[ref].Params
		if typ >= GMRotZoom {
			params[2] = readGlobalParam(br, typ, h.AllowHighPrecisionMV, 2, refPrev[2])
			params[3] = readGlobalParam(br, typ, h.AllowHighPrecisionMV, 3, refPrev[3])
			if typ == GMAffine {
				params[4] = readGlobalParam(br, typ, h.AllowHighPrecisionMV, 4, refPrev[4])
				params[5] = readGlobalParam(br, typ, h.AllowHighPrecisionMV, 5, refPrev[5])
			} else {
				params[4] = -params[3]
				params[5] = params[2]
			}
		}
		if typ >= GMTranslation {
			params[0] = readGlobalParam(br, typ, h.AllowHighPrecisionMV, 0, refPrev[0])
			params[1] = readGlobalParam(br, typ, h.AllowHighPrecisionMV, 1, refPrev[1])
		}
		if br.Err() != nil {
			return wrapInvalidArg(br.Err(), "reading global motion params")
		}
	}
	return nil
}

// readGlobalParam implements read_global_param(), AV1 spec 5.9.26.
func readGlobalParam(br *bits.Reader, typ GlobalMotionType, highPrecision bool, idx int, prevVal int32) int32 {
	absBits := gmAbsAlphaBits
	precBits := gmAlphaPrecBits
	if idx < 2 {
		if typ == GMTranslation {
			absBits = gmAbsTransOnlyBits
			precBits = gmTransOnlyPrecBits
			if !highPrecision {
				absBits--
				precBits--
			}
		} else {
			absBits = gmAbsTransBits
			precBits = gmTransPrecBits
		}
	}
	precDiff := warpedModelPrecBits - precBits
	round := int32(0)
	sub := int32(0)
	if idx%3 == 2 {
		round = 1 << warpedModelPrecBits
		sub = 1 << uint(precBits)
	}
	mx := int32(1) << uint(absBits)
	r := (prevVal >> uint(precDiff)) - sub
	v := br.SignedBitsSubexp(-mx, mx+1, r)
	return (v << uint(precDiff)) + round
}
