/*
DESCRIPTION
  framehdr_refs.go implements the short-signaling reference-ordering
  tie-break and skip-mode reference derivation, spec §4.C items 3 and 10.

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

// getRelativeDist computes the signed, wraparound-aware difference between
// two order hints, AV1 spec 5.9.3. When order hints are disabled the
// comparison collapses to 0, matching the reference decoder's behavior for
// the latest_offset edge case recorded in DESIGN.md.
func getRelativeDist(seq *SequenceHeader, a, b uint32) int32 {
	if !seq.EnableOrderHint {
		return 0
	}
	diff := int32(a) - int32(b)
	m := int32(1) << uint(seq.OrderHintBits-1)
	diff = (diff & (m - 1)) - (diff & m)
	return diff
}

// refOrderHintOf returns the order hint of the frame header parked in
// reference slot idx, or 0 if the slot is empty.
func refOrderHintOf(ctx *DecoderContext, idx uint8) uint32 {
	slot := ctx.RefSlots.Get(int(idx))
	if !slot.Populated() {
		return 0
	}
	return slot.FrameHdr.OrderHint
}

// computeRefFrameOrder implements the short-signaling reference-ordering
// tie-break from spec §4.C item 3 (testable property 5), given the two
// explicitly signaled slots (LAST and GOLDEN):
//
//   - earliest_ref is the slot with the minimum diff over all 8 slots,
//     computed before anything is marked used or reserved.
//   - refidx[ALTREF] (position 6) is the slot with the largest diff among
//     the remaining unused, unreserved slots.
//   - refidx[BWDREF], refidx[ALTREF2] (positions 4, 5) are the two smallest-
//     diff unused, unreserved slots, in that order.
//   - refidx[LAST2], refidx[LAST3] (positions 1, 2) each take the
//     largest-diff slot remaining; if none remain, they fall back to
//     earliest_ref.
//
// earliest_ref is reserved out of the general candidate pool the moment it
// is identified: it is only ever assigned via the final fallback, never
// picked up by the largest/smallest-diff selections above, even when it
// would otherwise win one of those comparisons (see DESIGN.md's worked
// check against the spec's literal example: with refidx[0]=3, refidx[3]=4
// and order hints {4..11} against a current order hint of 12, earliest_ref
// is slot 0, and it is excluded from refidx[BWDREF]/[ALTREF2] even though
// its diff is the smallest overall).
func computeRefFrameOrder(seq *SequenceHeader, ctx *DecoderContext, h *FrameHeader, lastFrameIdx, goldFrameIdx uint8) error {
	var diff [NumRefSlots]int32
	for i := 0; i < NumRefSlots; i++ {
		diff[i] = getRelativeDist(seq, refOrderHintOf(ctx, uint8(i)), h.OrderHint)
	}

	earliestRef := 0
	for i := 1; i < NumRefSlots; i++ {
		if diff[i] < diff[earliestRef] {
			earliestRef = i
		}
	}

	for i := range h.RefFrameIdx {
		h.RefFrameIdx[i] = 0xff // sentinel "unassigned"
	}
	h.RefFrameIdx[RefLast-RefLast] = lastFrameIdx
	h.RefFrameIdx[RefGolden-RefLast] = goldFrameIdx

	var used [NumRefSlots]bool
	used[lastFrameIdx] = true
	used[goldFrameIdx] = true
	used[earliestRef] = true // reserved: only the final fallback may draw on it

	pickLargest := func() (int, bool) {
		best := -1
		for i := 0; i < NumRefSlots; i++ {
			if used[i] {
				continue
			}
			if best == -1 || diff[i] > diff[best] {
				best = i
			}
		}
		return best, best != -1
	}
	pickSmallest := func() (int, bool) {
		best := -1
		for i := 0; i < NumRefSlots; i++ {
			if used[i] {
				continue
			}
			if best == -1 || diff[i] < diff[best] {
				best = i
			}
		}
		return best, best != -1
	}

	assign := func(refFrame RefFrame, idx int) {
		h.RefFrameIdx[refFrame-RefLast] = uint8(idx)
		used[idx] = true
	}

	if idx, ok := pickLargest(); ok {
		assign(RefAltRef, idx)
	}
	if idx, ok := pickSmallest(); ok {
		assign(RefBwdRef, idx)
	}
	if idx, ok := pickSmallest(); ok {
		assign(RefAltRef2, idx)
	}

	for _, rf := range []RefFrame{RefLast2, RefLast3} {
		if h.RefFrameIdx[rf-RefLast] != 0xff {
			continue
		}
		if idx, ok := pickLargest(); ok {
			assign(rf, idx)
		} else {
			h.RefFrameIdx[rf-RefLast] = uint8(earliestRef)
		}
	}

	for i := range h.RefFrameIdx {
		if h.RefFrameIdx[i] == 0xff {
			h.RefFrameIdx[i] = uint8(earliestRef)
		}
	}
	return nil
}

// parseSkipModeParams implements skip_mode_params(), AV1 spec 5.9.22: it
// derives the two forward/backward reference frames used by skip mode, or
// disables skip mode entirely when no compatible reference pair exists.
func parseSkipModeParams(br *bits.Reader, seq *SequenceHeader, ctx *DecoderContext, h *FrameHeader) error {
	h.SkipModeFrame = [2]int{int(RefNone), int(RefNone)}

	if frameIsIntra(h.FrameType) || !h.ReferenceSelect || !seq.EnableOrderHint {
		h.SkipModePresent = false
		return nil
	}

	forwardIdx, backwardIdx := -1, -1
	var forwardHint, backwardHint int32
	for i := 0; i < 7; i++ {
		hint := h.OrderHints[RefLast+RefFrame(i)]
		dist := getRelativeDist(seq, hint, h.OrderHint)
		if dist < 0 {
			if forwardIdx < 0 || getRelativeDist(seq, hint, uint32(forwardHint)) > 0 {
				forwardIdx = i
				forwardHint = int32(hint)
			}
		} else if dist > 0 {
			if backwardIdx < 0 || getRelativeDist(seq, hint, uint32(backwardHint)) < 0 {
				backwardIdx = i
				backwardHint = int32(hint)
			}
		}
	}

	if forwardIdx < 0 {
		h.SkipModePresent = false
		return nil
	}

	if backwardIdx >= 0 {
		h.SkipModeFrame[0] = int(RefLast) + min(forwardIdx, backwardIdx)
		h.SkipModeFrame[1] = int(RefLast) + max(forwardIdx, backwardIdx)
	} else {
		secondForwardIdx := -1
		var secondForwardHint int32
		for i := 0; i < 7; i++ {
			if i == forwardIdx {
				continue
			}
			hint := h.OrderHints[RefLast+RefFrame(i)]
			if getRelativeDist(seq, hint, uint32(forwardHint)) >= 0 {
				continue
			}
			if secondForwardIdx < 0 || getRelativeDist(seq, hint, uint32(secondForwardHint)) > 0 {
				secondForwardIdx = i
				secondForwardHint = int32(hint)
			}
		}
		if secondForwardIdx < 0 {
			h.SkipModePresent = false
			return nil
		}
		h.SkipModeFrame[0] = int(RefLast) + min(forwardIdx, secondForwardIdx)
		h.SkipModeFrame[1] = int(RefLast) + max(forwardIdx, secondForwardIdx)
	}

	h.SkipModePresent = br.Bit() == 1
	if br.Err() != nil {
		return wrapInvalidArg(br.Err(), "reading skip_mode_present")
	}
	return nil
}
