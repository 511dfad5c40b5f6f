/*
DESCRIPTION
  refslots.go provides the 8-slot reference picture table: each slot owns a
  picture handle, CDF context, segmentation map and motion-vector buffer,
  shared across frames that reference it (spec §3 ReferenceSlot, §4.G).

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

// ReferenceSlot owns one of the eight reference picture slots. A slot holds
// no back-pointer into frames that reference it: the AV1 reference graph is
// a DAG over past frames, so slots are weak containers that own their
// header and nothing more (see DESIGN.md "cyclic graph concern").
type ReferenceSlot struct {
	Picture   Picture
	FrameHdr  *FrameHeader
	SeqHdr    *SequenceHeader
	CDF       CDFContext
	SegMap    SegmentationMap
	MVs       MVBuffer
}

// Populated reports whether this slot holds a frame header, per spec §3.
func (s *ReferenceSlot) Populated() bool {
	return s.FrameHdr != nil
}

// clear drops this slot's references, unreffing any held resources.
func (s *ReferenceSlot) clear() {
	if s.Picture != nil {
		s.Picture.Unref()
	}
	if s.CDF != nil {
		s.CDF.Unref()
	}
	if s.SegMap != nil {
		s.SegMap.Unref()
	}
	if s.MVs != nil {
		s.MVs.Unref()
	}
	*s = ReferenceSlot{}
}

// RefSlotTable owns the NumRefSlots reference picture slots of a
// DecoderContext (spec §4.G).
type RefSlotTable struct {
	slots [NumRefSlots]ReferenceSlot
}

// Get returns the slot at index i. The caller must not retain the returned
// pointer past the next mutation of the table.
func (t *RefSlotTable) Get(i int) *ReferenceSlot {
	return &t.slots[i]
}

// Replace atomically replaces slot i's contents. Any resource previously
// held by the slot is unreffed; the new resources are not reffed by this
// call — callers that want the table to hold a reference must Ref before
// calling Replace, matching the convention used by the teacher's NAL/CDF
// lifecycle primitives (thread_picture_ref/cdf_thread_ref).
func (t *RefSlotTable) Replace(i int, pic Picture, hdr *FrameHeader, seqHdr *SequenceHeader, cdf CDFContext, segMap SegmentationMap, mvs MVBuffer) {
	t.slots[i].clear()
	t.slots[i] = ReferenceSlot{
		Picture:  pic,
		FrameHdr: hdr,
		SeqHdr:   seqHdr,
		CDF:      cdf,
		SegMap:   segMap,
		MVs:      mvs,
	}
}

// ReplaceHeaderOnly updates slot i's header/sequence-header pair without
// touching picture/CDF/segmentation/MV resources, for the "skip" path (spec
// §4.F "On skip... still update slot headers... copying references to the
// current frame_hdr and seq_hdr, no pixel data").
func (t *RefSlotTable) ReplaceHeaderOnly(i int, hdr *FrameHeader, seqHdr *SequenceHeader) {
	t.slots[i].FrameHdr = hdr
	t.slots[i].SeqHdr = seqHdr
}

// FanOutFromKey replaces each of the other 7 slots' picture, frame header,
// sequence header, CDF, segmentation map and MV buffer with those of slot i
// (taking a reference on each resource), used when a KEY frame is emitted
// via show_existing_frame (spec §4.F). Slot i itself is left untouched.
func (t *RefSlotTable) FanOutFromKey(i int) {
	src := t.slots[i]
	for j := 0; j < NumRefSlots; j++ {
		if j == i {
			continue
		}
		if src.Picture != nil {
			src.Picture.Ref()
		}
		if src.CDF != nil {
			src.CDF.Ref()
		}
		if src.SegMap != nil {
			src.SegMap.Ref()
		}
		if src.MVs != nil {
			src.MVs.Ref()
		}
		t.slots[j].clear()
		t.slots[j] = ReferenceSlot{
			Picture:  src.Picture,
			FrameHdr: src.FrameHdr,
			SeqHdr:   src.SeqHdr,
			CDF:      src.CDF,
			SegMap:   src.SegMap,
			MVs:      src.MVs,
		}
	}
}

// DropAll clears every slot, unreffing all held resources. Used when a new,
// structurally different sequence header is parsed (spec §3).
func (t *RefSlotTable) DropAll() {
	for i := range t.slots {
		t.slots[i].clear()
	}
}

// RefreshSlots replaces the slots named by the 8-bit refresh_frame_flags
// mask with the given resources, per spec §3 "refresh_frame_flags replaces
// exactly the set slots".
func (t *RefSlotTable) RefreshSlots(mask uint8, pic Picture, hdr *FrameHeader, seqHdr *SequenceHeader, cdf CDFContext, segMap SegmentationMap, mvs MVBuffer) {
	for i := 0; i < NumRefSlots; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		if pic != nil {
			pic.Ref()
		}
		if cdf != nil {
			cdf.Ref()
		}
		if segMap != nil {
			segMap.Ref()
		}
		if mvs != nil {
			mvs.Ref()
		}
		t.Replace(i, pic, hdr, seqHdr, cdf, segMap, mvs)
	}
}
