/*
DESCRIPTION
  demux.go provides the OBU demultiplexer entry points: obu_header()
  parsing, operating-point layer filtering, per-type dispatch, and the
  frame-assembly/emission state machine, per spec §4.A and §4.F.

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

import (
	"github.com/ausocean/av1/bits"
	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"
)

// obuHeader is the parsed obu_header(), AV1 spec 5.3.2.
type obuHeader struct {
	Type           Type
	ExtensionFlag  bool
	HasSizeField   bool
	TemporalID     uint8
	SpatialID      uint8
	HeaderBytes    int
}

// parseOBUHeader parses obu_header() from the front of data.
func parseOBUHeader(data []byte) (obuHeader, error) {
	if len(data) < 1 {
		return obuHeader{}, invalidArgf("obu_header: no data")
	}
	br := bits.NewReader(data)
	forbidden := br.Bit()
	h := obuHeader{}
	h.Type = Type(br.Bits(4))
	h.ExtensionFlag = br.Bit() == 1
	h.HasSizeField = br.Bit() == 1
	br.Bit() // obu_reserved_1bit
	if forbidden != 0 {
		return obuHeader{}, invalidArgf("obu_header: forbidden bit set")
	}
	if h.ExtensionFlag {
		h.TemporalID = uint8(br.Bits(3))
		h.SpatialID = uint8(br.Bits(2))
		br.Bits(3) // extension_header_reserved_3bits
	}
	if br.Err() != nil {
		return obuHeader{}, wrapInvalidArg(br.Err(), "reading obu_header")
	}
	h.HeaderBytes = br.BytesRead()
	return h, nil
}

// nextOBU parses the framing (obu_header() plus an optional obu_size leb128)
// of the OBU at the front of data, returning its header, its payload slice,
// and the total bytes consumed including the header and length field. This
// walk is shared verbatim between ParseSequenceHeader's scan and ParseOBUs
// (SPEC_FULL.md supplement 1), rather than re-derived by each.
func nextOBU(data []byte) (obuHeader, []byte, int, error) {
	hdr, err := parseOBUHeader(data)
	if err != nil {
		return obuHeader{}, nil, 0, err
	}

	obuSize := len(data) - hdr.HeaderBytes
	sizeFieldBytes := 0
	if hdr.HasSizeField {
		br := bits.NewReader(data[hdr.HeaderBytes:])
		n := br.Uleb128()
		if br.Err() != nil {
			return obuHeader{}, nil, 0, wrapInvalidArg(br.Err(), "reading obu_size")
		}
		sizeFieldBytes = br.BytesRead()
		obuSize = int(n)
	}

	payloadStart := hdr.HeaderBytes + sizeFieldBytes
	payloadEnd := payloadStart + obuSize
	if payloadEnd > len(data) {
		return obuHeader{}, nil, 0, invalidArgf("obu payload (%d bytes) overruns available data (%d bytes)", payloadEnd, len(data))
	}
	return hdr, data[payloadStart:payloadEnd], payloadEnd, nil
}

// ParseSequenceHeader scans bytes for the first OBU_SEQUENCE_HEADER,
// parsing it into a freshly returned SequenceHeader without modifying any
// persistent context, per spec §6. It returns an error if the scan
// encounters malformed OBU framing, or if no sequence header OBU is found
// before bytes is exhausted.
func ParseSequenceHeader(bytes []byte, strict bool) (*SequenceHeader, error) {
	data := bytes
	for len(data) > 0 {
		hdr, payload, consumed, err := nextOBU(data)
		if err != nil {
			return nil, err
		}
		if hdr.Type == TypeSequenceHeader {
			return ParseSequenceHeaderPayload(bits.NewReader(payload), strict)
		}
		data = data[consumed:]
	}
	return nil, invalidArgf("no sequence header OBU found")
}

// ParseOBUs consumes exactly one OBU from the front of data against ctx,
// returning the number of bytes consumed; callers loop over a temporal
// unit's worth of OBUs, advancing data by the returned count each time. It
// implements parse_obus(), spec §4.A, including operating-point layer
// filtering, temporal-delimiter latching, frame assembly across tile
// groups, and handoff to ctx.Submitter once a frame's tile groups are
// complete.
func ParseOBUs(ctx *DecoderContext, data []byte) (int, error) {
	hdr, payload, total, err := nextOBU(data)
	if err != nil {
		return 0, err
	}

	ctx.Stats.OBUsByType[hdr.Type]++
	ctx.Stats.BytesConsumed += int64(total)

	if hdr.Type != TypeSequenceHeader && hdr.Type != TypeTemporalDelimiter &&
		!ctx.layerInOperatingPoint(hdr.TemporalID, hdr.SpatialID) {
		return total, nil
	}

	switch hdr.Type {
	case TypeTemporalDelimiter:
		ctx.newTemporalUnit = true
		ctx.resetFrame()

	case TypeSequenceHeader:
		seq, err := ParseSequenceHeaderPayload(bits.NewReader(payload), ctx.Strict)
		if err != nil {
			return total, err
		}
		ctx.ReplaceSequenceHeader(seq)

	case TypeFrameHeader, TypeFrame:
		br := bits.NewReader(payload)
		if err := ctx.handleFrameHeader(br); err != nil {
			return total, err
		}
		if hdr.Type == TypeFrame {
			br.ByteAlign()
			if err := ctx.handleTileGroup(br, payload); err != nil {
				return total, err
			}
		}

	case TypeRedundantFrameHeader:
		// A bit-identical resend of the current frame header; nothing to do
		// since ctx.CurrentFrame and ctx.TileGroups are already in progress.

	case TypeTileGroup:
		if ctx.CurrentFrame == nil {
			return total, invalidArgf("tile_group_obu with no frame header in progress")
		}
		br := bits.NewReader(payload)
		if err := ctx.handleTileGroup(br, payload); err != nil {
			return total, err
		}

	case TypeMetadata:
		if err := ParseMetadataPayload(bits.NewReader(payload), payload, ctx); err != nil {
			return total, err
		}

	case TypeTileList, TypePadding:
		// Not part of the core decode path; skipped.

	default:
		ctx.Log.Log(logging.Warning, "unrecognized obu_type %d ignored", hdr.Type)
	}

	return total, nil
}

// handleFrameHeader parses one frame_header_obu() from br and either emits
// it immediately (show_existing_frame) or parks it as ctx.CurrentFrame
// pending tile groups, per spec §4.F. br is left just past the header.
func (c *DecoderContext) handleFrameHeader(br *bits.Reader) error {
	hdr, _, err := ParseFrameHeaderPayload(br, c)
	if err != nil {
		c.resetFrame()
		return err
	}

	if !hdr.ShowExistingFrame && c.frameExceedsLimit(hdr) {
		c.resetFrame()
		return newError(KindRange, errors.Errorf("frame %dx%d exceeds configured limit %dx%d",
			hdr.UpscaledWidth, hdr.FrameHeight, c.MaxFrameWidth, c.MaxFrameHeight), "frame size check")
	}

	if hdr.ShowExistingFrame {
		return c.emitShowExistingFrame(hdr)
	}

	c.CurrentFrame = hdr
	c.TileGroups = nil
	return nil
}

// handleTileGroup parses one tile_group_obu() payload against the
// in-progress frame header, and submits the frame once every tile has been
// accounted for, per spec §4.D/§4.F.
func (c *DecoderContext) handleTileGroup(br *bits.Reader, payload []byte) error {
	if c.CurrentFrame == nil {
		return invalidArgf("tile group with no frame header in progress")
	}
	rec, err := ParseTileGroupPayload(br, payload, c.CurrentFrame)
	if err != nil {
		c.resetFrame()
		return err
	}
	groups, err := appendTileGroup(c.TileGroups, rec)
	if err != nil {
		c.resetFrame()
		return err
	}
	c.TileGroups = groups

	numTiles := c.CurrentFrame.TileInfo.Cols * c.CurrentFrame.TileInfo.Rows
	if tileGroupCount(c.TileGroups) < numTiles {
		return nil
	}

	hdr := c.CurrentFrame
	tiles := c.TileGroups
	c.CurrentFrame = nil
	c.TileGroups = nil
	return c.finishFrame(hdr, tiles)
}

// emitShowExistingFrame handles show_existing_frame: it fans out the
// referenced slot when it holds a KEY frame, then applies the
// decode-frame-type output filter to decide whether the referenced picture
// is actually emitted, per spec §4.F ("emit the referenced picture to
// output (filtering by decode-frame-type: drop INTER/SWITCH above
// REFERENCE, INTRA above INTRA)"). This is the one path the filter gates;
// finishFrame's tile-complete submission is unconditional.
func (c *DecoderContext) emitShowExistingFrame(hdr *FrameHeader) error {
	if hdr.FrameType == FrameKey {
		c.RefSlots.FanOutFromKey(int(hdr.ExistingFrameIdx))
	}
	if !c.frameSelectedForOutput(hdr) {
		c.Stats.FramesSkipped++
		return nil
	}
	return c.emit(hdr, nil)
}

// finishFrame applies the reference-slot refresh and submits the frame for
// pixel decode. Submission on tile-group completion is unconditional: spec
// §4.F's decode-frame-type filter only gates the show_existing_frame emit
// path (handleFrameHeader), matching testable property 4's biconditional
// ("submit_frame is invoked iff ∑(end−start+1) == cols×rows").
func (c *DecoderContext) finishFrame(hdr *FrameHeader, tiles []TileGroupRecord) error {
	c.Stats.FramesSubmitted++
	if err := c.emit(hdr, tiles); err != nil {
		return err
	}
	c.RefSlots.RefreshSlots(hdr.RefreshFrameFlags, nil, hdr, c.Seq, nil, nil, nil)
	return nil
}

// frameSelectedForOutput applies FrameTypeFilt to a show_existing_frame
// emit.
func (c *DecoderContext) frameSelectedForOutput(hdr *FrameHeader) bool {
	switch c.FrameTypeFilt {
	case FilterKeyOnly:
		return hdr.FrameType == FrameKey
	case FilterReferenceOnly:
		return hdr.FrameType == FrameKey || hdr.RefreshFrameFlags != 0
	default:
		return true
	}
}

// emit hands hdr (and its tile groups, nil for show_existing_frame) to
// ctx.Submitter, recording success as a Stats.FramesEmitted increment.
func (c *DecoderContext) emit(hdr *FrameHeader, tiles []TileGroupRecord) error {
	if c.Submitter == nil {
		return nil
	}
	prevFrame, prevTiles := c.CurrentFrame, c.TileGroups
	c.CurrentFrame, c.TileGroups = hdr, tiles
	err := c.Submitter.SubmitFrame(c)
	c.CurrentFrame, c.TileGroups = prevFrame, prevTiles
	if err != nil {
		return newError(KindWorker, err, "submit_frame")
	}
	c.Stats.FramesEmitted++
	return nil
}
