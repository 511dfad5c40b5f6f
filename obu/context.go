/*
DESCRIPTION
  context.go provides DecoderContext, the process-wide (per independent
  decode) state machine threaded through every parse operation, per spec §3
  and design note "global mutable state... model it as an explicit context
  object".

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
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ausocean/utils/logging"
)

// FrameTypeFilter selects which decode-frame-types are output, per the
// output-filtering table in spec §4.F: drop INTER/SWITCH above REFERENCE,
// INTRA above INTRA.
type FrameTypeFilter uint8

const (
	// FilterAll outputs every shown frame.
	FilterAll FrameTypeFilter = iota
	// FilterReferenceOnly drops every non-KEY frame whose
	// refresh_frame_flags is 0 (INTER, SWITCH and INTRA_ONLY alike).
	FilterReferenceOnly
	// FilterKeyOnly drops everything except KEY frames.
	FilterKeyOnly
)

// Stats are read-only, additive counters exposed for observability (see
// SPEC_FULL.md supplement 5); they never gate behavior.
type Stats struct {
	FramesSubmitted   int
	FramesSkipped     int
	FramesEmitted     int
	OBUsByType        map[Type]int
	BytesConsumed     int64
}

// DecoderContext is the process-wide state machine described in spec §3: it
// owns the current sequence header, the frame header under construction,
// the reference-slot table, pending metadata, and the handoff controller's
// queue.
type DecoderContext struct {
	// Seq is the current sequence header, refcounted and immutable per
	// video sequence; replaced wholesale on every OBU_SEQUENCE_HEADER.
	Seq *SequenceHeader

	// CurrentFrame is the frame header under construction between the
	// parse of a frame-header OBU and its handoff (or skip).
	CurrentFrame *FrameHeader

	// TileGroups accumulates tile-group records for CurrentFrame.
	TileGroups []TileGroupRecord

	// RefSlots is the 8-slot reference picture table (spec §4.G).
	RefSlots RefSlotTable

	// HDRContentLight and HDRMasteringDisplay are the latest parsed HDR
	// metadata descriptors, carried until attached to an output picture.
	HDRContentLight    *HDRContentLight
	HDRMasteringDisplay *HDRMasteringDisplay

	// T35 accumulates ITU-T T.35 payloads for the next emitted frame.
	T35 []ITUT35

	// OperatingPoint is the selected operating-point index; OperatingPointIdc
	// and MaxSpatialID are derived from it against Seq.
	OperatingPoint    int
	OperatingPointIdc uint16
	MaxSpatialID      uint8

	// FrameTypeFilt is the decode-frame-type output filter.
	FrameTypeFilt FrameTypeFilter

	// MaxFrameWidth/MaxFrameHeight cap frame dimensions (spec §7 "range").
	// Zero means unlimited.
	MaxFrameWidth  uint32
	MaxFrameHeight uint32

	// Strict enables the strict-compliance checks named throughout §4.
	Strict bool

	// Submitter is the external pixel-decode pipeline collaborator.
	Submitter FrameSubmitter

	// Log is the diagnostics sink. NewDecoderContext sets it to a no-op
	// logger; ParseOBUs calls it without a nil check and writes to
	// Stats.OBUsByType, so a zero-value DecoderContext (nil Log, nil map) is
	// not ready for use.
	Log Logger

	// Stats are additive, read-only counters (SPEC_FULL.md supplement 5).
	Stats Stats

	// newTemporalUnit is the one-shot latch consumed by
	// TookTemporalUnitBoundary (SPEC_FULL.md supplement 2).
	newTemporalUnit bool

	// pendingWorkerErr is neither set nor read by ParseOBUs; a worker error
	// cached by the handoff controller is returned by
	// handoffController.PendingError instead.
	pendingWorkerErr error

	handoff *handoffController
}

// NewDecoderContext returns a DecoderContext with a no-op Logger and no
// configured limits, ready for use.
func NewDecoderContext() *DecoderContext {
	return &DecoderContext{
		Log:    discardLogger{},
		Stats:  Stats{OBUsByType: make(map[Type]int)},
	}
}

// logf logs at debug level if a Logger is configured.
func (c *DecoderContext) logf(format string, args ...interface{}) {
	if c.Log != nil {
		c.Log.Log(logging.Debug, format, args...)
	}
}

// TookTemporalUnitBoundary reports and clears the one-shot "new temporal
// unit" latch set by an OBU_TEMPORAL_DELIMITER (spec §4.F, SPEC_FULL.md
// supplement 2).
func (c *DecoderContext) TookTemporalUnitBoundary() bool {
	v := c.newTemporalUnit
	c.newTemporalUnit = false
	return v
}

// seqHeaderComparable is the subset of SequenceHeader fields compared for
// structural equality, excluding the operating-point table's per-operating-
// point buffering parameters (operating_parameter_info in AV1 spec
// terminology), per spec §3's lifecycle rule for SequenceHeader.
//
// OperatingPoints is compared by Idc/SeqLevelIdx/SeqTier only, ignoring the
// decoder-model buffering fields, since those can legitimately differ
// between otherwise-identical sequence headers without constituting a "new
// sequence" (see data model §3 and design note on go-cmp usage in
// SPEC_FULL.md).
func seqHeaderComparable(s *SequenceHeader) SequenceHeader {
	cp := *s
	cp.OperatingPoints = make([]OperatingPoint, len(s.OperatingPoints))
	for i, op := range s.OperatingPoints {
		cp.OperatingPoints[i] = OperatingPoint{
			Idc:         op.Idc,
			SeqLevelIdx: op.SeqLevelIdx,
			SeqTier:     op.SeqTier,
		}
	}
	return cp
}

// ReplaceSequenceHeader installs next as the context's current sequence
// header. If next is structurally different from the current one
// (comparing all fields except per-operating-point buffering parameters),
// the entire reference-slot table and the in-progress frame header are
// discarded, and true is returned to signal a "new sequence" event, per
// spec §3. Calling this twice in a row with an identical header is
// idempotent: it raises the event at most once (on the first call) and
// leaves the reference slots populated thereafter, satisfying testable
// property 2.
func (c *DecoderContext) ReplaceSequenceHeader(next *SequenceHeader) bool {
	if c.Seq == nil {
		c.Seq = next
		return true
	}
	same := cmp.Equal(seqHeaderComparable(c.Seq), seqHeaderComparable(next), cmpopts.EquateEmpty())
	c.Seq = next
	if same {
		return false
	}
	c.RefSlots.DropAll()
	c.CurrentFrame = nil
	c.TileGroups = nil
	return true
}

// SelectOperatingPoint selects operating point i against the current
// sequence header, deriving OperatingPointIdc and MaxSpatialID (SPEC_FULL.md
// supplement 3).
func (c *DecoderContext) SelectOperatingPoint(i int) error {
	if c.Seq == nil {
		return invalidArgf("cannot select operating point before a sequence header is parsed")
	}
	if i < 0 || i >= len(c.Seq.OperatingPoints) {
		return invalidArgf("operating point %d out of range", i)
	}
	c.OperatingPoint = i
	c.OperatingPointIdc = c.Seq.OperatingPoints[i].Idc
	c.MaxSpatialID = 0
	for sid := uint8(0); sid < 4; sid++ {
		if c.OperatingPointIdc&(1<<(8+sid)) != 0 {
			c.MaxSpatialID = sid
		}
	}
	return nil
}

// layerInOperatingPoint reports whether a layer with the given temporal and
// spatial id is selected by the current operating point, per spec §4.F.
func (c *DecoderContext) layerInOperatingPoint(temporalID, spatialID uint8) bool {
	if c.OperatingPointIdc == 0 {
		return true
	}
	temporalOK := c.OperatingPointIdc&(1<<temporalID) != 0
	spatialOK := c.OperatingPointIdc&(1<<(8+spatialID)) != 0
	return temporalOK && spatialOK
}

// frameExceedsLimit reports whether hdr's dimensions exceed the configured
// frame-size ceiling (spec §7 "range" error). A zero limit means unlimited.
func (c *DecoderContext) frameExceedsLimit(hdr *FrameHeader) bool {
	if c.MaxFrameWidth != 0 && hdr.UpscaledWidth > c.MaxFrameWidth {
		return true
	}
	if c.MaxFrameHeight != 0 && hdr.FrameHeight > c.MaxFrameHeight {
		return true
	}
	return false
}

// resetFrame discards the in-progress frame header and any accumulated tile
// groups, e.g. after a parse error (spec §7 propagation policy: "discard
// the in-progress frame_hdr but not the seq_hdr or reference slots").
func (c *DecoderContext) resetFrame() {
	c.CurrentFrame = nil
	c.TileGroups = nil
}
