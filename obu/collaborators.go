/*
DESCRIPTION
  collaborators.go declares the external interfaces this package calls or
  fulfills but does not implement: the pixel-decoding pipeline, CDF/
  segmentation/motion-vector buffers, picture lifecycle primitives, and the
  diagnostics sink. These are explicitly out of scope per spec §1.

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

// Picture is a reference-counted decoded-picture handle, owned by a
// ReferenceSlot and produced by the external pixel decoder. This package
// never looks inside one; it only carries it between slots and the
// FrameSubmitter.
type Picture interface {
	// Ref increments the picture's reference count.
	Ref()
	// Unref decrements the picture's reference count, releasing underlying
	// buffers via the memory-pool interface once it reaches zero.
	Unref()
	// FrameHeader returns the frame header this picture was decoded from.
	FrameHeader() *FrameHeader
	// SequenceHeader returns the sequence header active when this picture
	// was decoded.
	SequenceHeader() *SequenceHeader
}

// CDFContext is an opaque, reference-counted CDF state buffer for the
// arithmetic coder. Ownership transfer is the caller's responsibility; this
// package only threads the handle through slot replacement.
type CDFContext interface {
	Ref()
	Unref()
}

// SegmentationMap is an opaque, reference-counted per-block segmentation id
// buffer.
type SegmentationMap interface {
	Ref()
	Unref()
}

// MVBuffer is an opaque, reference-counted motion-vector buffer used for
// ref_frame_mvs projection.
type MVBuffer interface {
	Ref()
	Unref()
}

// FrameSubmitter is the collaborator interface for handing a fully parsed
// frame off to the external pixel-decoding pipeline (spec §6
// "submit_frame(context) -> status").
type FrameSubmitter interface {
	// SubmitFrame transfers ownership of the current frame header and its
	// accumulated tile-group records to the decoder pipeline. It must not
	// retain ctx beyond the call; ctx.CurrentFrame and ctx.TileGroups are
	// only valid while collecting the frame and are reset once submitted.
	SubmitFrame(ctx *DecoderContext) error
}

// Logger is the diagnostics sink collaborator (spec §6 "log(context, fmt,
// ...)"), shaped identically to the teacher's own revid.Logger so a caller
// can hand this package a github.com/ausocean/utils/logging.Logger directly
// or any other implementation of the same two methods. See package obulog
// for a zap-backed one, which is what cmd/av1probe installs.
type Logger interface {
	SetLevel(level int8)
	Log(level int8, message string, params ...interface{})
}

// discardLogger is a Logger that drops everything; NewDecoderContext
// installs it as the default Log.
type discardLogger struct{}

func (discardLogger) SetLevel(int8)                    {}
func (discardLogger) Log(int8, string, ...interface{}) {}
