/*
DESCRIPTION
  types.go provides the tagged-variant OBU type enum and the small value
  types shared across the sequence, frame, tile-group and metadata parsers.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package obu provides an AV1 OBU demultiplexer and high-level syntax
// parser: it recognizes OBU types, decodes sequence/frame/tile-group/
// metadata syntax into structured descriptors, validates profile-level
// constraints, and hands completed frames off to an external pixel decoder.
package obu

import "fmt"

// Type identifies the kind of data an OBU carries, per AV1 spec table 6.2.2.
type Type uint8

// OBU types, per AV1 spec section 6.2.2.
const (
	TypeReserved0 Type = iota
	TypeSequenceHeader
	TypeTemporalDelimiter
	TypeFrameHeader
	TypeTileGroup
	TypeMetadata
	TypeFrame
	TypeRedundantFrameHeader
	TypeTileList
	// 9-14 reserved.
	TypePadding Type = 15
)

// String implements fmt.Stringer, naming unrecognized types explicitly as
// the spec's tagged-variant model (§9) requires exhaustive matching.
func (t Type) String() string {
	switch t {
	case TypeSequenceHeader:
		return "SEQUENCE_HEADER"
	case TypeTemporalDelimiter:
		return "TEMPORAL_DELIMITER"
	case TypeFrameHeader:
		return "FRAME_HEADER"
	case TypeTileGroup:
		return "TILE_GROUP"
	case TypeMetadata:
		return "METADATA"
	case TypeFrame:
		return "FRAME"
	case TypeRedundantFrameHeader:
		return "REDUNDANT_FRAME_HEADER"
	case TypeTileList:
		return "TILE_LIST"
	case TypePadding:
		return "PADDING"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(t))
	}
}

// FrameType is the frame_type syntax element, per AV1 spec table 6.8.2.
type FrameType uint8

const (
	FrameKey FrameType = iota
	FrameInter
	FrameIntraOnly
	FrameSwitch
)

func (f FrameType) String() string {
	switch f {
	case FrameKey:
		return "KEY"
	case FrameInter:
		return "INTER"
	case FrameIntraOnly:
		return "INTRA_ONLY"
	case FrameSwitch:
		return "SWITCH"
	default:
		return "INVALID"
	}
}

// ChromaSampling names the subsampling layout of a decoded picture, mirroring
// the shape of the standard library's image.YCbCrSubsampleRatio taxonomy so
// a pixel decoder consuming a SequenceHeader shares vocabulary with it.
type ChromaSampling uint8

const (
	ChromaI400 ChromaSampling = iota // Monochrome.
	ChromaI420
	ChromaI422
	ChromaI444
)

// ScreenContentTools enumerates allow_screen_content_tools' three-state
// encoding (AV1 spec 5.5.1): an explicit off/on plus an adaptive per-frame
// mode signalled by a reserved sentinel value of 2.
type ScreenContentTools uint8

const (
	ToolsOff ScreenContentTools = iota
	ToolsOn
	ToolsAdaptive
)

// ForceIntegerMV enumerates force_integer_mv's three-state encoding,
// identical in shape to ScreenContentTools.
type ForceIntegerMV uint8

const (
	IntegerMVOff ForceIntegerMV = iota
	IntegerMVOn
	IntegerMVAdaptive
)

// GlobalMotionType enumerates the warp model types from AV1 spec 5.9.24,
// ordered so that a larger value is a strict superset of a smaller one's
// degrees of freedom.
type GlobalMotionType uint8

const (
	GMIdentity GlobalMotionType = iota
	GMTranslation
	GMRotZoom
	GMAffine
)

// RefFrame names the seven reference frames (LAST..ALTREF) plus the two
// pseudo-frames (intra, none) used in refidx-adjacent contexts, per AV1 spec
// 6.10.24.
type RefFrame int8

const (
	RefNone     RefFrame = -1
	RefIntra    RefFrame = 0
	RefLast     RefFrame = 1
	RefLast2    RefFrame = 2
	RefLast3    RefFrame = 3
	RefGolden   RefFrame = 4
	RefBwdRef   RefFrame = 5
	RefAltRef2  RefFrame = 6
	RefAltRef   RefFrame = 7
	numRefFrames         = 7 // LAST..ALTREF, i.e. refidx[0..6].
)

// NumRefSlots is the number of reference picture slots (§3).
const NumRefSlots = 8

// PrimaryRefNone is the sentinel for FrameHeader.PrimaryRefFrame meaning "no
// primary reference", per AV1 spec 6.8.2.
const PrimaryRefNone = 7
