/*
DESCRIPTION
  seqhdr.go provides parsing for the AV1 sequence_header_obu() syntax
  structure (AV1 spec section 5.5), producing an immutable SequenceHeader
  descriptor.

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
)

// Colour property sentinels relevant to the strict-mode checks this parser
// performs (AV1 spec Annex A / table 6.4.2).
const (
	colorPrimariesBT709        = 1
	transferCharacteristicsSRGB = 13
	matrixCoefficientsIdentity = 0
)

// OperatingPoint describes one entry of a sequence header's operating point
// table (AV1 spec 5.5.1), used to select a temporal/spatial layer subset.
type OperatingPoint struct {
	// Idc is the 12-bit operating_point_idc: bits[7:0] are a temporal-layer
	// bitmask, bits[11:8] a spatial-layer bitmask. Zero means "no scalability,
	// take everything".
	Idc uint16

	SeqLevelIdx uint8
	SeqTier     uint8

	DecoderModelPresent bool
	DecoderBufferDelay  uint32
	EncoderBufferDelay  uint32
	LowDelayModeFlag    bool

	InitialDisplayDelayPresent bool
	// InitialDisplayDelay defaults to 10 when InitialDisplayDelayPresent is
	// false, per AV1 spec 5.5.1 and this spec's §4.B tie-break.
	InitialDisplayDelay uint8
}

// DecoderModelInfo describes the decoder_model_info() syntax structure
// (AV1 spec 5.5.2), used for HRD-style buffering verification.
type DecoderModelInfo struct {
	BufferDelayLengthMinus1           uint8
	NumUnitsInDecodingTick             uint32
	BufferRemovalTimeLengthMinus1      uint8
	FramePresentationTimeLengthMinus1 uint8
}

// SequenceHeader is the immutable-after-creation descriptor produced by
// parsing one OBU_SEQUENCE_HEADER, per the data model in spec §3.
type SequenceHeader struct {
	Profile                   uint8
	StillPicture              bool
	ReducedStillPictureHeader bool

	TimingInfoPresent        bool
	NumUnitsInTick           uint32
	TimeScale                uint32
	EqualPictureInterval     bool
	NumTicksPerPictureMinus1 uint32

	DecoderModelInfoPresent bool
	DecoderModelInfo        DecoderModelInfo

	OperatingPoints []OperatingPoint

	FrameWidthBitsMinus1  uint8
	FrameHeightBitsMinus1 uint8
	MaxFrameWidthMinus1   uint32
	MaxFrameHeightMinus1  uint32

	FrameIDNumbersPresent         bool
	DeltaFrameIDLengthMinus2      uint8
	AdditionalFrameIDLengthMinus1 uint8

	Use128x128Superblock    bool
	EnableFilterIntra       bool
	EnableIntraEdgeFilter   bool
	EnableInterIntraCompound bool
	EnableMaskedCompound    bool
	EnableWarpedMotion      bool
	EnableDualFilter        bool
	EnableOrderHint         bool
	OrderHintBits           uint8
	EnableJntComp           bool
	EnableRefFrameMVs       bool

	SeqForceScreenContentTools ScreenContentTools
	SeqForceIntegerMV          ForceIntegerMV

	EnableSuperres    bool
	EnableCdef        bool
	EnableRestoration bool

	HighBitdepth bool
	TwelveBit    bool
	BitDepth     uint8
	Monochrome   bool

	ColorDescriptionPresent bool
	ColorPrimaries          uint8
	TransferCharacteristics uint8
	MatrixCoefficients      uint8
	ColorRange              bool
	SubsamplingX            uint8
	SubsamplingY            uint8
	ChromaSamplePosition    uint8
	SeparateUVDeltaQ        bool

	FilmGrainParamsPresent bool

	// Layout is derived from Monochrome/SubsamplingX/SubsamplingY (see
	// ChromaSampling).
	Layout ChromaSampling
}

// NumPlanes returns 1 for monochrome, 3 otherwise.
func (s *SequenceHeader) NumPlanes() int {
	if s.Monochrome {
		return 1
	}
	return 3
}

// OperatingPointIdc returns the idc bitmask for operating point i, or 0 if i
// is out of range. This is a supplement (see SPEC_FULL.md item 3) letting
// callers drive layer selection without re-deriving the table lookup.
func (s *SequenceHeader) OperatingPointIdc(i int) uint16 {
	if i < 0 || i >= len(s.OperatingPoints) {
		return 0
	}
	return s.OperatingPoints[i].Idc
}

// ParseSequenceHeaderPayload parses one sequence_header_obu(), per AV1 spec
// 5.5.1, from br (which must be scoped to exactly this OBU's payload), with
// strict controlling the strict-compliance checks from spec §4.B.
func ParseSequenceHeaderPayload(br *bits.Reader, strict bool) (*SequenceHeader, error) {
	s := &SequenceHeader{}

	s.Profile = uint8(br.Bits(3))
	s.StillPicture = br.Bit() == 1
	s.ReducedStillPictureHeader = br.Bit() == 1

	if s.ReducedStillPictureHeader && !s.StillPicture {
		return nil, invalidArgf("reduced_still_picture_header requires still_picture")
	}

	if s.ReducedStillPictureHeader {
		op := OperatingPoint{
			SeqLevelIdx:         uint8(br.Bits(5)),
			InitialDisplayDelay: 10,
		}
		s.OperatingPoints = []OperatingPoint{op}
	} else {
		s.TimingInfoPresent = br.Bit() == 1
		if s.TimingInfoPresent {
			s.NumUnitsInTick = br.Bits(32)
			s.TimeScale = br.Bits(32)
			if strict && (s.NumUnitsInTick == 0 || s.TimeScale == 0) {
				return nil, invalidArgf("num_units_in_tick and time_scale must be non-zero in strict mode")
			}
			s.EqualPictureInterval = br.Bit() == 1
			if s.EqualPictureInterval {
				s.NumTicksPerPictureMinus1 = br.Vlc()
			}
			s.DecoderModelInfoPresent = br.Bit() == 1
			if s.DecoderModelInfoPresent {
				s.DecoderModelInfo.BufferDelayLengthMinus1 = uint8(br.Bits(5))
				s.DecoderModelInfo.NumUnitsInDecodingTick = br.Bits(32)
				s.DecoderModelInfo.BufferRemovalTimeLengthMinus1 = uint8(br.Bits(5))
				s.DecoderModelInfo.FramePresentationTimeLengthMinus1 = uint8(br.Bits(5))
			}
		}

		initialDisplayDelayPresent := br.Bit() == 1
		numOps := int(br.Bits(5)) + 1
		s.OperatingPoints = make([]OperatingPoint, numOps)
		for i := 0; i < numOps; i++ {
			op := &s.OperatingPoints[i]
			op.Idc = uint16(br.Bits(12))
			if op.Idc != 0 {
				lowByteSet := op.Idc&0x0ff != 0
				highNibbleSet := op.Idc&0xf00 != 0
				if !lowByteSet || !highNibbleSet {
					return nil, invalidArgf("operating_point_idc[%d]=0x%03x is neither 0 nor a valid layer mask", i, op.Idc)
				}
			}
			op.SeqLevelIdx = uint8(br.Bits(5))
			if op.SeqLevelIdx > 7 {
				op.SeqTier = uint8(br.Bits(1))
			}
			if s.DecoderModelInfoPresent {
				op.DecoderModelPresent = br.Bit() == 1
				if op.DecoderModelPresent {
					n := int(s.DecoderModelInfo.BufferDelayLengthMinus1) + 1
					op.DecoderBufferDelay = br.Bits(n)
					op.EncoderBufferDelay = br.Bits(n)
					op.LowDelayModeFlag = br.Bit() == 1
				}
			}
			op.InitialDisplayDelay = 10
			if initialDisplayDelayPresent {
				op.InitialDisplayDelayPresent = br.Bit() == 1
				if op.InitialDisplayDelayPresent {
					op.InitialDisplayDelay = uint8(br.Bits(4)) + 1
				}
			}
		}
	}

	if br.Err() != nil {
		return nil, wrapInvalidArg(br.Err(), "reading operating point table")
	}

	s.FrameWidthBitsMinus1 = uint8(br.Bits(4))
	s.FrameHeightBitsMinus1 = uint8(br.Bits(4))
	s.MaxFrameWidthMinus1 = br.Bits(int(s.FrameWidthBitsMinus1) + 1)
	s.MaxFrameHeightMinus1 = br.Bits(int(s.FrameHeightBitsMinus1) + 1)

	if !s.ReducedStillPictureHeader {
		s.FrameIDNumbersPresent = br.Bit() == 1
	}
	if s.FrameIDNumbersPresent {
		s.DeltaFrameIDLengthMinus2 = uint8(br.Bits(4))
		s.AdditionalFrameIDLengthMinus1 = uint8(br.Bits(3))
	}

	s.Use128x128Superblock = br.Bit() == 1
	s.EnableFilterIntra = br.Bit() == 1
	s.EnableIntraEdgeFilter = br.Bit() == 1

	if s.ReducedStillPictureHeader {
		s.SeqForceScreenContentTools = ToolsAdaptive
		s.SeqForceIntegerMV = IntegerMVAdaptive
	} else {
		s.EnableInterIntraCompound = br.Bit() == 1
		s.EnableMaskedCompound = br.Bit() == 1
		s.EnableWarpedMotion = br.Bit() == 1
		s.EnableDualFilter = br.Bit() == 1
		s.EnableOrderHint = br.Bit() == 1
		if s.EnableOrderHint {
			s.EnableJntComp = br.Bit() == 1
			s.EnableRefFrameMVs = br.Bit() == 1
		}

		seqChooseScreenContentTools := br.Bit() == 1
		if seqChooseScreenContentTools {
			s.SeqForceScreenContentTools = ToolsAdaptive
		} else {
			s.SeqForceScreenContentTools = ScreenContentTools(br.Bits(1))
		}

		if s.SeqForceScreenContentTools > ToolsOff {
			seqChooseIntegerMV := br.Bit() == 1
			if seqChooseIntegerMV {
				s.SeqForceIntegerMV = IntegerMVAdaptive
			} else {
				s.SeqForceIntegerMV = ForceIntegerMV(br.Bits(1))
			}
		} else {
			// force_integer_mv defaults to adaptive (the "absent" sentinel)
			// when screen content tools is off, per spec §4.B.
			s.SeqForceIntegerMV = IntegerMVAdaptive
		}

		if s.EnableOrderHint {
			orderHintBitsMinus1 := uint8(br.Bits(3))
			s.OrderHintBits = orderHintBitsMinus1 + 1
		}
	}

	s.EnableSuperres = br.Bit() == 1
	s.EnableCdef = br.Bit() == 1
	s.EnableRestoration = br.Bit() == 1

	if err := parseColorConfig(br, s, strict); err != nil {
		return nil, err
	}

	s.FilmGrainParamsPresent = br.Bit() == 1

	if br.Err() != nil {
		return nil, wrapInvalidArg(br.Err(), "reading sequence header")
	}

	if s.Monochrome && s.Profile == 1 {
		return nil, invalidArgf("monochrome is impossible for profile 1")
	}
	if s.Layout == ChromaI444 && s.Profile == 2 && s.BitDepth != 12 {
		return nil, invalidArgf("profile 2 I444 requires 12-bit depth")
	}

	return s, nil
}

// parseColorConfig parses the color_config() syntax structure, AV1 spec
// 5.5.2.
func parseColorConfig(br *bits.Reader, s *SequenceHeader, strict bool) error {
	s.HighBitdepth = br.Bit() == 1
	switch {
	case s.Profile == 2 && s.HighBitdepth:
		s.TwelveBit = br.Bit() == 1
		if s.TwelveBit {
			s.BitDepth = 12
		} else {
			s.BitDepth = 10
		}
	case s.Profile <= 2:
		if s.HighBitdepth {
			s.BitDepth = 10
		} else {
			s.BitDepth = 8
		}
	}

	if s.Profile == 1 {
		s.Monochrome = false
	} else {
		s.Monochrome = br.Bit() == 1
	}

	s.ColorDescriptionPresent = br.Bit() == 1
	if s.ColorDescriptionPresent {
		s.ColorPrimaries = uint8(br.Bits(8))
		s.TransferCharacteristics = uint8(br.Bits(8))
		s.MatrixCoefficients = uint8(br.Bits(8))
	} else {
		s.ColorPrimaries = 2   // CP_UNSPECIFIED
		s.TransferCharacteristics = 2 // TC_UNSPECIFIED
		s.MatrixCoefficients = 2      // MC_UNSPECIFIED
	}

	if strict && s.MatrixCoefficients == matrixCoefficientsIdentity {
		// I444 is equivalent to subsampling_x == subsampling_y == 0.
		willBeI444 := s.Monochrome == false &&
			s.ColorPrimaries == colorPrimariesBT709 &&
			s.TransferCharacteristics == transferCharacteristicsSRGB
		if !willBeI444 && !(s.Profile == 1) {
			return invalidArgf("MC_IDENTITY requires I444 in strict mode")
		}
	}

	if s.Monochrome {
		s.ColorRange = br.Bit() == 1
		s.SubsamplingX = 1
		s.SubsamplingY = 1
		s.ChromaSamplePosition = 0
		s.SeparateUVDeltaQ = false
		s.Layout = ChromaI400
		if strict && s.MatrixCoefficients == matrixCoefficientsIdentity {
			return invalidArgf("MC_IDENTITY requires I444 in strict mode")
		}
		if br.Err() != nil {
			return wrapInvalidArg(br.Err(), "reading color config")
		}
		return nil
	}

	if s.ColorPrimaries == colorPrimariesBT709 &&
		s.TransferCharacteristics == transferCharacteristicsSRGB &&
		s.MatrixCoefficients == matrixCoefficientsIdentity {
		s.ColorRange = true
		s.SubsamplingX = 0
		s.SubsamplingY = 0
	} else {
		s.ColorRange = br.Bit() == 1
		switch s.Profile {
		case 0:
			s.SubsamplingX, s.SubsamplingY = 1, 1
		case 1:
			s.SubsamplingX, s.SubsamplingY = 0, 0
		default:
			if s.BitDepth == 12 {
				s.SubsamplingX = uint8(br.Bits(1))
				if s.SubsamplingX == 1 {
					s.SubsamplingY = uint8(br.Bits(1))
				}
			} else {
				s.SubsamplingX, s.SubsamplingY = 1, 0
			}
		}
		if s.SubsamplingX == 1 && s.SubsamplingY == 1 {
			s.ChromaSamplePosition = uint8(br.Bits(2))
		}
	}

	s.SeparateUVDeltaQ = br.Bit() == 1

	switch {
	case s.SubsamplingX == 0 && s.SubsamplingY == 0:
		s.Layout = ChromaI444
	case s.SubsamplingX == 1 && s.SubsamplingY == 0:
		s.Layout = ChromaI422
	case s.SubsamplingX == 1 && s.SubsamplingY == 1:
		s.Layout = ChromaI420
	}

	if br.Err() != nil {
		return wrapInvalidArg(br.Err(), "reading color config")
	}
	return nil
}
