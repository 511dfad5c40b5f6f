/*
DESCRIPTION
  framehdr.go provides the FrameHeader type and its uncompressed_header()
  parser, the largest single syntax structure in the AV1 high-level syntax,
  per spec §4.C.

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

// SegLvl names a segmentation feature slot, AV1 spec 5.9.14 table.
type SegLvl int

const (
	SegLvlAltQ SegLvl = iota
	SegLvlAltLFYV
	SegLvlAltLFYH
	SegLvlAltLFU
	SegLvlAltLFV
	SegLvlRefFrame
	SegLvlSkip
	SegLvlGlobalMV
	SegLvlMax
)

var segFeatureBits = [SegLvlMax]int{8, 6, 6, 6, 6, 3, 0, 0}
var segFeatureSigned = [SegLvlMax]bool{true, true, true, true, true, false, false, false}
var segFeatureMax = [SegLvlMax]int{255, 63, 63, 63, 63, 7, 0, 0}

// Segmentation is the segmentation_params() result, spec §4.C item 6.
type Segmentation struct {
	Enabled       bool
	UpdateMap     bool
	TemporalUpdate bool
	UpdateData    bool
	FeatureEnabled [8][SegLvlMax]bool
	FeatureData    [8][SegLvlMax]int16
	LastActiveSegID int
	PreSkipSegID    bool
}

// DeltaQParams is delta_q_params(), spec 5.9.17.
type DeltaQParams struct {
	Present bool
	Res     uint8
}

// DeltaLFParams is delta_lf_params(), spec 5.9.18.
type DeltaLFParams struct {
	Present bool
	Res     uint8
	Multi   bool
}

// Quantization is quantization_params(), spec 5.9.12.
type Quantization struct {
	BaseQIdx   uint8
	DeltaQYDc  int8
	DeltaQUDc  int8
	DeltaQUAc  int8
	DeltaQVDc  int8
	DeltaQVAc  int8
	UsingQMatrix bool
	QMY, QMU, QMV uint8
}

// LoopFilter is loop_filter_params(), spec 5.9.11.
type LoopFilter struct {
	Level        [4]uint8
	Sharpness    uint8
	DeltaEnabled bool
	RefDeltas    [NumRefSlots]int8
	ModeDeltas   [2]int8
}

// CdefStrength pairs the primary/secondary strengths of one CDEF unit.
type CdefStrength struct {
	Primary   uint8
	Secondary uint8
}

// Cdef is cdef_params(), spec 5.9.19.
type Cdef struct {
	DampingMinus3 uint8
	BitsLog2      uint8
	YStrengths    [8]CdefStrength
	UVStrengths   [8]CdefStrength
}

// RestorationType names one plane's loop restoration filter, spec table 6.10.15.
type RestorationType int

const (
	RestoreNone RestorationType = iota
	RestoreWiener
	RestoreSgrproj
	RestoreSwitchable
)

// Restoration is lr_params(), spec 5.9.20.
type Restoration struct {
	Types       [3]RestorationType
	UnitShift   uint8
	UVShift     uint8
	UsesLR      bool
	UsesChromaLR bool
}

// TxMode is read_tx_mode(), spec 5.9.21.
type TxMode int

const (
	TxModeOnly4x4 TxMode = iota
	TxModeLargest
	TxModeSelect
)

// GlobalMotionParams is one reference frame's global motion model, spec 5.9.24.
type GlobalMotionParams struct {
	Type   GlobalMotionType
	Params [6]int32
}

// identityGlobalMotion returns the IDENTITY model's parameter defaults.
func identityGlobalMotion() GlobalMotionParams {
	return GlobalMotionParams{
		Type:   GMIdentity,
		Params: [6]int32{0, 0, 1 << 16, 0, 0, 1 << 16},
	}
}

// FilmGrainParams is film_grain_params(), spec 5.9.30.
type FilmGrainParams struct {
	ApplyGrain      bool
	Seed            uint16
	UpdateGrain     bool
	RefIdx          int8
	NumYPoints      uint8
	PointYValue     [14]uint8
	PointYScaling   [14]uint8
	ChromaScalingFromLuma bool
	NumCbPoints     uint8
	PointCbValue    [10]uint8
	PointCbScaling  [10]uint8
	NumCrPoints     uint8
	PointCrValue    [10]uint8
	PointCrScaling  [10]uint8
	GrainScalingMinus8 uint8
	ARCoeffLag      uint8
	ARCoeffsYPlus128 [24]uint8
	ARCoeffsCbPlus128 [25]uint8
	ARCoeffsCrPlus128 [25]uint8
	ARCoeffShiftMinus6 uint8
	GrainScaleShift  uint8
	CbMult, CbLumaMult, CbOffset uint16
	CrMult, CrLumaMult, CrOffset uint16
	OverlapFlag      bool
	ClipToRestrictedRange bool
}

// FrameHeader is uncompressed_header(), spec §3/§4.C: the full per-frame
// parameter set, either freshly parsed or (for show_existing_frame) copied
// from a reference slot.
type FrameHeader struct {
	ShowExistingFrame bool
	ExistingFrameIdx  uint8
	FrameType         FrameType
	ShowFrame         bool
	ShowableFrame     bool
	ErrorResilientMode bool
	DisableCdfUpdate  bool
	AllowScreenContentTools bool
	ForceIntegerMV    bool
	FrameSizeOverride bool
	OrderHint         uint32
	PrimaryRefFrame   uint8
	RefreshFrameFlags uint8

	FrameWidth, FrameHeight       uint32
	SuperresDenom                 uint8
	UpscaledWidth                 uint32
	RenderWidth, RenderHeight     uint32
	UseSuperres                   bool

	Use128x128Superblock bool

	RefFrameIdx  [7]uint8
	OrderHints   [NumRefSlots]uint32
	RefFrameSignBias [NumRefSlots]bool

	AllowHighPrecisionMV bool
	InterpolationFilter  uint8
	IsMotionModeSwitchable bool
	UseRefFrameMVs       bool
	DisableFrameEndUpdateCDF bool

	AllowIntrabc bool

	TileInfo TileInfo

	Quant Quantization
	SegData Segmentation
	DeltaQ  DeltaQParams
	DeltaLF DeltaLFParams
	LF      LoopFilter
	CodedLossless bool
	AllLossless   bool
	LosslessArray [8]bool
	SegQMLevel    [3][8]uint8
	CDEFData      Cdef
	LR            Restoration
	Tx            TxMode
	ReferenceSelect bool
	SkipModeFrame [2]int
	SkipModePresent bool
	AllowWarpedMotion bool
	ReducedTxSet bool
	GM            [NumRefSlots]GlobalMotionParams
	FilmGrain     FilmGrainParams

	OrderHintBits int

	frameRefsShortSignaling bool
	prevGlobalMotion        [NumRefSlots][6]int32
}

// ParseFrameHeaderPayload parses one frame_header_obu() (AV1 spec 5.9.1)
// against ctx, returning the parsed FrameHeader. The redundant result is
// always false: the header is not compared against ctx.CurrentFrame.
//
// For show_existing_frame the returned header is copied from the named
// reference slot; callers must still run the KEY-frame fan-out and
// show_existing_frame emission themselves (spec §4.F), this function only
// constructs the header value.
func ParseFrameHeaderPayload(br *bits.Reader, ctx *DecoderContext) (hdr *FrameHeader, redundant bool, err error) {
	if ctx.Seq == nil {
		return nil, false, invalidArgf("frame header with no sequence header in context")
	}
	seq := ctx.Seq

	h := &FrameHeader{}

	idLen := 0
	if seq.FrameIDNumbersPresent {
		idLen = int(seq.AdditionalFrameIDLengthMinus1) + int(seq.DeltaFrameIDLengthMinus2) + 3
	}
	allFrames := uint8(0xFF)

	if seq.ReducedStillPictureHeader {
		h.ShowExistingFrame = false
		h.FrameType = FrameKey
		h.ShowFrame = true
		h.ShowableFrame = false
	} else {
		h.ShowExistingFrame = br.Bit() == 1
		if h.ShowExistingFrame {
			h.ExistingFrameIdx = uint8(br.Bits(3))
			if seq.DecoderModelInfoPresent && !seq.EqualPictureInterval {
				br.Bits(int(seq.DecoderModelInfo.FramePresentationTimeLengthMinus1) + 1)
			}
			if seq.FrameIDNumbersPresent {
				br.Bits(idLen)
			}
			if br.Err() != nil {
				return nil, false, wrapInvalidArg(br.Err(), "reading show_existing_frame fields")
			}
			slot := ctx.RefSlots.Get(int(h.ExistingFrameIdx))
			if !slot.Populated() {
				return nil, false, invalidArgf("show_existing_frame references empty slot %d", h.ExistingFrameIdx)
			}
			copied := *slot.FrameHdr
			copied.ShowExistingFrame = true
			copied.ExistingFrameIdx = h.ExistingFrameIdx
			return &copied, false, nil
		}

		h.FrameType = FrameType(br.Bits(2))
		h.ShowFrame = br.Bit() == 1
		if h.ShowFrame && seq.DecoderModelInfoPresent && !seq.EqualPictureInterval {
			br.Bits(int(seq.DecoderModelInfo.FramePresentationTimeLengthMinus1) + 1)
		}
		if h.ShowFrame {
			h.ShowableFrame = h.FrameType != FrameKey
		} else {
			h.ShowableFrame = br.Bit() == 1
		}
		if h.FrameType == FrameSwitch || (h.FrameType == FrameKey && h.ShowFrame) {
			h.ErrorResilientMode = true
		} else {
			h.ErrorResilientMode = br.Bit() == 1
		}
	}

	h.DisableCdfUpdate = br.Bit() == 1
	if seq.SeqForceScreenContentTools == ToolsAdaptive {
		h.AllowScreenContentTools = br.Bit() == 1
	} else {
		h.AllowScreenContentTools = seq.SeqForceScreenContentTools == ToolsOn
	}
	if h.AllowScreenContentTools {
		if seq.SeqForceIntegerMV == IntegerMVAdaptive {
			h.ForceIntegerMV = br.Bit() == 1
		} else {
			h.ForceIntegerMV = seq.SeqForceIntegerMV == IntegerMVOn
		}
	}
	if frameIsIntra(h.FrameType) {
		h.ForceIntegerMV = true
	}

	if seq.FrameIDNumbersPresent {
		br.Bits(idLen) // current_frame_id; not retained, only needed for ref-id validation below.
	}

	if h.FrameType == FrameSwitch {
		h.FrameSizeOverride = true
	} else if !seq.ReducedStillPictureHeader {
		h.FrameSizeOverride = br.Bit() == 1
	}

	h.OrderHintBits = int(seq.OrderHintBits)
	if h.OrderHintBits > 0 {
		h.OrderHint = br.Bits(h.OrderHintBits)
	}

	if frameIsIntra(h.FrameType) || h.ErrorResilientMode {
		h.PrimaryRefFrame = PrimaryRefNone
	} else {
		h.PrimaryRefFrame = uint8(br.Bits(3))
	}

	if seq.DecoderModelInfoPresent {
		if br.Bit() == 1 { // buffer_removal_time_present_flag
			for i := range seq.OperatingPoints {
				if seq.OperatingPoints[i].DecoderModelPresent {
					br.Bits(int(seq.DecoderModelInfo.BufferRemovalTimeLengthMinus1) + 1)
				}
			}
		}
	}

	h.RefreshFrameFlags = allFrames
	if !(h.FrameType == FrameSwitch || (h.FrameType == FrameKey && h.ShowFrame)) {
		h.RefreshFrameFlags = uint8(br.Bits(8))
	}

	if !frameIsIntra(h.FrameType) || h.RefreshFrameFlags != allFrames {
		if h.ErrorResilientMode && seq.EnableOrderHint {
			for i := 0; i < NumRefSlots; i++ {
				refOrderHint := uint32(br.Bits(h.OrderHintBits))
				slot := ctx.RefSlots.Get(i)
				if slot.Populated() && refOrderHint != slot.FrameHdr.OrderHint {
					slot.clear()
				}
			}
		}
	}

	if br.Err() != nil {
		return nil, false, wrapInvalidArg(br.Err(), "reading frame header preamble")
	}

	if frameIsIntra(h.FrameType) {
		if err := parseFrameSize(br, seq, h); err != nil {
			return nil, false, err
		}
		if err := parseRenderSize(br, h); err != nil {
			return nil, false, err
		}
		if h.AllowScreenContentTools && h.UpscaledWidth == h.FrameWidth {
			h.AllowIntrabc = br.Bit() == 1
		}
	} else {
		if seq.EnableOrderHint {
			h.frameRefsShortSignaling = br.Bit() == 1
			if h.frameRefsShortSignaling {
				lastFrameIdx := uint8(br.Bits(3))
				goldFrameIdx := uint8(br.Bits(3))
				if err := computeRefFrameOrder(seq, ctx, h, lastFrameIdx, goldFrameIdx); err != nil {
					return nil, false, err
				}
			}
		}
		for i := 0; i < 7; i++ {
			if !h.frameRefsShortSignaling {
				h.RefFrameIdx[i] = uint8(br.Bits(3))
			}
			if seq.FrameIDNumbersPresent {
				br.Bits(int(seq.DeltaFrameIDLengthMinus2) + 2)
			}
		}

		if h.FrameSizeOverride && !h.ErrorResilientMode {
			if err := parseFrameSizeWithRefs(br, seq, ctx, h); err != nil {
				return nil, false, err
			}
		} else {
			if err := parseFrameSize(br, seq, h); err != nil {
				return nil, false, err
			}
			if err := parseRenderSize(br, h); err != nil {
				return nil, false, err
			}
		}

		if h.ForceIntegerMV {
			h.AllowHighPrecisionMV = false
		} else {
			h.AllowHighPrecisionMV = br.Bit() == 1
		}
		h.InterpolationFilter = parseInterpolationFilter(br)
		h.IsMotionModeSwitchable = br.Bit() == 1
		if h.ErrorResilientMode || !seq.EnableRefFrameMVs {
			h.UseRefFrameMVs = false
		} else {
			h.UseRefFrameMVs = br.Bit() == 1
		}

		for i := 0; i < 7; i++ {
			refFrame := RefLast + RefFrame(i)
			hint := refOrderHintOf(ctx, h.RefFrameIdx[i])
			h.OrderHints[refFrame] = hint
			h.RefFrameSignBias[refFrame] = getRelativeDist(seq, hint, h.OrderHint) > 0
		}
	}

	if br.Err() != nil {
		return nil, false, wrapInvalidArg(br.Err(), "reading frame size / ref fields")
	}

	if seq.ReducedStillPictureHeader || h.DisableCdfUpdate {
		h.DisableFrameEndUpdateCDF = true
	} else {
		h.DisableFrameEndUpdateCDF = br.Bit() == 1
	}

	if err := parseTileInfoInto(br, seq, h); err != nil {
		return nil, false, err
	}
	if err := parseQuantizationParams(br, seq, h); err != nil {
		return nil, false, err
	}
	if err := parseSegmentationParams(br, ctx, h); err != nil {
		return nil, false, err
	}
	if err := parseDeltaQParams(br, h); err != nil {
		return nil, false, err
	}
	if err := parseDeltaLFParams(br, h); err != nil {
		return nil, false, err
	}

	deriveLosslessFlags(h)

	if err := parseLoopFilterParams(br, seq, h); err != nil {
		return nil, false, err
	}
	if err := parseCdefParams(br, seq, h); err != nil {
		return nil, false, err
	}
	if err := parseLrParams(br, seq, h); err != nil {
		return nil, false, err
	}
	if err := parseTxModeParams(br, h); err != nil {
		return nil, false, err
	}
	if err := parseFrameReferenceMode(br, h); err != nil {
		return nil, false, err
	}
	if err := parseSkipModeParams(br, seq, ctx, h); err != nil {
		return nil, false, err
	}

	if frameIsIntra(h.FrameType) || h.ErrorResilientMode || !seq.EnableWarpedMotion {
		h.AllowWarpedMotion = false
	} else {
		h.AllowWarpedMotion = br.Bit() == 1
	}
	h.ReducedTxSet = br.Bit() == 1

	for i := range h.prevGlobalMotion {
		h.prevGlobalMotion[i] = identityGlobalMotion().Params
	}
	if h.PrimaryRefFrame != PrimaryRefNone {
		if slot := ctx.RefSlots.Get(int(h.RefFrameIdx[h.PrimaryRefFrame])); slot.Populated() {
			for i := range slot.FrameHdr.GM {
				h.prevGlobalMotion[i] = slot.FrameHdr.GM[i].Params
			}
		}
	}
	if err := parseGlobalMotionParams(br, h); err != nil {
		return nil, false, err
	}
	if err := parseFilmGrainParams(br, seq, ctx, h); err != nil {
		return nil, false, err
	}

	if br.Err() != nil {
		return nil, false, wrapInvalidArg(br.Err(), "reading frame header trailer")
	}

	return h, false, nil
}

func frameIsIntra(t FrameType) bool {
	return t == FrameKey || t == FrameIntraOnly
}

func parseInterpolationFilter(br *bits.Reader) uint8 {
	isFiltSwitchable := br.Bit() == 1
	if isFiltSwitchable {
		return 4 // SWITCHABLE
	}
	return uint8(br.Bits(2))
}

func parseFrameSize(br *bits.Reader, seq *SequenceHeader, h *FrameHeader) error {
	if h.FrameSizeOverride {
		h.FrameWidth = br.Bits(int(seq.FrameWidthBitsMinus1)+1) + 1
		h.FrameHeight = br.Bits(int(seq.FrameHeightBitsMinus1)+1) + 1
	} else {
		h.FrameWidth = seq.MaxFrameWidthMinus1 + 1
		h.FrameHeight = seq.MaxFrameHeightMinus1 + 1
	}
	if br.Err() != nil {
		return wrapInvalidArg(br.Err(), "reading frame_size")
	}
	return parseSuperresParams(br, seq, h)
}

func parseSuperresParams(br *bits.Reader, seq *SequenceHeader, h *FrameHeader) error {
	const superresNum = 8
	const superresDenomMin = 9
	const superresDenomBits = 3

	if seq.EnableSuperres {
		h.UseSuperres = br.Bit() == 1
	}
	if h.UseSuperres {
		h.SuperresDenom = uint8(br.Bits(superresDenomBits)) + superresDenomMin
	} else {
		h.SuperresDenom = superresNum
	}
	if br.Err() != nil {
		return wrapInvalidArg(br.Err(), "reading superres_params")
	}
	h.UpscaledWidth = h.FrameWidth
	h.FrameWidth = (h.UpscaledWidth*superresNum + h.SuperresDenom/2) / h.SuperresDenom
	return nil
}

func parseRenderSize(br *bits.Reader, h *FrameHeader) error {
	renderAndFrameSizeDiffer := br.Bit() == 1
	if renderAndFrameSizeDiffer {
		h.RenderWidth = br.Bits(16) + 1
		h.RenderHeight = br.Bits(16) + 1
	} else {
		h.RenderWidth = h.UpscaledWidth
		h.RenderHeight = h.FrameHeight
	}
	if br.Err() != nil {
		return wrapInvalidArg(br.Err(), "reading render_size")
	}
	return nil
}

func parseFrameSizeWithRefs(br *bits.Reader, seq *SequenceHeader, ctx *DecoderContext, h *FrameHeader) error {
	for i := 0; i < 7; i++ {
		foundRef := br.Bit() == 1
		if foundRef {
			slot := ctx.RefSlots.Get(int(h.RefFrameIdx[i]))
			if !slot.Populated() {
				return invalidArgf("frame_size_with_refs: ref slot %d empty", h.RefFrameIdx[i])
			}
			h.UpscaledWidth = slot.FrameHdr.UpscaledWidth
			h.FrameWidth = h.UpscaledWidth
			h.FrameHeight = slot.FrameHdr.FrameHeight
			h.RenderWidth = slot.FrameHdr.RenderWidth
			h.RenderHeight = slot.FrameHdr.RenderHeight
			if br.Err() != nil {
				return wrapInvalidArg(br.Err(), "reading frame_size_with_refs")
			}
			return parseSuperresParams(br, seq, h)
		}
	}
	if err := parseFrameSize(br, seq, h); err != nil {
		return err
	}
	return parseRenderSize(br, h)
}

func parseTileInfoInto(br *bits.Reader, seq *SequenceHeader, h *FrameHeader) error {
	ti, err := parseTileInfo(br, h.FrameWidth, h.FrameHeight, h.Use128x128Superblock)
	if err != nil {
		return err
	}
	h.TileInfo = *ti
	return nil
}
