/*
DESCRIPTION
  metadata.go provides parsing for OBU_METADATA: HDR content-light and
  mastering-display descriptors, ITU-T T.35 user data, with scalability and
  timecode metadata recognized but ignored, per spec §4.E.

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
)

// Metadata type tags, per AV1 spec table 6.7.1.
const (
	metaHDRCLL      = 1
	metaHDRMDCV     = 2
	metaScalability = 3
	metaITUT35      = 4
	metaTimecode    = 5
)

// HDRContentLight is the metadata_hdr_cll() descriptor, AV1 spec 5.8.2.
type HDRContentLight struct {
	MaxCLL  uint16
	MaxFALL uint16
}

// HDRMasteringDisplay is the metadata_hdr_mdcv() descriptor, AV1 spec 5.8.3.
type HDRMasteringDisplay struct {
	PrimaryChromaticityX [3]uint16
	PrimaryChromaticityY [3]uint16
	WhitePointX          uint16
	WhitePointY          uint16
	MaxLuminance         uint32
	MinLuminance         uint32
}

// ITUT35 is one ITU-T T.35 user-data payload, AV1 spec 5.8.4.
type ITUT35 struct {
	CountryCode   uint8
	ExtensionByte uint8 // Only meaningful when CountryCode == 0xFF.
	Payload       []byte
}

// ParseMetadataPayload parses one metadata_obu() (AV1 spec 5.8.1) from
// br/data (both scoped to this OBU's payload), updating ctx with whichever
// descriptor it recognizes. Unrecognized or explicitly-ignored metadata
// types are not an error, per spec §7.
func ParseMetadataPayload(br *bits.Reader, data []byte, ctx *DecoderContext) error {
	metaType := br.Uleb128()
	if br.Err() != nil {
		return wrapInvalidArg(br.Err(), "reading metadata_type")
	}

	switch metaType {
	case metaHDRCLL:
		cll := &HDRContentLight{
			MaxCLL:  uint16(br.Bits(16)),
			MaxFALL: uint16(br.Bits(16)),
		}
		if br.Err() != nil {
			return wrapInvalidArg(br.Err(), "reading metadata_hdr_cll")
		}
		if err := br.TrailingBits(ctx.Strict); err != nil {
			return wrapInvalidArg(err, "metadata_hdr_cll trailing bits")
		}
		ctx.HDRContentLight = cll
		return nil

	case metaHDRMDCV:
		mdcv := &HDRMasteringDisplay{}
		for i := 0; i < 3; i++ {
			mdcv.PrimaryChromaticityX[i] = uint16(br.Bits(16))
			mdcv.PrimaryChromaticityY[i] = uint16(br.Bits(16))
		}
		mdcv.WhitePointX = uint16(br.Bits(16))
		mdcv.WhitePointY = uint16(br.Bits(16))
		mdcv.MaxLuminance = br.Bits(32)
		mdcv.MinLuminance = br.Bits(32)
		if br.Err() != nil {
			return wrapInvalidArg(br.Err(), "reading metadata_hdr_mdcv")
		}
		if err := br.TrailingBits(ctx.Strict); err != nil {
			return wrapInvalidArg(err, "metadata_hdr_mdcv trailing bits")
		}
		ctx.HDRMasteringDisplay = mdcv
		return nil

	case metaITUT35:
		t35, err := parseITUT35(data, br.BytesRead())
		if err != nil {
			return err
		}
		ctx.T35 = append(ctx.T35, t35)
		return nil

	case metaScalability, metaTimecode:
		ctx.logf("metadata type %d ignored", metaType)
		return nil

	default:
		if metaType >= 6 && metaType <= 31 {
			// Unregistered user private; ignore silently.
			return nil
		}
		ctx.Log.Log(logging.Warning, "unrecognized metadata_type %d", metaType)
		return nil
	}
}

// parseITUT35 parses the itut_t35() syntax structure starting at byte offset
// start within data (the full OBU payload), per spec §4.E: a 1-byte country
// code (2 bytes if 0xFF), a verbatim payload, and a trailing 0x80 byte
// followed by zero or more trailing zero bytes.
func parseITUT35(data []byte, start int) (ITUT35, error) {
	if start >= len(data) {
		return ITUT35{}, invalidArgf("itut_t35: no data after metadata_type")
	}
	countryCode := data[start]
	headerLen := 1
	var extByte uint8
	if countryCode == 0xff {
		if start+1 >= len(data) {
			return ITUT35{}, invalidArgf("itut_t35: missing country_code_extension_byte")
		}
		extByte = data[start+1]
		headerLen = 2
	}

	end := len(data)
	trailingZeros := 0
	for end-1-trailingZeros >= start+headerLen && data[end-1-trailingZeros] == 0 {
		trailingZeros++
	}
	oneIdx := end - 1 - trailingZeros
	if oneIdx < start+headerLen || data[oneIdx] != 0x80 {
		return ITUT35{}, invalidArgf("itut_t35: missing trailing 0x80 byte")
	}

	payload := make([]byte, oneIdx-(start+headerLen))
	copy(payload, data[start+headerLen:oneIdx])

	return ITUT35{
		CountryCode:   countryCode,
		ExtensionByte: extByte,
		Payload:       payload,
	}, nil
}
