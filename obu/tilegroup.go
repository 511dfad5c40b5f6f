/*
DESCRIPTION
  tilegroup.go provides parsing for OBU_TILE_GROUP, recording tile-range
  descriptors and slicing the raw tile payload, per spec §4.D.

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

// TileGroupRecord is one tile_group_obu()'s worth of tile range and raw
// payload, per spec §3.
type TileGroupRecord struct {
	Start int
	End   int
	Data  []byte
}

// tileGroupCount sums (end-start+1) over the accumulated records.
func tileGroupCount(groups []TileGroupRecord) int {
	n := 0
	for _, g := range groups {
		n += g.End - g.Start + 1
	}
	return n
}

// ParseTileGroupPayload parses one tile_group_obu() (AV1 spec 5.11.1) from
// br/data (both scoped to this OBU's payload), against the tile grid
// described by hdr.TileInfo.
func ParseTileGroupPayload(br *bits.Reader, data []byte, hdr *FrameHeader) (TileGroupRecord, error) {
	if hdr == nil {
		return TileGroupRecord{}, invalidArgf("tile group with no frame header in progress")
	}
	numTiles := hdr.TileInfo.Cols * hdr.TileInfo.Rows
	start, end := 0, numTiles-1

	if numTiles > 1 {
		haveTilePos := br.Bit() == 1
		if br.Err() != nil {
			return TileGroupRecord{}, wrapInvalidArg(br.Err(), "reading tile_start_and_end_present_flag")
		}
		if haveTilePos {
			n := hdr.TileInfo.ColsLog2 + hdr.TileInfo.RowsLog2
			start = int(br.Bits(n))
			end = int(br.Bits(n))
			if br.Err() != nil {
				return TileGroupRecord{}, wrapInvalidArg(br.Err(), "reading tg_start/tg_end")
			}
		}
	}

	if start < 0 || end < start || end >= numTiles {
		return TileGroupRecord{}, invalidArgf("tile group range [%d,%d] invalid for %d tiles", start, end, numTiles)
	}

	br.ByteAlign()
	if br.Err() != nil {
		return TileGroupRecord{}, wrapInvalidArg(br.Err(), "byte-aligning before tile payload")
	}
	payload := data[br.BytesRead():]

	return TileGroupRecord{Start: start, End: end, Data: payload}, nil
}

// appendTileGroup validates rec against the groups already accumulated for
// this frame (consecutive records must concatenate without gaps, and the
// first record's start must be 0, per spec §3), and appends it. On
// violation it returns an error and the caller must discard every
// accumulated tile group for the frame (spec §4.D, testable property 4).
func appendTileGroup(groups []TileGroupRecord, rec TileGroupRecord) ([]TileGroupRecord, error) {
	expectStart := tileGroupCount(groups)
	if rec.Start != expectStart {
		return nil, invalidArgf("tile group start %d does not match accumulated count %d", rec.Start, expectStart)
	}
	return append(groups, rec), nil
}
