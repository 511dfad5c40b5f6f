/*
DESCRIPTION
  tilegrid_test.go tests tile_log2 and the superblock grid derivation in
  tilegrid.go.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/
package obu

import "testing"

func TestTileLog2(t *testing.T) {
	tests := []struct {
		blkSize, target, want int
	}{
		{1, 1, 0},
		{1, 2, 1},
		{1, 30, 5},
		{4, 30, 3},
	}
	for i, test := range tests {
		got := tileLog2(test.blkSize, test.target)
		if got != test.want {
			t.Errorf("test %d: tileLog2(%d,%d) = %d, want %d", i, test.blkSize, test.target, got, test.want)
		}
	}
}

// TestDeriveTileGridBoundsHD reproduces the 1920x1088 use_128x128_superblock=0
// scenario this package's derivation was hand-verified against.
func TestDeriveTileGridBoundsHD(t *testing.T) {
	b := deriveTileGridBounds(1920, 1088, false)
	if b.sbCols != 30 {
		t.Errorf("sbCols = %d, want 30", b.sbCols)
	}
	if b.sbRows != 17 {
		t.Errorf("sbRows = %d, want 17", b.sbRows)
	}
	if b.minLog2Cols != 0 {
		t.Errorf("minLog2Cols = %d, want 0", b.minLog2Cols)
	}
	if b.maxLog2Cols != 5 {
		t.Errorf("maxLog2Cols = %d, want 5", b.maxLog2Cols)
	}
	if b.maxLog2Rows != 5 {
		t.Errorf("maxLog2Rows = %d, want 5", b.maxLog2Rows)
	}
}

// TestParseTileInfoUniformSingleTile checks the common single-tile uniform
// path: uniform_tile_spacing_flag=1, both tile size increment loops
// immediately break (ColsLog2/RowsLog2 stay at their minimum), yielding one
// tile and no context_update_tile_id/tile_size_bytes_minus_1 fields.
func TestParseTileInfoUniformSingleTile(t *testing.T) {
	b := &bitBuilder{}
	b.writeBit(1) // uniform_tile_spacing_flag
	b.writeBit(0) // increment_tile_cols_log2 loop: stop immediately
	b.writeBit(0) // increment_tile_rows_log2 loop: stop immediately
	r := newTestReader(b.bytes())

	ti, err := parseTileInfo(r, 1920, 1088, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ti.Cols != 1 || ti.Rows != 1 {
		t.Errorf("got %dx%d tiles, want 1x1", ti.Cols, ti.Rows)
	}
	if ti.ContextUpdateTileID != 0 || ti.TileSizeBytes != 1 {
		t.Errorf("got ContextUpdateTileID=%d TileSizeBytes=%d, want 0,1", ti.ContextUpdateTileID, ti.TileSizeBytes)
	}
}
