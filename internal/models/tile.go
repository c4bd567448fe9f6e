package models

// Default tile grid dimensions.
const (
	DefaultTileRows = 2
	DefaultTileCols = 2
)

// Tile is one cell of the fixed-layout output grid. It references a slot
// by index within the currently active shaders/assets tab only; cross-tab
// tile references are not supported.
type Tile struct {
	// GridSlotIndex is the referenced slot index, or nil when the tile
	// is unassigned.
	GridSlotIndex *int `json:"gridSlotIndex"`

	// Params holds playback parameter values for this tile.
	Params Params `json:"params"`

	// CustomParams holds content-declared parameter values.
	CustomParams Params `json:"customParams"`

	// Visible controls whether the tile contributes to the output.
	Visible bool `json:"visible"`
}

// TileGrid is the fixed rows x cols tile layout.
type TileGrid struct {
	// Rows is the grid row count.
	Rows int `json:"rows"`

	// Cols is the grid column count.
	Cols int `json:"cols"`

	// Tiles is the row-major cell list, length Rows*Cols.
	Tiles []Tile `json:"tiles"`
}

// NewTileGrid returns an empty grid of the given dimensions.
func NewTileGrid(rows, cols int) *TileGrid {
	if rows <= 0 {
		rows = DefaultTileRows
	}
	if cols <= 0 {
		cols = DefaultTileCols
	}
	g := &TileGrid{Rows: rows, Cols: cols}
	g.Tiles = make([]Tile, rows*cols)
	for i := range g.Tiles {
		g.Tiles[i].Visible = true
	}
	return g
}

// TileAt returns the tile at index, or nil if out of range.
func (g *TileGrid) TileAt(index int) *Tile {
	if g == nil || index < 0 || index >= len(g.Tiles) {
		return nil
	}
	return &g.Tiles[index]
}
