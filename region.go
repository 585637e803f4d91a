package ssd1322

import "fmt"

// Region is the bounding box of framebuffer bytes modified since the last
// flush.
//
// Columns are in framebuffer bytes (pixel x / 2), rows in pixels. The zero
// value is an empty region. Touch and Reset are the only mutators.
type Region struct {
	colMin, colMax int
	rowMin, rowMax int
	valid          bool
}

// Touch widens r so that it covers column byte col of row row.
func (r *Region) Touch(col, row int) {
	if !r.valid {
		*r = Region{colMin: col, colMax: col, rowMin: row, rowMax: row, valid: true}
		return
	}
	if col < r.colMin {
		r.colMin = col
	}
	if col > r.colMax {
		r.colMax = col
	}
	if row < r.rowMin {
		r.rowMin = row
	}
	if row > r.rowMax {
		r.rowMax = row
	}
}

// Reset empties r.
func (r *Region) Reset() {
	*r = Region{}
}

// Empty reports whether nothing was touched since the last Reset.
func (r Region) Empty() bool {
	return !r.valid
}

// Bounds returns the inclusive column byte and row ranges. ok is false when
// r is empty.
func (r Region) Bounds() (colMin, colMax, rowMin, rowMax int, ok bool) {
	return r.colMin, r.colMax, r.rowMin, r.rowMax, r.valid
}

// aligned returns the column byte range rounded down to even bounds and the
// number of bytes to send per row to cover it.
//
// Column addresses cover 4 pixels, so an even column byte starts an address
// and the byte after colMax is still part of it.
func (r Region) aligned() (colMin, colMax, width int) {
	colMin = r.colMin - r.colMin%2
	colMax = r.colMax - r.colMax%2
	return colMin, colMax, colMax - colMin + 2
}

func (r Region) String() string {
	if !r.valid {
		return "Region{}"
	}
	return fmt.Sprintf("Region{cols: [%d, %d], rows: [%d, %d]}", r.colMin, r.colMax, r.rowMin, r.rowMax)
}
