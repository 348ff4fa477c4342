package viz

import "strings"

// dotBits maps a dot within a 2x4 Braille cell to its bit above U+2800.
var dotBits = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

// Canvas is a grid of Braille cells. Dot coordinates run from the top left,
// with Width*2 columns and Height*4 rows.
type Canvas struct {
	Width, Height int
	cells         []uint8
}

func NewCanvas(w, h int) *Canvas {
	return &Canvas{Width: w, Height: h, cells: make([]uint8, w*h)}
}

func (c *Canvas) DotsX() int { return c.Width * 2 }
func (c *Canvas) DotsY() int { return c.Height * 4 }

func (c *Canvas) locate(x, y int) (idx int, bit uint8, ok bool) {
	if x < 0 || y < 0 || x >= c.DotsX() || y >= c.DotsY() {
		return 0, 0, false
	}
	return (y/4)*c.Width + x/2, dotBits[y%4][x%2], true
}

// Set turns on the dot at (x, y). Dots outside the canvas are ignored.
func (c *Canvas) Set(x, y int) {
	if i, bit, ok := c.locate(x, y); ok {
		c.cells[i] |= bit
	}
}

func (c *Canvas) IsSet(x, y int) bool {
	i, bit, ok := c.locate(x, y)
	return ok && c.cells[i]&bit != 0
}

// Cell returns the Braille rune drawn at text position (row, col).
func (c *Canvas) Cell(row, col int) rune {
	return brailleBlank + rune(c.cells[row*c.Width+col])
}

// Lines returns the canvas rows without trailing newlines.
func (c *Canvas) Lines() []string {
	out := make([]string, c.Height)
	row := make([]rune, c.Width)
	for r := range out {
		for col := range row {
			row[col] = c.Cell(r, col)
		}
		out[r] = string(row)
	}
	return out
}

func (c *Canvas) String() string {
	if c.Height == 0 {
		return ""
	}
	return strings.Join(c.Lines(), "\n") + "\n"
}
