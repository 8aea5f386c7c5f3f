package maze

import (
	"errors"
	"fmt"
)

// Cell is a single grid square. The numeric values match the classic 0/1 occupancy
// encoding, so a grid can be dumped as a numeric array without translation.
type Cell uint8

const (
	Path Cell = 0
	Wall Cell = 1
)

func (c Cell) String() string {
	if c == Wall {
		return "wall"
	}
	return "path"
}

// Position is a (row, col) coordinate in the doubled, wall-inclusive grid.
type Position struct {
	Row, Col int
}

// Add returns the position offset by the passed deltas.
func (p Position) Add(dr, dc int) Position {
	return Position{Row: p.Row + dr, Col: p.Col + dc}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

var (
	// ErrEmptyGrid is returned when a grid has no rows or no columns.
	ErrEmptyGrid = errors.New("grid must have at least one row and one column")
	// ErrNonRectangular is returned when grid rows differ in length.
	ErrNonRectangular = errors.New("all grid rows must have the same length")
)

// Grid is an immutable occupancy grid. Once built it is never mutated; every
// accessor hands out values or copies.
type Grid struct {
	cells [][]Cell
	rows  int
	cols  int
}

// NewGrid wraps a hand-built layout, e.g. for fixtures. The input is deep-copied.
func NewGrid(cells [][]Cell) (*Grid, error) {
	if len(cells) == 0 || len(cells[0]) == 0 {
		return nil, ErrEmptyGrid
	}
	cols := len(cells[0])
	for _, row := range cells {
		if len(row) != cols {
			return nil, ErrNonRectangular
		}
	}
	return &Grid{
		cells: copyCells(cells),
		rows:  len(cells),
		cols:  cols,
	}, nil
}

// FromStrings builds a grid from rows of '#' (wall) and any other rune (path).
// This is merely a convenience for tests and debugging.
func FromStrings(rows []string) (*Grid, error) {
	cells := make([][]Cell, len(rows))
	for r, line := range rows {
		cells[r] = make([]Cell, len(line))
		for c, ch := range line {
			if ch == '#' {
				cells[r][c] = Wall
			}
		}
	}
	return NewGrid(cells)
}

func (g *Grid) Rows() int { return g.rows }
func (g *Grid) Cols() int { return g.cols }

// InBounds reports whether p lies within the grid.
func (g *Grid) InBounds(p Position) bool {
	return p.Row >= 0 && p.Row < g.rows && p.Col >= 0 && p.Col < g.cols
}

// At returns the cell at p. Out of bounds positions read as Wall.
func (g *Grid) At(p Position) Cell {
	if !g.InBounds(p) {
		return Wall
	}
	return g.cells[p.Row][p.Col]
}

// IsPath reports whether p is in bounds and traversable.
func (g *Grid) IsPath(p Position) bool {
	return g.InBounds(p) && g.cells[p.Row][p.Col] == Path
}

// Entrance is the fixed entrance cell on the left border.
func (g *Grid) Entrance() Position {
	return Position{Row: 1, Col: 0}
}

// Exit is the fixed exit cell on the right border.
func (g *Grid) Exit() Position {
	return Position{Row: g.rows - 2, Col: g.cols - 1}
}

// Cells returns a deep copy of the occupancy array for rendering.
func (g *Grid) Cells() [][]Cell {
	return copyCells(g.cells)
}

// Equal reports whether two grids have identical dimensions and cells.
func (g *Grid) Equal(other *Grid) bool {
	if other == nil || g.rows != other.rows || g.cols != other.cols {
		return false
	}
	for r := range g.cells {
		for c := range g.cells[r] {
			if g.cells[r][c] != other.cells[r][c] {
				return false
			}
		}
	}
	return true
}

// Visit calls fn for every cell in row-major order.
func (g *Grid) Visit(fn func(p Position, c Cell)) {
	for r := range g.cells {
		for c := range g.cells[r] {
			fn(Position{Row: r, Col: c}, g.cells[r][c])
		}
	}
}

func copyCells(cells [][]Cell) [][]Cell {
	out := make([][]Cell, len(cells))
	for r := range cells {
		out[r] = make([]Cell, len(cells[r]))
		copy(out[r], cells[r])
	}
	return out
}
