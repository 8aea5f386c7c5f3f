/*
Package maze builds grid mazes by randomized depth-first carving.

A maze of size n is an n×n lattice of rooms embedded in a (2n+1)×(2n+1) occupancy grid:
room (i,j) lives at grid cell (2i+1, 2j+1), and the cell between two adjacent rooms is a
wall until carving opens it. Depth-first carving visits every room exactly once, so the
open passages form a spanning tree over the rooms: every room reaches every other room
along exactly one simple path, and there are no cycles.
*/
package maze

import (
	"errors"
	"fmt"

	"qmaze/rng"

	"golang.org/x/exp/rand"
)

// ErrInvalidSize is returned when the requested room count per side is below one.
var ErrInvalidSize = errors.New("maze size must be at least 1")

// Room-space offsets, in the fixed pre-shuffle order up, right, down, left.
var roomDirections = [4][2]int{
	{-1, 0},
	{0, 1},
	{1, 0},
	{0, -1},
}

// frame is a pending room on the carve stack, with its shuffled direction order
// and the index of the next direction to try.
type frame struct {
	row, col int
	dirs     [4][2]int
	next     int
}

// Generate carves a new maze with size×size rooms. If r is nil a clock-seeded
// source is used; pass rng.Seeded for reproducible mazes.
//
// The carve uses an explicit stack rather than recursion, so stack depth is bounded by
// the heap rather than the goroutine stack even for very large mazes. It is draw-for-draw
// identical to the recursive formulation: a room's directions are shuffled once, when the
// room is first entered, and each neighbor is descended into before the next direction
// is tried.
func Generate(size int, r *rand.Rand) (*Grid, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}
	if r == nil {
		r = rng.Entropy()
	}

	dim := 2*size + 1
	cells := make([][]Cell, dim)
	for i := range cells {
		cells[i] = make([]Cell, dim)
		for j := range cells[i] {
			cells[i][j] = Wall
		}
	}

	visited := make([][]bool, size)
	for i := range visited {
		visited[i] = make([]bool, size)
	}

	enter := func(row, col int) frame {
		visited[row][col] = true
		cells[2*row+1][2*col+1] = Path
		f := frame{row: row, col: col, dirs: roomDirections}
		r.Shuffle(len(f.dirs), func(i, j int) {
			f.dirs[i], f.dirs[j] = f.dirs[j], f.dirs[i]
		})
		return f
	}

	startRow, startCol := r.Intn(size), r.Intn(size)
	stack := []frame{enter(startRow, startCol)}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next == len(top.dirs) {
			stack = stack[:len(stack)-1]
			continue
		}

		d := top.dirs[top.next]
		top.next++
		nr, nc := top.row+d[0], top.col+d[1]
		if nr < 0 || nr >= size || nc < 0 || nc >= size || visited[nr][nc] {
			continue
		}

		// Open the wall between the two rooms, then descend.
		cells[2*top.row+1+d[0]][2*top.col+1+d[1]] = Path
		stack = append(stack, enter(nr, nc))
	}

	// Entrance and exit are forced open regardless of the carve.
	cells[1][0] = Path
	cells[dim-2][dim-1] = Path

	return &Grid{
		cells: cells,
		rows:  dim,
		cols:  dim,
	}, nil
}

// Size returns the number of rooms per side of a generated grid, i.e. the inverse of
// the (2n+1) doubling. Hand-built grids with even dimensions round down.
func (g *Grid) Size() int {
	return (g.rows - 1) / 2
}
