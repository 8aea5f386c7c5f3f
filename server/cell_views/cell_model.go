// cell_views contains views derived from the Frame view-model.
package cell_views

import (
	"qmaze/grid_world"
	"qmaze/maze"
	"qmaze/reinforcement"
)

// Cell is one maze cell reduced to the values a view needs, indexed [x][y] where x is the
// grid column and y the grid row, so [0][0] is the top left cell as printed in the
// console and as drawn in svg coordinates. Cell fields should be immediately usable
// as view parameters.
type Cell struct {
	X, Y int
	Max  float64
	// PolicyArrowRotation is the svg rotate() angle of an upward arrow pointing along
	// the greedy action.
	PolicyArrowRotation int
	// PolicyArrowOpacity hides arrows on walls and on cells with no learned values.
	PolicyArrowOpacity string
	Fill               string
}

// Stats are the scalar progress values of one episode.
type Stats struct {
	Episode    int
	Reward     float64
	Steps      int
	Epsilon    float64
	PathLength int
	Success    bool
}

// Frame is the view-model of one training result.
type Frame struct {
	Cells [][]Cell
	Stats Stats
}

const (
	wallFill     = "dimgray"
	pathFill     = "white"
	trailFill    = "lightcoral"
	entranceFill = "lightblue"
	exitFill     = "lightyellow"
)

// Degrees per action for an upward arrow rune.
var arrowRotation = [grid_world.NumActions]int{
	grid_world.Up:    0,
	grid_world.Right: 90,
	grid_world.Down:  180,
	grid_world.Left:  270,
}

// NewConverter returns the function converting training results over grid to Frames.
// A nil result converts to the frame of an untrained agent.
func NewConverter(grid *maze.Grid) func(*reinforcement.EpisodeResult) Frame {
	return func(result *reinforcement.EpisodeResult) Frame {
		return Convert(grid, result)
	}
}

// Convert builds the Frame of result over grid.
func Convert(grid *maze.Grid, result *reinforcement.EpisodeResult) Frame {
	rows, cols := grid.Rows(), grid.Cols()
	table := reinforcement.NewQTable(rows, cols)
	var path []maze.Position
	var stats Stats
	if result != nil {
		table = result.QTable
		path = result.BestPath
		stats = Stats{
			Episode:    result.Episode,
			Reward:     result.TotalReward,
			Steps:      result.Steps,
			Epsilon:    result.ExplorationRate,
			PathLength: len(path),
			Success:    result.Success,
		}
	}

	onPath := make(map[maze.Position]bool, len(path))
	for _, p := range path {
		onPath[p] = true
	}

	cells := make([][]Cell, cols)
	for x := range cells {
		cells[x] = make([]Cell, rows)
	}
	grid.Visit(func(p maze.Position, c maze.Cell) {
		cell := Cell{
			X:                  p.Col,
			Y:                  p.Row,
			PolicyArrowOpacity: "0",
			Fill:               getFill(grid, p, c, onPath[p]),
		}
		if c == maze.Path {
			cell.Max = table.Max(p)
			if !allZero(table.Values(p)) {
				cell.PolicyArrowRotation = arrowRotation[table.ArgMax(p)]
				cell.PolicyArrowOpacity = "1"
			}
		}
		cells[p.Col][p.Row] = cell
	})

	return Frame{Cells: cells, Stats: stats}
}

func getFill(grid *maze.Grid, p maze.Position, c maze.Cell, onPath bool) string {
	switch {
	case c == maze.Wall:
		return wallFill
	case p == grid.Entrance():
		return entranceFill
	case p == grid.Exit():
		return exitFill
	case onPath:
		return trailFill
	}
	return pathFill
}

func allZero(vals []float64) bool {
	for _, v := range vals {
		if v != 0 {
			return false
		}
	}
	return true
}
