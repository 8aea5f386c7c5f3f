package reinforcement

import (
	"fmt"
	"io"

	"qmaze/grid_world"
	"qmaze/maze"

	"github.com/logrusorgru/aurora"
)

// Rune per greedy action, for console-based debugging.
var policyArrows = [grid_world.NumActions]rune{
	grid_world.Up:    '^',
	grid_world.Right: '>',
	grid_world.Down:  'v',
	grid_world.Left:  '<',
}

// ShowPolicy prints the greedy action of every path cell whose action values are
// not all zero. Unvisited path cells print '.', walls '#'.
func ShowPolicy(w io.Writer, g *maze.Grid, table *QTable, colors bool) error {
	au := aurora.NewAurora(colors)
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			p := maze.Position{Row: r, Col: c}
			var glyph interface{}
			switch {
			case !g.IsPath(p):
				glyph = au.Gray(12, "# ")
			case p == g.Exit():
				glyph = au.Yellow("G ")
			case isUnvisited(table, p):
				glyph = ". "
			default:
				glyph = au.Cyan(fmt.Sprintf("%c ", policyArrows[table.ArgMax(p)]))
			}
			if _, err := fmt.Fprint(w, glyph); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

// ShowMaxValues prints the max action value of each path cell, and their total.
func ShowMaxValues(w io.Writer, g *maze.Grid, table *QTable) error {
	if _, err := fmt.Fprintln(w, "Max vals:"); err != nil {
		return err
	}
	total := 0.0
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			p := maze.Position{Row: r, Col: c}
			if !g.IsPath(p) {
				fmt.Fprintf(w, "%8s", "-")
				continue
			}
			val := table.Max(p)
			total += val
			fmt.Fprintf(w, "%8.2f", val)
		}
		fmt.Fprintln(w)
	}
	_, err := fmt.Fprintf(w, "Total: %.2f\n", total)
	return err
}

func isUnvisited(table *QTable, p maze.Position) bool {
	for _, v := range table.cell(p) {
		if v != 0 {
			return false
		}
	}
	return true
}
