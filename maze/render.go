package maze

import (
	"fmt"
	"io"

	"github.com/logrusorgru/aurora"
)

// Console glyphs, two runes wide so cells render roughly square.
const (
	wallGlyph     = "██"
	pathGlyph     = "  "
	trailGlyph    = "··"
	entranceGlyph = "S "
	exitGlyph     = "G "
)

// Render prints the grid to w, overlaying the passed path (which may be nil).
// Colors are emitted as ANSI escapes only when colors is true.
func Render(w io.Writer, g *Grid, path []Position, colors bool) error {
	au := aurora.NewAurora(colors)

	onPath := make(map[Position]bool, len(path))
	for _, p := range path {
		onPath[p] = true
	}

	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			p := Position{Row: r, Col: c}
			var glyph interface{}
			switch {
			case p == g.Entrance():
				glyph = au.Green(entranceGlyph)
			case p == g.Exit():
				glyph = au.Yellow(exitGlyph)
			case g.cells[r][c] == Wall:
				glyph = au.Gray(12, wallGlyph)
			case onPath[p]:
				glyph = au.Red(trailGlyph)
			default:
				glyph = pathGlyph
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
