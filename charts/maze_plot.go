package charts

import (
	"fmt"
	"image/color"

	"qmaze/maze"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	wallColor = color.RGBA{R: 60, G: 60, B: 60, A: 255}
	pathColor = color.RGBA{R: 220, G: 40, B: 40, A: 255}
)

// MazePlot draws walls as filled squares and, when path is non-empty, the path as a
// line through cell centers. Grid row 0 is at the top of the plot.
func MazePlot(grid *maze.Grid, path []maze.Position) (*plot.Plot, error) {
	rows, cols := grid.Rows(), grid.Cols()

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%dx%d maze", rows, cols)
	p.X.Min, p.X.Max = -1, float64(cols)
	p.Y.Min, p.Y.Max = -1, float64(rows)
	p.HideAxes()

	var walls plotter.XYs
	grid.Visit(func(pos maze.Position, cell maze.Cell) {
		if cell == maze.Wall {
			walls = append(walls, toXY(pos, rows))
		}
	})
	if len(walls) > 0 {
		scatter, err := plotter.NewScatter(walls)
		if err != nil {
			return nil, fmt.Errorf("maze walls: %w", err)
		}
		scatter.GlyphStyle = draw.GlyphStyle{
			Color:  wallColor,
			Shape:  draw.BoxGlyph{},
			Radius: cellRadius(rows, cols),
		}
		p.Add(scatter)
	}

	if len(path) > 0 {
		points := make(plotter.XYs, len(path))
		for i, pos := range path {
			points[i] = toXY(pos, rows)
		}
		line, err := plotter.NewLine(points)
		if err != nil {
			return nil, fmt.Errorf("maze path: %w", err)
		}
		line.Color = pathColor
		line.Width = vg.Points(2)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("path (%d)", len(path)), line)
	}
	return p, nil
}

// SaveMazePNG writes MazePlot(grid, path) to file as an 8 inch square image.
func SaveMazePNG(file string, grid *maze.Grid, path []maze.Position) error {
	p, err := MazePlot(grid, path)
	if err != nil {
		return err
	}
	if err = p.Save(8*vg.Inch, 8*vg.Inch, file); err != nil {
		return fmt.Errorf("save %s: %w", file, err)
	}
	return nil
}

func toXY(pos maze.Position, rows int) plotter.XY {
	return plotter.XY{X: float64(pos.Col), Y: float64(rows - 1 - pos.Row)}
}

// cellRadius sizes wall glyphs so neighbouring walls roughly touch on an 8 inch canvas.
func cellRadius(rows, cols int) vg.Length {
	n := max(rows, cols) + 2
	return 8 * vg.Inch / vg.Length(2*n)
}
