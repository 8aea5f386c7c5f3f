// Package charts renders training artifacts: an HTML page of the training history
// and a PNG of the maze with a path drawn through it.
package charts

import (
	"fmt"
	"io"

	"qmaze/maze"
	"qmaze/reinforcement"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// HistoryPage renders reward, episode length and exploration rate per episode, and,
// when table is non-nil, a heatmap of the max action value of each path cell.
func HistoryPage(w io.Writer, history []reinforcement.EpisodeRecord, table *reinforcement.QTable, grid *maze.Grid) error {
	episodes := make([]string, len(history))
	rewards := make([]opts.LineData, len(history))
	steps := make([]opts.LineData, len(history))
	epsilons := make([]opts.LineData, len(history))
	for i, rec := range history {
		episodes[i] = fmt.Sprintf("%d", rec.Episode)
		rewards[i] = opts.LineData{Value: rec.TotalReward}
		steps[i] = opts.LineData{Value: rec.Steps}
		epsilons[i] = opts.LineData{Value: rec.ExplorationRate}
	}

	page := components.NewPage()
	page.PageTitle = "qmaze training"
	page.AddCharts(
		lineChart("Episode reward", "reward", episodes, rewards),
		lineChart("Episode length", "steps", episodes, steps),
		lineChart("Exploration rate", "epsilon", episodes, epsilons),
	)
	if table != nil && grid != nil {
		page.AddCharts(valueHeatMap(table, grid))
	}
	return page.Render(w)
}

func lineChart(title, series string, xs []string, items []opts.LineData) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithInitializationOpts(opts.Initialization{Theme: "shine"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)
	line.SetXAxis(xs).AddSeries(series, items)
	return line
}

// valueHeatMap plots max Q per path cell; walls are left out. Row 0 is drawn at the top.
func valueHeatMap(table *reinforcement.QTable, grid *maze.Grid) *charts.HeatMap {
	rows, cols := grid.Rows(), grid.Cols()
	xs := make([]string, cols)
	for c := range xs {
		xs[c] = fmt.Sprintf("%d", c)
	}
	ys := make([]string, rows)
	for r := range ys {
		ys[r] = fmt.Sprintf("%d", rows-1-r)
	}

	var data []opts.HeatMapData
	lo, hi := 0.0, 0.0
	grid.Visit(func(p maze.Position, cell maze.Cell) {
		if cell == maze.Wall {
			return
		}
		v := table.Max(p)
		lo, hi = min(lo, v), max(hi, v)
		data = append(data, opts.HeatMapData{Value: [3]interface{}{p.Col, rows - 1 - p.Row, v}})
	})

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Max action value"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: xs, SplitArea: &opts.SplitArea{Show: true}}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: ys, SplitArea: &opts.SplitArea{Show: true}}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: true,
			Min:        float32(lo),
			Max:        float32(hi),
			InRange: &opts.VisualMapInRange{
				Color: []string{"#313695", "#74add1", "#fee090", "#f46d43", "#a50026"},
			},
		}),
	)
	hm.SetXAxis(xs).AddSeries("max q", data)
	return hm
}
