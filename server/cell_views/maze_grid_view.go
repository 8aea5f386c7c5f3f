package cell_views

import (
	"fmt"
	"html/template"

	"qmaze/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// MazeGrid draws the maze as an svg grid of cells, each showing its max action value
// and an arrow along the greedy action. Cells on the current best path are shaded.
type MazeGrid struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

// Cell height/width in pixels.
const gridCellDim = 40

func NewMazeGrid(
	done <-chan struct{},
	frames <-chan Frame,
) *MazeGrid {
	mg := &MazeGrid{id: "mazegrid"}
	mg.updates = channerics.Convert(done, frames, mg.onUpdate)
	return mg
}

func (mg *MazeGrid) Updates() <-chan []fastview.EleUpdate {
	return mg.updates
}

// Returns the set of view updates needed for the view to reflect the current values.
func (mg *MazeGrid) onUpdate(frame Frame) (ops []fastview.EleUpdate) {
	for _, row := range frame.Cells {
		for _, cell := range row {
			ops = append(ops, fastview.EleUpdate{
				EleId: fmt.Sprintf("%d-%d-cell-rect", cell.X, cell.Y),
				Ops: []fastview.Op{
					{Key: "fill", Value: cell.Fill},
				},
			})
			if cell.Fill == wallFill {
				continue
			}
			ops = append(ops, fastview.EleUpdate{
				EleId: fmt.Sprintf("%d-%d-value-text", cell.X, cell.Y),
				Ops: []fastview.Op{
					{Key: "textContent", Value: fmt.Sprintf("%.1f", cell.Max)},
				},
			})
			ops = append(ops, fastview.EleUpdate{
				EleId: fmt.Sprintf("%d-%d-policy-arrow", cell.X, cell.Y),
				Ops: []fastview.Op{
					{Key: "transform", Value: fmt.Sprintf("rotate(%d)", cell.PolicyArrowRotation)},
					{Key: "opacity", Value: cell.PolicyArrowOpacity},
				},
			})
		}
	}
	return
}

// Parse adds the svg grid template, whose data is a Frame, and returns its name.
func (mg *MazeGrid) Parse(t *template.Template) (name string, err error) {
	name = mg.id
	_, err = t.Parse(
		`{{ define "` + name + `" }}
		<div id="` + mg.id + `-container" style="padding:20px;">
			{{ $x_cells := len .Cells }}
			{{ $y_cells := len (index .Cells 0) }}
			{{ $cell_width := ` + fmt.Sprintf("%d", gridCellDim) + ` }}
			{{ $cell_height := $cell_width }}
			{{ $width := mult $cell_width $x_cells }}
			{{ $height := mult $cell_height $y_cells }}
			{{ $half_height := div $cell_height 2 }}
			{{ $half_width := div $cell_width 2 }}
			<svg id="` + mg.id + `"
				width="{{ add $width 1 }}px"
				height="{{ add $height 1 }}px"
				style="shape-rendering: crispEdges; font-size: 10px;">
				{{ range $col := .Cells }}
					{{ range $cell := $col }}
					<g>
						<rect id="{{$cell.X}}-{{$cell.Y}}-cell-rect"
							x="{{ mult $cell.X $cell_width }}"
							y="{{ mult $cell.Y $cell_height }}"
							width="{{ $cell_width }}"
							height="{{ $cell_height }}"
							fill="{{ $cell.Fill }}"
							stroke="lightgray"
							stroke-width="1"/>
						{{ if ne $cell.Fill "` + wallFill + `" }}
						<text id="{{$cell.X}}-{{$cell.Y}}-value-text"
							x="{{ add (mult $cell.X $cell_width) $half_width }}"
							y="{{ add (mult $cell.Y $cell_height) (sub $half_height 6) }}"
							fill="blue"
							dominant-baseline="text-top" text-anchor="middle"
							>{{ printf "%.1f" $cell.Max }}</text>
						<g transform="translate({{ add (mult $cell.X $cell_width) $half_width }}, {{ add (mult $cell.Y $cell_height) (add $half_height 8) }})">
							<text id="{{$cell.X}}-{{$cell.Y}}-policy-arrow"
							fill="black"
							dominant-baseline="central" text-anchor="middle"
							opacity="{{ $cell.PolicyArrowOpacity }}"
							transform="rotate({{ $cell.PolicyArrowRotation }})"
							>&uarr;</text>
						</g>
						{{ end }}
					</g>
					{{ end }}
				{{ end }}
			</svg>
		</div>
		{{ end }}`)
	return
}
