package cell_views

import (
	"fmt"
	"html/template"
	"math"

	"qmaze/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// ValueFunction provides a view of the max action values as a 2d isometric
// projection of the 3d function (x,y,value).
type ValueFunction struct {
	id      string
	updates <-chan []fastview.EleUpdate
	proj    projection
}

// projection holds the isometric view parameters for a fixed grid size.
type projection struct {
	xyscale float64 // pixels per x or y unit
	zrange  float64 // pixels between the lowest and highest value
	width   float64 // canvas size in pixels
	height  float64
	sinAng  float64
	cosAng  float64
}

const valueCellDim = 24

func newProjection(cols, rows int) projection {
	ang := math.Pi / 6 // angle of x, y axes (e.g. =30°)
	p := projection{
		xyscale: valueCellDim,
		zrange:  valueCellDim * 4,
		sinAng:  math.Sin(ang),
		cosAng:  math.Cos(ang),
	}
	p.width = float64(cols+rows) * p.cosAng * p.xyscale
	p.height = float64(cols+rows)*p.sinAng*p.xyscale + p.zrange
	return p
}

// project maps (x, y, z) to svg coordinates, z normalized to [0,1].
func (p projection) project(x, y, z float64) (float64, float64) {
	sx := p.width/2 + (x-y)*p.cosAng*p.xyscale
	sy := p.zrange + (x+y)*p.sinAng*p.xyscale - z*p.zrange
	return sx, sy
}

// NewValueFunction returns the view for a grid of cols×rows cells.
func NewValueFunction(
	done <-chan struct{},
	frames <-chan Frame,
	cols, rows int,
) *ValueFunction {
	vf := &ValueFunction{
		id:   "valuefunction",
		proj: newProjection(cols, rows),
	}
	vf.updates = channerics.Convert(done, frames, vf.onUpdate)
	return vf
}

func (vf *ValueFunction) Updates() <-chan []fastview.EleUpdate {
	return vf.updates
}

// funcPolygon is the projected surface patch between four adjacent cells.
type funcPolygon struct {
	Id     string
	Points string
	Fill   string
}

// surface returns the polygons of the value surface in back-to-front drawing order,
// so nearer patches obscure farther ones.
func (vf *ValueFunction) surface(cells [][]Cell) []funcPolygon {
	if len(cells) < 2 || len(cells[0]) < 2 {
		return nil
	}

	minVal, maxVal := math.MaxFloat64, -math.MaxFloat64
	for _, col := range cells {
		for _, cell := range col {
			minVal = math.Min(minVal, cell.Max)
			maxVal = math.Max(maxVal, cell.Max)
		}
	}
	norm := func(v float64) float64 {
		if maxVal == minVal {
			return 0
		}
		return (v - minVal) / (maxVal - minVal)
	}

	nx, ny := len(cells)-1, len(cells[0])-1
	var polys []funcPolygon
	// Walk the anti-diagonals: patches with a smaller x+y are farther from the viewer.
	for diag := 0; diag <= nx+ny-2; diag++ {
		for xi := max(0, diag-ny+1); xi <= min(diag, nx-1); xi++ {
			yi := diag - xi
			corners := [4]Cell{cells[xi][yi+1], cells[xi][yi], cells[xi+1][yi], cells[xi+1][yi+1]}
			points := ""
			avg := 0.0
			for i, c := range corners {
				z := norm(c.Max)
				sx, sy := vf.proj.project(float64(c.X), float64(c.Y), z)
				if i > 0 {
					points += " "
				}
				points += fmt.Sprintf("%d,%d", int(sx), int(sy))
				avg += z / 4
			}
			polys = append(polys, funcPolygon{
				Id:     fmt.Sprintf("%d-%d-value-polygon", xi, yi),
				Points: points,
				Fill:   getRGBFill(avg),
			})
		}
	}
	return polys
}

// Returns an RGB value from blue (lowest) to red (highest) for a normalized value.
func getRGBFill(norm float64) string {
	redPct := int(100.0 * norm)
	return fmt.Sprintf("rgb(%d%%,0%%,%d%%)", redPct, 100-redPct)
}

// Returns the set of view updates needed for the view to reflect current values.
func (vf *ValueFunction) onUpdate(frame Frame) (ops []fastview.EleUpdate) {
	for _, poly := range vf.surface(frame.Cells) {
		ops = append(ops, fastview.EleUpdate{
			EleId: poly.Id,
			Ops: []fastview.Op{
				{Key: "points", Value: poly.Points},
				{Key: "fill", Value: poly.Fill},
			},
		})
	}
	return
}

// Parse returns an svg of polygons plotting the value surface as a 2D projection.
func (vf *ValueFunction) Parse(
	t *template.Template,
) (name string, err error) {
	name = vf.id
	addedMap := template.FuncMap{
		"valueSurface": vf.surface,
	}
	_, err = t.Funcs(addedMap).Parse(
		`{{ define "` + name + `" }}
		<div style="padding:20px;">
			<svg id="` + vf.id + `" xmlns='http://www.w3.org/2000/svg'
				width="` + fmt.Sprintf("%d", int(vf.proj.width)+1) + `px"
				height="` + fmt.Sprintf("%d", int(vf.proj.height)+1) + `px"
				style="stroke: lightgrey; stroke-opacity: 0.8; stroke-width: 1;">
				{{ range $poly := valueSurface .Cells }}
				<polygon id="{{ $poly.Id }}" fill="{{ $poly.Fill }}" points="{{ $poly.Points }}" />
				{{ end }}
			</svg>
		</div>
		{{ end }}`)
	return
}
