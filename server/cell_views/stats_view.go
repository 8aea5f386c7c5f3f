package cell_views

import (
	"fmt"
	"html/template"

	"qmaze/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// StatsView is a small table of the latest episode's progress values.
type StatsView struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

// The rows of the table: element id suffix, label and formatter.
var statFields = []struct {
	key    string
	label  string
	format func(Stats) string
}{
	{"episode", "Episode", func(s Stats) string { return fmt.Sprintf("%d", s.Episode) }},
	{"reward", "Reward", func(s Stats) string { return fmt.Sprintf("%.1f", s.Reward) }},
	{"steps", "Steps", func(s Stats) string { return fmt.Sprintf("%d", s.Steps) }},
	{"epsilon", "Exploration", func(s Stats) string { return fmt.Sprintf("%.4f", s.Epsilon) }},
	{"pathlen", "Best path", func(s Stats) string { return fmt.Sprintf("%d", s.PathLength) }},
	{"success", "Reached goal", func(s Stats) string { return fmt.Sprintf("%t", s.Success) }},
}

func NewStatsView(
	done <-chan struct{},
	frames <-chan Frame,
) *StatsView {
	sv := &StatsView{id: "stats"}
	sv.updates = channerics.Convert(done, frames, sv.onUpdate)
	return sv
}

func (sv *StatsView) Updates() <-chan []fastview.EleUpdate {
	return sv.updates
}

func (sv *StatsView) onUpdate(frame Frame) []fastview.EleUpdate {
	ops := make([]fastview.EleUpdate, 0, len(statFields))
	for _, field := range statFields {
		ops = append(ops, fastview.EleUpdate{
			EleId: sv.id + "-" + field.key,
			Ops:   []fastview.Op{{Key: "textContent", Value: field.format(frame.Stats)}},
		})
	}
	return ops
}

// Parse adds the stats table template, whose data is a Frame, and returns its name.
func (sv *StatsView) Parse(t *template.Template) (name string, err error) {
	name = sv.id
	rows := ""
	for _, field := range statFields {
		rows += `<tr><td>` + field.label + `</td><td id="` + sv.id + "-" + field.key +
			`">{{ ` + field.key + ` .Stats }}</td></tr>`
	}

	funcs := template.FuncMap{}
	for _, field := range statFields {
		funcs[field.key] = field.format
	}
	_, err = t.Funcs(funcs).Parse(
		`{{ define "` + name + `" }}
		<div style="padding:20px; font-family: monospace;">
			<table id="` + sv.id + `">` + rows + `</table>
			<a href="/history">history</a>
		</div>
		{{ end }}`)
	return
}
