package root_view

import (
	"context"
	"html/template"
	"time"

	"qmaze/maze"
	"qmaze/reinforcement"
	"qmaze/server/cell_views"
	"qmaze/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// RootView is the main page's index.html, which is the container for all the
// view components and the wiring for their channels.
type RootView struct {
	views   []fastview.ViewComponent
	updates <-chan []fastview.EleUpdate
}

// Window within which updates for the same element are coalesced.
const batchWindow = time.Millisecond * 20

// NewRootView creates the main page and the views it contains, all fed by results.
func NewRootView(
	ctx context.Context,
	grid *maze.Grid,
	results <-chan *reinforcement.EpisodeResult,
) (*RootView, error) {
	views, err := fastview.NewViewBuilder[*reinforcement.EpisodeResult, cell_views.Frame]().
		WithContext(ctx).
		WithModel(results, cell_views.NewConverter(grid)).
		WithView(func(
			done <-chan struct{},
			frames <-chan cell_views.Frame) fastview.ViewComponent {
			return cell_views.NewStatsView(done, frames)
		}).
		WithView(func(
			done <-chan struct{},
			frames <-chan cell_views.Frame) fastview.ViewComponent {
			return cell_views.NewMazeGrid(done, frames)
		}).
		WithView(func(
			done <-chan struct{},
			frames <-chan cell_views.Frame) fastview.ViewComponent {
			return cell_views.NewValueFunction(done, frames, grid.Cols(), grid.Rows())
		}).
		Build()
	if err != nil {
		return nil, err
	}

	return &RootView{
		views:   views,
		updates: fanIn(ctx.Done(), views),
	}, nil
}

// Updates returns the main ele-update channel for all the views.
func (rv *RootView) Updates() <-chan []fastview.EleUpdate {
	return rv.updates
}

// Parse builds the main page's template, with websocket bootstrap code, and returns its name.
// It also sets up the func-map that child components depend on.
func (rv *RootView) Parse(
	parent *template.Template,
) (name string, err error) {
	rt := parent.Funcs(
		template.FuncMap{
			"add":  func(i, j int) int { return i + j },
			"sub":  func(i, j int) int { return i - j },
			"mult": func(i, j int) int { return i * j },
			"div":  func(i, j int) int { return i / j },
			"max": func(i, j int) int {
				if i > j {
					return i
				}
				return j
			},
		})

	var bodySpec string
	for _, vc := range rv.views {
		tname, parseErr := vc.Parse(rt)
		if parseErr != nil {
			return "", parseErr
		}
		bodySpec += `{{ template "` + tname + `" . }}`
	}

	// The main template bootstraps the rest: sets up client websocket and updates, aggregates views.
	name = "mainpage"
	indexTemplate := `
	{{ define "` + name + `" }}
	<!DOCTYPE html>
	<html>
		<head>
			<title>qmaze</title>
			<link rel="icon" href="data:,">
			<!--The client bootstrap code by which the server pushes new data to the view via websocket.-->
			<script>
				const ws = new WebSocket("ws://" + location.host + "/ws");
				ws.onopen = function (event) {
					console.log("Web socket opened")
				};

				ws.onerror = function (event) {
					console.log('WebSocket error: ', event);
				};

				// When the server pushes view updates, find these eles and update them.
				ws.onmessage = function (event) {
					items = JSON.parse(event.data)
					for (const update of items) {
						const ele = document.getElementById(update.EleId)
						if (ele === null) {
							continue
						}
						for (const op of update.Ops) {
							if (op.Key === "textContent") {
								ele.textContent = op.Value;
							} else {
								ele.setAttribute(op.Key, op.Value)
							}
						}
					}
				}
			</script>
		</head>
		<body style="display: flex; flex-wrap: wrap; align-items: flex-start;">
		` + bodySpec + `
		</body></html>
	{{ end }}
	`

	_, err = rt.Parse(indexTemplate)
	return
}

// fanIn aggregates the views' ele-update channels into a single, batched channel.
func fanIn(
	done <-chan struct{},
	views []fastview.ViewComponent,
) <-chan []fastview.EleUpdate {
	inputs := make([]<-chan []fastview.EleUpdate, len(views))
	for i, view := range views {
		inputs[i] = view.Updates()
	}
	return batchify(
		done,
		channerics.Merge(done, inputs...),
		batchWindow)
}

// batchify batches within the passed time frame before sending, over-writing previously
// received values for the same ele-id. This ensures that redundant updates for the
// same ele-id are not sent, and only the latest values are sent. Whatever is pending
// when the source closes is flushed.
func batchify(
	done <-chan struct{},
	source <-chan []fastview.EleUpdate,
	rate time.Duration,
) <-chan []fastview.EleUpdate {
	output := make(chan []fastview.EleUpdate)

	go func() {
		defer close(output)

		data := map[string]fastview.EleUpdate{}
		order := []string{}
		send := func() bool {
			batch := make([]fastview.EleUpdate, 0, len(order))
			for _, id := range order {
				batch = append(batch, data[id])
			}
			select {
			case output <- batch:
				data = map[string]fastview.EleUpdate{}
				order = order[:0]
				return true
			case <-done:
				return false
			}
		}

		var last time.Time
		for updates := range channerics.OrDone(done, source) {
			// Intentionally overwrites pre-existing values for an ele-id within this batch's time frame.
			for _, update := range updates {
				if _, seen := data[update.EleId]; !seen {
					order = append(order, update.EleId)
				}
				data[update.EleId] = update
			}

			if time.Since(last) > rate && len(data) > 0 {
				if !send() {
					return
				}
				last = time.Now()
			}
		}
		if len(data) > 0 {
			send()
		}
	}()

	return output
}
