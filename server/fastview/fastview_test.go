package fastview

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	. "github.com/smartystreets/goconvey/convey"
)

// echoView publishes one ele-update per view-model it receives.
type echoView struct {
	id      string
	updates <-chan []EleUpdate
}

func newEchoView(id string) ViewBuilderFunc[string] {
	return func(done <-chan struct{}, models <-chan string) ViewComponent {
		ev := &echoView{id: id}
		ev.updates = channerics.Convert(done, models, func(s string) []EleUpdate {
			return []EleUpdate{{EleId: ev.id, Ops: []Op{{Key: "textContent", Value: s}}}}
		})
		return ev
	}
}

func (ev *echoView) Updates() <-chan []EleUpdate { return ev.updates }

func (ev *echoView) Parse(t *template.Template) (string, error) {
	_, err := t.Parse(`{{ define "` + ev.id + `" }}<span id="` + ev.id + `">{{ . }}</span>{{ end }}`)
	return ev.id, err
}

func TestViewBuilder(t *testing.T) {
	Convey("When building views", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		Convey("When no views were added", func() {
			_, err := NewViewBuilder[int, string]().
				WithModel(make(chan int), func(i int) string { return fmt.Sprint(i) }).
				Build()
			So(errors.Is(err, ErrNoViews), ShouldBeTrue)
		})

		Convey("When no model was added", func() {
			_, err := NewViewBuilder[int, string]().
				WithView(newEchoView("a")).
				Build()
			So(errors.Is(err, ErrNoModel), ShouldBeTrue)
		})

		Convey("When every view receives every view-model", func() {
			input := make(chan int)
			views, err := NewViewBuilder[int, string]().
				WithContext(ctx).
				WithModel(input, func(i int) string { return fmt.Sprintf("v%d", i) }).
				WithView(newEchoView("a")).
				WithView(newEchoView("b")).
				Build()
			So(err, ShouldBeNil)
			So(len(views), ShouldEqual, 2)

			go func() {
				defer close(input)
				input <- 7
			}()

			for i, id := range []string{"a", "b"} {
				select {
				case updates := <-views[i].Updates():
					So(updates, ShouldResemble, []EleUpdate{{EleId: id, Ops: []Op{{Key: "textContent", Value: "v7"}}}})
				case <-time.After(time.Second):
					So("timed out waiting for view "+id, ShouldBeEmpty)
				}
			}

			name, err := views[0].Parse(template.New("root"))
			So(err, ShouldBeNil)
			So(name, ShouldEqual, "a")
		})
	})
}

func TestClient(t *testing.T) {
	Convey("Given a websocket client publishing updates", t, func() {
		updates := make(chan []EleUpdate)
		syncErr := make(chan error, 1)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cli, err := NewClient(updates, w, r, WithPublishRate(0))
			if err != nil {
				syncErr <- err
				return
			}
			syncErr <- cli.Sync()
		}))
		defer srv.Close()

		url := "ws" + strings.TrimPrefix(srv.URL, "http")
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		So(err, ShouldBeNil)
		defer conn.Close()

		Convey("When updates are sent and then closed", func() {
			want := []EleUpdate{{EleId: "1-1-value-text", Ops: []Op{{Key: "textContent", Value: "3.50"}}}}
			updates <- want

			var got []EleUpdate
			So(conn.ReadJSON(&got), ShouldBeNil)
			So(got, ShouldResemble, want)

			close(updates)
			// Keep reading so control frames are serviced until the server closes.
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					break
				}
			}
			select {
			case err := <-syncErr:
				So(err, ShouldBeNil)
			case <-time.After(5 * time.Second):
				So("timed out waiting for Sync", ShouldBeEmpty)
			}
		})
	})
}

func TestNewClientRejectsPlainHTTP(t *testing.T) {
	Convey("When the request is not a websocket upgrade", t, func() {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		cli, err := NewClient(make(chan int), rec, req)
		So(cli, ShouldBeNil)
		So(err, ShouldNotBeNil)
		So(rec.Code, ShouldEqual, http.StatusBadRequest)
	})
}
