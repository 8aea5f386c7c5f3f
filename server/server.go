package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"time"

	"qmaze/charts"
	"qmaze/maze"
	"qmaze/reinforcement"
	"qmaze/server/cell_views"
	"qmaze/server/fastview"
	"qmaze/server/root_view"

	"github.com/gorilla/mux"
)

const shutdownGracePeriod = 5 * time.Second

// Server serves a single page of live training views to a single client over a single
// websocket, plus the history chart of everything recorded so far.
type Server struct {
	addr       string
	grid       *maze.Grid
	initial    cell_views.Frame
	rootView   *root_view.RootView
	history    *HistoryLog
	httpServer *http.Server
}

// NewServer initializes all of the views over grid, fed by results, and returns a server.
// The history is read by the /history endpoint and is written by the caller.
func NewServer(
	ctx context.Context,
	addr string,
	grid *maze.Grid,
	results <-chan *reinforcement.EpisodeResult,
	history *HistoryLog,
) (*Server, error) {
	rootView, err := root_view.NewRootView(ctx, grid, results)
	if err != nil {
		return nil, fmt.Errorf("build views: %w", err)
	}

	server := &Server{
		addr:     addr,
		grid:     grid,
		initial:  cell_views.Convert(grid, nil),
		rootView: rootView,
		history:  history,
	}
	server.httpServer = &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server, nil
}

// Router returns the server's routes.
func (server *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/", server.serveIndex).Methods(http.MethodGet)
	router.HandleFunc("/ws", server.serveWebsocket).Methods(http.MethodGet)
	router.HandleFunc("/history", server.serveHistory).Methods(http.MethodGet)
	return router
}

// Serve listens until ctx is cancelled, then shuts down gracefully.
func (server *Server) Serve(ctx context.Context) error {
	errs := make(chan error, 1)
	go func() {
		log.Printf("[server] listening on %s", server.addr)
		errs <- server.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	if err := server.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// serveWebsocket publishes view updates to the client via websocket.
// The update channel is shared, so only one client receives any given update.
func (server *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	cli, err := fastview.NewClient(server.rootView.Updates(), w, r)
	if err != nil {
		log.Println("[server] websocket:", err)
		return
	}
	if err = cli.Sync(); err != nil {
		log.Println("[server] websocket sync:", err)
	}
}

// Serve the index.html main page.
func (server *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if err := renderTemplate(w, server.rootView, server.initial); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// serveHistory renders the charts of the history recorded so far.
func (server *Server) serveHistory(w http.ResponseWriter, r *http.Request) {
	records, table := server.history.Snapshot()
	w.Header().Set("Content-Type", "text/html")
	if err := charts.HistoryPage(w, records, table, server.grid); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func renderTemplate(
	w io.Writer,
	vc fastview.ViewComponent,
	data interface{},
) (err error) {
	t := template.New("index.html")
	var tname string
	if tname, err = vc.Parse(t); err != nil {
		return
	}
	if _, err = t.Parse(`{{ template "` + tname + `" . }}`); err != nil {
		return
	}

	err = t.Execute(w, data)
	return
}
