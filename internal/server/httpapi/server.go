// Package httpapi serves the app shell and the HTTP half of the note API:
// the note list read by the offline worker and the endpoint that replays
// queued offline writes.
package httpapi

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/deepnote/internal/common"
	"github.com/dmitrijs2005/deepnote/internal/logging"
	"github.com/dmitrijs2005/deepnote/internal/server/assets"
	"github.com/dmitrijs2005/deepnote/internal/server/models"
	"github.com/gorilla/mux"
)

type authenticator interface {
	Authenticate(accessToken string) (string, error)
}

type noteSvc interface {
	List(ctx context.Context, userID string, archived bool) ([]*models.Note, error)
	ApplySync(ctx context.Context, userID string, p models.SyncTaskPayload) (*models.Note, error)
}

func readAsset(name string) ([]byte, error) {
	return fs.ReadFile(assets.FS, name)
}

type Server struct {
	address string
	users   authenticator
	notes   noteSvc
	limiter *userLimiter
	logger  logging.Logger
	router  *mux.Router
}

// NewServer builds the router. syncRPS and syncBurst bound POST /api/sync
// per user; a non-positive rate disables the limit.
func NewServer(a string, l logging.Logger, us authenticator, ns noteSvc, syncRPS float64, syncBurst int) *Server {
	s := &Server{
		address: a,
		users:   us,
		notes:   ns,
		limiter: newUserLimiter(syncRPS, syncBurst),
		logger:  l.With("module", "http_server"),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.bearerAuth)
	api.HandleFunc("/notes", s.listNotes).Methods(http.MethodGet)
	api.Handle("/sync", s.rateLimit(http.HandlerFunc(s.postSync))).Methods(http.MethodPost)

	for p, name := range map[string]string{
		"/":                     "index.html",
		"/index.html":           "index.html",
		"/manifest.webmanifest": "manifest.webmanifest",
		"/sw.js":                "sw.js",
	} {
		r.HandleFunc(p, s.serveAsset(name)).Methods(http.MethodGet, http.MethodHead)
	}
	r.HandleFunc("/icons/{name}", s.serveIcon).Methods(http.MethodGet, http.MethodHead)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, HTTPError{Title: "Not Found", Message: "the requested resource was unable to be found", Status: http.StatusNotFound})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, HTTPError{Title: "Method Not Allowed", Message: "method not allowed", Status: http.StatusMethodNotAllowed})
	})
	return r
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down within five seconds.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address, "sync_endpoint", common.SyncEndpointPath)

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
