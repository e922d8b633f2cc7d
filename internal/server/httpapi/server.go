// Package httpapi exposes the user store over HTTP/JSON.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/alert/internal/logging"
	"github.com/dmitrijs2005/alert/internal/server/models"
	"github.com/gorilla/mux"
)

// Users is the subset of services.UserService served over HTTP.
type Users interface {
	Register(ctx context.Context, username string, password []byte) (*models.User, error)
	CheckUsername(ctx context.Context, username string) (bool, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	ResetPassword(ctx context.Context, id string, password []byte) (*models.User, error)
	Archive(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.User, error)
}

// Pinger reports whether the database is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	address         string
	users           Users
	db              Pinger
	logger          logging.Logger
	shutdownTimeout time.Duration
}

func NewServer(address string, l logging.Logger, users Users, db Pinger, shutdownTimeout time.Duration) *Server {
	return &Server{
		address:         address,
		users:           users,
		db:              db,
		logger:          l.With("module", "http_server"),
		shutdownTimeout: shutdownTimeout,
	}
}

// Handler builds the router with every route and middleware attached.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api/users").Subrouter()
	api.HandleFunc("", s.register).Methods(http.MethodPost)
	api.HandleFunc("", s.list).Methods(http.MethodGet)
	api.HandleFunc("/check-username", s.checkUsername).Methods(http.MethodGet)
	api.HandleFunc("/by-username/{username}", s.getByUsername).Methods(http.MethodGet)
	api.HandleFunc("/{id}", s.get).Methods(http.MethodGet)
	api.HandleFunc("/{id}", s.archive).Methods(http.MethodDelete)
	api.HandleFunc("/{id}/password", s.resetPassword).Methods(http.MethodPut)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down within the configured
// timeout.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()
		done <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return <-done
}
