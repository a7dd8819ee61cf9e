// Package rest exposes the user and project services over HTTP using gin.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/projectgate/internal/logging"
	"github.com/dmitrijs2005/projectgate/internal/server/models"
	"github.com/dmitrijs2005/projectgate/internal/server/services"
	"github.com/gin-gonic/gin"
)

type UserService interface {
	Signup(ctx context.Context, username, password string) (*services.IssuedToken, error)
	Login(ctx context.Context, username, password string) (*services.IssuedToken, error)
	ResolveCurrentUser(ctx context.Context, token string) (*models.User, error)
	Logout(ctx context.Context, token string) error
	SetRole(ctx context.Context, actor *models.User, username, role string) (*models.User, error)
}

type ProjectService interface {
	List(ctx context.Context) ([]*models.Project, error)
	Create(ctx context.Context, actor *models.User, in models.ProjectInput) (*models.Project, error)
	Update(ctx context.Context, actor *models.User, id int64, in models.ProjectInput) (*models.Project, error)
	Delete(ctx context.Context, actor *models.User, id int64) error
}

type HTTPServer struct {
	address         string
	users           UserService
	projects        ProjectService
	logger          logging.Logger
	shutdownTimeout time.Duration
}

func NewHTTPServer(a string, l logging.Logger, us UserService, ps ProjectService, shutdownTimeout time.Duration) *HTTPServer {
	return &HTTPServer{
		address:         a,
		logger:          l.With("module", "http_server"),
		users:           us,
		projects:        ps,
		shutdownTimeout: shutdownTimeout,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most shutdownTimeout.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen)
}

// GinMode maps the configured log level to a gin mode. Only debug logging
// keeps gin's own debug output.
func GinMode(logLevel string) string {
	if logLevel == "debug" {
		return gin.DebugMode
	}
	return gin.ReleaseMode
}

func (s *HTTPServer) serve(ctx context.Context, listen net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		done <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cancel()
		<-done
		return err
	}
	return <-done
}
