// Package httpapi exposes the messagely core over HTTP. Routing is thin:
// handlers bind the request, resolve the principal, and delegate to the
// services, which own all authorization decisions.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mpc180222/messagely/internal/logging"
	"github.com/mpc180222/messagely/internal/server/models"
	"github.com/mpc180222/messagely/internal/server/services"
)

// UserService is the account surface the handlers need.
type UserService interface {
	Register(ctx context.Context, p services.RegisterParams) (*models.UserPublic, string, error)
	Login(ctx context.Context, username, password string) (string, error)
	GetPublic(ctx context.Context, username string) (*models.UserPublic, error)
	ListAll(ctx context.Context) ([]models.UserSummary, error)
}

// MessageService is the messaging surface the handlers need.
type MessageService interface {
	Send(ctx context.Context, principal, declaredFrom, toUsername, body string) (*models.Message, error)
	Get(ctx context.Context, principal, id string) (*models.MessageDetail, error)
	MarkRead(ctx context.Context, principal, id string) (*models.ReadReceipt, error)
	ListFrom(ctx context.Context, principal, username string) ([]models.OutgoingMessage, error)
	ListTo(ctx context.Context, principal, username string) ([]models.IncomingMessage, error)
}

type Server struct {
	address   string
	users     UserService
	messages  MessageService
	logger    logging.Logger
	jwtSecret []byte
}

func NewServer(address string, l logging.Logger, us UserService, ms MessageService, secretKey string) *Server {
	return &Server{
		address:   address,
		logger:    l.With("module", "http_server"),
		users:     us,
		messages:  ms,
		jwtSecret: []byte(secretKey),
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.POST("/login", s.login)
	r.POST("/register", s.register)

	authed := r.Group("/", s.requireAuth())
	authed.GET("/users", s.listUsers)
	authed.GET("/users/:username", s.getUser)
	authed.GET("/users/:username/from", s.userMessagesFrom)
	authed.GET("/users/:username/to", s.userMessagesTo)
	authed.GET("/messages/:id", s.getMessage)
	authed.POST("/messages", s.postMessage)
	authed.POST("/messages/:id/read", s.markMessageRead)

	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(ctx, "Error shutting down HTTP server", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
