// Package httpapi exposes the report, account and diet operations over
// HTTP/JSON using gin.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dharitri/backend/internal/logging"
	"github.com/dharitri/backend/internal/server/auth"
	"github.com/dharitri/backend/internal/server/models"
	"github.com/dharitri/backend/internal/server/pipeline"
	"github.com/dharitri/backend/internal/server/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type UserService interface {
	Register(ctx context.Context, username, password, email, role string) (*models.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	Identify(ctx context.Context, token string) (*auth.Principal, error)
}

type ReportService interface {
	ListForUser(ctx context.Context, owner string) ([]models.Report, error)
	ListPending(ctx context.Context) ([]models.Report, error)
	ListAll(ctx context.Context, filter services.ReportFilter) ([]models.ReportWithOwner, error)
	Update(ctx context.Context, id int64, notes string, approval bool) error
	DocumentURL(ctx context.Context, p *auth.Principal, id int64) (string, error)
}

type DietService interface {
	Consult(ctx context.Context, question, reportText string) (string, error)
}

type ReportPipeline interface {
	Analyze(ctx context.Context, owner string, up pipeline.Upload) (*pipeline.Result, error)
}

// Options configure a Server. Zero MaxBodyBytes disables the body limit and
// empty CORSOrigins disables CORS handling.
type Options struct {
	Address         string
	CORSOrigins     []string
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
	Logger          logging.Logger
	Users           UserService
	Reports         ReportService
	Diet            DietService
	Pipeline        ReportPipeline
}

type Server struct {
	address         string
	shutdownTimeout time.Duration
	logger          logging.Logger
	users           UserService
	reports         ReportService
	diet            DietService
	pipeline        ReportPipeline
	router          *gin.Engine
}

func NewServer(o Options) *Server {
	if o.Logger == nil {
		o.Logger = logging.Nop()
	}
	s := &Server{
		address:         o.Address,
		shutdownTimeout: o.ShutdownTimeout,
		logger:          o.Logger.With("module", "http_server"),
		users:           o.Users,
		reports:         o.Reports,
		diet:            o.Diet,
		pipeline:        o.Pipeline,
	}
	s.router = s.setupRouter(o)
	return s
}

// Handler returns the routed gin engine.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRouter(o Options) *gin.Engine {
	router := gin.New()
	router.Use(
		s.requestLogger(),
		gin.CustomRecoveryWithWriter(nil, s.recoverPanic),
	)
	if len(o.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     o.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	if o.MaxBodyBytes > 0 {
		router.Use(limitBodySize(o.MaxBodyBytes))
	}

	router.GET("/health", s.health)
	router.POST("/token", s.token)
	router.POST("/register", s.register)

	authed := router.Group("/", s.bearerAuth)
	authed.POST("/reports/analyze", s.analyzeReport)
	authed.GET("/reports", s.listReports)
	authed.GET("/reports/:id/document", s.reportDocument)
	authed.POST("/diet/consult", s.dietConsult)

	doctor := authed.Group("/", requireRole(models.RoleDoctor))
	doctor.GET("/reports/pending", s.listPending)
	doctor.GET("/reports/all", s.listAll)
	doctor.PUT("/reports/:id", s.updateReport)

	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
