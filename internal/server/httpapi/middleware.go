package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dharitri/backend/internal/common"
	"github.com/dharitri/backend/internal/logging"
	"github.com/dharitri/backend/internal/server/auth"
	"github.com/dharitri/backend/internal/server/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	principalKey    = "principal"
)

// requestLogger tags the request context with an id and writes one access
// log record per request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))

		start := time.Now()
		c.Next()

		s.logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) recoverPanic(c *gin.Context, recovered any) {
	s.logger.Error(c.Request.Context(), "panic serving request", "panic", recovered)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Internal Server Error"})
}

func limitBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// bearerAuth resolves the Authorization header to a principal.
func (s *Server) bearerAuth(c *gin.Context) {
	scheme, token, ok := strings.Cut(c.GetHeader(common.AuthorizationHeader), " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) || token == "" {
		c.Header("WWW-Authenticate", common.BearerScheme)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}

	p, err := s.users.Identify(c.Request.Context(), token)
	if err != nil {
		s.writeError(c, common.ErrInvalidToken)
		c.Abort()
		return
	}

	c.Set(principalKey, p)
	c.Next()
}

func requireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.RequireRole(principal(c), role); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "Not authorized"})
			return
		}
		c.Next()
	}
}

func principal(c *gin.Context) *auth.Principal {
	p, _ := c.MustGet(principalKey).(*auth.Principal)
	return p
}
