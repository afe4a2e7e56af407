package httpapi

import (
	"errors"
	"net/http"

	"github.com/dharitri/backend/internal/common"
	"github.com/gin-gonic/gin"
)

// writeError maps service errors onto status codes. Unexpected errors are
// logged and reported without detail.
func (s *Server) writeError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError

	switch {
	case errors.Is(err, common.ErrorInvalidCredentials):
		c.Header("WWW-Authenticate", common.BearerScheme)
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Incorrect username or password"})
	case errors.Is(err, common.ErrInvalidToken):
		c.Header("WWW-Authenticate", common.BearerScheme)
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
	case errors.Is(err, common.ErrorForbidden):
		c.JSON(http.StatusForbidden, gin.H{"detail": "Not authorized"})
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrorAlreadyExists):
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": err.Error()})
	case errors.As(err, &tooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"detail": "Request body too large"})
	default:
		s.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal Server Error"})
	}
}
