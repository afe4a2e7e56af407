package httpapi

import (
	"errors"
	"net/http"

	"github.com/dharitri/backend/internal/buildinfo"
	"github.com/dharitri/backend/internal/common"
	"github.com/gin-gonic/gin"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "version": buildinfo.Version})
}

// token implements the OAuth2 password grant form.
func (s *Server) token(c *gin.Context) {
	username, password := c.PostForm("username"), c.PostForm("password")
	if username == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "username and password are required"})
		return
	}

	token, err := s.users.Login(c.Request.Context(), username, password)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{AccessToken: token, TokenType: common.TokenType})
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	_, err := s.users.Register(c.Request.Context(), req.Username, req.Password, req.Email, req.Role)
	if errors.Is(err, common.ErrorAlreadyExists) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Username already exists"})
		return
	}
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.logger.Info(c.Request.Context(), "Registered", "username", req.Username)
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully"})
}

func (s *Server) dietConsult(c *gin.Context) {
	var req dietRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	answer, err := s.diet.Consult(c.Request.Context(), req.Question, req.ReportText)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"question": req.Question, "answer": answer})
}
