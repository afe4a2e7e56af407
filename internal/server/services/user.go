// Package services contains server-side business logic. This file implements
// UserService: registration, password login and bearer token verification.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dharitri/backend/internal/common"
	"github.com/dharitri/backend/internal/server/auth"
	"github.com/dharitri/backend/internal/server/config"
	"github.com/dharitri/backend/internal/server/models"
	"github.com/dharitri/backend/internal/server/repositories/repomanager"
)

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	jwtSecret   []byte
	tokenTTL    time.Duration
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		jwtSecret:   []byte(cfg.SecretKey),
		tokenTTL:    cfg.AccessTokenTTL,
	}
}

// Register creates an account. An empty role means Patient; a taken
// username yields common.ErrorAlreadyExists. The username is stored as
// given, so Authenticate must be called with the same string.
func (s *UserService) Register(ctx context.Context, username, password, email, role string) (*models.User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrorValidation)
	}

	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, fmt.Errorf("%w: invalid email %q", common.ErrorValidation, email)
	}

	r, err := models.ParseRole(role)
	if err != nil {
		return nil, err
	}

	user := &models.User{Username: username, PasswordHash: auth.HashPassword(password), Email: email, Role: r}
	u, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Authenticate checks a username/password pair. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, common.ErrorInvalidCredentials
	}
	return user, nil
}

// Login authenticates and issues an access token.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}

	token, err := auth.GenerateToken(user.Username, user.Role, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

// Identify verifies a bearer token and resolves its subject against the
// credential store; the stored role is authoritative. Every failure is
// common.ErrInvalidToken.
func (s *UserService) Identify(ctx context.Context, token string) (*auth.Principal, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, claims.Username())
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	return &auth.Principal{Username: user.Username, Role: user.Role}, nil
}
