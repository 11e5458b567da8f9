package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/uniwhats/desk/internal/middleware"
	"github.com/uniwhats/desk/internal/model"
	"github.com/uniwhats/desk/internal/store"
	"github.com/uniwhats/desk/pkg/logger"
)

// AuthService resolves credentials to desk actors.
type AuthService struct {
	store     Store
	jwtSecret string
	tokenTTL  time.Duration
	logger    *logger.Logger
}

// NewAuthService creates an auth service.
func NewAuthService(st Store, jwtSecret string, tokenTTL time.Duration, log *logger.Logger) *AuthService {
	return &AuthService{store: st, jwtSecret: jwtSecret, tokenTTL: tokenTTL, logger: log}
}

// Login verifies the email/password pair and issues a bearer token.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := middleware.IssueToken(s.jwtSecret, user, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &model.LoginResponse{User: user, Token: token}, nil
}

// Me returns the full user record behind an authenticated actor.
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	return s.store.GetUser(ctx, userID)
}
