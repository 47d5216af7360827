package services

import (
	"context"
	"errors"

	"github.com/swapi-vault/movies-api/internal/auth"
	"github.com/swapi-vault/movies-api/internal/metrics"
	"github.com/swapi-vault/movies-api/internal/models"
	"github.com/swapi-vault/movies-api/internal/storage"
	apperrors "github.com/swapi-vault/movies-api/pkg/errors"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository persists users; usernames are unique
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// TokenSigner issues tokens for one strategy
type TokenSigner interface {
	Sign(p auth.Payload) (string, error)
}

type AuthService struct {
	users   UserRepository
	access  TokenSigner
	refresh TokenSigner
	cost    int
	logger  *logrus.Logger
}

func NewAuthService(users UserRepository, access, refresh TokenSigner, logger *logrus.Logger) *AuthService {
	return &AuthService{
		users:   users,
		access:  access,
		refresh: refresh,
		cost:    bcrypt.DefaultCost,
		logger:  logger,
	}
}

// Register hashes the password and stores a new user. The returned user never carries the password.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		metrics.RecordAuthAttempt("register", "failure")
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperrors.NewAppError(apperrors.CodeBadRequest, "password is too long", err)
		}
		return nil, apperrors.NewAppError(apperrors.CodeInternalError, "Failed to process password", err)
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         req.Role,
	}

	if err := s.users.Create(ctx, user); err != nil {
		metrics.RecordAuthAttempt("register", "failure")
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, apperrors.NewAppError(apperrors.CodeConflict, "Username already exists", err)
		}
		s.logger.WithError(err).WithField("username", req.Username).Error("Failed to create user")
		return nil, apperrors.NewAppError(apperrors.CodeInternalError, "Failed to create user", err)
	}

	metrics.RecordAuthAttempt("register", "success")
	s.logger.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
	}).Info("User registered successfully")

	user.PasswordHash = ""
	return user, nil
}

// Login checks the credentials and issues an access and a refresh token
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.TokenPair, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		metrics.RecordAuthAttempt("login", "failure")
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NewAppError(apperrors.CodeNotFound, "User not found", err)
		}
		return nil, apperrors.NewAppError(apperrors.CodeInternalError, "Failed to load user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		metrics.RecordAuthAttempt("login", "failure")
		s.logger.WithField("username", username).Warn("Invalid password")
		return nil, apperrors.NewAppError(apperrors.CodeUnauthenticated, "Invalid username or password", nil)
	}

	payload := auth.Payload{ID: user.ID, Role: user.Role}

	accessToken, err := s.access.Sign(payload)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.CodeInternalError, "Failed to generate token", err)
	}
	refreshToken, err := s.refresh.Sign(payload)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.CodeInternalError, "Failed to generate token", err)
	}

	metrics.RecordAuthAttempt("login", "success")
	s.logger.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("User logged in successfully")

	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// RefreshToken issues a new access token for an already verified refresh payload.
// The store is not consulted.
func (s *AuthService) RefreshToken(payload auth.Payload) (*models.AccessTokenResponse, error) {
	accessToken, err := s.access.Sign(auth.Payload{ID: payload.ID, Role: payload.Role})
	if err != nil {
		metrics.RecordAuthAttempt("refresh", "failure")
		return nil, apperrors.NewAppError(apperrors.CodeInternalError, "Failed to generate token", err)
	}

	metrics.RecordAuthAttempt("refresh", "success")
	return &models.AccessTokenResponse{AccessToken: accessToken}, nil
}

// EnsureUser registers the user unless the username is already taken.
// It reports whether a user was created.
func (s *AuthService) EnsureUser(ctx context.Context, username, password string, role models.Role) (bool, error) {
	_, err := s.users.GetByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return false, apperrors.WrapError(err, "Failed to look up bootstrap user")
	}

	if _, err := s.Register(ctx, models.RegisterRequest{Username: username, Password: password, Role: role}); err != nil {
		if apperrors.HasCode(err, apperrors.CodeConflict) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
