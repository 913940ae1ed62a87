package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"distributor/internal/models"
	"distributor/internal/redis"
	"distributor/internal/repository"
	"distributor/internal/workflow"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrUnauthenticated    = errors.New("could not validate credentials")
)

// Claims carried by an access token. Subject is the username and ID the session key.
type Claims struct {
	UserID uint        `json:"uid"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

type UserService interface {
	Register(ctx context.Context, username, email, password string, role models.Role) (*models.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context, claims *Claims) error
	Authenticate(ctx context.Context, token string) (*models.User, *Claims, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

type userService struct {
	userRepo   repository.UserRepository
	sessions   redis.SessionStore
	jwtSecret  []byte
	sessionTTL time.Duration
	logger     *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, sessions redis.SessionStore, jwtSecret string, sessionTTL time.Duration, logger *zap.Logger) UserService {
	return &userService{
		userRepo:   userRepo,
		sessions:   sessions,
		jwtSecret:  []byte(jwtSecret),
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

func (s *userService) Register(ctx context.Context, username, email, password string, role models.Role) (*models.User, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", workflow.ErrValidation, role)
	}
	if _, err := s.userRepo.GetByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("%w: username already registered", workflow.ErrValidation)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:       username,
		Email:          strings.ToLower(email),
		HashedPassword: string(hashedPassword),
		Role:           role,
		IsActive:       true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: username or email already registered", workflow.ErrValidation)
		}
		return nil, err
	}

	s.logger.Info("user registered", zap.Uint("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

func (s *userService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	jti := uuid.New().String()
	claims := &Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}

	session := &redis.SessionData{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      string(user.Role),
		CreatedAt: now,
	}
	if err := s.sessions.SetSession(ctx, jti, session, s.sessionTTL); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	s.logger.Info("user logged in", zap.Uint("user_id", user.ID))
	return token, nil
}

func (s *userService) Logout(ctx context.Context, claims *Claims) error {
	if err := s.sessions.DeleteSession(ctx, claims.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.logger.Info("user logged out", zap.Uint("user_id", claims.UserID))
	return nil
}

// Authenticate accepts a token only while its session is alive and its user still exists.
func (s *userService) Authenticate(ctx context.Context, tokenString string) (*models.User, *Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid || claims.ID == "" {
		return nil, nil, ErrUnauthenticated
	}

	session, err := s.sessions.GetSession(ctx, claims.ID)
	if err != nil {
		if !errors.Is(err, redis.ErrSessionNotFound) {
			s.logger.Error("session lookup failed", zap.Error(err))
		}
		return nil, nil, ErrUnauthenticated
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil || user.Username != claims.Subject {
		if derr := s.sessions.DeleteSession(ctx, claims.ID); derr != nil {
			s.logger.Warn("failed to drop orphaned session", zap.String("session_id", claims.ID), zap.Error(derr))
		}
		return nil, nil, ErrUnauthenticated
	}
	return user, claims, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *userService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.userRepo.GetByUsername(ctx, username)
}
